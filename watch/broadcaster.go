// Copyright 2026 The Graphcache Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package watch registers long-lived (query, variables, callback)
// watches and re-evaluates them after each write, notifying only the
// ones whose projected result actually changed, batched inside
// explicit transactions.
package watch

import (
	"context"
	"log/slog"
	"sync"

	"github.com/GoogleChromeLabs/graphcache/executor"
	"github.com/GoogleChromeLabs/graphcache/graphdoc"
	"github.com/GoogleChromeLabs/graphcache/normalize"
	"github.com/GoogleChromeLabs/graphcache/optimistic"
	"github.com/GoogleChromeLabs/graphcache/resultdiff"
)

// Callback is invoked with a watch's newly diffed projection whenever
// it changes.
type Callback func(result resultdiff.Result)

// Disposer unregisters a watch. Calling it more than once is a no-op.
type Disposer func()

// WatchOptions configures one registration.
type WatchOptions struct {
	Document      *graphdoc.Document
	OperationName string
	Variables     map[string]any
	RootID        string
	// Optimistic selects whether this watch reads through the
	// optimistic layer stack or only the base store.
	Optimistic bool
	Callback   Callback
	// Differ overrides the default resultdiff.Differ used to detect
	// change for this watch (e.g. to supply a list IDExtractor).
	Differ *resultdiff.Differ
}

type registration struct {
	id   uint64
	opts WatchOptions

	mu       sync.Mutex
	differ   *resultdiff.Differ
	prev     *resultdiff.Result
	disposed bool
}

// Broadcaster wires together the base writer, the optimistic layer
// stack, and the two executors (base-only and optimistic-aware) that
// back every registered watch.
type Broadcaster struct {
	baseWriter         *normalize.Writer
	stack              *optimistic.Stack
	baseExecutor       *executor.Executor
	optimisticExecutor *executor.Executor

	// numWorkers bounds how many watches recompute concurrently per
	// broadcast; callbacks still fire in registration order.
	numWorkers int

	mu           sync.Mutex
	nextID       uint64
	order        []uint64
	watches      map[uint64]*registration
	txDepth      int
	broadcasting bool
	rebroadcast  bool
}

// New constructs a Broadcaster. numWorkers <= 0 disables concurrency
// (watches recompute one at a time).
func New(baseWriter *normalize.Writer, stack *optimistic.Stack, baseExecutor, optimisticExecutor *executor.Executor, numWorkers int) *Broadcaster {
	return &Broadcaster{
		baseWriter:         baseWriter,
		stack:              stack,
		baseExecutor:       baseExecutor,
		optimisticExecutor: optimisticExecutor,
		numWorkers:         numWorkers,
		watches:            make(map[uint64]*registration),
	}
}

// Watch registers a new watch and establishes its baseline projection
// without firing its callback (the baseline is not a "change").
func (b *Broadcaster) Watch(opts WatchOptions) Disposer {
	differ := opts.Differ
	if differ == nil {
		differ = resultdiff.New()
	}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	reg := &registration{id: id, opts: opts, differ: differ}
	b.watches[id] = reg
	b.order = append(b.order, id)
	b.mu.Unlock()

	if _, err := b.recompute(reg); err != nil {
		slog.Error("watch: initial projection failed", "error", err)
	}

	var once sync.Once

	return func() {
		once.Do(func() {
			reg.mu.Lock()
			reg.disposed = true
			reg.mu.Unlock()

			b.mu.Lock()
			delete(b.watches, id)
			for i, existing := range b.order {
				if existing == id {
					b.order = append(b.order[:i], b.order[i+1:]...)

					break
				}
			}
			b.mu.Unlock()
		})
	}
}

// PerformTransaction runs fn with a Transaction proxy that writes to
// the base store. No watch callback fires while fn runs; exactly one
// fires per affected watch once the outermost transaction returns.
// Transactions may nest: the broadcast is deferred to the outermost
// call.
func (b *Broadcaster) PerformTransaction(fn func(tx *Transaction) error) error {
	return b.runAtomic(func() error {
		return fn(newTransaction(b.baseWriter))
	})
}

// RecordOptimisticTransaction pushes a new named optimistic layer,
// running apply against it, then broadcasts (deferred the same way as
// PerformTransaction when called from within one).
func (b *Broadcaster) RecordOptimisticTransaction(name string, apply optimistic.Apply) error {
	return b.runAtomic(func() error {
		if err := b.stack.AddLayer(name, apply); err != nil {
			return err
		}
		// The stack's composition just changed beneath every entity the
		// layer touches (and anything below it, after a future removal
		// replay). That isn't a base-store write the dependency tracker
		// sees, so the optimistic executor's memoized reads have to be
		// dropped wholesale rather than entity-by-entity.
		b.optimisticExecutor.Reset()

		return nil
	})
}

// RemoveOptimistic removes a named optimistic layer, re-applying the
// surviving layers, then broadcasts.
func (b *Broadcaster) RemoveOptimistic(name string) error {
	return b.runAtomic(func() error {
		if err := b.stack.RemoveLayer(name); err != nil {
			return err
		}
		b.optimisticExecutor.Reset()

		return nil
	})
}

// Write performs a single base-store write outside any explicit
// transaction, then broadcasts.
func (b *Broadcaster) Write(doc *graphdoc.Document, operationName string, variables map[string]any, result map[string]any, rootID string) error {
	return b.runAtomic(func() error {
		return b.baseWriter.Write(doc, operationName, variables, result, rootID)
	})
}

func (b *Broadcaster) runAtomic(op func() error) error {
	b.mu.Lock()
	b.txDepth++
	b.mu.Unlock()

	err := op()

	b.mu.Lock()
	b.txDepth--
	outermost := b.txDepth == 0
	b.mu.Unlock()

	if outermost {
		b.Broadcast()
	}

	return err
}

// Broadcast recomputes every active watch and fires the callback for
// each one whose projection changed since its last recompute.
// Recomputation may run concurrently (bounded by numWorkers); callback
// invocation always proceeds in the watches' registration order.
//
// A Broadcast initiated while one is already running (a watch callback
// that writes) is deferred: the in-progress pass completes, then one
// follow-on pass runs. This keeps a callback-write-callback chain from
// recursing without bound.
func (b *Broadcaster) Broadcast() {
	b.mu.Lock()
	if b.broadcasting {
		b.rebroadcast = true
		b.mu.Unlock()

		return
	}
	b.broadcasting = true
	b.mu.Unlock()

	for {
		b.broadcastPass()

		b.mu.Lock()
		again := b.rebroadcast
		b.rebroadcast = false
		if !again {
			b.broadcasting = false
		}
		b.mu.Unlock()
		if !again {
			return
		}
	}
}

func (b *Broadcaster) broadcastPass() {
	b.mu.Lock()
	regs := make([]*registration, 0, len(b.order))
	for _, id := range b.order {
		if r, ok := b.watches[id]; ok {
			regs = append(regs, r)
		}
	}
	b.mu.Unlock()

	if len(regs) == 0 {
		return
	}

	jobs := make([]recomputeJob, len(regs))
	for i, r := range regs {
		jobs[i] = recomputeJob{reg: r}
	}

	pool := recomputePool{broadcaster: b}
	outcomes := pool.run(context.Background(), jobs, b.numWorkers)

	for i, reg := range regs {
		outcome := outcomes[i]
		if outcome.err != nil {
			slog.Error("watch: recompute failed", "error", outcome.err)

			continue
		}
		if outcome.changed {
			reg.mu.Lock()
			result := *reg.prev
			disposed := reg.disposed
			reg.mu.Unlock()
			if disposed {
				continue
			}
			reg.opts.Callback(result)
		}
	}
}

func (b *Broadcaster) recompute(reg *registration) (bool, error) {
	exec := b.baseExecutor
	if reg.opts.Optimistic {
		exec = b.optimisticExecutor
	}

	res, err := exec.Read(reg.opts.Document, reg.opts.OperationName, reg.opts.Variables, reg.opts.RootID)
	if err != nil {
		return false, err
	}

	reg.mu.Lock()
	prev := reg.prev
	reg.mu.Unlock()

	diffed := reg.differ.Diff(prev, res.Data, res.Complete, res.Missing)

	reg.mu.Lock()
	reg.prev = &diffed
	reg.mu.Unlock()

	return diffed.Changed, nil
}
