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

// Package graphcache is a normalized, reactive cache for typed
// graph-query results. It composes nine components (entitystore,
// fieldkey, fragment, querykey, normalize, executor, resultdiff,
// optimistic, watch) behind one facade: write a query or mutation
// result in, register watches that fire only when their own projection
// actually changes, layer speculative optimistic updates on top without
// touching the base store, and extract/restore the whole store for a
// warm start.
package graphcache

import (
	"github.com/GoogleChromeLabs/graphcache/entitystore"
	"github.com/GoogleChromeLabs/graphcache/executor"
	"github.com/GoogleChromeLabs/graphcache/fragment"
	"github.com/GoogleChromeLabs/graphcache/graphdoc"
	"github.com/GoogleChromeLabs/graphcache/normalize"
	"github.com/GoogleChromeLabs/graphcache/optimistic"
	"github.com/GoogleChromeLabs/graphcache/querykey"
	"github.com/GoogleChromeLabs/graphcache/resultdiff"
	"github.com/GoogleChromeLabs/graphcache/watch"
	"github.com/google/uuid"
)

// Option configures a Cache at construction time.
type Option func(*config)

type config struct {
	idExtractor     normalize.IDExtractor
	listIDExtractor resultdiff.IDExtractor
	matcher         fragment.Matcher
	resolvers       map[executor.ResolverKey]executor.Resolver
	validate        bool
	strict          bool
	returnPartial   bool
	watchWorkers    int
}

// WithIDExtractor installs the function used to derive a stable entity
// ID from a normalized result object. Without one, every written object
// gets a synthetic, path-based ID.
func WithIDExtractor(fn normalize.IDExtractor) Option {
	return func(c *config) { c.idExtractor = fn }
}

// WithListIDExtractor installs the function used to align list elements
// by ID rather than position when diffing a watch's projection across
// writes.
func WithListIDExtractor(fn resultdiff.IDExtractor) Option {
	return func(c *config) { c.listIDExtractor = fn }
}

// WithMatcher installs the fragment matcher shared by every read in the
// cache (base and optimistic). Without one, every fragment matches.
func WithMatcher(m fragment.Matcher) Option {
	return func(c *config) { c.matcher = m }
}

// WithResolvers installs field resolver overrides shared by every read.
func WithResolvers(resolvers map[executor.ResolverKey]executor.Resolver) Option {
	return func(c *config) { c.resolvers = resolvers }
}

// WithValidate turns on normalize's missing-field diagnostic.
func WithValidate(v bool) Option {
	return func(c *config) { c.validate = v }
}

// WithStrict turns normalize's schema-shape mismatches from a warning
// into a fatal error.
func WithStrict(v bool) Option {
	return func(c *config) { c.strict = v }
}

// WithReturnPartial controls whether a read missing a field returns a
// partial result (true) or a fatal error (false, the default).
func WithReturnPartial(v bool) Option {
	return func(c *config) { c.returnPartial = v }
}

// WithWatchWorkers bounds how many registered watches recompute
// concurrently per broadcast. Defaults to 4.
func WithWatchWorkers(n int) Option {
	return func(c *config) { c.watchWorkers = n }
}

// Cache is the facade over the nine cache components. The zero value is
// not usable; construct with New.
type Cache struct {
	base   *entitystore.Store
	stack  *optimistic.Stack
	writer *normalize.Writer

	baseExecutor       *executor.Executor
	optimisticExecutor *executor.Executor

	differ      *resultdiff.Differ
	broadcaster *watch.Broadcaster
}

// New constructs a Cache with an empty store.
func New(opts ...Option) *Cache {
	cfg := &config{watchWorkers: 4}
	for _, opt := range opts {
		opt(cfg)
	}

	var baseExec, optimisticExec *executor.Executor
	tracker := entitystore.NewDependencyTracker(func(memo any) {
		baseExec.Evict(memo)
		optimisticExec.Evict(memo)
	})
	base := entitystore.New(tracker)

	keyMaker := querykey.NewMaker()
	execOpts := []executor.Option{executor.WithReturnPartial(cfg.returnPartial)}
	if cfg.matcher != nil {
		execOpts = append(execOpts, executor.WithMatcher(cfg.matcher))
	}
	if cfg.resolvers != nil {
		execOpts = append(execOpts, executor.WithResolvers(cfg.resolvers))
	}
	baseExec = executor.New(base, keyMaker, execOpts...)

	stack := optimistic.NewStack(base)
	optimisticExec = executor.New(stack, keyMaker, execOpts...)

	writerOpts := []normalize.Option{}
	if cfg.idExtractor != nil {
		writerOpts = append(writerOpts, normalize.WithIDExtractor(cfg.idExtractor))
	}
	if cfg.matcher != nil {
		writerOpts = append(writerOpts, normalize.WithMatcher(cfg.matcher))
	}
	if cfg.validate {
		writerOpts = append(writerOpts, normalize.WithValidate(true))
	}
	if cfg.strict {
		writerOpts = append(writerOpts, normalize.WithStrict(true))
	}
	writer := normalize.New(base, writerOpts...)

	var differOpts []resultdiff.Option
	if cfg.listIDExtractor != nil {
		differOpts = append(differOpts, resultdiff.WithIDExtractor(cfg.listIDExtractor))
	}
	differ := resultdiff.New(differOpts...)

	broadcaster := watch.New(writer, stack, baseExec, optimisticExec, cfg.watchWorkers)

	return &Cache{
		base:               base,
		stack:              stack,
		writer:             writer,
		baseExecutor:       baseExec,
		optimisticExecutor: optimisticExec,
		differ:             differ,
		broadcaster:        broadcaster,
	}
}

// Write normalizes a query or mutation result into the store, rooted at
// rootID (entitystore.RootQuery when empty), then notifies any watch
// whose projection changed as a result.
func (c *Cache) Write(doc *graphdoc.Document, operationName string, variables map[string]any, result map[string]any, rootID string) error {
	return c.broadcaster.Write(doc, operationName, variables, result, rootID)
}

// WriteQuery is Write rooted at the implicit query root.
func (c *Cache) WriteQuery(doc *graphdoc.Document, variables map[string]any, result map[string]any) error {
	return c.Write(doc, "", variables, result, entitystore.RootQuery)
}

// WriteFragment normalizes result against a fragment's selection set,
// rooted explicitly at rootID.
func (c *Cache) WriteFragment(doc *graphdoc.Document, fragmentName string, variables map[string]any, result map[string]any, rootID string) error {
	return c.broadcaster.PerformTransaction(func(tx *watch.Transaction) error {
		return tx.WriteFragment(doc, fragmentName, variables, result, rootID)
	})
}

// Read projects doc's (operationName-selected) operation against
// rootID. When optimisticRead is true the projection is read through
// the optimistic layer stack; otherwise only the base store is
// consulted.
func (c *Cache) Read(doc *graphdoc.Document, operationName string, variables map[string]any, rootID string, optimisticRead bool) (executor.Result, error) {
	return c.exec(optimisticRead).Read(doc, operationName, variables, rootID)
}

// ReadQuery is Read rooted at the implicit query root.
func (c *Cache) ReadQuery(doc *graphdoc.Document, variables map[string]any, optimisticRead bool) (executor.Result, error) {
	return c.Read(doc, "", variables, entitystore.RootQuery, optimisticRead)
}

// ReadFragment projects the named fragment's selection set against an
// explicit rootID.
func (c *Cache) ReadFragment(doc *graphdoc.Document, fragmentName string, variables map[string]any, rootID string, optimisticRead bool) (executor.Result, error) {
	return c.exec(optimisticRead).ReadFragment(doc, fragmentName, variables, rootID)
}

func (c *Cache) exec(optimisticRead bool) *executor.Executor {
	if optimisticRead {
		return c.optimisticExecutor
	}

	return c.baseExecutor
}

// Diff reads doc's projection and reconciles it against prev (nil for a
// first read), reusing every subtree that compares equal.
func (c *Cache) Diff(prev *resultdiff.Result, doc *graphdoc.Document, operationName string, variables map[string]any, rootID string, optimisticRead bool) (resultdiff.Result, error) {
	res, err := c.Read(doc, operationName, variables, rootID, optimisticRead)
	if err != nil {
		return resultdiff.Result{}, err
	}

	return c.differ.Diff(prev, res.Data, res.Complete, res.Missing), nil
}

// Watch registers a long-lived projection. The callback fires once per
// write (or batch of writes inside a transaction) whose result actually
// changes what this watch projects; it never fires for the initial
// registration. The returned Disposer unregisters it.
func (c *Cache) Watch(opts watch.WatchOptions) watch.Disposer {
	if opts.Differ == nil {
		opts.Differ = c.differ
	}

	return c.broadcaster.Watch(opts)
}

// PerformTransaction runs fn against the base store; no watch callback
// fires until the outermost transaction (nested transactions are
// deferred to it) returns.
func (c *Cache) PerformTransaction(fn func(tx *watch.Transaction) error) error {
	return c.broadcaster.PerformTransaction(fn)
}

// RecordOptimisticTransaction pushes a new optimistic layer named name
// (a random name is generated when name is empty) and runs apply
// against it. Any watch reading optimistically observes the layer
// immediately.
func (c *Cache) RecordOptimisticTransaction(name string, apply optimistic.Apply) (string, error) {
	if name == "" {
		name = uuid.NewString()
	}

	return name, c.broadcaster.RecordOptimisticTransaction(name, apply)
}

// RemoveOptimistic removes a named optimistic layer, replaying the
// surviving layers above where it was.
func (c *Cache) RemoveOptimistic(name string) error {
	return c.broadcaster.RemoveOptimistic(name)
}

// Extract returns a point-in-time snapshot of the store, suitable for
// Restore. When optimisticSnapshot is true, the snapshot includes the
// composite view through every active optimistic layer; otherwise only
// the base store is captured.
func (c *Cache) Extract(optimisticSnapshot bool) map[string]entitystore.Record {
	if optimisticSnapshot {
		return c.stack.Snapshot()
	}

	return c.base.Snapshot()
}

// Restore replaces the base store's contents wholesale with snapshot
// (as produced by Extract) and evicts every memoized read. Active
// optimistic layers are dropped: a restore establishes a new base
// state, and replaying stale layers against it is not this cache's
// concern (callers that need the layers back re-apply them explicitly).
func (c *Cache) Restore(snapshot map[string]entitystore.Record) {
	c.stack.Clear()
	c.base.Restore(snapshot)
	c.baseExecutor.Reset()
	c.optimisticExecutor.Reset()
}

// Reset empties the store and drops every optimistic layer, leaving the
// Cache indistinguishable from a freshly constructed one apart from its
// registered watches (which remain registered and will recompute their
// baseline against the empty store on the next write).
func (c *Cache) Reset() {
	c.stack.Clear()
	c.base.Reset()
	c.baseExecutor.Reset()
	c.optimisticExecutor.Reset()
}
