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

package watch

import (
	"github.com/GoogleChromeLabs/graphcache/graphdoc"
	"github.com/GoogleChromeLabs/graphcache/normalize"
	"github.com/google/uuid"
)

// Transaction is the scoped writer handle passed to a
// Broadcaster.PerformTransaction closure: every write routes to the
// base store, and no watch callback fires until the closure returns.
type Transaction struct {
	// ID uniquely identifies one PerformTransaction call, useful for
	// correlating log lines across a multi-write transaction.
	ID string

	writer *normalize.Writer
}

func newTransaction(writer *normalize.Writer) *Transaction {
	return &Transaction{ID: uuid.NewString(), writer: writer}
}

// Write normalizes result into the base store.
func (t *Transaction) Write(doc *graphdoc.Document, operationName string, variables map[string]any, result map[string]any, rootID string) error {
	return t.writer.Write(doc, operationName, variables, result, rootID)
}

// WriteFragment normalizes result against a fragment's selection set
// into the base store, rooted explicitly at rootID.
func (t *Transaction) WriteFragment(doc *graphdoc.Document, fragmentName string, variables map[string]any, result map[string]any, rootID string) error {
	return t.writer.WriteFragment(doc, fragmentName, variables, result, rootID)
}
