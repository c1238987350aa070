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

// Package normalize walks a (document, variables, result) triple and
// emits merged writes into an entitystore.Store.
package normalize

import (
	"github.com/GoogleChromeLabs/graphcache/entitystore"
	"github.com/GoogleChromeLabs/graphcache/fragment"
)

// IDExtractor inspects a result object and returns its stable entity
// ID, if it has one. Returning ok=false (not a zero value) means "no
// stable ID" — 0, "", and false are all valid IDs when ok is true.
type IDExtractor func(obj map[string]any) (id any, ok bool)

// Option configures a Writer.
type Option func(*Writer)

// WithIDExtractor installs the function used to derive a stable entity
// ID from a result object. Without one, every written object gets a
// synthetic, path-based ID.
func WithIDExtractor(fn IDExtractor) Option {
	return func(w *Writer) { w.idExtractor = fn }
}

// WithMatcher installs the fragment matcher used to evaluate inline
// fragment and fragment spread type conditions. Without one, every
// fragment is treated as matching.
func WithMatcher(m fragment.Matcher) Option {
	return func(w *Writer) { w.matcher = m }
}

// WithValidate turns on the missing-field diagnostic: a selected field
// absent from the result object is logged (not fatal).
func WithValidate(v bool) Option {
	return func(w *Writer) { w.validate = v }
}

// WithStrict turns schema-shape mismatches (an ID-less object replacing
// a stable reference of the same declared type, or a result value whose
// shape doesn't match its selection) from a warning into a fatal error.
func WithStrict(v bool) Option {
	return func(w *Writer) { w.strict = v }
}

// New constructs a Writer over store.
func New(store entitystore.ReadWriter, opts ...Option) *Writer {
	w := &Writer{store: store}
	for _, opt := range opts {
		opt(w)
	}

	return w
}
