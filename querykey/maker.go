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

// Package querykey assigns a stable identity to a selection-set node
// so that two structurally equal selection sets (coming from different
// documents that differ only in whitespace, comments, or the order of
// their fragment definitions) share the same memoization key.
package querykey

import (
	"strconv"
	"strings"
	"sync"

	"github.com/GoogleChromeLabs/graphcache/graphdoc"
)

// Key is an opaque, comparable identity for a selection-set node. Two
// structurally equal selection sets produce the same *Key (pointer
// equality), which is what makes it usable as part of a memoization
// key.
type Key struct {
	print string
}

// Maker canonically prints selection-set nodes and interns the result,
// so repeated calls with structurally equal selection sets return the
// identical *Key. Interning is done with a byte-trie (a prefix tree):
// each canonical string is looked up one byte at a time, and the
// terminal trie node holds the shared *Key for that string.
type Maker struct {
	mu   sync.Mutex
	root *trieNode
}

type trieNode struct {
	children map[byte]*trieNode
	key      *Key
}

// NewMaker constructs an empty interning table.
func NewMaker() *Maker {
	return &Maker{root: &trieNode{children: make(map[byte]*trieNode)}}
}

// KeyFor returns the interned identity for selection set sel.
func (m *Maker) KeyFor(sel []graphdoc.Selection) *Key {
	return m.intern(printSelectionSet(sel))
}

func (m *Maker) intern(s string) *Key {
	m.mu.Lock()
	defer m.mu.Unlock()

	node := m.root
	for i := 0; i < len(s); i++ {
		b := s[i]
		next, ok := node.children[b]
		if !ok {
			next = &trieNode{children: make(map[byte]*trieNode)}
			node.children[b] = next
		}
		node = next
	}
	if node.key == nil {
		node.key = &Key{print: s}
	}

	return node.key
}

func printSelectionSet(sel []graphdoc.Selection) string {
	var b strings.Builder
	b.WriteByte('{')
	for i, s := range sel {
		if i > 0 {
			b.WriteByte(',')
		}
		printSelection(&b, s)
	}
	b.WriteByte('}')

	return b.String()
}

func printSelection(b *strings.Builder, s graphdoc.Selection) {
	switch sel := s.(type) {
	case *graphdoc.Field:
		b.WriteString("F:")
		b.WriteString(sel.Alias)
		b.WriteByte(':')
		b.WriteString(sel.Name)
		printArgs(b, sel.Arguments)
		printDirectives(b, sel.Directives)
		if sel.SelectionSet != nil {
			b.WriteString(printSelectionSet(sel.SelectionSet))
		}
	case *graphdoc.InlineFragment:
		b.WriteString("I:")
		b.WriteString(sel.TypeCondition)
		printDirectives(b, sel.Directives)
		b.WriteString(printSelectionSet(sel.SelectionSet))
	case *graphdoc.FragmentSpread:
		b.WriteString("S:")
		b.WriteString(sel.Name)
		printDirectives(b, sel.Directives)
	}
}

func printArgs(b *strings.Builder, args []graphdoc.Argument) {
	if len(args) == 0 {
		return
	}
	b.WriteByte('(')
	for i, a := range args {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(a.Name)
		b.WriteByte(':')
		printValue(b, a.Value)
	}
	b.WriteByte(')')
}

func printDirectives(b *strings.Builder, directives []graphdoc.Directive) {
	for _, d := range directives {
		b.WriteByte('@')
		b.WriteString(d.Name)
		printArgs(b, d.Arguments)
	}
}

func printValue(b *strings.Builder, v graphdoc.Value) {
	switch val := v.(type) {
	case graphdoc.NullValue:
		b.WriteString("null")
	case graphdoc.IntValue:
		b.WriteString(strconv.FormatInt(int64(val), 10))
	case graphdoc.FloatValue:
		b.WriteString(strconv.FormatFloat(float64(val), 'g', -1, 64))
	case graphdoc.StringValue:
		b.WriteString(strconv.Quote(string(val)))
	case graphdoc.BoolValue:
		b.WriteString(strconv.FormatBool(bool(val)))
	case graphdoc.EnumValue:
		b.WriteString(string(val))
	case graphdoc.VariableValue:
		b.WriteByte('$')
		b.WriteString(val.Name)
	case graphdoc.ListValue:
		b.WriteByte('[')
		for i, item := range val.Values {
			if i > 0 {
				b.WriteByte(',')
			}
			printValue(b, item)
		}
		b.WriteByte(']')
	case graphdoc.ObjectValue:
		b.WriteByte('{')
		for i, f := range val.Fields {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(f.Name)
			b.WriteByte(':')
			printValue(b, f.Value)
		}
		b.WriteByte('}')
	}
}
