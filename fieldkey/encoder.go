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

// Package fieldkey canonicalizes a field selection's name, arguments,
// and storage-affecting directives into the stable storage key under
// which its value lives in an entity record.
package fieldkey

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/GoogleChromeLabs/graphcache/graphdoc"
)

// Encode computes the storage key for field f, given the active
// variable bindings and the operation's declared variable defaults.
//
// Two calls with the same field node and the same substituted arguments
// always yield identical strings.
func Encode(f *graphdoc.Field, vars map[string]any, defaults graphdoc.VariableDefaults) (string, error) {
	base, err := argsKey(f.Name, f.Arguments, vars, defaults)
	if err != nil {
		return "", err
	}

	if conn, ok := graphdoc.FindDirective(f.Directives, "connection"); ok {
		return connectionKey(conn, f.Arguments, vars, defaults)
	}

	key := base
	for _, d := range f.Directives {
		if d.Name == "skip" || d.Name == "include" || d.Name == "connection" {
			continue
		}
		argKey, err := argsObjectJSON(d.Arguments, vars, defaults)
		if err != nil {
			return "", err
		}
		if argKey == "" {
			key += "@" + d.Name
		} else {
			key += "@" + d.Name + "(" + argKey + ")"
		}
	}

	return key, nil
}

func argsKey(name string, args []graphdoc.Argument, vars map[string]any, defaults graphdoc.VariableDefaults) (string, error) {
	obj, err := argsObjectJSON(args, vars, defaults)
	if err != nil {
		return "", err
	}
	if obj == "" {
		return name, nil
	}

	return fmt.Sprintf("%s(%s)", name, obj), nil
}

// argsObjectJSON renders the present (bound) arguments as a canonical
// JSON object in document order. Unbound arguments (variable references
// with neither a supplied value nor a declared default) are omitted
// entirely. Returns "" when no arguments are present.
func argsObjectJSON(args []graphdoc.Argument, vars map[string]any, defaults graphdoc.VariableDefaults) (string, error) {
	var fields []graphdoc.OrderedField
	for _, a := range args {
		resolved, present := graphdoc.ResolveValue(a.Value, vars, defaults)
		if !present {
			continue
		}
		fields = append(fields, graphdoc.OrderedField{Key: a.Name, Value: resolved})
	}
	if len(fields) == 0 {
		return "", nil
	}

	var buf bytes.Buffer
	if err := writeJSON(&buf, fields); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// connectionKey implements the @connection(key, filter?) rewrite: the
// field's storage key becomes the caller-controlled connection name,
// optionally followed by a JSON object restricted to the named subset of
// arguments.
func connectionKey(
	conn graphdoc.Directive,
	fieldArgs []graphdoc.Argument,
	vars map[string]any,
	defaults graphdoc.VariableDefaults,
) (string, error) {
	keyVal, ok := graphdoc.FindArgument(conn.Arguments, "key")
	if !ok {
		return "", fmt.Errorf("fieldkey: @connection directive missing required %q argument", "key")
	}
	resolvedKey, present := graphdoc.ResolveValue(keyVal, vars, defaults)
	if !present {
		return "", fmt.Errorf("fieldkey: @connection %q argument did not resolve to a value", "key")
	}
	connName, ok := resolvedKey.(string)
	if !ok {
		return "", fmt.Errorf("fieldkey: @connection %q argument must be a string", "key")
	}

	filterVal, hasFilter := graphdoc.FindArgument(conn.Arguments, "filter")
	if !hasFilter {
		return connName, nil
	}
	resolvedFilter, present := graphdoc.ResolveValue(filterVal, vars, defaults)
	if !present {
		return connName, nil
	}
	filterList, ok := resolvedFilter.([]any)
	if !ok {
		return "", fmt.Errorf("fieldkey: @connection %q argument must be a list of strings", "filter")
	}

	allowed := make(map[string]bool, len(filterList))
	for _, item := range filterList {
		if name, ok := item.(string); ok {
			allowed[name] = true
		}
	}

	var subset []graphdoc.Argument
	for _, a := range fieldArgs {
		if allowed[a.Name] {
			subset = append(subset, a)
		}
	}
	// Preserve the filter's own declared order rather than the field's
	// argument order, since the filter is the caller's explicit choice
	// of which arguments identify the connection.
	sort.SliceStable(subset, func(i, j int) bool {
		return indexOf(filterList, subset[i].Name) < indexOf(filterList, subset[j].Name)
	})

	obj, err := argsObjectJSON(subset, vars, defaults)
	if err != nil {
		return "", err
	}
	if obj == "" {
		return connName, nil
	}

	return fmt.Sprintf("%s(%s)", connName, obj), nil
}

func indexOf(items []any, name string) int {
	for i, item := range items {
		if s, ok := item.(string); ok && s == name {
			return i
		}
	}

	return len(items)
}

// writeJSON renders a ResolveValue result (nil, bool, int64, float64,
// string, []any, or []graphdoc.OrderedField) as canonical JSON, keeping
// object field order exactly as supplied rather than sorting keys.
func writeJSON(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
	case float64:
		b, err := json.Marshal(val)
		if err != nil {
			return err
		}
		buf.Write(b)
	case string:
		b, err := json.Marshal(val)
		if err != nil {
			return err
		}
		buf.Write(b)
	case []any:
		buf.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case []graphdoc.OrderedField:
		buf.WriteByte('{')
		for i, f := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			keyBytes, err := json.Marshal(f.Key)
			if err != nil {
				return err
			}
			buf.Write(keyBytes)
			buf.WriteByte(':')
			if err := writeJSON(buf, f.Value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("fieldkey: unsupported resolved value type %T", v)
	}

	return nil
}
