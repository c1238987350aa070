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

package graphdoc

// OrderedField is one key/value pair of a ResolveValue object result,
// preserving the document's field order for canonical re-serialization.
type OrderedField struct {
	Key   string
	Value any
}

// VariableDefaults indexes an operation's declared variable defaults by
// name, for use with ResolveValue.
type VariableDefaults map[string]Value

// Defaults builds a VariableDefaults index from an operation's declared
// variables.
func Defaults(defs []VariableDefinition) VariableDefaults {
	out := make(VariableDefaults, len(defs))
	for _, d := range defs {
		if d.DefaultValue != nil {
			out[d.Name] = d.DefaultValue
		}
	}

	return out
}

// ResolveValue substitutes variables into v using vars (the caller's
// bindings) and defaults (the operation's declared variable defaults).
// It returns (value, true) when v evaluates to a concrete value, or
// (nil, false) when v is a variable reference that is bound in neither
// vars nor defaults ("unused argument": omitted per the field-key
// encoding rules).
//
// The returned value is one of: nil, bool, int64, float64, string,
// []any (each element itself a resolved value), or []OrderedField
// (object, field order preserved).
func ResolveValue(v Value, vars map[string]any, defaults VariableDefaults) (any, bool) {
	switch val := v.(type) {
	case NullValue:
		return nil, true
	case IntValue:
		return int64(val), true
	case FloatValue:
		return float64(val), true
	case StringValue:
		return string(val), true
	case BoolValue:
		return bool(val), true
	case EnumValue:
		return string(val), true
	case VariableValue:
		return resolveVariable(val.Name, vars, defaults)
	case ListValue:
		out := make([]any, 0, len(val.Values))
		for _, item := range val.Values {
			resolved, ok := ResolveValue(item, vars, defaults)
			if !ok {
				// A list element bound to an unbound variable behaves
				// like an explicit null, since lists have no concept of
				// "unused" elements.
				resolved = nil
			}
			out = append(out, resolved)
		}

		return out, true
	case ObjectValue:
		out := make([]OrderedField, 0, len(val.Fields))
		for _, f := range val.Fields {
			resolved, ok := ResolveValue(f.Value, vars, defaults)
			if !ok {
				continue
			}
			out = append(out, OrderedField{Key: f.Name, Value: resolved})
		}

		return out, true
	default:
		return nil, false
	}
}

func resolveVariable(name string, vars map[string]any, defaults VariableDefaults) (any, bool) {
	if vars != nil {
		if v, ok := vars[name]; ok {
			return v, true
		}
	}
	if defaults != nil {
		if dv, ok := defaults[name]; ok {
			return ResolveValue(dv, vars, defaults)
		}
	}

	return nil, false
}

// BoolArg evaluates a directive's boolean argument (e.g. `if` for
// @skip/@include), applying variable substitution and defaults. Missing
// arguments resolve to false.
func BoolArg(d Directive, argName string, vars map[string]any, defaults VariableDefaults) bool {
	val, ok := FindArgument(d.Arguments, argName)
	if !ok {
		return false
	}
	resolved, present := ResolveValue(val, vars, defaults)
	if !present {
		return false
	}
	b, _ := resolved.(bool)

	return b
}

// ShouldSkip evaluates the storage-omission directives (@skip, @include)
// on a selection. A field/fragment is omitted when @skip(if: true) or
// @include(if: false) is present.
func ShouldSkip(directives []Directive, vars map[string]any, defaults VariableDefaults) bool {
	if d, ok := FindDirective(directives, "skip"); ok {
		if BoolArg(d, "if", vars, defaults) {
			return true
		}
	}
	if d, ok := FindDirective(directives, "include"); ok {
		if !BoolArg(d, "if", vars, defaults) {
			return true
		}
	}

	return false
}
