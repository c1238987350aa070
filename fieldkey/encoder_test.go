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

package fieldkey_test

import (
	"testing"

	"github.com/GoogleChromeLabs/graphcache/fieldkey"
	"github.com/GoogleChromeLabs/graphcache/graphdoc"
)

func TestEncode(t *testing.T) {
	testCases := []struct {
		name     string
		field    *graphdoc.Field
		vars     map[string]any
		defaults graphdoc.VariableDefaults
		want     string
	}{
		{
			name:  "no arguments",
			field: &graphdoc.Field{Name: "title"},
			want:  "title",
		},
		{
			name: "alias ignored",
			field: &graphdoc.Field{
				Name:  "field",
				Alias: "a",
				Arguments: []graphdoc.Argument{
					{Name: "literal", Value: graphdoc.BoolValue(true)},
					{Name: "value", Value: graphdoc.IntValue(42)},
				},
			},
			want: `field({"literal":true,"value":42})`,
		},
		{
			name: "variables substituted in document order",
			field: &graphdoc.Field{
				Name: "field",
				Arguments: []graphdoc.Argument{
					{Name: "literal", Value: graphdoc.VariableValue{Name: "l"}},
					{Name: "value", Value: graphdoc.VariableValue{Name: "v"}},
				},
			},
			vars: map[string]any{"l": false, "v": int64(42)},
			want: `field({"literal":false,"value":42})`,
		},
		{
			name: "declared default applied when variable absent",
			field: &graphdoc.Field{
				Name: "items",
				Arguments: []graphdoc.Argument{
					{Name: "first", Value: graphdoc.VariableValue{Name: "n"}},
				},
			},
			defaults: graphdoc.VariableDefaults{"n": graphdoc.IntValue(10)},
			want:     `items({"first":10})`,
		},
		{
			name: "unbound variable argument omitted",
			field: &graphdoc.Field{
				Name: "items",
				Arguments: []graphdoc.Argument{
					{Name: "first", Value: graphdoc.VariableValue{Name: "n"}},
				},
			},
			want: "items",
		},
		{
			name: "object argument preserves field order",
			field: &graphdoc.Field{
				Name: "search",
				Arguments: []graphdoc.Argument{
					{Name: "where", Value: graphdoc.ObjectValue{Fields: []graphdoc.ObjectField{
						{Name: "b", Value: graphdoc.IntValue(2)},
						{Name: "a", Value: graphdoc.IntValue(1)},
					}}},
				},
			},
			want: `search({"where":{"b":2,"a":1}})`,
		},
		{
			name: "unknown directive appended",
			field: &graphdoc.Field{
				Name: "feed",
				Directives: []graphdoc.Directive{
					{Name: "live", Arguments: []graphdoc.Argument{
						{Name: "interval", Value: graphdoc.IntValue(5)},
					}},
				},
			},
			want: `feed@live({"interval":5})`,
		},
		{
			name: "skip and include do not affect the key",
			field: &graphdoc.Field{
				Name: "feed",
				Directives: []graphdoc.Directive{
					{Name: "include", Arguments: []graphdoc.Argument{
						{Name: "if", Value: graphdoc.BoolValue(true)},
					}},
				},
			},
			want: "feed",
		},
		{
			name: "connection replaces key",
			field: &graphdoc.Field{
				Name: "comments",
				Arguments: []graphdoc.Argument{
					{Name: "first", Value: graphdoc.IntValue(10)},
					{Name: "after", Value: graphdoc.StringValue("cursor")},
				},
				Directives: []graphdoc.Directive{
					{Name: "connection", Arguments: []graphdoc.Argument{
						{Name: "key", Value: graphdoc.StringValue("feedComments")},
					}},
				},
			},
			want: "feedComments",
		},
		{
			name: "connection filter keeps the named argument subset",
			field: &graphdoc.Field{
				Name: "comments",
				Arguments: []graphdoc.Argument{
					{Name: "first", Value: graphdoc.IntValue(10)},
					{Name: "orderBy", Value: graphdoc.EnumValue("NEWEST")},
					{Name: "after", Value: graphdoc.StringValue("cursor")},
				},
				Directives: []graphdoc.Directive{
					{Name: "connection", Arguments: []graphdoc.Argument{
						{Name: "key", Value: graphdoc.StringValue("feedComments")},
						{Name: "filter", Value: graphdoc.ListValue{Values: []graphdoc.Value{
							graphdoc.StringValue("orderBy"),
						}}},
					}},
				},
			},
			want: `feedComments({"orderBy":"NEWEST"})`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := fieldkey.Encode(tc.field, tc.vars, tc.defaults)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			if got != tc.want {
				t.Errorf("Encode = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestEncodeDeterministic(t *testing.T) {
	field := &graphdoc.Field{
		Name: "field",
		Arguments: []graphdoc.Argument{
			{Name: "literal", Value: graphdoc.BoolValue(true)},
			{Name: "value", Value: graphdoc.VariableValue{Name: "v"}},
		},
	}
	vars := map[string]any{"v": int64(42)}

	first, err := fieldkey.Encode(field, vars, nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	second, err := fieldkey.Encode(field, vars, nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if first != second {
		t.Errorf("same node and bindings produced different keys: %q vs %q", first, second)
	}
}

func TestEncodeConnectionMissingKey(t *testing.T) {
	field := &graphdoc.Field{
		Name: "comments",
		Directives: []graphdoc.Directive{
			{Name: "connection"},
		},
	}
	if _, err := fieldkey.Encode(field, nil, nil); err == nil {
		t.Fatalf("expected an error for @connection without a key argument")
	}
}
