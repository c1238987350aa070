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

package graphcache_test

import (
	"testing"

	graphcache "github.com/GoogleChromeLabs/graphcache"
	"github.com/GoogleChromeLabs/graphcache/entitystore"
	"github.com/GoogleChromeLabs/graphcache/graphdoc"
	"github.com/GoogleChromeLabs/graphcache/resultdiff"
	"github.com/GoogleChromeLabs/graphcache/watch"
	"github.com/google/go-cmp/cmp"
)

func bookQuery() *graphdoc.Document {
	return &graphdoc.Document{Definitions: []graphdoc.Definition{
		&graphdoc.OperationDefinition{
			Operation: graphdoc.Query,
			SelectionSet: []graphdoc.Selection{
				&graphdoc.Field{
					Name: "book",
					SelectionSet: []graphdoc.Selection{
						&graphdoc.Field{Name: "id"},
						&graphdoc.Field{Name: "title"},
					},
				},
			},
		},
	}}
}

func idByField(obj map[string]any) (any, bool) {
	id, ok := obj["id"]

	return id, ok
}

func TestWriteThenReadRoundTrips(t *testing.T) {
	c := graphcache.New(graphcache.WithIDExtractor(idByField))

	result := map[string]any{
		"book": map[string]any{"id": "b1", "title": "1984", "__typename": "Book"},
	}
	if err := c.WriteQuery(bookQuery(), nil, result); err != nil {
		t.Fatalf("WriteQuery: %v", err)
	}

	res, err := c.ReadQuery(bookQuery(), nil, false)
	if err != nil {
		t.Fatalf("ReadQuery: %v", err)
	}
	if !res.Complete {
		t.Fatalf("expected complete read, missing=%v", res.Missing)
	}
	want := map[string]any{"book": map[string]any{"id": "b1", "title": "1984"}}
	if diff := cmp.Diff(want, res.Data); diff != "" {
		t.Fatalf("ReadQuery result mismatch (-want +got):\n%s", diff)
	}
}

func TestOptimisticReadDoesNotLeakIntoBase(t *testing.T) {
	c := graphcache.New(graphcache.WithIDExtractor(idByField))

	if err := c.WriteQuery(bookQuery(), nil, map[string]any{
		"book": map[string]any{"id": "b1", "title": "1984", "__typename": "Book"},
	}); err != nil {
		t.Fatalf("WriteQuery: %v", err)
	}

	name, err := c.RecordOptimisticTransaction("", func(rw entitystore.ReadWriter) error {
		rec, _ := rw.Get(nil, "b1")
		rec = rec.Merge(entitystore.Record{"title": entitystore.ScalarValue("Animal Farm")})
		rw.Set("b1", rec)

		return nil
	})
	if err != nil {
		t.Fatalf("RecordOptimisticTransaction: %v", err)
	}

	optRes, err := c.ReadQuery(bookQuery(), nil, true)
	if err != nil {
		t.Fatalf("ReadQuery (optimistic): %v", err)
	}
	if optRes.Data["book"].(map[string]any)["title"] != "Animal Farm" {
		t.Fatalf("expected optimistic title, got %#v", optRes.Data)
	}

	baseRes, err := c.ReadQuery(bookQuery(), nil, false)
	if err != nil {
		t.Fatalf("ReadQuery (base): %v", err)
	}
	if baseRes.Data["book"].(map[string]any)["title"] != "1984" {
		t.Fatalf("expected base store untouched, got %#v", baseRes.Data)
	}

	if err := c.RemoveOptimistic(name); err != nil {
		t.Fatalf("RemoveOptimistic: %v", err)
	}
	optRes, err = c.ReadQuery(bookQuery(), nil, true)
	if err != nil {
		t.Fatalf("ReadQuery (optimistic after removal): %v", err)
	}
	if optRes.Data["book"].(map[string]any)["title"] != "1984" {
		t.Fatalf("expected optimistic view to revert to base, got %#v", optRes.Data)
	}
}

func TestWatchFiresOnceAcrossTransactionThenExtractRestore(t *testing.T) {
	c := graphcache.New(graphcache.WithIDExtractor(idByField))

	fireCount := 0
	var last resultdiff.Result
	dispose := c.Watch(watch.WatchOptions{
		Document: bookQuery(),
		Callback: func(r resultdiff.Result) {
			fireCount++
			last = r
		},
	})
	defer dispose()

	err := c.PerformTransaction(func(tx *watch.Transaction) error {
		if err := tx.Write(bookQuery(), "", nil, map[string]any{
			"book": map[string]any{"id": "b1", "title": "1984", "__typename": "Book"},
		}, ""); err != nil {
			return err
		}

		return tx.Write(bookQuery(), "", nil, map[string]any{
			"book": map[string]any{"id": "b1", "title": "Animal Farm", "__typename": "Book"},
		}, "")
	})
	if err != nil {
		t.Fatalf("PerformTransaction: %v", err)
	}
	if fireCount != 1 {
		t.Fatalf("expected exactly one callback across the transaction, got %d", fireCount)
	}
	if last.Data["book"].(map[string]any)["title"] != "Animal Farm" {
		t.Fatalf("expected final title Animal Farm, got %#v", last.Data)
	}

	snapshot := c.Extract(false)
	if _, ok := snapshot["b1"]; !ok {
		t.Fatalf("expected extracted snapshot to contain b1, got %#v", snapshot)
	}

	c2 := graphcache.New(graphcache.WithIDExtractor(idByField))
	c2.Restore(snapshot)
	res, err := c2.ReadQuery(bookQuery(), nil, false)
	if err != nil {
		t.Fatalf("ReadQuery after restore: %v", err)
	}
	if res.Data["book"].(map[string]any)["title"] != "Animal Farm" {
		t.Fatalf("expected restored cache to read Animal Farm, got %#v", res.Data)
	}
}

func TestResetClearsStoreAndLayers(t *testing.T) {
	c := graphcache.New(graphcache.WithIDExtractor(idByField))

	if err := c.WriteQuery(bookQuery(), nil, map[string]any{
		"book": map[string]any{"id": "b1", "title": "1984", "__typename": "Book"},
	}); err != nil {
		t.Fatalf("WriteQuery: %v", err)
	}
	if _, err := c.RecordOptimisticTransaction("opt", func(rw entitystore.ReadWriter) error {
		return nil
	}); err != nil {
		t.Fatalf("RecordOptimisticTransaction: %v", err)
	}

	c.Reset()

	if _, err := c.Read(bookQuery(), "", nil, entitystore.RootQuery, false); err == nil {
		t.Fatalf("expected reset cache to report the root entity missing")
	}
	if c.RemoveOptimistic("opt") != nil {
		t.Fatalf("removing an already-gone layer after reset should be a no-op")
	}
}
