package hypergraph

import (
	"encoding/json"
	"reflect"
	"testing"
)

func testNormalizer() *Normalizer {
	return NewNormalizer(0.5, 0.5)
}

func TestNormalize_AppliesDefaults(t *testing.T) {
	payload := []byte(`{
		"nodes": [
			{"id": "n1"},
			{"id": "n2", "label": "Second", "type": "user_input", "relevance": 0.9}
		],
		"edges": [
			{"id": "e1", "nodes": ["n1", "n2"]}
		],
		"metadata": {"last_updated": "2026-08-21T10:00:00"}
	}`)

	var raw RawSnapshot
	if err := json.Unmarshal(payload, &raw); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}

	snap, err := testNormalizer().Normalize(&raw)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	n1, ok := snap.Node("n1")
	if !ok {
		t.Fatal("expected node n1")
	}
	if n1.Label != "n1" {
		t.Errorf("expected label to default to id, got %q", n1.Label)
	}
	if n1.Relevance != 0.5 {
		t.Errorf("expected default relevance 0.5, got %v", n1.Relevance)
	}
	if n1.Kind != NodeKindThought {
		t.Errorf("expected default kind %q, got %q", NodeKindThought, n1.Kind)
	}

	n2, _ := snap.Node("n2")
	if n2.Label != "Second" || n2.Relevance != 0.9 || n2.Kind != NodeKindUserInput {
		t.Errorf("unexpected n2: %+v", n2)
	}

	e1, ok := snap.Hyperedge("e1")
	if !ok {
		t.Fatal("expected hyperedge e1")
	}
	if e1.Weight != 0.5 {
		t.Errorf("expected default weight 0.5, got %v", e1.Weight)
	}
	if e1.Kind != EdgeKindRelated {
		t.Errorf("expected default kind %q, got %q", EdgeKindRelated, e1.Kind)
	}

	if snap.UpdatedAt != "2026-08-21T10:00:00" {
		t.Errorf("expected metadata last_updated to carry over, got %q", snap.UpdatedAt)
	}
}

func TestNormalize_RejectsMissingArrays(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{"missing nodes", `{"edges": []}`},
		{"missing edges", `{"nodes": []}`},
		{"null nodes", `{"nodes": null, "edges": []}`},
	}

	for _, tc := range cases {
		var raw RawSnapshot
		if err := json.Unmarshal([]byte(tc.payload), &raw); err != nil {
			t.Fatalf("%s: decode failed: %v", tc.name, err)
		}
		if _, err := testNormalizer().Normalize(&raw); err == nil {
			t.Errorf("%s: expected Normalize to fail", tc.name)
		}
	}
}

func TestNormalize_DropsInvalidHyperedges(t *testing.T) {
	payload := []byte(`{
		"nodes": [{"id": "a"}, {"id": "b"}, {"id": "c"}],
		"edges": [
			{"id": "ok", "nodes": ["a", "b"]},
			{"id": "tiny", "nodes": ["a"]},
			{"id": "dup", "nodes": ["a", "a"]},
			{"id": "ghost", "nodes": ["a", "missing"]}
		]
	}`)

	var raw RawSnapshot
	if err := json.Unmarshal(payload, &raw); err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	snap, err := testNormalizer().Normalize(&raw)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	if len(snap.Hyperedges) != 1 || snap.Hyperedges[0].ID != "ok" {
		t.Fatalf("expected only the valid hyperedge to survive, got %+v", snap.Hyperedges)
	}
	if len(snap.Dropped) != 3 {
		t.Errorf("expected 3 dropped hyperedges, got %v", snap.Dropped)
	}
	// The valid sibling must be untouched by the drops
	if _, ok := snap.Hyperedge("ok"); !ok {
		t.Error("valid hyperedge lost its index entry")
	}
}

func TestNormalize_DeduplicatesMembers(t *testing.T) {
	payload := []byte(`{
		"nodes": [{"id": "a"}, {"id": "b"}, {"id": "c"}],
		"edges": [{"id": "e", "nodes": ["b", "a", "b", "c", "a"]}]
	}`)

	var raw RawSnapshot
	if err := json.Unmarshal(payload, &raw); err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	snap, err := testNormalizer().Normalize(&raw)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	e, _ := snap.Hyperedge("e")
	want := []string{"b", "a", "c"}
	if !reflect.DeepEqual(e.Members, want) {
		t.Errorf("expected members %v in first-occurrence order, got %v", want, e.Members)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	payload := []byte(`{
		"nodes": [{"id": "a", "custom": 7}, {"id": "b"}],
		"edges": [{"id": "e", "nodes": ["a", "b"], "weight": 0.3}]
	}`)

	var raw RawSnapshot
	if err := json.Unmarshal(payload, &raw); err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	first, err := testNormalizer().Normalize(&raw)
	if err != nil {
		t.Fatalf("first Normalize failed: %v", err)
	}
	second, err := testNormalizer().Normalize(&raw)
	if err != nil {
		t.Fatalf("second Normalize failed: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("expected repeated normalization of the same input to be identical")
	}
}

func TestNormalize_PassesAttributesThrough(t *testing.T) {
	payload := []byte(`{
		"nodes": [{"id": "a", "attributes": {"color": "red"}, "extra_field": 42}, {"id": "b"}],
		"edges": [{"id": "e", "nodes": ["a", "b"], "attributes": {"origin": "debate"}}]
	}`)

	var raw RawSnapshot
	if err := json.Unmarshal(payload, &raw); err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	snap, err := testNormalizer().Normalize(&raw)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	a, _ := snap.Node("a")
	if a.Attrs["color"] != "red" {
		t.Errorf("expected nested attributes preserved, got %v", a.Attrs)
	}
	if a.Attrs["extra_field"] != float64(42) {
		t.Errorf("expected unknown top-level field folded into attrs, got %v", a.Attrs)
	}

	e, _ := snap.Hyperedge("e")
	if e.Attrs["origin"] != "debate" {
		t.Errorf("expected edge attributes preserved, got %v", e.Attrs)
	}
}

func TestProject_PairwiseClique(t *testing.T) {
	snap := snapshotFor(t, `{
		"nodes": [{"id": "a"}, {"id": "b"}, {"id": "c"}],
		"edges": [{"id": "e1", "nodes": ["a", "b", "c"], "weight": 0.7}]
	}`)

	links := Project(snap)
	if len(links) != 3 {
		t.Fatalf("expected 3 links for a 3-member hyperedge, got %d", len(links))
	}

	wantPairs := map[string]bool{"a|b": true, "a|c": true, "b|c": true}
	for _, l := range links {
		pair := l.Source + "|" + l.Target
		if !wantPairs[pair] {
			t.Errorf("unexpected pair %s", pair)
		}
		delete(wantPairs, pair)
		if l.HyperedgeID != "e1" {
			t.Errorf("link %s missing hyperedge id, got %q", pair, l.HyperedgeID)
		}
		if l.Weight != 0.7 {
			t.Errorf("link %s should carry hyperedge weight, got %v", pair, l.Weight)
		}
	}
	if len(wantPairs) != 0 {
		t.Errorf("missing pairs: %v", wantPairs)
	}
}

func TestProject_LinkCountGrowsQuadratically(t *testing.T) {
	snap := snapshotFor(t, `{
		"nodes": [{"id": "a"}, {"id": "b"}, {"id": "c"}, {"id": "d"}, {"id": "e"}],
		"edges": [{"id": "big", "nodes": ["a", "b", "c", "d", "e"]}]
	}`)

	links := Project(snap)
	if len(links) != 10 {
		t.Errorf("expected 5*4/2 = 10 links, got %d", len(links))
	}
}

func TestProject_SharedPairsStayDistinct(t *testing.T) {
	snap := snapshotFor(t, `{
		"nodes": [{"id": "a"}, {"id": "b"}, {"id": "c"}],
		"edges": [
			{"id": "e1", "nodes": ["a", "b"], "weight": 0.2},
			{"id": "e2", "nodes": ["a", "b", "c"], "weight": 0.8}
		]
	}`)

	links := Project(snap)
	if len(links) != 4 {
		t.Fatalf("expected 1 + 3 links, got %d", len(links))
	}

	keys := make(map[string]bool)
	for _, l := range links {
		if keys[l.Key] {
			t.Fatalf("duplicate link key %q", l.Key)
		}
		keys[l.Key] = true
	}

	// Both hyperedges cover (a, b); the two links must remain separate
	if !keys[LinkKey("e1", "a", "b")] || !keys[LinkKey("e2", "a", "b")] {
		t.Errorf("expected distinct links for the shared pair, got %v", keys)
	}
}

func TestProject_Deterministic(t *testing.T) {
	snap := snapshotFor(t, `{
		"nodes": [{"id": "a"}, {"id": "b"}, {"id": "c"}, {"id": "d"}],
		"edges": [
			{"id": "e1", "nodes": ["d", "a", "c"]},
			{"id": "e2", "nodes": ["b", "c"]}
		]
	}`)

	first := Project(snap)
	second := Project(snap)
	if !reflect.DeepEqual(first, second) {
		t.Error("expected projection to be deterministic")
	}

	// Pairs follow member order within each hyperedge
	if first[0].Source != "d" || first[0].Target != "a" {
		t.Errorf("expected first pair (d, a), got (%s, %s)", first[0].Source, first[0].Target)
	}
}

func snapshotFor(t *testing.T, payload string) *Snapshot {
	t.Helper()
	var raw RawSnapshot
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	snap, err := testNormalizer().Normalize(&raw)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	return snap
}
