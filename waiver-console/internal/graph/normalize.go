// Package graph turns the graph payloads returned by the knowledge backend
// into one canonical, deduplicated {nodes, edges} model.
//
// Two payload generations are in the wild and the caller never knows which
// one it holds:
//
//   - structured: {"nodes": [...], "edges": [...]} with from/to/type edges
//   - tabular: graph-query result rows such as
//     [{"d": {"path": "a.pdf"}, "r": [{...}, "FROM_STATE", {...}], "n": {"code": "CA"}}]
//
// Normalize accepts both, and anything else, without failing.
package graph

import (
	"math"

	"github.com/spf13/cast"
	"github.com/tidwall/gjson"
)

// Normalize converts a raw JSON graph payload into a Model. Invalid JSON and
// unrecognized shapes yield an empty model.
func Normalize(raw []byte) Model {
	if len(raw) == 0 || !gjson.ValidBytes(raw) {
		return Empty()
	}
	return NormalizeResult(gjson.ParseBytes(raw))
}

// NormalizeResult is Normalize over an already parsed payload.
func NormalizeResult(v gjson.Result) Model {
	b := newBuilder()
	switch {
	case isStructured(v):
		b.structured(v)
	case v.IsArray():
		v.ForEach(func(_, el gjson.Result) bool {
			switch {
			case isStructured(el):
				b.structured(el)
			case el.IsObject():
				b.row(el)
			}
			return true
		})
	}
	return b.finish()
}

func isStructured(v gjson.Result) bool {
	return v.IsObject() && (v.Get("nodes").IsArray() || v.Get("edges").IsArray())
}

type builder struct {
	index map[string]int
	nodes []Node
	edges []Edge
}

func newBuilder() *builder {
	return &builder{index: make(map[string]int), nodes: []Node{}, edges: []Edge{}}
}

// addNode registers n, or merges it into an earlier node with the same id.
// The earlier node keeps its attributes; only blanks are filled in.
func (b *builder) addNode(n Node) {
	i, ok := b.index[n.ID]
	if !ok {
		b.index[n.ID] = len(b.nodes)
		b.nodes = append(b.nodes, n)
		return
	}
	cur := &b.nodes[i]
	if cur.Kind == KindUnknown && n.Kind != KindUnknown {
		cur.Kind = n.Kind
	}
	if cur.Title == "" {
		cur.Title = n.Title
	}
	if cur.Label == "" {
		cur.Label = n.Label
	}
	if cur.State == "" {
		cur.State = n.State
	}
	if cur.Score == nil {
		cur.Score = n.Score
	}
	if cur.Value == "" {
		cur.Value = n.Value
	}
}

func (b *builder) finish() Model {
	for i := range b.nodes {
		b.nodes[i].RenderWeight = RenderWeight(b.nodes[i].Kind, b.nodes[i].Score)
	}
	return Model{Nodes: b.nodes, Edges: b.edges}
}

func (b *builder) structured(v gjson.Result) {
	v.Get("nodes").ForEach(func(_, n gjson.Result) bool {
		if node, ok := structuredNode(n); ok {
			b.addNode(node)
		}
		return true
	})
	v.Get("edges").ForEach(func(_, e gjson.Result) bool {
		if edge, ok := structuredEdge(e); ok {
			b.edges = append(b.edges, edge)
		}
		return true
	})
}

func structuredNode(n gjson.Result) (Node, bool) {
	if !n.IsObject() {
		return Node{}, false
	}
	id := scalar(n.Get("id"))
	if id == "" {
		return Node{}, false
	}
	rawKind := first(n, "type", "kind")
	node := Node{
		ID:    id,
		Kind:  ParseKind(rawKind),
		Title: first(n, "title", "programTitle"),
		Label: scalar(n.Get("label")),
		State: scalar(n.Get("state")),
		Score: number(n.Get("score")),
		Value: scalar(n.Get("value")),
	}
	if node.Kind == KindUnknown && node.Label == "" {
		node.Label = rawKind
	}
	return node, true
}

func structuredEdge(e gjson.Result) (Edge, bool) {
	if !e.IsObject() {
		return Edge{}, false
	}
	from, to := first(e, "from", "source"), first(e, "to", "target")
	if from == "" || to == "" {
		return Edge{}, false
	}
	return newEdge(from, to, first(e, "type", "relation")), true
}

func newEdge(from, to, rawRelation string) Edge {
	edge := Edge{From: from, To: to, Relation: ParseRelation(rawRelation)}
	if edge.Relation == RelationOther && rawRelation != "" {
		edge.Label = rawRelation
	}
	return edge
}

// row scans one tabular result row. Sub-objects are visited in document
// order; the first two recognized nodes form the row's edge.
func (b *builder) row(r gjson.Result) {
	var refs []string
	var relation string
	r.ForEach(func(_, el gjson.Result) bool {
		if el.IsArray() {
			if rel := tupleRelation(el); rel != "" && relation == "" {
				relation = rel
			}
			return true
		}
		if node, ok := rowNode(el); ok {
			b.addNode(node)
			refs = append(refs, node.ID)
		}
		return true
	})
	if len(refs) >= 2 {
		b.edges = append(b.edges, newEdge(refs[0], refs[1], relation))
	}
}

// rowNode recognizes a traversed graph element: a document carrying a path,
// or a single-property bag whose key names the kind and whose value is the id.
func rowNode(el gjson.Result) (Node, bool) {
	if !el.IsObject() {
		return Node{}, false
	}
	if path := scalar(el.Get("path")); path != "" {
		return Node{
			ID:    path,
			Kind:  KindDocument,
			Title: first(el, "title", "programTitle"),
			State: scalar(el.Get("state")),
			Score: number(el.Get("score")),
		}, true
	}

	var key, value string
	count := 0
	el.ForEach(func(k, v gjson.Result) bool {
		count++
		key, value = k.String(), scalar(v)
		return count < 2
	})
	if count != 1 || value == "" {
		return Node{}, false
	}
	return Node{ID: value, Kind: ParseKind(key), Label: key, Value: value}, true
}

// tupleRelation reads the type out of a [start, "TYPE", end] relationship.
func tupleRelation(el gjson.Result) string {
	parts := el.Array()
	if len(parts) != 3 || parts[1].Type != gjson.String {
		return ""
	}
	return parts[1].Str
}

// scalar renders strings, numbers and booleans; everything else is "".
func scalar(v gjson.Result) string {
	switch v.Type {
	case gjson.String, gjson.Number, gjson.True, gjson.False:
		return v.String()
	default:
		return ""
	}
}

func first(v gjson.Result, keys ...string) string {
	for _, k := range keys {
		if s := scalar(v.Get(k)); s != "" {
			return s
		}
	}
	return ""
}

func number(v gjson.Result) *float64 {
	if v.Type != gjson.Number && (v.Type != gjson.String || v.Str == "") {
		return nil
	}
	f, err := cast.ToFloat64E(v.Value())
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
