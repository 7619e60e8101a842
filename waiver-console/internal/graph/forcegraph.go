package graph

import "sort"

// ForceNode is a node in the shape force-directed renderers consume.
type ForceNode struct {
	ID      string   `json:"id"`
	Kind    Kind     `json:"type"`
	Caption string   `json:"caption"`
	Title   string   `json:"title,omitempty"`
	State   string   `json:"state,omitempty"`
	Score   *float64 `json:"score,omitempty"`
	Value   string   `json:"value,omitempty"`
	Val     float64  `json:"val"`
}

// ForceLink is a link in the shape force-directed renderers consume.
type ForceLink struct {
	Source string   `json:"source"`
	Target string   `json:"target"`
	Type   Relation `json:"type"`
	Label  string   `json:"label,omitempty"`
	Color  string   `json:"color"`
}

// ForceData is the {nodes, links} document handed to the browser graph.
type ForceData struct {
	Nodes []ForceNode `json:"nodes"`
	Links []ForceLink `json:"links"`
}

// ForceGraph projects the model for rendering. Dangling links are dropped
// and links are ordered by ascending style priority so the most important
// relations are drawn last.
func (m Model) ForceGraph() ForceData {
	p := m.Pruned()
	out := ForceData{
		Nodes: make([]ForceNode, 0, len(p.Nodes)),
		Links: make([]ForceLink, 0, len(p.Edges)),
	}
	for _, n := range p.Nodes {
		out.Nodes = append(out.Nodes, ForceNode{
			ID:      n.ID,
			Kind:    n.Kind,
			Caption: n.Caption(),
			Title:   n.Title,
			State:   n.State,
			Score:   n.Score,
			Value:   n.Value,
			Val:     n.RenderWeight,
		})
	}
	for _, e := range p.Edges {
		out.Links = append(out.Links, ForceLink{
			Source: e.From,
			Target: e.To,
			Type:   e.Relation,
			Label:  e.Label,
			Color:  StyleFor(e.Relation).Color,
		})
	}
	sort.SliceStable(out.Links, func(i, j int) bool {
		return StyleFor(out.Links[i].Type).Priority < StyleFor(out.Links[j].Type).Priority
	})
	return out
}
