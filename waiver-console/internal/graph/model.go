package graph

import "strings"

// Kind is the display category of a node. The set is open: anything the
// backend sends that is not listed here becomes KindUnknown.
type Kind string

const (
	KindCountry  Kind = "Country"
	KindState    Kind = "State"
	KindWaiver   Kind = "Waiver"
	KindDocument Kind = "Document"
	KindTheme    Kind = "Theme"
	KindUnknown  Kind = "Unknown"
)

// ParseKind maps a backend label onto a known Kind, case-insensitively.
func ParseKind(s string) Kind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "country":
		return KindCountry
	case "state":
		return KindState
	case "waiver", "application":
		return KindWaiver
	case "document", "doc":
		return KindDocument
	case "theme":
		return KindTheme
	default:
		return KindUnknown
	}
}

// Relation is the type of an edge. Unrecognized relations become
// RelationOther and keep their raw name in Edge.Label.
type Relation string

const (
	RelationHasState       Relation = "HAS_STATE"
	RelationHasApplication Relation = "HAS_APPLICATION"
	RelationHasTheme       Relation = "HAS_THEME"
	RelationLocatedIn      Relation = "LOCATED_IN"
	RelationInState        Relation = "IN_STATE"
	RelationFromState      Relation = "FROM_STATE"
	RelationHasYear        Relation = "HAS_YEAR"
	RelationBelongsTo      Relation = "BELONGS_TO"
	RelationOther          Relation = "RELATED_TO"
)

var knownRelations = map[string]Relation{
	string(RelationHasState):       RelationHasState,
	string(RelationHasApplication): RelationHasApplication,
	string(RelationHasTheme):       RelationHasTheme,
	string(RelationLocatedIn):      RelationLocatedIn,
	string(RelationInState):        RelationInState,
	string(RelationFromState):      RelationFromState,
	string(RelationHasYear):        RelationHasYear,
	string(RelationBelongsTo):      RelationBelongsTo,
	string(RelationOther):          RelationOther,
}

// ParseRelation accepts "HAS_THEME", "has-theme" and "has theme" alike.
func ParseRelation(s string) Relation {
	key := strings.ToUpper(strings.TrimSpace(s))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	if r, ok := knownRelations[key]; ok {
		return r
	}
	return RelationOther
}

// Node is one vertex of the canonical graph model.
type Node struct {
	ID           string   `json:"id"`
	Kind         Kind     `json:"kind"`
	Title        string   `json:"title,omitempty"`
	Label        string   `json:"label,omitempty"`
	State        string   `json:"state,omitempty"`
	Score        *float64 `json:"score,omitempty"`
	Value        string   `json:"value,omitempty"`
	RenderWeight float64  `json:"renderWeight"`
}

// Caption is the hover text a renderer shows for the node.
func (n Node) Caption() string {
	switch n.Kind {
	case KindCountry:
		return "Country: " + n.ID
	case KindState:
		return "State: " + n.ID
	case KindWaiver, KindDocument:
		title := n.Title
		if title == "" {
			title = n.ID
		}
		if n.State == "" {
			return title
		}
		return title + "\nState: " + n.State
	case KindTheme:
		if n.Value != "" && n.Value != n.ID {
			return n.ID + " (" + n.Value + ")"
		}
		return n.ID
	default:
		if n.Label != "" {
			return n.Label + ": " + n.ID
		}
		return n.ID
	}
}

// Edge is a directed link between two node ids.
type Edge struct {
	From     string   `json:"from"`
	To       string   `json:"to"`
	Relation Relation `json:"relation"`
	Label    string   `json:"label,omitempty"`
}

// Model is the canonical {nodes, edges} graph handed to renderers.
type Model struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Empty returns a model with non-nil, empty collections.
func Empty() Model {
	return Model{Nodes: []Node{}, Edges: []Edge{}}
}

// IsEmpty reports whether the model has no nodes and no edges.
func (m Model) IsEmpty() bool {
	return len(m.Nodes) == 0 && len(m.Edges) == 0
}

// Dangling returns the edges whose endpoints are not both in the node set.
func (m Model) Dangling() []Edge {
	ids := m.nodeIDs()
	var out []Edge
	for _, e := range m.Edges {
		if !ids[e.From] || !ids[e.To] {
			out = append(out, e)
		}
	}
	return out
}

// Pruned returns a copy of the model without dangling edges.
func (m Model) Pruned() Model {
	ids := m.nodeIDs()
	out := Model{Nodes: append([]Node{}, m.Nodes...), Edges: make([]Edge, 0, len(m.Edges))}
	for _, e := range m.Edges {
		if ids[e.From] && ids[e.To] {
			out.Edges = append(out.Edges, e)
		}
	}
	return out
}

func (m Model) nodeIDs() map[string]bool {
	ids := make(map[string]bool, len(m.Nodes))
	for _, n := range m.Nodes {
		ids[n.ID] = true
	}
	return ids
}
