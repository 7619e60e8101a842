package graph

import "math"

// Base render weights per kind. Only the ordering matters to callers:
// country > state > waiver/document > theme > unknown.
const (
	weightCountry = 14.0
	weightState   = 12.0
	weightWaiver  = 10.0
	weightTheme   = 6.0
	weightUnknown = 4.0

	// scoreMultiplier scales a waiver's 0..1 confidence into extra size.
	scoreMultiplier = 12.0
)

// RenderWeight is the sizing hint for a node of the given kind and score.
func RenderWeight(kind Kind, score *float64) float64 {
	switch kind {
	case KindCountry:
		return weightCountry
	case KindState:
		return weightState
	case KindWaiver, KindDocument:
		if score == nil {
			return weightWaiver
		}
		return weightWaiver + clamp01(*score)*scoreMultiplier
	case KindTheme:
		return weightTheme
	default:
		return weightUnknown
	}
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// EdgeStyle tells a renderer how to draw a link. Higher priority links are
// drawn last so they stay on top.
type EdgeStyle struct {
	Color    string `json:"color"`
	Priority int    `json:"priority"`
}

const defaultEdgeColor = "#94a3b8"

var edgeStyles = map[Relation]EdgeStyle{
	RelationHasTheme:       {Color: "#10b981", Priority: 3},
	RelationHasApplication: {Color: "#6366f1", Priority: 2},
	RelationHasState:       {Color: "#f59e0b", Priority: 1},
}

// StyleFor classifies a relation. Unknown relations get a stable gray default.
func StyleFor(r Relation) EdgeStyle {
	if s, ok := edgeStyles[r]; ok {
		return s
	}
	return EdgeStyle{Color: defaultEdgeColor}
}
