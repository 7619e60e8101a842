package api

import (
	"bytes"
	"encoding/json"
)

// Filters narrow an ask/explain query. Zero values are left out of the
// request body.
type Filters struct {
	Year  *int   `json:"year,omitempty" validate:"omitempty,gte=1900,lte=2100"`
	Group string `json:"group,omitempty" validate:"max=128"`
	State string `json:"state,omitempty" validate:"max=64"`
}

// IsZero reports whether no filter is set.
func (f Filters) IsZero() bool {
	return f.Year == nil && f.Group == "" && f.State == ""
}

type queryRequest struct {
	Query   string   `json:"query"`
	Filters *Filters `json:"filters,omitempty"`
}

// Source is one ranked passage the backend used for its answer.
type Source struct {
	Rank  int     `json:"rank"`
	Path  string  `json:"path"`
	Page  *int    `json:"page,omitempty"`
	Score float64 `json:"score"`
}

// AskResult is the decoded ask response. Graph is left raw; the caller
// normalizes it.
type AskResult struct {
	Answer  string
	Sources []Source
	Graph   json.RawMessage
}

type askEnvelope struct {
	Answer  *string         `json:"answer" validate:"required"`
	Sources []Source        `json:"sources"`
	Graph   json.RawMessage `json:"graph"`
}

// Plan is the explain payload. Steps is set when the backend returned an
// ordered sequence; Raw always holds the plan JSON.
type Plan struct {
	Steps []string        `json:"steps,omitempty"`
	Raw   json.RawMessage `json:"raw"`
}

// IsSequence reports whether the plan is a list of steps.
func (p Plan) IsSequence() bool {
	return p.Steps != nil
}

// Pretty renders Raw as indented JSON.
func (p Plan) Pretty() string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, p.Raw, "", "  "); err != nil {
		return string(p.Raw)
	}
	return buf.String()
}

// UploadMetadata is what the backend extracted from an uploaded file.
// Fields holds the complete record, including the well-known keys.
type UploadMetadata struct {
	Filename    string
	Size        int64
	ContentType string
	Fields      map[string]any
}

// WaiverDocument is one row of the backend document listing.
type WaiverDocument struct {
	ID                    int    `json:"id"`
	File                  string `json:"file"`
	State                 string `json:"state"`
	ProgramTitle          string `json:"program_title"`
	ProposedEffectiveDate string `json:"proposed_effective_date"`
	ApprovedEffectiveDate string `json:"approved_effective_date"`
	AmendedEffectiveDate  string `json:"amended_effective_date"`
	ApplicationType       string `json:"application_type"`
	ApplicationNumber     string `json:"application_number"`
}
