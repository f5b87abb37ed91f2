// Package model defines the records produced and consumed by the executive
// resolution pipeline.
package model

import "strings"

// Source tags where an Executive record came from.
type Source string

const (
	SourceWeb      Source = "web"
	SourceCrust    Source = "crust"
	SourceApollo   Source = "apollo"
	SourceParaform Source = "paraform"
)

// AllSources returns every known provenance tag.
func AllSources() []Source {
	return []Source{SourceWeb, SourceCrust, SourceApollo, SourceParaform}
}

// Valid reports whether s is one of the known provenance tags.
func (s Source) Valid() bool {
	switch s {
	case SourceWeb, SourceCrust, SourceApollo, SourceParaform:
		return true
	default:
		return false
	}
}

// Executive is one person resolved for a company.
type Executive struct {
	Domain   string `json:"domain"`
	Name     string `json:"name"`
	Title    string `json:"title"`
	LinkedIn string `json:"linkedin"`
	Source   Source `json:"source"`
}

// DedupeKey returns the identity used to collapse duplicates within a run:
// the LinkedIn URL when present, otherwise the exact (name, title) pair.
func (e Executive) DedupeKey() string {
	if e.LinkedIn != "" {
		return "li:" + strings.TrimRight(e.LinkedIn, "/")
	}
	return "nt:" + e.Name + "\x00" + e.Title
}
