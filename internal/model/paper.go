package model

import "time"

// Paper is a publication record keyed by its catalog bibcode. The bibcode is
// assigned on first fetch and never changes; metadata may be refreshed.
type Paper struct {
	Bibcode        string    `json:"bibcode"`
	Title          string    `json:"title,omitempty"`
	Authors        []string  `json:"authors,omitempty"`
	Year           int       `json:"year,omitempty"`
	Publication    string    `json:"publication,omitempty"`
	Abstract       string    `json:"abstract,omitempty"`
	DOI            string    `json:"doi,omitempty"`
	URL            string    `json:"url,omitempty"`
	CitationCount  int       `json:"citation_count"`
	ReferenceCount int       `json:"reference_count"`
	Keywords       []string  `json:"keywords,omitempty"`
	FetchedAt      time.Time `json:"fetched_at"`
}

// StudyType describes the evidentiary character of a paper, detected from
// its metadata. Aggregate sources (surveys, catalogs, meta-analyses) carry
// more weight than single-object studies.
type StudyType string

const (
	StudyAggregate StudyType = "AGGREGATE"
	StudySingle    StudyType = "SINGLE"
	StudyUnknown   StudyType = "UNKNOWN"
)

// PaperSummary is the reduced record returned by catalog searches.
type PaperSummary struct {
	Bibcode       string `json:"bibcode"`
	Title         string `json:"title,omitempty"`
	Year          int    `json:"year,omitempty"`
	CitationCount int    `json:"citation_count"`
}
