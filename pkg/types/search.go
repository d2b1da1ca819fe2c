// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the paperdock pipeline.
package types

// UnscoredRelevance is the sentinel relevance score assigned to results
// that carry no comparable backend score (arXiv-origin results and direct
// DOI lookups). It keeps them out of numeric competition with CrossRef
// scores.
const UnscoredRelevance = 1000.0

// UntitledPlaceholder substitutes for a missing title in upstream metadata.
const UntitledPlaceholder = "UNTITLED"

// SearchResult represents a candidate paper returned by a bibliographic
// backend query. Results are immutable once produced by a connector; link
// resolution attaches links to separate Record values, never in place.
type SearchResult struct {
	// Title is the paper title as returned by the source, with any
	// embedded math markup already flattened.
	Title string `json:"title" yaml:"title"`

	// DOI identifies the work. arXiv-origin results carry the arXiv
	// namespace form "10.48550/arXiv.<id>". May be empty for upstream
	// records that never got a DOI assigned.
	DOI string `json:"doi" yaml:"doi"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Abstract is the paper abstract or summary.
	Abstract string `json:"abstract" yaml:"abstract"`

	// DownloadLink is a direct PDF link if the backend already provided
	// one, empty otherwise.
	DownloadLink string `json:"download_link" yaml:"download_link"`

	// RelevanceScore is the backend-assigned ranking signal, or
	// UnscoredRelevance when not applicable.
	RelevanceScore float64 `json:"relevance_score" yaml:"relevance_score"`
}

// LinkResult is the outcome of resolving a DOI to a downloadable link.
type LinkResult struct {
	// Link is the resolved download URL, empty when nothing was found.
	Link string `json:"link" yaml:"link"`

	// Guarantee is true when the server confirmed the link points at a
	// direct PDF (content type or known page structure), false when the
	// link is only a heuristic match.
	Guarantee bool `json:"guarantee" yaml:"guarantee"`
}

// EmptyLink is the canonical "not found" value.
var EmptyLink = LinkResult{}

// IsEmpty reports whether the result denotes "not found".
func (l LinkResult) IsEmpty() bool {
	return l.Link == ""
}
