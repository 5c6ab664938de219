package models

// FragmentKind discriminates the variants a PDF is decomposed into.
type FragmentKind string

const (
	FragmentText  FragmentKind = "text"
	FragmentTable FragmentKind = "table"
	FragmentImage FragmentKind = "image"
)

// RawFragment is one structurally distinct piece extracted from a PDF by
// the partitioner. For image fragments Content holds the base64-encoded
// image bytes and MIMEType the encoding used for transmission; for text
// and table fragments Content is the extracted text and MIMEType is empty.
type RawFragment struct {
	Kind     FragmentKind
	Content  string
	MIMEType string
}

// IndexedDocument is the uniform indexable record built from a fragment
// and its summary. Summary is what gets embedded; OriginalContent is what
// gets shown as context (for images, the same base64 representation used
// for summarization, so it can be re-materialized later).
type IndexedDocument struct {
	ID              string       `json:"id"`
	Kind            FragmentKind `json:"kind"`
	Summary         string       `json:"summary"`
	OriginalContent string       `json:"original_content"`
}

// ScoredDocument is a retrieval hit: a document and its similarity score.
type ScoredDocument struct {
	Document IndexedDocument
	Score    float64
}
