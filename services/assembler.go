package services

import (
	"github.com/google/uuid"

	"pdfrag/models"
)

// SummarizedFragment pairs a raw fragment with its generated summary.
type SummarizedFragment struct {
	Fragment models.RawFragment
	Summary  string
}

// AssembleDocuments converts (fragment, summary) pairs into uniform
// indexable records. Each record gets a fresh unique id and carries the
// fragment's raw content verbatim; for images that is the same base64
// representation used for summarization, so the document can be
// re-materialized later.
func AssembleDocuments(pairs []SummarizedFragment) []models.IndexedDocument {
	documents := make([]models.IndexedDocument, 0, len(pairs))
	for _, pair := range pairs {
		documents = append(documents, models.IndexedDocument{
			ID:              uuid.New().String(),
			Kind:            pair.Fragment.Kind,
			Summary:         pair.Summary,
			OriginalContent: pair.Fragment.Content,
		})
	}
	return documents
}
