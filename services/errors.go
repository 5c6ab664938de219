package services

import (
	"errors"
	"fmt"

	"pdfrag/models"
)

var (
	// ErrMissingAPIKey means the generative model credentials are absent;
	// fatal to any model call.
	ErrMissingAPIKey = errors.New("model API key not configured")

	// ErrIndexNotFound means no vector index has ever been persisted.
	ErrIndexNotFound = errors.New("no persisted vector index found")

	// ErrNoIndex means a query arrived before any successful ingest and
	// no persisted index could be loaded. Reported as a client error.
	ErrNoIndex = errors.New("no PDF has been processed yet")
)

// ExtractionError wraps a partitioner failure.
type ExtractionError struct {
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("failed to partition PDF: %v", e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// SummarizationError wraps a language model failure while summarizing a
// fragment, carrying the fragment kind.
type SummarizationError struct {
	Kind models.FragmentKind
	Err  error
}

func (e *SummarizationError) Error() string {
	return fmt.Sprintf("failed to summarize %s fragment: %v", e.Kind, e.Err)
}

func (e *SummarizationError) Unwrap() error { return e.Err }

// EmbeddingError wraps an embedding service failure during index build
// or query embedding.
type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding service failed: %v", e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// SynthesisError wraps a language model failure at answer time.
type SynthesisError struct {
	Err error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("failed to synthesize answer: %v", e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }
