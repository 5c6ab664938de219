package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"pdfrag/models"
)

// AppState owns the process-wide mutable state: it holds the single
// currently active index generation. Swapping happens only after a
// generation is fully built and persisted, so a concurrent reader sees
// either the old complete index or the new complete one.
type AppState struct {
	mu     sync.RWMutex
	active Searcher
}

func NewAppState() *AppState {
	return &AppState{}
}

// ActiveIndex returns the active index generation, or nil if none.
func (s *AppState) ActiveIndex() Searcher {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// SwapIndex replaces the active index generation wholesale.
func (s *AppState) SwapIndex(searcher Searcher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = searcher
}

// RAGService interface defines the two service-boundary operations.
type RAGService interface {
	IngestPDF(ctx context.Context, path string) (int, error)
	Query(ctx context.Context, req models.QueryRequest) (*models.QueryResponse, error)
}

// ragServiceImpl holds the dependencies it needs to do its job.
type ragServiceImpl struct {
	provider    *ModelProvider
	partitioner Partitioner
	index       *IndexManager
	files       *FileActions
	state       *AppState
	topK        int
}

// NewRAGService creates a new RAG service instance.
func NewRAGService(provider *ModelProvider, partitioner Partitioner, index *IndexManager, files *FileActions, state *AppState, topK int) RAGService {
	return &ragServiceImpl{
		provider:    provider,
		partitioner: partitioner,
		index:       index,
		files:       files,
		state:       state,
		topK:        topK,
	}
}

// IngestPDF runs the full ingestion pipeline for one stored upload:
// partition, summarize every fragment, assemble documents, build and
// persist the index, then activate it. Ingestion is all-or-nothing: any
// failure aborts the upload, deletes the stored file, and leaves the
// previously active index untouched.
func (r *ragServiceImpl) IngestPDF(ctx context.Context, path string) (count int, err error) {
	defer func() {
		if err != nil {
			r.files.RemoveUpload(path)
		}
	}()

	if err = r.provider.Ensure(ctx); err != nil {
		return 0, err
	}

	log.Printf("SERVICE: Starting to process file: %s", path)
	fragments, err := r.partitioner.Partition(ctx, path)
	if err != nil {
		return 0, err
	}

	summarizer := NewFragmentSummarizer(r.provider.LLM())
	pairs := make([]SummarizedFragment, 0, len(fragments))
	for _, fragment := range fragments {
		summary, serr := summarizer.Summarize(ctx, fragment)
		if serr != nil {
			return 0, serr
		}
		pairs = append(pairs, SummarizedFragment{Fragment: fragment, Summary: summary})
	}

	documents := AssembleDocuments(pairs)
	log.Printf("SERVICE: Documents created: %d", len(documents))

	builtIndex, err := r.index.Build(ctx, documents)
	if err != nil {
		return 0, err
	}

	searcher, err := r.index.Persist(ctx, builtIndex)
	if err != nil {
		return 0, err
	}

	r.state.SwapIndex(searcher)
	log.Printf("SERVICE: Index generation activated with %d documents", len(documents))
	return len(documents), nil
}

// Query answers a question from the active index: retrieve top-k
// documents, assemble a typed context, synthesize an answer, and
// materialize referenced images.
func (r *ragServiceImpl) Query(ctx context.Context, req models.QueryRequest) (*models.QueryResponse, error) {
	if err := r.provider.Ensure(ctx); err != nil {
		return nil, err
	}

	searcher := r.state.ActiveIndex()
	if searcher == nil {
		loaded, err := r.index.Load(ctx)
		if err != nil {
			if errors.Is(err, ErrIndexNotFound) {
				log.Printf("SERVICE: No index available yet: %v", err)
				return nil, ErrNoIndex
			}
			return nil, err
		}
		r.state.SwapIndex(loaded)
		searcher = loaded
	}

	log.Printf("SERVICE: Querying with: '%s'", req.Query)
	results, err := r.index.Query(ctx, searcher, req.Query, r.topK)
	if err != nil {
		return nil, err
	}

	contextText, images := buildContext(results)

	prompt := fmt.Sprintf(answerPromptTemplate, contextText, req.Query)
	answer, err := r.provider.LLM().Generate(ctx, "", prompt)
	if err != nil {
		return nil, &SynthesisError{Err: err}
	}

	urls := r.files.MaterializeImages(images)
	return &models.QueryResponse{Answer: answer, Images: urls}, nil
}

// buildContext assembles the type-tagged context string from retrieved
// documents, in retrieval order. Text and table documents contribute
// their original content; image documents contribute their summary to
// keep the context textual, while the base64 originals are collected
// separately for materialization.
func buildContext(results []models.ScoredDocument) (string, []string) {
	var contextText string
	var images []string

	for _, result := range results {
		doc := result.Document
		switch doc.Kind {
		case models.FragmentText:
			contextText += "[text]" + doc.OriginalContent + "\n\n"
		case models.FragmentTable:
			contextText += "[table]" + doc.OriginalContent + "\n\n"
		case models.FragmentImage:
			contextText += "[image]" + doc.Summary + "\n\n"
			images = append(images, doc.OriginalContent)
		}
	}
	return contextText, images
}
