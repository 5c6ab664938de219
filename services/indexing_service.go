package services

import (
	"context"
	"log"

	"pdfrag/models"
)

// IndexManager builds vector indexes from assembled documents, persists
// them through the configured IndexStore, and answers similarity queries
// against an active generation.
type IndexManager struct {
	provider *ModelProvider
	store    IndexStore
}

func NewIndexManager(provider *ModelProvider, store IndexStore) *IndexManager {
	return &IndexManager{provider: provider, store: store}
}

// Build computes one embedding per document from its summary and
// constructs a similarity index over them. An embedding failure aborts
// the build; nothing is persisted.
func (m *IndexManager) Build(ctx context.Context, documents []models.IndexedDocument) (*VectorIndex, error) {
	embedder := m.provider.Embedder()

	vectors := make([][]float32, 0, len(documents))
	for _, doc := range documents {
		vector, err := embedder.Embed(ctx, doc.Summary)
		if err != nil {
			return nil, &EmbeddingError{Err: err}
		}
		vectors = append(vectors, vector)
	}

	index, err := NewVectorIndex(documents, vectors)
	if err != nil {
		return nil, err
	}
	log.Printf("INDEXER: Built index with %d documents", index.Count())
	return index, nil
}

// Persist writes a fully built index as the new durable generation and
// returns the Searcher to activate.
func (m *IndexManager) Persist(ctx context.Context, index *VectorIndex) (Searcher, error) {
	return m.store.Replace(ctx, index)
}

// Load reconstructs the last persisted generation. Stored embeddings are
// not recomputed; only query-time embeddings are computed fresh.
func (m *IndexManager) Load(ctx context.Context) (Searcher, error) {
	return m.store.Load(ctx)
}

// Query embeds the text and returns the k nearest documents, highest
// similarity first.
func (m *IndexManager) Query(ctx context.Context, searcher Searcher, text string, k int) ([]models.ScoredDocument, error) {
	vector, err := m.provider.Embedder().Embed(ctx, text)
	if err != nil {
		return nil, &EmbeddingError{Err: err}
	}
	return searcher.Search(ctx, vector, k)
}
