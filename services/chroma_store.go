package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"

	"pdfrag/models"
)

const chromaSourceTag = "pdf_ingest"

// ChromaIndexStore keeps the active index generation in a Chroma
// collection. Replace clears the previous generation and pushes the new
// one; similarity search runs server-side.
type ChromaIndexStore struct {
	collection chromago.Collection
}

func NewChromaIndexStore(collection chromago.Collection) *ChromaIndexStore {
	return &ChromaIndexStore{collection: collection}
}

func (s *ChromaIndexStore) Replace(ctx context.Context, index *VectorIndex) (Searcher, error) {
	where := chromago.EqString("source", chromaSourceTag)
	if err := s.collection.Delete(ctx, chromago.WithWhereDelete(where)); err != nil {
		return nil, fmt.Errorf("failed to clear previous index generation: %w", err)
	}

	for i := range index.docs {
		doc := index.docs[i]
		embedding := embeddings.NewEmbeddingFromFloat32(index.vectors[i])
		metadata := chromago.NewDocumentMetadata(
			chromago.NewStringAttribute("source", chromaSourceTag),
			chromago.NewStringAttribute("type", string(doc.Kind)),
			chromago.NewStringAttribute("original_content", doc.OriginalContent),
			chromago.NewIntAttribute("seq", int64(i)),
		)
		err := s.collection.Add(ctx,
			chromago.WithIDs(chromago.DocumentID(doc.ID)),
			chromago.WithTexts(doc.Summary),
			chromago.WithEmbeddings(embedding),
			chromago.WithMetadatas(metadata),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to add document %s to chroma: %w", doc.ID, err)
		}
	}

	log.Printf("STORE: Replaced chroma index generation with %d documents", index.Count())
	return s, nil
}

func (s *ChromaIndexStore) Load(ctx context.Context) (Searcher, error) {
	count, err := s.collection.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count chroma collection: %w", err)
	}
	if count == 0 {
		return nil, ErrIndexNotFound
	}
	return s, nil
}

func (s *ChromaIndexStore) Search(ctx context.Context, query []float32, k int) ([]models.ScoredDocument, error) {
	embedding := embeddings.NewEmbeddingFromFloat32(query)
	results, err := s.collection.Query(ctx,
		chromago.WithQueryEmbeddings(embedding),
		chromago.WithNResults(k),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query chroma: %w", err)
	}

	idGroups := results.GetIDGroups()
	documentGroups := results.GetDocumentsGroups()
	metadataGroups := results.GetMetadatasGroups()
	distanceGroups := results.GetDistancesGroups()
	if len(documentGroups) == 0 {
		return nil, nil
	}

	var scored []models.ScoredDocument
	for i, doc := range documentGroups[0] {
		record := models.IndexedDocument{Summary: doc.ContentString()}
		if len(idGroups) > 0 && i < len(idGroups[0]) {
			record.ID = string(idGroups[0][i])
		}

		if i < len(metadataGroups[0]) && metadataGroups[0][i] != nil {
			// DocumentMetadata exposes no map accessor; round-trip
			// through JSON to read the attributes back.
			jsonBytes, err := json.Marshal(metadataGroups[0][i])
			if err == nil {
				var metadataMap map[string]interface{}
				if err := json.Unmarshal(jsonBytes, &metadataMap); err == nil {
					if kind, ok := metadataMap["type"].(string); ok {
						record.Kind = models.FragmentKind(kind)
					}
					if content, ok := metadataMap["original_content"].(string); ok {
						record.OriginalContent = content
					}
				}
			}
		}

		score := 0.0
		if len(distanceGroups) > 0 && i < len(distanceGroups[0]) {
			// Chroma reports distances; convert to a similarity score.
			score = 1 - float64(distanceGroups[0][i])
		}
		scored = append(scored, models.ScoredDocument{Document: record, Score: score})
	}
	return scored, nil
}
