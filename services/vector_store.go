package services

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"os"
	"sort"

	"go.etcd.io/bbolt"

	"pdfrag/models"
)

var bucketDocuments = []byte("documents")

// Searcher is the query surface of an active vector index generation.
type Searcher interface {
	Search(ctx context.Context, query []float32, k int) ([]models.ScoredDocument, error)
}

// IndexStore persists index generations durably. Replace swaps in a fully
// built generation and returns the Searcher to activate; Load reconstructs
// the last persisted generation, failing with ErrIndexNotFound if none
// has ever been persisted.
type IndexStore interface {
	Replace(ctx context.Context, index *VectorIndex) (Searcher, error)
	Load(ctx context.Context) (Searcher, error)
}

// VectorIndex is an in-memory similarity index: one embedding per
// document, in insertion order. It is immutable once built.
type VectorIndex struct {
	docs    []models.IndexedDocument
	vectors [][]float32
}

// NewVectorIndex builds an index over parallel document and vector slices.
func NewVectorIndex(docs []models.IndexedDocument, vectors [][]float32) (*VectorIndex, error) {
	if len(docs) != len(vectors) {
		return nil, fmt.Errorf("documents and vectors length mismatch: %d vs %d", len(docs), len(vectors))
	}
	return &VectorIndex{docs: docs, vectors: vectors}, nil
}

func (ix *VectorIndex) Count() int { return len(ix.docs) }

// Documents returns the indexed documents in insertion order.
func (ix *VectorIndex) Documents() []models.IndexedDocument { return ix.docs }

// Search returns the k nearest documents by cosine similarity, highest
// first. Ties keep insertion order: the first-built document wins.
func (ix *VectorIndex) Search(ctx context.Context, query []float32, k int) ([]models.ScoredDocument, error) {
	scored := make([]models.ScoredDocument, 0, len(ix.docs))
	for i := range ix.docs {
		scored = append(scored, models.ScoredDocument{
			Document: ix.docs[i],
			Score:    cosineSimilarity(query, ix.vectors[i]),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k], nil
}

// cosineSimilarity calculates the cosine similarity between two vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// BoltIndexStore persists one index generation to a bbolt file. Replace
// writes the whole generation to a temporary file and renames it over the
// previous one, so a reader never observes a half-written index.
type BoltIndexStore struct {
	path string
}

func NewBoltIndexStore(path string) *BoltIndexStore {
	return &BoltIndexStore{path: path}
}

// storedDocument is the on-disk record: document plus its embedding.
type storedDocument struct {
	Document models.IndexedDocument `json:"document"`
	Vector   []float32              `json:"vector"`
}

func (s *BoltIndexStore) Replace(ctx context.Context, index *VectorIndex) (Searcher, error) {
	tmpPath := s.path + ".tmp"
	if err := os.Remove(tmpPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to clear temporary index file: %w", err)
	}

	db, err := bbolt.Open(tmpPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open temporary index file: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(bucketDocuments)
		if err != nil {
			return err
		}
		for i := range index.docs {
			data, err := json.Marshal(storedDocument{
				Document: index.docs[i],
				Vector:   index.vectors[i],
			})
			if err != nil {
				return err
			}
			var key [8]byte
			binary.BigEndian.PutUint64(key[:], uint64(i))
			if err := bucket.Put(key[:], data); err != nil {
				return err
			}
		}
		return nil
	})
	if cerr := db.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to write index file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to swap index file: %w", err)
	}

	log.Printf("STORE: Persisted index generation with %d documents to %s", index.Count(), s.path)
	return index, nil
}

func (s *BoltIndexStore) Load(ctx context.Context) (Searcher, error) {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return nil, ErrIndexNotFound
	}

	db, err := bbolt.Open(s.path, 0600, &bbolt.Options{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open index file: %w", err)
	}
	defer db.Close()

	var docs []models.IndexedDocument
	var vectors [][]float32
	err = db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketDocuments)
		if bucket == nil {
			return ErrIndexNotFound
		}
		// Keys are big-endian sequence numbers, so ForEach preserves
		// insertion order.
		return bucket.ForEach(func(k, v []byte) error {
			var stored storedDocument
			if err := json.Unmarshal(v, &stored); err != nil {
				return fmt.Errorf("corrupt index record: %w", err)
			}
			docs = append(docs, stored.Document)
			vectors = append(vectors, stored.Vector)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	index, err := NewVectorIndex(docs, vectors)
	if err != nil {
		return nil, err
	}
	log.Printf("STORE: Loaded index generation with %d documents from %s", index.Count(), s.path)
	return index, nil
}
