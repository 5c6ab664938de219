package services

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pdfrag/models"
)

// fakeLLM scripts the language model: one reply for text completions, one
// for vision calls.
type fakeLLM struct {
	textReply   string
	visionReply string
	err         error

	prompts       []string
	visionSystems []string
}

func (f *fakeLLM) Generate(ctx context.Context, system, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.textReply, nil
}

func (f *fakeLLM) GenerateWithImage(ctx context.Context, system, prompt, imageB64, mimeType string) (string, error) {
	f.visionSystems = append(f.visionSystems, system)
	if f.err != nil {
		return "", f.err
	}
	return f.visionReply, nil
}

// fakeEmbedder returns scripted vectors per input text, with a fallback.
type fakeEmbedder struct {
	vectors  map[string][]float32
	fallback []float32
	err      error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return f.fallback, nil
}

type fakePartitioner struct {
	fragments []models.RawFragment
	err       error
}

func (f *fakePartitioner) Partition(ctx context.Context, path string) ([]models.RawFragment, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.fragments, nil
}

func newTestService(t *testing.T, llm LanguageModel, embedder Embedder, partitioner Partitioner) (RAGService, *AppState, string) {
	t.Helper()
	dir := t.TempDir()
	imagesDir := filepath.Join(dir, "images")
	uploadsDir := filepath.Join(dir, "uploads")
	for _, d := range []string{imagesDir, uploadsDir} {
		if err := os.MkdirAll(d, 0755); err != nil {
			t.Fatalf("mkdir %s: %v", d, err)
		}
	}

	provider := NewStaticModelProvider(llm, embedder)
	store := NewBoltIndexStore(filepath.Join(dir, "index.db"))
	manager := NewIndexManager(provider, store)
	files := NewFileActions(uploadsDir, imagesDir)
	state := NewAppState()
	svc := NewRAGService(provider, partitioner, manager, files, state, 4)
	return svc, state, uploadsDir
}

func TestIngestAndQueryScenario(t *testing.T) {
	chart := base64.StdEncoding.EncodeToString([]byte("chart-bytes"))
	partitioner := &fakePartitioner{fragments: []models.RawFragment{
		{Kind: models.FragmentText, Content: "Aspirin reduces fever."},
		{Kind: models.FragmentImage, Content: chart, MIMEType: "image/jpeg"},
	}}
	llm := &fakeLLM{
		textReply:   "Aspirin reduces fever.",
		visionReply: "A chart of temperature readings.",
	}
	embedder := &fakeEmbedder{
		vectors: map[string][]float32{
			"Aspirin reduces fever.":           {1, 0},
			"A chart of temperature readings.": {0, 1},
			"What reduces fever?":              {0.9, 0.1},
		},
		fallback: []float32{0.5, 0.5},
	}

	svc, _, _ := newTestService(t, llm, embedder, partitioner)

	count, err := svc.IngestPDF(context.Background(), filepath.Join(t.TempDir(), "doc.pdf"))
	if err != nil {
		t.Fatalf("IngestPDF failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("documents extracted = %d, want 2", count)
	}

	resp, err := svc.Query(context.Background(), models.QueryRequest{Query: "What reduces fever?"})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if !strings.Contains(resp.Answer, "Aspirin") {
		t.Errorf("answer %q does not mention aspirin", resp.Answer)
	}
	if len(resp.Images) != 1 {
		t.Fatalf("images = %d, want 1", len(resp.Images))
	}
	if !strings.HasPrefix(resp.Images[0], "/static/images/result_") {
		t.Errorf("unexpected image reference: %s", resp.Images[0])
	}

	// The answer prompt is the last completion and must carry the typed
	// context blocks: original content for text, summary for images.
	answerPrompt := llm.prompts[len(llm.prompts)-1]
	if !strings.Contains(answerPrompt, "[text]Aspirin reduces fever.") {
		t.Errorf("answer prompt missing text block:\n%s", answerPrompt)
	}
	if !strings.Contains(answerPrompt, "[image]A chart of temperature readings.") {
		t.Errorf("answer prompt missing image block:\n%s", answerPrompt)
	}
	if strings.Contains(answerPrompt, chart) {
		t.Errorf("answer prompt must stay textual, but contains raw image bytes")
	}
}

func TestQueryBeforeIngestFailsWithNoIndex(t *testing.T) {
	svc, _, _ := newTestService(t, &fakeLLM{}, &fakeEmbedder{fallback: []float32{1}}, &fakePartitioner{})

	_, err := svc.Query(context.Background(), models.QueryRequest{Query: "anything"})
	if !errors.Is(err, ErrNoIndex) {
		t.Fatalf("err = %v, want ErrNoIndex", err)
	}
}

func TestQueryLoadsPersistedIndexAfterRestart(t *testing.T) {
	llm := &fakeLLM{textReply: "an answer", visionReply: "a picture"}
	embedder := &fakeEmbedder{fallback: []float32{1, 0}}
	partitioner := &fakePartitioner{fragments: []models.RawFragment{
		{Kind: models.FragmentText, Content: "persisted content"},
	}}

	dir := t.TempDir()
	imagesDir := filepath.Join(dir, "images")
	os.MkdirAll(imagesDir, 0755)
	provider := NewStaticModelProvider(llm, embedder)
	store := NewBoltIndexStore(filepath.Join(dir, "index.db"))
	files := NewFileActions(dir, imagesDir)

	first := NewRAGService(provider, partitioner, NewIndexManager(provider, store), files, NewAppState(), 4)
	if _, err := first.IngestPDF(context.Background(), filepath.Join(dir, "up.pdf")); err != nil {
		t.Fatalf("IngestPDF failed: %v", err)
	}

	// Fresh state simulates a process restart; the index must load from
	// durable storage on first query.
	second := NewRAGService(provider, partitioner, NewIndexManager(provider, store), files, NewAppState(), 4)
	resp, err := second.Query(context.Background(), models.QueryRequest{Query: "persisted?"})
	if err != nil {
		t.Fatalf("Query after restart failed: %v", err)
	}
	if resp.Answer != "an answer" {
		t.Errorf("answer = %q", resp.Answer)
	}
}

func TestIngestFailureDeletesUploadAndKeepsNoIndex(t *testing.T) {
	llm := &fakeLLM{err: errors.New("model down")}
	partitioner := &fakePartitioner{fragments: []models.RawFragment{
		{Kind: models.FragmentText, Content: "whatever"},
	}}
	svc, state, uploadsDir := newTestService(t, llm, &fakeEmbedder{fallback: []float32{1}}, partitioner)

	upload := filepath.Join(uploadsDir, "bad.pdf")
	if err := os.WriteFile(upload, []byte("%PDF"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := svc.IngestPDF(context.Background(), upload)
	var summErr *SummarizationError
	if !errors.As(err, &summErr) {
		t.Fatalf("err = %v, want SummarizationError", err)
	}
	if summErr.Kind != models.FragmentText {
		t.Errorf("error kind = %s, want text", summErr.Kind)
	}
	if _, err := os.Stat(upload); !os.IsNotExist(err) {
		t.Errorf("upload was not deleted after failed ingestion")
	}
	if state.ActiveIndex() != nil {
		t.Errorf("failed ingestion must not activate an index")
	}
}

func TestBuildContextCollectsImagesInRetrievalOrder(t *testing.T) {
	results := []models.ScoredDocument{
		{Document: models.IndexedDocument{Kind: models.FragmentImage, Summary: "first chart", OriginalContent: "img-a"}},
		{Document: models.IndexedDocument{Kind: models.FragmentTable, OriginalContent: "a | b"}},
		{Document: models.IndexedDocument{Kind: models.FragmentImage, Summary: "second chart", OriginalContent: "img-b"}},
	}

	contextText, images := buildContext(results)
	if !strings.Contains(contextText, "[table]a | b") {
		t.Errorf("missing table block:\n%s", contextText)
	}
	if len(images) != 2 || images[0] != "img-a" || images[1] != "img-b" {
		t.Errorf("images = %v, want [img-a img-b] in retrieval order", images)
	}
}

func TestEnsureModelsIsIdempotent(t *testing.T) {
	llm := &fakeLLM{}
	embedder := &fakeEmbedder{}
	provider := NewStaticModelProvider(llm, embedder)

	for i := 0; i < 2; i++ {
		if err := provider.Ensure(context.Background()); err != nil {
			t.Fatalf("Ensure call %d failed: %v", i+1, err)
		}
	}
	if provider.LLM() != LanguageModel(llm) || provider.Embedder() != Embedder(embedder) {
		t.Errorf("Ensure replaced cached handles")
	}
}
