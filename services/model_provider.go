package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"

	"pdfrag/config"

	"google.golang.org/genai"
)

// LanguageModel is the completion surface the pipeline needs: plain text
// generation and vision-capable generation with one inline image.
type LanguageModel interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
	GenerateWithImage(ctx context.Context, system, prompt, imageB64, mimeType string) (string, error)
}

// Embedder turns text into an embedding vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ModelProvider lazily constructs and caches the language model and
// embedding model handles for the process lifetime. Ensure is idempotent
// and safe under concurrent first calls.
type ModelProvider struct {
	mu         sync.Mutex
	cfg        config.ModelsConfig
	httpClient *http.Client

	llm      LanguageModel
	embedder Embedder
}

// NewModelProvider creates a provider that builds handles on first use.
func NewModelProvider(cfg config.ModelsConfig, httpClient *http.Client) *ModelProvider {
	return &ModelProvider{cfg: cfg, httpClient: httpClient}
}

// NewStaticModelProvider creates a provider with pre-built handles.
func NewStaticModelProvider(llm LanguageModel, embedder Embedder) *ModelProvider {
	return &ModelProvider{llm: llm, embedder: embedder}
}

// Ensure constructs the model handles if they are absent. Calling it
// repeatedly, including from concurrent requests, never re-creates them.
func (p *ModelProvider) Ensure(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.llm != nil && p.embedder != nil {
		return nil
	}

	apiKey := os.Getenv(p.cfg.APIKeyEnv)
	if apiKey == "" {
		return fmt.Errorf("%s not set: %w", p.cfg.APIKeyEnv, ErrMissingAPIKey)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return fmt.Errorf("failed to create Gemini client: %w", err)
	}

	p.llm = &geminiModel{client: client, model: p.cfg.Generative}
	p.embedder = &ollamaEmbedder{
		httpClient: p.httpClient,
		baseURL:    p.cfg.EmbedBaseURL,
		model:      p.cfg.EmbedModel,
	}
	log.Println("PROVIDER: Model handles initialized.")
	return nil
}

// LLM returns the cached language model handle. Ensure must have
// succeeded first.
func (p *ModelProvider) LLM() LanguageModel {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.llm
}

// Embedder returns the cached embedding model handle. Ensure must have
// succeeded first.
func (p *ModelProvider) Embedder() Embedder {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.embedder
}

// geminiModel implements LanguageModel on top of the Gemini API.
type geminiModel struct {
	client *genai.Client
	model  string
}

func (m *geminiModel) Generate(ctx context.Context, system, prompt string) (string, error) {
	return m.generate(ctx, system, []*genai.Part{{Text: prompt}})
}

func (m *geminiModel) GenerateWithImage(ctx context.Context, system, prompt, imageB64, mimeType string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(imageB64)
	if err != nil {
		return "", fmt.Errorf("failed to decode inline image: %w", err)
	}
	parts := []*genai.Part{
		{Text: prompt},
		{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}},
	}
	return m.generate(ctx, system, parts)
}

func (m *geminiModel) generate(ctx context.Context, system string, parts []*genai.Part) (string, error) {
	var cfg *genai.GenerateContentConfig
	if system != "" {
		if contents := genai.Text(system); len(contents) > 0 {
			cfg = &genai.GenerateContentConfig{SystemInstruction: contents[0]}
		}
	}

	contents := []*genai.Content{{Parts: parts}}
	result, err := m.client.Models.GenerateContent(ctx, m.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini api call failed: %w", err)
	}

	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil ||
		len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned an empty response")
	}

	var sb strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	return sb.String(), nil
}
