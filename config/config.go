package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the PDF RAG service.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Models   ModelsConfig   `yaml:"models"`
	Retrieve RetrieveConfig `yaml:"retrieve"`
	Vector   VectorConfig   `yaml:"vector"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `yaml:"port"`
}

// StorageConfig holds the on-disk layout: an uploads area for raw PDFs,
// an images area for extracted and re-materialized images, and the path
// of the persisted vector index.
type StorageConfig struct {
	StaticDir string `yaml:"static_dir"`
	IndexPath string `yaml:"index_path"`
}

// ModelsConfig holds model identifiers and credential lookup.
type ModelsConfig struct {
	Generative   string `yaml:"generative"`     // e.g. "gemini-2.5-flash"
	APIKeyEnv    string `yaml:"api_key_env"`    // environment variable holding the Gemini API key
	EmbedModel   string `yaml:"embed_model"`    // e.g. "nomic-embed-text:v1.5"
	EmbedBaseURL string `yaml:"embed_base_url"` // Ollama-compatible endpoint
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	TopK int `yaml:"top_k"`
}

// VectorConfig selects the vector store backend.
type VectorConfig struct {
	Backend    string `yaml:"backend"` // "local" (bbolt file) or "chroma"
	ChromaURL  string `yaml:"chroma_url"`
	Collection string `yaml:"collection"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8080",
		},
		Storage: StorageConfig{
			StaticDir: "static",
			IndexPath: filepath.Join("static", "vectorstore", "index.db"),
		},
		Models: ModelsConfig{
			Generative:   "gemini-2.5-flash",
			APIKeyEnv:    "GEMINI_API_KEY",
			EmbedModel:   "nomic-embed-text:v1.5",
			EmbedBaseURL: "http://localhost:11434",
		},
		Retrieve: RetrieveConfig{
			TopK: 4,
		},
		Vector: VectorConfig{
			Backend:    "local",
			ChromaURL:  "http://localhost:8000",
			Collection: "pdfrag",
		},
	}
}

// Load loads configuration from a YAML file, falling back to defaults if
// the file does not exist.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// UploadsDir returns the uploads area under the static directory.
func (c *Config) UploadsDir() string {
	return filepath.Join(c.Storage.StaticDir, "uploads")
}

// ImagesDir returns the images area under the static directory.
func (c *Config) ImagesDir() string {
	return filepath.Join(c.Storage.StaticDir, "images")
}

// EnsureDirs creates the uploads, images and vectorstore directories.
func (c *Config) EnsureDirs() error {
	dirs := []string{
		c.UploadsDir(),
		c.ImagesDir(),
		filepath.Dir(c.Storage.IndexPath),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0755); err != nil {
			return err
		}
	}
	return nil
}
