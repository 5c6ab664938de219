package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"pdfrag/config"
	"pdfrag/controller"
	"pdfrag/services"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load("pdfrag.yaml")
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	if err := cfg.EnsureDirs(); err != nil {
		log.Fatalf("FATAL: Failed to create storage directories: %v", err)
	}

	httpClient := &http.Client{
		Timeout: 120 * time.Second,
	}

	store, cleanup, err := newIndexStore(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to create index store: %v", err)
	}
	defer cleanup()

	provider := services.NewModelProvider(cfg.Models, httpClient)
	partitioner := services.NewPDFPartitioner()
	indexManager := services.NewIndexManager(provider, store)
	files := services.NewFileActions(cfg.UploadsDir(), cfg.ImagesDir())
	state := services.NewAppState()

	ragService := services.NewRAGService(provider, partitioner, indexManager, files, state, cfg.Retrieve.TopK)
	ragController := controller.NewRAGController(ragService, files)

	// Setup Gin router
	router := gin.Default()

	// Add CORS middleware for the frontend
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "PDF RAG API",
			"version": "1.0.0",
		})
	})

	// Serve uploaded PDFs and materialized images
	router.Static("/static", cfg.Storage.StaticDir)

	api := router.Group("/api")
	{
		api.POST("/upload", ragController.UploadPDF)
		api.POST("/query", ragController.QueryRAG)
	}

	log.Printf("PDF RAG backend server starting on http://localhost:%s", cfg.Server.Port)
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("FATAL: Failed to start server: %v", err)
	}
}

// newIndexStore builds the configured vector store backend: a local
// bbolt file by default, or a Chroma collection.
func newIndexStore(cfg *config.Config) (services.IndexStore, func(), error) {
	switch cfg.Vector.Backend {
	case "chroma":
		client, err := chromago.NewHTTPClient(chromago.WithBaseURL(cfg.Vector.ChromaURL))
		if err != nil {
			return nil, nil, err
		}
		collection, err := client.GetOrCreateCollection(
			context.Background(),
			cfg.Vector.Collection,
			chromago.WithCollectionMetadataCreate(
				chromago.NewMetadata(
					chromago.NewStringAttribute("description", "PDF RAG collection"),
				),
			),
		)
		if err != nil {
			client.Close()
			return nil, nil, err
		}
		cleanup := func() {
			if err := client.Close(); err != nil {
				log.Printf("Warning: Failed to close chroma client: %v", err)
			}
		}
		return services.NewChromaIndexStore(collection), cleanup, nil
	default:
		return services.NewBoltIndexStore(cfg.Storage.IndexPath), func() {}, nil
	}
}
