package controller

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"pdfrag/models"
	"pdfrag/services"
)

// RAGController handles the HTTP requests for the PDF RAG API. It depends
// on the RAGService to perform the actual business logic.
type RAGController struct {
	ragService services.RAGService
	files      *services.FileActions
}

// NewRAGController is a constructor function that creates a new RAGController.
func NewRAGController(service services.RAGService, files *services.FileActions) *RAGController {
	return &RAGController{
		ragService: service,
		files:      files,
	}
}

// UploadPDF is the Gin handler for the POST /api/upload endpoint. It
// stores the uploaded PDF and runs the ingestion pipeline.
func (c *RAGController) UploadPDF(ctx *gin.Context) {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Missing file upload: " + err.Error()})
		return
	}

	// Reject non-PDF input before anything touches the uploads area.
	if strings.ToLower(filepath.Ext(fileHeader.Filename)) != ".pdf" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Only PDF files are supported."})
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read upload: " + err.Error()})
		return
	}
	defer src.Close()

	path, err := c.files.SaveUpload(src, fileHeader.Filename)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store upload: " + err.Error()})
		return
	}

	count, err := c.ragService.IngestPDF(ctx.Request.Context(), path)
	if err != nil {
		// The service already deleted the stored upload.
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Error processing PDF: " + err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, models.UploadResponse{
		Status:             "success",
		Message:            fmt.Sprintf("PDF processed successfully with %d documents extracted", count),
		DocumentsExtracted: count,
	})
}

// QueryRAG is the Gin handler for the POST /api/query endpoint.
func (c *RAGController) QueryRAG(ctx *gin.Context) {
	var req models.QueryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	response, err := c.ragService.Query(ctx.Request.Context(), req)
	if err != nil {
		if errors.Is(err, services.ErrNoIndex) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "No PDF has been processed yet. Please upload a PDF first."})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate answer: " + err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, response)
}
