package services

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// FileActions handles the static storage areas: uploaded PDFs and
// materialized images.
type FileActions struct {
	uploadsDir string
	imagesDir  string
}

func NewFileActions(uploadsDir, imagesDir string) *FileActions {
	return &FileActions{uploadsDir: uploadsDir, imagesDir: imagesDir}
}

// SaveUpload writes an uploaded file into the uploads area under a
// content-addressed name, so re-uploading the same PDF never collides
// with a different one. Returns the stored path.
func (fa *FileActions) SaveUpload(src io.Reader, originalName string) (string, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}

	sum := sha256.Sum256(data)
	name := hex.EncodeToString(sum[:])[:16] + strings.ToLower(filepath.Ext(originalName))
	path := filepath.Join(fa.uploadsDir, name)

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to store upload: %w", err)
	}
	return path, nil
}

// RemoveUpload deletes a stored upload, used to clean up after a failed
// ingestion.
func (fa *FileActions) RemoveUpload(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Printf("WARN: failed to remove upload %s: %v", path, err)
	}
}

// MaterializeImages decodes base64 images and writes them into the images
// area, returning a URL path for each image actually written. Filenames
// combine the position in the response with a hash of the image bytes, so
// distinct images retrieved together cannot overwrite each other. A
// failed image is logged and skipped; the operation never fails as a
// whole.
func (fa *FileActions) MaterializeImages(images []string) []string {
	urls := make([]string, 0, len(images))
	for i, encoded := range images {
		raw, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			log.Printf("WARN: failed to decode result image %d: %v", i, err)
			continue
		}

		sum := sha256.Sum256(raw)
		name := fmt.Sprintf("result_%d_%s.jpg", i, hex.EncodeToString(sum[:])[:8])
		path := filepath.Join(fa.imagesDir, name)

		if err := os.WriteFile(path, raw, 0644); err != nil {
			log.Printf("WARN: failed to save result image %d: %v", i, err)
			continue
		}
		urls = append(urls, "/static/images/"+name)
	}
	return urls
}
