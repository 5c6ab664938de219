package services

import (
	"bytes"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestFileActions(t *testing.T) *FileActions {
	t.Helper()
	dir := t.TempDir()
	uploads := filepath.Join(dir, "uploads")
	images := filepath.Join(dir, "images")
	for _, d := range []string{uploads, images} {
		if err := os.MkdirAll(d, 0755); err != nil {
			t.Fatal(err)
		}
	}
	return NewFileActions(uploads, images)
}

func TestSaveUploadIsContentAddressed(t *testing.T) {
	fa := newTestFileActions(t)

	first, err := fa.SaveUpload(bytes.NewReader([]byte("%PDF-1.7 body")), "Report.PDF")
	if err != nil {
		t.Fatalf("SaveUpload failed: %v", err)
	}
	if !strings.HasSuffix(first, ".pdf") {
		t.Errorf("stored name %s should keep a lowercased extension", first)
	}

	second, err := fa.SaveUpload(bytes.NewReader([]byte("%PDF-1.7 body")), "other-name.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("same content stored under different names: %s vs %s", first, second)
	}

	other, err := fa.SaveUpload(bytes.NewReader([]byte("%PDF-1.7 different")), "Report.PDF")
	if err != nil {
		t.Fatal(err)
	}
	if other == first {
		t.Errorf("different content collided on name %s", other)
	}
}

func TestMaterializeImages(t *testing.T) {
	fa := newTestFileActions(t)

	good := base64.StdEncoding.EncodeToString([]byte("jpeg-bytes"))
	urls := fa.MaterializeImages([]string{"not-base64!!!", good})

	if len(urls) != 1 {
		t.Fatalf("urls = %d, want 1 (bad image skipped, not fatal)", len(urls))
	}
	if !strings.HasPrefix(urls[0], "/static/images/result_1_") {
		t.Errorf("url %s should carry the response position", urls[0])
	}

	name := strings.TrimPrefix(urls[0], "/static/images/")
	data, err := os.ReadFile(filepath.Join(fa.imagesDir, name))
	if err != nil {
		t.Fatalf("materialized image not readable: %v", err)
	}
	if string(data) != "jpeg-bytes" {
		t.Errorf("materialized bytes do not match the decoded original")
	}
}

func TestMaterializeImagesDistinctImagesDoNotCollide(t *testing.T) {
	fa := newTestFileActions(t)

	a := base64.StdEncoding.EncodeToString([]byte("image-a"))
	b := base64.StdEncoding.EncodeToString([]byte("image-b"))
	urls := fa.MaterializeImages([]string{a, b})

	if len(urls) != 2 {
		t.Fatalf("urls = %d, want 2", len(urls))
	}
	if urls[0] == urls[1] {
		t.Errorf("distinct images mapped to the same reference %s", urls[0])
	}
}

func TestRemoveUploadMissingFileIsQuiet(t *testing.T) {
	fa := newTestFileActions(t)
	fa.RemoveUpload(filepath.Join(fa.uploadsDir, "never-existed.pdf"))
}
