package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image/jpeg"
	"log"
	"os"
	"regexp"
	"strings"

	"pdfrag/models"

	"github.com/joho/godotenv"
	"github.com/tmc/langchaingo/textsplitter"
	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"
)

func init() {
	// Load .env file from the current directory
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables.")
	}
	err := license.SetMeteredKey(os.Getenv("UNIDOC_LICENSE_KEY"))
	if err != nil {
		fmt.Printf("ERROR: Failed to set Unidoc license key: %v. PDF processing will fail.\n", err)
	}
}

// Partitioner decomposes one PDF into raw typed fragments.
type Partitioner interface {
	Partition(ctx context.Context, path string) ([]models.RawFragment, error)
}

// PDFPartitioner extracts text and images with UniPDF. Page text is split
// into blocks, each classified as text or table by layout; embedded images
// are re-encoded as JPEG and carried base64-encoded.
type PDFPartitioner struct {
	splitter textsplitter.TextSplitter
}

func NewPDFPartitioner() *PDFPartitioner {
	return &PDFPartitioner{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(4000),
			textsplitter.WithChunkOverlap(200),
		),
	}
}

func (p *PDFPartitioner) Partition(ctx context.Context, path string) ([]models.RawFragment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ExtractionError{Err: err}
	}
	defer f.Close()

	pdfReader, err := model.NewPdfReader(f)
	if err != nil {
		return nil, &ExtractionError{Err: err}
	}

	numPages, err := pdfReader.GetNumPages()
	if err != nil {
		return nil, &ExtractionError{Err: err}
	}

	var sb strings.Builder
	var imageFragments []models.RawFragment

	for i := 1; i <= numPages; i++ {
		page, err := pdfReader.GetPage(i)
		if err != nil {
			return nil, &ExtractionError{Err: fmt.Errorf("page %d: %w", i, err)}
		}

		ex, err := extractor.New(page)
		if err != nil {
			return nil, &ExtractionError{Err: fmt.Errorf("page %d: %w", i, err)}
		}

		text, err := ex.ExtractText()
		if err != nil {
			return nil, &ExtractionError{Err: fmt.Errorf("page %d: %w", i, err)}
		}
		sb.WriteString(text)
		sb.WriteString("\n\n")

		pageImages, err := ex.ExtractPageImages(nil)
		if err != nil {
			return nil, &ExtractionError{Err: fmt.Errorf("page %d images: %w", i, err)}
		}
		for _, mark := range pageImages.Images {
			goImg, err := mark.Image.ToGoImage()
			if err != nil {
				return nil, &ExtractionError{Err: fmt.Errorf("page %d image: %w", i, err)}
			}
			var buf bytes.Buffer
			if err := jpeg.Encode(&buf, goImg, nil); err != nil {
				return nil, &ExtractionError{Err: fmt.Errorf("page %d image: %w", i, err)}
			}
			imageFragments = append(imageFragments, models.RawFragment{
				Kind:     models.FragmentImage,
				Content:  base64.StdEncoding.EncodeToString(buf.Bytes()),
				MIMEType: "image/jpeg",
			})
		}
	}

	chunks, err := p.splitter.SplitText(sb.String())
	if err != nil {
		return nil, &ExtractionError{Err: err}
	}

	var fragments []models.RawFragment
	for _, chunk := range chunks {
		kind := models.FragmentText
		if looksTabular(chunk) {
			kind = models.FragmentTable
		}
		fragments = append(fragments, models.RawFragment{Kind: kind, Content: chunk})
	}
	fragments = append(fragments, imageFragments...)

	log.Printf("EXTRACTOR: Partitioned %s into %d fragments (%d images) across %d pages",
		path, len(fragments), len(imageFragments), numPages)
	return fragments, nil
}

var columnGap = regexp.MustCompile(`\S {2,}\S`)

// looksTabular reports whether a text block reads like a table: most of
// its lines are split into columns by tabs or runs of spaces.
func looksTabular(block string) bool {
	lines := strings.Split(strings.TrimSpace(block), "\n")
	if len(lines) < 3 {
		return false
	}
	columnar := 0
	for _, line := range lines {
		if strings.Count(line, "\t") >= 2 || len(columnGap.FindAllString(line, -1)) >= 2 {
			columnar++
		}
	}
	return columnar*2 >= len(lines)
}
