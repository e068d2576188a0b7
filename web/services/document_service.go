package services

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	apperrors "docchat/errors"

	"github.com/jdkato/prose/v2"
	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

// truncationMarker is appended to document content cut to fit the prompt.
const truncationMarker = "..."

type DocumentService struct {
	maxContentLength int
	logger           *zap.Logger
}

func NewDocumentService(maxContentLength int, logger *zap.Logger) *DocumentService {
	return &DocumentService{
		maxContentLength: maxContentLength,
		logger:           logger,
	}
}

// ExtractText returns the text content of the file at path. ext selects the
// extractor and must already be lowercased.
func (ds *DocumentService) ExtractText(path, ext string) (string, error) {
	switch ext {
	case ".pdf":
		return ds.extractPDF(path)
	case ".txt", ".md":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read file: %w", err)
		}
		if !utf8.Valid(data) {
			return "", apperrors.WrapError(apperrors.ErrInvalidInput, "file is not valid UTF-8 text")
		}
		return string(data), nil
	default:
		return "", apperrors.WrapErrorf(apperrors.ErrUnsupportedFileType, "extension %q", ext)
	}
}

func (ds *DocumentService) extractPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	totalPages := r.NumPage()
	pages := make([]string, 0, totalPages)
	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		page := r.Page(pageNum)
		if page.V.IsNull() {
			ds.logger.Warn("Skipping null page", zap.Int("page", pageNum))
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			ds.logger.Warn("Failed to extract text from page",
				zap.Int("page", pageNum),
				zap.Error(err))
			continue
		}
		pages = append(pages, text)
	}

	extracted := strings.TrimSpace(strings.Join(pages, "\n"))
	ds.logger.Info("PDF text extraction completed",
		zap.String("path", path),
		zap.Int("pages", totalPages),
		zap.Int("characters", len(extracted)))

	return extracted, nil
}

// Truncate limits content to the configured number of runes. Over-long
// content is cut after the last complete sentence that fits and marked with
// "...". When no sentence boundary is found the cut is made at the limit.
func (ds *DocumentService) Truncate(content string) string {
	if ds.maxContentLength <= 0 || utf8.RuneCountInString(content) <= ds.maxContentLength {
		return content
	}

	cut := string([]rune(content)[:ds.maxContentLength])

	doc, err := prose.NewDocument(cut,
		prose.WithTagging(false),
		prose.WithExtraction(false))
	if err != nil {
		ds.logger.Warn("Failed to segment sentences, truncating at character boundary", zap.Error(err))
		return cut + truncationMarker
	}

	sentences := doc.Sentences()
	if len(sentences) < 2 {
		return cut + truncationMarker
	}

	// The final sentence of the cut is almost always partial.
	lastFull := sentences[len(sentences)-2].Text
	end := strings.LastIndex(cut, lastFull)
	if end < 0 {
		return cut + truncationMarker
	}
	end += len(lastFull)

	ds.logger.Debug("Truncated document at sentence boundary",
		zap.Int("sentences_kept", len(sentences)-1),
		zap.Int("characters", end))

	return strings.TrimSpace(cut[:end]) + truncationMarker
}
