package extraction

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"code.sajari.com/docconv"

	"github.com/markdave123-py/Paperlens/internal/core"
)

var _ core.TextExtractor = (*DocconvExtractor)(nil)

// DocconvExtractor implements core.TextExtractor using sajari/docconv.
type DocconvExtractor struct {
	useReadability bool
}

func NewDocconvExtractor(useReadability bool) *DocconvExtractor {
	return &DocconvExtractor{useReadability: useReadability}
}

// ContentTypeFor guesses a content type from a stored file path.
func ContentTypeFor(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".md", ".markdown":
		return "text/markdown"
	case ".txt":
		return "text/plain"
	}
	if ct := docconv.MimeTypeByExtension(path); ct != "application/octet-stream" {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/pdf"
}

// Extract converts data to plain text. Plain-text formats pass through untouched;
// everything else goes through docconv. Empty output counts as a failure so no
// blank context ever reaches the generation backend.
func (e *DocconvExtractor) Extract(ctx context.Context, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty file", core.ErrExtraction)
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = contentType
	}

	var text string
	switch mediaType {
	case "text/plain", "text/markdown":
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%w: %s is not valid UTF-8", core.ErrExtraction, mediaType)
		}
		text = string(data)
	default:
		res, err := docconv.Convert(bytes.NewReader(data), mediaType, e.useReadability)
		if err != nil {
			return "", fmt.Errorf("%w: docconv %s: %v", core.ErrExtraction, mediaType, err)
		}
		text = res.Body
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: no text in %s document", core.ErrExtraction, mediaType)
	}
	return text, nil
}
