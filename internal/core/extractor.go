package core

import "context"

// TextExtractor turns stored document bytes into plain text.
// The contentType hint helps the extractor choose the right parsing strategy.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte, contentType string) (string, error)
}
