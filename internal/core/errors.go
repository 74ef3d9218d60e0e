package core

import (
	"context"
	"errors"
	"fmt"
)

// Error kinds surfaced to callers. Lower layers wrap these with fmt.Errorf("%w: ...").
var (
	ErrSourceNotFound = errors.New("source not found")
	ErrFileMissing    = errors.New("source file missing")
	ErrExtraction     = errors.New("text extraction failed")
	ErrGeneration     = errors.New("generation backend failed")
	ErrArchiveRender  = errors.New("archive rendering failed")
	ErrReportNotFound = errors.New("report not found")
	ErrTimeout        = errors.New("generation timed out")
	ErrInvalidInput   = errors.New("invalid input")
)

var kinds = []struct {
	err  error
	kind string
}{
	{ErrTimeout, "timeout"},
	{ErrSourceNotFound, "source_not_found"},
	{ErrFileMissing, "file_missing"},
	{ErrExtraction, "extraction_failed"},
	{ErrGeneration, "generation_failed"},
	{ErrArchiveRender, "archive_render_failed"},
	{ErrReportNotFound, "report_not_found"},
	{ErrInvalidInput, "invalid_input"},
}

// ErrorKind returns the stable kind string for err, or "internal".
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "internal"
}

// GenerationFailure wraps a backend error, mapping expired deadlines to ErrTimeout.
func GenerationFailure(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %v", ErrTimeout, op, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrGeneration, op, err)
}
