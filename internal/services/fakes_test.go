package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/markdave123-py/Paperlens/internal/core"
	"github.com/markdave123-py/Paperlens/internal/models"
)

type fakeSources map[models.SourceRef]*models.SourceDocument

func (f fakeSources) FindSource(_ context.Context, ref models.SourceRef) (*models.SourceDocument, error) {
	doc, ok := f[ref]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrSourceNotFound, ref)
	}
	cp := *doc
	return &cp, nil
}

type fakeFiles map[string][]byte

func (f fakeFiles) Exists(_ context.Context, path string) (bool, error) {
	_, ok := f[path]
	return ok, nil
}

func (f fakeFiles) Read(_ context.Context, path string) ([]byte, error) {
	data, ok := f[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrFileMissing, path)
	}
	return data, nil
}

// fakeExtractor echoes the bytes back, failing on the literal "garbage".
type fakeExtractor struct{}

func (fakeExtractor) Extract(_ context.Context, data []byte, _ string) (string, error) {
	if string(data) == "garbage" {
		return "", fmt.Errorf("%w: unreadable", core.ErrExtraction)
	}
	return string(data), nil
}

type fakeGenerator struct {
	mu        sync.Mutex
	answer    string
	err       error
	chunks    []core.Chunk
	streamErr error
	block     bool // stream waits for ctx before failing

	prompts  []string
	contexts []string
}

func (g *fakeGenerator) Complete(_ context.Context, prompt, docContext string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	g.contexts = append(g.contexts, docContext)
	if g.err != nil {
		return "", g.err
	}
	return g.answer, nil
}

func (g *fakeGenerator) Stream(ctx context.Context, docContext string) (<-chan core.Chunk, error) {
	g.mu.Lock()
	g.contexts = append(g.contexts, docContext)
	chunks, streamErr, block := g.chunks, g.streamErr, g.block
	g.mu.Unlock()

	if streamErr != nil {
		return nil, streamErr
	}
	out := make(chan core.Chunk)
	go func() {
		defer close(out)
		if block {
			<-ctx.Done()
			out <- core.Chunk{Err: core.GenerationFailure("stream", ctx.Err())}
			return
		}
		for _, c := range chunks {
			out <- c
		}
	}()
	return out, nil
}

func (g *fakeGenerator) lastContext() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.contexts) == 0 {
		return ""
	}
	return g.contexts[len(g.contexts)-1]
}

type fakeReports struct {
	mu   sync.Mutex
	rows map[string]models.Report
}

func newFakeReports() *fakeReports {
	return &fakeReports{rows: map[string]models.Report{}}
}

func (f *fakeReports) CreateReport(_ context.Context, r *models.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[r.ID]; ok {
		return errors.New("duplicate id")
	}
	f.rows[r.ID] = *r
	return nil
}

func (f *fakeReports) GetReport(_ context.Context, id string) (*models.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrReportNotFound, id)
	}
	return &r, nil
}

func (f *fakeReports) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type fakeRenderer struct{ err error }

func (f fakeRenderer) Render(title, content string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-" + title), nil
}

type fakeSink struct {
	saved map[string][]byte
	err   error
}

func (f *fakeSink) Save(_ context.Context, name string, data []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.saved == nil {
		f.saved = map[string][]byte{}
	}
	f.saved[name] = data
	return "uploads/reports/" + name, nil
}
