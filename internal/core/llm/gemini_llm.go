package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/markdave123-py/Paperlens/internal/core"
)

var _ core.Generator = (*GeminiLLM)(nil)

type GeminiLLM struct {
	client        *genai.Client
	modelName     string
	timeout       time.Duration
	streamTimeout time.Duration
}

func NewGeminiLLM(ctx context.Context, apiKey, modelName string, timeout, streamTimeout time.Duration) (*GeminiLLM, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}
	return &GeminiLLM{client: cl, modelName: modelName, timeout: timeout, streamTimeout: streamTimeout}, nil
}

func (g *GeminiLLM) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// Complete sends the question followed by the document text, the same
// framing the agent service uses.
func (g *GeminiLLM) Complete(ctx context.Context, prompt, docContext string) (string, error) {
	ctx, cancel := withTimeout(ctx, g.timeout)
	defer cancel()

	m := g.client.GenerativeModel(g.modelName)
	resp, err := m.GenerateContent(ctx, genai.Text(prompt+"\n\n"+docContext))
	if err != nil {
		return "", core.GenerationFailure("gemini generate", err)
	}

	return completionText(resp)
}

// completionText requires a text candidate; an empty string is still a valid answer.
func completionText(resp *genai.GenerateContentResponse) (string, error) {
	text, ok := responseText(resp)
	if !ok {
		return "", fmt.Errorf("%w: gemini generate: response has no text candidate", core.ErrGeneration)
	}
	return text, nil
}

// Callers must drain the returned channel until it is closed.
func (g *GeminiLLM) Stream(ctx context.Context, docContext string) (<-chan core.Chunk, error) {
	ctx, cancel := withTimeout(ctx, g.streamTimeout)

	m := g.client.GenerativeModel(g.modelName)
	iter := m.GenerateContentStream(ctx, genai.Text(docContext))

	out := make(chan core.Chunk, 16)
	go func() {
		defer cancel()
		relayResponses(ctx, iter, out)
	}()

	return out, nil
}

// responseIterator is the part of *genai.GenerateContentResponseIterator the
// stream relay needs.
type responseIterator interface {
	Next() (*genai.GenerateContentResponse, error)
}

// relayResponses forwards text from iter until it is exhausted, then sends one
// terminal chunk and closes out.
func relayResponses(ctx context.Context, iter responseIterator, out chan<- core.Chunk) {
	defer close(out)

	for {
		resp, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			out <- core.Chunk{Done: true}
			return
		}
		if err != nil {
			out <- core.Chunk{Err: core.GenerationFailure("gemini stream", err)}
			return
		}
		text, ok := responseText(resp)
		if !ok || text == "" {
			continue
		}
		select {
		case out <- core.Chunk{Text: text}:
		case <-ctx.Done():
			out <- core.Chunk{Err: core.GenerationFailure("gemini stream", ctx.Err())}
			return
		}
	}
}

func responseText(resp *genai.GenerateContentResponse) (string, bool) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", false
	}

	var b strings.Builder
	found := false
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
			found = true
		}
	}
	return b.String(), found
}
