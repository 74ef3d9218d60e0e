package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/markdave123-py/Paperlens/internal/core"
)

var _ core.Generator = (*AutoAgentClient)(nil)

// AutoAgentClient talks to the agent service over plain HTTP:
// POST /generate {prompt, context} -> {report} and
// POST /stream_generate {context} -> chunked text until the connection closes.
type AutoAgentClient struct {
	baseURL       string
	http          *http.Client
	timeout       time.Duration
	streamTimeout time.Duration
}

func NewAutoAgentClient(baseURL string, timeout, streamTimeout time.Duration) *AutoAgentClient {
	return &AutoAgentClient{
		baseURL:       strings.TrimRight(baseURL, "/"),
		http:          &http.Client{},
		timeout:       timeout,
		streamTimeout: streamTimeout,
	}
}

type generateRequest struct {
	Prompt  string `json:"prompt"`
	Context string `json:"context"`
}

type generateResponse struct {
	Report *string `json:"report"`
}

type streamRequest struct {
	Context string `json:"context"`
}

func (c *AutoAgentClient) Complete(ctx context.Context, prompt, docContext string) (string, error) {
	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.post(ctx, "/generate", generateRequest{Prompt: prompt, Context: docContext})
	if err != nil {
		return "", core.GenerationFailure("generate", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return "", fmt.Errorf("%w: generate: %v", core.ErrGeneration, err)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if ctx.Err() != nil {
			return "", core.GenerationFailure("generate", ctx.Err())
		}
		return "", fmt.Errorf("%w: generate: malformed response: %v", core.ErrGeneration, err)
	}
	if out.Report == nil {
		return "", fmt.Errorf("%w: generate: response has no report field", core.ErrGeneration)
	}
	return *out.Report, nil
}

// Stream relays the response body as it arrives. Reads are re-cut on rune
// boundaries so no chunk carries half a UTF-8 sequence.
// Callers must drain the returned channel until it is closed.
func (c *AutoAgentClient) Stream(ctx context.Context, docContext string) (<-chan core.Chunk, error) {
	ctx, cancel := withTimeout(ctx, c.streamTimeout)

	resp, err := c.post(ctx, "/stream_generate", streamRequest{Context: docContext})
	if err != nil {
		cancel()
		return nil, core.GenerationFailure("stream_generate", err)
	}
	if err := checkStatus(resp); err != nil {
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("%w: stream_generate: %v", core.ErrGeneration, err)
	}

	out := make(chan core.Chunk, 16)
	go func() {
		defer cancel()
		defer resp.Body.Close()
		defer close(out)

		buf := make([]byte, 4096)
		var carry []byte
		for {
			n, err := resp.Body.Read(buf)
			if n > 0 {
				data := append(carry, buf[:n]...)
				cut := completeUTF8(data)
				carry = append([]byte(nil), data[cut:]...)
				if cut > 0 {
					select {
					case out <- core.Chunk{Text: string(data[:cut])}:
					case <-ctx.Done():
						out <- core.Chunk{Err: core.GenerationFailure("stream_generate", ctx.Err())}
						return
					}
				}
			}
			if err == io.EOF {
				if len(carry) > 0 {
					out <- core.Chunk{Text: string(carry)}
				}
				out <- core.Chunk{Done: true}
				return
			}
			if err != nil {
				if ctx.Err() != nil {
					err = ctx.Err()
				}
				out <- core.Chunk{Err: core.GenerationFailure("stream_generate", err)}
				return
			}
		}
	}()

	return out, nil
}

func (c *AutoAgentClient) post(ctx context.Context, path string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.http.Do(req)
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
}

// completeUTF8 returns the length of the longest prefix of b that does not end
// inside a multi-byte rune.
func completeUTF8(b []byte) int {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if utf8.RuneStart(b[i]) {
			if utf8.FullRune(b[i:]) {
				return len(b)
			}
			return i
		}
	}
	return len(b)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
