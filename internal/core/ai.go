package core

import "context"

// Chunk is one item of a streaming generation call. A stream yields text
// chunks in arrival order followed by exactly one terminal chunk (Done or Err),
// after which the channel is closed.
type Chunk struct {
	Text string
	Done bool
	Err  error
}

// Generator is the external text-generation backend.
type Generator interface {
	// Complete blocks until the backend returns the full generated text.
	Complete(ctx context.Context, prompt, docContext string) (string, error)

	// Stream opens a long-lived generation call over docContext.
	Stream(ctx context.Context, docContext string) (<-chan Chunk, error)
}
