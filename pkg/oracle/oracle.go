// Package oracle wraps the LLM used to estimate match outcomes. The engine
// only needs a single completion call; everything about response shape is
// handled downstream by the lenient result parser.
package oracle

import "context"

// Client is a text-completion backend.
type Client interface {
	// Complete sends one prompt and returns the model's raw text. The text
	// is expected to contain a JSON payload but callers must tolerate
	// anything.
	Complete(ctx context.Context, prompt string) (string, error)
}
