package ai

import "context"

// Completer sends a prompt to a language model and returns the raw text
// response. The model is treated as unreliable: callers must expect errors,
// rate limits, and unparsable output.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Model() string
}
