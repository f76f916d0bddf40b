package extract

import "context"

// Client abstracts the external text-extraction service. It takes a fully
// built prompt and returns the raw model output; the caller owns parsing.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
