package oracle

import (
	"context"
	"encoding/json"
)

// Result is one oracle completion. Structured is set when the oracle returned
// a well-formed JSON object, in which case JSON holds it verbatim; otherwise
// Text carries the raw completion. A transport or timeout failure is reported
// through the error return, never through Result.
type Result struct {
	Structured bool
	JSON       json.RawMessage
	Text       string
}

type Client interface {
	Generate(ctx context.Context, prompt string) (Result, error)
}
