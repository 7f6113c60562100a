package oracle

import (
	"context"

	"github.com/mediconnect/backend/internal/utils"
)

// Mock stands in when no oracle endpoint is configured. It always returns
// unstructured text, so every caller exercises its deterministic degradation
// path. Phrasing varies by prompt hash to keep logs distinguishable.
type Mock struct{}

var mockReplies = []string{
	"Reasoning oracle unavailable; deterministic rules applied.",
	"No model configured; rule-based assessment in effect.",
	"Oracle disabled for this deployment; local cascade decides.",
}

func (Mock) Generate(_ context.Context, prompt string) (Result, error) {
	h := utils.HashStringToUint64(prompt)
	return Result{Text: mockReplies[int(h)%len(mockReplies)]}, nil
}
