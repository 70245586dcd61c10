// Package gemini provides Gemini-backed implementations of the
// diagdex describer and embedder collaborators.
package gemini

import (
	"context"
	"errors"
	"net/http"

	"github.com/diagdex/diagdex"
	"google.golang.org/genai"
)

// classify converts a genai call error into an application error.
// Rate limits, server errors and timeouts are transient; auth and
// malformed-request failures are permanent.
func classify(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		// The parent context was canceled; do not mask it as a
		// retryable failure.
		return ctx.Err()
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500:
			return diagdex.Errorf(diagdex.ETRANSIENT, "gemini: %s", apiErr.Message)
		default:
			return diagdex.Errorf(diagdex.EPERMANENT, "gemini: %s", apiErr.Message)
		}
	}

	// Transport-level failures (connection reset, per-call timeout).
	return diagdex.Errorf(diagdex.ETRANSIENT, "gemini: %v", err)
}
