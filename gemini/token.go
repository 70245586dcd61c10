package gemini

import (
	"context"

	"github.com/diagdex/diagdex"
	"google.golang.org/genai"
	"google.golang.org/genai/tokenizer"
)

var _ diagdex.TokenCounter = (*TokenCounter)(nil)

// TokenCounter counts chunk tokens with the local Gemini tokenizer. It
// runs once per indexed chunk, so counting stays offline: no API call,
// no rate limit interaction with description requests.
type TokenCounter struct {
	tok *tokenizer.LocalTokenizer
}

// NewTokenCounter creates a TokenCounter for the given model. The model
// name selects the tokenizer vocabulary and must match the embedding
// model family for the counts to mean anything.
func NewTokenCounter(model string) (*TokenCounter, error) {
	tok, err := tokenizer.NewLocalTokenizer(model)
	if err != nil {
		return nil, err
	}
	return &TokenCounter{tok: tok}, nil
}

// CountTokens returns the token count of text. Counting failures are
// reported as EINTERNAL; the ingestor treats token totals as
// informational and tolerates them.
func (tc *TokenCounter) CountTokens(ctx context.Context, text string) (int, error) {
	if text == "" {
		return 0, nil
	}

	contents := []*genai.Content{
		genai.NewContentFromText(text, "user"),
	}

	result, err := tc.tok.CountTokens(contents, nil)
	if err != nil {
		return 0, diagdex.Errorf(diagdex.EINTERNAL, "count tokens: %v", err)
	}

	return int(result.TotalTokens), nil
}
