package gemini

import (
	"context"

	"github.com/diagdex/diagdex"
	"google.golang.org/genai"
)

// DefaultEmbedModel and its native output dimension.
const (
	DefaultEmbedModel = "gemini-embedding-001"
	DefaultDimension  = 3072
)

// Embedding API payload limits. Sub-batching below these limits is a
// transport concern only and never alters chunk identity.
const (
	maxBatchTexts = 100
	maxBatchBytes = 200_000
)

// Ensure Embedder implements diagdex.Embedder at compile time.
var _ diagdex.Embedder = (*Embedder)(nil)

// Embedder produces dense vectors with Gemini embeddings.
type Embedder struct {
	client    *genai.Client
	model     string
	dimension int
}

// NewEmbedder creates a new Embedder. Empty model or non-positive
// dimension select the defaults.
func NewEmbedder(client *genai.Client, model string, dimension int) *Embedder {
	if model == "" {
		model = DefaultEmbedModel
	}
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &Embedder{client: client, model: model, dimension: dimension}
}

// Dimension returns the configured output dimension D.
func (e *Embedder) Dimension() int {
	return e.dimension
}

// Embed returns one vector per input text, in input order. The batch is
// all-or-nothing: any sub-call failure fails the whole batch and no
// partial result is returned. A response vector of the wrong dimension
// is a permanent error, never truncated or padded.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, 0, len(texts))
	for _, sub := range SplitBatch(texts, maxBatchTexts, maxBatchBytes) {
		vs, err := e.embedOne(ctx, sub)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, vs...)
	}
	if len(vectors) != len(texts) {
		return nil, diagdex.Errorf(diagdex.EPERMANENT,
			"embedding response has %d vectors for %d inputs", len(vectors), len(texts))
	}
	return vectors, nil
}

func (e *Embedder) embedOne(ctx context.Context, texts []string) ([][]float32, error) {
	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = genai.NewContentFromText(t, genai.RoleUser)
	}

	dim := int32(e.dimension)
	result, err := e.client.Models.EmbedContent(ctx, e.model, contents, &genai.EmbedContentConfig{
		OutputDimensionality: &dim,
	})
	if err != nil {
		return nil, classify(ctx, err)
	}
	if result == nil || len(result.Embeddings) != len(texts) {
		return nil, diagdex.Errorf(diagdex.EPERMANENT,
			"embedding response misaligned with request")
	}

	vectors := make([][]float32, len(texts))
	for i, emb := range result.Embeddings {
		if emb == nil || len(emb.Values) != e.dimension {
			return nil, diagdex.Errorf(diagdex.EPERMANENT,
				"embedding %d has dimension %d, expected %d", i, safeLen(emb), e.dimension)
		}
		vectors[i] = emb.Values
	}
	return vectors, nil
}

func safeLen(emb *genai.ContentEmbedding) int {
	if emb == nil {
		return 0
	}
	return len(emb.Values)
}

// SplitBatch groups texts into sub-batches of at most maxTexts entries
// and maxBytes total size, preserving order. A single text larger than
// maxBytes still forms its own batch.
func SplitBatch(texts []string, maxTexts, maxBytes int) [][]string {
	var batches [][]string
	var cur []string
	size := 0
	for _, t := range texts {
		if len(cur) > 0 && (len(cur) >= maxTexts || size+len(t) > maxBytes) {
			batches = append(batches, cur)
			cur, size = nil, 0
		}
		cur = append(cur, t)
		size += len(t)
	}
	if len(cur) > 0 {
		batches = append(batches, cur)
	}
	return batches
}
