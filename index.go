package diagdex

import "context"

// Payload is the metadata stored alongside each index point and
// returned with every search hit.
type Payload struct {
	DocumentID         string `json:"documentId"`
	StartOffset        int    `json:"startOffset"`
	EndOffset          int    `json:"endOffset"`
	ContainsDiagram    bool   `json:"containsDiagram"`
	DescriptionMissing bool   `json:"descriptionMissing"`
	Text               string `json:"text"`
}

// IndexPoint is one indexed chunk: dense vector, sparse terms and
// payload, keyed by the chunk's content-addressed id. An upsert with an
// existing id replaces the prior point.
type IndexPoint struct {
	ID      string       `json:"id"`
	Vector  []float32    `json:"vector"`
	Sparse  SparseVector `json:"sparse"`
	Payload Payload      `json:"payload"`
}

// Validate returns an error if the point cannot be written safely.
// Dimension is checked by the store against its configured D; this
// validates everything dimension-independent.
func (p *IndexPoint) Validate() error {
	if p.ID == "" {
		return Errorf(EINVALID, "index point ID required")
	}
	if len(p.Vector) == 0 {
		return Errorf(EINVALID, "index point dense vector required")
	}
	if p.Payload.DocumentID == "" {
		return Errorf(EINVALID, "index point document ID required")
	}
	return nil
}

// ScoredPoint is one hit from a single-mode search, score normalized
// to [0,1] by the store.
type ScoredPoint struct {
	ID      string  `json:"id"`
	Score   float64 `json:"score"`
	Payload Payload `json:"payload"`
}

// QueryResult is one fused search result.
type QueryResult struct {
	ChunkID string  `json:"chunkId"`
	Score   float64 `json:"score"`
	Payload Payload `json:"payload"`
}

// VectorStore is the hybrid index collaborator. Dimension D is fixed
// at store creation; a mismatched vector dimension is EPERMANENT, never
// silently truncated or padded.
type VectorStore interface {
	// Upsert writes points, replacing any existing point with the
	// same id.
	Upsert(ctx context.Context, points []IndexPoint) error

	// Delete removes the points with the given chunk ids. Missing ids
	// are not an error.
	Delete(ctx context.Context, ids []string) error

	// ListIDs returns the chunk ids currently indexed for a document.
	ListIDs(ctx context.Context, documentID string) ([]string, error)

	// SearchDense returns the top-k nearest neighbors of vector.
	SearchDense(ctx context.Context, vector []float32, k int) ([]ScoredPoint, error)

	// SearchSparse returns the top-k lexical matches for the sparse
	// query.
	SearchSparse(ctx context.Context, query SparseVector, k int) ([]ScoredPoint, error)
}

// Embedder is the dense embedding collaborator. Embed returns one
// vector of dimension Dimension() per input, in input order, or fails
// for the whole batch: it never returns a partially filled batch.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}
