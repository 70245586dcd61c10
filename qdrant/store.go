// Package qdrant provides a Qdrant-backed implementation of
// diagdex.VectorStore over the Qdrant REST API. Each point carries a
// named dense vector and a named sparse vector, so one collection
// serves both search modes.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/diagdex/diagdex"
	"github.com/google/uuid"
)

// Named vectors within the collection.
const (
	denseVectorName  = "dense"
	sparseVectorName = "lexical"
)

// DefaultTimeout is the per-call timeout for Qdrant requests.
const DefaultTimeout = 15 * time.Second

// scrollPageSize bounds one page of a reconcile listing.
const scrollPageSize = 512

// Ensure Store implements diagdex.VectorStore at compile time.
var _ diagdex.VectorStore = (*Store)(nil)

// Store is a REST client for one Qdrant collection.
type Store struct {
	url        string
	apiKey     string
	collection string
	dimension  int
	client     *http.Client
}

// Config holds connection details for a Qdrant collection.
type Config struct {
	// URL is the cluster base URL, without trailing slash.
	URL string

	// APIKey is sent as the api-key header when non-empty.
	APIKey string

	// Collection is the collection name.
	Collection string

	// Dimension is the dense vector dimension D, fixed at collection
	// creation time.
	Dimension int

	// Timeout is the per-call timeout. Defaults to DefaultTimeout.
	Timeout time.Duration
}

// NewStore creates a Store for the configured collection.
func NewStore(cfg Config) *Store {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Store{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		dimension:  cfg.Dimension,
		client:     &http.Client{Timeout: timeout},
	}
}

// Init creates the collection if it does not exist. An existing
// collection with a different dense dimension is a fatal configuration
// error, not a per-call error.
func (s *Store) Init(ctx context.Context) error {
	if s.dimension <= 0 {
		return diagdex.Errorf(diagdex.EPERMANENT, "invalid dense dimension %d", s.dimension)
	}

	var info struct {
		Result struct {
			Config struct {
				Params struct {
					Vectors map[string]struct {
						Size int `json:"size"`
					} `json:"vectors"`
				} `json:"params"`
			} `json:"config"`
		} `json:"result"`
	}
	err := s.do(ctx, http.MethodGet, fmt.Sprintf("/collections/%s", s.collection), nil, &info)
	switch diagdex.ErrorCode(err) {
	case "":
		if got := info.Result.Config.Params.Vectors[denseVectorName].Size; got != s.dimension {
			return diagdex.Errorf(diagdex.EPERMANENT,
				"collection %q has dense dimension %d, configured %d", s.collection, got, s.dimension)
		}
		return nil
	case diagdex.ENOTFOUND:
		// Create below.
	default:
		return err
	}

	body := map[string]any{
		"vectors": map[string]any{
			denseVectorName: map[string]any{
				"size":     s.dimension,
				"distance": "Cosine",
			},
		},
		"sparse_vectors": map[string]any{
			sparseVectorName: map[string]any{},
		},
	}
	return s.do(ctx, http.MethodPut, fmt.Sprintf("/collections/%s", s.collection), body, nil)
}

// Upsert writes points, replacing any existing point with the same id.
// A vector of any length other than the configured dimension fails the
// whole batch before anything is sent.
func (s *Store) Upsert(ctx context.Context, points []diagdex.IndexPoint) error {
	if len(points) == 0 {
		return nil
	}
	payload := make([]map[string]any, len(points))
	for i, p := range points {
		if err := p.Validate(); err != nil {
			return err
		}
		if len(p.Vector) != s.dimension {
			return diagdex.Errorf(diagdex.EPERMANENT,
				"point %s has dense dimension %d, collection requires %d", p.ID, len(p.Vector), s.dimension)
		}
		payload[i] = map[string]any{
			"id": pointID(p.ID),
			"vector": map[string]any{
				denseVectorName: p.Vector,
				sparseVectorName: map[string]any{
					"indices": emptyIfNil(p.Sparse.Indices),
					"values":  emptyIfNilF(p.Sparse.Values),
				},
			},
			"payload": map[string]any{
				"chunk_id":            p.ID,
				"document_id":         p.Payload.DocumentID,
				"start_offset":        p.Payload.StartOffset,
				"end_offset":          p.Payload.EndOffset,
				"contains_diagram":    p.Payload.ContainsDiagram,
				"description_missing": p.Payload.DescriptionMissing,
				"text":                p.Payload.Text,
			},
		}
	}
	body := map[string]any{"points": payload}
	return s.do(ctx, http.MethodPut, fmt.Sprintf("/collections/%s/points?wait=true", s.collection), body, nil)
}

// Delete removes the points with the given chunk ids.
func (s *Store) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	pids := make([]string, len(ids))
	for i, id := range ids {
		pids[i] = pointID(id)
	}
	body := map[string]any{"points": pids}
	return s.do(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/delete?wait=true", s.collection), body, nil)
}

// ListIDs returns the chunk ids currently indexed for a document,
// scrolling the collection filtered by document id.
func (s *Store) ListIDs(ctx context.Context, documentID string) ([]string, error) {
	var ids []string
	var offset any
	for {
		body := map[string]any{
			"filter": map[string]any{
				"must": []map[string]any{
					{"key": "document_id", "match": map[string]any{"value": documentID}},
				},
			},
			"limit":        scrollPageSize,
			"with_payload": []string{"chunk_id"},
		}
		if offset != nil {
			body["offset"] = offset
		}
		var resp struct {
			Result struct {
				Points []struct {
					Payload struct {
						ChunkID string `json:"chunk_id"`
					} `json:"payload"`
				} `json:"points"`
				NextPageOffset any `json:"next_page_offset"`
			} `json:"result"`
		}
		if err := s.do(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/scroll", s.collection), body, &resp); err != nil {
			return nil, err
		}
		for _, p := range resp.Result.Points {
			if p.Payload.ChunkID != "" {
				ids = append(ids, p.Payload.ChunkID)
			}
		}
		if resp.Result.NextPageOffset == nil {
			return ids, nil
		}
		offset = resp.Result.NextPageOffset
	}
}

// SearchDense returns the top-k nearest neighbors of vector. Cosine
// similarity is mapped from [-1,1] to [0,1].
func (s *Store) SearchDense(ctx context.Context, vector []float32, k int) ([]diagdex.ScoredPoint, error) {
	if len(vector) != s.dimension {
		return nil, diagdex.Errorf(diagdex.EPERMANENT,
			"query vector has dimension %d, collection requires %d", len(vector), s.dimension)
	}
	body := map[string]any{
		"vector": map[string]any{
			"name":   denseVectorName,
			"vector": vector,
		},
		"limit":        k,
		"with_payload": true,
	}
	hits, err := s.search(ctx, body)
	if err != nil {
		return nil, err
	}
	for i := range hits {
		hits[i].Score = (hits[i].Score + 1) / 2
	}
	return hits, nil
}

// SearchSparse returns the top-k lexical matches. Dot-product scores
// are normalized by the best score in the response, so the list top
// scores 1.
func (s *Store) SearchSparse(ctx context.Context, query diagdex.SparseVector, k int) ([]diagdex.ScoredPoint, error) {
	if len(query.Indices) == 0 {
		return nil, nil
	}
	body := map[string]any{
		"vector": map[string]any{
			"name": sparseVectorName,
			"vector": map[string]any{
				"indices": query.Indices,
				"values":  query.Values,
			},
		},
		"limit":        k,
		"with_payload": true,
	}
	hits, err := s.search(ctx, body)
	if err != nil {
		return nil, err
	}
	if len(hits) > 0 && hits[0].Score > 0 {
		best := hits[0].Score
		for i := range hits {
			hits[i].Score /= best
		}
	}
	return hits, nil
}

// search issues a /points/search request and decodes the hits.
func (s *Store) search(ctx context.Context, body map[string]any) ([]diagdex.ScoredPoint, error) {
	var resp struct {
		Result []struct {
			Score   float64 `json:"score"`
			Payload struct {
				ChunkID            string `json:"chunk_id"`
				DocumentID         string `json:"document_id"`
				StartOffset        int    `json:"start_offset"`
				EndOffset          int    `json:"end_offset"`
				ContainsDiagram    bool   `json:"contains_diagram"`
				DescriptionMissing bool   `json:"description_missing"`
				Text               string `json:"text"`
			} `json:"payload"`
		} `json:"result"`
	}
	if err := s.do(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/search", s.collection), body, &resp); err != nil {
		return nil, err
	}
	hits := make([]diagdex.ScoredPoint, 0, len(resp.Result))
	for _, r := range resp.Result {
		hits = append(hits, diagdex.ScoredPoint{
			ID:    r.Payload.ChunkID,
			Score: r.Score,
			Payload: diagdex.Payload{
				DocumentID:         r.Payload.DocumentID,
				StartOffset:        r.Payload.StartOffset,
				EndOffset:          r.Payload.EndOffset,
				ContainsDiagram:    r.Payload.ContainsDiagram,
				DescriptionMissing: r.Payload.DescriptionMissing,
				Text:               r.Payload.Text,
			},
		})
	}
	return hits, nil
}

// do issues one request with error classification: transport failures
// and 429/5xx are transient, 404 is not found, other 4xx are permanent.
func (s *Store) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return diagdex.Errorf(diagdex.EINTERNAL, "encode request: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.url+path, reader)
	if err != nil {
		return diagdex.Errorf(diagdex.EINTERNAL, "build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return diagdex.Errorf(diagdex.ETRANSIENT, "qdrant %s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return diagdex.Errorf(diagdex.ENOTFOUND, "qdrant %s %s: %s", method, path, resp.Status)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return diagdex.Errorf(diagdex.ETRANSIENT, "qdrant %s %s: %s", method, path, resp.Status)
	case resp.StatusCode >= 400:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return diagdex.Errorf(diagdex.EPERMANENT, "qdrant %s %s: %s: %s", method, path, resp.Status, msg)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return diagdex.Errorf(diagdex.ETRANSIENT, "decode qdrant response: %v", err)
		}
	}
	return nil
}

// pointID derives the deterministic Qdrant point id for a chunk id.
// Qdrant requires UUID or integer ids; the chunk id itself travels in
// the payload.
func pointID(chunkID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(chunkID)).String()
}

func emptyIfNil(v []uint32) []uint32 {
	if v == nil {
		return []uint32{}
	}
	return v
}

func emptyIfNilF(v []float32) []float32 {
	if v == nil {
		return []float32{}
	}
	return v
}
