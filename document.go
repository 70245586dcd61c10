package diagdex

import (
	"context"
	"time"
)

// Document represents one fetched documentation page. It is owned by
// the ingestion run and immutable once fetched.
type Document struct {
	// SourceID identifies the document at its source (URL or file path).
	SourceID string `json:"sourceId"`

	// RawText is the full plain-text content, diagrams included.
	RawText string `json:"rawText"`

	FetchedAt time.Time `json:"fetchedAt"`
}

// Validate returns an error if the document contains invalid fields.
// An empty document is an integrity error: there is nothing to index
// and a content-addressed id cannot distinguish it from any other
// empty document.
func (d *Document) Validate() error {
	if d.SourceID == "" {
		return Errorf(EINVALID, "document source ID required")
	}
	if d.RawText == "" {
		return Errorf(EINTEGRITY, "document %q is empty", d.SourceID)
	}
	return nil
}

// Source supplies documents to the ingestion pipeline. A fetch failure
// for one document is skip-and-log, never pipeline-fatal.
type Source interface {
	// Fetch retrieves the document identified by sourceID.
	// Returns ENOTFOUND if the source has no such document.
	Fetch(ctx context.Context, sourceID string) (*Document, error)
}

// Fetcher retrieves raw content from a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
	Close() error
}

// Converter transforms fetched HTML into plain text suitable for
// diagram detection and chunking.
type Converter interface {
	Convert(html string) (string, error)
}

// TokenCounter counts tokens in text for a specific model.
type TokenCounter interface {
	CountTokens(ctx context.Context, text string) (int, error)
}
