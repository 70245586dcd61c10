package diagdex

import (
	"context"
	"encoding/binary"
	"encoding/hex"

	"github.com/cespare/xxhash/v2"
)

// DiagramRegion is a maximal contiguous span of a document flagged as
// an ASCII diagram. Regions never overlap within one document and are
// yielded in increasing offset order.
type DiagramRegion struct {
	DocumentID  string `json:"documentId"`
	StartOffset int    `json:"startOffset"`
	EndOffset   int    `json:"endOffset"`
	RawText     string `json:"rawText"`
}

// Hash returns the content hash of the region text. Descriptions are
// cached by this hash, so identical diagram text shares one description
// across documents and ingestion runs.
func (r *DiagramRegion) Hash() string {
	return HashString(r.RawText)
}

// HashString computes the xxHash of s and returns it as a hex string.
func HashString(s string) string {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, xxhash.Sum64String(s))
	return hex.EncodeToString(b)
}

// Description is a short semantic description of a diagram region,
// produced by the vision capability and cached by region hash.
type Description struct {
	RegionHash   string `json:"regionHash"`
	Text         string `json:"text"`
	ModelVersion string `json:"modelVersion"`
}

// Validate returns an error if the description contains invalid fields.
func (d *Description) Validate() error {
	if d.RegionHash == "" {
		return Errorf(EINVALID, "description region hash required")
	}
	if d.Text == "" {
		return Errorf(EINVALID, "description text required")
	}
	return nil
}

// Describer turns a diagram region into a semantic description.
type Describer interface {
	// Describe returns a description of the region's diagram.
	// Returns ETRANSIENT for failures worth retrying (timeout,
	// rate limit) and EPERMANENT for failures that are not (auth,
	// malformed region, schema-violating response).
	Describe(ctx context.Context, region *DiagramRegion) (*Description, error)
}

// DescriptionCache stores descriptions keyed by region hash. It is
// shared read/write across ingestion workers; implementations must
// support concurrent lookups and fills.
type DescriptionCache interface {
	// Get returns the cached description for the region hash.
	// Returns ENOTFOUND on a cache miss.
	Get(ctx context.Context, regionHash string) (*Description, error)

	// Put stores a description, replacing any prior entry for the
	// same region hash.
	Put(ctx context.Context, desc *Description) error
}

// RegionOutcome records how a region's description was resolved.
type RegionOutcome int

// Region description outcomes. FellBackToRaw means retries were
// exhausted on transient failures and the raw diagram text was kept
// verbatim; Failed is reachable only for permanent errors.
const (
	RegionPending RegionOutcome = iota
	RegionCached
	RegionDescribed
	RegionFellBackToRaw
	RegionFailed
)

// String returns the outcome name for logs and status summaries.
func (o RegionOutcome) String() string {
	switch o {
	case RegionPending:
		return "pending"
	case RegionCached:
		return "cached"
	case RegionDescribed:
		return "described"
	case RegionFellBackToRaw:
		return "fell_back_to_raw"
	case RegionFailed:
		return "failed"
	default:
		return "unknown"
	}
}
