package diagdex

import (
	"fmt"
	"strings"
)

// DefaultChunkTarget is the soft cap on chunk size in bytes. Plain-text
// spans split at the nearest sentence or paragraph boundary once the
// accumulated length exceeds it; chunks are never hard-truncated
// mid-word.
const DefaultChunkTarget = 1200

// Chunk is a section of a document optimized for embedding and
// retrieval. Diagram regions are substituted with their descriptions
// but remain traceable to the original offsets.
type Chunk struct {
	// ID is a pure function of content: identical content across runs
	// yields an identical id, so re-ingestion is idempotent.
	ID         string `json:"id"`
	DocumentID string `json:"documentId"`

	// StartOffset and EndOffset locate the chunk in the raw document.
	StartOffset int `json:"startOffset"`
	EndOffset   int `json:"endOffset"`

	// Text is the indexed text, with diagram regions replaced by
	// "[DIAGRAM: <description>]" (or kept verbatim when the
	// description is missing).
	Text string `json:"text"`

	ContainsDiagram bool `json:"containsDiagram"`

	// DescriptionMissing is set when a contained diagram fell back to
	// raw text after description retries were exhausted. Observable in
	// the index payload for later backfill.
	DescriptionMissing bool `json:"descriptionMissing"`

	// SourceDescriptions lists the region hashes whose descriptions
	// were substituted into Text.
	SourceDescriptions []string `json:"sourceDescriptions,omitempty"`
}

// Validate returns an error if the chunk contains invalid fields.
func (c *Chunk) Validate() error {
	if c.DocumentID == "" {
		return Errorf(EINVALID, "chunk document ID required")
	}
	if c.Text == "" {
		return Errorf(EINVALID, "chunk text required")
	}
	if c.EndOffset < c.StartOffset {
		return Errorf(EINVALID, "chunk offset span inverted")
	}
	return nil
}

// ChunkID computes the content-addressed chunk id from the document id,
// the offset span and the normalized chunk text.
func ChunkID(documentID string, start, end int, text string) string {
	key := fmt.Sprintf("%s\x00%d\x00%d\x00%s", documentID, start, end, NormalizeText(text))
	return HashString(key)
}

// NormalizeText canonicalizes text for hashing: trimmed, with CRLF
// folded to LF. Whitespace inside the text is significant (diagrams).
func NormalizeText(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\r\n", "\n"))
}

// Chunker splits a document into ordered, bounded-size chunks,
// substituting diagram regions with their descriptions. The total
// coverage of the emitted chunks equals the full document: no text is
// silently dropped.
type Chunker struct {
	// TargetSize is the soft cap on chunk text length in bytes.
	TargetSize int
}

// NewChunker returns a Chunker with the default target size.
func NewChunker() *Chunker {
	return &Chunker{TargetSize: DefaultChunkTarget}
}

// segment is an intermediate piece of the document: either a plain-text
// span or a diagram region with its substituted text.
type segment struct {
	start, end int
	text       string
	diagram    bool
	missing    bool
	regionHash string
}

// Chunk walks the document left to right and emits ordered chunks.
// Diagram regions are never split: each region is replaced inline by
// its description (or kept verbatim when missing) and either absorbed
// whole into the enclosing chunk or emitted as its own chunk.
// Descriptions are looked up by region hash; a region without an entry
// is treated as description-missing.
func (c *Chunker) Chunk(doc *Document, regions []DiagramRegion, descriptions map[string]*Description) ([]Chunk, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	target := c.TargetSize
	if target <= 0 {
		target = DefaultChunkTarget
	}

	segs := c.segments(doc, regions, descriptions)

	var chunks []Chunk
	var cur *Chunk
	var curText strings.Builder

	flush := func() {
		if cur == nil {
			return
		}
		text := curText.String()
		cur.Text = text
		cur.ID = ChunkID(doc.SourceID, cur.StartOffset, cur.EndOffset, text)
		chunks = append(chunks, *cur)
		cur = nil
		curText.Reset()
	}

	for _, seg := range segs {
		if seg.diagram {
			// Absorb the whole region into the open chunk when it
			// fits; otherwise the region becomes its own chunk.
			if cur != nil && curText.Len()+len(seg.text) > target {
				flush()
			}
			if cur == nil {
				cur = &Chunk{DocumentID: doc.SourceID, StartOffset: seg.start, EndOffset: seg.end}
			}
			cur.EndOffset = seg.end
			cur.ContainsDiagram = true
			if seg.missing {
				cur.DescriptionMissing = true
			} else {
				cur.SourceDescriptions = append(cur.SourceDescriptions, seg.regionHash)
			}
			curText.WriteString(seg.text)
			continue
		}

		// Plain text: split at sentence/paragraph boundaries once the
		// accumulated length exceeds the target.
		rest := seg.text
		offset := seg.start
		for rest != "" {
			if cur == nil {
				cur = &Chunk{DocumentID: doc.SourceID, StartOffset: offset, EndOffset: offset}
			}
			room := target - curText.Len()
			if len(rest) <= room {
				curText.WriteString(rest)
				cur.EndOffset = offset + len(rest)
				break
			}
			cut := splitPoint(rest, room)
			if cut == 0 {
				// Nothing accumulated fits; force a boundary after the
				// current content rather than truncating mid-word.
				if curText.Len() > 0 {
					flush()
					continue
				}
				cut = len(rest)
			}
			curText.WriteString(rest[:cut])
			cur.EndOffset = offset + cut
			offset += cut
			rest = rest[cut:]
			flush()
		}
	}
	flush()

	for i := range chunks {
		if err := chunks[i].Validate(); err != nil {
			return nil, err
		}
	}
	return chunks, nil
}

// segments interleaves plain-text spans with substituted diagram
// regions, covering the whole document.
func (c *Chunker) segments(doc *Document, regions []DiagramRegion, descriptions map[string]*Description) []segment {
	var segs []segment
	pos := 0
	for _, r := range regions {
		if r.StartOffset > pos {
			segs = append(segs, segment{
				start: pos,
				end:   r.StartOffset,
				text:  doc.RawText[pos:r.StartOffset],
			})
		}
		hash := r.Hash()
		seg := segment{start: r.StartOffset, end: r.EndOffset, diagram: true, regionHash: hash}
		if desc, ok := descriptions[hash]; ok && desc != nil && desc.Text != "" {
			seg.text = "[DIAGRAM: " + desc.Text + "]"
		} else {
			seg.text = r.RawText
			seg.missing = true
		}
		segs = append(segs, seg)
		pos = r.EndOffset
	}
	if pos < len(doc.RawText) {
		segs = append(segs, segment{start: pos, end: len(doc.RawText), text: doc.RawText[pos:]})
	}
	return segs
}

// splitPoint returns the byte index at which to cut s so the head is at
// most limit bytes, preferring a paragraph break, then a sentence end,
// then any whitespace. Returns 0 when no boundary exists within limit.
func splitPoint(s string, limit int) int {
	if limit <= 0 {
		return 0
	}
	if limit > len(s) {
		limit = len(s)
	}
	window := s[:limit]

	if i := strings.LastIndex(window, "\n\n"); i > 0 {
		return i + 2
	}
	best := 0
	for i := 0; i < len(window)-1; i++ {
		switch window[i] {
		case '.', '!', '?':
			if window[i+1] == ' ' || window[i+1] == '\n' {
				best = i + 2
			}
		case '\n':
			best = i + 1
		}
	}
	if best > 0 {
		return best
	}
	if i := strings.LastIndexByte(window, ' '); i > 0 {
		return i + 1
	}
	return 0
}
