package diagdex

import (
	"strings"
	"unicode/utf8"
)

// Detector default thresholds. These are policy constants with no
// canonical value; they are fields on Detector so callers and tests can
// tune them.
const (
	DefaultMinRegionLines = 3
	DefaultLookAhead      = 2
	DefaultMinDensity     = 0.25
)

// Detector scans raw document text and flags contiguous regions likely
// to be ASCII diagrams.
type Detector struct {
	// MinRegionLines is the minimum number of candidate lines for a
	// region to count as a diagram. Shorter runs are demoted to plain
	// text to avoid misclassifying short tables and code fences.
	MinRegionLines int

	// LookAhead is how many non-candidate lines may interrupt a region
	// before it is closed. Tolerates blank separator lines inside a
	// diagram.
	LookAhead int

	// MinDensity is the minimum ratio of structural characters to
	// non-space characters for a line to be a candidate on its own.
	MinDensity float64
}

// NewDetector returns a Detector with default thresholds.
func NewDetector() *Detector {
	return &Detector{
		MinRegionLines: DefaultMinRegionLines,
		LookAhead:      DefaultLookAhead,
		MinDensity:     DefaultMinDensity,
	}
}

// line is a single line of the document with its byte offsets.
// end excludes the trailing newline.
type line struct {
	start, end int
	text       string
}

// Detect returns the diagram regions of text in increasing offset
// order. Regions never overlap. A document with no candidates yields
// nil, not an error.
func (d *Detector) Detect(documentID, text string) []DiagramRegion {
	lines := splitLines(text)
	if len(lines) == 0 {
		return nil
	}

	minLines := d.MinRegionLines
	if minLines <= 0 {
		minLines = DefaultMinRegionLines
	}
	lookAhead := d.LookAhead
	if lookAhead < 0 {
		lookAhead = DefaultLookAhead
	}
	minDensity := d.MinDensity
	if minDensity <= 0 {
		minDensity = DefaultMinDensity
	}

	candidate := make([]bool, len(lines))
	for i, ln := range lines {
		candidate[i] = d.isCandidate(ln.text, minDensity)
	}
	markIndentRuns(lines, candidate)

	var regions []DiagramRegion
	i := 0
	for i < len(lines) {
		if !candidate[i] {
			i++
			continue
		}

		// Extend the region, skipping up to lookAhead non-candidate
		// lines as long as candidate lines resume after them.
		first, last := i, i
		j := i + 1
		for j < len(lines) {
			if candidate[j] {
				last = j
				j++
				continue
			}
			resumed := false
			for w := 1; w <= lookAhead && j+w < len(lines); w++ {
				if candidate[j+w] {
					resumed = true
					break
				}
			}
			if !resumed {
				break
			}
			j++
		}
		i = j

		count := 0
		for k := first; k <= last; k++ {
			if candidate[k] {
				count++
			}
		}
		if count < minLines {
			continue
		}

		start := lines[first].start
		end := lines[last].end
		regions = append(regions, DiagramRegion{
			DocumentID:  documentID,
			StartOffset: start,
			EndOffset:   end,
			RawText:     text[start:end],
		})
	}

	return regions
}

// isCandidate reports whether a line looks structural: bracketed by
// box-drawing/ASCII-art characters on both ends, a high density of
// such characters relative to its non-space content, or an internal
// run of whitespace that suggests fixed-width columns.
func (d *Detector) isCandidate(text string, minDensity float64) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}

	// A line bordered by structural runes on both ends is an interior
	// row of a box, however text-heavy its content.
	first, _ := utf8.DecodeRuneInString(trimmed)
	last, _ := utf8.DecodeLastRuneInString(trimmed)
	if isStructuralRune(first) && isStructuralRune(last) {
		return true
	}

	var structural, total int
	for _, r := range trimmed {
		if r == ' ' || r == '\t' {
			continue
		}
		total++
		if isStructuralRune(r) {
			structural++
		}
	}
	if total == 0 {
		return false
	}
	if float64(structural)/float64(total) >= minDensity {
		return true
	}

	// Repeated interior whitespace runs indicate column alignment.
	return strings.Contains(trimmed, "   ")
}

// isStructuralRune reports whether r is a box-drawing or ASCII-art
// character.
func isStructuralRune(r rune) bool {
	switch r {
	case '|', '+', '-', '/', '\\', '=', '_', '<', '>':
		return true
	}
	// Unicode box-drawing and block-element ranges.
	return (r >= 0x2500 && r <= 0x257F) || (r >= 0x2580 && r <= 0x259F)
}

// markIndentRuns promotes runs of >=3 consecutive lines that share a
// fixed-width indentation of at least two columns. Indented code-like
// figures often carry few box characters but align on a margin.
func markIndentRuns(lines []line, candidate []bool) {
	runStart := -1
	runIndent := -1
	flush := func(end int) {
		if runStart >= 0 && end-runStart >= 3 {
			for k := runStart; k < end; k++ {
				candidate[k] = true
			}
		}
		runStart, runIndent = -1, -1
	}
	for i, ln := range lines {
		ind := indentWidth(ln.text)
		if ind < 2 || strings.TrimSpace(ln.text) == "" {
			flush(i)
			continue
		}
		if runStart < 0 || ind != runIndent {
			flush(i)
			runStart, runIndent = i, ind
		}
	}
	flush(len(lines))
}

// indentWidth returns the leading whitespace width, tabs counted as 4.
func indentWidth(s string) int {
	w := 0
	for _, r := range s {
		switch r {
		case ' ':
			w++
		case '\t':
			w += 4
		default:
			return w
		}
	}
	return 0 // line is all whitespace
}

// splitLines splits text into lines with byte offsets. Line ends
// exclude the newline itself.
func splitLines(text string) []line {
	if text == "" {
		return nil
	}
	var lines []line
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			lines = append(lines, line{start: start, end: i, text: text[start:i]})
			start = i + 1
		}
	}
	if start < len(text) {
		lines = append(lines, line{start: start, end: len(text), text: text[start:]})
	}
	return lines
}
