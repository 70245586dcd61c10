package diagdex

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

// SparseVector is a lexical representation of text for sparse search:
// hashed term indices with log-scaled term-frequency weights.
type SparseVector struct {
	Indices []uint32  `json:"indices"`
	Values  []float32 `json:"values"`
}

// stopwords excluded from sparse terms. Small on purpose: technical
// documentation leans on words a general list would drop.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "by": {}, "for": {}, "from": {}, "in": {}, "is": {},
	"it": {}, "of": {}, "on": {}, "or": {}, "that": {}, "the": {},
	"to": {}, "was": {}, "with": {},
}

// SparseEncode tokenizes text into lowercase terms and returns its
// sparse vector. Term indices are xxHash-derived, so the encoding needs
// no shared vocabulary; weights are 1+ln(tf). Empty text yields an
// empty vector.
func SparseEncode(text string) SparseVector {
	freq := make(map[uint32]int)
	for _, term := range Tokenize(text) {
		freq[TermIndex(term)]++
	}
	if len(freq) == 0 {
		return SparseVector{}
	}

	indices := make([]uint32, 0, len(freq))
	for idx := range freq {
		indices = append(indices, idx)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })

	values := make([]float32, len(indices))
	for i, idx := range indices {
		values[i] = float32(1 + math.Log(float64(freq[idx])))
	}
	return SparseVector{Indices: indices, Values: values}
}

// Tokenize splits text into lowercase alphanumeric terms, dropping
// stopwords and single-rune terms.
func Tokenize(text string) []string {
	var terms []string
	var sb strings.Builder
	flush := func() {
		if sb.Len() == 0 {
			return
		}
		term := sb.String()
		sb.Reset()
		if len(term) < 2 {
			return
		}
		if _, ok := stopwords[term]; ok {
			return
		}
		terms = append(terms, term)
	}
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(unicode.ToLower(r))
		} else {
			flush()
		}
	}
	flush()
	return terms
}

// TermIndex maps a term to its sparse dimension.
func TermIndex(term string) uint32 {
	return uint32(xxhash.Sum64String(term))
}
