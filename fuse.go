package diagdex

import "sort"

// DefaultDenseWeight is the default weight of the dense list in fusion;
// the lexical list gets the complement.
const DefaultDenseWeight = 0.5

// Fuse combines a dense and a sparse candidate list into one ranking.
// Each list is min-max normalized independently, then scores are
// combined as denseWeight*dense + (1-denseWeight)*sparse. A chunk
// appearing in both lists contributes both components. Ties break by
// the chunk's ordinal position in the dense list, preferring semantic
// relevance; chunks absent from the dense list sort after all dense
// candidates on equal score. Results are deduplicated by chunk id and
// truncated to k.
func Fuse(dense, sparse []ScoredPoint, denseWeight float64, k int) []QueryResult {
	if denseWeight < 0 {
		denseWeight = 0
	}
	if denseWeight > 1 {
		denseWeight = 1
	}

	type fused struct {
		point     ScoredPoint
		score     float64
		denseRank int
	}

	byID := make(map[string]*fused)
	order := make([]string, 0, len(dense)+len(sparse))

	denseNorm := minMax(dense)
	for i, p := range dense {
		if f, ok := byID[p.ID]; ok {
			// Duplicate id within the dense list keeps its best rank.
			if denseWeight*denseNorm[i] > f.score {
				f.score = denseWeight * denseNorm[i]
			}
			continue
		}
		byID[p.ID] = &fused{point: p, score: denseWeight * denseNorm[i], denseRank: i}
		order = append(order, p.ID)
	}

	sparseNorm := minMax(sparse)
	for i, p := range sparse {
		f, ok := byID[p.ID]
		if !ok {
			f = &fused{point: p, denseRank: len(dense) + i}
			byID[p.ID] = f
			order = append(order, p.ID)
		}
		f.score += (1 - denseWeight) * sparseNorm[i]
	}

	results := make([]QueryResult, 0, len(order))
	seen := make(map[string]struct{}, len(order))
	for _, id := range order {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		f := byID[id]
		results = append(results, QueryResult{ChunkID: f.point.ID, Score: f.score, Payload: f.point.Payload})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return byID[results[i].ChunkID].denseRank < byID[results[j].ChunkID].denseRank
	})

	if k > 0 && len(results) > k {
		results = results[:k]
	}
	return results
}

// minMax returns the min-max normalized scores of a candidate list in
// list order. A single-element or constant-score list normalizes to 1.
func minMax(points []ScoredPoint) []float64 {
	if len(points) == 0 {
		return nil
	}
	lo, hi := points[0].Score, points[0].Score
	for _, p := range points[1:] {
		if p.Score < lo {
			lo = p.Score
		}
		if p.Score > hi {
			hi = p.Score
		}
	}
	norm := make([]float64, len(points))
	for i, p := range points {
		if hi == lo {
			norm[i] = 1
		} else {
			norm[i] = (p.Score - lo) / (hi - lo)
		}
	}
	return norm
}
