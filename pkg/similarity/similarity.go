// Package similarity implements the pure ranking math for semantic search.
//
// Nothing in this package does I/O. The memory store loads candidate rows,
// decodes their embeddings, and hands them here to be scored against a query
// vector, filtered by a minimum score, and ordered deterministically.
package similarity

import (
	"math"
	"sort"
)

const (
	// DefaultLimit is the result cap applied when a caller asks for fewer
	// than one result.
	DefaultLimit = 5

	// DefaultMinScore is the default minimum cosine score for a candidate
	// to appear in search results.
	DefaultMinScore = 0.3
)

// Candidate is one stored vector offered for ranking.
type Candidate struct {
	// ID identifies the candidate back in the store.
	ID string

	// Embedding is the candidate's stored vector.
	Embedding []float32

	// UpdatedAt is the candidate's RFC 3339 update timestamp. Equal scores
	// order by UpdatedAt descending, then ID ascending, so ranking output
	// is fully deterministic.
	UpdatedAt string
}

// Match is a candidate that cleared the score threshold.
type Match struct {
	ID    string
	Score float64
}

// Cosine returns the cosine similarity between two equal-length vectors,
// dot(a,b) / (|a|*|b|), in [-1, 1].
//
// When either vector has zero magnitude, or the lengths differ, Cosine
// returns 0 rather than dividing by zero: degenerate vectors simply never
// clear a positive threshold.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Rank scores every candidate against the query vector, drops candidates
// scoring strictly below minScore, orders the rest by score descending
// (ties: UpdatedAt descending, then ID ascending), and truncates to limit.
//
// Out-of-range parameters are clamped rather than rejected: limit < 1
// becomes DefaultLimit, and minScore is clamped into [0, 1].
func Rank(query []float32, candidates []Candidate, limit int, minScore float64) []Match {
	if limit < 1 {
		limit = DefaultLimit
	}
	minScore = clamp(minScore, 0, 1)

	// Index back into candidates so the tie-breaker fields stay available
	// during sorting without copying them into every match.
	type scored struct {
		idx   int
		score float64
	}

	matches := make([]scored, 0, len(candidates))
	for i, c := range candidates {
		score := Cosine(query, c.Embedding)
		if score < minScore {
			continue
		}
		matches = append(matches, scored{idx: i, score: score})
	}

	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.score != b.score {
			return a.score > b.score
		}
		ca, cb := candidates[a.idx], candidates[b.idx]
		if ca.UpdatedAt != cb.UpdatedAt {
			return ca.UpdatedAt > cb.UpdatedAt
		}
		return ca.ID < cb.ID
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}

	results := make([]Match, len(matches))
	for i, m := range matches {
		results[i] = Match{
			ID:    candidates[m.idx].ID,
			Score: m.score,
		}
	}

	return results
}

func clamp(v, lo, hi float64) float64 {
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	default:
		return v
	}
}
