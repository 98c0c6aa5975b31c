package similarity

import (
	"math"
	"sort"
)

// Candidate is one event in the ranking pool, or the query itself.
type Candidate struct {
	ID         string
	Vector     []float64
	Snapshot   string   // snapshot ID the vector was built from; "" if unknown
	Categories []string // category IDs used by the overlap filter
}

// Match is a ranked candidate.
type Match struct {
	ID    string
	Score float64
}

// RankOptions controls filtering before truncation.
type RankOptions struct {
	Limit int
	// MinScore drops candidates whose score is not strictly greater than it.
	MinScore float64
	// CategoryFilter drops candidates sharing no category with a query that has any.
	CategoryFilter bool
}

// Cosine returns dot(a,b)/(|a||b|). It is 0 when either vector has zero
// magnitude. Callers must pass vectors of equal length; extra entries of the
// longer one are ignored.
func Cosine(a, b []float64) float64 {
	n := min(len(a), len(b))
	var dot, magA, magB float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		magA += a[i] * a[i]
		magB += b[i] * b[i]
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

// Comparable reports whether two candidates were embedded in the same snapshot.
func Comparable(q, c Candidate) bool {
	if len(q.Vector) == 0 || len(c.Vector) != len(q.Vector) {
		return false
	}
	if q.Snapshot != "" && c.Snapshot != "" && q.Snapshot != c.Snapshot {
		return false
	}
	return true
}

// Rank scores pool against query and returns at most opts.Limit matches in
// descending score order. The query's own ID is never returned. Candidates with
// incomparable vectors are skipped. Equal scores keep pool order.
func Rank(query Candidate, pool []Candidate, opts RankOptions) []Match {
	if opts.Limit <= 0 || len(query.Vector) == 0 {
		return []Match{}
	}

	var allowed map[string]struct{}
	if opts.CategoryFilter && len(query.Categories) > 0 {
		allowed = make(map[string]struct{}, len(query.Categories))
		for _, c := range query.Categories {
			allowed[c] = struct{}{}
		}
	}

	matches := make([]Match, 0, len(pool))
	for _, c := range pool {
		if c.ID == query.ID {
			continue
		}
		if allowed != nil && !sharesCategory(allowed, c.Categories) {
			continue
		}
		if !Comparable(query, c) {
			continue
		}
		score := Cosine(query.Vector, c.Vector)
		if score <= opts.MinScore {
			continue
		}
		matches = append(matches, Match{ID: c.ID, Score: score})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if len(matches) > opts.Limit {
		matches = matches[:opts.Limit]
	}
	return matches
}

func sharesCategory(allowed map[string]struct{}, cats []string) bool {
	for _, c := range cats {
		if _, ok := allowed[c]; ok {
			return true
		}
	}
	return false
}
