package resolve

import (
	"unicode/utf8"

	"github.com/antzucaro/matchr"
	"go.uber.org/zap"

	"github.com/sparsh2712/DataPipeline/internal/monitoring"
)

// DefaultThreshold is the minimum similarity for a fuzzy match.
const DefaultThreshold = 0.6

// Match is a resolved reference record.
type Match struct {
	Name   string
	Symbol string
	Score  float64
	Exact  bool
}

// Resolver maps free text to a reference entry.
type Resolver struct {
	table     *Table
	threshold float64
	metrics   *monitoring.Metrics
}

// New creates a Resolver. A threshold outside [0, 1] falls back to
// DefaultThreshold; 0 accepts the best match whatever its score.
func New(t *Table, threshold float64, metrics *monitoring.Metrics) *Resolver {
	if threshold < 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return &Resolver{table: t, threshold: threshold, metrics: metrics}
}

// Resolve returns the entry whose name equals text case-insensitively, or
// else the most similar name scoring at least the threshold. Ties go to the
// entry that comes first in the table. ok is false when nothing qualifies;
// that is an answer, not an error.
func (r *Resolver) Resolve(text string) (m Match, ok bool) {
	key := Normalize(text)
	if key == "" {
		r.metrics.Resolution("none")
		return Match{}, false
	}

	if i, found := r.table.exact[key]; found {
		e := r.table.entries[i]
		r.metrics.Resolution("exact")
		return Match{Name: e.Name, Symbol: e.Symbol, Score: 1, Exact: true}, true
	}

	best, bestScore := -1, -1.0
	for i, k := range r.table.keys {
		if s := Similarity(key, k); s > bestScore {
			best, bestScore = i, s
		}
	}
	if best < 0 || bestScore < r.threshold {
		zap.L().Debug("no reference match",
			zap.String("text", text), zap.Float64("best_score", bestScore))
		r.metrics.Resolution("none")
		return Match{}, false
	}

	e := r.table.entries[best]
	r.metrics.Resolution("fuzzy")
	return Match{Name: e.Name, Symbol: e.Symbol, Score: bestScore}, true
}

// ResolveTitle cleans a title with CleanTitle and resolves the result. It
// also returns the cleaned candidate.
func (r *Resolver) ResolveTitle(title string) (candidate string, m Match, ok bool) {
	candidate = CleanTitle(title)
	m, ok = r.Resolve(candidate)
	return candidate, m, ok
}

// Similarity is 1 - levenshtein(a, b) / max(len(a), len(b)) over runes.
// Two empty strings are identical.
func Similarity(a, b string) float64 {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	longest := max(la, lb)
	if longest == 0 {
		return 1
	}
	return 1 - float64(matchr.Levenshtein(a, b))/float64(longest)
}
