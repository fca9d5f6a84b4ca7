package separability

import (
	"fmt"
	"math"
	"strings"

	"gocnwi/domain/table"

	"github.com/goccy/go-json"
)

// ClassPair is an unordered pair of distinct class labels. A is the label seen first.
type ClassPair struct {
	A string `json:"a"`
	B string `json:"b"`
}

// String renders the pair as "A:B"
func (p ClassPair) String() string {
	return p.A + ":" + p.B
}

// ParseClassPair parses the "A:B" form
func ParseClassPair(s string) (ClassPair, error) {
	a, b, ok := strings.Cut(s, ":")
	if !ok || a == "" || b == "" || a == b {
		return ClassPair{}, fmt.Errorf("invalid class pair %q", s)
	}
	return ClassPair{A: a, B: b}, nil
}

// Pairs enumerates every unordered pair of labels in combination order: (l0,l1), (l0,l2), ...,
// (l1,l2), ... Labels must already be distinct.
func Pairs(labels []string) []ClassPair {
	n := len(labels)
	if n < 2 {
		return nil
	}
	pairs := make([]ClassPair, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, ClassPair{A: labels[i], B: labels[j]})
		}
	}
	return pairs
}

// Row is one separability score for a class pair and predictor
type Row struct {
	Pair       ClassPair `json:"class_pair"`
	Rank       int       `json:"rank"`
	Predictor  string    `json:"predictor"`
	Score      float64   `json:"-"`
	MeanA      float64   `json:"mean_a"`
	MeanB      float64   `json:"mean_b"`
	StdDev     float64   `json:"std_dev"`
	Degenerate bool      `json:"degenerate,omitempty"`
}

// ScoreValue returns the score for JSON output; infinite scores render as "inf"
func (r Row) ScoreValue() interface{} {
	if math.IsInf(r.Score, 1) {
		return "inf"
	}
	return r.Score
}

// MarshalJSON writes the score through ScoreValue so +Inf survives encoding
func (r Row) MarshalJSON() ([]byte, error) {
	type plain Row
	return json.Marshal(struct {
		plain
		Score interface{} `json:"score"`
	}{plain(r), r.ScoreValue()})
}

// Table holds every score, grouped by pair in enumeration order, each group in rank order
type Table struct {
	LabelField string      `json:"label_field"`
	Pairs      []ClassPair `json:"pairs"`
	Predictors []string    `json:"predictors"`
	Rows       []Row       `json:"rows"`
	Warnings   []string    `json:"warnings,omitempty"`
}

// ForPair returns the rows of one pair in rank order
func (t *Table) ForPair(p ClassPair) []Row {
	var out []Row
	for _, r := range t.Rows {
		if r.Pair == p {
			out = append(out, r)
		}
	}
	return out
}

// ExtractByRank returns the predictors holding the given rank in any pair, deduplicated, in
// the order they are first encountered. An absent rank yields an empty slice.
func (t *Table) ExtractByRank(rank int) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, r := range t.Rows {
		if r.Rank != rank || seen[r.Predictor] {
			continue
		}
		seen[r.Predictor] = true
		out = append(out, r.Predictor)
	}
	return out
}

// TopPredictors returns the union of ranks 1..k in rank order, deduplicated
func (t *Table) TopPredictors(k int) []string {
	seen := make(map[string]bool)
	out := []string{}
	for rank := 1; rank <= k; rank++ {
		for _, p := range t.ExtractByRank(rank) {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	return out
}

// ToTable converts the scores into the generic tabular form with the legacy column names
func (t *Table) ToTable() *table.Table {
	out := table.New("separability", "labels", "rank", "band", "scores")
	for _, r := range t.Rows {
		// widths always match, so Append cannot fail
		_ = out.Append("", table.Text(r.Pair.String()), table.Integer(r.Rank), table.Text(r.Predictor), table.Number(r.Score))
	}
	return out
}
