package separability

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"gocnwi/domain/core"
	"gocnwi/domain/sample"
	domain "gocnwi/domain/separability"
	"gocnwi/internal"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// VariancePolicy decides what a zero pooled standard deviation produces
type VariancePolicy string

const (
	// PolicyInfinity scores the predictor +Inf, flags the row and records a warning
	PolicyInfinity VariancePolicy = "infinity"
	// PolicyStrict fails the computation with core.ErrDegenerateVariance
	PolicyStrict VariancePolicy = "strict"
)

// ParseVariancePolicy validates a policy name
func ParseVariancePolicy(s string) (VariancePolicy, error) {
	switch VariancePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyInfinity:
		return PolicyInfinity, nil
	case PolicyStrict:
		return PolicyStrict, nil
	default:
		return "", fmt.Errorf("%w: %q", core.ErrInvalidVariancePolicy, s)
	}
}

// Config tunes the analyzer
type Config struct {
	VariancePolicy VariancePolicy `json:"variance_policy"`
	// Workers bounds how many class pairs are scored at once
	Workers int `json:"workers"`
}

// DefaultConfig returns the default analyzer configuration
func DefaultConfig() Config {
	return Config{
		VariancePolicy: PolicyInfinity,
		Workers:        4,
	}
}

// Analyzer ranks predictors by how well they separate each pair of classes
type Analyzer struct {
	config Config
	logger *internal.Logger
}

// NewAnalyzer creates a new separability analyzer
func NewAnalyzer(config Config) *Analyzer {
	if config.Workers < 1 {
		config.Workers = 1
	}
	if config.VariancePolicy == "" {
		config.VariancePolicy = PolicyInfinity
	}
	return &Analyzer{
		config: config,
		logger: internal.DefaultLogger.With("separability"),
	}
}

// WithLogger replaces the analyzer's logger
func (a *Analyzer) WithLogger(logger *internal.Logger) *Analyzer {
	a.logger = logger
	return a
}

// ComputeRecords builds a sample set from raw records and computes its separability table
func (a *Analyzer) ComputeRecords(ctx context.Context, records sample.Records, opts sample.Options) (*domain.Table, error) {
	set, err := sample.FromRecords(records, opts)
	if err != nil {
		return nil, err
	}
	return a.Compute(ctx, set)
}

// Compute scores every (class pair, predictor) combination and ranks predictors within each
// pair. Pairs follow the first-seen label order; each pair's rows are sorted by descending
// score, ties keeping the predictor schema order.
func (a *Analyzer) Compute(ctx context.Context, set *sample.Set) (*domain.Table, error) {
	startTime := time.Now()

	if err := set.Validate(); err != nil {
		return nil, err
	}

	labels := set.Labels()
	if len(labels) < 2 {
		return nil, core.NewInsufficientClassesError(set.LabelField, labels)
	}

	pairs := domain.Pairs(labels)
	groups := set.Groups()

	results := make([][]domain.Row, len(pairs))
	warnings := make([][]string, len(pairs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.config.Workers)
	for i, pair := range pairs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rows, warns, err := a.scorePair(set, groups, pair)
			if err != nil {
				return err
			}
			results[i] = rows
			warnings[i] = warns
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	table := &domain.Table{
		LabelField: set.LabelField,
		Pairs:      pairs,
		Predictors: append([]string(nil), set.Predictors...),
		Rows:       make([]domain.Row, 0, len(pairs)*len(set.Predictors)),
	}
	for i := range pairs {
		table.Rows = append(table.Rows, results[i]...)
		table.Warnings = append(table.Warnings, warnings[i]...)
	}

	a.logger.Info("scored %d class pairs x %d predictors over %d samples in %.2fms",
		len(pairs), len(set.Predictors), len(set.Samples), float64(time.Since(startTime).Nanoseconds())/1e6)
	return table, nil
}

// scorePair computes |mean(B) - mean(A)| / popstd(A ∪ B) for every predictor of one pair
func (a *Analyzer) scorePair(set *sample.Set, groups map[string][]int, pair domain.ClassPair) ([]domain.Row, []string, error) {
	posA, posB := groups[pair.A], groups[pair.B]
	rows := make([]domain.Row, 0, len(set.Predictors))
	var warnings []string

	combined := make([]float64, 0, len(posA)+len(posB))
	for _, predictor := range set.Predictors {
		valuesA := set.Column(predictor, posA)
		valuesB := set.Column(predictor, posB)

		combined = append(combined[:0], valuesA...)
		combined = append(combined, valuesB...)

		meanA, meanB, std := pairStats(valuesA, valuesB, combined)
		if !finite(meanA, meanB, std) {
			return nil, nil, core.NewNonFiniteStatisticError(pair.String(), predictor)
		}

		row := domain.Row{
			Pair:      pair,
			Predictor: predictor,
			MeanA:     meanA,
			MeanB:     meanB,
			StdDev:    std,
		}

		// identical values can leave a rounding residue in std, so test the spread directly
		if floats.Min(combined) == floats.Max(combined) || std == 0 {
			if a.config.VariancePolicy == PolicyStrict {
				return nil, nil, core.NewDegenerateVarianceError(pair.String(), predictor)
			}
			row.Score = math.Inf(1)
			row.StdDev = 0
			row.Degenerate = true
			msg := fmt.Sprintf("predictor %q has zero variance for class pair %s; scored +Inf", predictor, pair)
			warnings = append(warnings, msg)
			a.logger.Warn("%s", msg)
		} else {
			row.Score = math.Abs(meanB-meanA) / std
			if math.IsInf(row.Score, 0) {
				row.Score = math.Abs(meanB/std - meanA/std)
			}
			if !finite(row.Score) {
				return nil, nil, core.NewNonFiniteStatisticError(pair.String(), predictor)
			}
		}

		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Score > rows[j].Score
	})
	for i := range rows {
		rows[i].Rank = i + 1
	}

	return rows, warnings, nil
}

// pairStats returns mean(A), mean(B) and popstd(A ∪ B). Sums that overflow are recomputed on
// values divided by the largest magnitude, which leaves the score unchanged.
func pairStats(valuesA, valuesB, combined []float64) (meanA, meanB, std float64) {
	meanA = stat.Mean(valuesA, nil)
	meanB = stat.Mean(valuesB, nil)
	_, std = stat.PopMeanStdDev(combined, nil)
	if finite(meanA, meanB, std) {
		return meanA, meanB, std
	}

	scale := math.Max(math.Abs(floats.Min(combined)), math.Abs(floats.Max(combined)))
	if scale == 0 || !finite(scale) {
		return meanA, meanB, std
	}
	scaled := func(values []float64) []float64 {
		out := make([]float64, len(values))
		floats.ScaleTo(out, 1/scale, values)
		return out
	}
	meanA = stat.Mean(scaled(valuesA), nil) * scale
	meanB = stat.Mean(scaled(valuesB), nil) * scale
	_, std = stat.PopMeanStdDev(scaled(combined), nil)
	return meanA, meanB, std * scale
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
