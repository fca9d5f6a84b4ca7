package testkit

import (
	"fmt"
	"math/rand"

	"gocnwi/adapters/featurecollection"
	"gocnwi/domain/accuracy"
	"gocnwi/domain/sample"
)

// ClassSpec describes one synthetic land-cover class
type ClassSpec struct {
	Label string             `json:"label"`
	Value int                `json:"value"`
	Count int                `json:"count"`
	Means map[string]float64 `json:"means"`
}

// SampleGeneratorConfig configures the labeled sample generator
type SampleGeneratorConfig struct {
	Classes    []ClassSpec `json:"classes"`
	Predictors []string    `json:"predictors"`
	// Spread is the standard deviation of the gaussian noise added to every class mean
	Spread float64 `json:"spread"`
	Seed   int64   `json:"seed"`
}

// DefaultWetlandConfig returns a wetland-style configuration with optical, radar and terrain
// predictors whose class means overlap to different degrees
func DefaultWetlandConfig() SampleGeneratorConfig {
	return SampleGeneratorConfig{
		Predictors: []string{"ndvi", "savi", "vv", "vh", "elevation"},
		Classes: []ClassSpec{
			{Label: "bog", Value: 1, Count: 40, Means: map[string]float64{"ndvi": 0.45, "savi": 0.30, "vv": -12, "vh": -19, "elevation": 310}},
			{Label: "fen", Value: 2, Count: 40, Means: map[string]float64{"ndvi": 0.55, "savi": 0.36, "vv": -11, "vh": -18, "elevation": 305}},
			{Label: "marsh", Value: 3, Count: 40, Means: map[string]float64{"ndvi": 0.65, "savi": 0.42, "vv": -9, "vh": -15, "elevation": 298}},
			{Label: "water", Value: 4, Count: 40, Means: map[string]float64{"ndvi": -0.10, "savi": -0.05, "vv": -22, "vh": -28, "elevation": 296}},
		},
		Spread: 0.05,
		Seed:   42,
	}
}

// SampleGenerator produces reproducible labeled samples shaped like a sampling export
type SampleGenerator struct {
	config SampleGeneratorConfig
	rng    *rand.Rand
}

// NewSampleGenerator creates a new sample generator
func NewSampleGenerator(config SampleGeneratorConfig) *SampleGenerator {
	return &SampleGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// GenerateRecords emits one record per sample, classes interleaved the way a stratified
// sample export would list them, with the bookkeeping columns the exclusion list removes
func (g *SampleGenerator) GenerateRecords() sample.Records {
	columns := []string{"system:index", sample.DefaultLabelField, sample.DefaultClassValueField, "POINT_X", "POINT_Y"}
	columns = append(columns, g.config.Predictors...)

	maxCount := 0
	for _, c := range g.config.Classes {
		if c.Count > maxCount {
			maxCount = c.Count
		}
	}

	var rows []sample.Record
	for i := 0; i < maxCount; i++ {
		for _, class := range g.config.Classes {
			if i >= class.Count {
				continue
			}
			row := sample.Record{
				"system:index":                fmt.Sprintf("%d_%s", len(rows), class.Label),
				sample.DefaultLabelField:      class.Label,
				sample.DefaultClassValueField: float64(class.Value),
				"POINT_X":                     -110.0 + g.rng.Float64(),
				"POINT_Y":                     52.0 + g.rng.Float64(),
			}
			for _, p := range g.config.Predictors {
				scale := g.config.Spread
				if m := class.Means[p]; m > 1 || m < -1 {
					scale *= 20
				}
				row[p] = class.Means[p] + g.rng.NormFloat64()*scale
			}
			rows = append(rows, row)
		}
	}

	return sample.Records{Columns: columns, Rows: rows}
}

// GenerateSet generates records and converts them with the default options
func (g *SampleGenerator) GenerateSet() (*sample.Set, error) {
	return sample.FromRecords(g.GenerateRecords(), sample.DefaultOptions())
}

// EvaluationFeatures builds the property bags a classifier evaluation export carries for the
// given labels and confusion matrix; order is 1..n and accuracies are derived from the matrix
func EvaluationFeatures(labels []string, matrix [][]int) []featurecollection.Properties {
	m := accuracy.ConfusionMatrix(matrix)
	derived := accuracy.Derive(m)

	order := make([]interface{}, len(labels))
	labelValues := make([]interface{}, len(labels))
	for i, l := range labels {
		order[i] = float64(i + 1)
		labelValues[i] = l
	}

	rows := make([]interface{}, len(matrix))
	for i, row := range matrix {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = float64(v)
		}
		rows[i] = cells
	}

	overall := 0.0
	if derived.Overall.Defined {
		overall = derived.Overall.Value
	}

	blocks := []struct {
		key   string
		value interface{}
	}{
		{accuracy.BlockConfusionMatrix, rows},
		{accuracy.BlockOrder, order},
		{accuracy.BlockOverall, overall},
		{accuracy.BlockProducers, accuracyValues(derived.Producers)},
		{accuracy.BlockConsumers, accuracyValues(derived.Consumers)},
		{accuracy.BlockLabels, labelValues},
	}

	bags := make([]featurecollection.Properties, len(blocks))
	for i, b := range blocks {
		bags[i].Set("system:index", fmt.Sprintf("%d", i))
		bags[i].Set(b.key, b.value)
	}
	return bags
}

// EvaluationCollection wraps EvaluationFeatures in a feature collection with null geometries
func EvaluationCollection(labels []string, matrix [][]int) *featurecollection.Collection {
	bags := EvaluationFeatures(labels, matrix)
	c := &featurecollection.Collection{Type: "FeatureCollection", Features: make([]featurecollection.Feature, len(bags))}
	for i, bag := range bags {
		c.Features[i] = featurecollection.Feature{Type: "Feature", Geometry: []byte("null"), Properties: bag}
	}
	return c
}

func accuracyValues(values []accuracy.Accuracy) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		if v.Defined {
			out[i] = v.Value
		}
	}
	return out
}
