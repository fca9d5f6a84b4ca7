package sample

import (
	"errors"
	"math"
	"testing"

	"gocnwi/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func legacyRecords() Records {
	return Records{
		Columns: []string{"system:index", "land_cover", "value", "ndvi", "POINT_X", "POINT_Y", "vv"},
		Rows: []Record{
			{"system:index": "0_0", "land_cover": "water", "value": 3.0, "ndvi": 0.8, "POINT_X": 1.0, "POINT_Y": 2.0, "vv": -20.0},
			{"system:index": "0_1", "land_cover": "bog", "value": 1.0, "ndvi": "0.1", "POINT_X": 1.0, "POINT_Y": 2.0, "vv": -12.5},
			{"system:index": "0_2", "land_cover": "water", "value": 3.0, "ndvi": 0.7, "POINT_X": 1.0, "POINT_Y": 2.0, "vv": -21.0},
		},
	}
}

func TestFromRecords_InfersPredictorsFromExclusionList(t *testing.T) {
	set, err := FromRecords(legacyRecords(), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{"ndvi", "vv"}, set.Predictors)
	assert.Equal(t, DefaultLabelField, set.LabelField)
	require.Len(t, set.Samples, 3)
	assert.Equal(t, 0.1, set.Samples[1].Values["ndvi"])
	require.NotNil(t, set.Samples[1].ClassValue)
	assert.Equal(t, 1, *set.Samples[1].ClassValue)
	assert.Equal(t, []string{"water", "bog"}, set.Labels())
	assert.NoError(t, set.Validate())
}

func TestFromRecords_ExplicitPredictors(t *testing.T) {
	opts := DefaultOptions()
	opts.Predictors = []string{"vv", "ndvi", "vv"}

	set, err := FromRecords(legacyRecords(), opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"vv", "ndvi"}, set.Predictors)

	opts.Predictors = []string{"slope"}
	_, err = FromRecords(legacyRecords(), opts)
	assert.True(t, errors.Is(err, core.ErrUnknownPredictor))

	opts.Predictors = []string{"land_cover"}
	_, err = FromRecords(legacyRecords(), opts)
	assert.True(t, errors.Is(err, core.ErrUnknownPredictor))
}

func TestFromRecords_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *Records, o *Options)
		wantErr error
	}{
		{"empty", func(r *Records, o *Options) { r.Rows = nil }, core.ErrEmptySampleSet},
		{"no label field", func(r *Records, o *Options) { o.LabelField = "" }, core.ErrMissingLabel},
		{"blank label", func(r *Records, o *Options) { r.Rows[0]["land_cover"] = "  " }, core.ErrMissingLabel},
		{"missing predictor", func(r *Records, o *Options) { delete(r.Rows[2], "vv") }, core.ErrSchemaMismatch},
		{"non numeric", func(r *Records, o *Options) { r.Rows[1]["ndvi"] = "high" }, core.ErrSchemaMismatch},
		{"nan", func(r *Records, o *Options) { r.Rows[1]["ndvi"] = math.NaN() }, core.ErrNonFiniteValue},
		{"fractional class value", func(r *Records, o *Options) { r.Rows[0]["value"] = 2.5 }, core.ErrSchemaMismatch},
		{"everything excluded", func(r *Records, o *Options) { o.Exclude = append(o.Exclude, "ndvi", "vv") }, core.ErrNoPredictors},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs := legacyRecords()
			opts := DefaultOptions()
			tt.mutate(&recs, &opts)

			_, err := FromRecords(recs, opts)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestSet_Validate(t *testing.T) {
	set := &Set{
		LabelField: "land_cover",
		Predictors: []string{"ndvi"},
		Samples: []Sample{
			{Label: "bog", Values: map[string]float64{"ndvi": 0.1}},
			{Label: "fen", Values: map[string]float64{"ndvi": 0.2, "vv": 1}},
		},
	}
	assert.True(t, errors.Is(set.Validate(), core.ErrSchemaMismatch))

	set.Samples[1].Values = map[string]float64{"ndvi": math.Inf(1)}
	assert.True(t, errors.Is(set.Validate(), core.ErrNonFiniteValue))

	var empty *Set
	assert.True(t, errors.Is(empty.Validate(), core.ErrEmptySampleSet))
}

func TestSet_GroupsAndColumn(t *testing.T) {
	set, err := FromRecords(legacyRecords(), DefaultOptions())
	require.NoError(t, err)

	groups := set.Groups()
	assert.Equal(t, []int{0, 2}, groups["water"])
	assert.Equal(t, []int{1}, groups["bog"])
	assert.Equal(t, []float64{0.8, 0.7}, set.Column("ndvi", groups["water"]))
	assert.True(t, set.HasPredictor("vv"))
	assert.False(t, set.HasPredictor("POINT_X"))
}
