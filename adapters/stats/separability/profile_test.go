package separability

import (
	"errors"
	"testing"

	"gocnwi/domain/core"
	"gocnwi/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfiles(t *testing.T) {
	set := buildSet(t,
		[]string{"bog", "water", "bog", "water", "bog", "water"},
		map[string][]float64{"ndvi": {0.1, 0.8, 0.2, 0.9, 0.1, 0.7}},
		[]string{"ndvi"},
	)

	profiles, err := Profiles(set)
	require.NoError(t, err)
	require.Len(t, profiles, 2)

	bog := profiles[0]
	assert.Equal(t, "bog", bog.Label)
	assert.Equal(t, 3, bog.Count)
	assert.InDelta(t, 0.4/3, bog.Mean, 1e-12)
	assert.InDelta(t, 0.1, bog.Min, 1e-12)
	assert.InDelta(t, 0.1, bog.Median, 1e-12)
	assert.InDelta(t, 0.2, bog.Max, 1e-12)

	water := profiles[1]
	assert.Equal(t, "water", water.Label)
	assert.InDelta(t, 0.8, water.Mean, 1e-12)
	assert.InDelta(t, popStd([]float64{0.8, 0.9, 0.7}), water.StdDev, 1e-12)

	tbl := ProfilesTable(profiles)
	rows, cols := tbl.Shape()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 8, cols)
	assert.Equal(t, "bog", tbl.Rows[0].Cells[0].String())
}

func TestComputeHistogram(t *testing.T) {
	set := buildSet(t,
		[]string{"bog", "bog", "fen", "fen"},
		map[string][]float64{"ndvi": {0, 1, 2, 4}},
		[]string{"ndvi"},
	)

	h, err := ComputeHistogram(set, "ndvi", 4)
	require.NoError(t, err)
	require.Len(t, h.Edges, 5)
	assert.Equal(t, []float64{1, 1, 1, 1}, h.Counts)
	assert.Equal(t, []float64{1, 1, 0, 0}, h.ByClass["bog"])
	assert.Equal(t, []float64{0, 0, 1, 1}, h.ByClass["fen"])
	assert.Equal(t, []string{"bog", "fen"}, h.Labels)

	tbl := h.Table()
	assert.Equal(t, []string{"lower", "upper", "count", "bog", "fen"}, tbl.Columns)
	assert.Len(t, tbl.Rows, 4)
}

func TestComputeHistogram_ConstantPredictor(t *testing.T) {
	set := buildSet(t,
		[]string{"bog", "fen"},
		map[string][]float64{"elevation": {3, 3}},
		[]string{"elevation"},
	)

	h, err := ComputeHistogram(set, "elevation", 10)
	require.NoError(t, err)
	assert.Equal(t, []float64{2}, h.Counts)
}

func TestComputeHistogram_TotalsMatchSampleCount(t *testing.T) {
	set, err := testkit.NewSampleGenerator(testkit.DefaultWetlandConfig()).GenerateSet()
	require.NoError(t, err)

	h, err := ComputeHistogram(set, "vh", 12)
	require.NoError(t, err)

	total := 0.0
	for _, c := range h.Counts {
		total += c
	}
	assert.Equal(t, float64(len(set.Samples)), total)
}

func TestComputeHistogram_Errors(t *testing.T) {
	set := buildSet(t, []string{"bog", "fen"}, map[string][]float64{"ndvi": {0, 1}}, []string{"ndvi"})

	_, err := ComputeHistogram(set, "swir", 4)
	assert.True(t, errors.Is(err, core.ErrUnknownPredictor))

	_, err = ComputeHistogram(set, "ndvi", 0)
	assert.Error(t, err)
}
