package render

import (
	"math"
	"strings"
	"testing"

	"gocnwi/domain/accuracy"
	"gocnwi/domain/separability"
	"gocnwi/domain/table"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable(t *testing.T) {
	tbl := table.NewIndexed("producers", "", "bog", "fen|marsh")
	require.NoError(t, tbl.Append("producers", table.Number(0.8), table.Undefined()))

	assert.Equal(t, "|  | bog | fen\\|marsh |\n| --- | --- | --- |\n| producers | 0.8 |  |\n", Table(tbl))
}

func sampleTable() *separability.Table {
	pair := separability.ClassPair{A: "bog", B: "fen"}
	return &separability.Table{
		LabelField: "land_cover",
		Pairs:      []separability.ClassPair{pair},
		Predictors: []string{"ndvi", "elevation"},
		Rows: []separability.Row{
			{Pair: pair, Rank: 1, Predictor: "elevation", Score: math.Inf(1), MeanA: 3, MeanB: 3, Degenerate: true},
			{Pair: pair, Rank: 2, Predictor: "ndvi", Score: 1.5, MeanA: 0.2, MeanB: 0.6},
		},
		Warnings: []string{`predictor "elevation" has zero variance for class pair bog:fen; scored +Inf`},
	}
}

func TestSeparabilityReport(t *testing.T) {
	md := SeparabilityReport("Wetland separability", sampleTable(), 1)

	assert.True(t, strings.HasPrefix(md, "# Wetland separability\n"))
	assert.Contains(t, md, "1 class pairs, 2 predictors")
	assert.Contains(t, md, "## Warnings")
	assert.Contains(t, md, "## Top 1 predictors\n\n1. elevation\n")
	assert.Contains(t, md, "## bog vs fen")
	assert.Contains(t, md, "| 1 | elevation | inf | 3.0000 | 3.0000 |")
	assert.Contains(t, md, "| 2 | ndvi | 1.5000 | 0.2000 | 0.6000 |")
}

func TestAccuracyReport(t *testing.T) {
	m := accuracy.ConfusionMatrix{{5, 1}, {0, 4}}
	bundle := &accuracy.MetricsBundle{Labels: []string{"bog", "fen"}, ConfusionMatrix: m, Overall: 0.9}
	overall := table.NewIndexed("overall", "", "Overall")
	require.NoError(t, overall.Append("0", table.Number(0.9)))

	md := AccuracyReport("Accuracy", bundle, []*table.Table{overall}, []accuracy.Discrepancy{
		{Metric: "overall", Reported: accuracy.DefinedAccuracy(0.8), Derived: accuracy.DefinedAccuracy(0.9)},
	})

	assert.Contains(t, md, "Overall accuracy **0.9000** over 2 classes (10 validation samples)")
	assert.Contains(t, md, "## overall\n\n|  | Overall |")
	assert.Contains(t, md, "## Discrepancies\n\n- overall: reported 0.8000, matrix gives 0.9000\n")
}

func TestHTML(t *testing.T) {
	out := string(HTML(SeparabilityReport("Wetland separability", sampleTable(), 0)))

	assert.Contains(t, out, `<h1 id="wetland-separability">Wetland separability</h1>`)
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<td>elevation</td>")
}
