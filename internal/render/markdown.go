package render

import (
	"fmt"
	"math"
	"strings"

	"gocnwi/domain/accuracy"
	"gocnwi/domain/separability"
	"gocnwi/domain/table"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Table renders a table as a GitHub-style pipe table
func Table(t *table.Table) string {
	var sb strings.Builder
	records := t.Records()
	if len(records) == 0 {
		return ""
	}

	writeRow := func(cells []string) {
		sb.WriteString("|")
		for _, c := range cells {
			sb.WriteString(" ")
			sb.WriteString(escapeCell(c))
			sb.WriteString(" |")
		}
		sb.WriteString("\n")
	}

	writeRow(records[0])
	sb.WriteString("|")
	for range records[0] {
		sb.WriteString(" --- |")
	}
	sb.WriteString("\n")
	for _, rec := range records[1:] {
		writeRow(rec)
	}
	return sb.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func formatScore(v float64) string {
	if math.IsInf(v, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.4f", v)
}

// SeparabilityReport renders a separability table: a summary, warnings, the top predictors and
// one ranked section per class pair
func SeparabilityReport(title string, t *separability.Table, topK int) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s\n\n", title))
	sb.WriteString(fmt.Sprintf("Label field `%s`: %d class pairs, %d predictors.\n\n",
		t.LabelField, len(t.Pairs), len(t.Predictors)))

	if len(t.Warnings) > 0 {
		sb.WriteString("## Warnings\n\n")
		for _, w := range t.Warnings {
			sb.WriteString(fmt.Sprintf("- %s\n", w))
		}
		sb.WriteString("\n")
	}

	if topK > 0 {
		sb.WriteString(fmt.Sprintf("## Top %d predictors\n\n", topK))
		for i, p := range t.TopPredictors(topK) {
			sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, p))
		}
		sb.WriteString("\n")
	}

	for _, pair := range t.Pairs {
		sb.WriteString(fmt.Sprintf("## %s vs %s\n\n", pair.A, pair.B))
		sb.WriteString("| rank | band | score | mean " + escapeCell(pair.A) + " | mean " + escapeCell(pair.B) + " |\n")
		sb.WriteString("| --- | --- | --- | --- | --- |\n")
		for _, r := range t.ForPair(pair) {
			sb.WriteString(fmt.Sprintf("| %d | %s | %s | %.4f | %.4f |\n",
				r.Rank, escapeCell(r.Predictor), formatScore(r.Score), r.MeanA, r.MeanB))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// AccuracyReport renders the metric tables followed by any disagreement between the reported
// accuracies and the confusion matrix
func AccuracyReport(title string, bundle *accuracy.MetricsBundle, tables []*table.Table, discrepancies []accuracy.Discrepancy) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s\n\n", title))
	sb.WriteString(fmt.Sprintf("Overall accuracy **%.4f** over %d classes (%d validation samples).\n\n",
		bundle.Overall, len(bundle.Labels), bundle.ConfusionMatrix.Total()))

	for _, t := range tables {
		sb.WriteString(fmt.Sprintf("## %s\n\n", strings.ReplaceAll(t.Name, "_", " ")))
		sb.WriteString(Table(t))
		sb.WriteString("\n")
	}

	if len(discrepancies) > 0 {
		sb.WriteString("## Discrepancies\n\n")
		for _, d := range discrepancies {
			sb.WriteString(fmt.Sprintf("- %s\n", d))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// HTML converts markdown into a standalone HTML fragment
func HTML(md string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank})
	return markdown.ToHTML([]byte(md), p, renderer)
}
