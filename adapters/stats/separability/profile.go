package separability

import (
	"fmt"
	"math"
	"sort"

	"gocnwi/domain/core"
	"gocnwi/domain/sample"
	"gocnwi/domain/table"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
	gstat "gonum.org/v1/gonum/stat"
)

// ClassProfile summarises one predictor within one class
type ClassProfile struct {
	Label     string  `json:"label"`
	Predictor string  `json:"predictor"`
	Count     int     `json:"count"`
	Mean      float64 `json:"mean"`
	StdDev    float64 `json:"std_dev"`
	Min       float64 `json:"min"`
	Median    float64 `json:"median"`
	Max       float64 `json:"max"`
}

// Profiles summarises every predictor per class, classes in first-seen order
func Profiles(set *sample.Set) ([]ClassProfile, error) {
	if err := set.Validate(); err != nil {
		return nil, err
	}

	groups := set.Groups()
	var profiles []ClassProfile
	for _, label := range set.Labels() {
		for _, predictor := range set.Predictors {
			data := stats.Float64Data(set.Column(predictor, groups[label]))

			mean, err := data.Mean()
			if err != nil {
				return nil, fmt.Errorf("profile %s/%s: %w", label, predictor, err)
			}
			stdDev, err := data.StandardDeviationPopulation()
			if err != nil {
				return nil, fmt.Errorf("profile %s/%s: %w", label, predictor, err)
			}
			min, _ := data.Min()
			max, _ := data.Max()
			median, err := data.Median()
			if err != nil {
				return nil, fmt.Errorf("profile %s/%s: %w", label, predictor, err)
			}

			profiles = append(profiles, ClassProfile{
				Label:     label,
				Predictor: predictor,
				Count:     data.Len(),
				Mean:      mean,
				StdDev:    stdDev,
				Min:       min,
				Median:    median,
				Max:       max,
			})
		}
	}
	return profiles, nil
}

// ProfilesTable converts class profiles into the generic tabular form
func ProfilesTable(profiles []ClassProfile) *table.Table {
	out := table.New("class_profiles", "label", "band", "count", "mean", "std", "min", "median", "max")
	for _, p := range profiles {
		_ = out.Append("",
			table.Text(p.Label), table.Text(p.Predictor), table.Integer(p.Count),
			table.Number(p.Mean), table.Number(p.StdDev), table.Number(p.Min),
			table.Number(p.Median), table.Number(p.Max))
	}
	return out
}

// Histogram is the binned distribution of one predictor, overall and per class
type Histogram struct {
	Predictor string               `json:"predictor"`
	Edges     []float64            `json:"edges"`
	Counts    []float64            `json:"counts"`
	Labels    []string             `json:"labels"`
	ByClass   map[string][]float64 `json:"by_class"`
}

// ComputeHistogram bins one predictor into equal-width bins spanning its observed range
func ComputeHistogram(set *sample.Set, predictor string, bins int) (*Histogram, error) {
	if err := set.Validate(); err != nil {
		return nil, err
	}
	if !set.HasPredictor(predictor) {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownPredictor, predictor)
	}
	if bins < 1 {
		return nil, fmt.Errorf("histogram needs at least one bin, got %d", bins)
	}

	all := make([]int, len(set.Samples))
	for i := range all {
		all[i] = i
	}
	values := set.Column(predictor, all)

	lo, hi := floats.Min(values), floats.Max(values)
	if lo == hi {
		bins = 1
	}
	edges := make([]float64, bins+1)
	floats.Span(edges, lo, hi)
	// the upper edge is exclusive, nudge it past the maximum
	edges[bins] = math.Nextafter(hi, math.Inf(1))

	h := &Histogram{
		Predictor: predictor,
		Edges:     edges,
		Counts:    binCounts(edges, values),
		Labels:    set.Labels(),
		ByClass:   make(map[string][]float64),
	}
	groups := set.Groups()
	for _, label := range h.Labels {
		h.ByClass[label] = binCounts(edges, set.Column(predictor, groups[label]))
	}
	return h, nil
}

func binCounts(edges, values []float64) []float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return gstat.Histogram(nil, edges, sorted, nil)
}

// Table converts the histogram into rows of bin bounds and counts, one column per class
func (h *Histogram) Table() *table.Table {
	columns := append([]string{"lower", "upper", "count"}, h.Labels...)
	out := table.New("histogram_"+h.Predictor, columns...)
	for i, count := range h.Counts {
		cells := []table.Cell{table.Number(h.Edges[i]), table.Number(h.Edges[i+1]), table.Integer(int(count))}
		for _, label := range h.Labels {
			cells = append(cells, table.Integer(int(h.ByClass[label][i])))
		}
		_ = out.Append("", cells...)
	}
	return out
}
