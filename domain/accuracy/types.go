package accuracy

import (
	"fmt"
	"math"

	"gocnwi/domain/core"

	"github.com/goccy/go-json"
)

// Block keys carried by the exported evaluation features
const (
	BlockConfusionMatrix = "confusion_matrix"
	BlockLabels          = "labels"
	BlockProducers       = "producers"
	BlockConsumers       = "consumers"
	BlockOverall         = "overall"
	BlockOrder           = "order"
)

// RequiredBlocks lists the metric blocks a document must carry, in the order they are checked
var RequiredBlocks = []string{
	BlockConfusionMatrix,
	BlockLabels,
	BlockProducers,
	BlockConsumers,
	BlockOverall,
	BlockOrder,
}

// Accuracy is a per-class accuracy that may be undefined when the class has no samples
type Accuracy struct {
	Value   float64
	Defined bool
}

// DefinedAccuracy creates a defined accuracy
func DefinedAccuracy(v float64) Accuracy { return Accuracy{Value: v, Defined: true} }

// UndefinedAccuracy creates an undefined accuracy
func UndefinedAccuracy() Accuracy { return Accuracy{} }

// MarshalJSON encodes undefined values as null
func (a Accuracy) MarshalJSON() ([]byte, error) {
	if !a.Defined {
		return []byte("null"), nil
	}
	return json.Marshal(a.Value)
}

// UnmarshalJSON accepts a number or null
func (a *Accuracy) UnmarshalJSON(data []byte) error {
	var v *float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v == nil || math.IsNaN(*v) {
		*a = UndefinedAccuracy()
		return nil
	}
	*a = DefinedAccuracy(*v)
	return nil
}

// String renders the accuracy, "undefined" when it has no value
func (a Accuracy) String() string {
	if !a.Defined {
		return "undefined"
	}
	return fmt.Sprintf("%.4f", a.Value)
}

// ConfusionMatrix is a square count table: rows are reference classes, columns predicted
type ConfusionMatrix [][]int

// Size returns the row count
func (m ConfusionMatrix) Size() int { return len(m) }

// Validate checks that the matrix is square, of size n, with non-negative counts
func (m ConfusionMatrix) Validate(n int) error {
	if len(m) != n {
		return core.NewShapeMismatchError("confusion matrix rows", len(m), n)
	}
	for i, row := range m {
		if len(row) != n {
			return core.NewShapeMismatchError(fmt.Sprintf("confusion matrix row %d", i), len(row), n)
		}
		for j, v := range row {
			if v < 0 {
				return core.NewInvalidMetricBlockError(BlockConfusionMatrix, fmt.Sprintf("cell [%d][%d] is negative (%d)", i, j, v))
			}
		}
	}
	return nil
}

// Total returns the sum of all cells
func (m ConfusionMatrix) Total() int {
	total := 0
	for _, row := range m {
		for _, v := range row {
			total += v
		}
	}
	return total
}

// Correct returns the sum of the diagonal
func (m ConfusionMatrix) Correct() int {
	correct := 0
	for i := range m {
		if i < len(m[i]) {
			correct += m[i][i]
		}
	}
	return correct
}

// RowSum returns the reference total for class i
func (m ConfusionMatrix) RowSum(i int) int {
	sum := 0
	for _, v := range m[i] {
		sum += v
	}
	return sum
}

// ColumnSum returns the predicted total for class j
func (m ConfusionMatrix) ColumnSum(j int) int {
	sum := 0
	for _, row := range m {
		if j < len(row) {
			sum += row[j]
		}
	}
	return sum
}

// MetricsBundle is the parsed evaluation output of a classifier
type MetricsBundle struct {
	Labels          []string        `json:"labels"`
	Order           []int           `json:"order"`
	ConfusionMatrix ConfusionMatrix `json:"confusion_matrix"`
	Producers       []Accuracy      `json:"producers"`
	Consumers       []Accuracy      `json:"consumers"`
	Overall         float64         `json:"overall"`
}

// Metrics are accuracies derived from a confusion matrix
type Metrics struct {
	Overall   Accuracy   `json:"overall"`
	Producers []Accuracy `json:"producers"`
	Consumers []Accuracy `json:"consumers"`
}

// Derive recomputes overall, producer's and consumer's accuracy from the matrix.
// Classes with no reference (row) or predicted (column) samples are undefined.
func Derive(m ConfusionMatrix) Metrics {
	n := m.Size()
	metrics := Metrics{
		Producers: make([]Accuracy, n),
		Consumers: make([]Accuracy, n),
	}

	if total := m.Total(); total > 0 {
		metrics.Overall = DefinedAccuracy(float64(m.Correct()) / float64(total))
	}

	for i := 0; i < n; i++ {
		if i >= len(m[i]) {
			continue
		}
		if rs := m.RowSum(i); rs > 0 {
			metrics.Producers[i] = DefinedAccuracy(float64(m[i][i]) / float64(rs))
		}
		if cs := m.ColumnSum(i); cs > 0 {
			metrics.Consumers[i] = DefinedAccuracy(float64(m[i][i]) / float64(cs))
		}
	}
	return metrics
}

// Discrepancy records a reported metric that disagrees with the matrix
type Discrepancy struct {
	Metric   string   `json:"metric"`
	Label    string   `json:"label,omitempty"`
	Reported Accuracy `json:"reported"`
	Derived  Accuracy `json:"derived"`
}

func (d Discrepancy) String() string {
	if d.Label == "" {
		return fmt.Sprintf("%s: reported %s, matrix gives %s", d.Metric, d.Reported, d.Derived)
	}
	return fmt.Sprintf("%s[%s]: reported %s, matrix gives %s", d.Metric, d.Label, d.Reported, d.Derived)
}
