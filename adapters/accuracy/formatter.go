package accuracy

import (
	"fmt"
	"math"
	"reflect"
	"strconv"

	"gocnwi/adapters/featurecollection"
	"gocnwi/domain/core"
	domain "gocnwi/domain/accuracy"
	"gocnwi/domain/table"
	"gocnwi/internal"
)

// Table names, also used as default export file stems
const (
	ConfusionTableName = "confusion_matrix"
	ProducersTableName = "producers"
	ConsumersTableName = "consumers"
	OverallTableName   = "overall"
)

// Formatter turns the metric blocks of a classifier evaluation export into tables
type Formatter struct {
	logger *internal.Logger
}

// NewFormatter creates a new metrics formatter
func NewFormatter() *Formatter {
	return &Formatter{logger: internal.DefaultLogger.With("accuracy")}
}

// WithLogger replaces the formatter's logger
func (f *Formatter) WithLogger(logger *internal.Logger) *Formatter {
	f.logger = logger
	return f
}

// LoadCollection loads the metric blocks carried by a decoded feature collection
func (f *Formatter) LoadCollection(c *featurecollection.Collection) (*domain.MetricsBundle, error) {
	return f.Load(c.PropertyBags())
}

// Load merges the property bags and parses the metric blocks. Each block key must be carried
// once by exactly one bag; keys that are not metric blocks are ignored.
func (f *Formatter) Load(bags []featurecollection.Properties) (*domain.MetricsBundle, error) {
	blocks := make(map[string]interface{}, len(domain.RequiredBlocks))
	source := make(map[string]int, len(domain.RequiredBlocks))
	required := make(map[string]bool, len(domain.RequiredBlocks))
	for _, key := range domain.RequiredBlocks {
		required[key] = true
	}

	for i, bag := range bags {
		for _, key := range bag.Repeated {
			if required[key] {
				return nil, core.NewDuplicateMetricBlockError(key, i, i)
			}
		}
		for _, key := range bag.Keys {
			if !required[key] {
				continue
			}
			if first, dup := source[key]; dup {
				return nil, core.NewDuplicateMetricBlockError(key, first, i)
			}
			source[key] = i
			blocks[key] = bag.Values[key]
		}
	}

	for _, key := range domain.RequiredBlocks {
		if _, ok := blocks[key]; !ok {
			return nil, core.NewMissingMetricBlockError(key)
		}
	}

	labels, err := parseLabels(blocks[domain.BlockLabels])
	if err != nil {
		return nil, err
	}
	n := len(labels)

	matrix, err := parseMatrix(blocks[domain.BlockConfusionMatrix])
	if err != nil {
		return nil, err
	}
	if err := matrix.Validate(n); err != nil {
		return nil, err
	}

	producers, err := parseAccuracies(domain.BlockProducers, blocks[domain.BlockProducers], n)
	if err != nil {
		return nil, err
	}
	consumers, err := parseAccuracies(domain.BlockConsumers, blocks[domain.BlockConsumers], n)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		if matrix.RowSum(i) == 0 {
			producers[i] = domain.UndefinedAccuracy()
		}
		if matrix.ColumnSum(i) == 0 {
			consumers[i] = domain.UndefinedAccuracy()
		}
	}

	overall, err := parseFraction(domain.BlockOverall, blocks[domain.BlockOverall])
	if err != nil {
		return nil, err
	}

	order, err := parseOrder(blocks[domain.BlockOrder], n)
	if err != nil {
		return nil, err
	}

	f.logger.Debug("loaded metrics for %d classes (overall %.4f)", n, overall)

	return &domain.MetricsBundle{
		Labels:          labels,
		Order:           order,
		ConfusionMatrix: matrix,
		Producers:       producers,
		Consumers:       consumers,
		Overall:         overall,
	}, nil
}

// AsConfusionTable renders the matrix with the labels as both row index and columns
func (f *Formatter) AsConfusionTable(bundle *domain.MetricsBundle) (*table.Table, error) {
	n := len(bundle.Labels)
	if err := bundle.ConfusionMatrix.Validate(n); err != nil {
		return nil, err
	}

	out := table.NewIndexed(ConfusionTableName, "", bundle.Labels...)
	for i, label := range bundle.Labels {
		cells := make([]table.Cell, n)
		for j, v := range bundle.ConfusionMatrix[i] {
			cells[j] = table.Integer(v)
		}
		if err := out.Append(label, cells...); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// AsProducersTable renders producer's accuracy as a single row labeled "producers"
func (f *Formatter) AsProducersTable(bundle *domain.MetricsBundle) (*table.Table, error) {
	return accuracyRow(ProducersTableName, bundle.Labels, bundle.Producers)
}

// AsConsumersTable renders consumer's accuracy as a single row labeled "consumers"
func (f *Formatter) AsConsumersTable(bundle *domain.MetricsBundle) (*table.Table, error) {
	return accuracyRow(ConsumersTableName, bundle.Labels, bundle.Consumers)
}

// AsOverallTable renders overall accuracy as a one-cell table under the column "Overall"
func (f *Formatter) AsOverallTable(bundle *domain.MetricsBundle) *table.Table {
	out := table.NewIndexed(OverallTableName, "", "Overall")
	_ = out.Append("0", table.Number(bundle.Overall))
	return out
}

// OverallValue returns sum(diag)/sum(cells) of the confusion matrix. An empty matrix has no
// derived value, so the overall accuracy reported by the export is returned instead.
func (f *Formatter) OverallValue(bundle *domain.MetricsBundle) float64 {
	if derived := domain.Derive(bundle.ConfusionMatrix).Overall; derived.Defined {
		return derived.Value
	}
	return bundle.Overall
}

// Tables renders every metric table in export order
func (f *Formatter) Tables(bundle *domain.MetricsBundle) ([]*table.Table, error) {
	confusion, err := f.AsConfusionTable(bundle)
	if err != nil {
		return nil, err
	}
	producers, err := f.AsProducersTable(bundle)
	if err != nil {
		return nil, err
	}
	consumers, err := f.AsConsumersTable(bundle)
	if err != nil {
		return nil, err
	}
	return []*table.Table{confusion, producers, consumers, f.AsOverallTable(bundle)}, nil
}

// Verify compares the reported accuracies with those derived from the confusion matrix and
// returns every value that differs by more than tol
func (f *Formatter) Verify(bundle *domain.MetricsBundle, tol float64) []domain.Discrepancy {
	derived := domain.Derive(bundle.ConfusionMatrix)
	var out []domain.Discrepancy

	reported := domain.DefinedAccuracy(bundle.Overall)
	if !agree(reported, derived.Overall, tol) {
		out = append(out, domain.Discrepancy{Metric: OverallTableName, Reported: reported, Derived: derived.Overall})
	}

	compare := func(metric string, reported, derived []domain.Accuracy) {
		for i, label := range bundle.Labels {
			if i >= len(reported) || i >= len(derived) {
				return
			}
			if !agree(reported[i], derived[i], tol) {
				out = append(out, domain.Discrepancy{Metric: metric, Label: label, Reported: reported[i], Derived: derived[i]})
			}
		}
	}
	compare(ProducersTableName, bundle.Producers, derived.Producers)
	compare(ConsumersTableName, bundle.Consumers, derived.Consumers)

	if len(out) > 0 {
		f.logger.Warn("%d reported metric(s) disagree with the confusion matrix", len(out))
	}
	return out
}

func agree(a, b domain.Accuracy, tol float64) bool {
	if a.Defined != b.Defined {
		return false
	}
	return !a.Defined || math.Abs(a.Value-b.Value) <= tol
}

func accuracyRow(name string, labels []string, values []domain.Accuracy) (*table.Table, error) {
	if len(values) != len(labels) {
		return nil, core.NewShapeMismatchError(name, len(values), len(labels))
	}
	cells := make([]table.Cell, len(values))
	for i, v := range values {
		if v.Defined {
			cells[i] = table.Number(v.Value)
		} else {
			cells[i] = table.Undefined()
		}
	}
	out := table.NewIndexed(name, "", labels...)
	if err := out.Append(name, cells...); err != nil {
		return nil, err
	}
	return out, nil
}

// Block parsing. Decoded JSON yields []interface{} and float64; slices built in Go are
// accepted too.

func asSlice(key string, v interface{}) ([]interface{}, error) {
	if items, ok := v.([]interface{}); ok {
		return items, nil
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Kind() != reflect.Slice {
		return nil, core.NewInvalidMetricBlockError(key, fmt.Sprintf("must be an array, got %T", v))
	}
	items := make([]interface{}, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, nil
}

func asNumber(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case int32:
		return float64(t), true
	default:
		return 0, false
	}
}

func asInteger(v interface{}) (int, bool) {
	f, ok := asNumber(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

func parseLabels(v interface{}) ([]string, error) {
	items, err := asSlice(domain.BlockLabels, v)
	if err != nil {
		return nil, err
	}
	labels := make([]string, len(items))
	seen := make(map[string]int, len(items))
	for i, item := range items {
		switch t := item.(type) {
		case string:
			labels[i] = t
		default:
			f, ok := asNumber(item)
			if !ok {
				return nil, core.NewInvalidMetricBlockError(domain.BlockLabels, fmt.Sprintf("entry %d is %T, not a string", i, item))
			}
			labels[i] = strconv.FormatFloat(f, 'f', -1, 64)
		}
		if first, dup := seen[labels[i]]; dup {
			return nil, core.NewInvalidMetricBlockError(domain.BlockLabels, fmt.Sprintf("entry %d repeats %q from entry %d", i, labels[i], first))
		}
		seen[labels[i]] = i
	}
	return labels, nil
}

func parseMatrix(v interface{}) (domain.ConfusionMatrix, error) {
	rows, err := asSlice(domain.BlockConfusionMatrix, v)
	if err != nil {
		return nil, err
	}
	matrix := make(domain.ConfusionMatrix, len(rows))
	for i, row := range rows {
		cells, err := asSlice(domain.BlockConfusionMatrix, row)
		if err != nil {
			return nil, core.NewInvalidMetricBlockError(domain.BlockConfusionMatrix, fmt.Sprintf("row %d is not an array", i))
		}
		matrix[i] = make([]int, len(cells))
		for j, cell := range cells {
			count, ok := asInteger(cell)
			if !ok {
				return nil, core.NewInvalidMetricBlockError(domain.BlockConfusionMatrix, fmt.Sprintf("cell [%d][%d] is not an integer count: %v", i, j, cell))
			}
			matrix[i][j] = count
		}
	}
	return matrix, nil
}

func parseAccuracies(key string, v interface{}, n int) ([]domain.Accuracy, error) {
	items, err := asSlice(key, v)
	if err != nil {
		return nil, err
	}
	if len(items) != n {
		return nil, core.NewShapeMismatchError(key, len(items), n)
	}
	out := make([]domain.Accuracy, n)
	for i, item := range items {
		if item == nil {
			continue
		}
		f, ok := asNumber(item)
		if !ok {
			return nil, core.NewInvalidMetricBlockError(key, fmt.Sprintf("entry %d is %T, not a number", i, item))
		}
		if math.IsNaN(f) {
			continue
		}
		if f < 0 || f > 1 {
			return nil, core.NewInvalidMetricBlockError(key, fmt.Sprintf("entry %d is %v, outside [0,1]", i, f))
		}
		out[i] = domain.DefinedAccuracy(f)
	}
	return out, nil
}

func parseFraction(key string, v interface{}) (float64, error) {
	f, ok := asNumber(v)
	if !ok {
		return 0, core.NewInvalidMetricBlockError(key, fmt.Sprintf("must be a number, got %T", v))
	}
	if math.IsNaN(f) || f < 0 || f > 1 {
		return 0, core.NewInvalidMetricBlockError(key, fmt.Sprintf("is %v, outside [0,1]", f))
	}
	return f, nil
}

func parseOrder(v interface{}, n int) ([]int, error) {
	items, err := asSlice(domain.BlockOrder, v)
	if err != nil {
		return nil, err
	}
	if len(items) != n {
		return nil, core.NewShapeMismatchError(domain.BlockOrder, len(items), n)
	}
	order := make([]int, n)
	for i, item := range items {
		code, ok := asInteger(item)
		if !ok {
			return nil, core.NewInvalidMetricBlockError(domain.BlockOrder, fmt.Sprintf("entry %d is not an integer class value: %v", i, item))
		}
		order[i] = code
	}
	return order, nil
}
