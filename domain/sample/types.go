package sample

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gocnwi/domain/core"
)

// DefaultLabelField is the class-label property written by the training-data preparation step.
const DefaultLabelField = "land_cover"

// DefaultClassValueField holds the integer class code paired with each label.
const DefaultClassValueField = "value"

// DefaultExcludedFields lists bookkeeping and geometry properties that sampling exports carry
// alongside the predictors.
var DefaultExcludedFields = []string{
	".geo", "system:index", "CID", "land_value", "id", "geometry",
	"POINT_X", "POINT_Y", "isTraining", "value", "index",
}

// Record is one flat observation as exported by the sampling step
type Record map[string]interface{}

// Records is an ordered collection of records with a known column order
type Records struct {
	Columns []string `json:"columns"`
	Rows    []Record `json:"rows"`
}

// Options controls how records are turned into a sample set
type Options struct {
	LabelField      string   `json:"label_field"`
	ClassValueField string   `json:"class_value_field"`
	Exclude         []string `json:"exclude"`
	// Predictors, when set, is used as the predictor schema instead of inferring it.
	Predictors []string `json:"predictors,omitempty"`
}

// DefaultOptions returns the options matching the legacy land-cover exports
func DefaultOptions() Options {
	exclude := make([]string, len(DefaultExcludedFields))
	copy(exclude, DefaultExcludedFields)
	return Options{
		LabelField:      DefaultLabelField,
		ClassValueField: DefaultClassValueField,
		Exclude:         exclude,
	}
}

// Sample is one labeled observation
type Sample struct {
	Index      int                `json:"index"`
	Label      string             `json:"label"`
	ClassValue *int               `json:"class_value,omitempty"`
	Values     map[string]float64 `json:"values"`
}

// Set is an ordered sequence of samples sharing one predictor schema
type Set struct {
	LabelField string   `json:"label_field"`
	Predictors []string `json:"predictors"`
	Samples    []Sample `json:"samples"`
}

// FromRecords converts raw records into a validated sample set
func FromRecords(records Records, opts Options) (*Set, error) {
	if len(records.Rows) == 0 {
		return nil, core.ErrEmptySampleSet
	}
	if strings.TrimSpace(opts.LabelField) == "" {
		return nil, fmt.Errorf("%w: label field not configured", core.ErrMissingLabel)
	}

	predictors, err := resolvePredictors(records.Columns, opts)
	if err != nil {
		return nil, err
	}

	set := &Set{
		LabelField: opts.LabelField,
		Predictors: predictors,
		Samples:    make([]Sample, 0, len(records.Rows)),
	}

	for i, row := range records.Rows {
		label, ok := labelOf(row[opts.LabelField])
		if !ok {
			return nil, fmt.Errorf("%w: sample %d field %q", core.ErrMissingLabel, i, opts.LabelField)
		}

		s := Sample{
			Index:  i,
			Label:  label,
			Values: make(map[string]float64, len(predictors)),
		}

		if opts.ClassValueField != "" {
			if raw, present := row[opts.ClassValueField]; present && raw != nil {
				v, err := toFloat(raw)
				if err != nil || v != math.Trunc(v) {
					return nil, core.NewSchemaMismatchError(i, fmt.Sprintf("class value %q is not an integer: %v", opts.ClassValueField, raw))
				}
				cv := int(v)
				s.ClassValue = &cv
			}
		}

		for _, p := range predictors {
			raw, present := row[p]
			if !present || raw == nil {
				return nil, core.NewSchemaMismatchError(i, fmt.Sprintf("is missing predictor %q", p))
			}
			v, err := toFloat(raw)
			if err != nil {
				return nil, core.NewSchemaMismatchError(i, fmt.Sprintf("predictor %q is not numeric: %v", p, err))
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, core.NewNonFiniteValueError(i, p, v)
			}
			s.Values[p] = v
		}

		set.Samples = append(set.Samples, s)
	}

	return set, nil
}

func resolvePredictors(columns []string, opts Options) ([]string, error) {
	if len(opts.Predictors) > 0 {
		known := make(map[string]bool, len(columns))
		for _, c := range columns {
			known[c] = true
		}
		seen := make(map[string]bool, len(opts.Predictors))
		predictors := make([]string, 0, len(opts.Predictors))
		for _, p := range opts.Predictors {
			if !known[p] {
				return nil, fmt.Errorf("%w: %q", core.ErrUnknownPredictor, p)
			}
			if p == opts.LabelField {
				return nil, fmt.Errorf("%w: label field %q cannot be a predictor", core.ErrUnknownPredictor, p)
			}
			if !seen[p] {
				seen[p] = true
				predictors = append(predictors, p)
			}
		}
		return predictors, nil
	}

	excluded := make(map[string]bool, len(opts.Exclude)+2)
	for _, f := range opts.Exclude {
		excluded[f] = true
	}
	excluded[opts.LabelField] = true
	if opts.ClassValueField != "" {
		excluded[opts.ClassValueField] = true
	}

	var predictors []string
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		if excluded[c] || seen[c] {
			continue
		}
		seen[c] = true
		predictors = append(predictors, c)
	}
	if len(predictors) == 0 {
		return nil, fmt.Errorf("%w: every column is the label or excluded", core.ErrNoPredictors)
	}
	return predictors, nil
}

// Validate checks the invariants of a set built without FromRecords
func (s *Set) Validate() error {
	if s == nil || len(s.Samples) == 0 {
		return core.ErrEmptySampleSet
	}
	if len(s.Predictors) == 0 {
		return core.ErrNoPredictors
	}

	seen := make(map[string]bool, len(s.Predictors))
	for _, p := range s.Predictors {
		if seen[p] {
			return core.NewSchemaMismatchError(0, fmt.Sprintf("schema lists predictor %q twice", p))
		}
		seen[p] = true
	}

	for i, smp := range s.Samples {
		if strings.TrimSpace(smp.Label) == "" {
			return fmt.Errorf("%w: sample %d", core.ErrMissingLabel, i)
		}
		if len(smp.Values) != len(s.Predictors) {
			return core.NewSchemaMismatchError(i, fmt.Sprintf("has %d predictors, schema has %d", len(smp.Values), len(s.Predictors)))
		}
		for _, p := range s.Predictors {
			v, ok := smp.Values[p]
			if !ok {
				return core.NewSchemaMismatchError(i, fmt.Sprintf("is missing predictor %q", p))
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return core.NewNonFiniteValueError(i, p, v)
			}
		}
	}
	return nil
}

// Labels returns the distinct labels in first-seen order
func (s *Set) Labels() []string {
	seen := make(map[string]bool)
	var labels []string
	for _, smp := range s.Samples {
		if !seen[smp.Label] {
			seen[smp.Label] = true
			labels = append(labels, smp.Label)
		}
	}
	return labels
}

// Groups partitions sample positions by label, preserving input order within each group
func (s *Set) Groups() map[string][]int {
	groups := make(map[string][]int)
	for i, smp := range s.Samples {
		groups[smp.Label] = append(groups[smp.Label], i)
	}
	return groups
}

// Column extracts one predictor's values for the given sample positions
func (s *Set) Column(predictor string, positions []int) []float64 {
	out := make([]float64, len(positions))
	for i, pos := range positions {
		out[i] = s.Samples[pos].Values[predictor]
	}
	return out
}

// HasPredictor reports whether name is part of the schema
func (s *Set) HasPredictor(name string) bool {
	for _, p := range s.Predictors {
		if p == name {
			return true
		}
	}
	return false
}

// labelOf renders a raw label value as a string
func labelOf(v interface{}) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		t = strings.TrimSpace(t)
		return t, t != ""
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		s := strings.TrimSpace(fmt.Sprintf("%v", t))
		return s, s != ""
	}
}

func toFloat(v interface{}) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case int32:
		return float64(t), nil
	case uint64:
		return float64(t), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(t), 64)
	case fmt.Stringer:
		return strconv.ParseFloat(strings.TrimSpace(t.String()), 64)
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}
