package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound       = errors.New("resource not found")
	ErrReportNotFound = fmt.Errorf("%w: report", ErrNotFound)

	// Sample set errors
	ErrEmptySampleSet        = errors.New("empty sample set")
	ErrInsufficientClasses   = errors.New("insufficient classes for separability")
	ErrDegenerateVariance    = errors.New("degenerate variance")
	ErrSchemaMismatch        = errors.New("sample schema mismatch")
	ErrNonFiniteValue        = errors.New("non-finite predictor value")
	ErrMissingLabel          = errors.New("sample has no class label")
	ErrNoPredictors          = errors.New("no predictor fields")
	ErrUnknownPredictor      = errors.New("unknown predictor")
	ErrInvalidVariancePolicy = errors.New("invalid variance policy")
	ErrNonFiniteStatistic    = errors.New("non-finite separability statistic")

	// Metric block errors
	ErrMissingMetricBlock   = errors.New("missing metric block")
	ErrDuplicateMetricBlock = errors.New("duplicate metric block")
	ErrInvalidMetricBlock   = errors.New("invalid metric block")
	ErrShapeMismatch        = errors.New("shape mismatch")

	// Input document errors
	ErrInvalidFeatureCollection = errors.New("invalid feature collection")
	ErrUnsupportedFormat        = errors.New("unsupported input format")
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewInsufficientClassesError(labelField string, found []string) error {
	return fmt.Errorf("%w: field %q has %d distinct label(s) %v, need at least 2",
		ErrInsufficientClasses, labelField, len(found), found)
}

func NewDegenerateVarianceError(pair, predictor string) error {
	return fmt.Errorf("%w: predictor %q has zero standard deviation for class pair %s",
		ErrDegenerateVariance, predictor, pair)
}

func NewNonFiniteStatisticError(pair, predictor string) error {
	return fmt.Errorf("%w: predictor %q for class pair %s", ErrNonFiniteStatistic, predictor, pair)
}

func NewSchemaMismatchError(index int, reason string) error {
	return fmt.Errorf("%w: sample %d %s", ErrSchemaMismatch, index, reason)
}

func NewNonFiniteValueError(index int, predictor string, value float64) error {
	return fmt.Errorf("%w: sample %d predictor %q is %v", ErrNonFiniteValue, index, predictor, value)
}

func NewMissingMetricBlockError(key string) error {
	return fmt.Errorf("%w: %q", ErrMissingMetricBlock, key)
}

func NewDuplicateMetricBlockError(key string, first, second int) error {
	return fmt.Errorf("%w: %q appears in feature %d and feature %d", ErrDuplicateMetricBlock, key, first, second)
}

func NewInvalidMetricBlockError(key string, reason string) error {
	return fmt.Errorf("%w: %q %s", ErrInvalidMetricBlock, key, reason)
}

func NewShapeMismatchError(what string, got, want int) error {
	return fmt.Errorf("%w: %s has size %d, expected %d", ErrShapeMismatch, what, got, want)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsSampleError reports whether err rejects the sample set itself.
func IsSampleError(err error) bool {
	return errors.Is(err, ErrEmptySampleSet) ||
		errors.Is(err, ErrInsufficientClasses) ||
		errors.Is(err, ErrDegenerateVariance) ||
		errors.Is(err, ErrNonFiniteStatistic) ||
		errors.Is(err, ErrSchemaMismatch) ||
		errors.Is(err, ErrNonFiniteValue) ||
		errors.Is(err, ErrMissingLabel) ||
		errors.Is(err, ErrNoPredictors) ||
		errors.Is(err, ErrUnknownPredictor)
}

// IsMetricError reports whether err rejects an exported metric document.
func IsMetricError(err error) bool {
	return errors.Is(err, ErrMissingMetricBlock) ||
		errors.Is(err, ErrDuplicateMetricBlock) ||
		errors.Is(err, ErrInvalidMetricBlock) ||
		errors.Is(err, ErrShapeMismatch)
}
