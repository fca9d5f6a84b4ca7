package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// ReportID identifies a persisted analysis report.
type ReportID ID

func (id ReportID) String() string { return ID(id).String() }

// ParseReportID parses and validates a report identifier.
func ParseReportID(s string) (ReportID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("report ID cannot be empty")
	}
	if _, err := uuid.Parse(s); err != nil {
		return "", fmt.Errorf("report ID %q is not a UUID: %w", s, err)
	}
	return ReportID(s), nil
}

// ReportKind defines the analysis a report holds
type ReportKind string

const (
	ReportSeparability ReportKind = "separability"
	ReportAccuracy     ReportKind = "accuracy"
)

// Valid reports whether k is a known kind.
func (k ReportKind) Valid() bool {
	return k == ReportSeparability || k == ReportAccuracy
}
