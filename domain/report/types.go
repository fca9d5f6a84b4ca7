package report

import (
	"fmt"
	"strings"
	"time"

	"gocnwi/domain/core"

	"github.com/goccy/go-json"
)

// Report is a persisted analysis result: the structured payload plus its rendered markdown
type Report struct {
	ID        core.ReportID   `json:"id" db:"id"`
	Kind      core.ReportKind `json:"kind" db:"kind"`
	Name      string          `json:"name" db:"name"`
	InputHash core.Hash       `json:"input_hash" db:"input_hash"`
	Payload   json.RawMessage `json:"payload" db:"payload"`
	Markdown  string          `json:"markdown" db:"markdown"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// New creates a report of the given kind, encoding payload as JSON
func New(kind core.ReportKind, name string, inputHash core.Hash, payload interface{}, markdown string) (*Report, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown report kind %q", kind)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", kind, err)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = fmt.Sprintf("%s %s", kind, inputHash.Short())
	}
	return &Report{
		ID:        core.ReportID(core.NewID()),
		Kind:      kind,
		Name:      name,
		InputHash: inputHash,
		Payload:   data,
		Markdown:  markdown,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Summary is the listing view of a report
type Summary struct {
	ID        core.ReportID   `json:"id" db:"id"`
	Kind      core.ReportKind `json:"kind" db:"kind"`
	Name      string          `json:"name" db:"name"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}
