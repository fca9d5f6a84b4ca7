package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	accuracyadapter "gocnwi/adapters/accuracy"
	"gocnwi/domain/accuracy"
	"gocnwi/domain/table"
	"gocnwi/internal"
)

// WriteTable writes the table as CSV, header first; indexed tables lead with the row labels
func WriteTable(w io.Writer, t *table.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(t.Records()); err != nil {
		return fmt.Errorf("failed to write table %s: %w", t.Name, err)
	}
	return nil
}

// WriteTableFile writes the table to path, creating parent directories
func WriteTableFile(path string, t *table.Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteTable(f, t); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// MetricFileNames names the files the metric tables are written to
type MetricFileNames struct {
	Confusion string
	Producers string
	Consumers string
	Overall   string
}

// DefaultMetricFileNames returns one distinct file per table
func DefaultMetricFileNames() MetricFileNames {
	return MetricFileNames{
		Confusion: accuracyadapter.ConfusionTableName + ".csv",
		Producers: accuracyadapter.ProducersTableName + ".csv",
		Consumers: accuracyadapter.ConsumersTableName + ".csv",
		Overall:   accuracyadapter.OverallTableName + ".csv",
	}
}

func (n MetricFileNames) withDefaults() MetricFileNames {
	d := DefaultMetricFileNames()
	if n.Confusion == "" {
		n.Confusion = d.Confusion
	}
	if n.Producers == "" {
		n.Producers = d.Producers
	}
	if n.Consumers == "" {
		n.Consumers = d.Consumers
	}
	if n.Overall == "" {
		n.Overall = d.Overall
	}
	return n
}

// WriteMetricTables renders the bundle's confusion, producers, consumers and overall tables and
// writes each to its own CSV file under outdir. It returns the written paths in that order.
func WriteMetricTables(outdir string, bundle *accuracy.MetricsBundle, names MetricFileNames) ([]string, error) {
	names = names.withDefaults()
	seen := make(map[string]bool, 4)
	for _, n := range []string{names.Confusion, names.Producers, names.Consumers, names.Overall} {
		if seen[n] {
			return nil, fmt.Errorf("metric tables would overwrite each other: %q used twice", n)
		}
		seen[n] = true
	}

	tables, err := accuracyadapter.NewFormatter().Tables(bundle)
	if err != nil {
		return nil, err
	}

	files := []string{names.Confusion, names.Producers, names.Consumers, names.Overall}
	paths := make([]string, len(tables))
	for i, t := range tables {
		paths[i] = filepath.Join(outdir, files[i])
		if err := WriteTableFile(paths[i], t); err != nil {
			return nil, err
		}
	}

	internal.DefaultLogger.With("export").Info("wrote %d metric tables to %s", len(paths), outdir)
	return paths, nil
}
