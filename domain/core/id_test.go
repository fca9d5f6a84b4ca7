package core

import (
	"errors"
	"testing"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 10000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}

	if len(ids) != numIDs {
		t.Errorf("Expected %d unique IDs, got %d", numIDs, len(ids))
	}
}

// TestIDIsEmpty tests ID emptiness check
func TestIDIsEmpty(t *testing.T) {
	if !ID("").IsEmpty() {
		t.Error("Expected empty ID to be empty")
	}
	if ID("not-empty").IsEmpty() {
		t.Error("Expected non-empty ID to not be empty")
	}
}

func TestParseReportID(t *testing.T) {
	id := NewID()
	parsed, err := ParseReportID("  " + id.String() + " ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed.String() != id.String() {
		t.Errorf("Expected %s, got %s", id, parsed)
	}

	for _, bad := range []string{"", "   ", "report-1"} {
		if _, err := ParseReportID(bad); err == nil {
			t.Errorf("Expected error for %q", bad)
		}
	}
}

func TestComputeRecordsHashIgnoresKeyOrder(t *testing.T) {
	a := []map[string]interface{}{{"ndvi": 0.1, "land_cover": "bog"}}
	b := []map[string]interface{}{{"land_cover": "bog", "ndvi": 0.1}}
	c := []map[string]interface{}{{"land_cover": "fen", "ndvi": 0.1}}

	if ComputeRecordsHash(a) != ComputeRecordsHash(b) {
		t.Error("Expected identical hashes for identical records")
	}
	if ComputeRecordsHash(a) == ComputeRecordsHash(c) {
		t.Error("Expected different hashes for different records")
	}
	if len(ComputeRecordsHash(a).Short()) != 12 {
		t.Error("Expected 12 character short hash")
	}
}

func TestErrorHelpers(t *testing.T) {
	err := NewDegenerateVarianceError("bog:fen", "elevation")
	if !errors.Is(err, ErrDegenerateVariance) || !IsSampleError(err) {
		t.Errorf("Expected degenerate variance sample error, got %v", err)
	}
	if IsMetricError(err) {
		t.Error("Did not expect a metric error")
	}

	err = NewMissingMetricBlockError("overall")
	if !IsMetricError(err) {
		t.Errorf("Expected metric error, got %v", err)
	}
	if !IsNotFoundError(NewNotFoundError("report", "x")) {
		t.Error("Expected not found error")
	}
}
