package ports

import (
	"gocnwi/domain/sample"
)

// SampleSource yields the flat records of a sampling export
type SampleSource interface {
	ReadRecords() (sample.Records, error)
}
