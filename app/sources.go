package app

import (
	"fmt"
	"path/filepath"
	"strings"

	"gocnwi/adapters/excel"
	"gocnwi/adapters/featurecollection"
	"gocnwi/domain/core"
	"gocnwi/ports"
)

// OpenSamples picks a sample source by file extension: GeoJSON feature collections, CSV or
// Excel workbooks. sheet selects the worksheet of a workbook and is ignored otherwise.
func OpenSamples(path, sheet string) (ports.SampleSource, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case ext == ".geojson" || ext == ".json":
		return featurecollection.NewFileReader(path), nil
	case excel.Supports(path):
		return excel.NewDataReader(path).WithSheet(sheet), nil
	default:
		return nil, fmt.Errorf("%w: %q (expected .geojson, .json, .csv or .xlsx)", core.ErrUnsupportedFormat, ext)
	}
}
