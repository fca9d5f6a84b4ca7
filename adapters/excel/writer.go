package excel

import (
	"fmt"
	"strings"

	"gocnwi/domain/table"

	"github.com/xuri/excelize/v2"
)

const maxSheetName = 31

// sheetName makes a table name acceptable as a worksheet name
func sheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, name)
	if name == "" {
		name = "table"
	}
	if len(name) > maxSheetName {
		name = name[:maxSheetName]
	}
	return name
}

// WriteWorkbook saves the tables to an xlsx file, one worksheet per table, header row in bold.
// Undefined cells are left empty and numbers stay numeric.
func WriteWorkbook(path string, tables ...*table.Table) error {
	if len(tables) == 0 {
		return fmt.Errorf("no tables to write")
	}

	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	used := make(map[string]bool, len(tables))
	for i, t := range tables {
		name := sheetName(t.Name)
		for n := 2; used[name]; n++ {
			suffix := fmt.Sprintf("_%d", n)
			base := sheetName(t.Name)
			if len(base)+len(suffix) > maxSheetName {
				base = base[:maxSheetName-len(suffix)]
			}
			name = base + suffix
		}
		used[name] = true

		idx, err := f.NewSheet(name)
		if err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
		if i == 0 {
			f.SetActiveSheet(idx)
		}
		if err := writeSheet(f, name, t, bold); err != nil {
			return err
		}
	}

	if !used[DefaultSheet] {
		if err := f.DeleteSheet(DefaultSheet); err != nil {
			return fmt.Errorf("failed to remove default sheet: %w", err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, t *table.Table, headerStyle int) error {
	header := t.Header()
	headerRow := make([]interface{}, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return fmt.Errorf("failed to write header of %s: %w", sheet, err)
	}
	if len(header) > 0 {
		last, err := excelize.CoordinatesToCellName(len(header), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
			return fmt.Errorf("failed to style header of %s: %w", sheet, err)
		}
	}

	for r, row := range t.Rows {
		values := make([]interface{}, 0, len(row.Cells)+1)
		if t.Indexed {
			values = append(values, row.Label)
		}
		for _, c := range row.Cells {
			values = append(values, c.Value())
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", r+1, sheet, err)
		}
	}
	return nil
}
