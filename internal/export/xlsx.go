// Package export renders work logs as a spreadsheet.
package export

import (
	"fmt"
	"io"
	"strings"

	"worklog/internal/worklog"

	"github.com/xuri/excelize/v2"
)

const (
	SheetName   = "Work Log Summary"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	FileName    = "worklog_summary.xlsx"
)

// WriteXLSX writes one row per log: the date and its task contents joined by
// ", ".
func WriteXLSX(w io.Writer, logs []worklog.WorkLog) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetName, "A", "A", 15); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetName, "B", "B", 50); err != nil {
		return err
	}
	if err := f.SetSheetRow(SheetName, "A1", &[]any{"Date", "Tasks"}); err != nil {
		return err
	}

	for i, l := range logs {
		contents := make([]string, 0, len(l.Tasks))
		for _, t := range l.Tasks {
			contents = append(contents, t.Content)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &[]any{l.Date, strings.Join(contents, ", ")}); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	_, err := f.WriteTo(w)
	return err
}
