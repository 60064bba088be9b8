package output

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	cerrors "github.com/kvolkov/leadharvest/internal/errors"
	"github.com/kvolkov/leadharvest/internal/scraper"
)

// ExcelSink writes successes to a Contacts sheet and failures to a
// Failures sheet in one workbook.
type ExcelSink struct {
	path string
}

// NewExcelSink writes the workbook to the given path on every run.
func NewExcelSink(path string) *ExcelSink {
	return &ExcelSink{path: path}
}

// Name implements Sink.
func (s *ExcelSink) Name() string { return "excel" }

// Write implements Sink.
func (s *ExcelSink) Write(_ context.Context, result *scraper.RunResult) error {
	f := excelize.NewFile()
	defer f.Close()

	const contacts = "Contacts"
	if err := f.SetSheetName("Sheet1", contacts); err != nil {
		return cerrors.New(cerrors.KindCollaborator, "output.excel", err)
	}

	header := []interface{}{"URL", "Title", "Emails", "Phones", "Social Links", "Raw"}
	if err := f.SetSheetRow(contacts, "A1", &header); err != nil {
		return cerrors.New(cerrors.KindCollaborator, "output.excel", err)
	}
	for i, res := range result.Successes {
		rec := flatten(res)
		row := []interface{}{rec.URL, rec.Title, rec.Emails, rec.Phones, rec.Social, rec.Raw}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(contacts, cell, &row); err != nil {
			return cerrors.New(cerrors.KindCollaborator, "output.excel", err)
		}
	}

	if len(result.Failures) > 0 {
		const failures = "Failures"
		if _, err := f.NewSheet(failures); err != nil {
			return cerrors.New(cerrors.KindCollaborator, "output.excel", err)
		}
		fh := []interface{}{"URL", "Reason", "Attempts"}
		if err := f.SetSheetRow(failures, "A1", &fh); err != nil {
			return cerrors.New(cerrors.KindCollaborator, "output.excel", err)
		}
		for i, fail := range result.Failures {
			row := []interface{}{fail.URL, fail.Reason, fail.Attempts}
			cell := fmt.Sprintf("A%d", i+2)
			if err := f.SetSheetRow(failures, cell, &row); err != nil {
				return cerrors.New(cerrors.KindCollaborator, "output.excel", err)
			}
		}
	}

	if err := f.SaveAs(s.path); err != nil {
		return cerrors.New(cerrors.KindCollaborator, "output.excel", err)
	}
	return nil
}

// Close implements Sink.
func (s *ExcelSink) Close() error { return nil }
