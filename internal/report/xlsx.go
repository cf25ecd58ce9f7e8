package report

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/b4b-group/leadrank/internal/model"
)

// WriteWorkbook writes both tables into one XLSX workbook, sheet
// "Detailed" and sheet "Condensed". Same row filter and column model as
// the CSV outputs.
func WriteWorkbook(path string, records []model.RankedRecord) error {
	rows := filterRows(records)

	f := xlsx.NewFile()
	for _, sheet := range []struct {
		name      string
		condensed bool
	}{
		{"Detailed", false},
		{"Condensed", true},
	} {
		s, err := f.AddSheet(sheet.name)
		if err != nil {
			return eris.Wrapf(err, "report: add sheet %s", sheet.name)
		}
		fillSheet(s, rows, sheet.condensed)
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "report: save workbook %s", path)
	}

	zap.L().Info("report: wrote workbook",
		zap.String("path", path),
		zap.Int("rows", len(rows)),
	)
	return nil
}

func fillSheet(s *xlsx.Sheet, rows []model.RankedRecord, condensed bool) {
	cols := tableColumns(rows, condensed)

	header := s.AddRow()
	for _, c := range cols {
		header.AddCell().Value = c.name
	}

	for _, rec := range rows {
		row := s.AddRow()
		for _, c := range cols {
			row.AddCell().Value = c.value(rec)
		}
	}
}
