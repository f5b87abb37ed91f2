package export

import (
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/jpeetla/executive-web-scraper/internal/model"
)

const sheetName = "Executives"

// WriteXLSX writes rows to a single-sheet workbook.
func WriteXLSX(w io.Writer, rows []Row) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet(sheetName)
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	addRow(sheet, Header)
	for _, r := range rows {
		addRow(sheet, r.Values())
	}

	return eris.Wrap(file.Write(w), "export: write xlsx")
}

func addRow(sheet *xlsx.Sheet, values []string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

// ReadLeadsXLSX reads a lead list from the first sheet of a workbook.
func ReadLeadsXLSX(path string) ([]model.Lead, error) {
	xlFile, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "export: parse xlsx %s", path)
	}
	if len(xlFile.Sheets) == 0 {
		return nil, eris.New("export: xlsx has no sheets")
	}

	sheet := xlFile.Sheets[0]
	records := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		if row == nil {
			continue
		}
		record := make([]string, len(row.Cells))
		for i, cell := range row.Cells {
			record[i] = strings.TrimSpace(cell.String())
		}
		records = append(records, record)
	}
	return leadsFromRecords(records)
}
