// Package export writes resolved executives to CSV, XLSX and JSON files and
// reads lead lists in the matching layout.
package export

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/jpeetla/executive-web-scraper/internal/model"
)

// Header is the column order of every tabular export.
var Header = []string{
	"Domain",
	"Executive_Name",
	"Role_Title",
	"LinkedIn",
	"Source",
	"Investor_Reference",
	"Company_Reference",
}

// Row is one exported executive with the provenance of its lead.
type Row struct {
	Domain            string `json:"domain"`
	ExecutiveName     string `json:"executive_name"`
	RoleTitle         string `json:"role_title"`
	LinkedIn          string `json:"linkedin"`
	Source            string `json:"source"`
	InvestorReference string `json:"investor_reference"`
	CompanyReference  string `json:"company_reference"`
}

// Values returns the row in Header order.
func (r Row) Values() []string {
	return []string{
		r.Domain,
		r.ExecutiveName,
		r.RoleTitle,
		r.LinkedIn,
		r.Source,
		r.InvestorReference,
		r.CompanyReference,
	}
}

// Rows flattens the executives resolved for lead into export rows. The
// lead's domain is used when an executive carries none.
func Rows(lead model.Lead, execs []model.Executive) []Row {
	out := make([]Row, 0, len(execs))
	for _, e := range execs {
		domain := e.Domain
		if domain == "" {
			domain = lead.Identifier()
		}
		out = append(out, Row{
			Domain:            domain,
			ExecutiveName:     e.Name,
			RoleTitle:         e.Title,
			LinkedIn:          e.LinkedIn,
			Source:            string(e.Source),
			InvestorReference: lead.InvestorReference,
			CompanyReference:  lead.CompanyReference,
		})
	}
	return out
}

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
)

// FormatFor picks the format from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", eris.Errorf("export: unsupported file type %q", filepath.Ext(path))
	}
}

// Write encodes rows to w in the given format.
func Write(w io.Writer, format Format, rows []Row) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, rows)
	case FormatXLSX:
		return WriteXLSX(w, rows)
	case FormatJSON:
		return WriteJSON(w, rows)
	default:
		return eris.Errorf("export: unsupported format %q", format)
	}
}

// WriteFile writes rows to path, choosing the format from its extension.
func WriteFile(path string, rows []Row) error {
	format, err := FormatFor(path)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	if err := Write(f, format, rows); err != nil {
		_ = f.Close()
		return err
	}
	return eris.Wrapf(f.Close(), "export: close %s", path)
}
