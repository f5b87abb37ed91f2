package export

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/jpeetla/executive-web-scraper/internal/model"
)

// WriteCSV writes rows with a header line.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}
	for _, r := range rows {
		if err := cw.Write(r.Values()); err != nil {
			return eris.Wrap(err, "export: write csv row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

// Lead list column names, matched case-insensitively.
const (
	colDomain            = "domain"
	colCompanyName       = "company name"
	colInvestorReference = "investor reference"
	colCompanyReference  = "companies reference"
)

// ReadLeads parses a lead list with the columns Domain, Company name,
// Investor reference and Companies reference. Only Domain or Company name is
// required. Rows without either are skipped and repeated domains keep their
// first row.
func ReadLeads(r io.Reader) ([]model.Lead, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "export: read leads csv")
	}
	return leadsFromRecords(records)
}

// ReadLeadsFile reads a lead list from a .csv or .xlsx file.
func ReadLeadsFile(path string) ([]model.Lead, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return ReadLeadsXLSX(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "export: open %s", path)
	}
	defer f.Close() //nolint:errcheck
	return ReadLeads(f)
}

func leadsFromRecords(records [][]string) ([]model.Lead, error) {
	if len(records) == 0 {
		return nil, eris.New("export: lead list is empty")
	}

	idx := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	_, hasDomain := idx[colDomain]
	_, hasName := idx[colCompanyName]
	if !hasDomain && !hasName {
		return nil, eris.New("export: lead list needs a Domain or Company name column")
	}

	get := func(rec []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	seen := make(map[string]struct{})
	var leads []model.Lead
	for _, rec := range records[1:] {
		lead := model.Lead{
			Domain:            get(rec, colDomain),
			CompanyName:       get(rec, colCompanyName),
			InvestorReference: get(rec, colInvestorReference),
			CompanyReference:  get(rec, colCompanyReference),
		}
		key := strings.ToLower(lead.Identifier())
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		leads = append(leads, lead)
	}
	return leads, nil
}
