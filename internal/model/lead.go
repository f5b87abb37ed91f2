package model

// Lead is one company queued for resolution, with the provenance columns
// that are carried through to export.
type Lead struct {
	Domain            string `json:"domain"`
	CompanyName       string `json:"company_name,omitempty"`
	InvestorReference string `json:"investor_reference,omitempty"`
	CompanyReference  string `json:"company_reference,omitempty"`
	NotionPageID      string `json:"notion_page_id,omitempty"`
}

// Identifier returns the value handed to the resolver: the domain when
// known, otherwise the company name.
func (l Lead) Identifier() string {
	if l.Domain != "" {
		return l.Domain
	}
	return l.CompanyName
}
