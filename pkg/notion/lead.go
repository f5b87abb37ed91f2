package notion

import (
	"context"
	"strings"
	"time"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"

	"github.com/jpeetla/executive-web-scraper/internal/model"
)

// Lead queue status values.
const (
	StatusQueued   = "Queued"
	StatusRunning  = "Running"
	StatusComplete = "Complete"
	StatusFailed   = "Failed"
)

// Lead database property names.
const (
	PropName              = "Company name"
	PropDomain            = "Domain"
	PropInvestorReference = "Investor reference"
	PropCompanyReference  = "Companies reference"
	PropStatus            = "Status"
	PropExecutives        = "Executives"
	PropLastResolved      = "Last Resolved"
)

// PageToLead reads a lead from a queue page. Domain may be a URL or a rich
// text property; a URL is reduced to its host.
func PageToLead(page notionapi.Page) model.Lead {
	lead := model.Lead{
		NotionPageID:      string(page.ID),
		CompanyName:       titleText(page.Properties, PropName, "Name"),
		InvestorReference: richText(page.Properties, PropInvestorReference),
		CompanyReference:  richText(page.Properties, PropCompanyReference),
	}

	switch p := page.Properties[PropDomain].(type) {
	case *notionapi.URLProperty:
		lead.Domain = p.URL
	case *notionapi.RichTextProperty:
		lead.Domain = plain(p.RichText)
	}
	lead.Domain = hostOf(strings.TrimSpace(lead.Domain))

	return lead
}

// QueuedLeads returns every queued page of dbID as a lead. Pages with
// neither a domain nor a company name are dropped.
func QueuedLeads(ctx context.Context, c Client, dbID string) ([]model.Lead, error) {
	pages, err := QueryQueuedLeads(ctx, c, dbID)
	if err != nil {
		return nil, err
	}

	leads := make([]model.Lead, 0, len(pages))
	for _, p := range pages {
		lead := PageToLead(p)
		if lead.Identifier() == "" {
			continue
		}
		leads = append(leads, lead)
	}
	return leads, nil
}

// SetLeadStatus moves a queue page to status. When found is non-negative the
// executive count is written too.
func SetLeadStatus(ctx context.Context, c Client, pageID, status string, found int) error {
	now := notionapi.Date(time.Now())
	props := notionapi.Properties{
		PropStatus: notionapi.StatusProperty{
			Status: notionapi.Status{Name: status},
		},
		PropLastResolved: notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: &now},
		},
	}
	if found >= 0 {
		props[PropExecutives] = notionapi.NumberProperty{Number: float64(found)}
	}

	if _, err := c.UpdatePage(ctx, pageID, &notionapi.PageUpdateRequest{Properties: props}); err != nil {
		return eris.Wrapf(err, "notion: set page %s to %s", pageID, status)
	}
	return nil
}

// ImportLeads queues each lead as a new page of dbID and returns how many
// pages were created.
func ImportLeads(ctx context.Context, c Client, dbID string, leads []model.Lead) (int, error) {
	created := 0
	for _, lead := range leads {
		if ctx.Err() != nil {
			return created, eris.Wrap(ctx.Err(), "notion: import leads cancelled")
		}

		req := &notionapi.PageCreateRequest{
			Parent: notionapi.Parent{
				Type:       notionapi.ParentTypeDatabaseID,
				DatabaseID: notionapi.DatabaseID(dbID),
			},
			Properties: leadProperties(lead),
		}
		if _, err := c.CreatePage(ctx, req); err != nil {
			return created, eris.Wrapf(err, "notion: create page for %s", lead.Identifier())
		}
		created++
	}
	return created, nil
}

func leadProperties(lead model.Lead) notionapi.Properties {
	name := lead.CompanyName
	if name == "" {
		name = lead.Domain
	}

	props := notionapi.Properties{
		PropName: notionapi.TitleProperty{
			Type:  notionapi.PropertyTypeTitle,
			Title: textBlocks(name),
		},
		PropStatus: notionapi.StatusProperty{
			Status: notionapi.Status{Name: StatusQueued},
		},
	}
	if lead.Domain != "" {
		props[PropDomain] = notionapi.URLProperty{
			Type: notionapi.PropertyTypeURL,
			URL:  "https://" + lead.Domain,
		}
	}
	if lead.InvestorReference != "" {
		props[PropInvestorReference] = notionapi.RichTextProperty{
			Type:     notionapi.PropertyTypeRichText,
			RichText: textBlocks(lead.InvestorReference),
		}
	}
	if lead.CompanyReference != "" {
		props[PropCompanyReference] = notionapi.RichTextProperty{
			Type:     notionapi.PropertyTypeRichText,
			RichText: textBlocks(lead.CompanyReference),
		}
	}
	return props
}

func textBlocks(s string) []notionapi.RichText {
	return []notionapi.RichText{
		{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: s}},
	}
}

func titleText(props notionapi.Properties, names ...string) string {
	for _, n := range names {
		if tp, ok := props[n].(*notionapi.TitleProperty); ok {
			if s := plain(tp.Title); s != "" {
				return s
			}
		}
	}
	return ""
}

func richText(props notionapi.Properties, name string) string {
	if rp, ok := props[name].(*notionapi.RichTextProperty); ok {
		return plain(rp.RichText)
	}
	return ""
}

func plain(rt []notionapi.RichText) string {
	var b strings.Builder
	for _, r := range rt {
		b.WriteString(r.PlainText)
	}
	return strings.TrimSpace(b.String())
}

// hostOf strips a scheme, path and leading www. from a domain cell.
func hostOf(s string) string {
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimPrefix(strings.ToLower(s), "www.")
}
