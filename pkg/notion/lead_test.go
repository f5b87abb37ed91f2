package notion

import (
	"context"
	"testing"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jpeetla/executive-web-scraper/internal/model"
)

func rich(s string) []notionapi.RichText {
	return []notionapi.RichText{{PlainText: s}}
}

func TestPageToLead_AllFields(t *testing.T) {
	page := notionapi.Page{
		ID: "page-123",
		Properties: notionapi.Properties{
			PropName: &notionapi.TitleProperty{
				Title: []notionapi.RichText{{PlainText: "Acme"}, {PlainText: " Corp"}},
			},
			PropDomain:            &notionapi.URLProperty{URL: "https://www.Acme.com/about"},
			PropInvestorReference: &notionapi.RichTextProperty{RichText: rich("Fund I")},
			PropCompanyReference:  &notionapi.RichTextProperty{RichText: rich(" Portfolio ")},
		},
	}

	assert.Equal(t, model.Lead{
		Domain:            "acme.com",
		CompanyName:       "Acme Corp",
		InvestorReference: "Fund I",
		CompanyReference:  "Portfolio",
		NotionPageID:      "page-123",
	}, PageToLead(page))
}

func TestPageToLead_RichTextDomainAndNameFallback(t *testing.T) {
	page := notionapi.Page{
		ID: "page-456",
		Properties: notionapi.Properties{
			"Name":     &notionapi.TitleProperty{Title: rich("Globex")},
			PropDomain: &notionapi.RichTextProperty{RichText: rich("globex.io")},
		},
	}

	lead := PageToLead(page)
	assert.Equal(t, "globex.io", lead.Domain)
	assert.Equal(t, "Globex", lead.CompanyName)
}

func TestPageToLead_MissingFields(t *testing.T) {
	lead := PageToLead(notionapi.Page{ID: "page-789", Properties: notionapi.Properties{}})
	assert.Equal(t, "page-789", lead.NotionPageID)
	assert.Empty(t, lead.Identifier())
}

func TestQueuedLeads(t *testing.T) {
	mc := new(MockClient)
	ctx := context.Background()

	mc.On("QueryDatabase", ctx, "db-leads", mock.Anything).Return(&notionapi.DatabaseQueryResponse{
		Results: []notionapi.Page{
			{ID: "p1", Properties: notionapi.Properties{PropDomain: &notionapi.URLProperty{URL: "acme.com"}}},
			{ID: "p2", Properties: notionapi.Properties{}},
			{ID: "p3", Properties: notionapi.Properties{PropName: &notionapi.TitleProperty{Title: rich("Initech")}}},
		},
	}, nil).Once()

	leads, err := QueuedLeads(ctx, mc, "db-leads")
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Equal(t, "acme.com", leads[0].Domain)
	assert.Equal(t, "Initech", leads[1].Identifier())
	mc.AssertExpectations(t)
}

func TestQueuedLeads_Error(t *testing.T) {
	mc := new(MockClient)
	ctx := context.Background()
	mc.On("QueryDatabase", ctx, "db-err", mock.Anything).Return(nil, assert.AnError).Once()

	leads, err := QueuedLeads(ctx, mc, "db-err")
	assert.Error(t, err)
	assert.Nil(t, leads)
}

func TestSetLeadStatus(t *testing.T) {
	mc := new(MockClient)
	ctx := context.Background()

	mc.On("UpdatePage", ctx, "page-1", mock.MatchedBy(func(req *notionapi.PageUpdateRequest) bool {
		st, ok := req.Properties[PropStatus].(notionapi.StatusProperty)
		if !ok || st.Status.Name != StatusComplete {
			return false
		}
		n, ok := req.Properties[PropExecutives].(notionapi.NumberProperty)
		_, dated := req.Properties[PropLastResolved]
		return ok && n.Number == 7 && dated
	})).Return(&notionapi.Page{ID: "page-1"}, nil).Once()

	require.NoError(t, SetLeadStatus(ctx, mc, "page-1", StatusComplete, 7))
	mc.AssertExpectations(t)
}

func TestSetLeadStatus_NoCount(t *testing.T) {
	mc := new(MockClient)
	ctx := context.Background()

	mc.On("UpdatePage", ctx, "page-2", mock.MatchedBy(func(req *notionapi.PageUpdateRequest) bool {
		_, counted := req.Properties[PropExecutives]
		return !counted
	})).Return(nil, assert.AnError).Once()

	err := SetLeadStatus(ctx, mc, "page-2", StatusRunning, -1)
	assert.ErrorContains(t, err, "notion: set page page-2 to Running")
	mc.AssertExpectations(t)
}

func TestImportLeads(t *testing.T) {
	mc := new(MockClient)
	ctx := context.Background()

	var reqs []*notionapi.PageCreateRequest
	mc.On("CreatePage", ctx, mock.AnythingOfType("*notionapi.PageCreateRequest")).
		Run(func(args mock.Arguments) {
			reqs = append(reqs, args.Get(1).(*notionapi.PageCreateRequest))
		}).
		Return(&notionapi.Page{ID: "new"}, nil).Twice()

	n, err := ImportLeads(ctx, mc, "db-1", []model.Lead{
		{Domain: "acme.com", InvestorReference: "Fund I"},
		{CompanyName: "Globex"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, reqs, 2)

	assert.Equal(t, notionapi.DatabaseID("db-1"), reqs[0].Parent.DatabaseID)
	title := reqs[0].Properties[PropName].(notionapi.TitleProperty)
	assert.Equal(t, "acme.com", title.Title[0].Text.Content)
	url := reqs[0].Properties[PropDomain].(notionapi.URLProperty)
	assert.Equal(t, "https://acme.com", url.URL)
	status := reqs[0].Properties[PropStatus].(notionapi.StatusProperty)
	assert.Equal(t, StatusQueued, status.Status.Name)
	assert.Contains(t, reqs[0].Properties, PropInvestorReference)

	_, hasDomain := reqs[1].Properties[PropDomain]
	assert.False(t, hasDomain)
	mc.AssertExpectations(t)
}

func TestImportLeads_Errors(t *testing.T) {
	mc := new(MockClient)
	ctx := context.Background()
	mc.On("CreatePage", ctx, mock.Anything).Return(nil, assert.AnError).Once()

	n, err := ImportLeads(ctx, mc, "db-1", []model.Lead{{Domain: "acme.com"}})
	assert.ErrorContains(t, err, "notion: create page for acme.com")
	assert.Zero(t, n)

	cctx, cancel := context.WithCancel(context.Background())
	cancel()
	n, err = ImportLeads(cctx, mc, "db-1", []model.Lead{{Domain: "acme.com"}})
	assert.ErrorContains(t, err, "cancelled")
	assert.Zero(t, n)
}

func TestHostOf(t *testing.T) {
	assert.Equal(t, "acme.com", hostOf("https://www.acme.com/team?x=1"))
	assert.Equal(t, "acme.com", hostOf("ACME.com"))
	assert.Empty(t, hostOf(""))
}
