// Package people queries people-data providers for a company's leadership.
package people

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/jpeetla/executive-web-scraper/internal/model"
	"github.com/jpeetla/executive-web-scraper/pkg/apollo"
	"github.com/jpeetla/executive-web-scraper/pkg/crust"
)

// Gateway returns executives a provider knows for a domain. Records are
// tagged with the gateway's source.
type Gateway interface {
	Name() model.Source
	Search(ctx context.Context, domain string) ([]model.Executive, error)
}

// Build returns the gateways named in order. Unknown names are an error.
func Build(names []string, cc crust.Client, ac apollo.Client) ([]Gateway, error) {
	out := make([]Gateway, 0, len(names))
	for _, n := range names {
		switch model.Source(strings.ToLower(strings.TrimSpace(n))) {
		case model.SourceCrust:
			out = append(out, NewCrust(cc))
		case model.SourceApollo:
			out = append(out, NewApollo(ac))
		case model.SourceParaform:
			out = append(out, NewParaform(cc))
		default:
			return nil, eris.Errorf("people: unknown gateway %q", n)
		}
	}
	return out, nil
}

// Crust maps the Crustdata roster of a company as-is.
type Crust struct {
	client crust.Client
}

// NewCrust creates a Crust gateway.
func NewCrust(c crust.Client) *Crust { return &Crust{client: c} }

// Name implements Gateway.
func (g *Crust) Name() model.Source { return model.SourceCrust }

// Search implements Gateway.
func (g *Crust) Search(ctx context.Context, domain string) ([]model.Executive, error) {
	resp, err := g.client.SearchPeople(ctx, domain, 1)
	if err != nil {
		return nil, eris.Wrap(err, "people: crust search")
	}

	out := make([]model.Executive, 0, len(resp.Profiles))
	for _, p := range resp.Profiles {
		if strings.TrimSpace(p.Name) == "" {
			continue
		}
		out = append(out, model.Executive{
			Domain:   domain,
			Name:     strings.TrimSpace(p.Name),
			Title:    strings.TrimSpace(p.DefaultPositionTitle),
			LinkedIn: p.ProfileURL(),
			Source:   model.SourceCrust,
		})
	}
	return out, nil
}

// ApolloSeniorities are the seniority filters sent with every Apollo search.
var ApolloSeniorities = []string{
	"ceo",
	"cto",
	"coo",
	"chief people officer",
	"vp of talent acquisition",
	"vp of people",
	"chief of staff",
	"head of talent acquisition",
	"head of people",
	"vp of engineering",
	"senior recruiter",
	"vp of operations",
	"director of engineering",
	"recruiter",
	"hiring",
}

// Apollo searches Apollo's people index by organization domain.
type Apollo struct {
	client apollo.Client
}

// NewApollo creates an Apollo gateway.
func NewApollo(c apollo.Client) *Apollo { return &Apollo{client: c} }

// Name implements Gateway.
func (g *Apollo) Name() model.Source { return model.SourceApollo }

// Search implements Gateway.
func (g *Apollo) Search(ctx context.Context, domain string) ([]model.Executive, error) {
	resp, err := g.client.SearchPeople(ctx, apollo.PeopleSearchRequest{
		Seniorities:         ApolloSeniorities,
		OrganizationDomains: domain,
	})
	if err != nil {
		return nil, eris.Wrap(err, "people: apollo search")
	}

	out := make([]model.Executive, 0, len(resp.People))
	for _, p := range resp.People {
		if strings.TrimSpace(p.Name) == "" {
			continue
		}
		out = append(out, model.Executive{
			Domain:   domain,
			Name:     strings.TrimSpace(p.Name),
			Title:    strings.TrimSpace(p.Title),
			LinkedIn: p.LinkedInURL,
			Source:   model.SourceApollo,
		})
	}
	return out, nil
}
