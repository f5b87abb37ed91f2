package people

import (
	"context"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/jpeetla/executive-web-scraper/internal/model"
	"github.com/jpeetla/executive-web-scraper/pkg/crust"
)

// ParaformTitles are the current-position titles the Paraform roster keeps.
var ParaformTitles = []string{
	"Founder",
	"Co-Founder",
	"CEO",
	"CTO",
	"COO",
	"Chief People Officer",
	"VP of Talent",
	"VP of People",
	"Chief of staff",
	"Head of Talent",
	"Vice President of Talent",
	"Head of People",
	"VP of Engineering",
	"VP of Operations",
	"Director of Engineering",
	"CFO",
	"VP of Sales",
	"CMO",
}

var paraformTitleRes = compileTitles(ParaformTitles)

// compileTitles builds whole-word matchers so "cto" does not match "director".
func compileTitles(titles []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(titles))
	for i, t := range titles {
		out[i] = regexp.MustCompile(`(?i)(^|[^\p{L}])` + regexp.QuoteMeta(strings.ToLower(t)) + `($|[^\p{L}])`)
	}
	return out
}

func titleMatches(title string) bool {
	for _, re := range paraformTitleRes {
		if re.MatchString(title) {
			return true
		}
	}
	return false
}

// Paraform narrows a Crustdata roster to leadership at the company the
// roster mostly points at. Search results for a domain often include people
// at similarly named companies; the most common current employer id wins.
type Paraform struct {
	client crust.Client
}

// NewParaform creates a Paraform gateway.
func NewParaform(c crust.Client) *Paraform { return &Paraform{client: c} }

// Name implements Gateway.
func (g *Paraform) Name() model.Source { return model.SourceParaform }

// Search implements Gateway.
func (g *Paraform) Search(ctx context.Context, domain string) ([]model.Executive, error) {
	resp, err := g.client.SearchPeople(ctx, domain, 1)
	if err != nil {
		return nil, eris.Wrap(err, "people: paraform search")
	}
	return FilterRoster(domain, resp.Profiles), nil
}

// FilterRoster keeps named profiles whose current position at the dominant
// company matches a ParaformTitles entry.
func FilterRoster(domain string, profiles []crust.Profile) []model.Executive {
	var leaders []crust.Profile
	for _, p := range profiles {
		for _, pos := range p.CurrentPositions() {
			if titleMatches(pos.Title) {
				leaders = append(leaders, p)
				break
			}
		}
	}

	company := dominantCompany(leaders)
	if company == "" {
		return nil
	}

	var out []model.Executive
	for _, p := range leaders {
		if p.DefaultPositionCompanyLinkedInID != company || strings.TrimSpace(p.Name) == "" {
			continue
		}
		keep := false
		for _, pos := range p.CurrentPositions() {
			if pos.CompanyLinkedInID == company && titleMatches(pos.Title) {
				keep = true
				break
			}
		}
		if !keep {
			continue
		}
		out = append(out, model.Executive{
			Domain:   domain,
			Name:     strings.TrimSpace(p.Name),
			Title:    strings.TrimSpace(p.DefaultPositionTitle),
			LinkedIn: p.ProfileURL(),
			Source:   model.SourceParaform,
		})
	}
	return out
}

// dominantCompany returns the most frequent default company id. Ties go to
// the id seen first.
func dominantCompany(profiles []crust.Profile) crust.LinkedInID {
	counts := make(map[crust.LinkedInID]int)
	var order []crust.LinkedInID
	for _, p := range profiles {
		id := p.DefaultPositionCompanyLinkedInID
		if id == "" {
			continue
		}
		if counts[id] == 0 {
			order = append(order, id)
		}
		counts[id]++
	}

	var best crust.LinkedInID
	for _, id := range order {
		if counts[id] > counts[best] {
			best = id
		}
	}
	return best
}
