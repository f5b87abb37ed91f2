package pipeline

import (
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// NormalizeDomain reduces a company identifier to a bare host: scheme,
// "www." prefix, port, path, query and fragment are dropped and the result
// is lowercased. A plain company name comes back lowercased and trimmed.
func NormalizeDomain(identifier string) string {
	s := strings.ToLower(strings.TrimSpace(identifier))
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	if i := strings.LastIndex(s, "@"); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.LastIndex(s, ":"); i >= 0 && !strings.Contains(s[i:], "]") {
		s = s[:i]
	}
	s = strings.TrimPrefix(s, "www.")
	return strings.TrimSuffix(s, ".")
}

// RegistrableDomain returns the eTLD+1 of a host or URL, e.g.
// "news.acme.co.uk" -> "acme.co.uk". Hosts the public suffix list cannot
// place are returned normalized.
func RegistrableDomain(hostOrURL string) string {
	host := NormalizeDomain(hostOrURL)
	if host == "" {
		return ""
	}
	reg, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return reg
}

// FilterByCompany keeps the URLs hosted on the company's own registrable
// domain or on one of the trusted domains, dropping any already in scraped
// and any duplicates within urls. Order is preserved.
func FilterByCompany(urls []string, domain string, trusted []string, scraped map[string]struct{}) []string {
	company := RegistrableDomain(domain)
	allowed := make(map[string]struct{}, len(trusted)+1)
	if company != "" {
		allowed[company] = struct{}{}
	}
	for _, t := range trusted {
		if r := RegistrableDomain(t); r != "" {
			allowed[r] = struct{}{}
		}
	}

	seen := make(map[string]struct{}, len(urls))
	var out []string
	for _, raw := range urls {
		u, err := url.Parse(strings.TrimSpace(raw))
		if err != nil || u.Hostname() == "" {
			continue
		}
		if _, ok := allowed[RegistrableDomain(u.Hostname())]; !ok {
			continue
		}
		if _, ok := scraped[raw]; ok {
			continue
		}
		if _, ok := seen[raw]; ok {
			continue
		}
		seen[raw] = struct{}{}
		out = append(out, raw)
	}
	return out
}
