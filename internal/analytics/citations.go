// internal/analytics/citations.go
package analytics

import (
	"net/url"
	"strings"
	"time"

	"github.com/getcito/ai-monitor/internal/models"
	"github.com/getcito/ai-monitor/internal/providers"
	"github.com/google/uuid"
)

// CitationContext carries the per-query fields stamped onto every extracted
// citation plus the brand used for the derived mention/domain flags.
type CitationContext struct {
	Brand     models.MatchEntity
	Query     string
	QueryID   string
	Timestamp time.Time
}

// ExtractCitations normalizes a provider's raw citation payload into Citation
// records. The switch over payload variants is exhaustive for the closed
// provider set; a nil payload yields no citations. Nothing here filters: the
// google.com references a Google AI Overview always carries are emitted like
// any other citation and excluded later at the presentation layer.
func ExtractCitations(provider models.Provider, payload providers.Payload, cc CitationContext) []models.Citation {
	if payload == nil {
		return nil
	}

	var citations []models.Citation
	switch p := payload.(type) {
	case *providers.ChatGPTPayload:
		for _, a := range p.Annotations {
			if a.URL == "" {
				continue
			}
			citations = append(citations, newCitation(provider, a.URL, a.Title, a.Title, cc))
		}
	case *providers.PerplexityPayload:
		// Prefer the richest shape available; the three lists describe the
		// same sources and double-counting them would inflate totals.
		switch {
		case len(p.SearchResults) > 0:
			for _, sr := range p.SearchResults {
				citations = append(citations, newCitation(provider, sr.URL, sr.Snippet, sr.Title, cc))
			}
		case len(p.StructuredCitations) > 0:
			for _, sc := range p.StructuredCitations {
				citations = append(citations, newCitation(provider, sc.URL, sc.Snippet, sc.Title, cc))
			}
		default:
			for _, u := range p.Citations {
				citations = append(citations, newCitation(provider, u, "", "", cc))
			}
		}
	case *providers.GoogleAIPayload:
		for _, ref := range p.References {
			if ref.Link == "" {
				continue
			}
			citations = append(citations, newCitation(provider, ref.Link, ref.Snippet, ref.Source, cc))
		}
	}
	return citations
}

func newCitation(provider models.Provider, rawURL, text, source string, cc CitationContext) models.Citation {
	domain := DomainFromURL(rawURL)

	c := models.Citation{
		ID:        uuid.NewString(),
		URL:       rawURL,
		Domain:    domain,
		Text:      text,
		Source:    source,
		Provider:  provider.CitationLabel(),
		Query:     cc.Query,
		QueryID:   cc.QueryID,
		Timestamp: cc.Timestamp,
	}

	if domain != "" && cc.Brand.Domain != "" {
		c.IsDomainCitation = domain == NormalizeDomain(cc.Brand.Domain)
	}
	c.IsBrandMention = c.IsDomainCitation ||
		IsMentioned(text, cc.Brand) ||
		IsMentioned(source, cc.Brand)

	return c
}

// DomainFromURL derives the registrable host from a citation URL, best effort.
// Unparsable input yields "" rather than an error; the citation still counts
// toward totals, it just never satisfies a domain match.
func DomainFromURL(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		// Citations sometimes arrive scheme-less ("acme.com/pricing").
		if strings.ContainsAny(rawURL, " \t") || !strings.Contains(rawURL, ".") {
			return ""
		}
		u, err = url.Parse("https://" + rawURL)
		if err != nil || u.Host == "" {
			return ""
		}
	}

	return NormalizeDomain(u.Hostname())
}

// NormalizeDomain lowercases a domain and strips protocol, www. prefix, port
// and any trailing path, so stored brand domains compare equal to extracted
// citation domains.
func NormalizeDomain(domain string) string {
	d := strings.ToLower(strings.TrimSpace(domain))
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}
	if i := strings.Index(d, ":"); i >= 0 {
		d = d[:i]
	}
	d = strings.TrimPrefix(d, "www.")
	return strings.TrimSuffix(d, ".")
}

// CitationCSVHeader is the column order for citation exports.
var CitationCSVHeader = []string{
	"Query", "Platform", "Source", "Citation Text", "URL", "Domain",
	"Brand Mention", "Domain Citation", "Timestamp",
}

// CitationCSVRow renders one citation in the export column order.
func CitationCSVRow(c models.Citation) []string {
	return []string{
		c.Query,
		c.Provider,
		c.Source,
		c.Text,
		c.URL,
		c.Domain,
		yesNo(c.IsBrandMention),
		yesNo(c.IsDomainCitation),
		c.Timestamp.UTC().Format(time.RFC3339),
	}
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
