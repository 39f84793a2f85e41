package analytics

import (
	"testing"
	"time"

	"github.com/getcito/ai-monitor/internal/models"
	"github.com/getcito/ai-monitor/internal/providers"
)

func testContext() CitationContext {
	return CitationContext{
		Brand:     models.MatchEntity{Name: "Acme", Domain: "acme.com"},
		Query:     "best widget tools",
		QueryID:   "q-1",
		Timestamp: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestExtractCitationsChatGPT(t *testing.T) {
	payload := &providers.ChatGPTPayload{
		Annotations: []providers.ChatGPTAnnotation{
			{Type: "url_citation", Title: "Acme pricing", URL: "https://www.acme.com/pricing"},
			{Type: "url_citation", Title: "Widget roundup", URL: "https://blog.example.org/widgets"},
			{Type: "url_citation", Title: "no url", URL: ""},
		},
	}

	citations := ExtractCitations(models.ProviderChatGPT, payload, testContext())
	if len(citations) != 2 {
		t.Fatalf("expected 2 citations, got %d", len(citations))
	}

	first := citations[0]
	if first.Domain != "acme.com" {
		t.Errorf("expected domain acme.com, got %q", first.Domain)
	}
	if !first.IsDomainCitation {
		t.Error("expected brand domain citation to be flagged")
	}
	if !first.IsBrandMention {
		t.Error("domain citation should imply brand mention")
	}
	if first.Provider != "chatgpt" {
		t.Errorf("expected provider label chatgpt, got %q", first.Provider)
	}
	if first.Query != "best widget tools" || first.QueryID != "q-1" {
		t.Errorf("query context not stamped: %+v", first)
	}

	second := citations[1]
	if second.IsDomainCitation {
		t.Error("third-party domain should not be a domain citation")
	}
	if second.IsBrandMention {
		t.Error("citation without brand text should not be a brand mention")
	}
}

func TestExtractCitationsPerplexityPrefersSearchResults(t *testing.T) {
	payload := &providers.PerplexityPayload{
		Citations: []string{"https://a.example/1", "https://b.example/2"},
		SearchResults: []providers.PerplexitySearchResult{
			{Title: "Acme review", URL: "https://reviews.example/acme", Snippet: "Acme leads the market"},
			{Title: "Widget news", URL: "https://news.example/widgets", Snippet: "nothing relevant"},
			{Title: "Acme docs", URL: "https://acme.com/docs", Snippet: "official docs"},
		},
	}

	citations := ExtractCitations(models.ProviderPerplexity, payload, testContext())
	if len(citations) != 3 {
		t.Fatalf("expected 3 citations from search results only, got %d", len(citations))
	}
	if citations[0].Provider != "perplexity" {
		t.Errorf("expected provider label perplexity, got %q", citations[0].Provider)
	}
	if !citations[0].IsBrandMention {
		t.Error("snippet mentioning brand should be a brand mention")
	}
	if citations[1].IsBrandMention {
		t.Error("unrelated snippet should not be a brand mention")
	}
	if !citations[2].IsDomainCitation {
		t.Error("acme.com URL should be a domain citation")
	}
}

func TestExtractCitationsPerplexityBareURLFallback(t *testing.T) {
	payload := &providers.PerplexityPayload{
		Citations: []string{"https://a.example/1", "not a url at all"},
	}

	citations := ExtractCitations(models.ProviderPerplexity, payload, testContext())
	if len(citations) != 2 {
		t.Fatalf("expected 2 citations, got %d", len(citations))
	}
	if citations[0].Domain != "a.example" {
		t.Errorf("expected domain a.example, got %q", citations[0].Domain)
	}
	// Unparsable URLs still count as citations, just with no domain.
	if citations[1].Domain != "" {
		t.Errorf("expected empty domain for unparsable URL, got %q", citations[1].Domain)
	}
	if citations[1].IsDomainCitation {
		t.Error("unparsable URL can never be a domain citation")
	}
}

func TestExtractCitationsGoogleAI(t *testing.T) {
	payload := &providers.GoogleAIPayload{
		References: []providers.GoogleAIReference{
			{Title: "Acme", Link: "https://acme.com/", Source: "acme.com", Snippet: "Acme official site"},
			{Title: "About", Link: "https://www.google.com/search?q=acme", Source: "google.com"},
			{Title: "no link", Link: ""},
		},
	}

	citations := ExtractCitations(models.ProviderGoogle, payload, testContext())
	if len(citations) != 2 {
		t.Fatalf("expected 2 citations, got %d", len(citations))
	}
	if citations[0].Provider != "googleAI" {
		t.Errorf("expected provider label googleAI, got %q", citations[0].Provider)
	}
	// google.com references are still extracted here; filtering them is a
	// presentation concern.
	if citations[1].Domain != "google.com" {
		t.Errorf("expected google.com reference to be kept, got %q", citations[1].Domain)
	}
}

func TestExtractCitationsNilPayload(t *testing.T) {
	if got := ExtractCitations(models.ProviderChatGPT, nil, testContext()); got != nil {
		t.Errorf("expected nil citations for nil payload, got %v", got)
	}
}

func TestDomainFromURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"https with www", "https://www.Acme.com/pricing", "acme.com"},
		{"scheme-less", "acme.com/pricing", "acme.com"},
		{"with port", "https://acme.com:8443/docs", "acme.com"},
		{"subdomain kept", "https://blog.acme.com/post", "blog.acme.com"},
		{"garbage", "not a url at all", ""},
		{"no dot", "localhost", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DomainFromURL(tt.url); got != tt.want {
				t.Errorf("DomainFromURL(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestNormalizeDomain(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ACME.com", "acme.com"},
		{"https://www.acme.com/pricing", "acme.com"},
		{"acme.com:8080", "acme.com"},
		{"  www.acme.com.  ", "acme.com"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeDomain(tt.in); got != tt.want {
			t.Errorf("NormalizeDomain(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCitationCSVRow(t *testing.T) {
	c := models.Citation{
		Query:            "best widget tools",
		Provider:         "googleAI",
		Source:           "acme.com",
		Text:             "Acme official site",
		URL:              "https://acme.com/",
		Domain:           "acme.com",
		IsBrandMention:   true,
		IsDomainCitation: true,
		Timestamp:        time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	row := CitationCSVRow(c)
	if len(row) != len(CitationCSVHeader) {
		t.Fatalf("row width %d does not match header width %d", len(row), len(CitationCSVHeader))
	}
	want := []string{
		"best widget tools", "googleAI", "acme.com", "Acme official site",
		"https://acme.com/", "acme.com", "Yes", "Yes", "2025-03-01T12:00:00Z",
	}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("column %d (%s) = %q, want %q", i, CitationCSVHeader[i], row[i], want[i])
		}
	}
}
