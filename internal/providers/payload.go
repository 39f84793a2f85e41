// internal/providers/payload.go
package providers

import (
	"encoding/json"
	"fmt"
)

// Payload is the raw citation payload attached to a single provider result.
// The set of implementations is closed: ChatGPTPayload, PerplexityPayload and
// GoogleAIPayload. Adding a provider means adding a variant here and extending
// the exhaustive switches in Decode and in the citation extractor.
type Payload interface {
	Kind() string
}

const (
	KindChatGPT    = "chatgpt"
	KindPerplexity = "perplexity"
	KindGoogleAI   = "google"
)

// ChatGPTPayload carries the url_citation annotations returned by the OpenAI
// web search responses API.
type ChatGPTPayload struct {
	Annotations []ChatGPTAnnotation `json:"annotations"`
}

type ChatGPTAnnotation struct {
	Type       string `json:"type"`
	Title      string `json:"title,omitempty"`
	URL        string `json:"url,omitempty"`
	StartIndex int    `json:"start_index"`
	EndIndex   int    `json:"end_index"`
}

func (p *ChatGPTPayload) Kind() string { return KindChatGPT }

// PerplexityPayload carries the three citation shapes Perplexity responses can
// include. Older responses only populate Citations (bare URLs); newer ones add
// search_results with titles and snippets.
type PerplexityPayload struct {
	Citations           []string                 `json:"citations,omitempty"`
	SearchResults       []PerplexitySearchResult `json:"search_results,omitempty"`
	StructuredCitations []PerplexityCitation     `json:"structured_citations,omitempty"`
}

type PerplexitySearchResult struct {
	Title   string `json:"title,omitempty"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
	Date    string `json:"date,omitempty"`
}

type PerplexityCitation struct {
	Title   string `json:"title,omitempty"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

func (p *PerplexityPayload) Kind() string { return KindPerplexity }

// GoogleAIPayload carries the reference list attached to a Google AI Overview
// block as returned by the SERP API.
type GoogleAIPayload struct {
	References []GoogleAIReference `json:"references"`
}

type GoogleAIReference struct {
	Title   string `json:"title,omitempty"`
	Link    string `json:"link"`
	Source  string `json:"source,omitempty"`
	Snippet string `json:"snippet,omitempty"`
}

func (p *GoogleAIPayload) Kind() string { return KindGoogleAI }

// Encode serializes a payload for storage. A nil payload encodes as JSON null.
func Encode(p Payload) (json.RawMessage, error) {
	if p == nil {
		return json.RawMessage("null"), nil
	}
	return json.Marshal(p)
}

// Decode rebuilds the concrete payload for the given provider kind. Unknown
// kinds and malformed JSON return an error; callers treat that as "provider
// contributed no citations" rather than failing the surrounding record.
func Decode(kind string, raw json.RawMessage) (Payload, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	switch kind {
	case KindChatGPT:
		var p ChatGPTPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("failed to decode chatgpt payload: %w", err)
		}
		return &p, nil
	case KindPerplexity:
		var p PerplexityPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("failed to decode perplexity payload: %w", err)
		}
		return &p, nil
	case KindGoogleAI:
		var p GoogleAIPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("failed to decode google payload: %w", err)
		}
		return &p, nil
	default:
		return nil, fmt.Errorf("unknown provider kind: %s", kind)
	}
}
