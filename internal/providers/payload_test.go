package providers

import (
	"encoding/json"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		kind    string
		payload Payload
	}{
		{
			name: "chatgpt annotations",
			kind: KindChatGPT,
			payload: &ChatGPTPayload{
				Annotations: []ChatGPTAnnotation{
					{Type: "url_citation", Title: "Acme", URL: "https://acme.com", StartIndex: 10, EndIndex: 42},
				},
			},
		},
		{
			name: "perplexity search results",
			kind: KindPerplexity,
			payload: &PerplexityPayload{
				Citations: []string{"https://a.example"},
				SearchResults: []PerplexitySearchResult{
					{Title: "Acme review", URL: "https://reviews.example/acme", Snippet: "leading widget maker"},
				},
			},
		},
		{
			name: "google references",
			kind: KindGoogleAI,
			payload: &GoogleAIPayload{
				References: []GoogleAIReference{
					{Title: "Acme", Link: "https://acme.com", Source: "acme.com"},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := Encode(tt.payload)
			if err != nil {
				t.Fatalf("Encode() error: %v", err)
			}
			decoded, err := Decode(tt.kind, raw)
			if err != nil {
				t.Fatalf("Decode() error: %v", err)
			}
			if decoded.Kind() != tt.kind {
				t.Errorf("decoded kind = %q, want %q", decoded.Kind(), tt.kind)
			}

			want, _ := json.Marshal(tt.payload)
			got, _ := json.Marshal(decoded)
			if string(got) != string(want) {
				t.Errorf("round trip mismatch:\ngot  %s\nwant %s", got, want)
			}
		})
	}
}

func TestEncodeNil(t *testing.T) {
	raw, err := Encode(nil)
	if err != nil {
		t.Fatalf("Encode(nil) error: %v", err)
	}
	if string(raw) != "null" {
		t.Errorf("Encode(nil) = %s, want null", raw)
	}
}

func TestDecodeEmptyAndNull(t *testing.T) {
	for _, raw := range []json.RawMessage{nil, json.RawMessage("null")} {
		p, err := Decode(KindChatGPT, raw)
		if err != nil {
			t.Errorf("Decode(%q) error: %v", raw, err)
		}
		if p != nil {
			t.Errorf("Decode(%q) = %v, want nil", raw, p)
		}
	}
}

func TestDecodeMalformed(t *testing.T) {
	if _, err := Decode(KindPerplexity, json.RawMessage(`{"citations": "not-a-list"}`)); err == nil {
		t.Error("expected error for malformed payload")
	}
}

func TestDecodeUnknownKind(t *testing.T) {
	if _, err := Decode("bing", json.RawMessage(`{}`)); err == nil {
		t.Error("expected error for unknown provider kind")
	}
}
