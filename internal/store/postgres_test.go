package store

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/getcito/ai-monitor/internal/models"
	"github.com/google/uuid"
)

func TestQueryResultRowDropsOnlyCorruptEntry(t *testing.T) {
	// One provider's stored entry is garbage; the healthy sibling must survive
	// and keep contributing.
	row := queryResultRow{
		ID:        uuid.New(),
		SessionID: uuid.New(),
		BrandID:   uuid.New(),
		Query:     "best widget tools",
		Results: json.RawMessage(`{
			"chatgpt": {
				"provider": "chatgpt",
				"success": true,
				"response_text": "Acme leads the market.",
				"timestamp": "2025-03-01T12:00:00Z"
			},
			"google": "garbage-not-an-object"
		}`),
		CreatedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	qr := row.toModel()

	if _, ok := qr.Results[models.ProviderGoogle]; ok {
		t.Error("corrupt google entry should be dropped")
	}
	chatgpt, ok := qr.Results[models.ProviderChatGPT]
	if !ok {
		t.Fatal("healthy chatgpt entry must survive its corrupt sibling")
	}
	if !chatgpt.Success || chatgpt.ResponseText != "Acme leads the market." {
		t.Errorf("chatgpt entry content lost: %+v", chatgpt)
	}
}

func TestQueryResultRowCorruptBlob(t *testing.T) {
	row := queryResultRow{
		ID:        uuid.New(),
		Query:     "best widget tools",
		Results:   json.RawMessage(`not json at all`),
		CreatedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	qr := row.toModel()
	if qr.Results == nil {
		t.Fatal("results map must be initialized even for a corrupt blob")
	}
	if len(qr.Results) != 0 {
		t.Errorf("corrupt blob should degrade to an empty map, got %v", qr.Results)
	}
	if qr.Query != "best widget tools" {
		t.Errorf("record fields must survive: %+v", qr)
	}
}

func TestQueryResultRowMalformedPayloadInsideEntry(t *testing.T) {
	// The entry itself is a well-formed object but its payload doesn't match
	// the provider shape; the entry survives with a nil payload.
	row := queryResultRow{
		ID:    uuid.New(),
		Query: "best widget tools",
		Results: json.RawMessage(`{
			"google": {
				"provider": "google",
				"success": true,
				"response_text": "Acme appears in the overview.",
				"payload": {"references": "not-a-list"},
				"timestamp": "2025-03-01T12:00:00Z"
			}
		}`),
		CreatedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	qr := row.toModel()
	google, ok := qr.Results[models.ProviderGoogle]
	if !ok {
		t.Fatal("entry with a malformed payload must survive")
	}
	if google.Payload != nil {
		t.Errorf("malformed payload should degrade to nil, got %v", google.Payload)
	}
	if google.ResponseText != "Acme appears in the overview." {
		t.Errorf("entry content lost: %+v", google)
	}
}
