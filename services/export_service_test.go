package services

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/getcito/ai-monitor/internal/models"
)

func TestWriteCitationsCSV(t *testing.T) {
	citations := []models.Citation{
		{
			Query:            "best widget tools",
			Provider:         "chatgpt",
			Source:           "Acme pricing",
			Text:             "Acme leads, \"by far\"",
			URL:              "https://acme.com/pricing",
			Domain:           "acme.com",
			IsBrandMention:   true,
			IsDomainCitation: true,
			Timestamp:        time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			Query:     "widget, comparison",
			Provider:  "googleAI",
			URL:       "https://reviews.example/widgets",
			Domain:    "reviews.example",
			Timestamp: time.Date(2025, 3, 2, 9, 30, 0, 0, time.UTC),
		},
	}

	var buf bytes.Buffer
	if err := NewExportService().WriteCitationsCSV(&buf, citations); err != nil {
		t.Fatalf("WriteCitationsCSV() error: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d records", len(records))
	}

	header := records[0]
	if header[0] != "Query" || header[len(header)-1] != "Timestamp" {
		t.Errorf("unexpected header: %v", header)
	}

	first := records[1]
	if first[1] != "chatgpt" || first[6] != "Yes" || first[7] != "Yes" {
		t.Errorf("first row wrong: %v", first)
	}
	// Embedded quotes and commas must survive the round trip.
	if first[3] != `Acme leads, "by far"` {
		t.Errorf("quoting broken: %q", first[3])
	}

	second := records[2]
	if second[0] != "widget, comparison" || second[6] != "No" {
		t.Errorf("second row wrong: %v", second)
	}
	if second[8] != "2025-03-02T09:30:00Z" {
		t.Errorf("timestamp format wrong: %q", second[8])
	}
}

func TestWriteCitationsCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := NewExportService().WriteCitationsCSV(&buf, nil); err != nil {
		t.Fatalf("WriteCitationsCSV() error: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("empty export should still carry the header, got %d records", len(records))
	}
}
