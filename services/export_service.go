// services/export_service.go
package services

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/getcito/ai-monitor/internal/analytics"
	"github.com/getcito/ai-monitor/internal/models"
)

type exportService struct{}

func NewExportService() ExportService {
	return &exportService{}
}

// WriteCitationsCSV streams the citation table as UTF-8 CSV, one citation per
// row, quoting handled by encoding/csv.
func (s *exportService) WriteCitationsCSV(w io.Writer, citations []models.Citation) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(analytics.CitationCSVHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, c := range citations {
		if err := writer.Write(analytics.CitationCSVRow(c)); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}
