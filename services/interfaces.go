// services/interfaces.go
package services

import (
	"context"
	"io"

	"github.com/getcito/ai-monitor/internal/analytics"
	"github.com/getcito/ai-monitor/internal/models"
	"github.com/google/uuid"
)

// Scope selects which slice of the query history an analytics call covers.
type Scope string

const (
	ScopeLatest   Scope = "latest"   // most recent completed processing session
	ScopeLifetime Scope = "lifetime" // the brand's entire history
)

// AIProvider is one answer engine the session runner fans out to. RunQuery
// returns a result even on provider failure (Success=false with the error
// recorded) so a failed provider degrades to zero contributions instead of
// aborting the query.
type AIProvider interface {
	GetProviderName() models.Provider
	RunQuery(ctx context.Context, query string) (*models.ProviderResult, error)
}

// SessionRunnerService runs one processing session: every query fanned out to
// every configured provider, results recorded append-only.
type SessionRunnerService interface {
	RunSession(ctx context.Context, brandID uuid.UUID, queries []string) (*models.ProcessingSession, error)
}

// AnalyticsService serves the derived analytics for a brand. Every call
// recomputes from the persisted history (through a digest-keyed cache); none
// of these methods mutate anything.
type AnalyticsService interface {
	BrandSnapshot(ctx context.Context, brandID uuid.UUID, scope Scope) (*analytics.AnalyticsSnapshot, error)
	CompetitorSnapshot(ctx context.Context, brandID uuid.UUID, scope Scope) (*analytics.CompetitorSnapshot, error)
	ShareOfVoice(ctx context.Context, brandID uuid.UUID, scope Scope) (*analytics.ShareOfVoice, error)
	Citations(ctx context.Context, brandID uuid.UUID, scope Scope) ([]models.Citation, error)
}

// ExportService renders citations for download.
type ExportService interface {
	WriteCitationsCSV(w io.Writer, citations []models.Citation) error
}
