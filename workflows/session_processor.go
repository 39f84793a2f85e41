// workflows/session_processor.go
package workflows

import (
	"context"
	"fmt"

	"github.com/inngest/inngestgo"
	"github.com/inngest/inngestgo/step"
	"github.com/sirupsen/logrus"

	"github.com/getcito/ai-monitor/internal/analytics"
	"github.com/getcito/ai-monitor/services"
	"github.com/google/uuid"
)

// SessionRequestedEvent triggers a processing session for one brand. Queries
// is optional; when empty the brand's stored query set runs.
type SessionRequestedEvent struct {
	BrandID     string   `json:"brand_id"`
	Queries     []string `json:"queries,omitempty"`
	TriggeredBy string   `json:"triggered_by,omitempty"`
}

type SessionProcessor struct {
	sessionRunner    services.SessionRunnerService
	analyticsService services.AnalyticsService
	client           inngestgo.Client
}

func NewSessionProcessor(sessionRunner services.SessionRunnerService, analyticsService services.AnalyticsService) *SessionProcessor {
	return &SessionProcessor{
		sessionRunner:    sessionRunner,
		analyticsService: analyticsService,
	}
}

func (p *SessionProcessor) SetClient(client inngestgo.Client) {
	p.client = client
}

// ProcessSession runs the full monitoring pipeline for one brand: execute the
// query batch across all providers, then recompute the latest-session and
// lifetime snapshots so the first dashboard read after a run hits a warm
// cache.
func (p *SessionProcessor) ProcessSession() inngestgo.ServableFunction {
	fn, err := inngestgo.CreateFunction(
		p.client,
		inngestgo.FunctionOpts{
			ID:      "process-session",
			Name:    "Process Brand Monitoring Session",
			Retries: inngestgo.IntPtr(3),
		},
		inngestgo.EventTrigger("monitor/session.requested", nil),
		func(ctx context.Context, input inngestgo.Input[SessionRequestedEvent]) (any, error) {
			brandID, err := uuid.Parse(input.Event.Data.BrandID)
			if err != nil {
				return nil, fmt.Errorf("invalid brand ID %q: %w", input.Event.Data.BrandID, err)
			}

			log := logrus.WithField("brand_id", brandID)
			log.Info("Starting monitoring session workflow")

			// Step 1: run the batch across all providers
			session, err := step.Run(ctx, "run-session", func(ctx context.Context) (any, error) {
				session, err := p.sessionRunner.RunSession(ctx, brandID, input.Event.Data.Queries)
				if err != nil {
					return nil, fmt.Errorf("failed to run session: %w", err)
				}
				return map[string]any{
					"session_id": session.ID.String(),
					"status":     session.Status,
					"completed":  session.CompletedCount,
					"failed":     session.FailedCount,
				}, nil
			})
			if err != nil {
				return nil, fmt.Errorf("step 1 failed: %w", err)
			}

			// Step 2: recompute the latest-session snapshot
			latest, err := step.Run(ctx, "compute-latest-analytics", func(ctx context.Context) (*analytics.AnalyticsSnapshot, error) {
				return p.analyticsService.BrandSnapshot(ctx, brandID, services.ScopeLatest)
			})
			if err != nil {
				return nil, fmt.Errorf("step 2 failed: %w", err)
			}

			// Step 3: recompute lifetime, competitor and SOV rollups
			_, err = step.Run(ctx, "compute-lifetime-analytics", func(ctx context.Context) (any, error) {
				if _, err := p.analyticsService.BrandSnapshot(ctx, brandID, services.ScopeLifetime); err != nil {
					return nil, err
				}
				if _, err := p.analyticsService.CompetitorSnapshot(ctx, brandID, services.ScopeLatest); err != nil {
					return nil, err
				}
				sov, err := p.analyticsService.ShareOfVoice(ctx, brandID, services.ScopeLifetime)
				if err != nil {
					return nil, err
				}
				return map[string]any{"brand_share_pct": sov.BrandSharePct}, nil
			})
			if err != nil {
				return nil, fmt.Errorf("step 3 failed: %w", err)
			}

			return map[string]any{
				"brand_id":   brandID.String(),
				"status":     "completed",
				"session":    session,
				"visibility": latest.BrandVisibilityScore,
			}, nil
		},
	)

	if err != nil {
		logrus.WithError(err).Error("Failed to create process-session function")
	}

	return fn
}
