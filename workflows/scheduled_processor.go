// workflows/scheduled_processor.go
package workflows

import (
	"context"
	"fmt"
	"time"

	"github.com/inngest/inngestgo"
	"github.com/inngest/inngestgo/step"
	"github.com/sirupsen/logrus"

	"github.com/getcito/ai-monitor/internal/models"
	"github.com/getcito/ai-monitor/internal/store"
)

type ScheduledProcessor struct {
	store  *store.Store
	client inngestgo.Client
}

func NewScheduledProcessor(st *store.Store) *ScheduledProcessor {
	return &ScheduledProcessor{store: st}
}

func (p *ScheduledProcessor) SetClient(client inngestgo.Client) {
	p.client = client
}

// DailyBrandProcessor fans a session.requested event out to every active
// brand once a day. Each send is its own idempotent step, so a retry of the
// workflow only re-sends the events that didn't complete.
func (p *ScheduledProcessor) DailyBrandProcessor() inngestgo.ServableFunction {
	fn, err := inngestgo.CreateFunction(
		p.client,
		inngestgo.FunctionOpts{
			ID:   "daily-brand-processor",
			Name: "Daily Brand Monitoring Runs",
		},
		inngestgo.CronTrigger("0 6 * * *"), // Every day at 6 AM UTC
		func(ctx context.Context, input inngestgo.Input[any]) (any, error) {
			now := time.Now().UTC()

			brands, err := step.Run(ctx, "list-active-brands", func(ctx context.Context) ([]*models.Brand, error) {
				return p.store.ListActiveBrands(ctx)
			})
			if err != nil {
				return nil, fmt.Errorf("failed to list active brands: %w", err)
			}

			if len(brands) == 0 {
				return map[string]interface{}{
					"execution_date": now.Format("2006-01-02"),
					"total_brands":   0,
					"message":        "No active brands to process",
				}, nil
			}

			for _, brand := range brands {
				stepName := fmt.Sprintf("trigger-session-%s", brand.ID)
				brandID := brand.ID.String()

				_, err := step.Run(ctx, stepName, func(ctx context.Context) (interface{}, error) {
					evt := inngestgo.Event{
						Name: "monitor/session.requested",
						Data: map[string]interface{}{
							"brand_id":     brandID,
							"triggered_by": "daily_scheduler",
						},
					}
					return p.client.Send(ctx, evt)
				})
				if err != nil {
					// Keep going; one brand's failed trigger shouldn't block the rest.
					logrus.WithError(err).WithField("brand_id", brandID).Warn("Failed to send session event")
				}
			}

			return map[string]interface{}{
				"execution_date": now.Format("2006-01-02"),
				"total_brands":   len(brands),
				"message":        fmt.Sprintf("Triggered %d monitoring sessions", len(brands)),
			}, nil
		},
	)

	if err != nil {
		logrus.WithError(err).Error("Failed to create daily brand processor function")
	}

	return fn
}
