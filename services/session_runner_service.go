// services/session_runner_service.go
package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/getcito/ai-monitor/internal/models"
	"github.com/getcito/ai-monitor/internal/store"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type sessionRunnerService struct {
	store     *store.Store
	providers []AIProvider
}

// NewSessionRunnerService wires the configured providers into a session
// runner. The provider list is fixed at startup; a session fans every query
// out to all of them.
func NewSessionRunnerService(st *store.Store, providers []AIProvider) SessionRunnerService {
	return &sessionRunnerService{store: st, providers: providers}
}

// RunSession executes one processing session: each query is sent to every
// provider concurrently, and the combined per-provider results are appended to
// the brand's history as one immutable record per query. Provider failures are
// recorded on the result and never abort the session; a query only counts as
// failed when every provider failed. When queries is empty the brand's stored
// query set is used.
func (s *sessionRunnerService) RunSession(ctx context.Context, brandID uuid.UUID, queries []string) (*models.ProcessingSession, error) {
	if len(queries) == 0 {
		stored, err := s.store.ListBrandQueries(ctx, brandID)
		if err != nil {
			return nil, err
		}
		for _, q := range stored {
			queries = append(queries, q.Text)
		}
	}
	if len(queries) == 0 {
		return nil, fmt.Errorf("brand %s has no queries to run", brandID)
	}

	session := &models.ProcessingSession{
		BrandID:      brandID,
		Status:       models.SessionStatusRunning,
		TotalQueries: len(queries),
		StartedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	log := logrus.WithFields(logrus.Fields{
		"brand_id":   brandID,
		"session_id": session.ID,
		"queries":    len(queries),
	})
	log.Info("Starting processing session")

	completed, failed := 0, 0
	for _, query := range queries {
		qr := &models.QueryResult{
			SessionID: session.ID,
			BrandID:   brandID,
			Query:     query,
			Results:   s.fanOut(ctx, query),
		}
		if err := s.store.AppendQueryResult(ctx, qr); err != nil {
			// The result is lost but the session carries on; the failure is
			// reflected in the session counters.
			log.WithError(err).WithField("query", query).Error("Failed to persist query result")
			failed++
			continue
		}

		if anySuccess(qr.Results) {
			completed++
		} else {
			failed++
		}
		if err := s.store.UpdateSessionProgress(ctx, session.ID, models.SessionStatusRunning, completed, failed); err != nil {
			log.WithError(err).Warn("Failed to update session progress")
		}
	}

	status := models.SessionStatusCompleted
	if completed == 0 {
		status = models.SessionStatusFailed
	}
	if err := s.store.UpdateSessionProgress(ctx, session.ID, status, completed, failed); err != nil {
		return nil, err
	}
	if err := s.store.FinishSession(ctx, session.ID, status); err != nil {
		return nil, err
	}

	session.Status = status
	session.CompletedCount = completed
	session.FailedCount = failed
	log.WithFields(logrus.Fields{
		"completed": completed,
		"failed":    failed,
		"status":    status,
	}).Info("Processing session finished")

	return session, nil
}

// fanOut runs one query against every provider in parallel and waits for all
// of them. Each provider's error surfaces as an unsuccessful ProviderResult.
func (s *sessionRunnerService) fanOut(ctx context.Context, query string) map[models.Provider]*models.ProviderResult {
	results := make(map[models.Provider]*models.ProviderResult, len(s.providers))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, provider := range s.providers {
		wg.Add(1)
		go func(provider AIProvider) {
			defer wg.Done()
			name := provider.GetProviderName()

			result, err := provider.RunQuery(ctx, query)
			if err != nil || result == nil {
				result = &models.ProviderResult{
					Provider:  name,
					Success:   false,
					Timestamp: time.Now().UTC(),
				}
				if err != nil {
					result.Error = err.Error()
				}
			}

			mu.Lock()
			results[name] = result
			mu.Unlock()
		}(provider)
	}

	wg.Wait()
	return results
}

func anySuccess(results map[models.Provider]*models.ProviderResult) bool {
	for _, r := range results {
		if r != nil && r.Success {
			return true
		}
	}
	return false
}
