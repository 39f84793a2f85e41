// services/analytics_service.go
package services

import (
	"context"
	"fmt"

	"github.com/getcito/ai-monitor/internal/analytics"
	"github.com/getcito/ai-monitor/internal/cache"
	"github.com/getcito/ai-monitor/internal/models"
	"github.com/getcito/ai-monitor/internal/store"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// googleOwnDomain is the search engine itself, not a cited source. AI Overview
// payloads routinely reference it; the extractor still emits those citations,
// and they are filtered here, at the presentation boundary.
const googleOwnDomain = "google.com"

type analyticsService struct {
	store *store.Store
	cache *cache.SnapshotCache
}

// NewAnalyticsService builds the read side of the pipeline. The cache may be
// nil, in which case every call recomputes.
func NewAnalyticsService(st *store.Store, snapshots *cache.SnapshotCache) AnalyticsService {
	return &analyticsService{store: st, cache: snapshots}
}

// scopedHistory is everything one analytics call derives from: the analyses in
// processing order plus the digest identifying the exact result set.
type scopedHistory struct {
	brand       *models.Brand
	competitors []*models.Competitor
	analyses    []*analytics.PerQueryAnalysis
	digest      string
}

func (s *analyticsService) loadScope(ctx context.Context, brandID uuid.UUID, scope Scope) (*scopedHistory, error) {
	brand, err := s.store.GetBrand(ctx, brandID)
	if err != nil {
		return nil, fmt.Errorf("failed to load brand: %w", err)
	}
	competitors, err := s.store.ListCompetitors(ctx, brandID)
	if err != nil {
		return nil, fmt.Errorf("failed to load competitors: %w", err)
	}

	var results []*models.QueryResult
	switch scope {
	case ScopeLatest:
		sessions, err := s.store.RecentCompletedSessions(ctx, brandID, 1)
		if err != nil {
			return nil, err
		}
		if len(sessions) > 0 {
			results, err = s.store.SessionQueryResults(ctx, sessions[0].ID)
			if err != nil {
				return nil, err
			}
		}
	case ScopeLifetime:
		results, err = s.store.QueryHistory(ctx, brandID)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown analytics scope: %s", scope)
	}

	return s.analyze(brand, competitors, results), nil
}

func (s *analyticsService) analyze(brand *models.Brand, competitors []*models.Competitor, results []*models.QueryResult) *scopedHistory {
	ids := make([]string, 0, len(results))
	analyses := make([]*analytics.PerQueryAnalysis, 0, len(results))
	entity := brand.MatchEntity()
	for _, qr := range results {
		ids = append(ids, fmt.Sprintf("%s@%d", qr.ID, qr.CreatedAt.UnixNano()))
		analyses = append(analyses, analytics.AnalyzeQuery(qr, entity, competitors))
	}
	return &scopedHistory{
		brand:       brand,
		competitors: competitors,
		analyses:    analyses,
		digest:      cache.Digest(ids),
	}
}

func (s *analyticsService) BrandSnapshot(ctx context.Context, brandID uuid.UUID, scope Scope) (*analytics.AnalyticsSnapshot, error) {
	history, err := s.loadScope(ctx, brandID, scope)
	if err != nil {
		return nil, err
	}

	key := cache.Key(brandID.String(), "brand-"+string(scope), history.digest)
	var cached analytics.AnalyticsSnapshot
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	snapshot := analytics.Aggregate(history.analyses)
	s.cache.Set(ctx, key, snapshot)

	logrus.WithFields(logrus.Fields{
		"brand_id":   brandID,
		"scope":      scope,
		"queries":    snapshot.TotalQueriesProcessed,
		"visibility": snapshot.BrandVisibilityScore,
	}).Info("Computed brand analytics snapshot")

	return snapshot, nil
}

func (s *analyticsService) CompetitorSnapshot(ctx context.Context, brandID uuid.UUID, scope Scope) (*analytics.CompetitorSnapshot, error) {
	history, err := s.loadScope(ctx, brandID, scope)
	if err != nil {
		return nil, err
	}

	key := cache.Key(brandID.String(), "competitors-"+string(scope), history.digest)
	var cached analytics.CompetitorSnapshot
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	snapshot := analytics.AggregateCompetitors(history.analyses, history.competitors)
	if scope == ScopeLatest {
		if previous, err := s.previousSessionSnapshot(ctx, brandID, history); err != nil {
			// Trends are garnish; the snapshot stands without them.
			logrus.WithError(err).WithField("brand_id", brandID).Warn("Failed to compute mention trends")
		} else {
			snapshot.WithTrends(previous)
		}
	}
	s.cache.Set(ctx, key, snapshot)

	return snapshot, nil
}

// previousSessionSnapshot aggregates the session before the latest one, the
// baseline for mention trends.
func (s *analyticsService) previousSessionSnapshot(ctx context.Context, brandID uuid.UUID, history *scopedHistory) (*analytics.CompetitorSnapshot, error) {
	sessions, err := s.store.RecentCompletedSessions(ctx, brandID, 2)
	if err != nil {
		return nil, err
	}
	if len(sessions) < 2 {
		return nil, nil
	}
	results, err := s.store.SessionQueryResults(ctx, sessions[1].ID)
	if err != nil {
		return nil, err
	}
	prior := s.analyze(history.brand, history.competitors, results)
	return analytics.AggregateCompetitors(prior.analyses, prior.competitors), nil
}

func (s *analyticsService) ShareOfVoice(ctx context.Context, brandID uuid.UUID, scope Scope) (*analytics.ShareOfVoice, error) {
	history, err := s.loadScope(ctx, brandID, scope)
	if err != nil {
		return nil, err
	}

	brandMentions := 0
	competitorTotals := make(map[string]int, len(history.competitors))
	for _, analysis := range history.analyses {
		if analysis == nil {
			continue
		}
		for _, pa := range analysis.Brand {
			brandMentions += pa.MentionCount
		}
		for name, perProvider := range analysis.Competitors {
			for _, pa := range perProvider {
				competitorTotals[name] += pa.MentionCount
			}
		}
	}

	// Preserve the user's competitor ordering in the input list.
	competitors := make([]analytics.CompetitorMentions, 0, len(history.competitors))
	for _, c := range history.competitors {
		competitors = append(competitors, analytics.CompetitorMentions{
			Name:     c.Name,
			Mentions: competitorTotals[c.Name],
		})
	}

	return analytics.ComputeShareOfVoice(history.brand.Name, brandMentions, competitors), nil
}

// Citations returns the flat citation list for tabular display and CSV
// export, with the search engine's own domain filtered out.
func (s *analyticsService) Citations(ctx context.Context, brandID uuid.UUID, scope Scope) ([]models.Citation, error) {
	history, err := s.loadScope(ctx, brandID, scope)
	if err != nil {
		return nil, err
	}

	var citations []models.Citation
	for _, analysis := range history.analyses {
		if analysis == nil {
			continue
		}
		for _, provider := range analysis.Providers() {
			for _, c := range analysis.Brand[provider].Citations {
				if c.Domain == googleOwnDomain {
					continue
				}
				citations = append(citations, c)
			}
		}
	}
	return citations, nil
}
