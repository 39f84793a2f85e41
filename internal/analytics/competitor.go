// internal/analytics/competitor.go
package analytics

import (
	"sort"

	"github.com/getcito/ai-monitor/internal/models"
)

// Mention trend values. A trend compares the current session's mentions for a
// competitor against the immediately prior session's, with a ±10% band mapped
// to "stable".
const (
	TrendUp     = "up"
	TrendDown   = "down"
	TrendStable = "stable"
)

// CompetitorStats is one competitor's rollup across the aggregated queries.
type CompetitorStats struct {
	Name                    string                  `json:"name"`
	TotalMentions           int                     `json:"total_mentions"`
	QueriesWithMention      int                     `json:"queries_with_mention"`
	VisibilityScore         int                     `json:"visibility_score"`
	AverageMentionsPerQuery float64                 `json:"average_mentions_per_query"`
	TopProvider             string                  `json:"top_provider,omitempty"`
	ProviderBreakdown       map[models.Provider]int `json:"provider_breakdown"`
	Citations               int                     `json:"citations"`
	MentionTrend            string                  `json:"mention_trend,omitempty"`
}

// CompetitorInsights summarize the competitive landscape of a snapshot.
type CompetitorInsights struct {
	TopCompetitor        string `json:"top_competitor,omitempty"`
	CompetitiveIntensity string `json:"competitive_intensity"`
	MarketPosition       string `json:"market_position"`
}

// CompetitorSnapshot is the global competitor rollup for one scope (latest
// session or lifetime), built by the same single-pass fold as the brand
// snapshot.
type CompetitorSnapshot struct {
	TotalQueriesProcessed     int                         `json:"total_queries_processed"`
	TotalCompetitorMentions   int                         `json:"total_competitor_mentions"`
	CompetitorVisibilityScore int                         `json:"competitor_visibility_score"`
	UniqueCompetitorsDetected int                         `json:"unique_competitors_detected"`
	Competitors               map[string]*CompetitorStats `json:"competitors"`
	Insights                  CompetitorInsights          `json:"insights"`
}

// AggregateCompetitors folds per-query analyses into the per-competitor and
// global competitor rollups. Intensity and market position are derived from
// the competitors' combined share of voice against the brand's mentions in the
// same slice of history, using the fixed thresholds in sov.go.
func AggregateCompetitors(analyses []*PerQueryAnalysis, competitors []*models.Competitor) *CompetitorSnapshot {
	snapshot := &CompetitorSnapshot{
		Competitors: make(map[string]*CompetitorStats, len(competitors)),
	}
	for _, c := range competitors {
		snapshot.Competitors[c.Name] = &CompetitorStats{
			Name:              c.Name,
			ProviderBreakdown: make(map[models.Provider]int),
		}
	}

	brandMentions := 0
	queriesWithCompetitor := 0
	for _, analysis := range analyses {
		if analysis == nil {
			continue
		}
		snapshot.TotalQueriesProcessed++
		for _, pa := range analysis.Brand {
			brandMentions += pa.MentionCount
		}

		anyCompetitorMentioned := false
		for name, perProvider := range analysis.Competitors {
			stats, ok := snapshot.Competitors[name]
			if !ok {
				// Competitor removed since the analysis was produced; its
				// historical counts are not resurrected.
				continue
			}
			mentionedThisQuery := false
			for provider, pa := range perProvider {
				stats.TotalMentions += pa.MentionCount
				stats.ProviderBreakdown[provider] += pa.MentionCount
				stats.Citations += len(pa.Citations)
				if pa.Mentioned {
					mentionedThisQuery = true
				}
			}
			if mentionedThisQuery {
				stats.QueriesWithMention++
				anyCompetitorMentioned = true
			}
		}
		if anyCompetitorMentioned {
			queriesWithCompetitor++
		}
	}

	snapshot.CompetitorVisibilityScore = roundPct(queriesWithCompetitor, snapshot.TotalQueriesProcessed)

	var sovCompetitors []CompetitorMentions
	for _, stats := range snapshot.Competitors {
		snapshot.TotalCompetitorMentions += stats.TotalMentions
		if stats.TotalMentions > 0 {
			snapshot.UniqueCompetitorsDetected++
		}
		if snapshot.TotalQueriesProcessed > 0 {
			stats.VisibilityScore = roundPct(stats.QueriesWithMention, snapshot.TotalQueriesProcessed)
			stats.AverageMentionsPerQuery = float64(stats.TotalMentions) / float64(snapshot.TotalQueriesProcessed)
		}
		stats.TopProvider = topCompetitorProvider(stats.ProviderBreakdown)
		sovCompetitors = append(sovCompetitors, CompetitorMentions{Name: stats.Name, Mentions: stats.TotalMentions})
	}

	snapshot.Insights.TopCompetitor = topCompetitor(snapshot.Competitors)

	sov := ComputeShareOfVoice("", brandMentions, sovCompetitors)
	competitorShare := 0
	if sov.TotalMarketMentions > 0 {
		competitorShare = sov.CompetitorSharePct
	}
	snapshot.Insights.CompetitiveIntensity = CompetitiveIntensity(competitorShare)
	snapshot.Insights.MarketPosition = MarketPosition(competitorShare)

	return snapshot
}

// WithTrends stamps a mention trend on each competitor by comparing this
// snapshot against the immediately prior session's. A nil previous snapshot
// leaves trends unset: there is no history to compare, and inventing one was
// exactly the placeholder behavior this replaces.
func (s *CompetitorSnapshot) WithTrends(previous *CompetitorSnapshot) *CompetitorSnapshot {
	if previous == nil {
		return s
	}
	for name, stats := range s.Competitors {
		prev, ok := previous.Competitors[name]
		if !ok {
			continue
		}
		stats.MentionTrend = mentionTrend(prev.TotalMentions, stats.TotalMentions)
	}
	return s
}

func mentionTrend(previous, current int) string {
	if previous == 0 {
		if current > 0 {
			return TrendUp
		}
		return TrendStable
	}
	delta := float64(current-previous) / float64(previous)
	switch {
	case delta > 0.10:
		return TrendUp
	case delta < -0.10:
		return TrendDown
	default:
		return TrendStable
	}
}

func topCompetitor(competitors map[string]*CompetitorStats) string {
	best := ""
	bestMentions := 0
	names := sortedNames(competitors)
	for _, name := range names {
		if m := competitors[name].TotalMentions; m > bestMentions {
			best = name
			bestMentions = m
		}
	}
	return best
}

func topCompetitorProvider(breakdown map[models.Provider]int) string {
	best := ""
	bestMentions := 0
	for _, p := range models.AllProviders {
		if m := breakdown[p]; m > bestMentions {
			best = string(p)
			bestMentions = m
		}
	}
	return best
}

func sortedNames(competitors map[string]*CompetitorStats) []string {
	names := make([]string, 0, len(competitors))
	for name := range competitors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
