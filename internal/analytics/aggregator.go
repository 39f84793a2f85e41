// internal/analytics/aggregator.go
package analytics

import (
	"math"
	"sort"

	"github.com/getcito/ai-monitor/internal/models"
)

// ProviderStats is one provider's slice of an analytics snapshot.
type ProviderStats struct {
	QueriesProcessed   int `json:"queries_processed"`
	QueriesWithMention int `json:"queries_with_mention"`
	BrandMentions      int `json:"brand_mentions"`
	Citations          int `json:"citations"`
	DomainCitations    int `json:"domain_citations"`
}

// Insights are the derived metrics shown alongside a snapshot.
type Insights struct {
	AverageBrandMentionsPerQuery float64  `json:"average_brand_mentions_per_query"`
	TopPerformingProvider        string   `json:"top_performing_provider,omitempty"`
	TopProviders                 []string `json:"top_providers,omitempty"`
}

// AnalyticsSnapshot is the cumulative rollup of an ordered run of per-query
// analyses, either one processing session ("latest") or a brand's entire
// history ("lifetime"). Both scopes use this same fold over a different input
// slice, and a lifetime snapshot is always rederived from the full history,
// never incrementally from a prior cached value.
type AnalyticsSnapshot struct {
	TotalQueriesProcessed int                                `json:"total_queries_processed"`
	QueriesWithMention    int                                `json:"queries_with_mention"`
	TotalBrandMentions    int                                `json:"total_brand_mentions"`
	TotalCitations        int                                `json:"total_citations"`
	TotalDomainCitations  int                                `json:"total_domain_citations"`
	BrandVisibilityScore  int                                `json:"brand_visibility_score"`
	ProviderStats         map[models.Provider]*ProviderStats `json:"provider_stats"`
	Insights              Insights                           `json:"insights"`
}

// Aggregate folds an ordered sequence of per-query analyses into a snapshot.
// Order is the chronological processing order of the underlying history. The
// fold is a pure single pass: calling it twice on the same slice yields
// identical output, and a nil entry contributes zero without aborting the rest.
//
// The visibility score is the percentage of queries where the brand was
// mentioned by at least one provider. This is the only definition that stays
// stable across latest and lifetime scopes; mention-count-weighted variants
// were rejected (see DESIGN.md).
func Aggregate(analyses []*PerQueryAnalysis) *AnalyticsSnapshot {
	snapshot := &AnalyticsSnapshot{
		ProviderStats: make(map[models.Provider]*ProviderStats, len(models.AllProviders)),
	}
	for _, p := range models.AllProviders {
		snapshot.ProviderStats[p] = &ProviderStats{}
	}

	for _, analysis := range analyses {
		if analysis == nil {
			continue
		}
		snapshot.TotalQueriesProcessed++
		if analysis.BrandMentioned() {
			snapshot.QueriesWithMention++
		}

		for provider, pa := range analysis.Brand {
			stats, ok := snapshot.ProviderStats[provider]
			if !ok {
				// Unknown keys were already warned about at analysis time.
				continue
			}
			stats.QueriesProcessed++
			if pa.Mentioned {
				stats.QueriesWithMention++
			}
			stats.BrandMentions += pa.MentionCount
			stats.Citations += len(pa.Citations)
			for _, c := range pa.Citations {
				if c.IsDomainCitation {
					stats.DomainCitations++
				}
			}

			snapshot.TotalBrandMentions += pa.MentionCount
			snapshot.TotalCitations += len(pa.Citations)
			for _, c := range pa.Citations {
				if c.IsDomainCitation {
					snapshot.TotalDomainCitations++
				}
			}
		}
	}

	if snapshot.TotalQueriesProcessed > 0 {
		snapshot.BrandVisibilityScore = roundPct(snapshot.QueriesWithMention, snapshot.TotalQueriesProcessed)
		snapshot.Insights.AverageBrandMentionsPerQuery =
			float64(snapshot.TotalBrandMentions) / float64(snapshot.TotalQueriesProcessed)
	}

	snapshot.Insights.TopProviders = topProviders(snapshot.ProviderStats)
	if len(snapshot.Insights.TopProviders) > 0 {
		snapshot.Insights.TopPerformingProvider = snapshot.Insights.TopProviders[0]
	}

	return snapshot
}

// topProviders returns every provider tied for the highest brand mention
// count, sorted alphabetically so ties resolve deterministically. No mentions
// anywhere means no top performer.
func topProviders(stats map[models.Provider]*ProviderStats) []string {
	best := 0
	for _, s := range stats {
		if s.BrandMentions > best {
			best = s.BrandMentions
		}
	}
	if best == 0 {
		return nil
	}

	var top []string
	for p, s := range stats {
		if s.BrandMentions == best {
			top = append(top, string(p))
		}
	}
	sort.Strings(top)
	return top
}

func roundPct(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(part) / float64(total)))
}
