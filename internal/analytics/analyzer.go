// internal/analytics/analyzer.go
package analytics

import (
	"sort"

	"github.com/getcito/ai-monitor/internal/models"
	"github.com/sirupsen/logrus"
)

// ProviderAnalysis is one entity's mention/citation result for one provider on
// one query. Invariant: Mentioned == (MentionCount > 0); domain citations are
// tracked on the citations themselves, not folded into the mention flag.
type ProviderAnalysis struct {
	Mentioned    bool              `json:"mentioned"`
	MentionCount int               `json:"mention_count"`
	Citations    []models.Citation `json:"citations,omitempty"`
}

// PerQueryAnalysis is the derived view of a single query across providers. It
// is recomputed from the QueryResult and the competitor list, never treated as
// a source of truth.
type PerQueryAnalysis struct {
	QueryID     string                                         `json:"query_id"`
	Query       string                                         `json:"query"`
	Brand       map[models.Provider]*ProviderAnalysis          `json:"brand"`
	Competitors map[string]map[models.Provider]*ProviderAnalysis `json:"competitors"`
}

// Providers returns the providers that contributed to this query, in the fixed
// enum order.
func (a *PerQueryAnalysis) Providers() []models.Provider {
	var out []models.Provider
	for _, p := range models.AllProviders {
		if _, ok := a.Brand[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

// BrandMentioned reports whether any provider mentioned the brand on this
// query.
func (a *PerQueryAnalysis) BrandMentioned() bool {
	for _, pa := range a.Brand {
		if pa.Mentioned {
			return true
		}
	}
	return false
}

// AnalyzeQuery computes brand and competitor mentions plus extracted citations
// for every provider present in the query result. Each provider is analyzed
// independently; a competitor mentioned by Perplexity but not ChatGPT stays
// that way. Providers that are absent, failed, or carry an unknown key
// contribute nothing, and a nil record yields an empty analysis rather than an
// error.
func AnalyzeQuery(qr *models.QueryResult, brand models.MatchEntity, competitors []*models.Competitor) *PerQueryAnalysis {
	analysis := &PerQueryAnalysis{
		Brand:       make(map[models.Provider]*ProviderAnalysis),
		Competitors: make(map[string]map[models.Provider]*ProviderAnalysis),
	}
	for _, c := range competitors {
		analysis.Competitors[c.Name] = make(map[models.Provider]*ProviderAnalysis)
	}
	if qr == nil {
		return analysis
	}

	analysis.QueryID = qr.ID.String()
	analysis.Query = qr.Query

	// Keys are walked in sorted order so that legacy records carrying two
	// spellings of the same provider resolve the same way on every run: the
	// first spelling wins, the duplicate is dropped.
	keys := make([]string, 0, len(qr.Results))
	for key := range qr.Results {
		keys = append(keys, string(key))
	}
	sort.Strings(keys)

	for _, key := range keys {
		result := qr.Results[models.Provider(key)]
		if result == nil || !result.Success {
			continue
		}
		provider, ok := models.NormalizeProviderKey(key)
		if !ok {
			logrus.WithFields(logrus.Fields{
				"provider": key,
				"query_id": analysis.QueryID,
			}).Warn("Skipping result with unknown provider key")
			continue
		}
		if _, dup := analysis.Brand[provider]; dup {
			logrus.WithFields(logrus.Fields{
				"provider": key,
				"query_id": analysis.QueryID,
			}).Warn("Skipping duplicate spelling of an already analyzed provider")
			continue
		}

		cc := CitationContext{
			Brand:     brand,
			Query:     qr.Query,
			QueryID:   analysis.QueryID,
			Timestamp: result.Timestamp,
		}
		citations := ExtractCitations(provider, result.Payload, cc)

		brandCount := CountMentions(result.ResponseText, brand)
		analysis.Brand[provider] = &ProviderAnalysis{
			Mentioned:    brandCount > 0,
			MentionCount: brandCount,
			Citations:    citations,
		}

		for _, comp := range competitors {
			entity := comp.MatchEntity()
			count := CountMentions(result.ResponseText, entity)
			analysis.Competitors[comp.Name][provider] = &ProviderAnalysis{
				Mentioned:    count > 0,
				MentionCount: count,
				Citations:    competitorCitations(citations, entity),
			}
		}
	}

	return analysis
}

// competitorCitations picks out the citations attributable to a competitor:
// either the cited domain is the competitor's own, or its text/source mentions
// the competitor. A competitor with no domain simply never matches on domain.
func competitorCitations(citations []models.Citation, entity models.MatchEntity) []models.Citation {
	var out []models.Citation
	compDomain := NormalizeDomain(entity.Domain)
	for _, c := range citations {
		if compDomain != "" && c.Domain == compDomain {
			out = append(out, c)
			continue
		}
		if IsMentioned(c.Text, entity) || IsMentioned(c.Source, entity) {
			out = append(out, c)
		}
	}
	return out
}
