// internal/analytics/sov.go
package analytics

import "sort"

// CompetitorMentions is a competitor's aggregate mention count feeding the
// share-of-voice calculation.
type CompetitorMentions struct {
	Name     string `json:"name"`
	Mentions int    `json:"mentions"`
}

// EntityShare is one ranked row of the share-of-voice output.
type EntityShare struct {
	Name     string `json:"name"`
	Mentions int    `json:"mentions"`
	SharePct int    `json:"share_pct"`
	IsBrand  bool   `json:"is_brand"`
	Rank     int    `json:"rank"`
}

// ShareOfVoice is the brand's slice of total tracked mentions versus all
// competitors combined. BrandRank is 1-based; 0 means the brand had no
// mentions and is excluded from the ranking.
type ShareOfVoice struct {
	BrandSharePct       int           `json:"brand_share_pct"`
	CompetitorSharePct  int           `json:"competitor_share_pct"`
	TotalMarketMentions int           `json:"total_market_mentions"`
	BrandRank           int           `json:"brand_rank"`
	RankedEntities      []EntityShare `json:"ranked_entities"`
}

// ComputeShareOfVoice normalizes the brand's mentions against all tracked
// competitors' mentions. Both percentages are computed independently; rounding
// can leave the pair summing to 99 or 101 and that is left alone rather than
// forcing one side to 100-other. An empty market defaults to full brand voice:
// 100/0 with the brand ranked first.
func ComputeShareOfVoice(brandName string, brandMentions int, competitors []CompetitorMentions) *ShareOfVoice {
	competitorSum := 0
	for _, c := range competitors {
		competitorSum += c.Mentions
	}
	totalMarket := brandMentions + competitorSum

	if totalMarket == 0 {
		return &ShareOfVoice{
			BrandSharePct:      100,
			CompetitorSharePct: 0,
			BrandRank:          1,
			RankedEntities: []EntityShare{
				{Name: brandName, SharePct: 100, IsBrand: true, Rank: 1},
			},
		}
	}

	sov := &ShareOfVoice{
		BrandSharePct:       roundPct(brandMentions, totalMarket),
		CompetitorSharePct:  roundPct(competitorSum, totalMarket),
		TotalMarketMentions: totalMarket,
	}

	// Zero-mention entities stay out of the ranking; they contribute nothing
	// to the market sum either way.
	var ranked []EntityShare
	if brandMentions > 0 {
		ranked = append(ranked, EntityShare{
			Name:     brandName,
			Mentions: brandMentions,
			SharePct: roundPct(brandMentions, totalMarket),
			IsBrand:  true,
		})
	}
	for _, c := range competitors {
		if c.Mentions > 0 {
			ranked = append(ranked, EntityShare{
				Name:     c.Name,
				Mentions: c.Mentions,
				SharePct: roundPct(c.Mentions, totalMarket),
			})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Mentions != ranked[j].Mentions {
			return ranked[i].Mentions > ranked[j].Mentions
		}
		return ranked[i].Name < ranked[j].Name
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
		if ranked[i].IsBrand {
			sov.BrandRank = ranked[i].Rank
		}
	}
	sov.RankedEntities = ranked

	return sov
}

// CompetitiveIntensity buckets the competitors' combined share of voice.
// Thresholds are fixed, not configurable.
func CompetitiveIntensity(competitorSharePct int) string {
	switch {
	case competitorSharePct <= 30:
		return "low"
	case competitorSharePct <= 60:
		return "medium"
	default:
		return "high"
	}
}

// MarketPosition labels the brand's standing from the competitors' combined
// share of voice. Thresholds are fixed, not configurable.
func MarketPosition(competitorSharePct int) string {
	switch {
	case competitorSharePct < 20:
		return "leader"
	case competitorSharePct < 50:
		return "challenger"
	default:
		return "follower"
	}
}
