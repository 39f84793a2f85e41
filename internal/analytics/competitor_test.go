package analytics

import (
	"testing"

	"github.com/getcito/ai-monitor/internal/models"
)

// competitorAnalysis builds a PerQueryAnalysis with brand and competitor
// mention counts on a single provider.
func competitorAnalysis(provider models.Provider, brandCount int, compCounts map[string]int) *PerQueryAnalysis {
	a := &PerQueryAnalysis{
		Brand: map[models.Provider]*ProviderAnalysis{
			provider: {Mentioned: brandCount > 0, MentionCount: brandCount},
		},
		Competitors: make(map[string]map[models.Provider]*ProviderAnalysis),
	}
	for name, n := range compCounts {
		a.Competitors[name] = map[models.Provider]*ProviderAnalysis{
			provider: {Mentioned: n > 0, MentionCount: n},
		}
	}
	return a
}

func trackedCompetitors(names ...string) []*models.Competitor {
	var out []*models.Competitor
	for _, name := range names {
		out = append(out, &models.Competitor{Name: name})
	}
	return out
}

func TestAggregateCompetitors(t *testing.T) {
	competitors := trackedCompetitors("Globex", "Initech")
	analyses := []*PerQueryAnalysis{
		competitorAnalysis(models.ProviderChatGPT, 1, map[string]int{"Globex": 2, "Initech": 0}),
		competitorAnalysis(models.ProviderPerplexity, 0, map[string]int{"Globex": 1, "Initech": 1}),
		competitorAnalysis(models.ProviderChatGPT, 2, map[string]int{"Globex": 0, "Initech": 0}),
	}

	snapshot := AggregateCompetitors(analyses, competitors)

	if snapshot.TotalQueriesProcessed != 3 {
		t.Errorf("TotalQueriesProcessed = %d, want 3", snapshot.TotalQueriesProcessed)
	}
	if snapshot.TotalCompetitorMentions != 4 {
		t.Errorf("TotalCompetitorMentions = %d, want 4", snapshot.TotalCompetitorMentions)
	}
	if snapshot.UniqueCompetitorsDetected != 2 {
		t.Errorf("UniqueCompetitorsDetected = %d, want 2", snapshot.UniqueCompetitorsDetected)
	}
	// 2 of 3 queries had some competitor mentioned.
	if snapshot.CompetitorVisibilityScore != 67 {
		t.Errorf("CompetitorVisibilityScore = %d, want 67", snapshot.CompetitorVisibilityScore)
	}

	globex := snapshot.Competitors["Globex"]
	if globex.TotalMentions != 3 || globex.QueriesWithMention != 2 {
		t.Errorf("Globex stats = %+v", globex)
	}
	if globex.VisibilityScore != 67 {
		t.Errorf("Globex VisibilityScore = %d, want 67", globex.VisibilityScore)
	}
	if globex.TopProvider != "chatgpt" {
		t.Errorf("Globex TopProvider = %q, want chatgpt", globex.TopProvider)
	}
	if globex.ProviderBreakdown[models.ProviderChatGPT] != 2 ||
		globex.ProviderBreakdown[models.ProviderPerplexity] != 1 {
		t.Errorf("Globex breakdown = %v", globex.ProviderBreakdown)
	}

	if snapshot.Insights.TopCompetitor != "Globex" {
		t.Errorf("TopCompetitor = %q, want Globex", snapshot.Insights.TopCompetitor)
	}
	// Brand 3 vs competitors 4: competitor share 57, medium intensity, follower.
	if snapshot.Insights.CompetitiveIntensity != "medium" {
		t.Errorf("CompetitiveIntensity = %q, want medium", snapshot.Insights.CompetitiveIntensity)
	}
	if snapshot.Insights.MarketPosition != "follower" {
		t.Errorf("MarketPosition = %q, want follower", snapshot.Insights.MarketPosition)
	}
}

func TestAggregateCompetitorsEmptyHistory(t *testing.T) {
	snapshot := AggregateCompetitors(nil, trackedCompetitors("Globex"))
	if snapshot.TotalQueriesProcessed != 0 || snapshot.TotalCompetitorMentions != 0 {
		t.Errorf("empty history should zero the snapshot, got %+v", snapshot)
	}
	if snapshot.Insights.TopCompetitor != "" {
		t.Errorf("no mentions, no top competitor, got %q", snapshot.Insights.TopCompetitor)
	}
	// Empty market defaults the brand to full voice.
	if snapshot.Insights.CompetitiveIntensity != "low" {
		t.Errorf("CompetitiveIntensity = %q, want low", snapshot.Insights.CompetitiveIntensity)
	}
	if snapshot.Insights.MarketPosition != "leader" {
		t.Errorf("MarketPosition = %q, want leader", snapshot.Insights.MarketPosition)
	}
}

func TestAggregateCompetitorsUntrackedNameIgnored(t *testing.T) {
	analyses := []*PerQueryAnalysis{
		competitorAnalysis(models.ProviderChatGPT, 0, map[string]int{"Removed Corp": 5, "Globex": 1}),
	}
	snapshot := AggregateCompetitors(analyses, trackedCompetitors("Globex"))

	if _, ok := snapshot.Competitors["Removed Corp"]; ok {
		t.Error("competitor absent from the tracked list must not be resurrected")
	}
	if snapshot.TotalCompetitorMentions != 1 {
		t.Errorf("TotalCompetitorMentions = %d, want 1", snapshot.TotalCompetitorMentions)
	}
}

func TestTopCompetitorTieBreaksAlphabetically(t *testing.T) {
	analyses := []*PerQueryAnalysis{
		competitorAnalysis(models.ProviderChatGPT, 0, map[string]int{"Zeta": 3, "Acme Rival": 3}),
	}
	snapshot := AggregateCompetitors(analyses, trackedCompetitors("Zeta", "Acme Rival"))
	if snapshot.Insights.TopCompetitor != "Acme Rival" {
		t.Errorf("TopCompetitor = %q, want Acme Rival", snapshot.Insights.TopCompetitor)
	}
}

func TestWithTrends(t *testing.T) {
	current := AggregateCompetitors([]*PerQueryAnalysis{
		competitorAnalysis(models.ProviderChatGPT, 0, map[string]int{
			"Rising": 5, "Falling": 2, "Steady": 10, "Fresh": 1,
		}),
	}, trackedCompetitors("Rising", "Falling", "Steady", "Fresh"))

	previous := AggregateCompetitors([]*PerQueryAnalysis{
		competitorAnalysis(models.ProviderChatGPT, 0, map[string]int{
			"Rising": 2, "Falling": 5, "Steady": 10,
		}),
	}, trackedCompetitors("Rising", "Falling", "Steady"))

	current.WithTrends(previous)

	tests := []struct {
		name string
		want string
	}{
		{"Rising", TrendUp},
		{"Falling", TrendDown},
		{"Steady", TrendStable},
		{"Fresh", ""}, // not in the prior session, no basis for a trend
	}
	for _, tt := range tests {
		if got := current.Competitors[tt.name].MentionTrend; got != tt.want {
			t.Errorf("%s trend = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestWithTrendsNilPrevious(t *testing.T) {
	current := AggregateCompetitors([]*PerQueryAnalysis{
		competitorAnalysis(models.ProviderChatGPT, 0, map[string]int{"Globex": 2}),
	}, trackedCompetitors("Globex"))

	current.WithTrends(nil)
	if got := current.Competitors["Globex"].MentionTrend; got != "" {
		t.Errorf("nil previous must leave trend unset, got %q", got)
	}
}

func TestMentionTrend(t *testing.T) {
	tests := []struct {
		name     string
		previous int
		current  int
		want     string
	}{
		{"growth above band", 10, 12, TrendUp},
		{"decline below band", 10, 8, TrendDown},
		{"within band up", 10, 11, TrendStable},
		{"within band down", 10, 9, TrendStable},
		{"equal", 5, 5, TrendStable},
		{"from zero to some", 0, 1, TrendUp},
		{"zero to zero", 0, 0, TrendStable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mentionTrend(tt.previous, tt.current); got != tt.want {
				t.Errorf("mentionTrend(%d, %d) = %q, want %q", tt.previous, tt.current, got, tt.want)
			}
		})
	}
}
