package analytics

import "testing"

func TestComputeShareOfVoice(t *testing.T) {
	// Brand 70 mentions against a 30-mention field: 70/30 split, brand first.
	sov := ComputeShareOfVoice("Acme", 70, []CompetitorMentions{
		{Name: "Globex", Mentions: 20},
		{Name: "Initech", Mentions: 10},
	})

	if sov.BrandSharePct != 70 {
		t.Errorf("BrandSharePct = %d, want 70", sov.BrandSharePct)
	}
	if sov.CompetitorSharePct != 30 {
		t.Errorf("CompetitorSharePct = %d, want 30", sov.CompetitorSharePct)
	}
	if sov.TotalMarketMentions != 100 {
		t.Errorf("TotalMarketMentions = %d, want 100", sov.TotalMarketMentions)
	}
	if sov.BrandRank != 1 {
		t.Errorf("BrandRank = %d, want 1", sov.BrandRank)
	}
	if len(sov.RankedEntities) != 3 {
		t.Fatalf("RankedEntities = %d entries, want 3", len(sov.RankedEntities))
	}
	if !sov.RankedEntities[0].IsBrand || sov.RankedEntities[0].Rank != 1 {
		t.Errorf("first ranked entity should be the brand at rank 1, got %+v", sov.RankedEntities[0])
	}
	if sov.RankedEntities[1].Name != "Globex" || sov.RankedEntities[2].Name != "Initech" {
		t.Errorf("competitor order wrong: %+v", sov.RankedEntities)
	}
}

func TestComputeShareOfVoiceBrandUnmentioned(t *testing.T) {
	// Brand with zero mentions is excluded from the ranking entirely.
	sov := ComputeShareOfVoice("Acme", 0, []CompetitorMentions{
		{Name: "Globex", Mentions: 5},
		{Name: "Zeta", Mentions: 5},
	})

	if sov.BrandSharePct != 0 {
		t.Errorf("BrandSharePct = %d, want 0", sov.BrandSharePct)
	}
	if sov.CompetitorSharePct != 100 {
		t.Errorf("CompetitorSharePct = %d, want 100", sov.CompetitorSharePct)
	}
	if sov.BrandRank != 0 {
		t.Errorf("BrandRank = %d, want 0 for unranked brand", sov.BrandRank)
	}
	if len(sov.RankedEntities) != 2 {
		t.Fatalf("RankedEntities = %d entries, want 2", len(sov.RankedEntities))
	}
	// Tied mentions rank alphabetically.
	if sov.RankedEntities[0].Name != "Globex" || sov.RankedEntities[1].Name != "Zeta" {
		t.Errorf("tie should break alphabetically: %+v", sov.RankedEntities)
	}
	if sov.RankedEntities[0].Rank != 1 || sov.RankedEntities[1].Rank != 2 {
		t.Errorf("ranks not sequential: %+v", sov.RankedEntities)
	}
}

func TestComputeShareOfVoiceEmptyMarket(t *testing.T) {
	sov := ComputeShareOfVoice("Acme", 0, nil)
	if sov.BrandSharePct != 100 || sov.CompetitorSharePct != 0 {
		t.Errorf("empty market should default to 100/0, got %d/%d", sov.BrandSharePct, sov.CompetitorSharePct)
	}
	if sov.BrandRank != 1 {
		t.Errorf("empty market BrandRank = %d, want 1", sov.BrandRank)
	}
	if sov.TotalMarketMentions != 0 {
		t.Errorf("TotalMarketMentions = %d, want 0", sov.TotalMarketMentions)
	}
}

func TestComputeShareOfVoiceZeroMentionCompetitorsExcluded(t *testing.T) {
	sov := ComputeShareOfVoice("Acme", 3, []CompetitorMentions{
		{Name: "Globex", Mentions: 0},
		{Name: "Initech", Mentions: 2},
	})

	if len(sov.RankedEntities) != 2 {
		t.Fatalf("zero-mention competitor should be excluded, got %+v", sov.RankedEntities)
	}
	for _, e := range sov.RankedEntities {
		if e.Name == "Globex" {
			t.Error("Globex with 0 mentions must not appear in ranking")
		}
	}
}

func TestComputeShareOfVoiceRoundingDrift(t *testing.T) {
	// Each percentage rounds independently; the pair may sum to 99 or 101.
	sov := ComputeShareOfVoice("Acme", 1, []CompetitorMentions{
		{Name: "Globex", Mentions: 1},
		{Name: "Initech", Mentions: 1},
	})

	sum := sov.BrandSharePct + sov.CompetitorSharePct
	if sum < 99 || sum > 101 {
		t.Errorf("share sum = %d, want within [99, 101]", sum)
	}
	if sov.BrandSharePct != 33 {
		t.Errorf("BrandSharePct = %d, want 33", sov.BrandSharePct)
	}
	if sov.CompetitorSharePct != 67 {
		t.Errorf("CompetitorSharePct = %d, want 67", sov.CompetitorSharePct)
	}
}

func TestCompetitiveIntensity(t *testing.T) {
	tests := []struct {
		pct  int
		want string
	}{
		{0, "low"},
		{30, "low"},
		{31, "medium"},
		{60, "medium"},
		{61, "high"},
		{100, "high"},
	}
	for _, tt := range tests {
		if got := CompetitiveIntensity(tt.pct); got != tt.want {
			t.Errorf("CompetitiveIntensity(%d) = %q, want %q", tt.pct, got, tt.want)
		}
	}
}

func TestMarketPosition(t *testing.T) {
	tests := []struct {
		pct  int
		want string
	}{
		{0, "leader"},
		{19, "leader"},
		{20, "challenger"},
		{49, "challenger"},
		{50, "follower"},
		{100, "follower"},
	}
	for _, tt := range tests {
		if got := MarketPosition(tt.pct); got != tt.want {
			t.Errorf("MarketPosition(%d) = %q, want %q", tt.pct, got, tt.want)
		}
	}
}
