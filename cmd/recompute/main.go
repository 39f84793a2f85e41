// cmd/recompute/main.go
//
// Offline recompute tool: derives a brand's lifetime analytics straight from
// the persisted query history and prints the snapshot as JSON. With -csv it
// writes the citation export instead. Useful for verifying that cached
// dashboard numbers match what the history actually contains.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/getcito/ai-monitor/internal/config"
	"github.com/getcito/ai-monitor/internal/store"
	"github.com/getcito/ai-monitor/services"
	"github.com/google/uuid"
)

func main() {
	brandFlag := flag.String("brand", "", "brand UUID to recompute")
	scopeFlag := flag.String("scope", "lifetime", "analytics scope: latest or lifetime")
	csvFlag := flag.Bool("csv", false, "write the citations CSV to stdout instead of the snapshot")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file loaded")
	}

	brandID, err := uuid.Parse(*brandFlag)
	if err != nil {
		logrus.Fatalf("Invalid -brand value %q: %v", *brandFlag, err)
	}
	scope := services.Scope(*scopeFlag)
	if scope != services.ScopeLatest && scope != services.ScopeLifetime {
		logrus.Fatalf("Invalid -scope value %q", *scopeFlag)
	}

	cfg := config.Load()
	ctx := context.Background()

	st, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer st.Close()

	// No cache on purpose: this tool exists to see the uncached truth.
	analyticsService := services.NewAnalyticsService(st, nil)

	if *csvFlag {
		citations, err := analyticsService.Citations(ctx, brandID, scope)
		if err != nil {
			logrus.Fatalf("Failed to load citations: %v", err)
		}
		if err := services.NewExportService().WriteCitationsCSV(os.Stdout, citations); err != nil {
			logrus.Fatalf("Failed to write CSV: %v", err)
		}
		return
	}

	snapshot, err := analyticsService.BrandSnapshot(ctx, brandID, scope)
	if err != nil {
		logrus.Fatalf("Failed to compute snapshot: %v", err)
	}
	sov, err := analyticsService.ShareOfVoice(ctx, brandID, scope)
	if err != nil {
		logrus.Fatalf("Failed to compute share of voice: %v", err)
	}

	out := map[string]any{
		"brand_id":       brandID.String(),
		"scope":          scope,
		"snapshot":       snapshot,
		"share_of_voice": sov,
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		logrus.Fatalf("Failed to encode output: %v", err)
	}
}
