package main

// Re-derives recovery markers from the raw treadmill samples already stored
// in ClickHouse. Useful after an extractor fix: markers are keyed by session
// and replace the previous row on merge.
//
// Usage:
//   go run scripts/backfill_markers.go                       # every stored session
//   go run scripts/backfill_markers.go -sessions S001,S002   # specific sessions
//   go run scripts/backfill_markers.go -dry-run

import (
	"context"
	"flag"
	"strings"

	chclient "asclepius/internal/adapters/clickhouse"
	"asclepius/internal/adapters/config"
	"asclepius/internal/domain/cardio"
	chrepo "asclepius/internal/repository/clickhouse"
	"asclepius/pkg/logger"
)

func main() {
	sessionList := flag.String("sessions", "", "Comma-separated session IDs (empty = all stored sessions)")
	dryRun := flag.Bool("dry-run", false, "Extract and report without writing markers")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	log := logger.Get()

	ch, err := chclient.NewClient(cfg.ClickHouse)
	if err != nil {
		log.Fatalf("Failed to connect to ClickHouse: %v", err)
	}
	defer ch.Close()

	sampleRepo := chrepo.NewSampleRepository(ch.Conn())
	markerRepo := chrepo.NewMarkerRepository(ch.Conn())
	extractor := cardio.NewExtractor()

	ctx := context.Background()

	sessions, err := resolveSessions(ctx, sampleRepo, *sessionList)
	if err != nil {
		log.Fatalf("Failed to list sessions: %v", err)
	}
	if len(sessions) == 0 {
		log.Warn("No stored sessions to backfill")
		return
	}

	log.Infow("Starting marker backfill",
		"sessions", len(sessions),
		"dry_run", *dryRun,
	)

	var rewritten, skipped, failed int
	for _, sessionID := range sessions {
		samples, err := sampleRepo.GetSessionSamples(ctx, sessionID)
		if err != nil {
			log.Errorw("Failed to load session samples", "session_id", sessionID, "error", err)
			failed++
			continue
		}

		markers, skips := extractor.ExtractWithSkips(samples)
		for _, s := range skips {
			log.Debugw("Session still unusable", "session_id", s.SessionID, "reason", s.Reason)
			skipped++
		}
		if len(markers) == 0 {
			continue
		}

		if *dryRun {
			rewritten += len(markers)
			continue
		}

		if err := markerRepo.Store(ctx, markers); err != nil {
			log.Errorw("Failed to store markers", "session_id", sessionID, "error", err)
			failed++
			continue
		}
		rewritten += len(markers)
	}

	log.Infow("✅ Marker backfill complete",
		"rewritten", rewritten,
		"skipped", skipped,
		"failed", failed,
		"dry_run", *dryRun,
	)
}

// resolveSessions expands the -sessions flag, falling back to every stored
// session
func resolveSessions(ctx context.Context, repo cardio.SampleRepository, list string) ([]string, error) {
	if strings.TrimSpace(list) == "" {
		return repo.ListSessionIDs(ctx)
	}

	var out []string
	for _, id := range strings.Split(list, ",") {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out, nil
}
