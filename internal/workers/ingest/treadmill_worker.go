package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"asclepius/internal/domain/cardio"
	"asclepius/internal/domain/intake"
	"asclepius/internal/events"
	"asclepius/internal/metrics"
	"asclepius/internal/workers"
	"asclepius/pkg/errors"
)

const workerName = "treadmill_ingest"

// TreadmillIngestWorker scans the treadmill intake directory for new session
// log exports, stores their raw samples and derives recovery markers. Files
// already recorded in the intake ledger are skipped, so re-scanning the same
// directory is cheap.
type TreadmillIngestWorker struct {
	*workers.BaseWorker
	ledger     intake.Ledger
	sampleRepo cardio.SampleRepository
	markerRepo cardio.MarkerRepository
	extractor  *cardio.Extractor
	publisher  *events.Publisher
	intakeDir  string
}

// NewTreadmillIngestWorker creates a new treadmill ingest worker
func NewTreadmillIngestWorker(
	ledger intake.Ledger,
	sampleRepo cardio.SampleRepository,
	markerRepo cardio.MarkerRepository,
	publisher *events.Publisher,
	intakeDir string,
	interval time.Duration,
	enabled bool,
) *TreadmillIngestWorker {
	return &TreadmillIngestWorker{
		BaseWorker: workers.NewBaseWorker(workerName, interval, enabled),
		ledger:     ledger,
		sampleRepo: sampleRepo,
		markerRepo: markerRepo,
		extractor:  cardio.NewExtractor(),
		publisher:  publisher,
		intakeDir:  intakeDir,
	}
}

// Run executes one scan of the intake directory
func (w *TreadmillIngestWorker) Run(ctx context.Context) error {
	start := time.Now()
	w.Log().Debug("Treadmill ingest: scanning intake directory", "dir", w.intakeDir)

	entries, err := os.ReadDir(w.intakeDir)
	if err != nil {
		w.RecordError(err, time.Since(start))
		return errors.Wrapf(err, "read intake dir %s", w.intakeDir)
	}

	filesIngested := 0
	samplesStored := 0
	sessionsExtracted := 0
	sessionsSkipped := 0
	errorCount := 0

	for _, entry := range entries {
		// Check for context cancellation (graceful shutdown)
		select {
		case <-ctx.Done():
			w.Log().Info("Treadmill ingest interrupted by shutdown",
				"files_ingested", filesIngested,
			)
			return ctx.Err()
		default:
		}

		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
			continue
		}
		name := entry.Name()

		processed, err := w.ledger.IsProcessed(ctx, name)
		if err != nil {
			w.Log().Error("Failed to check intake ledger", "file", name, "error", err)
			errorCount++
			continue
		}
		if processed {
			continue
		}

		stored, extracted, skipped, err := w.ingestFile(ctx, name)
		if err != nil {
			w.Log().Error("Failed to ingest treadmill log", "file", name, "error", err)
			errorCount++
			continue
		}

		if err := w.ledger.MarkProcessed(ctx, name); err != nil {
			// The file will be picked up again next scan; raw samples get
			// duplicated then, markers are replaced by session.
			w.Log().Error("Failed to mark intake file processed", "file", name, "error", err)
			errorCount++
		}

		filesIngested++
		samplesStored += stored
		sessionsExtracted += extracted
		sessionsSkipped += skipped
	}

	if filesIngested > 0 || errorCount > 0 {
		w.Log().Info("Treadmill intake complete",
			"files_ingested", filesIngested,
			"samples_stored", humanize.Comma(int64(samplesStored)),
			"sessions_extracted", sessionsExtracted,
			"sessions_skipped", sessionsSkipped,
			"errors", errorCount,
			"duration", time.Since(start),
		)
	}

	w.RecordRun(time.Since(start))
	return nil
}

// ingestFile stores one session log's samples and the markers derived from
// them. It returns the sample count plus how many sessions yielded markers
// and how many were dropped.
func (w *TreadmillIngestWorker) ingestFile(ctx context.Context, name string) (int, int, int, error) {
	path := filepath.Join(w.intakeDir, name)

	f, err := os.Open(path)
	if err != nil {
		return 0, 0, 0, errors.Wrapf(err, "open treadmill log %s", path)
	}
	defer f.Close()

	samples, err := cardio.LoadSamples(f, time.Now().UTC())
	if err != nil {
		return 0, 0, 0, errors.Wrapf(err, "parse treadmill log %s", name)
	}
	if len(samples) == 0 {
		// Header-only or fully malformed export; mark it processed so the
		// scan does not retry it forever.
		w.Log().Warn("Treadmill log has no usable rows", "file", name)
		return 0, 0, 0, nil
	}

	if err := w.sampleRepo.InsertSamples(ctx, samples); err != nil {
		return 0, 0, 0, errors.Wrapf(err, "store samples from %s", name)
	}
	metrics.RecordSamplesIngested(len(samples))

	markers, skipped := w.extractor.ExtractWithSkips(samples)

	for _, s := range skipped {
		metrics.RecordSessionExtracted(metrics.StatusFailed)
		metrics.RecordSessionSkipped(s.Reason)
		w.Log().Debug("Session skipped during extraction",
			"file", name,
			"session_id", s.SessionID,
			"reason", s.Reason,
		)
		// Publish failures are logged by the publisher and never block intake
		_ = w.publisher.PublishSessionSkipped(ctx, workerName, s.SessionID, s.SubjectID, s.Reason)
	}

	if len(markers) > 0 {
		if err := w.markerRepo.Store(ctx, markers); err != nil {
			return len(samples), 0, len(skipped), errors.Wrapf(err, "store markers from %s", name)
		}
		for range markers {
			metrics.RecordSessionExtracted(metrics.StatusOK)
		}
	}

	return len(samples), len(markers), len(skipped), nil
}
