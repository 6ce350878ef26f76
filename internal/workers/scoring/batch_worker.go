package scoring

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"asclepius/internal/adapters/fitfile"
	redisclient "asclepius/internal/adapters/redis"
	"asclepius/internal/domain/assessment"
	"asclepius/internal/domain/cardio"
	"asclepius/internal/domain/features"
	"asclepius/internal/domain/gait"
	"asclepius/internal/events"
	scoringservice "asclepius/internal/services/scoring"
	"asclepius/internal/workers"
	"asclepius/pkg/errors"
)

const workerName = "batch_score"

// batchLockKey guards cohort scoring so only one instance runs a batch
const batchLockKey = "batch:score"

// BatchScoreWorker scores every subject whose latest treadmill session has no
// stored assessment yet. It joins the newest recovery markers with the
// wearable cohort, runs the scoring pipeline over the pending subjects and
// writes the discharge report.
type BatchScoreWorker struct {
	*workers.BaseWorker
	markerRepo   cardio.MarkerRepository
	assessRepo   assessment.Repository
	redis        *redisclient.Client
	publisher    *events.Publisher
	pipeline     *scoringservice.Pipeline
	wearableDir  string
	reportDir    string
	reportFormat string
	lockTTL      time.Duration
}

// NewBatchScoreWorker creates a new batch scoring worker
func NewBatchScoreWorker(
	markerRepo cardio.MarkerRepository,
	assessRepo assessment.Repository,
	redis *redisclient.Client,
	publisher *events.Publisher,
	pipeline *scoringservice.Pipeline,
	wearableDir string,
	reportDir string,
	reportFormat string,
	lockTTL time.Duration,
	interval time.Duration,
	enabled bool,
) *BatchScoreWorker {
	return &BatchScoreWorker{
		BaseWorker:   workers.NewBaseWorker(workerName, interval, enabled),
		markerRepo:   markerRepo,
		assessRepo:   assessRepo,
		redis:        redis,
		publisher:    publisher,
		pipeline:     pipeline,
		wearableDir:  wearableDir,
		reportDir:    reportDir,
		reportFormat: reportFormat,
		lockTTL:      lockTTL,
	}
}

// Run executes one batch scoring pass
func (w *BatchScoreWorker) Run(ctx context.Context) error {
	start := time.Now()
	w.Log().Debug("Batch scoring: starting iteration")

	if err := w.acquireLock(ctx); err != nil {
		if errors.Is(err, errors.ErrBatchLocked) {
			w.Log().Info("Another batch run holds the lock, skipping")
			return nil
		}
		w.RecordError(err, time.Since(start))
		return err
	}
	defer w.releaseLock()

	markers, err := w.markerRepo.LatestBySubject(ctx)
	if err != nil {
		w.RecordError(err, time.Since(start))
		return errors.Wrap(err, "load latest recovery markers")
	}
	if len(markers) == 0 {
		w.Log().Debug("No recovery markers to score")
		w.RecordRun(time.Since(start))
		return nil
	}

	pending, err := w.pendingSubjects(ctx, markers)
	if err != nil {
		w.RecordError(err, time.Since(start))
		return err
	}
	if len(pending) == 0 {
		w.Log().Debug("All current sessions already assessed")
		w.RecordRun(time.Since(start))
		return nil
	}

	cohort, err := w.loadWearables()
	if err != nil {
		w.RecordError(err, time.Since(start))
		return err
	}

	inputs := make([]scoringservice.SubjectInput, 0, len(pending))
	for _, subjectID := range pending {
		m := markers[subjectID]
		inputs = append(inputs, scoringservice.SubjectInput{
			SubjectID: subjectID,
			SessionID: m.SessionID,
			Markers:   m.Features(),
			Gait:      cohort.Subjects[subjectID],
		})
	}

	batch := w.pipeline.ScoreBatch(ctx, inputs)

	stored := 0
	storeErrors := 0
	for _, res := range batch.Results {
		if err := w.assessRepo.Store(ctx, res.Assessment); err != nil {
			w.Log().Error("Failed to store assessment",
				"subject_id", res.Assessment.SubjectID,
				"error", err,
			)
			storeErrors++
			continue
		}
		stored++
		// Publish failures are logged by the publisher and never block scoring
		_ = w.publisher.PublishAssessmentCompleted(ctx, workerName, res.Assessment)
	}

	failedSubjects := make([]string, 0, len(batch.Failures))
	for _, f := range batch.Failures {
		w.Log().Warn("Subject excluded from batch",
			"subject_id", f.SubjectID,
			"session_id", f.SessionID,
			"error", f.Err,
		)
		failedSubjects = append(failedSubjects, f.SubjectID)
	}

	reportPaths := w.writeReports(batch.Results)

	_ = w.publisher.PublishBatchCompleted(ctx, workerName,
		stored, len(batch.Failures), failedSubjects, batch.Elapsed, reportPaths)

	w.Log().Info("Batch scoring complete",
		"scored", humanize.Comma(int64(stored)),
		"failed", len(batch.Failures),
		"store_errors", storeErrors,
		"elapsed", batch.Elapsed,
		"reports", strings.Join(reportPaths, ", "),
	)

	w.RecordRun(time.Since(start))
	return nil
}

func (w *BatchScoreWorker) acquireLock(ctx context.Context) error {
	acquired, err := w.redis.AcquireLock(ctx, batchLockKey, w.lockTTL)
	if err != nil {
		return errors.Wrap(err, "acquire batch lock")
	}
	if !acquired {
		return errors.ErrBatchLocked
	}
	return nil
}

// releaseLock uses its own context so the lock is freed even when the run
// context is already cancelled
func (w *BatchScoreWorker) releaseLock() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := w.redis.ReleaseLock(ctx, batchLockKey); err != nil {
		w.Log().Error("Failed to release batch lock", "error", err)
	}
}

// pendingSubjects returns subjects whose latest session has no stored
// assessment yet, in stable subject order
func (w *BatchScoreWorker) pendingSubjects(ctx context.Context, markers map[string]cardio.RecoveryMarkers) ([]string, error) {
	sessionIDs := make([]string, 0, len(markers))
	for _, m := range markers {
		sessionIDs = append(sessionIDs, m.SessionID)
	}

	unassessed, err := w.assessRepo.FilterUnassessed(ctx, sessionIDs)
	if err != nil {
		return nil, errors.Wrap(err, "filter assessed sessions")
	}

	pendingSessions := make(map[string]bool, len(unassessed))
	for _, id := range unassessed {
		pendingSessions[id] = true
	}

	pending := make([]string, 0, len(markers))
	for subjectID, m := range markers {
		if pendingSessions[m.SessionID] {
			pending = append(pending, subjectID)
		}
	}
	sort.Strings(pending)
	return pending, nil
}

// loadWearables reads the wearable directory: cohort tables merged in name
// order first, then per-subject FIT exports layered on top. Export files are
// named by subject, e.g. P042.fit.
func (w *BatchScoreWorker) loadWearables() (*gait.Cohort, error) {
	entries, err := os.ReadDir(w.wearableDir)
	if err != nil {
		return nil, errors.Wrapf(err, "read wearable dir %s", w.wearableDir)
	}

	cohort := &gait.Cohort{Subjects: make(map[string]features.Vector)}
	var fitFiles []string
	tablesLoaded := 0

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()

		switch strings.ToLower(filepath.Ext(name)) {
		case ".csv":
			c, err := w.loadCohortFile(filepath.Join(w.wearableDir, name))
			if err != nil {
				w.Log().Error("Failed to load wearable cohort table", "file", name, "error", err)
				continue
			}
			cohort.Merge(c)
			tablesLoaded++
		case ".fit":
			fitFiles = append(fitFiles, name)
		}
	}

	exportsApplied := 0
	for _, name := range fitFiles {
		summary, err := fitfile.DecodeFile(filepath.Join(w.wearableDir, name))
		if err != nil {
			w.Log().Debug("Skipping unusable wearable export", "file", name, "error", err)
			continue
		}

		subjectID := strings.TrimSuffix(name, filepath.Ext(name))
		// A subject's own export wins over their cohort table row
		if base, ok := cohort.Subjects[subjectID]; ok {
			cohort.Subjects[subjectID] = features.Merge(base, summary.Features())
		} else {
			cohort.Subjects[subjectID] = summary.Features()
		}
		exportsApplied++
	}

	w.Log().Debug("Wearable data loaded",
		"tables", tablesLoaded,
		"fit_exports", exportsApplied,
		"subjects", len(cohort.Subjects),
	)
	return cohort, nil
}

func (w *BatchScoreWorker) loadCohortFile(path string) (*gait.Cohort, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open cohort table %s", path)
	}
	defer f.Close()

	return gait.LoadCohort(f)
}

// writeReports renders the discharge report in the configured formats. Report
// failures never fail the run; assessments are already persisted.
func (w *BatchScoreWorker) writeReports(results []*scoringservice.Result) []string {
	rows := scoringservice.BuildReport(results)
	if len(rows) == 0 {
		return nil
	}

	if err := os.MkdirAll(w.reportDir, 0o755); err != nil {
		w.Log().Error("Failed to create report directory", "dir", w.reportDir, "error", err)
		return nil
	}

	stamp := time.Now().UTC().Format("20060102_150405")
	var paths []string

	if w.reportFormat == "csv" || w.reportFormat == "both" {
		path := filepath.Join(w.reportDir, fmt.Sprintf("recovery_report_%s.csv", stamp))
		if err := scoringservice.WriteCSVFile(path, rows); err != nil {
			w.Log().Error("Failed to write CSV report", "path", path, "error", err)
		} else {
			paths = append(paths, path)
		}
	}

	if w.reportFormat == "parquet" || w.reportFormat == "both" {
		path := filepath.Join(w.reportDir, fmt.Sprintf("recovery_report_%s.parquet", stamp))
		if err := scoringservice.WriteParquetFile(path, rows); err != nil {
			w.Log().Error("Failed to write Parquet report", "path", path, "error", err)
		} else {
			paths = append(paths, path)
		}
	}

	return paths
}
