package scoring

import (
	"context"
	"sync"
	"time"

	"asclepius/internal/domain/assessment"
	"asclepius/internal/domain/features"
	"asclepius/internal/metrics"
)

// defaultMaxConcurrency bounds parallel subject scoring when the config
// leaves it unset
const defaultMaxConcurrency = 4

// SubjectInput is everything needed to score one subject. Overrides are
// merged last, which is how single-patient simulation injects measured
// markers over a sampled background row.
type SubjectInput struct {
	SubjectID string
	SessionID string
	Markers   features.Vector
	Gait      features.Vector
	Overrides features.Vector
}

// Result pairs an assessment with the merged features it was scored on. The
// report reads the feature values back out of it.
type Result struct {
	Assessment *assessment.Assessment
	Features   features.Vector
}

// SubjectFailure flags a subject that could not be scored. Failures never
// abort the batch.
type SubjectFailure struct {
	SubjectID string
	SessionID string
	Err       error
}

// BatchResult carries per-subject outcomes in submission order
type BatchResult struct {
	Results  []*Result
	Failures []SubjectFailure
	Elapsed  time.Duration
}

// Pipeline is the parameterized scoring pipeline. The same pipeline serves
// single-patient simulation and cohort batches; policy and mode come from
// the interpreter it is built with.
type Pipeline struct {
	chain          *Chain
	interpreter    *assessment.Interpreter
	maxConcurrency int
}

// NewPipeline creates a Pipeline
func NewPipeline(chain *Chain, interpreter *assessment.Interpreter, maxConcurrency int) *Pipeline {
	if maxConcurrency <= 0 {
		maxConcurrency = defaultMaxConcurrency
	}
	return &Pipeline{
		chain:          chain,
		interpreter:    interpreter,
		maxConcurrency: maxConcurrency,
	}
}

// Score runs one subject through assembly, the model chain, and
// interpretation
func (p *Pipeline) Score(ctx context.Context, in SubjectInput) (*Result, error) {
	cardiacVec, err := features.Assemble(p.chain.CardiacFeatures(), in.Markers, in.Overrides)
	if err != nil {
		metrics.RecordSubjectScored(metrics.StatusFailed)
		return nil, err
	}

	mobilityVec, err := features.Assemble(p.chain.MobilityFeatures(), in.Gait, in.Overrides)
	if err != nil {
		metrics.RecordSubjectScored(metrics.StatusFailed)
		return nil, err
	}

	scores, err := p.chain.Score(cardiacVec, mobilityVec)
	if err != nil {
		metrics.RecordSubjectScored(metrics.StatusFailed)
		return nil, err
	}

	ev, err := p.interpreter.Interpret(scores)
	if err != nil {
		metrics.RecordSubjectScored(metrics.StatusFailed)
		return nil, err
	}

	metrics.RecordSubjectScored(metrics.StatusOK)
	return &Result{
		Assessment: assessment.NewAssessment(in.SubjectID, in.SessionID, scores, ev,
			p.interpreter.Policy(), p.interpreter.Mode()),
		Features: features.Merge(cardiacVec, mobilityVec),
	}, nil
}

// ScoreBatch scores subjects through a bounded worker pool. Per-subject
// failures are collected, never propagated; results keep submission order.
func (p *Pipeline) ScoreBatch(ctx context.Context, inputs []SubjectInput) *BatchResult {
	start := time.Now()

	results := make([]*Result, len(inputs))
	errs := make([]error, len(inputs))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, p.maxConcurrency)

	for i, in := range inputs {
		wg.Add(1)
		go func(i int, in SubjectInput) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			if err := ctx.Err(); err != nil {
				errs[i] = err
				return
			}
			res, err := p.Score(ctx, in)
			if err != nil {
				errs[i] = err
				return
			}
			results[i] = res
		}(i, in)
	}
	wg.Wait()

	out := &BatchResult{Elapsed: time.Since(start)}
	for i := range inputs {
		if errs[i] != nil {
			out.Failures = append(out.Failures, SubjectFailure{
				SubjectID: inputs[i].SubjectID,
				SessionID: inputs[i].SessionID,
				Err:       errs[i],
			})
			continue
		}
		out.Results = append(out.Results, results[i])
	}
	metrics.RecordBatchDuration(out.Elapsed.Seconds())
	return out
}
