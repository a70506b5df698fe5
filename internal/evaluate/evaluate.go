// Package evaluate runs a batch of (original movie, query) pairs
// through the external recommender and aggregates metric scores.
package evaluate

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/pvcastro/cinevec/internal/dataset"
	"github.com/pvcastro/cinevec/internal/metrics"
	"github.com/pvcastro/cinevec/internal/recommender"
)

// RowDetail is one evaluated row with its scores and the top-K
// candidates that produced them.
type RowDetail struct {
	Input     dataset.EvalInput `json:"input"`
	Scores    metrics.RowScores `json:"scores"`
	TopIDs    []string          `json:"top_ids"`
	TopTitles []string          `json:"top_titles"`
}

// Report is the outcome of one evaluation batch. Rows that could not
// be scored are counted, never scored as zero: an unreachable
// recommender and an empty candidate list both exclude the row from
// every aggregate.
type Report struct {
	Summary metrics.Summary `json:"summary"`
	Rows    []RowDetail     `json:"rows,omitempty"`

	NoRecommendations int                            `json:"no_recommendations"`
	Failures          map[recommender.FailReason]int `json:"failures,omitempty"`
}

// Runner evaluates inputs against a recommender. Construct with New.
type Runner struct {
	rec     recommender.Recommender
	genres  map[string][]string
	topK    int
	workers int
	log     *zap.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithWorkers evaluates rows concurrently with n workers. Results are
// written back to their originating row's slot, so report order always
// matches input order.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithLogger sets the runner's logger.
func WithLogger(log *zap.Logger) Option {
	return func(r *Runner) {
		r.log = log
	}
}

// New creates a Runner. genres maps original movie ids to their
// normalized genre sets; rows whose id is absent still get rank
// metrics, only the genre metrics are undefined for them.
func New(rec recommender.Recommender, genres map[string][]string, topK int, opts ...Option) *Runner {
	r := &Runner{
		rec:     rec,
		genres:  genres,
		topK:    topK,
		workers: 1,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// rowOutcome is the per-slot result of evaluating one input.
type rowOutcome struct {
	detail *RowDetail
	reason recommender.FailReason
	empty  bool
}

// Run evaluates every input and aggregates the scores. Per-row
// failures never interrupt the batch; the only errors returned are
// context cancellation.
func (r *Runner) Run(ctx context.Context, inputs []dataset.EvalInput) (*Report, error) {
	outcomes := make([]rowOutcome, len(inputs))

	if r.workers > 1 {
		if err := r.runParallel(ctx, inputs, outcomes); err != nil {
			return nil, err
		}
	} else {
		for i, in := range inputs {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			outcomes[i] = r.evaluateRow(ctx, in)
		}
	}

	report := &Report{Failures: make(map[recommender.FailReason]int)}
	var acc metrics.Accumulator
	for _, out := range outcomes {
		switch {
		case out.reason != "":
			report.Failures[out.reason]++
		case out.empty:
			report.NoRecommendations++
		default:
			acc.Add(out.detail.Scores)
			report.Rows = append(report.Rows, *out.detail)
		}
	}
	report.Summary = acc.Summary()

	if len(report.Failures) == 0 {
		report.Failures = nil
	}
	return report, nil
}

func (r *Runner) runParallel(ctx context.Context, inputs []dataset.EvalInput, outcomes []rowOutcome) error {
	indices := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < r.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				outcomes[i] = r.evaluateRow(ctx, inputs[i])
			}
		}()
	}

	var err error
	for i := range inputs {
		if err = ctx.Err(); err != nil {
			break
		}
		indices <- i
	}
	close(indices)
	wg.Wait()
	return err
}

// evaluateRow invokes the recommender for one input and scores the
// result. Failures are caught at the row boundary.
func (r *Runner) evaluateRow(ctx context.Context, in dataset.EvalInput) rowOutcome {
	result := r.rec.Recommend(ctx, in.Query)
	if !result.OK() {
		r.log.Warn("recommender failure",
			zap.String("movie_id", in.ID),
			zap.String("reason", string(result.Reason)),
			zap.Error(result.Err))
		return rowOutcome{reason: result.Reason}
	}
	if result.Empty() {
		r.log.Debug("no recommendations", zap.String("movie_id", in.ID))
		return rowOutcome{empty: true}
	}

	cands := result.Candidates()
	scores := metrics.ScoreRow(in.ID, r.genres[in.ID], cands, r.topK)

	topK := result.Movies
	if len(topK) > r.topK {
		topK = topK[:r.topK]
	}
	detail := &RowDetail{
		Input:     in,
		Scores:    scores,
		TopIDs:    make([]string, len(topK)),
		TopTitles: make([]string, len(topK)),
	}
	for i, m := range topK {
		detail.TopIDs[i] = string(m.ID)
		detail.TopTitles[i] = m.Title
	}

	r.log.Debug("row scored",
		zap.String("movie_id", in.ID),
		zap.Float64("mrr", scores.MRR),
		zap.Float64("ndcg", scores.NDCG))
	return rowOutcome{detail: detail}
}
