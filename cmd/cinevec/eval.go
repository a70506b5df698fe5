package main

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/pvcastro/cinevec/internal/config"
	"github.com/pvcastro/cinevec/internal/dataset"
	"github.com/pvcastro/cinevec/internal/evaluate"
	"github.com/pvcastro/cinevec/internal/logging"
	"github.com/pvcastro/cinevec/internal/metrics"
	"github.com/pvcastro/cinevec/internal/recommender"
	"github.com/pvcastro/cinevec/internal/storage"
)

var (
	evalWorkers    int
	evalSave       bool
	evalSummaryCSV string
	evalDetailCSV  string
	evalRunsLimit  int
)

func init() {
	rootCmd.AddCommand(evalCmd)
	evalCmd.AddCommand(evalRunCmd)
	evalCmd.AddCommand(evalRunsCmd)
	evalCmd.AddCommand(evalShowCmd)

	evalRunCmd.Flags().IntVar(&evalWorkers, "workers", 1, "Concurrent recommender requests")
	evalRunCmd.Flags().BoolVar(&evalSave, "save", false, "Persist the run to the evaluation database")
	evalRunCmd.Flags().StringVar(&evalSummaryCSV, "out", "", "Write the metric summary as CSV to this path")
	evalRunCmd.Flags().StringVar(&evalDetailCSV, "detail", "", "Write per-row details as CSV to this path")

	evalRunsCmd.Flags().IntVar(&evalRunsLimit, "limit", 20, "Maximum runs to list")
}

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate recommendation quality",
	Long:  `Commands for running and inspecting recommendation quality evaluations.`,
}

// EvalRunResult is the response for eval run.
type EvalRunResult struct {
	RunID             string                         `json:"run_id,omitempty"`
	TopK              int                            `json:"top_k"`
	Skipped           int                            `json:"skipped_inputs"`
	NoRecommendations int                            `json:"no_recommendations"`
	Failures          map[recommender.FailReason]int `json:"failures,omitempty"`
	Summary           metrics.Summary                `json:"summary"`
}

var evalRunCmd = &cobra.Command{
	Use:   "run <inputs.csv>",
	Short: "Run an evaluation batch",
	Long: `Replay the evaluation inputs through the configured recommender and
aggregate ranking and genre-similarity metrics. Rows whose
recommendations cannot be obtained are counted and excluded from the
aggregates, never scored as zero.`,
	Args: cobra.ExactArgs(1),
	RunE: runEvalRun,
}

func runEvalRun(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := mustLoadConfig()

	log, err := logging.New(humanOutput)
	if err != nil {
		exitWithError(ExitError, "initializing logger: %v", err)
	}
	defer log.Sync()

	inputs, skipped, err := dataset.LoadEvalInputs(args[0])
	if err != nil {
		exitWithError(ExitDataError, "loading evaluation inputs: %v", err)
	}
	if len(inputs) == 0 {
		exitWithError(ExitDataError, "no usable evaluation inputs in %s (%d skipped)", args[0], skipped)
	}

	movies, err := dataset.LoadMovies(cfg.DataFile)
	if err != nil {
		exitWithError(ExitDataError, "loading movie catalog: %v", err)
	}
	genres := dataset.GenreIndex(movies)

	rec := mustBuildRecommender(cfg)

	runner := evaluate.New(rec, genres, cfg.TopK,
		evaluate.WithWorkers(evalWorkers),
		evaluate.WithLogger(log),
	)

	report, err := runner.Run(ctx, inputs)
	if err != nil {
		exitWithError(ExitError, "running evaluation: %v", err)
	}

	result := EvalRunResult{
		TopK:              cfg.TopK,
		Skipped:           skipped,
		NoRecommendations: report.NoRecommendations,
		Failures:          report.Failures,
		Summary:           report.Summary,
	}

	if evalSave {
		result.RunID = saveReport(cfg, report)
	}
	if evalSummaryCSV != "" {
		writeCSVFile(evalSummaryCSV, func(f *os.File) error {
			return evaluate.WriteSummaryCSV(f, report.Summary)
		})
	}
	if evalDetailCSV != "" {
		writeCSVFile(evalDetailCSV, func(f *os.File) error {
			return evaluate.WriteDetailCSV(f, report.Rows)
		})
	}

	if humanOutput {
		printSummary(result)
		return nil
	}
	return outputJSON(result)
}

func printSummary(r EvalRunResult) {
	s := r.Summary
	outputHuman("Evaluated %d queries (top-%d)\n", s.TotalEvaluated, r.TopK)
	if r.Skipped > 0 || r.NoRecommendations > 0 || len(r.Failures) > 0 {
		outputHuman("  skipped inputs: %d, no recommendations: %d, failures: %d\n",
			r.Skipped, r.NoRecommendations, countFailures(r.Failures))
	}
	outputHuman("  precision@k:  %.4f\n", s.PrecisionAtK)
	outputHuman("  recall@k:     %.4f\n", s.RecallAtK)
	outputHuman("  mrr:          %.4f\n", s.MRR)
	outputHuman("  ndcg:         %.4f\n", s.NDCG)
	outputHuman("  genre binary: %s (over %d rows)\n", formatOptional(s.GenreBinary), s.TotalWithGenres)
	outputHuman("  genre prop:   %s\n", formatOptional(s.GenreProportional))
	if r.RunID != "" {
		outputHuman("  saved as run %s\n", r.RunID)
	}
}

func countFailures(failures map[recommender.FailReason]int) int {
	n := 0
	for _, c := range failures {
		n += c
	}
	return n
}

// mustBuildRecommender constructs the configured recommender client.
func mustBuildRecommender(cfg *config.Config) recommender.Recommender {
	switch {
	case cfg.Recommender.URL != "":
		return recommender.NewHTTP(cfg.Recommender.URL)
	case cfg.Recommender.Command != "":
		return recommender.NewSubprocess(cfg.Recommender.Command, cfg.Recommender.Args)
	default:
		exitWithError(ExitConfigError, "no recommender configured: set recommender.url or recommender.command")
		return nil
	}
}

// saveReport persists the run and returns its id.
func saveReport(cfg *config.Config, report *evaluate.Report) string {
	if cfg.EvalDB == "" {
		exitWithError(ExitConfigError, "no evaluation database configured: set eval_db")
	}
	db, err := storage.OpenDB(cfg.EvalDB)
	if err != nil {
		exitWithError(ExitError, "opening evaluation database: %v", err)
	}
	defer db.Close()

	rows := make([]storage.Row, len(report.Rows))
	for i, d := range report.Rows {
		rows[i] = storage.Row{
			MovieID:    d.Input.ID,
			MovieTitle: d.Input.Title,
			Query:      d.Input.Query,
			Scores:     d.Scores,
			TopIDs:     d.TopIDs,
		}
	}

	runID, err := db.SaveRun(cfg.TopK, report.Summary, rows)
	if err != nil {
		exitWithError(ExitError, "saving run: %v", err)
	}
	return runID
}

func writeCSVFile(path string, write func(*os.File) error) {
	f, err := os.Create(path)
	if err != nil {
		exitWithError(ExitError, "creating %s: %v", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		exitWithError(ExitError, "writing %s: %v", path, err)
	}
	if err := f.Close(); err != nil {
		exitWithError(ExitError, "closing %s: %v", path, err)
	}
}

var evalRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List persisted evaluation runs",
	RunE:  runEvalRuns,
}

func runEvalRuns(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	db := mustOpenEvalDB(cfg)
	defer db.Close()

	runs, err := db.ListRuns(evalRunsLimit)
	if err != nil {
		exitWithError(ExitError, "listing runs: %v", err)
	}

	if humanOutput {
		if len(runs) == 0 {
			outputHuman("no runs\n")
			return nil
		}
		for _, r := range runs {
			outputHuman("%s  %s  top-%d  mrr %.4f  ndcg %.4f  (%d rows)\n",
				r.ID, r.CreatedAt.Format("2006-01-02 15:04"), r.TopK,
				r.Summary.MRR, r.Summary.NDCG, r.Summary.TotalEvaluated)
		}
		return nil
	}
	return outputJSON(runs)
}

// EvalShowResult is the response for eval show.
type EvalShowResult struct {
	Run  storage.Run   `json:"run"`
	Rows []storage.Row `json:"rows"`
}

var evalShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one persisted evaluation run with its rows",
	Args:  cobra.ExactArgs(1),
	RunE:  runEvalShow,
}

func runEvalShow(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	db := mustOpenEvalDB(cfg)
	defer db.Close()

	run, err := db.GetRun(args[0])
	if err != nil {
		if errors.Is(err, storage.ErrRunNotFound) {
			exitWithError(ExitDataError, "run %s not found", args[0])
		}
		exitWithError(ExitError, "loading run: %v", err)
	}

	rows, err := db.GetRows(run.ID)
	if err != nil {
		exitWithError(ExitError, "loading rows: %v", err)
	}

	if humanOutput {
		outputHuman("run %s (%s, top-%d)\n", run.ID, run.CreatedAt.Format("2006-01-02 15:04"), run.TopK)
		outputHuman("  mrr %.4f  ndcg %.4f  precision %.4f  recall %.4f\n",
			run.Summary.MRR, run.Summary.NDCG, run.Summary.PrecisionAtK, run.Summary.RecallAtK)
		for _, row := range rows {
			outputHuman("  %-10s %-40s mrr %.4f\n", row.MovieID, truncate(row.MovieTitle, 40), row.Scores.MRR)
		}
		return nil
	}
	return outputJSON(EvalShowResult{Run: *run, Rows: rows})
}

func mustOpenEvalDB(cfg *config.Config) *storage.DB {
	if cfg.EvalDB == "" {
		exitWithError(ExitConfigError, "no evaluation database configured: set eval_db")
	}
	db, err := storage.OpenDB(cfg.EvalDB)
	if err != nil {
		exitWithError(ExitError, "opening evaluation database: %v", err)
	}
	return db
}
