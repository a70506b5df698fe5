package main

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"github.com/pvcastro/cinevec/internal/combine"
	"github.com/pvcastro/cinevec/internal/dataset"
	"github.com/pvcastro/cinevec/internal/embedding"
	"github.com/pvcastro/cinevec/internal/logging"
	"github.com/pvcastro/cinevec/internal/model"
)

var (
	buildOut     string
	buildSeed    int64
	buildWorkers int
)

func init() {
	rootCmd.AddCommand(modelCmd)
	modelCmd.AddCommand(modelBuildCmd)
	modelCmd.AddCommand(modelVerifyCmd)
	modelCmd.AddCommand(modelInfoCmd)

	modelBuildCmd.Flags().StringVar(&buildOut, "out", "", "Artifact output path (default from config)")
	modelBuildCmd.Flags().Int64Var(&buildSeed, "seed", 0, "Seed for similarity sampling (0 = time-based)")
	modelBuildCmd.Flags().IntVar(&buildWorkers, "workers", 4, "Concurrent embedding requests")
}

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Manage the semantic search artifact",
	Long:  `Commands for building, verifying, and inspecting the model artifact.`,
}

// BuildResult is the response for model build.
type BuildResult struct {
	Status          string  `json:"status"`
	Path            string  `json:"path"`
	Movies          int     `json:"movies"`
	Degenerate      int     `json:"degenerate_records"`
	TitleFallbacks  int     `json:"title_fallbacks"`
	Model           string  `json:"model"`
	Strategy        string  `json:"strategy"`
	Checksum        string  `json:"checksum"`
	DurationSeconds float64 `json:"duration_seconds"`
}

var modelBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the model artifact from the movie catalog",
	Long: `Build the model artifact: load the movie catalog, combine each
movie's weighted text fields, embed the combined texts, and write a
checksummed JSON artifact.`,
	RunE: runModelBuild,
}

func runModelBuild(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	start := time.Now()
	cfg := mustLoadConfig()

	log, err := logging.New(humanOutput)
	if err != nil {
		exitWithError(ExitError, "initializing logger: %v", err)
	}
	defer log.Sync()

	records, err := dataset.LoadMovies(cfg.DataFile)
	if err != nil {
		exitWithError(ExitDataError, "loading movie catalog: %v", err)
	}

	fallbacks := combine.ApplyOverviewFallback(records)

	combiner, err := combine.New(combine.Strategy(cfg.Strategy), cfg.Weights)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	combined := make([]string, len(records))
	for i, rec := range records {
		combined[i] = combiner.Combine(rec)
	}

	enc := mustBuildEncoder(ctx, cfg)

	gen := embedding.NewGenerator(enc, embedding.WithWorkers(buildWorkers))
	vectors, err := gen.Generate(ctx, combined)
	if err != nil {
		var zn *embedding.ZeroNormError
		if errors.As(err, &zn) {
			exitWithError(ExitDataError, "embedding quality gate failed: %v", err)
		}
		exitWithError(ExitEncoderUnavailable, "generating embeddings: %v", err)
	}

	opts := []model.BuilderOption{
		model.WithStrategy(cfg.Strategy, combiner.Weights()),
	}
	if buildSeed != 0 {
		opts = append(opts, model.WithRand(rand.New(rand.NewSource(buildSeed))))
	}
	builder := model.NewBuilder(cfg.Model, opts...)

	artifact, err := builder.Build(records, combined, vectors)
	if err != nil {
		exitWithError(ExitDataError, "building artifact: %v", err)
	}

	out := buildOut
	if out == "" {
		out = cfg.ArtifactFile
	}
	if err := artifact.Save(out); err != nil {
		exitWithError(ExitError, "saving artifact: %v", err)
	}

	result := BuildResult{
		Status:          "built",
		Path:            out,
		Movies:          artifact.Metadata.Stats.NumMovies,
		Degenerate:      artifact.Metadata.Stats.Degenerate,
		TitleFallbacks:  fallbacks,
		Model:           artifact.Metadata.Model,
		Strategy:        artifact.Metadata.Strategy,
		Checksum:        artifact.Metadata.Checksum,
		DurationSeconds: time.Since(start).Seconds(),
	}

	if humanOutput {
		outputHuman("Built artifact %s\n", result.Path)
		outputHuman("  movies:     %d (%d degenerate, %d title fallbacks)\n",
			result.Movies, result.Degenerate, result.TitleFallbacks)
		outputHuman("  model:      %s (%s)\n", result.Model, result.Strategy)
		outputHuman("  checksum:   %s\n", result.Checksum)
		outputHuman("  duration:   %.1fs\n", result.DurationSeconds)
		return nil
	}
	return outputJSON(result)
}

var modelVerifyCmd = &cobra.Command{
	Use:   "verify [artifact]",
	Short: "Verify an artifact's checksum",
	Long: `Load an artifact and recompute its content checksum. Exits non-zero
when the artifact is missing or its contents no longer match the
recorded checksum.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runModelVerify,
}

func runModelVerify(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	path := cfg.ArtifactFile
	if len(args) == 1 {
		path = args[0]
	}

	artifact := mustLoadArtifact(path)
	if err := artifact.Verify(); err != nil {
		exitWithError(ExitChecksumMismatch, "%s: %v", path, err)
	}

	if humanOutput {
		outputHuman("ok: %s\n", path)
		return nil
	}
	return outputJSON(StatusResponse{Status: "ok", Path: path})
}

// ModelInfoResult is the response for model info.
type ModelInfoResult struct {
	Path     string         `json:"path"`
	Metadata model.Metadata `json:"metadata"`
}

var modelInfoCmd = &cobra.Command{
	Use:   "info [artifact]",
	Short: "Show artifact metadata",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runModelInfo,
}

func runModelInfo(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	path := cfg.ArtifactFile
	if len(args) == 1 {
		path = args[0]
	}

	artifact := mustLoadArtifact(path)
	meta := artifact.Metadata

	if humanOutput {
		outputHuman("%s\n", path)
		outputHuman("  model:      %s\n", meta.Model)
		outputHuman("  generated:  %s\n", meta.GenerationDate)
		outputHuman("  strategy:   %s\n", meta.Strategy)
		outputHuman("  movies:     %d (dim %d, %d degenerate)\n",
			meta.Stats.NumMovies, meta.Stats.EmbeddingDim, meta.Stats.Degenerate)
		outputHuman("  avg length: %d chars\n", meta.Stats.AvgTextLength)
		outputHuman("  similarity: min %.4f max %.4f median %.4f mean %.4f\n",
			meta.Stats.Similarity.Min, meta.Stats.Similarity.Max,
			meta.Stats.Similarity.Median, meta.Stats.Similarity.Mean)
		outputHuman("  checksum:   %s\n", meta.Checksum)
		return nil
	}
	return outputJSON(ModelInfoResult{Path: path, Metadata: meta})
}

// mustLoadArtifact loads an artifact or exits with the appropriate code.
func mustLoadArtifact(path string) *model.Artifact {
	artifact, err := model.Load(path)
	if err != nil {
		if errors.Is(err, model.ErrArtifactNotFound) {
			exitWithError(ExitConfigError, "artifact not found at %s\n\nRun 'cinevec model build' first.", path)
		}
		exitWithError(ExitDataError, "loading artifact: %v", err)
	}
	return artifact
}
