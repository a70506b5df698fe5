package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pvcastro/cinevec/internal/model"
	"github.com/pvcastro/cinevec/internal/textnorm"
)

var searchLimit int

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "k", 0, "Maximum results (default from config top_k)")
}

// SearchResponse is the response for the search command.
type SearchResponse struct {
	Query   string               `json:"query"`
	Results []model.SearchResult `json:"results"`
}

var searchCmd = &cobra.Command{
	Use:   "search <query...>",
	Short: "Search the artifact for movies matching a query",
	Long: `Embed a free-text query and rank the artifact's movies by cosine
similarity. The query goes through the same normalization as the
indexed texts.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := mustLoadConfig()

	query := textnorm.Normalize(strings.Join(args, " "))
	if query == "" {
		exitWithError(ExitError, "query is empty after normalization")
	}

	artifact := mustLoadArtifact(cfg.ArtifactFile)
	if err := artifact.Verify(); err != nil {
		exitWithError(ExitChecksumMismatch, "%s: %v", cfg.ArtifactFile, err)
	}

	enc := mustBuildEncoder(ctx, cfg)

	vec, err := enc.Encode(ctx, query)
	if err != nil {
		exitWithError(ExitEncoderUnavailable, "embedding query: %v", err)
	}

	k := searchLimit
	if k <= 0 {
		k = cfg.TopK
	}
	results := artifact.Search(vec, k)

	if humanOutput {
		outputHuman("%d results for %q\n", len(results), query)
		for i, r := range results {
			outputHuman("%2d. %-50s %.4f\n", i+1, truncate(r.Movie.Title, 50), r.Similarity)
		}
		return nil
	}
	return outputJSON(SearchResponse{Query: query, Results: results})
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
