package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pvcastro/cinevec/internal/api"
	"github.com/pvcastro/cinevec/internal/logging"
)

var serveAddr string

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the artifact over HTTP",
	Long: `Load the artifact and serve it over HTTP: query embedding, semantic
search, and a health endpoint.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := mustLoadConfig()

	log, err := logging.New(humanOutput)
	if err != nil {
		exitWithError(ExitError, "initializing logger: %v", err)
	}
	defer log.Sync()

	artifact := mustLoadArtifact(cfg.ArtifactFile)
	if err := artifact.Verify(); err != nil {
		exitWithError(ExitChecksumMismatch, "%s: %v", cfg.ArtifactFile, err)
	}

	enc := mustBuildEncoder(ctx, cfg)

	server := &http.Server{
		Addr:    serveAddr,
		Handler: api.NewServer(artifact, enc, cfg.TopK, log).Routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening",
			zap.String("addr", serveAddr),
			zap.Int("movies", len(artifact.Movies)),
			zap.String("model", artifact.Metadata.Model))
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		exitWithError(ExitError, "server: %v", err)
	case <-stop:
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			exitWithError(ExitError, "shutdown: %v", err)
		}
	}
	return nil
}
