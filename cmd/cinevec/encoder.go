package main

import (
	"context"

	"github.com/pvcastro/cinevec/internal/config"
	"github.com/pvcastro/cinevec/internal/embedding"
)

// mustBuildEncoder constructs the configured embedding backend and
// checks its availability where the backend supports that, exiting
// with the appropriate code when it cannot serve.
func mustBuildEncoder(ctx context.Context, cfg *config.Config) embedding.Encoder {
	switch cfg.Encoder.Provider {
	case config.ProviderOllama:
		opts := []embedding.OllamaOption{embedding.WithOllamaModel(cfg.Model)}
		if cfg.Encoder.BaseURL != "" {
			opts = append(opts, embedding.WithOllamaURL(cfg.Encoder.BaseURL))
		}
		if cfg.Encoder.Dimensions > 0 {
			opts = append(opts, embedding.WithOllamaDimensions(cfg.Encoder.Dimensions))
		}
		enc := embedding.NewOllamaEncoder(opts...)

		if err := enc.IsAvailable(ctx); err != nil {
			exitWithError(ExitEncoderUnavailable, "Ollama is not running\n\nStart Ollama with 'ollama serve' or install from https://ollama.ai")
		}
		hasModel, err := enc.HasModel(ctx)
		if err != nil {
			exitWithError(ExitError, "checking model availability: %v", err)
		}
		if !hasModel {
			exitWithError(ExitModelNotFound, "Embedding model '%s' not found\n\nRun 'ollama pull %s' to download it.", enc.ModelName(), enc.ModelName())
		}
		return enc

	case config.ProviderOpenAI:
		if cfg.Encoder.APIKey == "" {
			exitWithError(ExitConfigError, "OpenAI encoder requires an API key (set OPENAI_API_KEY)")
		}
		opts := []embedding.OpenAIOption{}
		if cfg.Model != "" {
			opts = append(opts, embedding.WithOpenAIModel(cfg.Model))
		}
		if cfg.Encoder.Dimensions > 0 {
			opts = append(opts, embedding.WithOpenAIDimensions(cfg.Encoder.Dimensions))
		}
		return embedding.NewOpenAIEncoder(cfg.Encoder.APIKey, opts...)

	case config.ProviderService:
		opts := []embedding.ServiceOption{}
		if cfg.Encoder.BaseURL != "" {
			opts = append(opts, embedding.WithServiceURL(cfg.Encoder.BaseURL))
		}
		return embedding.NewServiceEncoder(cfg.Model, cfg.Encoder.Dimensions, opts...)

	default:
		exitWithError(ExitConfigError, "unknown encoder provider %q", cfg.Encoder.Provider)
		return nil
	}
}
