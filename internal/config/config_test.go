package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cinevec.yml")
	content := `
model: test-model
strategy: fixed
top_k: 10
weights:
  title: 2
  overview: 1
encoder:
  provider: ollama
  base_url: http://localhost:9999
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Model != "test-model" {
		t.Errorf("model = %q", cfg.Model)
	}
	if cfg.Strategy != "fixed" {
		t.Errorf("strategy = %q", cfg.Strategy)
	}
	if cfg.TopK != 10 {
		t.Errorf("top_k = %d", cfg.TopK)
	}
	if cfg.Weights["title"] != 2 {
		t.Errorf("weights = %v", cfg.Weights)
	}
	if cfg.Encoder.Provider != ProviderOllama || cfg.Encoder.BaseURL != "http://localhost:9999" {
		t.Errorf("encoder = %+v", cfg.Encoder)
	}
	// Unset fields keep their defaults.
	if cfg.DataFile == "" {
		t.Error("data_file should keep its default")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.TopK != 5 {
		t.Errorf("top_k = %d, want default 5", cfg.TopK)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CINEVEC_MODEL", "env-model")
	t.Setenv("CINEVEC_TOP_K", "7")
	t.Setenv("CINEVEC_ENCODER_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Model != "env-model" {
		t.Errorf("model = %q", cfg.Model)
	}
	if cfg.TopK != 7 {
		t.Errorf("top_k = %d", cfg.TopK)
	}
	if cfg.Encoder.Provider != ProviderOpenAI || cfg.Encoder.APIKey != "sk-test" {
		t.Errorf("encoder = %+v", cfg.Encoder)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad provider", func(c *Config) { c.Encoder.Provider = "tfidf" }},
		{"bad strategy", func(c *Config) { c.Strategy = "random" }},
		{"zero top_k", func(c *Config) { c.TopK = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
