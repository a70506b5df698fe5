// Package config handles pipeline configuration from YAML, .env, and
// environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/pvcastro/cinevec/internal/combine"
)

// Encoder providers accepted in EncoderConfig.Provider.
const (
	ProviderOllama  = "ollama"
	ProviderOpenAI  = "openai"
	ProviderService = "embed-service"
)

// EncoderConfig selects and configures the embedding backend.
type EncoderConfig struct {
	Provider   string `yaml:"provider"`
	BaseURL    string `yaml:"base_url,omitempty"`
	APIKey     string `yaml:"api_key,omitempty"`
	Dimensions int    `yaml:"dimensions,omitempty"`
}

// RecommenderConfig selects how the external recommender is invoked:
// either an HTTP base URL or a command with fixed leading arguments.
type RecommenderConfig struct {
	URL     string   `yaml:"url,omitempty"`
	Command string   `yaml:"command,omitempty"`
	Args    []string `yaml:"args,omitempty"`
}

// Config is the full pipeline configuration.
type Config struct {
	Model        string             `yaml:"model"`
	Strategy     string             `yaml:"strategy"`
	Weights      map[string]float64 `yaml:"weights,omitempty"`
	TopK         int                `yaml:"top_k"`
	DataFile     string             `yaml:"data_file"`
	ArtifactFile string             `yaml:"artifact_file"`
	EvalDB       string             `yaml:"eval_db,omitempty"`
	Encoder      EncoderConfig      `yaml:"encoder"`
	Recommender  RecommenderConfig  `yaml:"recommender"`
}

// Default returns the configuration matching the shipped artifact:
// multilingual MiniLM weights with overview dominating.
func Default() *Config {
	return &Config{
		Model:        "sentence-transformers/paraphrase-multilingual-MiniLM-L12-v2",
		Strategy:     string(combine.ProportionalRepeat),
		Weights:      combine.DefaultWeights,
		TopK:         5,
		DataFile:     "data/movies.csv",
		ArtifactFile: "data/model/model.json",
		EvalDB:       "data/eval.db",
		Encoder: EncoderConfig{
			Provider:   ProviderService,
			Dimensions: 384,
		},
	}
}

// Load reads configuration, layering defaults, an optional .env file,
// the YAML file at path (optional when path is empty or absent), and
// finally CINEVEC_* environment overrides.
func Load(path string) (*Config, error) {
	// Best effort: a missing .env is not an error.
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv layers environment overrides onto cfg.
func applyEnv(cfg *Config) {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	setString("CINEVEC_MODEL", &cfg.Model)
	setString("CINEVEC_STRATEGY", &cfg.Strategy)
	setString("CINEVEC_DATA_FILE", &cfg.DataFile)
	setString("CINEVEC_ARTIFACT_FILE", &cfg.ArtifactFile)
	setString("CINEVEC_EVAL_DB", &cfg.EvalDB)
	setString("CINEVEC_ENCODER_PROVIDER", &cfg.Encoder.Provider)
	setString("CINEVEC_ENCODER_URL", &cfg.Encoder.BaseURL)
	setString("CINEVEC_RECOMMENDER_URL", &cfg.Recommender.URL)
	setString("CINEVEC_RECOMMENDER_COMMAND", &cfg.Recommender.Command)

	if v := os.Getenv("CINEVEC_TOP_K"); v != "" {
		if k, err := strconv.Atoi(v); err == nil && k > 0 {
			cfg.TopK = k
		}
	}

	// The OpenAI key follows the SDK's conventional variable.
	setString("OPENAI_API_KEY", &cfg.Encoder.APIKey)
	setString("CINEVEC_ENCODER_API_KEY", &cfg.Encoder.APIKey)
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.Encoder.Provider {
	case ProviderOllama, ProviderOpenAI, ProviderService:
	default:
		return fmt.Errorf("unknown encoder provider %q", c.Encoder.Provider)
	}

	switch combine.Strategy(c.Strategy) {
	case combine.FixedRepeat, combine.ProportionalRepeat:
	default:
		return fmt.Errorf("unknown combine strategy %q", c.Strategy)
	}

	if c.TopK <= 0 {
		return fmt.Errorf("top_k must be positive, got %d", c.TopK)
	}
	return nil
}
