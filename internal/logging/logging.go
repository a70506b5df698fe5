// Package logging constructs the pipeline's structured logger.
package logging

import "go.uber.org/zap"

// New returns a zap logger: human-readable console output when human
// is set, production JSON otherwise.
func New(human bool) (*zap.Logger, error) {
	if human {
		cfg := zap.NewDevelopmentConfig()
		cfg.DisableStacktrace = true
		return cfg.Build()
	}
	return zap.NewProduction()
}
