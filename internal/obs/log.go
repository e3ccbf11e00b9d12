// Package obs provides the structured logger shared across the
// validation pipeline's phases.
package obs

import "go.uber.org/zap"

// New builds a production zap logger, or a no-op logger if verbose is
// false. Validation runs are typically silent; --verbose turns on
// per-phase logging for diagnosing a pipeline run itself, not the EPUB
// under test (that's what Diagnostics are for).
func New(verbose bool) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.TimeKey = ""
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
