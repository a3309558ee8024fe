package config

import (
	"errors"
	"os"
)

// validate runs the explicit post-merge validation pass the teacher's
// pkg/config/loader.go performs (required fields, range checks),
// collecting every problem rather than stopping at the first.
func validate(cfg *Config) error {
	var errs []error
	add := func(field, msg string) { errs = append(errs, &ValidationError{Field: field, Message: msg}) }

	if cfg.DataDir == "" {
		add("dataDir", "must not be empty")
	}
	if cfg.Memory.VectorStore == "" {
		add("memory.vectorStore", "must not be empty")
	}
	if cfg.Memory.CacheSize <= 0 {
		add("memory.cacheSize", "must be positive")
	}
	if cfg.LLM.APIURL == "" {
		add("llm.apiUrl", "must not be empty")
	}
	if cfg.Auth.PasswordMinLength <= 0 {
		add("auth.passwordMinLength", "must be positive")
	}
	if cfg.Auth.MaxFailedAttempts <= 0 {
		add("auth.maxFailedAttempts", "must be positive")
	}
	if cfg.Reasoning.MaxSteps <= 0 {
		add("reasoning.maxSteps", "must be positive")
	}
	switch cfg.Reasoning.Strategy {
	case "auto", "zero-shot", "evolutionary", "first-principles":
	default:
		add("reasoning.strategy", "must be one of auto, zero-shot, evolutionary, first-principles")
	}
	if cfg.CAG.SimilarityThreshold <= 0 || cfg.CAG.SimilarityThreshold > 1 {
		add("cag.similarityThreshold", "must be in (0, 1]")
	}
	if cfg.API.ListenAddr == "" {
		add("api.listenAddr", "must not be empty")
	}

	if _, ok := os.LookupEnv("MASTER_ENCRYPTION_KEY"); !ok {
		add("MASTER_ENCRYPTION_KEY", "environment variable must be set (spec §4.2/§6 startup requirement)")
	}

	return errors.Join(errs...)
}
