package config

// Defaults returns the compiled-in baseline every loaded YAML file is
// merged over via dario.cat/mergo, matching the teacher's
// pkg/config/loader.go defaults-then-override layering. Values follow
// spec §6's defaults table.
func Defaults() Config {
	return Config{
		DataDir: "./data",
		Memory: MemoryConfig{
			VectorStore:           "inmemory",
			PersistencePath:       "./data/memory",
			CacheSize:             10000,
			CacheTTLSeconds:       3600,
			WorkingMemoryCapacity: 10,
		},
		LLM: LLMConfig{
			APIURL:    "localhost:50051",
			TimeoutMs: 15000,
			MaxTokens: 2048,
		},
		Auth: AuthConfig{
			PasswordMinLength:     12,
			MaxFailedAttempts:     5,
			LockoutMinutes:        30,
			SessionTimeoutMinutes: 60,
			JWTExpiration:         "1h",
			SigningKeyEnv:         "AEGIS_SESSION_SECRET",
			AuditRetentionDays:    90,
		},
		Reasoning: ReasoningConfig{
			MaxSteps:  8,
			TimeoutMs: 30000,
			Strategy:  "auto",
		},
		CAG: CAGConfig{
			SimilarityThreshold: 0.85,
			PreWarmOnStart:      false,
			MaxEntries:          1000,
			TTLSeconds:          3600,
		},
		Health: HealthConfig{
			IntervalMs: 300000,
		},
		RateLimits: RateLimitsConfig{
			LLM:    RateLimitConfig{BucketCapacity: 60, RefillPerSec: 1, BreakerFailThreshold: 5, BreakerResetSeconds: 30, BreakerHalfOpenReqs: 2},
			Tool:   RateLimitConfig{BucketCapacity: 30, RefillPerSec: 0.5, BreakerFailThreshold: 5, BreakerResetSeconds: 30, BreakerHalfOpenReqs: 2},
			Memory: RateLimitConfig{BucketCapacity: 120, RefillPerSec: 2, BreakerFailThreshold: 5, BreakerResetSeconds: 30, BreakerHalfOpenReqs: 2},
		},
		Audit: AuditConfig{
			LogPath:       "./data/audit/audit.log",
			RetentionDays: 90,
		},
		API: APIConfig{
			ListenAddr: ":8080",
		},
	}
}
