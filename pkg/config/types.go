// Package config loads, merges, and validates the orchestration core's
// configuration tree: a single YAML file layered over compiled-in
// defaults, with environment-variable expansion and an explicit
// validation pass, grounded on the teacher's pkg/config/loader.go
// pipeline (load → merge → defaults → validate).
package config

import "time"

// Config is the root configuration tree for the orchestration core
// (spec §6). Every section maps onto one component's Config/Options
// type so cmd/aegisd can wire them through with no further translation.
type Config struct {
	DataDir string `yaml:"data_dir"`

	Memory     MemoryConfig     `yaml:"memory"`
	LLM        LLMConfig        `yaml:"llm"`
	Auth       AuthConfig       `yaml:"auth"`
	Reasoning  ReasoningConfig  `yaml:"reasoning"`
	CAG        CAGConfig        `yaml:"cag"`
	Health     HealthConfig     `yaml:"health"`
	RateLimits RateLimitsConfig `yaml:"rate_limits"`
	Audit      AuditConfig      `yaml:"audit"`
	API        APIConfig        `yaml:"api"`
}

// MemoryConfig configures the memory subsystem and its vector store
// backend (spec §6: memory.*).
type MemoryConfig struct {
	VectorStore           string            `yaml:"vector_store"` // inmemory | server | sql
	VectorStoreOptions    map[string]string `yaml:"vector_store_options"`
	PersistencePath        string           `yaml:"persistence_path"`
	CacheSize              int              `yaml:"cache_size"`
	CacheTTLSeconds        int              `yaml:"cache_ttl_seconds"`
	WorkingMemoryCapacity  int              `yaml:"working_memory_capacity"`
}

// LLMConfig configures the RPC client for the out-of-scope LLM backend
// (spec §6: llm.*).
type LLMConfig struct {
	APIURL    string `yaml:"api_url"`
	TimeoutMs int    `yaml:"timeout_ms"`
	MaxTokens int    `yaml:"max_tokens"`
}

// AuthConfig configures password policy, lockout, and session issuance
// (spec §6: auth.*).
type AuthConfig struct {
	PasswordMinLength       int    `yaml:"password_min_length"`
	MaxFailedAttempts       int    `yaml:"max_failed_attempts"`
	LockoutMinutes          int    `yaml:"lockout_minutes"`
	SessionTimeoutMinutes   int    `yaml:"session_timeout_minutes"`
	JWTExpiration           string `yaml:"jwt_expiration"` // parsed via time.ParseDuration
	SigningKeyEnv           string `yaml:"signing_key_env"`
	AuditRetentionDays      int    `yaml:"audit_retention_days"`
}

// ReasoningConfig configures the planner/executor (spec §6: reasoning.*).
type ReasoningConfig struct {
	MaxSteps   int    `yaml:"max_steps"`
	TimeoutMs  int    `yaml:"timeout_ms"`
	Strategy   string `yaml:"strategy"` // auto | zero-shot | evolutionary | first-principles
}

// CAGConfig configures the cache-augmented generation tier (spec §6: cag.*).
type CAGConfig struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	PreWarmOnStart      bool    `yaml:"pre_warm_on_start"`
	MaxEntries          int     `yaml:"max_entries"`
	TTLSeconds          int     `yaml:"ttl_seconds"`
}

// HealthConfig configures the health monitor's scheduler (spec §6: health.*).
type HealthConfig struct {
	IntervalMs int `yaml:"interval_ms"`
}

// RateLimitsConfig configures the three rate-limited call paths (spec
// §4.9/§6: rateLimits.llm, rateLimits.tool, rateLimits.memory).
type RateLimitsConfig struct {
	LLM    RateLimitConfig `yaml:"llm"`
	Tool   RateLimitConfig `yaml:"tool"`
	Memory RateLimitConfig `yaml:"memory"`
}

// RateLimitConfig is one call path's token-bucket + circuit-breaker
// tuning.
type RateLimitConfig struct {
	BucketCapacity       int     `yaml:"bucket_capacity"`
	RefillPerSec         float64 `yaml:"refill_per_sec"`
	BreakerFailThreshold int     `yaml:"breaker_fail_threshold"`
	BreakerResetSeconds  int     `yaml:"breaker_reset_seconds"`
	BreakerHalfOpenReqs  int     `yaml:"breaker_half_open_requests"`
}

// AuditConfig configures the append-only audit log (spec §4.12).
type AuditConfig struct {
	LogPath        string `yaml:"log_path"`
	RetentionDays  int    `yaml:"retention_days"`
}

// APIConfig configures the gin HTTP surface.
type APIConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// Duration helpers, since YAML carries these as plain ints/strings.

func (l LLMConfig) Timeout() time.Duration { return time.Duration(l.TimeoutMs) * time.Millisecond }

func (r ReasoningConfig) Timeout() time.Duration { return time.Duration(r.TimeoutMs) * time.Millisecond }

func (h HealthConfig) Interval() time.Duration { return time.Duration(h.IntervalMs) * time.Millisecond }

func (m MemoryConfig) CacheTTL() time.Duration {
	return time.Duration(m.CacheTTLSeconds) * time.Second
}

func (c CAGConfig) TTL() time.Duration { return time.Duration(c.TTLSeconds) * time.Second }

func (a AuthConfig) LockoutWindow() time.Duration {
	return time.Duration(a.LockoutMinutes) * time.Minute
}

func (a AuthConfig) SessionTimeout() time.Duration {
	return time.Duration(a.SessionTimeoutMinutes) * time.Minute
}

// JWTExpirationDuration parses JWTExpiration, falling back to
// SessionTimeout when unset or unparsable.
func (a AuthConfig) JWTExpirationDuration() time.Duration {
	if a.JWTExpiration != "" {
		if d, err := time.ParseDuration(a.JWTExpiration); err == nil {
			return d
		}
	}
	return a.SessionTimeout()
}

func (r RateLimitConfig) BreakerResetTimeout() time.Duration {
	return time.Duration(r.BreakerResetSeconds) * time.Second
}
