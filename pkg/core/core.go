package core

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/aegis-sec/aegis/pkg/audit"
	"github.com/aegis-sec/aegis/pkg/bus"
	"github.com/aegis-sec/aegis/pkg/cag"
	"github.com/aegis-sec/aegis/pkg/config"
	"github.com/aegis-sec/aegis/pkg/coreerr"
	"github.com/aegis-sec/aegis/pkg/crypto"
	"github.com/aegis-sec/aegis/pkg/health"
	"github.com/aegis-sec/aegis/pkg/learning"
	"github.com/aegis-sec/aegis/pkg/llm"
	"github.com/aegis-sec/aegis/pkg/memory"
	"github.com/aegis-sec/aegis/pkg/ratelimit"
	"github.com/aegis-sec/aegis/pkg/retrieval"
	"github.com/aegis-sec/aegis/pkg/tools"
	"github.com/aegis-sec/aegis/pkg/vectorstore"
)

// Core owns every component (C1-C12) and is the sole object cmd/aegisd
// and pkg/api hold a reference to.
type Core struct {
	cfg  *config.Config
	keys *crypto.KeyManager

	Bus       *bus.Bus
	Memory    *memory.Subsystem
	Cache     *cag.Cache
	LLM       *llm.Client
	Registry  *tools.Registry
	Gate      *tools.Gate
	Pipeline  *retrieval.Pipeline
	Health    *health.Monitor
	Metrics   *health.Metrics
	Learning  *learning.Loop
	Audit     *audit.Log
	Auth      *audit.Authenticator
	Sessions  *audit.SessionManager
	userStore *fileUserStore

	toolRunners map[string]func(ctx context.Context, args map[string]any) (string, error)

	missionsMu sync.Mutex
	missions   map[string]*Mission

	llmGuard    guardAdapter
	toolGuard   guardAdapter
	memoryGuard guardAdapter
}

// New performs the full startup wiring sequence (spec §6): read and
// validate the master key, dial the LLM backend, build the memory
// subsystem (aborting with ErrPersistenceCorrupt on a corrupt store), the
// CAG cache, rate limiters, tool registry, retrieval pipeline, learning
// loop, and audit/auth stack, then bootstrap the admin account and start
// the health scheduler.
//
// Grounded on cmd/tarsy/main.go's construct-in-dependency-order sequence.
func New(ctx context.Context, cfg *config.Config) (*Core, error) {
	keys, err := crypto.NewKeyManager([]byte(os.Getenv("MASTER_ENCRYPTION_KEY")))
	if err != nil {
		return nil, coreerr.Wrap(coreerr.ErrConfig, "MASTER_KEY_INVALID", "", err)
	}

	c := &Core{
		cfg:      cfg,
		keys:     keys,
		Bus:      bus.New(slog.Default()),
		missions: make(map[string]*Mission),
	}

	if err := c.wireLLM(); err != nil {
		return nil, err
	}
	if err := c.wireMemory(ctx); err != nil {
		return nil, err
	}
	c.wireRateLimits()
	c.wireTools()
	c.wirePipeline()
	if err := c.wireLearning(); err != nil {
		return nil, err
	}
	if err := c.wireAudit(ctx); err != nil {
		return nil, err
	}
	c.wireHealth()

	if err := bootstrapAdmin(ctx, c.userStore, crypto.DefaultArgon2Params); err != nil {
		return nil, coreerr.Wrap(coreerr.ErrConfig, "ADMIN_BOOTSTRAP_FAILED", "", err)
	}

	c.Health.Start(ctx)
	return c, nil
}

func (c *Core) wireLLM() error {
	client, err := llm.New(llm.Config{
		APIURL:    c.cfg.LLM.APIURL,
		Timeout:   c.cfg.LLM.Timeout(),
		MaxTokens: c.cfg.LLM.MaxTokens,
	})
	if err != nil {
		return coreerr.Wrap(coreerr.ErrBackendUnavailable, "LLM_DIAL_FAILED", "", err)
	}
	c.LLM = client
	return nil
}

func (c *Core) wireMemory(ctx context.Context) error {
	vs, err := vectorstore.New(ctx, c.cfg.Memory.VectorStore, generatorAdapter{client: c.LLM}, c.cfg.Memory.VectorStoreOptions)
	if err != nil {
		return coreerr.Wrap(coreerr.ErrBackendUnavailable, "VECTORSTORE_INIT", "", err)
	}

	c.Memory = memory.New(memory.Config{
		DataDir:               filepath.Join(c.cfg.DataDir, "memory"),
		KeyManager:            c.keys,
		VectorStore:           vs,
		WorkingMemoryCapacity: c.cfg.Memory.WorkingMemoryCapacity,
		Bus:                   c.Bus,
	})
	c.wireCache()

	if err := c.Memory.Initialize(ctx); err != nil {
		return coreerr.Wrap(coreerr.ErrPersistenceCorrupt, "STARTUP_PERSISTENCE_CORRUPT", "", err)
	}
	return nil
}

func (c *Core) wireCache() {
	c.Cache = cag.New(cag.Options{
		MaxEntries:        c.cfg.CAG.MaxEntries,
		TTL:               c.cfg.CAG.TTL(),
		SemanticThreshold: c.cfg.CAG.SimilarityThreshold,
		Embedder:          generatorAdapter{client: c.LLM},
	}, c.Bus)
	c.Memory.SetCacheSeeder(c.Cache)
	c.Memory.SetCacheLookup(c.Cache)
	c.Memory.SetCachePersister(c.Cache)
}

func buildGuard(rc config.RateLimitConfig) guardAdapter {
	return guardAdapter{
		bucket:  ratelimit.NewBucket(rc.BucketCapacity, rc.RefillPerSec),
		breaker: ratelimit.NewBreaker(rc.BreakerFailThreshold, rc.BreakerResetTimeout(), rc.BreakerHalfOpenReqs),
	}
}

func (c *Core) wireRateLimits() {
	c.llmGuard = buildGuard(c.cfg.RateLimits.LLM)
	c.toolGuard = buildGuard(c.cfg.RateLimits.Tool)
	c.memoryGuard = buildGuard(c.cfg.RateLimits.Memory)
}

func (c *Core) wireTools() {
	c.Registry = tools.NewRegistry()
	c.toolRunners = registerBuiltinTools(c.Registry, c.Memory)
	c.Gate = tools.NewGate(c.Registry, false)
}

func (c *Core) wirePipeline() {
	c.Pipeline = &retrieval.Pipeline{
		Cache:           cacheAdapter{cache: c.Cache},
		Memory:          memoryRetrieverAdapter{sub: c.Memory},
		Catalog:         c.Memory.Graph,
		Generator:       generatorAdapter{client: c.LLM},
		Guard:           c.llmGuard,
		Bus:             c.Bus,
		MaxContextChars: 4000,
	}
}

func (c *Core) wireLearning() error {
	c.Learning = learning.New(learning.Config{
		MaxHistory: 1000,
		StorePath:  filepath.Join(c.cfg.DataDir, "learning", "learning-history.json"),
		Keys:       c.keys,
	}, c.Bus)
	return c.Learning.Load()
}

func (c *Core) sessionSecret() []byte {
	if envName := c.cfg.Auth.SigningKeyEnv; envName != "" {
		if v, ok := os.LookupEnv(envName); ok && len(v) >= 32 {
			return []byte(v)
		}
	}
	key, err := c.keys.DeriveStoreKey("sessions")
	if err != nil {
		// DeriveStoreKey only fails on an HKDF read error, which cannot
		// happen for a fixed 32-byte output; treated as unreachable.
		panic(fmt.Sprintf("core: deriving session secret: %v", err))
	}
	return key[:]
}

func (c *Core) wireAudit(ctx context.Context) error {
	auditPath := c.cfg.Audit.LogPath
	if auditPath == "" {
		auditPath = filepath.Join(c.cfg.DataDir, "logs", "audit.log")
	}
	if err := os.MkdirAll(filepath.Dir(auditPath), 0o700); err != nil {
		return fmt.Errorf("core: creating audit log directory: %w", err)
	}
	log, err := audit.NewLog(auditPath, c.keys, c.Bus, c.cfg.Audit.RetentionDays)
	if err != nil {
		return coreerr.Wrap(coreerr.ErrInternal, "AUDIT_LOG_INIT_FAILED", "", err)
	}
	log.Start()
	c.Audit = log

	usersPath := filepath.Join(c.cfg.DataDir, "auth", "users.json")
	store, err := newFileUserStore(usersPath, c.keys)
	if err != nil {
		return coreerr.Wrap(coreerr.ErrPersistenceCorrupt, "USERS_STORE_CORRUPT", "", err)
	}
	c.userStore = store

	sessions, err := audit.NewSessionManager(c.sessionSecret(), c.cfg.Auth.JWTExpirationDuration())
	if err != nil {
		return coreerr.Wrap(coreerr.ErrConfig, "SESSION_SECRET_INVALID", "", err)
	}
	c.Sessions = sessions

	c.Auth = &audit.Authenticator{
		Store:        store,
		Sessions:     sessions,
		Lockout:      audit.NewLockout(c.cfg.Auth.MaxFailedAttempts, c.cfg.Auth.LockoutWindow()),
		Log:          log,
		Argon2Params: crypto.DefaultArgon2Params,
	}
	return nil
}

// Shutdown drains the health scheduler, persists every store, and closes
// the audit log — the graceful-shutdown sequence cmd/aegisd runs on
// SIGINT/SIGTERM.
func (c *Core) Shutdown(ctx context.Context) error {
	if c.Health != nil {
		c.Health.Stop()
	}
	var firstErr error
	if c.Memory != nil {
		if err := c.Memory.Persist(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.Audit != nil {
		if err := c.Audit.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
