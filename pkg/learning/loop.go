package learning

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"sync"

	"github.com/aegis-sec/aegis/pkg/bus"
	"github.com/aegis-sec/aegis/pkg/crypto"
)

const defaultMaxHistory = 1000
const defaultLearningRate = 0.1

// Entry is one recorded interaction (spec §4.11).
type Entry struct {
	Timestamp     int64    `json:"ts"`
	Input         string   `json:"input"`
	ResultSummary string   `json:"resultSummary"`
	Feedback      string   `json:"feedback,omitempty"`
	Metrics       Metrics  `json:"metrics"`
	Improvements  []string `json:"improvements,omitempty"`
}

// Loop is the Feedback/Learning Loop (C11): tracks rolling metrics and a
// capped FIFO interaction history, persisting best-effort after every
// append.
//
// Open Question resolution (spec §4.11 leaves persistence format
// unspecified for this history): history is encrypted via KeyManager when
// one is supplied, and written as plaintext JSON otherwise — the same
// fallback the memory subsystem's own stores don't need to make because a
// master key is mandatory there, but the learning history is explicitly
// allowed to run key-less in a training/demo deployment.
type Loop struct {
	mu sync.Mutex

	rate       float64
	maxHistory int

	rolling Metrics
	history []Entry

	bus  *bus.Bus
	keys *crypto.KeyManager
	path string
}

// Config configures a Loop.
type Config struct {
	LearningRate float64
	MaxHistory   int
	StorePath    string
	Keys         *crypto.KeyManager // nil disables encryption-at-rest
}

// New builds a Loop.
func New(cfg Config, b *bus.Bus) *Loop {
	rate := cfg.LearningRate
	if rate <= 0 {
		rate = defaultLearningRate
	}
	maxHistory := cfg.MaxHistory
	if maxHistory <= 0 {
		maxHistory = defaultMaxHistory
	}
	return &Loop{rate: rate, maxHistory: maxHistory, bus: b, keys: cfg.Keys, path: cfg.StorePath}
}

// Record scores an interaction, updates rolling metrics via EMA, generates
// improvement strings, appends a capped-FIFO Entry, and persists
// best-effort (spec §4.11).
func (l *Loop) Record(ctx context.Context, ts int64, input, response, feedback string) Entry {
	metrics := ScoreInteraction(input, response)
	improvements := GenerateImprovements(metrics, feedback)

	l.mu.Lock()
	l.rolling = UpdateRolling(l.rolling, metrics, l.rate)
	entry := Entry{
		Timestamp:     ts,
		Input:         input,
		ResultSummary: response,
		Feedback:      feedback,
		Metrics:       metrics,
		Improvements:  improvements,
	}
	l.history = append(l.history, entry)
	if len(l.history) > l.maxHistory {
		l.history = l.history[len(l.history)-l.maxHistory:]
	}
	snapshot := append([]Entry(nil), l.history...)
	l.mu.Unlock()

	if l.bus != nil {
		l.bus.Publish(bus.TopicLearningEntry, map[string]any{"input": input, "metrics": metrics, "improvements": improvements})
	}

	if l.path != "" {
		if err := l.persist(snapshot); err != nil {
			slog.Warn("learning history persist failed", "error", err)
		}
	}

	return entry
}

// RollingMetrics returns the current EMA-aggregated metrics.
func (l *Loop) RollingMetrics() Metrics {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rolling
}

// History returns a snapshot of the current FIFO-capped history.
func (l *Loop) History() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Entry(nil), l.history...)
}

func (l *Loop) persist(history []Entry) error {
	if l.keys != nil {
		key, err := l.keys.DeriveStoreKey("learning")
		if err != nil {
			return err
		}
		env, err := crypto.SealJSON(key, history)
		if err != nil {
			return err
		}
		return crypto.WriteEnvelopeAtomic(l.path, env)
	}

	payload, err := json.Marshal(history)
	if err != nil {
		return err
	}
	return os.WriteFile(l.path, payload, 0o600)
}

// Load restores history from path, decrypting via KeyManager if one was
// configured. A missing file is not an error (fresh store).
func (l *Loop) Load() error {
	if l.path == "" {
		return nil
	}

	var history []Entry
	if l.keys != nil {
		env, exists, err := crypto.ReadEnvelope(l.path)
		if err != nil {
			return err
		}
		if !exists {
			return nil
		}
		key, err := l.keys.DeriveStoreKey("learning")
		if err != nil {
			return err
		}
		if err := crypto.OpenJSON(key, env, &history); err != nil {
			return err
		}
	} else {
		data, err := os.ReadFile(l.path)
		if os.IsNotExist(err) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := json.Unmarshal(data, &history); err != nil {
			return err
		}
	}

	l.mu.Lock()
	l.history = history
	l.mu.Unlock()
	return nil
}
