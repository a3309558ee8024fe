package audit

import (
	"bufio"
	"encoding/json"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aegis-sec/aegis/pkg/bus"
	"github.com/aegis-sec/aegis/pkg/crypto"
)

// Record is an append-only audit entry (spec §3: "Audit record —
// append-only {id, ts, actor, action, resource, details, sessionId,
// success, duration, metadata}").
type Record struct {
	ID        string            `json:"id"`
	Timestamp int64             `json:"ts"`
	Actor     string            `json:"actor"`
	Action    string            `json:"action"`
	Resource  string            `json:"resource"`
	Details   string            `json:"details,omitempty"`
	SessionID string            `json:"sessionId,omitempty"`
	Success   bool              `json:"success"`
	Duration  time.Duration     `json:"duration"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

const (
	bufferSize    = 256
	flushInterval = 2 * time.Second
)

// Log is an async, buffered, append-only audit writer. Entries are
// queued to an internal channel and flushed by a background goroutine as
// newline-delimited, individually encrypted records — grounded on
// wisbric-nightowl/internal/audit/audit.go's buffered-channel Log/
// Start/Close shape, adapted from a Postgres batch writer to an
// encrypted append-only file plus an in-memory ring for query (spec
// §4.12).
type Log struct {
	path   string
	keys   *crypto.KeyManager
	bus    *bus.Bus
	ring   *ring
	file   *os.File
	writer *bufio.Writer
	mu     sync.Mutex

	entries chan Record
	wg      sync.WaitGroup
}

// NewLog opens (creating if absent) the append-only log file at path.
// retentionDays bounds the in-memory ring used for Query.
func NewLog(path string, keys *crypto.KeyManager, b *bus.Bus, retentionDays int) (*Log, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}
	return &Log{
		path:    path,
		keys:    keys,
		bus:     b,
		ring:    newRing(retentionDays),
		file:    f,
		writer:  bufio.NewWriter(f),
		entries: make(chan Record, bufferSize),
	}, nil
}

// Start launches the background flush loop.
func (l *Log) Start() {
	l.wg.Add(1)
	go l.run()
}

// Close stops the flush loop, draining any pending entries, and closes
// the underlying file.
func (l *Log) Close() error {
	close(l.entries)
	l.wg.Wait()
	l.mu.Lock()
	defer l.mu.Unlock()
	_ = l.writer.Flush()
	return l.file.Close()
}

// Append enqueues a record, assigning an ID and timestamp if unset. Never
// blocks the caller; a full buffer drops the entry with a warning.
func (l *Log) Append(rec Record) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp == 0 {
		rec.Timestamp = time.Now().UnixNano()
	}
	select {
	case l.entries <- rec:
	default:
		slog.Warn("audit log buffer full, dropping entry", "action", rec.Action, "resource", rec.Resource)
	}
}

func (l *Log) run() {
	defer l.wg.Done()
	for rec := range l.entries {
		l.ring.add(rec)
		if l.bus != nil {
			l.bus.Publish(bus.TopicAuditLogCreated, map[string]any{"id": rec.ID, "action": rec.Action})
		}
		if err := l.writeLine(rec); err != nil {
			slog.Error("audit log write failed", "error", err)
		}
	}
}

func (l *Log) writeLine(rec Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	if l.keys != nil {
		key, err := l.keys.DeriveStoreKey("audit")
		if err != nil {
			return err
		}
		env, err := crypto.Seal(key, payload)
		if err != nil {
			return err
		}
		payload, err = json.Marshal(env)
		if err != nil {
			return err
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.writer.Write(payload); err != nil {
		return err
	}
	if err := l.writer.WriteByte('\n'); err != nil {
		return err
	}
	return l.writer.Flush()
}

// QueryFilter bounds a Query call (spec §4.12).
type QueryFilter struct {
	UserID   string
	Action   string
	Resource string
	Since    time.Time
	Until    time.Time
	Success  *bool
	Limit    int
}

// Query returns matching records from the in-memory ring, sorted
// newest-first and bounded by filter.Limit (spec §4.12).
func (l *Log) Query(filter QueryFilter) []Record {
	return l.ring.query(filter)
}
