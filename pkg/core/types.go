// Package core wires the twelve components (C1-C12) the spec decomposes
// the orchestration core into, and exposes the external surface described
// by spec §6: process, queryKnowledge, ingest, the learn-mode calls, and
// the health calls. Grounded on cmd/tarsy/main.go's service-construction
// order and pkg/agent/agent.go's top-level Execute entrypoint shape.
package core

import (
	"time"

	"github.com/aegis-sec/aegis/pkg/planner"
)

// ProcessOptions configures a Process call (spec §6).
type ProcessOptions struct {
	Mode          string // beginner | pro | safe | simulation | training
	ApprovalToken string
	Strategy      planner.Strategy // StrategyAuto lets the planner decide
	SessionID     string
	UserID        string
}

// ToolCallRecord is one tool invocation surfaced in a Process response.
type ToolCallRecord struct {
	Name   string `json:"name"`
	Output string `json:"output"`
	Error  string `json:"error,omitempty"`
}

// Performance reports timing for a single Process call.
type Performance struct {
	DurationMs int64 `json:"durationMs"`
	StepCount  int   `json:"stepCount"`
	Truncated  bool  `json:"truncated"`
}

// MemorySnapshot is a compact view of the memory subsystem after a
// Process call finishes, used by callers that want to show "what the
// assistant now remembers" without a separate round trip.
type MemorySnapshot struct {
	EpisodicCount   int `json:"episodicCount"`
	ProceduralCount int `json:"proceduralCount"`
	WorkingCount    int `json:"workingCount"`
}

// ProcessResult is process's return shape (spec §6).
type ProcessResult struct {
	Text           string           `json:"text"`
	Reasoning      []string         `json:"reasoning"`
	ToolCalls      []ToolCallRecord `json:"toolCalls"`
	Performance    Performance      `json:"performance"`
	MemorySnapshot MemorySnapshot   `json:"memorySnapshot"`
}

// QueryOptions configures a QueryKnowledge call (spec §4.6).
type QueryOptions struct {
	UseCache   bool
	Debug      bool
	Category   string
	Difficulty string
	K          int
}

// QueryResult is queryKnowledge's return shape (spec §6).
type QueryResult struct {
	Response        string   `json:"response"`
	Techniques      []string `json:"techniques,omitempty"`
	Tools           []string `json:"tools,omitempty"`
	CodeExamples    []string `json:"codeExamples,omitempty"`
	Confidence      float64  `json:"confidence"`
	Sources         []string `json:"sources,omitempty"`
	Cached          bool     `json:"cached,omitempty"`
	HitType         string   `json:"hitType,omitempty"`
	SimilarityScore float64  `json:"similarityScore,omitempty"`
	ProcessingTime  int64    `json:"processingTime"`
	Degraded        bool     `json:"degraded,omitempty"`
}

// IngestResult is ingest's return shape (spec §6).
type IngestResult struct {
	AcceptedChunks int      `json:"acceptedChunks"`
	Rejected       []string `json:"rejected"`
}

// Mission is an in-progress learn-mode training scenario (spec §6's
// "learn-mode calls": startMission/submitStep/provideFeedback/
// explainConcept). There is no teacher or spec precedent for mission
// bookkeeping beyond the four call names, so this struct is built
// directly from spec text: a scenario plan executed one step at a time
// under the planner's training mode, rather than all at once.
type Mission struct {
	ID        string       `json:"id"`
	Topic     string       `json:"topic"`
	Plan      planner.Plan `json:"-"`
	Cursor    int          `json:"cursor"`
	StartedAt time.Time    `json:"startedAt"`
}

// MissionStep is one outcome from submitStep.
type MissionStep struct {
	MissionID string `json:"missionId"`
	Index     int    `json:"index"`
	Output    string `json:"output"`
	Done      bool   `json:"done"`
}

// HealthReportResult wraps healthCheck()'s structured outcome.
type HealthReportResult struct {
	Overall string            `json:"overall"`
	Probes  map[string]string `json:"probes"`
}
