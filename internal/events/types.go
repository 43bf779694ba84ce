package events

import (
	"time"

	"github.com/maskrelay/maskrelay/internal/privacy"
)

// EventType represents the type of WebSocket event
type EventType string

const (
	// EventTypePIIDetection represents a PII detection event
	EventTypePIIDetection EventType = "pii_detection"
	// EventTypePipelineRun represents a completed pipeline stage run
	EventTypePipelineRun EventType = "pipeline_run"
	// EventTypeConnection represents connection events
	EventTypeConnection EventType = "connection"
)

// Event represents a WebSocket event sent to clients
type Event struct {
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
	RequestID string      `json:"request_id,omitempty"`
}

// PIIDetectionEvent represents a PII detection event
type PIIDetectionEvent struct {
	RequestID     string            `json:"request_id"`
	SessionID     string            `json:"session_id"`
	Stage         string            `json:"stage"`
	Findings      []privacy.Finding `json:"findings"`
	TotalFindings int               `json:"total_findings"`
}

// PipelineRunEvent represents a completed pipeline stage run
type PipelineRunEvent struct {
	RequestID  string  `json:"request_id"`
	SessionID  string  `json:"session_id"`
	Stage      string  `json:"stage"`
	Steps      int     `json:"steps"`
	DurationMS float64 `json:"duration_ms"`
}

// ConnectionEvent represents WebSocket connection events
type ConnectionEvent struct {
	Action   string `json:"action"` // "connected", "disconnected"
	ClientID string `json:"client_id"`
}
