package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/maskrelay/maskrelay/internal/events"
	"github.com/maskrelay/maskrelay/internal/llm"
	"github.com/maskrelay/maskrelay/internal/pipeline"
	"github.com/maskrelay/maskrelay/internal/privacy"
	"go.uber.org/zap"
)

// ProcessRequest is the body of a /process call. An empty session_id mints
// a fresh session; callers reuse the returned identifier to keep masking
// state across calls of the same logical conversation.
type ProcessRequest struct {
	Prompt    string `json:"prompt"`
	SessionID string `json:"session_id,omitempty"`
}

// ProcessResponse is the result of a full pipeline run.
type ProcessResponse struct {
	Result         string         `json:"result"`
	Preprocessing  pipeline.Stage `json:"preprocessing"`
	Postprocessing pipeline.Stage `json:"postprocessing"`
	SessionID      string         `json:"session_id"`
}

// GenerateRequest is the body of a direct /llm/generate call.
type GenerateRequest struct {
	Prompt string `json:"prompt"`
	Model  string `json:"model,omitempty"` // accepted but ignored for now
}

// GenerateResponse carries the raw completion text.
type GenerateResponse struct {
	Response string `json:"response"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// handleRoot handles root health check requests
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "maskrelay gateway is running."})
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"healthy","timestamp":"%s"}`, time.Now().Format(time.RFC3339))
}

// handleInfo handles info requests
func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":              "maskrelay",
		"version":           "0.1.0",
		"privacy_enabled":   s.config.Privacy.Enabled,
		"session_backend":   s.config.Sessions.Backend,
		"llm_configured":    s.llm.Configured(),
		"connected_clients": s.hub.ClientCount(),
	})
}

// handleMCPHealth handles tool server health checks
func (s *Server) handleMCPHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "MCP server is healthy"})
}

// handleMCPTools lists the advertised tool integration points
func (s *Server) handleMCPTools(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, pipeline.Catalog())
}

// handleProcess runs the configured pipeline (preprocessing, LLM,
// postprocessing) over the prompt. One session identifier is authoritative
// across both stages so values masked before the LLM call can be restored
// after it.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req ProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.Prompt == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "prompt is required"})
		return
	}

	// The pipeline document is read per request so edits take effect
	// without a restart. An unreadable document fails the request.
	pipelineCfg, err := pipeline.LoadConfig(s.config.Pipeline.ConfigPath)
	if err != nil {
		s.logger.Error("Pipeline configuration unavailable", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "pipeline configuration unavailable"})
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	requestID := getRequestID(r.Context())
	logger := s.logger.WithRequestID(requestID).WithSessionID(sessionID)

	// Preprocessing
	processed, err := s.runStage(r.Context(), "preprocessing", pipelineCfg.Preprocessing, req.Prompt, sessionID)
	if err != nil {
		logger.Error("Preprocessing failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "preprocessing failed"})
		return
	}

	// LLM call. Any failure degrades to a sentinel string in the text so
	// postprocessing still runs and the caller gets a well-formed response.
	completion, err := s.llm.Complete(r.Context(), processed)
	if err != nil {
		if errors.Is(err, llm.ErrNotConfigured) {
			completion = "[LLM not configured]"
		} else {
			completion = fmt.Sprintf("[LLM error: %v]", err)
		}
		logger.Warn("LLM call degraded", zap.Error(err))
	}

	// Postprocessing
	result, err := s.runStage(r.Context(), "postprocessing", pipelineCfg.Postprocessing, completion, sessionID)
	if err != nil {
		logger.Error("Postprocessing failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "postprocessing failed"})
		return
	}

	writeJSON(w, http.StatusOK, ProcessResponse{
		Result:         result,
		Preprocessing:  pipelineCfg.Preprocessing,
		Postprocessing: pipelineCfg.Postprocessing,
		SessionID:      sessionID,
	})
}

// runStage executes one pipeline stage and reports a run event.
func (s *Server) runStage(ctx context.Context, stage string, cfg pipeline.Stage, text, sessionID string) (string, error) {
	ctx = withStage(ctx, stage)

	start := time.Now()
	out, err := s.executor.Run(ctx, cfg, text, sessionID)
	if err != nil {
		return text, err
	}

	if cfg.Enabled && len(cfg.Pipeline) > 0 {
		s.hub.BroadcastEvent(events.Event{
			Type:      events.EventTypePipelineRun,
			Timestamp: time.Now(),
			RequestID: getRequestID(ctx),
			Data: events.PipelineRunEvent{
				RequestID:  getRequestID(ctx),
				SessionID:  sessionID,
				Stage:      stage,
				Steps:      len(cfg.Pipeline),
				DurationMS: float64(time.Since(start).Nanoseconds()) / 1e6,
			},
		})
	}

	return out, nil
}

// broadcastDetections reports masking findings to event stream clients.
func (s *Server) broadcastDetections(ctx context.Context, sessionID string, findings []privacy.Finding) {
	total := 0
	for _, finding := range findings {
		total += finding.Count
	}

	s.hub.BroadcastEvent(events.Event{
		Type:      events.EventTypePIIDetection,
		Timestamp: time.Now(),
		RequestID: getRequestID(ctx),
		Data: events.PIIDetectionEvent{
			RequestID:     getRequestID(ctx),
			SessionID:     sessionID,
			Stage:         getStage(ctx),
			Findings:      findings,
			TotalFindings: total,
		},
	})
}

// handleLLMGenerate calls the upstream completion service directly, without
// any pipeline processing. Unlike /process this surfaces upstream failures
// as HTTP errors.
func (s *Server) handleLLMGenerate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.Prompt == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "prompt is required"})
		return
	}

	if !s.llm.Configured() {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "LLM endpoint not configured"})
		return
	}

	completion, err := s.llm.Complete(r.Context(), req.Prompt)
	if err != nil {
		s.logger.WithRequestID(getRequestID(r.Context())).Error("LLM call failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: fmt.Sprintf("LLM error: %v", err)})
		return
	}

	writeJSON(w, http.StatusOK, GenerateResponse{Response: completion})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
