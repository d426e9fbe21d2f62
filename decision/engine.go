// ABOUTME: Decision engine that turns prospect context into structured decisions
// ABOUTME: Never fails: transport or parse problems produce a logged low-confidence defer decision
package decision

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/DoniaKassem/AIRevenueOrc-sub002/models"
)

// Fallback failure reasons recorded in decision metadata.
const (
	FailureTransport = "transport"
	FailureParse     = "parse"
)

// FallbackConfidence is the confidence of every fallback decision.
const FallbackConfidence = 0.3

// AuditLog stores decisions for later review.
type AuditLog interface {
	Record(ctx context.Context, rec models.DecisionRecord) error
}

// Stats counts engine outcomes since start.
type Stats struct {
	Decisions int64 `json:"decisions"`
	Fallbacks int64 `json:"fallbacks"`
}

// Engine asks the AI backend for decisions.
type Engine struct {
	provider Provider
	audit    AuditLog
	logger   *zap.Logger

	decisions atomic.Int64
	fallbacks atomic.Int64
}

// NewEngine creates an engine. audit may be nil.
func NewEngine(provider Provider, audit AuditLog, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		provider: provider,
		audit:    audit,
		logger:   logger,
	}
}

// Decide asks for a decision of type t given input. It always returns a
// decision; failures yield a fallback whose metadata says why.
func (e *Engine) Decide(ctx context.Context, t models.DecisionType, input map[string]interface{}) models.Decision {
	start := time.Now()

	contextJSON, err := json.Marshal(input)
	if err != nil {
		contextJSON = []byte(fmt.Sprintf("%q", fmt.Sprint(input)))
	}

	req := Request{
		Prompt:       fmt.Sprintf("Decision: %s\nContext:\n%s", t, contextJSON),
		SystemPrompt: SystemPrompt(t),
		Hints: map[string]string{
			HintKind:   string(t),
			HintFormat: FormatJSON,
		},
	}

	var d models.Decision
	resp, err := e.provider.Invoke(ctx, req)
	if err != nil {
		d = Fallback(FailureTransport, err, "")
	} else if parsed, perr := ParseDecision(t, resp.Text); perr != nil {
		d = Fallback(FailureParse, perr, resp.Text)
	} else {
		d = parsed
	}

	e.decisions.Add(1)
	if d.IsFallback() {
		e.fallbacks.Add(1)
		e.logger.Warn("decision fell back to defer",
			zap.String("type", string(t)),
			zap.String("failure", d.MetadataString("failure")),
			zap.String("error", d.MetadataString("error")))
	}

	latency := time.Since(start)
	e.logger.Debug("decision made",
		zap.String("type", string(t)),
		zap.String("action", d.Action),
		zap.Float64("confidence", d.Confidence),
		zap.Duration("latency", latency))

	e.record(ctx, t, input, string(contextJSON), d, latency)
	return d
}

// Complete sends a raw request through the same backend and retry policy.
func (e *Engine) Complete(ctx context.Context, req Request) (Response, error) {
	return e.provider.Invoke(ctx, req)
}

// Stats returns outcome counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Decisions: e.decisions.Load(),
		Fallbacks: e.fallbacks.Load(),
	}
}

func (e *Engine) record(ctx context.Context, t models.DecisionType, input map[string]interface{}, contextJSON string, d models.Decision, latency time.Duration) {
	if e.audit == nil {
		return
	}
	prospectID, _ := input["prospect_id"].(string)
	err := e.audit.Record(ctx, models.DecisionRecord{
		Type:       t,
		ProspectID: prospectID,
		Context:    contextJSON,
		Decision:   d,
		LatencyMS:  latency.Milliseconds(),
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		e.logger.Warn("failed to record decision", zap.String("type", string(t)), zap.Error(err))
	}
}

// Fallback builds the defer decision used when no valid decision is available.
func Fallback(failure string, err error, raw string) models.Decision {
	meta := map[string]interface{}{
		"fallback": true,
		"failure":  failure,
	}
	if err != nil {
		meta["error"] = err.Error()
	}
	if raw != "" {
		meta["raw"] = raw
	}
	return models.Decision{
		Action:     models.ActionDefer,
		Reasoning:  "no usable decision from the AI backend",
		Confidence: FallbackConfidence,
		Metadata:   meta,
	}
}

// IsTransportFallback reports whether d is a fallback caused by the backend
// being unreachable after retries.
func IsTransportFallback(d models.Decision) bool {
	return d.IsFallback() && d.MetadataString("failure") == FailureTransport
}
