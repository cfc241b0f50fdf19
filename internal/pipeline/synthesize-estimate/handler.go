// Package synthesizeestimate produces a grounded estimate through the
// generative service. The model is an untrusted producer: its response is
// either a schema-valid, arithmetically consistent estimate or it is
// rejected wholesale and the run falls back to the deterministic estimator.
package synthesizeestimate

import (
	"context"
	"errors"

	"tender-estimator/internal/ai/generative"
	stderrors "tender-estimator/internal/common/errors"
	"tender-estimator/internal/common/logger"
	"tender-estimator/internal/common/metrics"
)

// ErrSynthesisFailed is the single signal the orchestrator switches on to
// invoke the fallback estimator.
var ErrSynthesisFailed = errors.New("estimate synthesis failed")

type Handler struct {
	config    *Config
	generator generative.Generator
	logger    logger.Logger
}

func NewHandler(config *Config, generator generative.Generator, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		generator: generator,
		logger:    log.With(map[string]interface{}{"component": "synthesize-estimate"}),
	}
}

// Execute issues one generative call under a complexity-scaled token budget
// and validates the response. Any failure maps to ErrSynthesisFailed.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	budget := h.tokenBudget(input.Assessment.BudgetMultiplier)

	genCtx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	response, err := h.generator.Generate(genCtx, systemInstruction, h.buildPrompt(input), budget, h.config.Temperature)
	if err != nil {
		reason := "generation_failed"
		stdErr := stderrors.NewSynthesisFailedError("generative call failed", err)
		if genCtx.Err() == context.DeadlineExceeded {
			reason = "generation_timeout"
			stdErr = stderrors.NewSynthesisTimeoutError()
		}
		metrics.SynthesisRejections.WithLabelValues(reason).Inc()
		h.logger.WithError(stdErr).Warn("generative call failed", map[string]interface{}{
			"reason": reason,
		})
		return nil, ErrSynthesisFailed
	}

	raw, ok := extractJSONObject(response)
	if !ok {
		metrics.SynthesisRejections.WithLabelValues("no_json_object").Inc()
		h.logger.WithError(stderrors.NewSynthesisFailedError("response contained no JSON object", nil)).Warn(
			"response contained no JSON object", map[string]interface{}{
				"responseLength": len(response),
			})
		return nil, ErrSynthesisFailed
	}

	estimate, err := validateEstimate(raw)
	if err != nil {
		metrics.SynthesisRejections.WithLabelValues("validation_failed").Inc()
		h.logger.WithError(stderrors.NewOutputValidationFailedError(err.Error())).Warn(
			"generated estimate rejected", nil)
		return nil, ErrSynthesisFailed
	}

	// Record the multiplier actually applied so the estimate is auditable.
	estimate.RegionalMultiplier = input.Adjustment.Multiplier

	h.logger.Info("estimate synthesized", map[string]interface{}{
		"total":       estimate.TotalEstimate,
		"confidence":  estimate.Confidence,
		"tokenBudget": budget,
	})

	return &Output{Estimate: estimate, TokenBudget: budget}, nil
}

func (h *Handler) tokenBudget(multiplier float64) int {
	budget := int(float64(h.config.BaseTokenBudget) * multiplier)
	if budget > h.config.MaxTokenBudget {
		budget = h.config.MaxTokenBudget
	}
	if budget < 1 {
		budget = h.config.BaseTokenBudget
	}
	return budget
}
