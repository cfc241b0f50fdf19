// Package orchestrator sequences the estimation pipeline. It resolves the
// request context, fans out the independent retrieval branches, attempts
// grounded synthesis and falls back to the deterministic estimator, so that
// every authenticated, well-formed request receives a valid estimate.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"tender-estimator/internal/common/errors"
	"tender-estimator/internal/common/logger"
	"tender-estimator/internal/common/metrics"
	"tender-estimator/internal/common/observability"
	"tender-estimator/internal/models"
	adjustregion "tender-estimator/internal/pipeline/adjust-region"
	fallbackestimate "tender-estimator/internal/pipeline/fallback-estimate"
	retrievelabour "tender-estimator/internal/pipeline/retrieve-labour"
	retrievepricing "tender-estimator/internal/pipeline/retrieve-pricing"
	scorecomplexity "tender-estimator/internal/pipeline/score-complexity"
	synthesizeestimate "tender-estimator/internal/pipeline/synthesize-estimate"
)

// degradedRetrievalFactor is appended to a synthesized estimate whenever a
// retrieval branch failed during the run.
const degradedRetrievalFactor = "Reference data retrieval was degraded; some pricing or labour evidence is missing"

// Pipeline run states, logged at each transition.
const (
	stateContextResolved   = "ContextResolved"
	stateRetrievalInFlight = "RetrievalInFlight"
	stateRetrievalComplete = "RetrievalComplete"
	stateSynthesisAttempt  = "SynthesisAttempted"
	stateSucceeded         = "Succeeded"
	stateFallbackUsed      = "FallbackUsed"
	stateResponded         = "Responded"
)

// PricingRetriever is the hybrid pricing branch.
type PricingRetriever interface {
	Execute(ctx context.Context, input *retrievepricing.Input) (*retrievepricing.Output, error)
}

// LabourRetriever is the labour-norm branch.
type LabourRetriever interface {
	Execute(ctx context.Context, input *retrievelabour.Input) (*retrievelabour.Output, error)
}

// RegionAdjuster resolves the regional multiplier branch.
type RegionAdjuster interface {
	Execute(ctx context.Context, input *adjustregion.Input) (*adjustregion.Output, error)
}

// ComplexityScorer is the pure scoring step.
type ComplexityScorer interface {
	Execute(ctx context.Context, input *scorecomplexity.Input) (*scorecomplexity.Output, error)
}

// Synthesizer attempts the grounded generative estimate.
type Synthesizer interface {
	Execute(ctx context.Context, input *synthesizeestimate.Input) (*synthesizeestimate.Output, error)
}

// FallbackEstimator produces the deterministic estimate.
type FallbackEstimator interface {
	Execute(ctx context.Context, input *fallbackestimate.Input) (*fallbackestimate.Output, error)
}

// ProjectStore resolves stored project context and persists estimates.
type ProjectStore interface {
	GetProject(ctx context.Context, projectID string) (*models.ProjectRecord, error)
	SaveEstimate(ctx context.Context, record *models.EstimateRecord) error
}

// Notifier publishes estimate-ready events. Optional.
type Notifier interface {
	PublishEstimateReady(ctx context.Context, msg NotificationMessage) error
}

// NotificationMessage mirrors the published payload without binding the
// orchestrator to a transport.
type NotificationMessage struct {
	EstimateID    string
	ProjectID     string
	CallerID      string
	TotalEstimate float64
	Confidence    string
	FallbackUsed  bool
	GeneratedAt   time.Time
}

// Orchestrator runs one estimation per call. It is stateless across
// invocations and safe for concurrent use.
type Orchestrator struct {
	config      *Config
	pricing     PricingRetriever
	labour      LabourRetriever
	region      RegionAdjuster
	scorer      ComplexityScorer
	synthesizer Synthesizer
	fallback    FallbackEstimator
	projects    ProjectStore
	notifier    Notifier
	obs         *observability.Metrics
	logger      logger.Logger
}

// NewOrchestrator wires the pipeline. synthesizer may be nil when no
// generative credential is configured; every run then uses the fallback.
// projects and notifier may also be nil.
func NewOrchestrator(
	config *Config,
	pricing PricingRetriever,
	labour LabourRetriever,
	region RegionAdjuster,
	scorer ComplexityScorer,
	synthesizer Synthesizer,
	fallback FallbackEstimator,
	projects ProjectStore,
	notifier Notifier,
	obs *observability.Metrics,
	log logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		config:      config,
		pricing:     pricing,
		labour:      labour,
		region:      region,
		scorer:      scorer,
		synthesizer: synthesizer,
		fallback:    fallback,
		projects:    projects,
		notifier:    notifier,
		obs:         obs,
		logger:      log.With(map[string]interface{}{"component": "orchestrator"}),
	}
}

type retrievalResults struct {
	mu         sync.Mutex
	pricing    []models.PricingResult
	labour     []models.LabourNormResult
	adjustment models.RegionalAdjustment
	degraded   bool
}

// Run executes the pipeline for one request. The only errors it returns are
// input errors; every downstream failure degrades the estimate instead.
func (o *Orchestrator) Run(ctx context.Context, request *models.EstimateRequest) (*models.EstimateResponse, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, o.config.OverallTimeout)
	defer cancel()

	estimateID := uuid.New().String()

	resolved, err := o.resolveContext(ctx, request)
	if err != nil {
		return nil, err
	}
	runLog := o.logger.With(map[string]interface{}{
		"estimateId": estimateID,
		"projectId":  resolved.ProjectID,
	})
	o.transition(runLog, stateContextResolved)

	// The scorer is pure; it runs before the fan-out so the synthesis input
	// is ready the moment retrieval settles.
	assessment := models.ComplexityAssessment{
		Score:            50,
		Level:            models.ComplexityStandard,
		BudgetMultiplier: 1.0,
	}
	if scored, err := o.scorer.Execute(ctx, &scorecomplexity.Input{
		Categories:    resolved.Categories,
		Scope:         resolved.Scope,
		ValueEstimate: resolved.ValueEstimate,
	}); err == nil && scored != nil {
		assessment = scored.Assessment
	}

	o.transition(runLog, stateRetrievalInFlight)
	results := o.retrieve(ctx, resolved, runLog)
	o.transition(runLog, stateRetrievalComplete)

	var (
		estimate     *models.EstimateOutput
		tokenBudget  int
		fallbackUsed bool
	)

	if o.synthesizer != nil && ctx.Err() == nil {
		o.transition(runLog, stateSynthesisAttempt)
		synthesized, synthErr := o.synthesizer.Execute(ctx, &synthesizeestimate.Input{
			Description:   resolved.Description,
			Scope:         resolved.Scope,
			Location:      resolved.Location,
			Categories:    resolved.Categories,
			ValueEstimate: resolved.ValueEstimate,
			Pricing:       results.pricing,
			Labour:        results.labour,
			Adjustment:    results.adjustment,
			Assessment:    assessment,
		})
		if synthErr == nil {
			estimate = synthesized.Estimate
			tokenBudget = synthesized.TokenBudget
		}
	}

	if estimate == nil {
		fallbackUsed = true
		fromFallback, _ := o.fallback.Execute(ctx, &fallbackestimate.Input{
			BaseValue:          resolved.ValueEstimate * results.adjustment.Multiplier,
			Categories:         resolved.Categories,
			ComplexityLevel:    assessment.Level,
			RegionalMultiplier: results.adjustment.Multiplier,
		})
		estimate = fromFallback.Estimate
		o.transition(runLog, stateFallbackUsed)
	} else {
		// A synthesized estimate built on partial reference data cannot claim
		// full confidence. The fallback path already carries Low.
		if results.degraded {
			estimate.ConfidenceFactors = append(estimate.ConfidenceFactors, degradedRetrievalFactor)
			if estimate.Confidence == models.ConfidenceHigh {
				estimate.Confidence = models.ConfidenceMedium
			}
		}
		o.transition(runLog, stateSucceeded)
	}

	metadata := models.EstimateMetadata{
		EstimateID:         estimateID,
		ComplexityLevel:    assessment.Level,
		ComplexityScore:    assessment.Score,
		RegionLabel:        results.adjustment.Region,
		RegionalMultiplier: results.adjustment.Multiplier,
		PricingCount:       len(results.pricing),
		LabourCount:        len(results.labour),
		TokenBudget:        tokenBudget,
		RetrievalDegraded:  results.degraded,
		FallbackUsed:       fallbackUsed,
		GeneratedAt:        time.Now().UTC(),
	}

	response := &models.EstimateResponse{
		Estimate: estimate,
		Metadata: metadata,
	}

	outcome := "synthesized"
	if fallbackUsed {
		outcome = "fallback"
	}
	metrics.EstimateRunsTotal.WithLabelValues(outcome).Inc()
	metrics.EstimateDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	if o.obs != nil {
		o.obs.RecordEstimate(ctx, outcome, time.Since(start))
	}

	o.transition(runLog, stateResponded)

	// The caller gets the response now; persistence and notification run
	// detached on a fresh context so a slow save cannot hold the request.
	go o.persistAndNotify(resolved, response)

	return response, nil
}

// resolveContext merges caller input with any stored project record. Caller
// values take precedence over stored ones.
func (o *Orchestrator) resolveContext(ctx context.Context, request *models.EstimateRequest) (*models.EstimateRequest, error) {
	resolved := *request

	if resolved.ProjectID != "" && o.projects != nil {
		lookupCtx, cancel := context.WithTimeout(ctx, o.config.RetrievalTimeout)
		record, err := o.projects.GetProject(lookupCtx, resolved.ProjectID)
		cancel()
		if err != nil {
			o.logger.WithError(errors.NewProjectLookupFailedError(resolved.ProjectID, err)).Warn(
				"project lookup failed, continuing with caller input", map[string]interface{}{
					"projectId": resolved.ProjectID,
				})
		} else if record != nil {
			if resolved.Description == "" {
				resolved.Description = record.Description
			}
			if resolved.Scope == "" {
				resolved.Scope = record.Scope
			}
			if resolved.Location == "" {
				resolved.Location = record.Location
			}
			if len(resolved.Categories) == 0 {
				resolved.Categories = record.Categories
			}
			if resolved.ValueEstimate == 0 {
				resolved.ValueEstimate = record.ValueEstimate
			}
		}
	}

	if resolved.Description == "" && resolved.Scope == "" {
		return nil, errors.NewInvalidInputError("request must carry a description, a scope of works, or a resolvable project ID")
	}

	if len(resolved.Categories) == 0 {
		resolved.Categories = []string{models.DefaultCategory}
	}

	return &resolved, nil
}

// retrieve fans out the three independent branches and joins them under the
// overall deadline. Each branch is fault tolerant on its own, so the join
// only ever waits on latency.
func (o *Orchestrator) retrieve(ctx context.Context, resolved *models.EstimateRequest, runLog logger.Logger) *retrievalResults {
	results := &retrievalResults{
		adjustment: models.NationalAverage(),
	}

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		out, err := o.pricing.Execute(ctx, &retrievepricing.Input{
			Description: resolved.Description,
			Scope:       resolved.Scope,
			Categories:  resolved.Categories,
		})
		results.mu.Lock()
		if err != nil || out == nil {
			results.degraded = true
		} else {
			results.pricing = out.Results
			results.degraded = results.degraded || out.Degraded
		}
		results.mu.Unlock()
	}()

	go func() {
		defer wg.Done()
		out, err := o.labour.Execute(ctx, &retrievelabour.Input{
			Description: resolved.Description,
			Scope:       resolved.Scope,
			Categories:  resolved.Categories,
		})
		results.mu.Lock()
		if err != nil || out == nil {
			results.degraded = true
		} else {
			results.labour = out.Results
			results.degraded = results.degraded || out.Degraded
		}
		results.mu.Unlock()
	}()

	go func() {
		defer wg.Done()
		// The adjuster has no internal deadline of its own, so bound its
		// store lookup here like the other branches.
		regionCtx, cancel := context.WithTimeout(ctx, o.config.RetrievalTimeout)
		defer cancel()
		out, err := o.region.Execute(regionCtx, &adjustregion.Input{
			Location: resolved.Location,
		})
		results.mu.Lock()
		if err == nil && out != nil {
			results.adjustment = out.Adjustment
		}
		results.mu.Unlock()
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		runLog.Warn("overall deadline reached during retrieval, proceeding with partial results", nil)
	}

	results.mu.Lock()
	defer results.mu.Unlock()
	snapshot := &retrievalResults{
		pricing:    results.pricing,
		labour:     results.labour,
		adjustment: results.adjustment,
		degraded:   results.degraded,
	}
	return snapshot
}

// persistAndNotify saves the estimate and publishes the ready event. Both
// are best effort; failures are logged and absorbed.
func (o *Orchestrator) persistAndNotify(resolved *models.EstimateRequest, response *models.EstimateResponse) {
	ctx, cancel := context.WithTimeout(context.Background(), o.config.PersistTimeout)
	defer cancel()

	if o.projects != nil {
		record := &models.EstimateRecord{
			EstimateID:   response.Metadata.EstimateID,
			ProjectID:    resolved.ProjectID,
			CallerID:     resolved.CallerID,
			Output:       response.Estimate,
			FallbackUsed: response.Metadata.FallbackUsed,
			CreatedAt:    response.Metadata.GeneratedAt,
		}
		if err := o.projects.SaveEstimate(ctx, record); err != nil {
			o.logger.WithError(errors.NewPersistenceFailedError(err)).Error(
				"estimate persistence failed", map[string]interface{}{
					"estimateId": record.EstimateID,
				})
		}
	}

	if o.notifier != nil {
		msg := NotificationMessage{
			EstimateID:    response.Metadata.EstimateID,
			ProjectID:     resolved.ProjectID,
			CallerID:      resolved.CallerID,
			TotalEstimate: response.Estimate.TotalEstimate,
			Confidence:    response.Estimate.Confidence,
			FallbackUsed:  response.Metadata.FallbackUsed,
			GeneratedAt:   response.Metadata.GeneratedAt,
		}
		if err := o.notifier.PublishEstimateReady(ctx, msg); err != nil {
			metrics.NotificationFailures.Inc()
			o.logger.WithError(errors.NewNotificationSendFailedError(err)).Error(
				"estimate notification failed", map[string]interface{}{
					"estimateId": msg.EstimateID,
				})
		}
	}
}

func (o *Orchestrator) transition(runLog logger.Logger, state string) {
	runLog.Debug("pipeline state", map[string]interface{}{"state": state})
}
