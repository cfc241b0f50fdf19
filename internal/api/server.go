// Package api exposes the estimation pipeline over HTTP. One synchronous
// endpoint accepts an estimate request and returns the computed estimate
// plus run metadata; everything below it degrades internally, so the only
// error responses are 400 and 401.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tender-estimator/internal/common/auth"
	"tender-estimator/internal/common/config"
	stderrors "tender-estimator/internal/common/errors"
	"tender-estimator/internal/common/logger"
	"tender-estimator/internal/common/validation"
	"tender-estimator/internal/models"
	"tender-estimator/internal/pipeline/orchestrator"
)

// requestSchema validates the decoded estimate request body before it is
// bound to the typed model.
var requestSchema = validation.JSONSchema{
	Type: "object",
	Properties: map[string]validation.Property{
		"project_id":     {Type: "string", MaxLength: 128},
		"description":    {Type: "string", MaxLength: 4000},
		"scope_of_works": {Type: "string", MaxLength: 20000},
		"location":       {Type: "string", MaxLength: 256},
		"categories":     {Type: "array", Items: &validation.Property{Type: "string", MaxLength: 64}},
		"value_estimate": {Type: "number", Minimum: floatPtr(0)},
	},
}

// HealthCheck pings one collaborator for the health endpoint.
type HealthCheck func(ctx context.Context) error

// Server is the HTTP front end for the pipeline.
type Server struct {
	httpServer   *http.Server
	config       *config.ServerConfig
	orchestrator *orchestrator.Orchestrator
	validator    *auth.APIKeyValidator
	health       map[string]HealthCheck
	logger       logger.Logger
}

// NewServer wires the HTTP layer over the orchestrator.
func NewServer(cfg *config.ServerConfig, orch *orchestrator.Orchestrator, validator *auth.APIKeyValidator, log logger.Logger) *Server {
	return &Server{
		config:       cfg,
		orchestrator: orch,
		validator:    validator,
		health:       make(map[string]HealthCheck),
		logger:       log.With(map[string]interface{}{"component": "api"}),
	}
}

// RegisterHealthCheck adds a named collaborator ping to the health endpoint.
func (s *Server) RegisterHealthCheck(name string, check HealthCheck) {
	s.health[name] = check
}

// Start runs the server until the process receives SIGINT or SIGTERM, then
// shuts down gracefully.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/estimate", s.handleEstimate)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.loggingMiddleware(mux),
		ReadTimeout:  time.Duration(s.config.ReadTimeout) * time.Millisecond,
		WriteTimeout: time.Duration(s.config.WriteTimeout) * time.Millisecond,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", map[string]interface{}{"port": s.config.Port})
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-quit:
		s.logger.Info("shutting down", map[string]interface{}{"signal": sig.String()})
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(ctx)
	}
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.jsonError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	callerID, err := s.authenticate(r)
	if err != nil {
		s.jsonError(w, http.StatusUnauthorized, "invalid or missing API key")
		return
	}

	var body map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.jsonError(w, http.StatusBadRequest, "request body is not valid JSON")
		return
	}

	if result := validation.ValidateInput(body, requestSchema); !result.Valid {
		s.jsonError(w, http.StatusBadRequest, result.ErrorString())
		return
	}

	request, err := bindRequest(body)
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	request.CallerID = callerID

	response, err := s.orchestrator.Run(r.Context(), request)
	if err != nil {
		status := stderrors.HTTPStatus(err)
		if status == http.StatusOK {
			status = http.StatusInternalServerError
		}
		s.jsonError(w, status, err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, response)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "healthy"
	components := make(map[string]string, len(s.health))
	for name, check := range s.health {
		if err := check(ctx); err != nil {
			status = "degraded"
			components[name] = err.Error()
		} else {
			components[name] = "ok"
		}
	}

	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status":     status,
		"components": components,
	})
}

// authenticate resolves the bearer key to a caller identity.
func (s *Server) authenticate(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	token := strings.TrimPrefix(header, "Bearer ")
	if token == header {
		token = ""
	}
	return s.validator.Validate(token)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request handled", map[string]interface{}{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start).String(),
		})
	})
}

// bindRequest converts the validated JSON object into the typed request.
func bindRequest(body map[string]interface{}) (*models.EstimateRequest, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode request body")
	}
	var request models.EstimateRequest
	if err := json.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("request body does not match the expected shape")
	}
	request.Categories = dedupeCategories(request.Categories)
	return &request, nil
}

// dedupeCategories enforces set semantics on the category tags.
func dedupeCategories(categories []string) []string {
	seen := make(map[string]bool, len(categories))
	unique := make([]string, 0, len(categories))
	for _, cat := range categories {
		cat = strings.TrimSpace(cat)
		if cat == "" || seen[cat] {
			continue
		}
		seen[cat] = true
		unique = append(unique, cat)
	}
	return unique
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", map[string]interface{}{"error": err.Error()})
	}
}

func (s *Server) jsonError(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

func floatPtr(f float64) *float64 { return &f }
