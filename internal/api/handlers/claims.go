// Package handlers provides HTTP handlers for the adjudication API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/clearclaim/go-ace/internal/adjudication"
	"github.com/clearclaim/go-ace/internal/api/middleware"
	"github.com/clearclaim/go-ace/internal/domain/claim"
	"github.com/clearclaim/go-ace/internal/domain/policy"
	"github.com/clearclaim/go-ace/internal/fhir/mapper"
	"github.com/clearclaim/go-ace/internal/fhir/r4"
	"github.com/clearclaim/go-ace/internal/observability/metrics"
)

// PolicySource loads policies for adjudication.
type PolicySource interface {
	Get(ctx context.Context, policyNumber string) (*policy.Policy, error)
}

// DecisionRecorder persists an issued decision and queues it for
// downstream publication.
type DecisionRecorder interface {
	Record(ctx context.Context, d *adjudication.Decision) error
}

// ClaimsHandler handles claim adjudication endpoints
type ClaimsHandler struct {
	engine   *adjudication.Engine
	policies PolicySource
	recorder DecisionRecorder
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewClaimsHandler creates a new handler. recorder and m may be nil when
// persistence or metrics are not wired (tests, dry runs).
func NewClaimsHandler(engine *adjudication.Engine, policies PolicySource, recorder DecisionRecorder, m *metrics.Metrics, logger *zap.Logger) *ClaimsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClaimsHandler{
		engine:   engine,
		policies: policies,
		recorder: recorder,
		metrics:  m,
		logger:   logger,
	}
}

// Routes returns the handler routes
func (h *ClaimsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/adjudicate", h.Adjudicate)
	r.Post("/adjudicate/fhir", h.AdjudicateFHIR)
	return r
}

// AdjudicateRequest is the request body for adjudicating a claim. The
// policy may be supplied inline; otherwise it is loaded by the claim's
// policy number.
type AdjudicateRequest struct {
	Claim  *claim.Claim   `json:"claim"`
	Policy *policy.Policy `json:"policy,omitempty"`
}

// Adjudicate handles POST /claims/adjudicate
func (h *ClaimsHandler) Adjudicate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tracer := otel.Tracer("claims-handler")
	ctx, span := tracer.Start(ctx, "adjudicate_claim")
	defer span.End()

	var req AdjudicateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Claim == nil {
		h.jsonError(w, "claim is required", http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.String("claim_id", req.Claim.ClaimID))

	pol := req.Policy
	if pol == nil {
		loaded, err := h.policies.Get(ctx, req.Claim.PolicyNumber)
		if err != nil {
			if errors.Is(err, policy.ErrNotFound) {
				h.jsonError(w, "policy not found: "+req.Claim.PolicyNumber, http.StatusNotFound)
				return
			}
			h.logger.Error("policy lookup failed",
				zap.String("policy_number", req.Claim.PolicyNumber),
				zap.Error(err))
			h.jsonError(w, "policy lookup unavailable", http.StatusServiceUnavailable)
			return
		}
		pol = loaded
	}

	d, ok := h.runEngine(ctx, w, req.Claim, pol)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(d)
}

// AdjudicateFHIR handles POST /claims/adjudicate/fhir. It accepts a FHIR
// R4 Claim and answers with a ClaimResponse; errors come back as
// OperationOutcome resources.
func (h *ClaimsHandler) AdjudicateFHIR(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tracer := otel.Tracer("claims-handler")
	ctx, span := tracer.Start(ctx, "adjudicate_claim_fhir")
	defer span.End()

	var fc r4.Claim
	if err := json.NewDecoder(r.Body).Decode(&fc); err != nil {
		h.fhirError(w, "structure", "invalid request body", http.StatusBadRequest)
		return
	}

	cl, err := mapper.ClaimToDomain(&fc)
	if err != nil {
		h.fhirError(w, "invalid", err.Error(), http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.String("claim_id", cl.ClaimID))

	pol, err := h.policies.Get(ctx, cl.PolicyNumber)
	if err != nil {
		if errors.Is(err, policy.ErrNotFound) {
			h.fhirError(w, "not-found", "policy not found: "+cl.PolicyNumber, http.StatusNotFound)
			return
		}
		h.logger.Error("policy lookup failed",
			zap.String("policy_number", cl.PolicyNumber),
			zap.Error(err))
		h.fhirError(w, "transient", "policy lookup unavailable", http.StatusServiceUnavailable)
		return
	}

	d, ok := h.runEngine(ctx, w, cl, pol)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/fhir+json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(mapper.DecisionToClaimResponse(d))
}

// runEngine adjudicates, records, and counts. On failure it writes the
// error response and returns false.
func (h *ClaimsHandler) runEngine(ctx context.Context, w http.ResponseWriter, cl *claim.Claim, pol *policy.Policy) (*adjudication.Decision, bool) {
	start := time.Now()
	if h.metrics != nil {
		h.metrics.ClaimsReceived.Inc()
	}

	d, err := h.engine.Adjudicate(cl, pol)
	if err != nil {
		if h.metrics != nil {
			h.metrics.ClaimsFailed.Inc()
		}
		h.logger.Warn("claim not adjudicable",
			zap.String("claim_id", cl.ClaimID),
			zap.Error(err))
		h.jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return nil, false
	}

	if h.recorder != nil {
		if err := h.recorder.Record(ctx, d); err != nil {
			h.logger.Error("decision record failed",
				zap.String("decision_id", d.DecisionID),
				zap.Error(err))
			h.jsonError(w, "failed to record decision", http.StatusInternalServerError)
			return nil, false
		}
	}

	if h.metrics != nil {
		h.metrics.AdjudicationDuration.Observe(time.Since(start).Seconds())
		h.metrics.DecisionsIssued.WithLabelValues(string(d.Type)).Inc()
		h.metrics.DisallowedDollars.Add(d.Breakdown.Disallowed.Float64())
		h.metrics.InsurerPaidDollars.Add(d.Breakdown.InsurerPayment.Float64())
		if d.RequiresManualReview {
			h.metrics.ManualReviewQueued.Inc()
		}
	}

	h.logger.Info("claim adjudicated",
		zap.String("claim_id", cl.ClaimID),
		zap.String("decision_id", d.DecisionID),
		zap.String("decision_type", string(d.Type)),
		zap.Float64("confidence", d.Confidence),
		zap.String("request_id", middleware.GetRequestID(ctx)),
	)
	return d, true
}

func (h *ClaimsHandler) jsonError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func (h *ClaimsHandler) fhirError(w http.ResponseWriter, code, diagnostics string, status int) {
	w.Header().Set("Content-Type", "application/fhir+json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(r4.NewErrorOutcome(code, diagnostics))
}
