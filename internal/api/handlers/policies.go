package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/clearclaim/go-ace/internal/domain/policy"
)

// PolicyWriter stores policy documents.
type PolicyWriter interface {
	Put(ctx context.Context, p *policy.Policy) error
}

// PoliciesHandler handles policy catalog endpoints
type PoliciesHandler struct {
	source PolicySource
	writer PolicyWriter
	logger *zap.Logger
}

// NewPoliciesHandler creates a new handler
func NewPoliciesHandler(source PolicySource, writer PolicyWriter, logger *zap.Logger) *PoliciesHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PoliciesHandler{source: source, writer: writer, logger: logger}
}

// Routes returns the handler routes
func (h *PoliciesHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Put("/", h.Put)
	r.Get("/{policyNumber}", h.Get)
	return r
}

// Get handles GET /policies/{policyNumber}
func (h *PoliciesHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	policyNumber := chi.URLParam(r, "policyNumber")

	p, err := h.source.Get(ctx, policyNumber)
	if err != nil {
		if errors.Is(err, policy.ErrNotFound) {
			h.jsonError(w, "policy not found", http.StatusNotFound)
			return
		}
		h.logger.Error("policy lookup failed", zap.String("policy_number", policyNumber), zap.Error(err))
		h.jsonError(w, "policy lookup unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(p)
}

// Put handles PUT /policies
func (h *PoliciesHandler) Put(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var p policy.Policy
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.writer.Put(ctx, &p); err != nil {
		if errors.Is(err, policy.ErrMissingPolicyNumber) ||
			errors.Is(err, policy.ErrInvalidCoinsurance) ||
			errors.Is(err, policy.ErrNegativeAmount) {
			h.jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("policy store failed", zap.String("policy_number", p.PolicyNumber), zap.Error(err))
		h.jsonError(w, "failed to store policy", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{"policy_number": p.PolicyNumber, "status": "stored"})
}

func (h *PoliciesHandler) jsonError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
