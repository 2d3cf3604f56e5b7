package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/clearclaim/go-ace/internal/adjudication"
)

// ErrDecisionNotFound is returned when no decision exists for a claim.
var ErrDecisionNotFound = errors.New("decision not found")

// DecisionStore persists issued decisions as JSONB documents keyed by
// decision ID. Decisions are immutable once written.
type DecisionStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewDecisionStore creates a decision store.
func NewDecisionStore(pool *pgxpool.Pool, logger *zap.Logger) *DecisionStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DecisionStore{pool: pool, logger: logger}
}

// Save writes a decision inside the given transaction so the decision and
// its outbox entry commit atomically. Re-saving the same decision ID is a
// no-op, which keeps redelivered claims idempotent.
func (s *DecisionStore) Save(ctx context.Context, tx pgx.Tx, d *adjudication.Decision) error {
	doc, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode decision %s: %w", d.DecisionID, err)
	}

	query := `
		INSERT INTO decisions (decision_id, claim_id, decision_type, document, decided_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (decision_id) DO NOTHING
	`
	if _, err := tx.Exec(ctx, query, d.DecisionID, d.ClaimID, string(d.Type), doc, d.DecidedAt); err != nil {
		return fmt.Errorf("insert decision %s: %w", d.DecisionID, err)
	}

	s.logger.Info("decision stored",
		zap.String("decision_id", d.DecisionID),
		zap.String("claim_id", d.ClaimID),
		zap.String("decision_type", string(d.Type)))
	return nil
}

// GetByClaim returns the most recent decision for a claim.
func (s *DecisionStore) GetByClaim(ctx context.Context, claimID string) (*adjudication.Decision, error) {
	var doc []byte
	query := `
		SELECT document FROM decisions
		WHERE claim_id = $1
		ORDER BY decided_at DESC
		LIMIT 1
	`
	if err := s.pool.QueryRow(ctx, query, claimID).Scan(&doc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: claim %s", ErrDecisionNotFound, claimID)
		}
		return nil, fmt.Errorf("query decision for claim %s: %w", claimID, err)
	}

	var d adjudication.Decision
	if err := json.Unmarshal(doc, &d); err != nil {
		return nil, fmt.Errorf("decode decision for claim %s: %w", claimID, err)
	}
	return &d, nil
}

// Pool exposes the underlying pool for transaction management.
func (s *DecisionStore) Pool() *pgxpool.Pool { return s.pool }
