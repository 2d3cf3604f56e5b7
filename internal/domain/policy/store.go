package policy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// ErrNotFound is returned when no policy exists for a policy number.
var ErrNotFound = errors.New("policy not found")

// Store is the pgx-backed policy catalog. Policies are stored as JSONB
// documents keyed by policy number; the catalog is read-mostly and safe
// for concurrent use.
type Store struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewStore creates a policy store.
func NewStore(pool *pgxpool.Pool, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{pool: pool, logger: logger}
}

// Get loads a policy by policy number.
func (s *Store) Get(ctx context.Context, policyNumber string) (*Policy, error) {
	var doc []byte
	query := `SELECT document FROM policies WHERE policy_number = $1`
	if err := s.pool.QueryRow(ctx, query, policyNumber).Scan(&doc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, policyNumber)
		}
		return nil, fmt.Errorf("query policy %s: %w", policyNumber, err)
	}

	var p Policy
	if err := json.Unmarshal(doc, &p); err != nil {
		return nil, fmt.Errorf("decode policy %s: %w", policyNumber, err)
	}
	return &p, nil
}

// Put inserts or replaces a policy document.
func (s *Store) Put(ctx context.Context, p *Policy) error {
	if err := p.Validate(); err != nil {
		return err
	}

	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode policy %s: %w", p.PolicyNumber, err)
	}

	query := `
		INSERT INTO policies (policy_number, document, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (policy_number) DO UPDATE
		SET document = EXCLUDED.document, updated_at = now()
	`
	if _, err := s.pool.Exec(ctx, query, p.PolicyNumber, doc); err != nil {
		return fmt.Errorf("upsert policy %s: %w", p.PolicyNumber, err)
	}

	s.logger.Info("policy stored", zap.String("policy_number", p.PolicyNumber))
	return nil
}

// RecordUsage bumps the stored annual usage for a category after a
// decision is finalized. Usage feeds the annual-limit step on later claims.
func (s *Store) RecordUsage(ctx context.Context, policyNumber, category string, amountCents int64) error {
	query := `
		UPDATE policies
		SET document = jsonb_set(
			document,
			ARRAY['category_usage', $2],
			to_jsonb(COALESCE((document->'category_usage'->>$2)::numeric, 0) + $3::numeric / 100),
			true
		), updated_at = now()
		WHERE policy_number = $1
	`
	tag, err := s.pool.Exec(ctx, query, policyNumber, category, amountCents)
	if err != nil {
		return fmt.Errorf("record usage for %s/%s: %w", policyNumber, category, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, policyNumber)
	}
	return nil
}
