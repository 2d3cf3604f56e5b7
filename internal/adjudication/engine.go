package adjudication

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clearclaim/go-ace/internal/domain/claim"
	"github.com/clearclaim/go-ace/internal/domain/policy"
)

// ErrPolicyMismatch is returned when the claim references a different
// policy than the one supplied. This is a caller-contract violation, not a
// business finding.
var ErrPolicyMismatch = errors.New("claim policy number does not match policy")

// decisionNamespace seeds deterministic decision IDs so that identical
// inputs always produce the same Decision.
var decisionNamespace = uuid.MustParse("8f2b1c54-6a7d-4e1f-9c3a-2d5e8b0f4a61")

// Engine is the adjudication facade: the single entry point external
// callers consume. One Engine is safe for concurrent use; each Adjudicate
// call is independent and purely computational.
type Engine struct {
	cfg        Config
	matcher    *Matcher
	calculator *Calculator
	validator  *Validator
	classifier *Classifier
	now        func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithCategorizer replaces the default CPT-range category mapping.
func WithCategorizer(c Categorizer) Option {
	return func(e *Engine) { e.matcher = NewMatcher(c) }
}

// WithClock replaces the decision timestamp source, for reproducible runs.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine builds an engine with the given thresholds.
func NewEngine(cfg Config, opts ...Option) *Engine {
	e := &Engine{
		cfg:        cfg,
		matcher:    NewMatcher(nil),
		calculator: NewCalculator(),
		validator:  NewValidator(cfg),
		classifier: NewClassifier(cfg),
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Adjudicate runs the full pipeline: coverage matching, financial
// calculation, rule validation, and decision classification. It returns an
// error only for caller-contract violations; a claim that is merely
// rejectable still yields a Decision.
//
// Apart from the decision timestamp, the output is a deterministic
// function of the inputs.
func (e *Engine) Adjudicate(cl *claim.Claim, pol *policy.Policy) (*Decision, error) {
	if err := cl.Validate(); err != nil {
		return nil, fmt.Errorf("invalid claim: %w", err)
	}
	if err := pol.Validate(); err != nil {
		return nil, fmt.Errorf("invalid policy: %w", err)
	}
	if cl.PolicyNumber != pol.PolicyNumber {
		return nil, fmt.Errorf("%w: claim references %s, got %s",
			ErrPolicyMismatch, cl.PolicyNumber, pol.PolicyNumber)
	}

	matches := make([]Match, len(cl.Items))
	for i, item := range cl.Items {
		matches[i] = e.matcher.Match(item, pol)
	}

	breakdown := e.calculator.Compute(cl, pol, matches)
	findings := e.validator.Validate(cl, pol, matches, breakdown)
	cls := e.classifier.Classify(findings, breakdown)

	return &Decision{
		DecisionID:   uuid.NewSHA1(decisionNamespace, []byte(cl.ClaimID+"|"+pol.PolicyNumber)).String(),
		ClaimID:      cl.ClaimID,
		PolicyNumber: pol.PolicyNumber,
		DecidedAt:    e.now(),

		Type:       cls.Type,
		Confidence: cls.Confidence,

		Findings:  findings,
		Breakdown: breakdown,

		Reasoning:          buildReasoning(cls.Type, findings),
		Flags:              cls.Flags,
		MissingInformation: buildMissingInformation(findings),
		Recommendations:    buildRecommendations(cls.Type, findings),
		NextSteps:          buildNextSteps(cls.Type),

		RequiresManualReview: cls.RequiresManualReview,
		ReviewReason:         cls.ReviewReason,
	}, nil
}
