package adjudication

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/clearclaim/go-ace/pkg/money"
)

// Config holds the adjudication thresholds and confidence constants.
// Everything the classifier tunes on is explicit here; the engine never
// reads environment or global state.
type Config struct {
	// HighValueThreshold routes large claims to manual review.
	HighValueThreshold money.Amount `yaml:"high_value_threshold"`
	// NeedsReviewWarningCount is the warning count above which a claim
	// needs review (strictly greater than).
	NeedsReviewWarningCount int `yaml:"needs_review_warning_count"`
	// UnreasonableAmount flags totals at or above this as suspect.
	UnreasonableAmount money.Amount `yaml:"unreasonable_amount"`
	// LimitProximityPct is how close (percent) projected category usage
	// may get to an annual limit before an informational finding.
	LimitProximityPct float64 `yaml:"limit_proximity_pct"`

	Confidence ConfidenceConfig `yaml:"confidence"`
}

// ConfidenceConfig holds the confidence bands per decision type.
type ConfidenceConfig struct {
	Rejected float64 `yaml:"rejected"`

	ReviewBase           float64 `yaml:"review_base"`
	ReviewWarningPenalty float64 `yaml:"review_warning_penalty"`
	ReviewFloor          float64 `yaml:"review_floor"`
	ReviewPenaltyAfter   int     `yaml:"review_penalty_after"`

	ApprovedBase       float64 `yaml:"approved_base"`
	ApprovedCleanBonus float64 `yaml:"approved_clean_bonus"`
	ApprovedCap        float64 `yaml:"approved_cap"`

	PartialApprovedItem   float64 `yaml:"partial_approved_item"`
	PartialDisallowedItem float64 `yaml:"partial_disallowed_item"`
}

// DefaultConfig returns the standard adjudication thresholds.
func DefaultConfig() Config {
	return Config{
		HighValueThreshold:      money.FromCents(10_000_00),
		NeedsReviewWarningCount: 3,
		UnreasonableAmount:      money.FromCents(1_000_000_00),
		LimitProximityPct:       10,
		Confidence: ConfidenceConfig{
			Rejected:              0.95,
			ReviewBase:            0.80,
			ReviewWarningPenalty:  0.02,
			ReviewFloor:           0.70,
			ReviewPenaltyAfter:    4,
			ApprovedBase:          0.90,
			ApprovedCleanBonus:    0.05,
			ApprovedCap:           0.99,
			PartialApprovedItem:   0.95,
			PartialDisallowedItem: 0.60,
		},
	}
}

// LoadConfig reads a YAML config file, filling unset fields from defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.HighValueThreshold.IsNegative() {
		return fmt.Errorf("high_value_threshold must be non-negative")
	}
	if c.NeedsReviewWarningCount < 0 {
		return fmt.Errorf("needs_review_warning_count must be non-negative")
	}
	if c.LimitProximityPct < 0 || c.LimitProximityPct > 100 {
		return fmt.Errorf("limit_proximity_pct out of range")
	}
	return nil
}
