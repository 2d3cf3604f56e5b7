package adjudication

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "adjudication.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "10000.00", cfg.HighValueThreshold.String())
	assert.Equal(t, 3, cfg.NeedsReviewWarningCount)
	assert.Equal(t, "1000000.00", cfg.UnreasonableAmount.String())
	assert.InDelta(t, 10, cfg.LimitProximityPct, 1e-9)
	assert.InDelta(t, 0.95, cfg.Confidence.Rejected, 1e-9)
	assert.InDelta(t, 0.80, cfg.Confidence.ReviewBase, 1e-9)
	assert.InDelta(t, 0.70, cfg.Confidence.ReviewFloor, 1e-9)
	assert.NoError(t, cfg.validate())
}

// Partial files override only the keys they name; everything else keeps
// its default.
func TestLoadConfigPartialOverride(t *testing.T) {
	path := writeConfig(t, `
high_value_threshold: "25000.00"
confidence:
  review_base: 0.85
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "25000.00", cfg.HighValueThreshold.String())
	assert.InDelta(t, 0.85, cfg.Confidence.ReviewBase, 1e-9)
	// Untouched keys stay at their defaults.
	assert.Equal(t, 3, cfg.NeedsReviewWarningCount)
	assert.InDelta(t, 0.95, cfg.Confidence.Rejected, 1e-9)
}

func TestLoadConfigBareNumberAmount(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "high_value_threshold: 5000\n"))
	require.NoError(t, err)
	assert.Equal(t, "5000.00", cfg.HighValueThreshold.String())
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"negative threshold": `high_value_threshold: "-1.00"`,
		"negative count":     "needs_review_warning_count: -2",
		"proximity range":    "limit_proximity_pct: 180",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}
