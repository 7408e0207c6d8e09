package finding

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverityOrdering(t *testing.T) {
	ordered := []Severity{SeverityInfo, SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
	for i := 1; i < len(ordered); i++ {
		assert.Greater(t, ordered[i].Rank(), ordered[i-1].Rank(), "%s should outrank %s", ordered[i], ordered[i-1])
	}

	assert.True(t, SeverityCritical.AtLeast(SeverityHigh))
	assert.True(t, SeverityMedium.AtLeast(SeverityMedium))
	assert.False(t, SeverityLow.AtLeast(SeverityMedium))
}

func TestParseSeverity(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected Severity
		wantErr  bool
	}{
		{name: "plain", input: "high", expected: SeverityHigh},
		{name: "mixed case", input: "Critical", expected: SeverityCritical},
		{name: "surrounding whitespace", input: " info ", expected: SeverityInfo},
		{name: "unknown", input: "severe", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseSeverity(tc.input)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestConfidenceOrdering(t *testing.T) {
	assert.Greater(t, ConfidenceConfirmed.Rank(), ConfidenceLikely.Rank())
	assert.Greater(t, ConfidenceLikely.Rank(), ConfidencePossible.Rank())
}

func TestStatusTerminal(t *testing.T) {
	assert.True(t, StatusClosed.Terminal())
	assert.True(t, StatusFalsePositive.Terminal())
	assert.False(t, StatusOpen.Terminal())
	assert.False(t, StatusAcknowledged.Terminal())
	assert.False(t, StatusMitigated.Terminal())
}

func TestParseTrigger(t *testing.T) {
	got, err := ParseTrigger("dependency_update")
	require.NoError(t, err)
	assert.Equal(t, TriggerDependencyUpdate, got)

	_, err = ParseTrigger("cron")
	assert.Error(t, err)
}

func TestDedupKeyIgnoresVolatileFields(t *testing.T) {
	a := Finding{
		ID:            "id-1",
		HeuristicID:   "DI-03",
		EntityName:    "Invoice",
		ConstructType: "entity",
		Severity:      SeverityCritical,
		FirstDetected: time.Now(),
	}
	b := Finding{
		ID:            "id-2",
		HeuristicID:   "DI-03",
		EntityName:    "Invoice",
		ConstructType: "entity",
		Severity:      SeverityHigh,
		Status:        StatusAcknowledged,
		FirstDetected: time.Now().Add(time.Hour),
	}

	assert.Equal(t, a.DedupKey(), b.DedupKey())

	b.SurfaceName = "InvoiceList"
	assert.NotEqual(t, a.DedupKey(), b.DedupKey())
}

func TestScanConfigValidate(t *testing.T) {
	known := []string{"auth", "tenancy"}

	t.Run("defaults applied", func(t *testing.T) {
		cfg := ScanConfig{}
		require.NoError(t, cfg.Validate(known))
		assert.Equal(t, SeverityInfo, cfg.SeverityThreshold)
		assert.Equal(t, TriggerManual, cfg.Trigger)
	})

	t.Run("unknown agent rejected", func(t *testing.T) {
		cfg := ScanConfig{Agents: []string{"auth", "billing"}}
		err := cfg.Validate(known)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "billing")
	})

	t.Run("unknown severity rejected", func(t *testing.T) {
		cfg := ScanConfig{SeverityThreshold: "urgent"}
		assert.Error(t, cfg.Validate(known))
	})

	t.Run("unknown trigger rejected", func(t *testing.T) {
		cfg := ScanConfig{Trigger: "webhook"}
		assert.Error(t, cfg.Validate(known))
	})

	t.Run("negative timeout rejected", func(t *testing.T) {
		cfg := ScanConfig{Timeout: -time.Second}
		assert.Error(t, cfg.Validate(known))
	})
}
