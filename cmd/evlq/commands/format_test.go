package commands

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/evlq/internal/contracts"
)

func TestFormatSLA(t *testing.T) {
	assert.Equal(t, "6h", formatSLA(contracts.FreshnessSLA{MaxLagHours: 6}))
	assert.Equal(t, "1.5d", formatSLA(contracts.FreshnessSLA{MaxLagDays: 1.5}))
	assert.Equal(t, "-", formatSLA(contracts.FreshnessSLA{}))
}

func TestFormatTime(t *testing.T) {
	assert.Equal(t, "-", FormatTime(time.Time{}))
	assert.Equal(t, "-", FormatTimePtr(nil))

	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.Local)
	assert.Equal(t, "2024-03-01 12:00:00", FormatTimePtr(&ts))
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "init-db", "validate", "contracts", "recent", "health", "freshness", "alerts", "track"} {
		assert.True(t, names[want], want)
	}
}
