package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "0", FormatNumber(0))
	assert.Equal(t, "999", FormatNumber(999))
	assert.Equal(t, "1,000", FormatNumber(1000))
	assert.Equal(t, "1,234,567", FormatNumber(1234567))
	assert.Equal(t, "-25,000", FormatNumber(-25000))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "now", FormatDuration(0))
	assert.Equal(t, "45s", FormatDuration(45*time.Second))
	assert.Equal(t, "5m 30s", FormatDuration(5*time.Minute+30*time.Second))
	assert.Equal(t, "3h 15m", FormatDuration(3*time.Hour+15*time.Minute))
	assert.Equal(t, "2d 6h", FormatDuration(54*time.Hour))
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "62%", FormatPercent(0.62))
	assert.Equal(t, "5%", FormatPercent(0.05))
}
