package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// One monitor for the whole package, the counters register globally.
var testMonitor = NewMonitor("hoodbot_test")

func TestStartServerRejectsBadAddress(t *testing.T) {
	err := testMonitor.StartServer("127.0.0.1:999999")
	assert.Error(t, err)
}

func TestStartServerBindsBeforeReturning(t *testing.T) {
	require.NoError(t, testMonitor.StartServer("127.0.0.1:0"))
}
