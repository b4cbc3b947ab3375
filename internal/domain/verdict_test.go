package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTruncate tests the detail length bound and its ellipsis marker.
func TestTruncate(t *testing.T) {
	short := "phone visible"
	assert.Equal(t, short, Truncate(short))

	long := strings.Repeat("x", MaxDetailLen+50)
	truncated := Truncate(long)
	assert.Len(t, truncated, MaxDetailLen)
	assert.True(t, strings.HasSuffix(truncated, "..."))

	exact := strings.Repeat("y", MaxDetailLen)
	assert.Equal(t, exact, Truncate(exact), "text at the bound passes through unchanged")
}

// TestSeconds tests two-decimal rounding of elapsed durations.
func TestSeconds(t *testing.T) {
	assert.Equal(t, 1.23, *Seconds(1.2345))
	assert.Equal(t, 1.24, *Seconds(1.235))
	assert.Equal(t, 0.0, *Seconds(0))
}

// TestBusyVerdictJSON tests that the BUSY placeholder serializes
// without elapsed or raw fields but always carries stale.
func TestBusyVerdictJSON(t *testing.T) {
	data, err := json.Marshal(BusyVerdict())
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))

	assert.Equal(t, "BUSY", fields["label"])
	assert.NotContains(t, fields, "elapsed")
	assert.NotContains(t, fields, "raw")
	assert.Equal(t, true, fields["stale"])
}

// TestErrorVerdictJSON tests that backend failures serialize with an
// explicit zero elapsed and a bounded detail.
func TestErrorVerdictJSON(t *testing.T) {
	v := ErrorVerdict(strings.Repeat("e", 500))

	data, err := json.Marshal(v)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))

	assert.Equal(t, "ERROR", fields["label"])
	assert.Equal(t, 0.0, fields["elapsed"], "errors report elapsed as zero, not absent")
	assert.Len(t, fields["detail"], MaxDetailLen)
	assert.Equal(t, false, fields["stale"])
}

// TestVerdictStaleAlwaysSerialized tests that stale appears in the JSON
// even when false.
func TestVerdictStaleAlwaysSerialized(t *testing.T) {
	data, err := json.Marshal(Verdict{Label: LabelFocused, Reason: ReasonFocused})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"stale":false`)
}
