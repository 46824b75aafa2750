package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerceInt(t *testing.T) {
	t.Run("should default empty to zero", func(t *testing.T) {
		v, ok := coerceInt("")
		assert.True(t, ok)
		assert.Equal(t, 0, v)
	})

	t.Run("should accept plain integers", func(t *testing.T) {
		v, ok := coerceInt("42")
		assert.True(t, ok)
		assert.Equal(t, 42, v)
	})

	t.Run("should clamp negatives to zero", func(t *testing.T) {
		v, ok := coerceInt("-7")
		assert.True(t, ok)
		assert.Equal(t, 0, v)
	})

	t.Run("should map NaN to zero without failing", func(t *testing.T) {
		v, ok := coerceInt("NaN")
		assert.True(t, ok)
		assert.Equal(t, 0, v)
	})

	t.Run("should fail on garbage", func(t *testing.T) {
		_, ok := coerceInt("twelve")
		assert.False(t, ok)
	})
}

func TestCoerceFloat(t *testing.T) {
	t.Run("should parse decimals and scientific notation", func(t *testing.T) {
		v, ok := coerceFloat("1.5e-3")
		assert.True(t, ok)
		assert.Equal(t, 0.0015, v)
	})

	t.Run("should map NaN and Inf to zero", func(t *testing.T) {
		for _, raw := range []string{"NaN", "Inf", "-Inf"} {
			v, ok := coerceFloat(raw)
			assert.True(t, ok, raw)
			assert.Equal(t, 0.0, v, raw)
		}
	})

	t.Run("should fail on garbage", func(t *testing.T) {
		_, ok := coerceFloat("cheap")
		assert.False(t, ok)
	})
}

func TestCoerceBool(t *testing.T) {
	t.Run("should recognize truthy tokens case-insensitively", func(t *testing.T) {
		for _, raw := range []string{"true", "TRUE", "1", "yes", "Yes"} {
			assert.True(t, coerceBool(raw), raw)
		}
	})

	t.Run("should default everything else to false", func(t *testing.T) {
		for _, raw := range []string{"", "false", "0", "no", "garbage"} {
			assert.False(t, coerceBool(raw), raw)
		}
	})
}

func TestCoerceEnums(t *testing.T) {
	t.Run("should coerce unknown source to fallback", func(t *testing.T) {
		assert.Equal(t, SourceDynamic, coerceSource("dynamic"))
		assert.Equal(t, SourceFallback, coerceSource("fallback"))
		assert.Equal(t, SourceFallback, coerceSource("???"))
	})

	t.Run("should coerce unknown web status to off", func(t *testing.T) {
		assert.Equal(t, WebStatusOK, coerceWebStatus("ok"))
		assert.Equal(t, WebStatusBlocked, coerceWebStatus("blocked"))
		assert.Equal(t, WebStatusOff, coerceWebStatus(""))
		assert.Equal(t, WebStatusOff, coerceWebStatus("???"))
	})
}

func TestParseRow(t *testing.T) {
	t.Run("should reject wrong field count", func(t *testing.T) {
		_, err := parseRow([]string{"a", "b"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "fields")
	})

	t.Run("should reject unparseable timestamp", func(t *testing.T) {
		fields := sampleRecord().row()
		fields[0] = "yesterday"
		_, err := parseRow(fields)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "timestamp")
	})

	t.Run("should default empty numeric fields", func(t *testing.T) {
		fields := sampleRecord().row()
		fields[3] = ""
		fields[7] = ""
		rec, err := parseRow(fields)
		require.NoError(t, err)
		assert.Equal(t, 0, rec.PromptTokens)
		assert.Equal(t, 0.0, rec.CostUSD)
	})

	t.Run("should parse a full row", func(t *testing.T) {
		want := sampleRecord()
		rec, err := parseRow(want.row())
		require.NoError(t, err)
		assert.True(t, want.Timestamp.Equal(rec.Timestamp))
		assert.Equal(t, want.AgentName, rec.AgentName)
		assert.Equal(t, want.TotalTokens, rec.TotalTokens)
		assert.Equal(t, want.WebStatus, rec.WebStatus)
	})

	t.Run("should accept second-precision timestamps", func(t *testing.T) {
		fields := sampleRecord().row()
		fields[0] = time.Date(2026, 8, 14, 10, 30, 0, 0, time.UTC).Format(time.RFC3339)
		_, err := parseRow(fields)
		assert.NoError(t, err)
	})
}
