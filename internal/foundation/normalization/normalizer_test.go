package normalization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type freq string

const (
	freqDaily  freq = "daily"
	freqWeekly freq = "weekly"
)

func TestNormalizer(t *testing.T) {
	n := NewNormalizer(map[string]freq{"daily": freqDaily, "weekly": freqWeekly}, freqWeekly)

	tests := []struct {
		name  string
		input string
		want  freq
	}{
		{"exact", "daily", freqDaily},
		{"case folded", "DAILY", freqDaily},
		{"trimmed", "  weekly ", freqWeekly},
		{"unknown uses fallback", "hourly", freqWeekly},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Normalize(tt.input))
		})
	}

	got, err := n.Parse(" Daily")
	require.NoError(t, err)
	assert.Equal(t, freqDaily, got)

	_, err = n.Parse("hourly")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "daily|weekly")

	assert.True(t, n.Valid("WEEKLY"))
	assert.False(t, n.Valid("never"))
	assert.Equal(t, []string{"daily", "weekly"}, n.Keys())
}
