package capture

import (
	"bytes"
	"testing"

	"github.com/ericcolton/asset-doctor/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func Test_CaptureDesiredTotalValue(t *testing.T) {
	liveValue := decimal.NewFromInt(4000)

	t.Run("blank answer defaults to live value", func(t *testing.T) {
		p := NewPrompter(reader("\n"), &bytes.Buffer{})
		value, err := p.CaptureDesiredTotalValue(liveValue)
		require.NoError(t, err)
		require.True(t, value.Equal(liveValue))
	})

	t.Run("absolute value", func(t *testing.T) {
		p := NewPrompter(reader("$2,500\n"), &bytes.Buffer{})
		value, err := p.CaptureDesiredTotalValue(liveValue)
		require.NoError(t, err)
		require.True(t, value.Equal(decimal.NewFromInt(2500)), "got %s", value)
	})

	t.Run("positive offset", func(t *testing.T) {
		p := NewPrompter(reader("+$1,000\n"), &bytes.Buffer{})
		value, err := p.CaptureDesiredTotalValue(liveValue)
		require.NoError(t, err)
		require.True(t, value.Equal(decimal.NewFromInt(5000)), "got %s", value)
	})

	t.Run("negative offset", func(t *testing.T) {
		p := NewPrompter(reader("-500\n"), &bytes.Buffer{})
		value, err := p.CaptureDesiredTotalValue(liveValue)
		require.NoError(t, err)
		require.True(t, value.Equal(decimal.NewFromInt(3500)), "got %s", value)
	})

	t.Run("unparseable answer rejected", func(t *testing.T) {
		p := NewPrompter(reader("lots\n"), &bytes.Buffer{})
		_, err := p.CaptureDesiredTotalValue(liveValue)
		require.Error(t, err)
	})
}

func Test_CaptureRoundingBehavior(t *testing.T) {
	cases := map[string]service.RoundingBehavior{
		"\n":  service.RoundingBehaviorNearest,
		"+\n": service.RoundingBehaviorUp,
		"-\n": service.RoundingBehaviorDown,
	}
	for input, expected := range cases {
		p := NewPrompter(reader(input), &bytes.Buffer{})
		behavior, err := p.CaptureRoundingBehavior()
		require.NoError(t, err)
		require.Equal(t, expected, behavior)
	}

	p := NewPrompter(reader("sideways\n"), &bytes.Buffer{})
	_, err := p.CaptureRoundingBehavior()
	require.Error(t, err)
}

func Test_CaptureRebalanceOptions(t *testing.T) {
	liveValue := decimal.NewFromInt(4000)

	t.Run("fractional shares skip the rounding question", func(t *testing.T) {
		// desired value, fractional?, exchanges?
		p := NewPrompter(reader("\nyes\nno\n"), &bytes.Buffer{})
		options, err := p.CaptureRebalanceOptions(liveValue)
		require.NoError(t, err)
		require.True(t, options.AllowFractionalShares)
		require.False(t, options.AllowShareExchanges)
		require.Equal(t, service.RoundingBehaviorNearest, options.RoundingBehavior)
		require.True(t, options.TargetTotalValue.Equal(liveValue))
	})

	t.Run("whole shares ask for rounding", func(t *testing.T) {
		p := NewPrompter(reader("$3,900\nno\nyes\n+\n"), &bytes.Buffer{})
		options, err := p.CaptureRebalanceOptions(liveValue)
		require.NoError(t, err)
		require.False(t, options.AllowFractionalShares)
		require.True(t, options.AllowShareExchanges)
		require.Equal(t, service.RoundingBehaviorUp, options.RoundingBehavior)
		require.True(t, options.TargetTotalValue.Equal(decimal.NewFromInt(3900)))
	})
}
