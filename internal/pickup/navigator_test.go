package pickup

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNavigatorDismissOverlays(t *testing.T) {
	t.Parallel()

	page := newFakePage()
	page.add(OverlaySelectors[0], "accept")
	page.add(OverlaySelectors[5], "close").clickErr = errFake
	page.add(OverlaySelectors[7], "promo")
	clock := newFakeClock()

	nav := NewNavigator(page, clock, DefaultTiming(), zap.NewNop())
	got := nav.DismissOverlays(context.Background())

	require.Equal(t, 2, got)
	assert.Equal(t, "accept,promo", joinClicks(page))
}

func TestNavigatorOpenAvailability(t *testing.T) {
	t.Parallel()

	t.Run("clicks first visible trigger after scrolling", func(t *testing.T) {
		t.Parallel()
		page := newFakePage()
		page.add(TriggerSelectors[0], "hidden")
		page.add(TriggerSelectors[2], "cta")
		page.visible[TriggerSelectors[2].Query] = true
		clock := newFakeClock()

		err := NewNavigator(page, clock, DefaultTiming(), nil).OpenAvailability(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "cta", joinClicks(page))
		assert.Equal(t, []float64{1000, 1000, 1000, 1000, 1000, 1000}, page.wheels)
		assert.Empty(t, page.evalScripts)
		assert.Contains(t, clock.slept, 150*time.Millisecond)
	})

	t.Run("moves on when a visible trigger cannot be clicked", func(t *testing.T) {
		t.Parallel()
		page := newFakePage()
		page.add(TriggerSelectors[0], "broken").clickErr = errFake
		page.visible[TriggerSelectors[0].Query] = true
		page.add(TriggerSelectors[3], "button")
		page.visible[TriggerSelectors[3].Query] = true

		err := NewNavigator(page, newFakeClock(), DefaultTiming(), nil).OpenAvailability(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "button", joinClicks(page))
	})

	t.Run("falls back to in-page script", func(t *testing.T) {
		t.Parallel()
		page := newFakePage()
		page.evalClicked = true

		err := NewNavigator(page, newFakeClock(), DefaultTiming(), nil).OpenAvailability(context.Background())
		require.NoError(t, err)
		require.Len(t, page.evalScripts, 1)
		for _, sel := range TriggerSelectors[:fallbackTriggerCount] {
			assert.Contains(t, page.evalScripts[0], sel.Query)
		}
		assert.NotContains(t, page.evalScripts[0], "Check availability")
	})

	t.Run("fails when script finds nothing", func(t *testing.T) {
		t.Parallel()
		page := newFakePage()
		err := NewNavigator(page, newFakeClock(), DefaultTiming(), nil).OpenAvailability(context.Background())
		require.ErrorIs(t, err, ErrModalNotOpened)
	})

	t.Run("fails when script errors", func(t *testing.T) {
		t.Parallel()
		page := newFakePage()
		page.evalErr = errFake
		err := NewNavigator(page, newFakeClock(), DefaultTiming(), nil).OpenAvailability(context.Background())
		require.ErrorIs(t, err, ErrModalNotOpened)
	})

	t.Run("stops on canceled context", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		page := newFakePage()
		page.evalClicked = true
		err := NewNavigator(page, newFakeClock(), DefaultTiming(), nil).OpenAvailability(ctx)
		require.ErrorIs(t, err, ErrModalNotOpened)
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestNavigatorClick(t *testing.T) {
	t.Parallel()

	sel := OverlaySelectors[0]

	t.Run("reports a missing element as no match", func(t *testing.T) {
		t.Parallel()
		err := NewNavigator(newFakePage(), newFakeClock(), DefaultTiming(), nil).click(context.Background(), sel, time.Second)
		require.ErrorIs(t, err, ErrNoMatch)
	})

	t.Run("wraps click failures", func(t *testing.T) {
		t.Parallel()
		page := newFakePage()
		page.add(sel, "consent").clickErr = errFake
		err := NewNavigator(page, newFakeClock(), DefaultTiming(), nil).click(context.Background(), sel, time.Second)
		require.ErrorIs(t, err, errFake)
		assert.NotErrorIs(t, err, ErrNoMatch)
	})

	t.Run("pauses before clicking", func(t *testing.T) {
		t.Parallel()
		page := newFakePage()
		page.add(sel, "consent")
		clock := newFakeClock()
		err := NewNavigator(page, clock, DefaultTiming(), nil).click(context.Background(), sel, time.Second)
		require.NoError(t, err)
		assert.Equal(t, "consent", joinClicks(page))
		assert.Equal(t, []time.Duration{DefaultTiming().ClickPause}, clock.slept)
	})
}

func TestXPathLiteral(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Accept": "'Accept'",
		"Don't":  `"Don't"`,
		`a'b"c`:  `concat('a', "'", 'b"c')`,
	}
	for in, want := range cases {
		assert.Equal(t, want, xpathLiteral(in), in)
	}
}
