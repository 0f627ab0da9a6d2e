package cachelon_test

import (
	"testing"
	"time"

	"github.com/cachelon-go/cachelon"
	"github.com/cachelon-go/cachelon/cachelontest"
	"github.com/cachelon-go/cachelon/clock"
	"github.com/stretchr/testify/require"
)

func TestBuilder_TierRequired(t *testing.T) {
	t.Parallel()
	_, err := cachelon.NewBuilder[string, string](clock.New()).Build()
	require.Error(t, err)
	var cerr *cachelon.ConstructionError
	require.ErrorAs(t, err, &cerr)
}

func TestBuilder_RefreshThresholdRequiresTTL(t *testing.T) {
	t.Parallel()
	_, err := cachelon.NewBuilder[string, string](clock.New()).
		Tier(cachelontest.New[string, string]()).
		RefreshThreshold(time.Second).
		Build()
	require.Error(t, err)
}

func TestBuilder_RefreshThresholdMustBeLessThanTTL(t *testing.T) {
	t.Parallel()
	_, err := cachelon.NewBuilder[string, string](clock.New()).
		Tier(cachelontest.New[string, string]()).
		TTL(time.Minute).
		RefreshThreshold(time.Minute).
		Build()
	require.Error(t, err)

	_, err = cachelon.NewBuilder[string, string](clock.New()).
		Tier(cachelontest.New[string, string]()).
		TTL(time.Minute).
		RefreshThreshold(2 * time.Minute).
		Build()
	require.Error(t, err)
}

func TestBuilder_PromotionWithoutFallbackIsAnError(t *testing.T) {
	t.Parallel()
	_, err := cachelon.NewBuilder[string, string](clock.New()).
		Tier(cachelontest.New[string, string]()).
		Promotion(cachelon.PromotionAlways[string]()).
		Build()
	require.Error(t, err)
}

func TestBuilder_FallbackCannotBeReused(t *testing.T) {
	t.Parallel()
	clk := clock.New()
	inner, err := cachelon.NewBuilder[string, string](clk).Tier(cachelontest.New[string, string]()).Build()
	require.NoError(t, err)

	_, err = cachelon.NewBuilder[string, string](clk).Tier(cachelontest.New[string, string]()).Fallback(inner).Build()
	require.NoError(t, err)

	_, err = cachelon.NewBuilder[string, string](clk).Tier(cachelontest.New[string, string]()).Fallback(inner).Build()
	require.Error(t, err, "a cache already attached as a fallback cannot be reused as another cache's fallback")
}

func TestBuilder_ValidConfigurationSucceeds(t *testing.T) {
	t.Parallel()
	clk := clock.New()
	inner, err := cachelon.NewBuilder[string, string](clk).Tier(cachelontest.New[string, string]()).Build()
	require.NoError(t, err)

	outer, err := cachelon.NewBuilder[string, string](clk).
		Tier(cachelontest.New[string, string]()).
		Name("outer").
		TTL(time.Minute).
		RefreshThreshold(30 * time.Second).
		Fallback(inner).
		Promotion(cachelon.PromotionIfFresherThanOuter[string]()).
		Build()
	require.NoError(t, err)
	require.Equal(t, "outer", outer.Name())
}
