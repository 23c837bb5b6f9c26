package subscription_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/practicelab/practicelab/subscription"
)

func validCatalogConfig() subscription.CatalogConfig {
	return subscription.CatalogConfig{
		Tier1MonthlyPriceID: "price_t1_m",
		Tier1YearlyPriceID:  "price_t1_y",
		Tier2MonthlyPriceID: "price_t2_m",
		Tier2YearlyPriceID:  "price_t2_y",
		Tier3MonthlyPriceID: "price_t3_m",
		Tier3YearlyPriceID:  "price_t3_y",
	}
}

func TestNewCatalog(t *testing.T) {
	t.Parallel()

	t.Run("valid config", func(t *testing.T) {
		t.Parallel()

		catalog, err := subscription.NewCatalog(validCatalogConfig())
		require.NoError(t, err)
		require.NotNil(t, catalog)
	})

	t.Run("empty price ID fails fast", func(t *testing.T) {
		t.Parallel()

		cfg := validCatalogConfig()
		cfg.Tier2YearlyPriceID = ""

		_, err := subscription.NewCatalog(cfg)
		require.ErrorIs(t, err, subscription.ErrInvalidCatalog)
	})

	t.Run("shared price ID fails fast", func(t *testing.T) {
		t.Parallel()

		cfg := validCatalogConfig()
		cfg.Tier3MonthlyPriceID = cfg.Tier1MonthlyPriceID

		_, err := subscription.NewCatalog(cfg)
		require.ErrorIs(t, err, subscription.ErrInvalidCatalog)
	})
}

func TestCatalogRoundTrip(t *testing.T) {
	t.Parallel()

	catalog, err := subscription.NewCatalog(validCatalogConfig())
	require.NoError(t, err)

	tiers := []subscription.Tier{
		subscription.TierSingleSport,
		subscription.TierDualSport,
		subscription.TierAllSports,
	}
	intervals := []subscription.Interval{
		subscription.IntervalMonthly,
		subscription.IntervalYearly,
	}

	for _, tier := range tiers {
		for _, interval := range intervals {
			priceID, err := catalog.ResolvePriceID(tier, interval)
			require.NoError(t, err)
			require.NotEmpty(t, priceID)

			resolved, err := catalog.ResolveTier(priceID)
			require.NoError(t, err)
			assert.Equal(t, tier, resolved)
		}
	}
}

func TestCatalogLookupFailures(t *testing.T) {
	t.Parallel()

	catalog, err := subscription.NewCatalog(validCatalogConfig())
	require.NoError(t, err)

	t.Run("unknown tier", func(t *testing.T) {
		t.Parallel()

		_, err := catalog.ResolvePriceID("tier9", subscription.IntervalMonthly)
		require.ErrorIs(t, err, subscription.ErrInvalidPlan)
	})

	t.Run("unknown interval", func(t *testing.T) {
		t.Parallel()

		_, err := catalog.ResolvePriceID(subscription.TierSingleSport, "weekly")
		require.ErrorIs(t, err, subscription.ErrInvalidPlan)
	})

	t.Run("unknown price ID", func(t *testing.T) {
		t.Parallel()

		_, err := catalog.ResolveTier("price_unknown")
		require.ErrorIs(t, err, subscription.ErrUnknownPriceID)
	})
}

func TestCatalogTiers(t *testing.T) {
	t.Parallel()

	catalog, err := subscription.NewCatalog(validCatalogConfig())
	require.NoError(t, err)

	tiers := catalog.Tiers()
	require.Len(t, tiers, 3)

	assert.Equal(t, subscription.TierSingleSport, tiers[0].Tier)
	assert.Equal(t, subscription.TierDualSport, tiers[1].Tier)
	assert.Equal(t, subscription.TierAllSports, tiers[2].Tier)

	assert.Equal(t, int64(999), tiers[0].MonthlyPrice.Amount)
	assert.Equal(t, int64(24999), tiers[2].YearlyPrice.Amount)
	assert.Equal(t, 5, tiers[2].SportCount)
}
