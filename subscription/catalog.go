package subscription

import (
	"errors"
	"fmt"
	"slices"
)

// CatalogConfig carries the provider price identifiers for every
// (tier, interval) pair. Loaded once at startup from the environment.
type CatalogConfig struct {
	Tier1MonthlyPriceID string `env:"PRICE_TIER1_MONTHLY,required"`
	Tier1YearlyPriceID  string `env:"PRICE_TIER1_YEARLY,required"`
	Tier2MonthlyPriceID string `env:"PRICE_TIER2_MONTHLY,required"`
	Tier2YearlyPriceID  string `env:"PRICE_TIER2_YEARLY,required"`
	Tier3MonthlyPriceID string `env:"PRICE_TIER3_MONTHLY,required"`
	Tier3YearlyPriceID  string `env:"PRICE_TIER3_YEARLY,required"`
}

type planKey struct {
	tier     Tier
	interval Interval
}

// Catalog is the immutable tier/price mapping. The reverse lookup is total
// and unambiguous: construction fails fast if a price ID is empty or shared
// between two (tier, interval) pairs.
type Catalog struct {
	byPlan  map[planKey]string
	byPrice map[string]Tier
	tiers   []TierInfo
}

// NewCatalog builds the catalog from configured price IDs and static tier
// metadata. No mutation after construction.
func NewCatalog(cfg CatalogConfig) (*Catalog, error) {
	prices := map[planKey]string{
		{TierSingleSport, IntervalMonthly}: cfg.Tier1MonthlyPriceID,
		{TierSingleSport, IntervalYearly}:  cfg.Tier1YearlyPriceID,
		{TierDualSport, IntervalMonthly}:   cfg.Tier2MonthlyPriceID,
		{TierDualSport, IntervalYearly}:    cfg.Tier2YearlyPriceID,
		{TierAllSports, IntervalMonthly}:   cfg.Tier3MonthlyPriceID,
		{TierAllSports, IntervalYearly}:    cfg.Tier3YearlyPriceID,
	}

	c := &Catalog{
		byPlan:  make(map[planKey]string, len(prices)),
		byPrice: make(map[string]Tier, len(prices)),
		tiers:   tierMetadata(),
	}

	for key, priceID := range prices {
		if priceID == "" {
			return nil, errors.Join(ErrInvalidCatalog,
				fmt.Errorf("missing price ID for %s/%s", key.tier, key.interval))
		}
		if other, exists := c.byPrice[priceID]; exists {
			return nil, errors.Join(ErrInvalidCatalog,
				fmt.Errorf("price ID %s is shared by tiers %s and %s", priceID, other, key.tier))
		}
		c.byPlan[key] = priceID
		c.byPrice[priceID] = key.tier
	}

	return c, nil
}

// ResolvePriceID returns the provider price identifier for a plan.
func (c *Catalog) ResolvePriceID(tier Tier, interval Interval) (string, error) {
	priceID, ok := c.byPlan[planKey{tier, interval}]
	if !ok {
		return "", fmt.Errorf("%w: %s/%s", ErrInvalidPlan, tier, interval)
	}
	return priceID, nil
}

// ResolveTier is the reverse lookup used by the webhook reconciler.
func (c *Catalog) ResolveTier(priceID string) (Tier, error) {
	tier, ok := c.byPrice[priceID]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownPriceID, priceID)
	}
	return tier, nil
}

// Tiers returns tier metadata ordered from cheapest to most expensive.
func (c *Catalog) Tiers() []TierInfo {
	return slices.Clone(c.tiers)
}

func tierMetadata() []TierInfo {
	return []TierInfo{
		{
			Tier:         TierSingleSport,
			Name:         "Single Sport",
			MonthlyPrice: Money{Amount: 999, Currency: "USD"},
			YearlyPrice:  Money{Amount: 9999, Currency: "USD"},
			SportCount:   1,
			Features: []string{
				"Full drill library for one sport",
				"All age groups and skill levels",
				"Printable practice plans",
			},
		},
		{
			Tier:         TierDualSport,
			Name:         "Dual Sport",
			MonthlyPrice: Money{Amount: 1499, Currency: "USD"},
			YearlyPrice:  Money{Amount: 14999, Currency: "USD"},
			SportCount:   2,
			Features: []string{
				"Full drill library for two sports",
				"All age groups and skill levels",
				"Printable practice plans",
			},
		},
		{
			Tier:         TierAllSports,
			Name:         "All Sports",
			MonthlyPrice: Money{Amount: 2499, Currency: "USD"},
			YearlyPrice:  Money{Amount: 24999, Currency: "USD"},
			SportCount:   5,
			Features: []string{
				"Every drill across all five sports",
				"All age groups and skill levels",
				"Printable practice plans",
				"New drills every month",
			},
		},
	}
}
