package subscription

import "time"

// Tier identifies a subscription level. The identifiers are stable wire
// values used in checkout requests and persisted entitlement records.
type Tier string

const (
	TierSingleSport Tier = "tier1"
	TierDualSport   Tier = "tier2"
	TierAllSports   Tier = "tier3"
)

// Interval represents the billing frequency for a paid tier.
type Interval string

const (
	IntervalMonthly Interval = "monthly"
	IntervalYearly  Interval = "yearly"
)

// Status represents the current state of a user's subscription.
// Unknown provider statuses pass through unmodified.
type Status string

const (
	StatusActive   Status = "active"
	StatusPastDue  Status = "past_due"
	StatusCanceled Status = "canceled"
)

// Entitlement is the derived access right stored per user. It is mutated
// only by absolute writes from the webhook reconciler: tier, status, and
// period end always change together.
type Entitlement struct {
	Tier      Tier       // empty when no subscription on record
	Status    Status     // empty when no lifecycle event seen yet
	PeriodEnd *time.Time // when access should be reconsidered absent renewal
}

// IsActive reports whether the entitlement unlocks gated content.
func (e Entitlement) IsActive() bool {
	return e.Status == StatusActive && e.Tier != ""
}

// Money represents a monetary amount in the smallest currency unit.
// For example, $9.99 USD would be Amount: 999, Currency: "USD".
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// TierInfo is the static metadata for one tier, exposed by the pricing
// endpoint and immutable after catalog construction.
type TierInfo struct {
	Tier         Tier     `json:"tier"`
	Name         string   `json:"name"`
	MonthlyPrice Money    `json:"monthly_price"`
	YearlyPrice  Money    `json:"yearly_price"`
	SportCount   int      `json:"sport_count"`
	Features     []string `json:"features"`
}

// normalizeStatus maps provider status strings onto the enumerated set.
// Statuses outside the set pass through so nothing is silently dropped.
func normalizeStatus(s string) Status {
	switch s {
	case "active":
		return StatusActive
	case "past_due", "unpaid":
		return StatusPastDue
	case "canceled", "cancelled":
		return StatusCanceled
	default:
		return Status(s)
	}
}
