package billing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// PlanTier is the price tier a plan name resolves to.
type PlanTier string

const (
	PlanTierTVInternet PlanTier = "tv_internet"
	PlanTierInternet   PlanTier = "internet"
	PlanTierBasic      PlanTier = "basic"
)

type planRule struct {
	marker string
	tier   PlanTier
	price  decimal.Decimal
}

// Order matters: a plan containing both markers must resolve to the combined tier.
var planRules = []planRule{
	{marker: "TV + Internet", tier: PlanTierTVInternet, price: decimal.NewFromInt(100)},
	{marker: "Internet", tier: PlanTierInternet, price: decimal.NewFromInt(60)},
}

var basicPrice = decimal.NewFromInt(40)

// TierForPlan resolves a free-form plan name by case-sensitive substring match,
// first match wins. Anything unmatched is the basic tier.
func TierForPlan(plan string) PlanTier {
	for _, r := range planRules {
		if strings.Contains(plan, r.marker) {
			return r.tier
		}
	}
	return PlanTierBasic
}

// PriceForPlan returns the monthly invoice amount for a plan name.
//
//	"TV + Internet Premium" -> 100
//	"Internet Basico"       -> 60
//	"Cable Basico"          -> 40
func PriceForPlan(plan string) decimal.Decimal {
	for _, r := range planRules {
		if strings.Contains(plan, r.marker) {
			return r.price
		}
	}
	return basicPrice
}
