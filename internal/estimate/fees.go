package estimate

// SubscriptionType is the business's platform subscription tier
type SubscriptionType string

const (
	SubscriptionTrial            SubscriptionType = "Trial"
	SubscriptionStarter          SubscriptionType = "Starter"
	SubscriptionPartner          SubscriptionType = "Partner"
	SubscriptionEnterprise       SubscriptionType = "Enterprise"
	SubscriptionEnterpriseAnnual SubscriptionType = "Enterprise Annual"
	SubscriptionInactive         SubscriptionType = "Inactive"
)

// DefaultPartnerFeeRate applies to unrecognised or missing tiers
const DefaultPartnerFeeRate = 0.09

// SubscriptionTypes lists every recognised tier
var SubscriptionTypes = []SubscriptionType{
	SubscriptionTrial,
	SubscriptionStarter,
	SubscriptionPartner,
	SubscriptionEnterprise,
	SubscriptionEnterpriseAnnual,
	SubscriptionInactive,
}

// IsKnown reports whether the tier is in the fee table
func (s SubscriptionType) IsKnown() bool {
	for _, known := range SubscriptionTypes {
		if s == known {
			return true
		}
	}
	return false
}

// PartnerFeeRate returns the fraction of selling price retained by the platform
func PartnerFeeRate(tier SubscriptionType) float64 {
	switch tier {
	case SubscriptionTrial, SubscriptionStarter, SubscriptionInactive:
		return 0.09
	case SubscriptionPartner:
		return 0.07
	case SubscriptionEnterprise, SubscriptionEnterpriseAnnual:
		return 0
	default:
		return DefaultPartnerFeeRate
	}
}
