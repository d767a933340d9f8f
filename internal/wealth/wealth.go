// Package wealth maps balances to tiers, income rates and contractor prices.
package wealth

import "github.com/punchamoorthee/contractledger/internal/domain"

// Tier is one wealth bracket.
type Tier struct {
	Threshold float64
	Name      string
	Rate      float64
	BaseValue float64
}

// DefaultTiers is the ascending bracket table.
var DefaultTiers = []Tier{
	{Threshold: 0, Name: "common", Rate: 0.25, BaseValue: 100},
	{Threshold: 500, Name: "petty-bourgeois", Rate: 0.5, BaseValue: 500},
	{Threshold: 2000, Name: "rich", Rate: 0.75, BaseValue: 2000},
	{Threshold: 5000, Name: "magnate", Rate: 1.0, BaseValue: 5000},
}

// Model prices accounts. Tiers must be sorted by ascending threshold.
type Model struct {
	Tiers          []Tier
	PriceBonusRate float64
}

// New returns a model over DefaultTiers.
func New(priceBonusRate float64) *Model {
	return &Model{Tiers: DefaultTiers, PriceBonusRate: priceBonusRate}
}

// TierOf selects the tier with the largest threshold <= total. Below the
// smallest threshold the lowest tier applies.
func (m *Model) TierOf(total float64) Tier {
	for i := len(m.Tiers) - 1; i >= 0; i-- {
		if total >= m.Tiers[i].Threshold {
			return m.Tiers[i]
		}
	}
	return m.Tiers[0]
}

// BaseValue returns the flat price of a tier by name, falling back to the lowest tier.
func (m *Model) BaseValue(name string) float64 {
	for _, t := range m.Tiers {
		if t.Name == name {
			return t.BaseValue
		}
	}
	return m.Tiers[0].BaseValue
}

// AccountTier is TierOf applied to coins+bank.
func (m *Model) AccountTier(a *domain.Account) Tier {
	return m.TierOf(a.Total())
}

// DynamicValue is the price to acquire or redeem a. It rises with each
// ownership transfer the account has been the target of.
func (m *Model) DynamicValue(a *domain.Account, purchaseLevel int) float64 {
	base := m.BaseValue(m.AccountTier(a).Name)
	return base * (1 + float64(purchaseLevel)*m.PriceBonusRate)
}
