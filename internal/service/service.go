// Package service implements the economy operations on top of the account store:
// contracts, daily sign-in, banking and read-only queries.
package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/punchamoorthee/contractledger/internal/logging"
)

// Rates are the economy constants shared by the services.
type Rates struct {
	BaseIncome         float64
	InterestRate       float64
	StreakBonusStep    float64
	RateBonusRate      float64
	TakeoverFeeRate    float64
	SellReturnRate     float64
	RedeemReturnRate   float64
	EmployedIncomeRate float64
	MaxContractors     int
	// RequireTargetSigned refuses to hire or sell an account that never claimed a reward.
	RequireTargetSigned bool
}

// DefaultRates returns the stock economy.
func DefaultRates() Rates {
	return Rates{
		BaseIncome:         100,
		InterestRate:       0.01,
		StreakBonusStep:    10,
		RateBonusRate:      0.05,
		TakeoverFeeRate:    0.1,
		SellReturnRate:     0.8,
		RedeemReturnRate:   0.5,
		EmployedIncomeRate: 0.7,
		MaxContractors:     3,
	}
}

// ExternalBalance is a sibling system's ledger that can top up spending once
// local coins are exhausted. Its debit is a separate write, not part of our commit.
type ExternalBalance interface {
	Balance(ctx context.Context, group, user string) (float64, error)
	Debit(ctx context.Context, group, user string, amount float64) error
}

func orDefault(logger logrus.FieldLogger) logrus.FieldLogger {
	return logging.OrDefault(logger)
}
