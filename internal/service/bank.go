package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/punchamoorthee/contractledger/internal/domain"
	"github.com/punchamoorthee/contractledger/internal/store"
)

// Movement is the outcome of a deposit or withdrawal.
type Movement struct {
	TxID   string
	Amount float64
	// External is the part of a deposit drawn from the external balance.
	External float64
	Account  *domain.Account
}

// Bank moves coins between cash and the interest-bearing balance.
type Bank struct {
	store    *store.AccountStore
	external ExternalBalance
	log      logrus.FieldLogger

	// extMu spans balance read, commit and debit so two deposits cannot
	// spend the same external coins.
	extMu sync.Mutex
}

// NewBank builds a Bank. external may be nil.
func NewBank(s *store.AccountStore, external ExternalBalance, logger logrus.FieldLogger) *Bank {
	return &Bank{store: s, external: external, log: orDefault(logger)}
}

// ParseAmount reads a strictly positive decimal amount.
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, domain.Validationf("missing amount")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, domain.Validationf("malformed amount %q", s)
	}
	if !d.IsPositive() {
		return 0, domain.Validationf("amount must be greater than 0")
	}
	return d.InexactFloat64(), nil
}

// Deposit moves amount into the bank. Local coins are spent first; any
// shortfall is covered by the external balance, debited after our commit.
func (b *Bank) Deposit(ctx context.Context, group, user string, amount float64) (*Movement, error) {
	if user == "" {
		return nil, domain.Validationf("missing sender")
	}
	if !(amount > 0) {
		return nil, domain.Validationf("amount must be greater than 0")
	}

	external := 0.0
	if b.external != nil {
		b.extMu.Lock()
		defer b.extMu.Unlock()
		bal, err := b.external.Balance(ctx, group, user)
		if err != nil {
			b.log.WithFields(logrus.Fields{"group": group, "user": user}).WithError(err).Warn("external balance unavailable")
		} else if bal > 0 {
			external = bal
		}
	}

	res := &Movement{Amount: amount}
	txID, err := b.store.Commit(ctx, group, "deposit", func(tx *store.Tx) error {
		a := tx.Account(user)
		if amount > a.Coins+external {
			return domain.InsufficientFunds(amount, a.Coins+external)
		}
		local := min(amount, a.Coins)
		a.Coins -= local
		a.Bank += amount
		res.External = amount - local
		res.Account = a.Clone()
		return nil
	})
	if err != nil && !store.IsPersistence(err) {
		return nil, err
	}
	res.TxID = txID

	if res.External > 0 {
		if derr := b.external.Debit(ctx, group, user, res.External); derr != nil {
			b.log.WithFields(logrus.Fields{
				"group":  group,
				"user":   user,
				"tx_id":  txID,
				"amount": res.External,
			}).WithError(derr).Error("external debit failed after deposit commit")
			if err == nil {
				err = fmt.Errorf("external debit: %w", derr)
			}
		}
	}
	return res, err
}

// Withdraw moves amount from the bank back to coins.
func (b *Bank) Withdraw(ctx context.Context, group, user string, amount float64) (*Movement, error) {
	if user == "" {
		return nil, domain.Validationf("missing sender")
	}
	if !(amount > 0) {
		return nil, domain.Validationf("amount must be greater than 0")
	}

	res := &Movement{Amount: amount}
	txID, err := b.store.Commit(ctx, group, "withdraw", func(tx *store.Tx) error {
		a := tx.Account(user)
		if amount > a.Bank {
			return domain.InsufficientFunds(amount, a.Bank)
		}
		a.Bank -= amount
		a.Coins += amount
		res.Account = a.Clone()
		return nil
	})
	if err != nil && !store.IsPersistence(err) {
		return nil, err
	}
	res.TxID = txID
	return res, err
}
