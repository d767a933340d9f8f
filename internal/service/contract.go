package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/punchamoorthee/contractledger/internal/domain"
	"github.com/punchamoorthee/contractledger/internal/store"
	"github.com/punchamoorthee/contractledger/internal/wealth"
)

// Acquisition is the outcome of a Hire or Takeover.
type Acquisition struct {
	TxID          string
	Buyer         string
	Target        string
	PreviousOwner string // empty for a hire
	Cost          float64
	PurchaseLevel int // target's level after the transfer
}

// Takeover reports whether the target was taken from another owner.
func (a *Acquisition) Takeover() bool { return a.PreviousOwner != "" }

// Release is the outcome of a Sell or Redeem.
type Release struct {
	TxID   string
	Owner  string
	Target string
	// Amount is what the owner received.
	Amount float64
	// Cost is what the target paid, zero for a sale.
	Cost float64
}

// ContractLedger moves ownership of accounts between owners. Every transition
// re-validates its preconditions inside the store commit.
type ContractLedger struct {
	store  *store.AccountStore
	wealth *wealth.Model
	rates  Rates
	log    logrus.FieldLogger
}

func NewContractLedger(s *store.AccountStore, w *wealth.Model, rates Rates, logger logrus.FieldLogger) *ContractLedger {
	return &ContractLedger{store: s, wealth: w, rates: rates, log: orDefault(logger)}
}

// Acquire hires target when it looks free and takes it over otherwise. The
// choice is made on a read before the commit; if the state changed meanwhile
// the commit rejects it instead of switching modes.
func (l *ContractLedger) Acquire(ctx context.Context, group, buyer, target string) (*Acquisition, error) {
	if err := validatePair(buyer, target); err != nil {
		return nil, err
	}
	if l.store.GetOrCreate(group, target).IsFree() {
		return l.Hire(ctx, group, buyer, target)
	}
	return l.Takeover(ctx, group, buyer, target)
}

// Hire buys a free target at its dynamic value.
func (l *ContractLedger) Hire(ctx context.Context, group, buyer, target string) (*Acquisition, error) {
	return l.acquire(ctx, group, buyer, target, false)
}

// Takeover buys an owned target at its dynamic value plus the takeover fee,
// paying the whole cost to the current owner.
func (l *ContractLedger) Takeover(ctx context.Context, group, buyer, target string) (*Acquisition, error) {
	return l.acquire(ctx, group, buyer, target, true)
}

func validatePair(actor, target string) error {
	if actor == "" {
		return domain.Validationf("missing sender")
	}
	if target == "" {
		return domain.Validationf("missing target")
	}
	if actor == target {
		return domain.Validationf("target cannot be yourself")
	}
	return nil
}

func (l *ContractLedger) acquire(ctx context.Context, group, buyerID, targetID string, takeover bool) (*Acquisition, error) {
	if err := validatePair(buyerID, targetID); err != nil {
		return nil, err
	}
	op := "hire"
	if takeover {
		op = "takeover"
	}

	res := &Acquisition{Buyer: buyerID, Target: targetID}
	txID, err := l.store.Commit(ctx, group, op, func(tx *store.Tx) error {
		buyer := tx.Account(buyerID)
		target := tx.Account(targetID)

		switch {
		case target.ContractedBy == buyerID:
			return domain.Transitionf("%s is already your contractor", targetID)
		case !takeover && !target.IsFree():
			return domain.Transitionf("%s is already owned by %s", targetID, target.ContractedBy)
		case takeover && target.IsFree():
			return domain.Transitionf("%s is not owned by anyone", targetID)
		}
		if len(buyer.Contractors) >= l.rates.MaxContractors {
			return domain.Transitionf("contractor limit of %d reached", l.rates.MaxContractors)
		}
		if l.rates.RequireTargetSigned && !target.HasSigned() {
			return domain.Transitionf("%s has never signed in", targetID)
		}

		cost := l.wealth.DynamicValue(target, tx.PurchaseLevel(targetID))
		if takeover {
			cost *= 1 + l.rates.TakeoverFeeRate
		}
		if buyer.Coins < cost {
			return domain.InsufficientFunds(cost, buyer.Coins)
		}

		if takeover {
			ownerID := target.ContractedBy
			owner := tx.Account(ownerID)
			owner.RemoveContractor(targetID)
			owner.Coins += cost
			res.PreviousOwner = ownerID
		}
		buyer.Coins -= cost
		buyer.Contractors = append(buyer.Contractors, targetID)
		target.ContractedBy = buyerID
		tx.BumpPurchaseLevel(targetID)

		res.Cost = cost
		res.PurchaseLevel = tx.PurchaseLevel(targetID)
		return nil
	})
	if err != nil && !store.IsPersistence(err) {
		return nil, err
	}
	res.TxID = txID
	return res, err
}

// Sell releases target back to freedom and credits the owner a share of its value.
func (l *ContractLedger) Sell(ctx context.Context, group, ownerID, targetID string) (*Release, error) {
	if err := validatePair(ownerID, targetID); err != nil {
		return nil, err
	}

	res := &Release{Owner: ownerID, Target: targetID}
	txID, err := l.store.Commit(ctx, group, "sell", func(tx *store.Tx) error {
		owner := tx.Account(ownerID)
		if !owner.HasContractor(targetID) {
			return domain.Transitionf("%s is not your contractor", targetID)
		}
		target := tx.Account(targetID)
		if l.rates.RequireTargetSigned && !target.HasSigned() {
			return domain.Transitionf("%s has never signed in", targetID)
		}

		proceeds := l.wealth.DynamicValue(target, tx.PurchaseLevel(targetID)) * l.rates.SellReturnRate
		owner.Coins += proceeds
		owner.RemoveContractor(targetID)
		target.ContractedBy = ""

		res.Amount = proceeds
		return nil
	})
	if err != nil && !store.IsPersistence(err) {
		return nil, err
	}
	res.TxID = txID
	return res, err
}

// Redeem lets a contractor buy its own freedom. The owner receives only the
// redeem share of the cost; the rest leaves the economy.
func (l *ContractLedger) Redeem(ctx context.Context, group, targetID string) (*Release, error) {
	if targetID == "" {
		return nil, domain.Validationf("missing sender")
	}

	res := &Release{Target: targetID}
	txID, err := l.store.Commit(ctx, group, "redeem", func(tx *store.Tx) error {
		target := tx.Account(targetID)
		if target.IsFree() {
			return domain.Transitionf("you are not under contract")
		}

		cost := l.wealth.DynamicValue(target, tx.PurchaseLevel(targetID))
		if target.Coins < cost {
			return domain.InsufficientFunds(cost, target.Coins)
		}
		compensation := cost * l.rates.RedeemReturnRate

		ownerID := target.ContractedBy
		owner := tx.Account(ownerID)
		owner.RemoveContractor(targetID)
		owner.Coins += compensation
		target.Coins -= cost
		target.ContractedBy = ""

		res.Owner = ownerID
		res.Cost = cost
		res.Amount = compensation
		return nil
	})
	if err != nil && !store.IsPersistence(err) {
		return nil, err
	}
	res.TxID = txID
	return res, err
}
