package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/punchamoorthee/contractledger/internal/date"
	"github.com/punchamoorthee/contractledger/internal/domain"
	"github.com/punchamoorthee/contractledger/internal/store"
	"github.com/punchamoorthee/contractledger/internal/wealth"
)

// Claim is the outcome of a successful daily sign-in.
type Claim struct {
	TxID            string
	Date            date.Date
	Interest        float64
	OwnRate         float64
	ContractorBonus float64
	StreakBonus     float64
	// Reward is what was credited to coins, after the employed penalty.
	Reward      float64
	Penalized   bool
	Consecutive int
	Account     *domain.Account
}

// Preview is a projection of tomorrow's claim. It never touches the store.
type Preview struct {
	OwnRate           float64
	ContractorBonus   float64
	BaseWithBonus     float64
	ContractBonus     float64
	StreakBonus       float64
	ProjectedInterest float64
	Reward            float64
	Total             float64
	Account           *domain.Account
}

// SignInEngine runs the per-account daily claim.
type SignInEngine struct {
	store  *store.AccountStore
	wealth *wealth.Model
	rates  Rates
	loc    *time.Location
	now    func() time.Time
	log    logrus.FieldLogger
}

func NewSignInEngine(s *store.AccountStore, w *wealth.Model, rates Rates, loc *time.Location, logger logrus.FieldLogger) *SignInEngine {
	if loc == nil {
		loc = time.UTC
	}
	return &SignInEngine{store: s, wealth: w, rates: rates, loc: loc, now: time.Now, log: orDefault(logger)}
}

// WithClock replaces the time source.
func (e *SignInEngine) WithClock(now func() time.Time) *SignInEngine {
	e.now = now
	return e
}

// Today is the current calendar date in the engine's zone.
func (e *SignInEngine) Today() date.Date {
	return date.Of(e.now(), e.loc)
}

// contractorBonus sums tier rate plus purchase-level bonus over a's contractors.
func (e *SignInEngine) contractorBonus(a *domain.Account, peek func(string) (*domain.Account, int)) float64 {
	bonus := 0.0
	for _, id := range a.Contractors {
		c, level := peek(id)
		bonus += e.wealth.AccountTier(c).Rate + float64(level)*e.rates.RateBonusRate
	}
	return bonus
}

// Claim credits today's reward. A second claim on the same date is rejected
// without touching the account.
func (e *SignInEngine) Claim(ctx context.Context, group, user string) (*Claim, error) {
	if user == "" {
		return nil, domain.Validationf("missing sender")
	}
	today := e.Today()

	res := &Claim{Date: today}
	txID, err := e.store.Commit(ctx, group, "sign_in", func(tx *store.Tx) error {
		// A date ahead of today (the zone moved east) counts as signed too.
		if last := tx.Peek(user).LastSignDate; last == today || today.Before(last) {
			return domain.Transitionf("already signed in today")
		}
		a := tx.Account(user)

		interest := a.Bank * e.rates.InterestRate
		a.Bank += interest

		if a.HasSigned() && today.DaysSince(a.LastSignDate) == 1 {
			a.Consecutive++
		} else {
			a.Consecutive = 1
		}

		own := e.wealth.AccountTier(a).Rate
		bonus := e.contractorBonus(a, func(id string) (*domain.Account, int) {
			return tx.Peek(id), tx.PurchaseLevel(id)
		})
		streak := e.rates.StreakBonusStep * float64(a.Consecutive-1)
		reward := e.rates.BaseIncome*(1+own)*(1+bonus) + streak

		// The employed penalty applies to the reward only, never to interest.
		if !a.IsFree() {
			reward *= e.rates.EmployedIncomeRate
			res.Penalized = true
		}

		a.Coins += reward
		a.LastSignDate = today

		res.Interest = interest
		res.OwnRate = own
		res.ContractorBonus = bonus
		res.StreakBonus = streak
		res.Reward = reward
		res.Consecutive = a.Consecutive
		res.Account = a.Clone()
		return nil
	})
	if err != nil && !store.IsPersistence(err) {
		return nil, err
	}
	res.TxID = txID
	return res, err
}

// Preview projects the next claim assuming the streak continues.
func (e *SignInEngine) Preview(group, user string) *Preview {
	view := e.store.Snapshot(group)
	peek := func(id string) (*domain.Account, int) {
		if a, ok := view.Accounts[id]; ok {
			return a, view.PurchaseLevels[id]
		}
		return domain.NewAccount(), view.PurchaseLevels[id]
	}
	a, _ := peek(user)

	own := e.wealth.AccountTier(a).Rate
	bonus := e.contractorBonus(a, peek)
	baseWithBonus := e.rates.BaseIncome * (1 + own)
	streak := e.rates.StreakBonusStep * float64(a.Consecutive)
	reward := baseWithBonus*(1+bonus) + streak
	interest := a.Bank * e.rates.InterestRate

	return &Preview{
		OwnRate:           own,
		ContractorBonus:   bonus,
		BaseWithBonus:     baseWithBonus,
		ContractBonus:     baseWithBonus * bonus,
		StreakBonus:       streak,
		ProjectedInterest: interest,
		Reward:            reward,
		Total:             reward + interest,
		Account:           a,
	}
}
