package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/punchamoorthee/contractledger/internal/domain"
	"github.com/punchamoorthee/contractledger/internal/store"
	"github.com/punchamoorthee/contractledger/internal/wealth"
)

const group = "g1"

type fakeStorage struct {
	mu      sync.Mutex
	failing bool
	saves   int
}

func (f *fakeStorage) LoadDocument(ctx context.Context) (*domain.Document, error) {
	return domain.NewDocument(), nil
}

func (f *fakeStorage) SaveDocument(ctx context.Context, doc *domain.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errors.New("write failed")
	}
	f.saves++
	return nil
}

type env struct {
	storage   *fakeStorage
	store     *store.AccountStore
	wealth    *wealth.Model
	rates     Rates
	contracts *ContractLedger
	signin    *SignInEngine
	bank      *Bank
	query     *LeaderboardQuery
	now       time.Time
}

var cst = time.FixedZone("CST", 8*3600)

func newEnv(t *testing.T) *env {
	t.Helper()
	return newEnvWith(t, wealth.New(0.15), DefaultRates(), nil)
}

func newEnvWith(t *testing.T, w *wealth.Model, rates Rates, ext ExternalBalance) *env {
	t.Helper()
	fs := &fakeStorage{}
	s, err := store.Open(context.Background(), fs, store.Options{MaxContractors: rates.MaxContractors})
	require.NoError(t, err)

	e := &env{
		storage: fs,
		store:   s,
		wealth:  w,
		rates:   rates,
		now:     time.Date(2025, 10, 1, 9, 0, 0, 0, cst),
	}
	e.contracts = NewContractLedger(s, w, rates, nil)
	e.signin = NewSignInEngine(s, w, rates, cst, nil).WithClock(func() time.Time { return e.now })
	e.bank = NewBank(s, ext, nil)
	e.query = NewLeaderboardQuery(s, w)
	return e
}

// seed sets coins for each user in one commit.
func (e *env) seed(t *testing.T, coins map[string]float64) {
	t.Helper()
	_, err := e.store.Commit(context.Background(), group, "seed", func(tx *store.Tx) error {
		for user, c := range coins {
			tx.Account(user).Coins = c
		}
		return nil
	})
	require.NoError(t, err)
}

func (e *env) account(user string) *domain.Account {
	return e.store.GetOrCreate(group, user)
}

func (e *env) nextDay(days int) {
	e.now = e.now.AddDate(0, 0, days)
}

// assertInvariants checks capacity and mutual consistency for the whole group.
func assertInvariants(t *testing.T, s *store.AccountStore, max int) {
	t.Helper()
	view := s.Snapshot(group)
	for id, a := range view.Accounts {
		assert.LessOrEqual(t, len(a.Contractors), max, "account %s", id)
		assert.NotEqual(t, id, a.ContractedBy, "account %s owns itself", id)
		assert.GreaterOrEqual(t, a.Coins, 0.0, "account %s", id)
		assert.GreaterOrEqual(t, a.Bank, 0.0, "account %s", id)
		for _, c := range a.Contractors {
			assert.NotEqual(t, id, c)
			if assert.Contains(t, view.Accounts, c) {
				assert.Equal(t, id, view.Accounts[c].ContractedBy, "contractor %s of %s", c, id)
			}
		}
		if a.ContractedBy != "" {
			if assert.Contains(t, view.Accounts, a.ContractedBy) {
				assert.Contains(t, view.Accounts[a.ContractedBy].Contractors, id)
			}
		}
		assert.Equal(t, a.HasSigned(), a.Consecutive > 0, "account %s streak", id)
	}
}
