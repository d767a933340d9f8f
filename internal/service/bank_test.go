package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/punchamoorthee/contractledger/internal/domain"
	"github.com/punchamoorthee/contractledger/internal/wealth"
)

type fakeExternal struct {
	mu        sync.Mutex
	balance   float64
	debited   float64
	debitErr  error
	balanceEr error
}

func (f *fakeExternal) Balance(ctx context.Context, group, user string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balance, f.balanceEr
}

func (f *fakeExternal) Debit(ctx context.Context, group, user string, amount float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.debitErr != nil {
		return f.debitErr
	}
	f.debited += amount
	f.balance -= amount
	return nil
}

func TestParseAmount(t *testing.T) {
	good := map[string]float64{"10": 10, " 1.5 ": 1.5, "0.01": 0.01}
	for in, want := range good {
		got, err := ParseAmount(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, in := range []string{"", "0", "-3", "abc", "1,5", "NaN", "Inf"} {
		_, err := ParseAmount(in)
		assert.ErrorIs(t, err, domain.ErrValidation, in)
	}
}

func TestDepositAndWithdraw(t *testing.T) {
	e := newEnv(t)
	e.seed(t, map[string]float64{"u": 100})

	m, err := e.bank.Deposit(ctx, group, "u", 40)
	require.NoError(t, err)
	assert.Equal(t, 0.0, m.External)
	assert.Equal(t, 60.0, e.account("u").Coins)
	assert.Equal(t, 40.0, e.account("u").Bank)

	_, err = e.bank.Withdraw(ctx, group, "u", 30)
	require.NoError(t, err)
	assert.Equal(t, 90.0, e.account("u").Coins)
	assert.Equal(t, 10.0, e.account("u").Bank)
}

func TestBankRejections(t *testing.T) {
	e := newEnv(t)
	e.seed(t, map[string]float64{"u": 10})

	_, err := e.bank.Deposit(ctx, group, "u", 0)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = e.bank.Withdraw(ctx, group, "u", -1)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = e.bank.Deposit(ctx, group, "u", 11)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
	_, err = e.bank.Withdraw(ctx, group, "u", 1)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	assert.Equal(t, 10.0, e.account("u").Coins)
	assert.Equal(t, 0.0, e.account("u").Bank)
}

func TestDepositDrawsExternalAfterLocalCoins(t *testing.T) {
	ext := &fakeExternal{balance: 50}
	e := newEnvWith(t, wealth.New(0.15), DefaultRates(), ext)
	e.seed(t, map[string]float64{"u": 20})

	m, err := e.bank.Deposit(ctx, group, "u", 60)
	require.NoError(t, err)
	assert.Equal(t, 40.0, m.External)
	assert.Equal(t, 40.0, ext.debited)
	assert.Equal(t, 0.0, e.account("u").Coins)
	assert.Equal(t, 60.0, e.account("u").Bank)

	_, err = e.bank.Deposit(ctx, group, "u", 11)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
}

func TestDepositExternalDebitFailureKeepsCommit(t *testing.T) {
	ext := &fakeExternal{balance: 50, debitErr: errors.New("locked")}
	e := newEnvWith(t, wealth.New(0.15), DefaultRates(), ext)

	m, err := e.bank.Deposit(ctx, group, "u", 30)
	require.Error(t, err)
	require.NotNil(t, m)
	assert.Equal(t, 30.0, m.External)
	assert.Equal(t, 30.0, e.account("u").Bank)
}

func TestDepositIgnoresUnavailableExternal(t *testing.T) {
	ext := &fakeExternal{balance: 50, balanceEr: errors.New("unreadable")}
	e := newEnvWith(t, wealth.New(0.15), DefaultRates(), ext)
	e.seed(t, map[string]float64{"u": 5})

	_, err := e.bank.Deposit(ctx, group, "u", 6)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assert.Equal(t, 0.0, ext.debited)
}

func TestConcurrentDepositsShareExternalOnce(t *testing.T) {
	ext := &fakeExternal{balance: 100}
	e := newEnvWith(t, wealth.New(0.15), DefaultRates(), ext)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.bank.Deposit(ctx, group, "u", 100)
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 100.0, e.account("u").Bank)
	assert.Equal(t, 0.0, ext.balance)
	assert.Equal(t, 100.0, ext.debited)
}
