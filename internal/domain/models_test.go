package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/punchamoorthee/contractledger/internal/date"
)

func TestAccountClone(t *testing.T) {
	a := &Account{Coins: 10, Contractors: []string{"u1", "u2"}, LastSignDate: date.New(2025, 1, 1), Consecutive: 1}
	c := a.Clone()
	c.Contractors[0] = "changed"
	c.Coins = 99

	assert.Equal(t, "u1", a.Contractors[0])
	assert.Equal(t, 10.0, a.Coins)
	assert.Equal(t, a.LastSignDate, c.LastSignDate)
}

func TestAccountRemoveContractorKeepsOrder(t *testing.T) {
	a := &Account{Contractors: []string{"a", "b", "c"}}

	require.True(t, a.RemoveContractor("b"))
	assert.Equal(t, []string{"a", "c"}, a.Contractors)
	assert.False(t, a.RemoveContractor("b"))
	assert.False(t, a.HasContractor("b"))
	assert.True(t, a.HasContractor("c"))
}

func TestDocumentNormalize(t *testing.T) {
	d := &Document{Groups: map[string]Group{"g1": nil, "g2": {"u": nil, "v": &Account{}}}}
	d.Normalize()

	require.NotNil(t, d.PurchaseLevels)
	require.NotNil(t, d.Groups["g1"])
	require.NotNil(t, d.Groups["g2"]["u"])
	assert.NotNil(t, d.Groups["g2"]["v"].Contractors)
}

func TestDocumentCloneIsDeep(t *testing.T) {
	d := NewDocument()
	d.Groups["g"] = Group{"u": {Coins: 5, Contractors: []string{"x"}}}
	d.PurchaseLevels["x"] = 2

	c := d.Clone()
	c.Groups["g"]["u"].Coins = 7
	c.Groups["g"]["u"].Contractors[0] = "y"
	c.PurchaseLevels["x"] = 3

	assert.Equal(t, 5.0, d.Groups["g"]["u"].Coins)
	assert.Equal(t, "x", d.Groups["g"]["u"].Contractors[0])
	assert.Equal(t, 2, d.PurchaseLevels["x"])
}

func TestErrorHelpersWrapSentinels(t *testing.T) {
	assert.True(t, errors.Is(Validationf("bad %d", 1), ErrValidation))
	assert.True(t, errors.Is(Transitionf("nope"), ErrInvalidTransition))
	err := InsufficientFunds(100, 99)
	assert.True(t, errors.Is(err, ErrInsufficientFunds))
	assert.Contains(t, err.Error(), "need 100.0, have 99.0")
}
