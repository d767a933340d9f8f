package domain

import (
	"slices"

	"github.com/punchamoorthee/contractledger/internal/date"
)

// Account is one user's position inside one group.
// Contractors and ContractedBy must stay mutually consistent across the group:
// B is in A.Contractors exactly when B.ContractedBy == A.
type Account struct {
	Coins        float64   `json:"coins" yaml:"coins"`
	Bank         float64   `json:"bank" yaml:"bank"`
	Contractors  []string  `json:"contractors" yaml:"contractors"`
	ContractedBy string    `json:"contracted_by,omitempty" yaml:"contracted_by"`
	LastSignDate date.Date `json:"last_sign_date,omitzero" yaml:"last_sign,omitempty"`
	Consecutive  int       `json:"consecutive" yaml:"consecutive"`
}

// NewAccount returns an account with zero-valued defaults.
func NewAccount() *Account {
	return &Account{Contractors: []string{}}
}

// Clone returns a deep copy.
func (a *Account) Clone() *Account {
	c := *a
	c.Contractors = slices.Clone(a.Contractors)
	if c.Contractors == nil {
		c.Contractors = []string{}
	}
	return &c
}

// Total is the wealth used for tiering.
func (a *Account) Total() float64 { return a.Coins + a.Bank }

// IsFree reports whether nobody owns the account.
func (a *Account) IsFree() bool { return a.ContractedBy == "" }

// HasSigned reports whether the account ever claimed a daily reward.
func (a *Account) HasSigned() bool { return !a.LastSignDate.IsZero() }

// HasContractor reports whether id is owned by a.
func (a *Account) HasContractor(id string) bool {
	return slices.Contains(a.Contractors, id)
}

// RemoveContractor drops id from the contractor list, keeping acquisition order.
func (a *Account) RemoveContractor(id string) bool {
	i := slices.Index(a.Contractors, id)
	if i < 0 {
		return false
	}
	a.Contractors = slices.Delete(a.Contractors, i, i+1)
	return true
}

// Group maps user id to account.
type Group map[string]*Account

// Document is the whole persisted state: every group ledger plus the
// purchase-level counters. Purchase levels are keyed by user id only and are
// shared across groups.
type Document struct {
	Groups         map[string]Group `json:"groups" yaml:"groups"`
	PurchaseLevels map[string]int   `json:"purchase_levels" yaml:"purchase_levels"`
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{
		Groups:         map[string]Group{},
		PurchaseLevels: map[string]int{},
	}
}

// Normalize fills nil maps and slices left by decoders.
func (d *Document) Normalize() {
	if d.Groups == nil {
		d.Groups = map[string]Group{}
	}
	if d.PurchaseLevels == nil {
		d.PurchaseLevels = map[string]int{}
	}
	for gid, g := range d.Groups {
		if g == nil {
			d.Groups[gid] = Group{}
			continue
		}
		for uid, a := range g {
			if a == nil {
				g[uid] = NewAccount()
				continue
			}
			if a.Contractors == nil {
				a.Contractors = []string{}
			}
		}
	}
}

// Clone returns a deep copy.
func (d *Document) Clone() *Document {
	c := NewDocument()
	for gid, g := range d.Groups {
		cg := make(Group, len(g))
		for uid, a := range g {
			cg[uid] = a.Clone()
		}
		c.Groups[gid] = cg
	}
	for uid, n := range d.PurchaseLevels {
		c.PurchaseLevels[uid] = n
	}
	return c
}
