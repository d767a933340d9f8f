package store

import (
	"fmt"

	"github.com/punchamoorthee/contractledger/internal/domain"
)

// Tx is a working set of account copies for one group. It is only valid
// inside the Commit callback that received it.
type Tx struct {
	ID      string
	group   string
	base    domain.Group
	levels  map[string]int
	touched map[string]*domain.Account
	bumps   map[string]int
}

// Group returns the group the transaction is scoped to.
func (tx *Tx) Group() string { return tx.group }

// Account returns the mutable working copy of user's account, reading the
// latest committed state on first access. Missing accounts get defaults.
func (tx *Tx) Account(user string) *domain.Account {
	if a, ok := tx.touched[user]; ok {
		return a
	}
	var a *domain.Account
	if cur, ok := tx.base[user]; ok {
		a = cur.Clone()
	} else {
		a = domain.NewAccount()
	}
	tx.touched[user] = a
	return a
}

// Peek returns a read-only copy without adding the account to the write set.
func (tx *Tx) Peek(user string) *domain.Account {
	if a, ok := tx.touched[user]; ok {
		return a.Clone()
	}
	if cur, ok := tx.base[user]; ok {
		return cur.Clone()
	}
	return domain.NewAccount()
}

// PurchaseLevel includes increments made earlier in this transaction.
func (tx *Tx) PurchaseLevel(user string) int {
	return tx.levels[user] + tx.bumps[user]
}

// BumpPurchaseLevel records one more ownership transfer targeting user.
func (tx *Tx) BumpPurchaseLevel(user string) {
	tx.bumps[user]++
}

func (tx *Tx) lookup(user string) (*domain.Account, bool) {
	if a, ok := tx.touched[user]; ok {
		return a, true
	}
	a, ok := tx.base[user]
	return a, ok
}

// check verifies the ledger invariants for every account in the write set.
func (tx *Tx) check(maxContractors int) error {
	for uid, a := range tx.touched {
		if a.Coins < 0 || a.Bank < 0 {
			return fmt.Errorf("account %s: negative balance", uid)
		}
		if len(a.Contractors) > maxContractors {
			return fmt.Errorf("account %s: %d contractors exceeds %d", uid, len(a.Contractors), maxContractors)
		}
		if a.ContractedBy == uid {
			return fmt.Errorf("account %s: owns itself", uid)
		}
		seen := map[string]bool{}
		for _, c := range a.Contractors {
			if c == uid {
				return fmt.Errorf("account %s: is its own contractor", uid)
			}
			if seen[c] {
				return fmt.Errorf("account %s: duplicate contractor %s", uid, c)
			}
			seen[c] = true
			ca, ok := tx.lookup(c)
			if !ok || ca.ContractedBy != uid {
				return fmt.Errorf("account %s: contractor %s not bound back", uid, c)
			}
		}
		if a.ContractedBy != "" {
			owner, ok := tx.lookup(a.ContractedBy)
			if !ok || !owner.HasContractor(uid) {
				return fmt.Errorf("account %s: owner %s does not list it", uid, a.ContractedBy)
			}
		}
		if a.HasSigned() != (a.Consecutive > 0) {
			return fmt.Errorf("account %s: streak %d inconsistent with last sign date", uid, a.Consecutive)
		}
	}
	return nil
}

// Exists reports whether user has a committed or pending record.
func (tx *Tx) Exists(user string) bool {
	_, ok := tx.lookup(user)
	return ok
}
