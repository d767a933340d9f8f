package service

import (
	"sort"

	"github.com/punchamoorthee/contractledger/internal/models"
	"github.com/punchamoorthee/contractledger/internal/store"
	"github.com/punchamoorthee/contractledger/internal/wealth"
)

const LeaderboardSize = 10

// LeaderboardQuery answers read-only questions from consistent snapshots.
type LeaderboardQuery struct {
	store  *store.AccountStore
	wealth *wealth.Model
}

func NewLeaderboardQuery(s *store.AccountStore, w *wealth.Model) *LeaderboardQuery {
	return &LeaderboardQuery{store: s, wealth: w}
}

// Top ranks the group by coins+bank, descending. Ties keep ascending user id order.
func (q *LeaderboardQuery) Top(group string, n int) []models.LeaderboardEntry {
	if n <= 0 {
		n = LeaderboardSize
	}
	view := q.store.Snapshot(group)
	ids := view.UserIDs()
	sort.SliceStable(ids, func(i, j int) bool {
		return view.Accounts[ids[i]].Total() > view.Accounts[ids[j]].Total()
	})
	if len(ids) > n {
		ids = ids[:n]
	}

	entries := make([]models.LeaderboardEntry, 0, len(ids))
	for i, id := range ids {
		a := view.Accounts[id]
		entries = append(entries, models.LeaderboardEntry{
			Rank:   i + 1,
			UserID: id,
			Coins:  models.Round(a.Coins),
			Bank:   models.Round(a.Bank),
			Total:  models.Round(a.Total()),
			Tier:   q.wealth.AccountTier(a).Name,
		})
	}
	return entries
}

// Account describes one account without creating it.
func (q *LeaderboardQuery) Account(group, user string) models.AccountView {
	view := q.store.Snapshot(group)
	return models.NewAccountView(user, view.Accounts[user], view.PurchaseLevels[user], q.wealth)
}
