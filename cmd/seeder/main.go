package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/punchamoorthee/contractledger/internal/config"
	"github.com/punchamoorthee/contractledger/internal/logging"
	"github.com/punchamoorthee/contractledger/internal/store"
)

var (
	group    string
	total    int
	coins    float64
	bank     float64
	idPrefix string
)

func init() {
	flag.StringVar(&group, "group", "bench", "Group to seed")
	flag.IntVar(&total, "accounts", 1000, "Number of accounts")
	flag.Float64Var(&coins, "coins", 10000, "Initial coins per account")
	flag.Float64Var(&bank, "bank", 0, "Initial bank balance per account")
	flag.StringVar(&idPrefix, "prefix", "", "User id prefix")
}

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	logger := logging.New(cfg.Env)

	ctx := context.Background()
	storage, closeStorage, err := store.OpenBackend(ctx, cfg.Backend())
	if err != nil {
		logger.WithError(err).Fatal("open storage")
	}
	defer closeStorage()

	ledger, err := store.Open(ctx, storage, store.Options{MaxContractors: cfg.MaxContractors, Logger: logger})
	if err != nil {
		logger.WithError(err).Fatal("load ledger")
	}

	logger.WithFields(logrus.Fields{"backend": cfg.StoreBackend, "group": group}).Info("seeding")

	existing := len(ledger.Snapshot(group).Accounts)
	if existing >= total {
		logger.WithField("accounts", existing).Info("group already seeded, skipping")
		return
	}

	created := 0
	txID, err := ledger.Commit(ctx, group, "seed", func(tx *store.Tx) error {
		for i := 1; i <= total; i++ {
			uid := userID(idPrefix, i)
			if tx.Exists(uid) {
				continue
			}
			a := tx.Account(uid)
			a.Coins = coins
			a.Bank = bank
			created++
		}
		return nil
	})
	if err != nil {
		logger.WithField("tx_id", txID).WithError(err).Fatal("seed failed")
	}
	logger.WithFields(logrus.Fields{"tx_id": txID, "created": created}).Info("seeded accounts")
}

// userID is the id of the i-th seeded account; the benchmark uses the same scheme.
func userID(prefix string, i int) string {
	return fmt.Sprintf("%s%d", prefix, i)
}
