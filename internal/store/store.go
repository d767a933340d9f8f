package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/punchamoorthee/contractledger/internal/domain"
	"github.com/punchamoorthee/contractledger/internal/logging"
)

// Storage loads and saves the full document. Implementations are only called
// from inside the AccountStore lock and must not keep a reference to doc.
type Storage interface {
	LoadDocument(ctx context.Context) (*domain.Document, error)
	SaveDocument(ctx context.Context, doc *domain.Document) error
}

// PersistenceError reports a commit whose in-memory effect was applied but
// whose document save failed. The mutation stays in memory and is written by
// the next successful save.
type PersistenceError struct {
	TxID string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist tx %s: %v", e.TxID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsPersistence reports whether err carries a PersistenceError.
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}

// Options tunes an AccountStore.
type Options struct {
	MaxContractors int
	Logger         logrus.FieldLogger
}

// AccountStore owns the canonical in-memory mirror of the document. Every
// mutation goes through Commit, which runs read-validate-mutate-persist under
// one exclusive lock, so commits are linearizable.
type AccountStore struct {
	mu             sync.RWMutex
	storage        Storage
	doc            *domain.Document
	dirty          bool
	maxContractors int
	log            logrus.FieldLogger
}

// Open loads the document from storage.
func Open(ctx context.Context, storage Storage, opts Options) (*AccountStore, error) {
	doc, err := storage.LoadDocument(ctx)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	if doc == nil {
		doc = domain.NewDocument()
	}
	doc.Normalize()
	if opts.MaxContractors <= 0 {
		opts.MaxContractors = 3
	}
	return &AccountStore{
		storage:        storage,
		doc:            doc,
		maxContractors: opts.MaxContractors,
		log:            logging.OrDefault(opts.Logger),
	}, nil
}

// GetOrCreate returns a copy of the account, creating it with defaults if absent.
// Creation is lazy: the new record is persisted by the next commit.
func (s *AccountStore) GetOrCreate(group, user string) *domain.Account {
	s.mu.RLock()
	if a, ok := s.doc.Groups[group][user]; ok {
		c := a.Clone()
		s.mu.RUnlock()
		return c
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accountLocked(group, user).Clone()
}

func (s *AccountStore) accountLocked(group, user string) *domain.Account {
	g, ok := s.doc.Groups[group]
	if !ok {
		g = domain.Group{}
		s.doc.Groups[group] = g
	}
	a, ok := g[user]
	if !ok {
		a = domain.NewAccount()
		g[user] = a
	}
	return a
}

// PurchaseLevel returns how many times user has been the target of an ownership transfer.
func (s *AccountStore) PurchaseLevel(user string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.PurchaseLevels[user]
}

// GroupView is a consistent, detached copy of one group.
type GroupView struct {
	Group          string
	Accounts       domain.Group
	PurchaseLevels map[string]int
}

// UserIDs returns the account keys in ascending order.
func (v GroupView) UserIDs() []string {
	ids := make([]string, 0, len(v.Accounts))
	for id := range v.Accounts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Snapshot copies the group under the read lock.
func (s *AccountStore) Snapshot(group string) GroupView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g := s.doc.Groups[group]
	v := GroupView{
		Group:          group,
		Accounts:       make(domain.Group, len(g)),
		PurchaseLevels: make(map[string]int, len(g)),
	}
	for uid, a := range g {
		v.Accounts[uid] = a.Clone()
		if n, ok := s.doc.PurchaseLevels[uid]; ok {
			v.PurchaseLevels[uid] = n
		}
	}
	return v
}

// Commit runs fn against the latest committed state of group while holding
// the exclusive lock. If fn returns an error nothing is applied. Otherwise
// every account touched through tx is written back together and the full
// document is saved before the lock is released. It returns the transaction id.
func (s *AccountStore) Commit(ctx context.Context, group, op string, fn func(tx *Tx) error) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	tx := &Tx{
		ID:      uuid.NewString(),
		group:   group,
		base:    s.doc.Groups[group],
		levels:  s.doc.PurchaseLevels,
		touched: map[string]*domain.Account{},
		bumps:   map[string]int{},
	}
	if err := fn(tx); err != nil {
		commitsTotal.WithLabelValues(op, "rejected").Inc()
		return "", err
	}
	if len(tx.touched) == 0 && len(tx.bumps) == 0 {
		commitsTotal.WithLabelValues(op, "noop").Inc()
		return tx.ID, nil
	}
	if err := tx.check(s.maxContractors); err != nil {
		commitsTotal.WithLabelValues(op, "rejected").Inc()
		s.log.WithFields(logrus.Fields{"group": group, "op": op, "tx_id": tx.ID}).WithError(err).Error("commit violates ledger invariants")
		return "", err
	}

	for uid, a := range tx.touched {
		*s.accountLocked(group, uid) = *a
	}
	for uid, n := range tx.bumps {
		s.doc.PurchaseLevels[uid] += n
	}

	if err := s.storage.SaveDocument(ctx, s.doc); err != nil {
		s.dirty = true
		commitsTotal.WithLabelValues(op, "persist_error").Inc()
		persistFailures.Inc()
		s.log.WithFields(logrus.Fields{"group": group, "op": op, "tx_id": tx.ID}).WithError(err).Error("document save failed, keeping in-memory state")
		return tx.ID, &PersistenceError{TxID: tx.ID, Err: err}
	}
	s.dirty = false
	commitsTotal.WithLabelValues(op, "ok").Inc()
	s.log.WithFields(logrus.Fields{
		"group":    group,
		"op":       op,
		"tx_id":    tx.ID,
		"accounts": len(tx.touched),
	}).Info("committed")
	return tx.ID, nil
}

// Dirty reports whether the in-memory state is ahead of storage.
func (s *AccountStore) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// Flush saves the document if a previous save failed.
func (s *AccountStore) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil
	}
	if err := s.storage.SaveDocument(ctx, s.doc); err != nil {
		persistFailures.Inc()
		return &PersistenceError{TxID: "flush", Err: err}
	}
	s.dirty = false
	return nil
}
