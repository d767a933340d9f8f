package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// ExternalBalances reads and debits coins held in a sibling system's YAML
// document laid out as group -> user -> {coins: float, ...}. Fields other
// than coins are preserved on write.
type ExternalBalances struct {
	mu   sync.Mutex
	path string
}

func NewExternalBalances(path string) *ExternalBalances {
	return &ExternalBalances{path: path}
}

type foreignDoc map[string]map[string]map[string]any

func (e *ExternalBalances) read() (foreignDoc, error) {
	data, err := os.ReadFile(e.path)
	if errors.Is(err, fs.ErrNotExist) {
		return foreignDoc{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read external ledger: %w", err)
	}
	doc := foreignDoc{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse external ledger: %w", err)
	}
	return doc, nil
}

func coinsOf(entry map[string]any) float64 {
	switch v := entry["coins"].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

// Balance returns the user's external coins, 0 when absent.
func (e *ExternalBalances) Balance(ctx context.Context, group, user string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	doc, err := e.read()
	if err != nil {
		return 0, err
	}
	return coinsOf(doc[group][user]), nil
}

// Debit subtracts amount from the user's external coins.
func (e *ExternalBalances) Debit(ctx context.Context, group, user string, amount float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	doc, err := e.read()
	if err != nil {
		return err
	}
	if doc[group] == nil {
		doc[group] = map[string]map[string]any{}
	}
	entry := doc[group][user]
	if entry == nil {
		entry = map[string]any{}
		doc[group][user] = entry
	}
	entry["coins"] = coinsOf(entry) - amount

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode external ledger: %w", err)
	}
	if err := os.WriteFile(e.path, data, 0o600); err != nil {
		return fmt.Errorf("write external ledger: %w", err)
	}
	return nil
}
