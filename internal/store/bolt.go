package store

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.etcd.io/bbolt"

	"github.com/punchamoorthee/contractledger/internal/domain"
)

const (
	ledgerBucket = "ledger"
	documentKey  = "document"
)

// BoltStorage keeps the document as one JSON value in a BoltDB file.
type BoltStorage struct {
	db *bbolt.DB
}

// OpenBolt opens a BoltDB-backed storage at the provided path.
func OpenBolt(path string) (*BoltStorage, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	db, err := bbolt.Open(filepath.Clean(path), 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open storage db: %w", err)
	}

	s := &BoltStorage{db: db}
	if err := s.ensureBuckets(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying BoltDB database.
func (s *BoltStorage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *BoltStorage) LoadDocument(ctx context.Context) (*domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc := domain.NewDocument()
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(ledgerBucket))
		if bucket == nil {
			return fmt.Errorf("ledger bucket is missing")
		}
		payload := bucket.Get([]byte(documentKey))
		if payload == nil {
			return nil
		}
		if err := json.Unmarshal(payload, doc); err != nil {
			return fmt.Errorf("unmarshal document: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	doc.Normalize()
	return doc, nil
}

func (s *BoltStorage) SaveDocument(ctx context.Context, doc *domain.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(ledgerBucket))
		if bucket == nil {
			return fmt.Errorf("ledger bucket is missing")
		}
		return bucket.Put([]byte(documentKey), payload)
	})
}

func (s *BoltStorage) ensureBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(ledgerBucket)); err != nil {
			return fmt.Errorf("create ledger bucket: %w", err)
		}
		return nil
	})
}
