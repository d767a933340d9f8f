package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

const (
	BackendYAML     = "yaml"
	BackendPostgres = "postgres"
	BackendBolt     = "bolt"
)

// BackendOptions selects and locates a Storage.
type BackendOptions struct {
	Backend  string
	DataFile string
	DBSource string
	BoltPath string
}

// OpenBackend opens the configured storage. The returned func releases it.
func OpenBackend(ctx context.Context, o BackendOptions) (Storage, func(), error) {
	switch o.Backend {
	case BackendPostgres:
		pg, err := NewPostgresStorage(ctx, o.DBSource)
		if err != nil {
			return nil, nil, err
		}
		return pg, pg.Close, nil
	case BackendBolt:
		if err := os.MkdirAll(filepath.Dir(o.BoltPath), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create bolt dir: %w", err)
		}
		db, err := OpenBolt(o.BoltPath)
		if err != nil {
			return nil, nil, err
		}
		return db, func() { _ = db.Close() }, nil
	case BackendYAML, "":
		fs, err := NewFileStorage(o.DataFile)
		if err != nil {
			return nil, nil, err
		}
		return fs, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", o.Backend)
	}
}
