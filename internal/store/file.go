package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/punchamoorthee/contractledger/internal/domain"
)

// FileStorage keeps the document in one YAML file.
type FileStorage struct {
	path string
}

// NewFileStorage prepares the parent directory of path.
func NewFileStorage(path string) (*FileStorage, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("data file path is required")
	}
	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileStorage{path: path}, nil
}

// Path returns the document location.
func (f *FileStorage) Path() string { return f.path }

// LoadDocument reads the file. A missing or empty file is an empty document.
// Files written by the chat plugin (group -> user at the top level) are
// migrated; anything else must match the document layout exactly.
func (f *FileStorage) LoadDocument(ctx context.Context) (*domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.NewDocument(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}
	doc, err := decodeDocument(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", f.path, err)
	}
	doc.Normalize()
	return doc, nil
}

func decodeDocument(data []byte) (*domain.Document, error) {
	var top map[string]yaml.Node
	if err := yaml.Unmarshal(data, &top); err != nil {
		return nil, err
	}
	doc := domain.NewDocument()
	if len(top) == 0 {
		return doc, nil
	}
	_, hasGroups := top["groups"]
	_, hasLevels := top["purchase_levels"]
	if hasGroups || hasLevels {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(doc); err != nil {
			return nil, err
		}
		return doc, nil
	}

	// Plugin layout: extra per-user keys such as niuniu_coins are dropped.
	var legacy map[string]domain.Group
	if err := yaml.Unmarshal(data, &legacy); err != nil {
		return nil, fmt.Errorf("legacy layout: %w", err)
	}
	for gid, g := range legacy {
		doc.Groups[gid] = g
	}
	return doc, nil
}

// SaveDocument writes to a temporary file and renames it over the target,
// so readers never observe a half-written document.
func (f *FileStorage) SaveDocument(ctx context.Context, doc *domain.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace %s: %w", f.path, err)
	}
	return nil
}
