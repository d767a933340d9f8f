package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/punchamoorthee/contractledger/internal/date"
	"github.com/punchamoorthee/contractledger/internal/domain"
)

func sampleDocument() *domain.Document {
	doc := domain.NewDocument()
	doc.Groups["100"] = domain.Group{
		"1": {Coins: 150.5, Bank: 20, Contractors: []string{"2"}, LastSignDate: date.New(2025, 10, 17), Consecutive: 3},
		"2": {Coins: 0, ContractedBy: "1", Contractors: []string{}},
	}
	doc.PurchaseLevels["2"] = 1
	return doc
}

func TestFileStorageRoundTrip(t *testing.T) {
	fs, err := NewFileStorage(filepath.Join(t.TempDir(), "data", "sign_data.yml"))
	require.NoError(t, err)
	ctx := context.Background()

	empty, err := fs.LoadDocument(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty.Groups)

	require.NoError(t, fs.SaveDocument(ctx, sampleDocument()))

	got, err := fs.LoadDocument(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleDocument(), got)

	raw, err := os.ReadFile(fs.Path())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "last_sign:")
	assert.Contains(t, string(raw), "2025-10-17")
}

func TestFileStorageRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.yml")
	require.NoError(t, os.WriteFile(path, []byte("groups: [unclosed"), 0o600))
	fs, err := NewFileStorage(path)
	require.NoError(t, err)

	_, err = fs.LoadDocument(context.Background())
	assert.Error(t, err)
}

func TestFileStorageBacksAccountStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.yml")
	fs, err := NewFileStorage(path)
	require.NoError(t, err)
	ctx := context.Background()

	s, err := Open(ctx, fs, Options{})
	require.NoError(t, err)
	_, err = s.Commit(ctx, "g", "seed", func(tx *Tx) error {
		tx.Account("u").Coins = 42
		return nil
	})
	require.NoError(t, err)

	reopened, err := Open(ctx, fs, Options{})
	require.NoError(t, err)
	assert.Equal(t, 42.0, reopened.GetOrCreate("g", "u").Coins)
}

func TestBoltStorageRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	bs, err := OpenBolt(path)
	require.NoError(t, err)
	ctx := context.Background()

	empty, err := bs.LoadDocument(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty.Groups)

	require.NoError(t, bs.SaveDocument(ctx, sampleDocument()))
	require.NoError(t, bs.Close())

	bs, err = OpenBolt(path)
	require.NoError(t, err)
	defer bs.Close()
	got, err := bs.LoadDocument(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleDocument(), got)
}

func TestOpenBoltRequiresPath(t *testing.T) {
	_, err := OpenBolt("  ")
	assert.Error(t, err)
}

func TestExternalBalances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "niuniu_lengths.yml")
	require.NoError(t, os.WriteFile(path, []byte("\"100\":\n  \"1\":\n    coins: 30\n    length: 12.5\n"), 0o600))
	ext := NewExternalBalances(path)
	ctx := context.Background()

	bal, err := ext.Balance(ctx, "100", "1")
	require.NoError(t, err)
	assert.Equal(t, 30.0, bal)

	bal, err = ext.Balance(ctx, "100", "nobody")
	require.NoError(t, err)
	assert.Equal(t, 0.0, bal)

	require.NoError(t, ext.Debit(ctx, "100", "1", 12.5))
	bal, err = ext.Balance(ctx, "100", "1")
	require.NoError(t, err)
	assert.Equal(t, 17.5, bal)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "length: 12.5")
}

func TestExternalBalancesMissingFile(t *testing.T) {
	ext := NewExternalBalances(filepath.Join(t.TempDir(), "absent.yml"))
	bal, err := ext.Balance(context.Background(), "g", "u")
	require.NoError(t, err)
	assert.Equal(t, 0.0, bal)
}

func TestOpenBackend(t *testing.T) {
	dir := t.TempDir()

	s, closeFn, err := OpenBackend(context.Background(), BackendOptions{Backend: BackendYAML, DataFile: filepath.Join(dir, "a", "doc.yml")})
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &FileStorage{}, s)

	b, closeBolt, err := OpenBackend(context.Background(), BackendOptions{Backend: BackendBolt, BoltPath: filepath.Join(dir, "b", "ledger.db")})
	require.NoError(t, err)
	defer closeBolt()
	assert.IsType(t, &BoltStorage{}, b)

	_, _, err = OpenBackend(context.Background(), BackendOptions{Backend: "mongo"})
	assert.Error(t, err)
}

const pluginData = `'123':
  '456':
    bank: 20.0
    coins: 500.0
    consecutive: 2
    contracted_by: null
    contractors:
    - '789'
    last_sign: '2025-01-02T08:00:00.123456'
    niuniu_coins: 3.0
  '789':
    bank: 0.0
    coins: 12.5
    consecutive: 0
    contracted_by: '456'
    contractors: []
    last_sign: null
`

func TestFileStorageMigratesPluginLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sign_data.yml")
	require.NoError(t, os.WriteFile(path, []byte(pluginData), 0o600))
	fs, err := NewFileStorage(path)
	require.NoError(t, err)
	ctx := context.Background()

	doc, err := fs.LoadDocument(ctx)
	require.NoError(t, err)
	a := doc.Groups["123"]["456"]
	require.NotNil(t, a)
	assert.Equal(t, 500.0, a.Coins)
	assert.Equal(t, 20.0, a.Bank)
	assert.Equal(t, []string{"789"}, a.Contractors)
	assert.Empty(t, a.ContractedBy)
	assert.Equal(t, date.New(2025, 1, 2), a.LastSignDate)
	assert.Equal(t, 2, a.Consecutive)
	assert.Equal(t, "456", doc.Groups["123"]["789"].ContractedBy)
	assert.True(t, doc.Groups["123"]["789"].LastSignDate.IsZero())

	// A commit elsewhere rewrites the file without losing the migrated balances.
	s, err := Open(ctx, fs, Options{})
	require.NoError(t, err)
	_, err = s.Commit(ctx, "other", "seed", func(tx *Tx) error {
		tx.Account("u").Coins = 1
		return nil
	})
	require.NoError(t, err)

	reopened, err := Open(ctx, fs, Options{})
	require.NoError(t, err)
	assert.Equal(t, 500.0, reopened.GetOrCreate("123", "456").Coins)
	assert.Equal(t, 12.5, reopened.GetOrCreate("123", "789").Coins)
	assert.Equal(t, 1.0, reopened.GetOrCreate("other", "u").Coins)
}

func TestFileStorageRejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.yml")
	require.NoError(t, os.WriteFile(path, []byte("groups: {}\nbalances: {}\n"), 0o600))
	fs, err := NewFileStorage(path)
	require.NoError(t, err)

	_, err = fs.LoadDocument(context.Background())
	assert.Error(t, err)
}
