package store

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/punchamoorthee/contractledger/internal/domain"
)

func TestAccountRows(t *testing.T) {
	rows := AccountRows(sampleDocument())
	require.Len(t, rows, 2)
	for _, row := range rows {
		require.Len(t, row, len(accountColumns))
		switch row[1] {
		case "1":
			assert.Nil(t, row[5])
			assert.NotNil(t, row[6])
			assert.Equal(t, []string{"2"}, row[4])
		case "2":
			assert.Equal(t, "1", row[5])
			assert.Nil(t, row[6])
		}
	}
}

func TestPostgresStorageRoundTrip(t *testing.T) {
	dsn := os.Getenv("TEST_DB_SOURCE")
	if dsn == "" {
		t.Skip("TEST_DB_SOURCE not set")
	}
	ctx := context.Background()
	ps, err := NewPostgresStorage(ctx, dsn)
	require.NoError(t, err)
	defer ps.Close()

	require.NoError(t, ps.SaveDocument(ctx, sampleDocument()))
	got, err := ps.LoadDocument(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleDocument(), got)

	require.NoError(t, ps.SaveDocument(ctx, domain.NewDocument()))
	got, err = ps.LoadDocument(ctx)
	require.NoError(t, err)
	assert.Empty(t, got.Groups)
}
