package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/punchamoorthee/contractledger/internal/date"
	"github.com/punchamoorthee/contractledger/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	group_id       TEXT NOT NULL,
	user_id        TEXT NOT NULL,
	coins          DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (coins >= 0),
	bank           DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (bank >= 0),
	contractors    TEXT[] NOT NULL DEFAULT '{}',
	contracted_by  TEXT,
	last_sign_date DATE,
	consecutive    INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (group_id, user_id)
);
CREATE TABLE IF NOT EXISTS purchase_levels (
	user_id TEXT PRIMARY KEY,
	level   INTEGER NOT NULL
);`

var accountColumns = []string{
	"group_id", "user_id", "coins", "bank", "contractors", "contracted_by", "last_sign_date", "consecutive",
}

// PostgresStorage keeps the document in two tables. A save rewrites both
// tables inside one transaction.
type PostgresStorage struct {
	Db *pgxpool.Pool
}

func NewPostgresStorage(ctx context.Context, connString string) (*PostgresStorage, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to apply schema: %w", err)
	}

	return &PostgresStorage{Db: pool}, nil
}

func (s *PostgresStorage) Close() {
	s.Db.Close()
}

// LoadDocument reads every account and purchase level.
func (s *PostgresStorage) LoadDocument(ctx context.Context) (*domain.Document, error) {
	doc := domain.NewDocument()

	rows, err := s.Db.Query(ctx,
		"SELECT group_id, user_id, coins, bank, contractors, contracted_by, last_sign_date, consecutive FROM accounts")
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			groupID, userID string
			contractedBy    *string
			lastSign        *time.Time
			a               = domain.NewAccount()
		)
		if err := rows.Scan(&groupID, &userID, &a.Coins, &a.Bank, &a.Contractors, &contractedBy, &lastSign, &a.Consecutive); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		if contractedBy != nil {
			a.ContractedBy = *contractedBy
		}
		if lastSign != nil {
			a.LastSignDate = date.New(lastSign.Date())
		}
		g, ok := doc.Groups[groupID]
		if !ok {
			g = domain.Group{}
			doc.Groups[groupID] = g
		}
		g[userID] = a
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read accounts: %w", err)
	}

	levels, err := s.Db.Query(ctx, "SELECT user_id, level FROM purchase_levels")
	if err != nil {
		return nil, fmt.Errorf("query purchase levels: %w", err)
	}
	defer levels.Close()
	for levels.Next() {
		var userID string
		var level int
		if err := levels.Scan(&userID, &level); err != nil {
			return nil, fmt.Errorf("scan purchase level: %w", err)
		}
		doc.PurchaseLevels[userID] = level
	}
	if err := levels.Err(); err != nil {
		return nil, fmt.Errorf("read purchase levels: %w", err)
	}

	doc.Normalize()
	return doc, nil
}

// SaveDocument replaces both tables with the document contents.
func (s *PostgresStorage) SaveDocument(ctx context.Context, doc *domain.Document) error {
	tx, err := s.Db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("tx begin failed: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "TRUNCATE TABLE accounts, purchase_levels"); err != nil {
		return fmt.Errorf("truncate failed: %w", err)
	}

	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"accounts"}, accountColumns, pgx.CopyFromRows(AccountRows(doc))); err != nil {
		return fmt.Errorf("accounts copy failed: %w", err)
	}

	levelRows := make([][]any, 0, len(doc.PurchaseLevels))
	for userID, level := range doc.PurchaseLevels {
		levelRows = append(levelRows, []any{userID, level})
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"purchase_levels"}, []string{"user_id", "level"}, pgx.CopyFromRows(levelRows)); err != nil {
		return fmt.Errorf("purchase levels copy failed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("tx commit failed: %w", err)
	}
	return nil
}

// AccountRows flattens the document into rows matching the accounts columns.
func AccountRows(doc *domain.Document) [][]any {
	var rows [][]any
	for groupID, g := range doc.Groups {
		for userID, a := range g {
			var contractedBy, lastSign any
			if a.ContractedBy != "" {
				contractedBy = a.ContractedBy
			}
			if a.HasSigned() {
				lastSign = a.LastSignDate.Time(time.UTC)
			}
			contractors := a.Contractors
			if contractors == nil {
				contractors = []string{}
			}
			rows = append(rows, []any{groupID, userID, a.Coins, a.Bank, contractors, contractedBy, lastSign, a.Consecutive})
		}
	}
	return rows
}
