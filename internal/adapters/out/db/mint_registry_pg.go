// internal/adapters/out/db/mint_registry_pg.go
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/lib/pq"

	mintdom "github.com/x1Brains/x1devtoolkit/internal/domain/mint"
)

const defaultTable = "tier_mints"

// MintRegistryPG records provisioned mints in PostgreSQL.
// sql.Open は接続しないので、ping と schema 作成は最初の RecordMint まで遅らせる。
type MintRegistryPG struct {
	DB      *sql.DB
	Table   string
	Network string

	mu    sync.Mutex
	ready bool
}

func NewMintRegistryPG(db *sql.DB, table, network string) *MintRegistryPG {
	t := strings.TrimSpace(table)
	if t == "" {
		t = defaultTable
	}
	return &MintRegistryPG{DB: db, Table: t, Network: network}
}

func (r *MintRegistryPG) schemaSQL() string {
	return fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
  mint_address      TEXT PRIMARY KEY,
  tier_index        INTEGER NOT NULL,
  tier_name         TEXT NOT NULL,
  symbol            TEXT NOT NULL,
  signature         TEXT NOT NULL,
  key_file          TEXT NOT NULL,
  network           TEXT NOT NULL DEFAULT '',
  annotation_keys   TEXT[] NOT NULL DEFAULT '{}',
  annotation_values TEXT[] NOT NULL DEFAULT '{}',
  created_at        TIMESTAMPTZ NOT NULL
)`, pq.QuoteIdentifier(r.Table))
}

func (r *MintRegistryPG) insertSQL() string {
	return fmt.Sprintf(`
INSERT INTO %s (
  mint_address, tier_index, tier_name, symbol, signature, key_file,
  network, annotation_keys, annotation_values, created_at
) VALUES (
  $1, $2, $3, $4, $5, $6, $7, $8, $9, $10
)
ON CONFLICT (mint_address) DO NOTHING`, pq.QuoteIdentifier(r.Table))
}

// EnsureSchema creates the registry table when missing.
func (r *MintRegistryPG) EnsureSchema(ctx context.Context) error {
	if r == nil || r.DB == nil {
		return errors.New("db: nil *sql.DB")
	}
	if _, err := r.DB.ExecContext(ctx, r.schemaSQL()); err != nil {
		return fmt.Errorf("db: ensure schema %s: %w", r.Table, err)
	}
	return nil
}

func (r *MintRegistryPG) RecordMint(ctx context.Context, m mintdom.ProvisionedMint) error {
	if r == nil || r.DB == nil {
		return errors.New("db: nil *sql.DB")
	}
	if err := m.Validate(); err != nil {
		return err
	}
	if err := r.prepare(ctx); err != nil {
		return err
	}

	res, err := r.DB.ExecContext(ctx, r.insertSQL(), mintArgs(m, r.Network)...)
	if err != nil {
		return fmt.Errorf("db: record mint %s: %w", m.MintAddress, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		log.Printf("[db] mint already recorded: %s", m.MintAddress)
		return nil
	}
	log.Printf("[db] mint recorded: table=%s tier=%s mint=%s", r.Table, m.TierName, m.MintAddress)
	return nil
}

func mintArgs(m mintdom.ProvisionedMint, network string) []any {
	keys := make([]string, 0, len(m.Annotations))
	values := make([]string, 0, len(m.Annotations))
	for _, a := range m.Annotations {
		keys = append(keys, a.Key)
		values = append(values, a.Value)
	}
	return []any{
		m.MintAddress,
		m.TierIndex,
		m.TierName,
		m.Symbol,
		m.Signature,
		m.KeyFile,
		network,
		pq.Array(keys),
		pq.Array(values),
		m.CreatedAt.UTC(),
	}
}

// prepare pings and ensures the schema once; a failure is retried on the next call.
func (r *MintRegistryPG) prepare(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ready {
		return nil
	}
	if err := r.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("db: ping: %w", err)
	}
	if err := r.EnsureSchema(ctx); err != nil {
		return err
	}
	r.ready = true
	return nil
}
