package db

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mintdom "github.com/x1Brains/x1devtoolkit/internal/domain/mint"
)

func TestMintRegistrySQLQuotesTable(t *testing.T) {
	r := NewMintRegistryPG(nil, `tier "mints"`, "mainnet")

	assert.Contains(t, r.schemaSQL(), `CREATE TABLE IF NOT EXISTS "tier ""mints"""`)
	assert.Contains(t, r.insertSQL(), `INSERT INTO "tier ""mints"""`)
	assert.Contains(t, r.insertSQL(), "ON CONFLICT (mint_address) DO NOTHING")

	assert.Equal(t, "tier_mints", NewMintRegistryPG(nil, " ", "").Table)
}

func TestMintArgs(t *testing.T) {
	created := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	m := mintdom.ProvisionedMint{
		TierIndex:   0,
		TierName:    "INCINERATOR",
		Symbol:      "INCNR",
		MintAddress: "So11111111111111111111111111111111111111112",
		Signature:   "5sig",
		KeyFile:     "keys/tier_0_incinerator.json",
		Annotations: []mintdom.Annotation{{Key: "tier_index", Value: "0"}, {Key: "max_supply", Value: "33"}},
		CreatedAt:   created,
	}

	args := mintArgs(m, "mainnet")
	require.Len(t, args, 10)
	assert.Equal(t, m.MintAddress, args[0])
	assert.Equal(t, "mainnet", args[6])
	assert.Equal(t, pq.Array([]string{"tier_index", "max_supply"}), args[7])
	assert.Equal(t, pq.Array([]string{"0", "33"}), args[8])
	assert.Equal(t, created, args[9])
}

func TestRecordMintWithoutDB(t *testing.T) {
	var r *MintRegistryPG
	assert.Error(t, r.RecordMint(context.Background(), mintdom.ProvisionedMint{}))
	assert.Error(t, NewMintRegistryPG(nil, "", "").EnsureSchema(context.Background()))
}

// countingListener accepts and immediately drops connections, counting them.
func countingListener(t *testing.T) (addr string, accepted *atomic.Int32) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	accepted = &atomic.Int32{}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			accepted.Add(1)
			_ = conn.Close()
		}
	}()
	return ln.Addr().String(), accepted
}

func TestMintRegistryConnectsOnFirstRecord(t *testing.T) {
	addr, accepted := countingListener(t)
	db, err := sql.Open("postgres", fmt.Sprintf("postgres://tiermint@%s/mints?sslmode=disable&connect_timeout=2", addr))
	require.NoError(t, err)
	defer db.Close()

	r := NewMintRegistryPG(db, "", "testnet")
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), accepted.Load(), "constructing the registry must not dial")

	err = r.RecordMint(context.Background(), mintdom.ProvisionedMint{
		TierName:    "SPARK",
		MintAddress: "So11111111111111111111111111111111111111112",
		CreatedAt:   time.Now(),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db: ping")
	assert.Eventually(t, func() bool { return accepted.Load() > 0 }, time.Second, 10*time.Millisecond)
}
