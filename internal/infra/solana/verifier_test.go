package solana

import (
	"context"
	"errors"
	"testing"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mintdom "github.com/x1Brains/x1devtoolkit/internal/domain/mint"
	"github.com/x1Brains/x1devtoolkit/internal/infra/solana/token2022"
)

type fakeAccountReader map[string]client.AccountInfo

func (f fakeAccountReader) GetAccountInfo(ctx context.Context, addr string) (client.AccountInfo, error) {
	if addr == "broken" {
		return client.AccountInfo{}, errors.New("rpc down")
	}
	return f[addr], nil
}

func TestMintVerifier(t *testing.T) {
	v := &MintVerifier{RPC: fakeAccountReader{
		"live":   {Lamports: 5_000_000, Owner: token2022.ProgramID, Data: make([]byte, 600)},
		"legacy": {Lamports: 1_000_000},
	}}

	checks, err := v.Verify(context.Background(), []mintdom.AggregateRecord{
		{Tier: "INCINERATOR", Mint: "live"},
		{Tier: "APOCALYPSE", Mint: "legacy"},
		{Tier: "GODSLAYER", Mint: "gone"},
		{Tier: "SPARK", Mint: "broken"},
	})
	require.NoError(t, err)
	require.Len(t, checks, 4)

	assert.True(t, checks[0].OK())
	assert.Equal(t, 600, checks[0].DataLen)

	assert.True(t, checks[1].Exists)
	assert.False(t, checks[1].Token2022)
	assert.False(t, checks[1].OK())

	assert.False(t, checks[2].Exists)

	assert.Error(t, checks[3].Err)
	assert.Equal(t, "SPARK", checks[3].Tier)
}
