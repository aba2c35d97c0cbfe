package solana

import (
	"context"
	"testing"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/stretchr/testify/assert"

	mintdom "github.com/x1Brains/x1devtoolkit/internal/domain/mint"
)

func TestSecretManagerKeyBackupSecretID(t *testing.T) {
	b := NewSecretManagerKeyBackup(nil, "incinerator-prod", " tiermint- ")
	id := b.SecretID(mintdom.ProvisionedMint{TierIndex: 4, TierName: "TERMINATE"})
	assert.Equal(t, "tiermint-tier-4-terminate", id)
}

func TestSecretManagerNotConfigured(t *testing.T) {
	ctx := context.Background()

	_, err := NewSecretManagerKeySource(nil, "projects/p/secrets/s/versions/latest").LoadOperator(ctx)
	assert.ErrorIs(t, err, ErrSecretNotConfigured)

	err = NewSecretManagerKeyBackup(nil, "p", "").BackupMintKey(ctx, mintdom.ProvisionedMint{}, types.NewAccount())
	assert.ErrorIs(t, err, ErrSecretNotConfigured)
}
