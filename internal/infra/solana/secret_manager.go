// internal/infra/solana/secret_manager.go
package solana

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	secretspb "cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/blocto/solana-go-sdk/types"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	mintdom "github.com/x1Brains/x1devtoolkit/internal/domain/mint"
)

var (
	ErrSecretNotConfigured = errors.New("solana.secret: not configured")
	ErrSecretEmpty         = errors.New("solana.secret: payload is empty")
)

// SecretManagerKeySource は Secret Manager の Secret Version から
// solana-keygen 形式の operator keypair を復元します。
//
// SecretVersion には
//
//	"projects/<PROJECT_ID>/secrets/<SECRET_ID>/versions/latest"
//
// のようなフルパスを設定してください。
type SecretManagerKeySource struct {
	Client        *secretmanager.Client
	SecretVersion string
}

func NewSecretManagerKeySource(client *secretmanager.Client, secretVersion string) *SecretManagerKeySource {
	return &SecretManagerKeySource{Client: client, SecretVersion: strings.TrimSpace(secretVersion)}
}

func (s *SecretManagerKeySource) LoadOperator(ctx context.Context) (types.Account, error) {
	if s == nil || s.Client == nil || s.SecretVersion == "" {
		return types.Account{}, ErrSecretNotConfigured
	}

	resp, err := s.Client.AccessSecretVersion(ctx, &secretspb.AccessSecretVersionRequest{
		Name: s.SecretVersion,
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return types.Account{}, fmt.Errorf("%w: secret %s", ErrKeypairNotFound, s.SecretVersion)
		}
		return types.Account{}, fmt.Errorf("solana.secret: AccessSecretVersion: %w", err)
	}
	if resp == nil || resp.Payload == nil || len(resp.Payload.Data) == 0 {
		return types.Account{}, ErrSecretEmpty
	}

	acc, err := DecodeKeypairJSON(resp.Payload.Data)
	if err != nil {
		return types.Account{}, err
	}

	log.Printf("[solana.secret] loaded operator keypair from Secret Manager: secret=%s pubkey=%s",
		s.SecretVersion, acc.PublicKey.ToBase58())
	return acc, nil
}

// SecretManagerKeyBackup は作成した mint の秘密鍵を Secret Manager にも保存します。
// ローカルの keys/ ファイルが失われてもミント権限を失わないための二重化です。
//
// secretId = <prefix>tier-<index>-<lower(tierName)>
type SecretManagerKeyBackup struct {
	Client         *secretmanager.Client
	ProjectID      string
	SecretIDPrefix string
}

func NewSecretManagerKeyBackup(client *secretmanager.Client, projectID, prefix string) *SecretManagerKeyBackup {
	return &SecretManagerKeyBackup{
		Client:         client,
		ProjectID:      strings.TrimSpace(projectID),
		SecretIDPrefix: strings.TrimSpace(prefix),
	}
}

// SecretID returns the secret id used for a provisioned mint.
func (b *SecretManagerKeyBackup) SecretID(m mintdom.ProvisionedMint) string {
	return fmt.Sprintf("%stier-%d-%s", b.SecretIDPrefix, m.TierIndex, strings.ToLower(strings.TrimSpace(m.TierName)))
}

func (b *SecretManagerKeyBackup) BackupMintKey(ctx context.Context, m mintdom.ProvisionedMint, mintAcc types.Account) error {
	if b == nil || b.Client == nil || b.ProjectID == "" {
		return ErrSecretNotConfigured
	}

	payload, err := EncodeKeypairJSON(mintAcc)
	if err != nil {
		return err
	}

	secretID := b.SecretID(m)
	parent := fmt.Sprintf("projects/%s", b.ProjectID)
	secretName := fmt.Sprintf("%s/secrets/%s", parent, secretID)

	// Secret が存在しない場合のみ作成
	_, err = b.Client.GetSecret(ctx, &secretspb.GetSecretRequest{Name: secretName})
	if err != nil {
		if status.Code(err) != codes.NotFound {
			return fmt.Errorf("solana.secret: GetSecret %s: %w", secretID, err)
		}
		_, cerr := b.Client.CreateSecret(ctx, &secretspb.CreateSecretRequest{
			Parent:   parent,
			SecretId: secretID,
			Secret: &secretspb.Secret{
				Labels: map[string]string{
					"tier-index": fmt.Sprintf("%d", m.TierIndex),
				},
				Replication: &secretspb.Replication{
					Replication: &secretspb.Replication_Automatic_{
						Automatic: &secretspb.Replication_Automatic{},
					},
				},
			},
		})
		if cerr != nil {
			return fmt.Errorf("solana.secret: CreateSecret %s: %w", secretID, cerr)
		}
	}

	res, err := b.Client.AddSecretVersion(ctx, &secretspb.AddSecretVersionRequest{
		Parent:  secretName,
		Payload: &secretspb.SecretPayload{Data: payload},
	})
	if err != nil {
		return fmt.Errorf("solana.secret: AddSecretVersion %s: %w", secretID, err)
	}

	log.Printf("[solana.secret] backed up mint key: tier=%s mint=%s version=%s",
		m.TierName, maskShort(m.MintAddress), res.GetName())
	return nil
}
