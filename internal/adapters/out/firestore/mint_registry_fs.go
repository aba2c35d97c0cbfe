// internal/adapters/out/firestore/mint_registry_fs.go
package firestore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	mintdom "github.com/x1Brains/x1devtoolkit/internal/domain/mint"
)

const defaultCollection = "tier_mints"

// MintRegistryFS は作成済み mint を Firestore に記録します。
// doc ID は mint address（同じ mint は二度書かない）。
type MintRegistryFS struct {
	Client     *firestore.Client
	Collection string
	Network    string
}

func NewMintRegistryFS(client *firestore.Client, collection, network string) *MintRegistryFS {
	c := strings.TrimSpace(collection)
	if c == "" {
		c = defaultCollection
	}
	return &MintRegistryFS{Client: client, Collection: c, Network: network}
}

func (r *MintRegistryFS) RecordMint(ctx context.Context, m mintdom.ProvisionedMint) error {
	if r == nil || r.Client == nil {
		return errors.New("firestore client is nil")
	}
	if err := m.Validate(); err != nil {
		return err
	}

	docRef := r.Client.Collection(r.Collection).Doc(m.MintAddress)
	if _, err := docRef.Create(ctx, mintDocData(m, r.Network)); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			log.Printf("[firestore] mint already recorded: %s", m.MintAddress)
			return nil
		}
		return fmt.Errorf("firestore: record mint %s: %w", m.MintAddress, err)
	}

	log.Printf("[firestore] mint recorded: collection=%s tier=%s mint=%s", r.Collection, m.TierName, m.MintAddress)
	return nil
}

// mintDocData はドメインのフィールドを落とさないように明示的にマッピングします。
// 秘密鍵そのものは保存しない（keyFile はパスのみ）。
func mintDocData(m mintdom.ProvisionedMint, network string) map[string]interface{} {
	annotations := make(map[string]interface{}, len(m.Annotations))
	for _, a := range m.Annotations {
		annotations[a.Key] = a.Value
	}

	data := map[string]interface{}{
		"tierIndex":   m.TierIndex,
		"tierName":    m.TierName,
		"symbol":      m.Symbol,
		"mintAddress": m.MintAddress,
		"signature":   m.Signature,
		"keyFile":     m.KeyFile,
		"metadata":    annotations,
		"createdAt":   m.CreatedAt.UTC(),
	}
	if network != "" {
		data["network"] = network
	}
	return data
}
