// internal/infra/solana/verifier.go
package solana

import (
	"context"
	"fmt"
	"strings"

	"github.com/blocto/solana-go-sdk/client"

	mintdom "github.com/x1Brains/x1devtoolkit/internal/domain/mint"
	"github.com/x1Brains/x1devtoolkit/internal/infra/solana/token2022"
)

type accountReader interface {
	GetAccountInfo(ctx context.Context, base58Addr string) (client.AccountInfo, error)
}

var _ accountReader = (*client.Client)(nil)

// MintCheck is the on-chain state of one aggregate record.
type MintCheck struct {
	Tier      string
	Mint      string
	Exists    bool
	Token2022 bool
	Lamports  uint64
	DataLen   int
	Err       error
}

func (c MintCheck) OK() bool { return c.Err == nil && c.Exists && c.Token2022 }

// MintVerifier checks that recorded mints are live Token-2022 accounts.
type MintVerifier struct {
	RPC accountReader
}

func NewMintVerifier(endpoint string) *MintVerifier {
	ep := strings.TrimSpace(endpoint)
	if ep == "" {
		ep = TestnetEndpoint
	}
	return &MintVerifier{RPC: client.NewClient(ep)}
}

// Verify checks every record in order. RPC errors are reported per record.
func (v *MintVerifier) Verify(ctx context.Context, records []mintdom.AggregateRecord) ([]MintCheck, error) {
	if v == nil || v.RPC == nil {
		return nil, ErrLedgerNotConfigured
	}

	out := make([]MintCheck, 0, len(records))
	for _, r := range records {
		c := MintCheck{Tier: r.Tier, Mint: r.Mint}

		info, err := v.RPC.GetAccountInfo(ctx, strings.TrimSpace(r.Mint))
		if err != nil {
			c.Err = fmt.Errorf("GetAccountInfo %s: %w", maskShort(r.Mint), err)
			out = append(out, c)
			continue
		}

		// 存在しないアカウントは空の AccountInfo が返る
		c.Exists = info.Lamports > 0
		c.Token2022 = info.Owner == token2022.ProgramID
		c.Lamports = info.Lamports
		c.DataLen = len(info.Data)
		out = append(out, c)
	}
	return out, nil
}
