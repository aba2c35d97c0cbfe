// internal/application/provision/ports.go
package provision

import (
	"context"

	"github.com/blocto/solana-go-sdk/types"

	mintdom "github.com/x1Brains/x1devtoolkit/internal/domain/mint"
	tierdom "github.com/x1Brains/x1devtoolkit/internal/domain/tier"
)

// LedgerClient is the narrow view of the network the provisioner talks to.
type LedgerClient interface {
	GetBalance(ctx context.Context, address string) (uint64, error)
	GetRentExemptMinimum(ctx context.Context, size uint64) (uint64, error)
	// SubmitAndConfirm signs with every signer, submits, and blocks until the
	// transaction reaches the configured commitment. feePayer pays the fee.
	// On error a non-empty signature means the transaction was sent but its
	// outcome is unknown.
	SubmitAndConfirm(ctx context.Context, feePayer types.Account, signers []types.Account, instructions []types.Instruction) (string, error)
}

// OperatorKeySource loads the long-lived operator (payer / authority) keypair.
type OperatorKeySource interface {
	LoadOperator(ctx context.Context) (types.Account, error)
}

// MintKeyStore persists per-tier mint secrets.
//
// Stage は送信前に呼ばれ、秘密鍵を一時ファイルに書きます。
// 確定後に Commit、失敗時に Discard します。
type MintKeyStore interface {
	Stage(index int, def tierdom.Definition, mintAcc types.Account) (string, error)
	Commit(index int, def tierdom.Definition) (string, error)
	Discard(index int, def tierdom.Definition) error
}

// ResultWriter writes the aggregate {tier, mint} file, replacing previous contents.
type ResultWriter interface {
	WriteResults(ctx context.Context, mints []mintdom.ProvisionedMint) (string, error)
}

// MintRecorder receives every provisioned mint (registry sinks). Errors never fail the tier.
type MintRecorder interface {
	RecordMint(ctx context.Context, m mintdom.ProvisionedMint) error
}

// MintKeyBackup keeps an additional copy of a mint secret.
type MintKeyBackup interface {
	BackupMintKey(ctx context.Context, m mintdom.ProvisionedMint, mintAcc types.Account) error
}

// ReportNotifier is called once after the run with the final report.
type ReportNotifier interface {
	NotifyReport(ctx context.Context, r mintdom.Report) error
}
