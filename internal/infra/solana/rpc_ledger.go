// internal/infra/solana/rpc_ledger.go
package solana

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/rpc"
	"github.com/blocto/solana-go-sdk/types"
)

var (
	ErrLedgerNotConfigured = errors.New("solana.rpc: ledger client not configured")
	ErrConfirmTimeout      = errors.New("solana.rpc: confirmation timed out")
	ErrTransactionFailed   = errors.New("solana.rpc: transaction failed")
	ErrNoSigners           = errors.New("solana.rpc: no signers")
)

// X1 (SVM) の RPC endpoint
const (
	TestnetEndpoint = "https://rpc.testnet.x1.xyz"
	MainnetEndpoint = "https://rpc.mainnet.x1.xyz"
)

// EndpointForNetwork resolves "mainnet" / "testnet" to an RPC URL. Anything else is testnet.
func EndpointForNetwork(network string) string {
	if strings.EqualFold(strings.TrimSpace(network), "mainnet") {
		return MainnetEndpoint
	}
	return TestnetEndpoint
}

// rpcAPI is the subset of *client.Client the ledger uses.
type rpcAPI interface {
	GetBalance(ctx context.Context, base58Addr string) (uint64, error)
	GetMinimumBalanceForRentExemption(ctx context.Context, dataLen uint64) (uint64, error)
	GetLatestBlockhash(ctx context.Context) (rpc.GetLatestBlockhashValue, error)
	SendTransaction(ctx context.Context, tx types.Transaction) (string, error)
	GetSignatureStatus(ctx context.Context, signature string) (*rpc.SignatureStatus, error)
}

var _ rpcAPI = (*client.Client)(nil)

// RPCLedger wraps the blocto client with the three operations the provisioner needs.
type RPCLedger struct {
	RPC rpcAPI

	Endpoint       string
	Commitment     rpc.Commitment // e.g. "confirmed"
	ConfirmTimeout time.Duration
	PollInterval   time.Duration
}

// NewRPCLedger constructs a ledger client for endpoint.
func NewRPCLedger(endpoint string, commitment string, confirmTimeout time.Duration) *RPCLedger {
	ep := strings.TrimSpace(endpoint)
	if ep == "" {
		ep = TestnetEndpoint
	}
	c := rpc.Commitment(strings.TrimSpace(commitment))
	if c == "" {
		c = rpc.CommitmentConfirmed
	}
	if confirmTimeout <= 0 {
		confirmTimeout = 60 * time.Second
	}
	return &RPCLedger{
		RPC:            client.NewClient(ep),
		Endpoint:       ep,
		Commitment:     c,
		ConfirmTimeout: confirmTimeout,
		PollInterval:   500 * time.Millisecond,
	}
}

func (l *RPCLedger) GetBalance(ctx context.Context, address string) (uint64, error) {
	if l == nil || l.RPC == nil {
		return 0, ErrLedgerNotConfigured
	}
	bal, err := l.RPC.GetBalance(ctx, strings.TrimSpace(address))
	if err != nil {
		return 0, fmt.Errorf("solana.rpc: GetBalance: %w", err)
	}
	return bal, nil
}

func (l *RPCLedger) GetRentExemptMinimum(ctx context.Context, size uint64) (uint64, error) {
	if l == nil || l.RPC == nil {
		return 0, ErrLedgerNotConfigured
	}
	lamports, err := l.RPC.GetMinimumBalanceForRentExemption(ctx, size)
	if err != nil {
		return 0, fmt.Errorf("solana.rpc: GetMinimumBalanceForRentExemption: %w", err)
	}
	return lamports, nil
}

// SubmitAndConfirm does:
// - fetch recent blockhash
// - build + sign the transaction (feePayer pays, every signer signs)
// - send it
// - poll the signature status until Commitment is reached
//
// On error the signature is non-empty only when the transaction was sent and
// its outcome is unknown (timeout / cancellation).
func (l *RPCLedger) SubmitAndConfirm(
	ctx context.Context,
	feePayer types.Account,
	signers []types.Account,
	instructions []types.Instruction,
) (string, error) {
	if l == nil || l.RPC == nil {
		return "", ErrLedgerNotConfigured
	}
	if len(signers) == 0 {
		return "", ErrNoSigners
	}

	latest, err := l.RPC.GetLatestBlockhash(ctx)
	if err != nil {
		return "", fmt.Errorf("solana.rpc: GetLatestBlockhash: %w", err)
	}

	tx, err := types.NewTransaction(types.NewTransactionParam{
		Message: types.NewMessage(types.NewMessageParam{
			FeePayer:        feePayer.PublicKey,
			RecentBlockhash: latest.Blockhash,
			Instructions:    instructions,
		}),
		Signers: signers,
	})
	if err != nil {
		return "", fmt.Errorf("solana.rpc: NewTransaction: %w", err)
	}

	sig, err := l.RPC.SendTransaction(ctx, tx)
	if err != nil {
		return "", fmt.Errorf("solana.rpc: SendTransaction: %w", err)
	}
	log.Printf("[solana.rpc] submitted tx=%s commitment=%s", maskShort(sig), l.Commitment)

	if err := l.waitForCommitment(ctx, sig); err != nil {
		if errors.Is(err, ErrTransactionFailed) {
			// on-chain で失敗が確定。何も作られていない。
			return "", err
		}
		// 送信済みだが未確定: 呼び出し側が鍵を残せるよう signature を返す
		return sig, err
	}
	return sig, nil
}

func (l *RPCLedger) waitForCommitment(ctx context.Context, sig string) error {
	ctx, cancel := context.WithTimeout(ctx, l.ConfirmTimeout)
	defer cancel()

	interval := l.PollInterval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		st, err := l.RPC.GetSignatureStatus(ctx, sig)
		switch {
		case err != nil:
			// 一時的な RPC エラーはタイムアウトまでリトライ
			log.Printf("[solana.rpc] WARN: GetSignatureStatus tx=%s: %v", maskShort(sig), err)
		case st != nil && st.Err != nil:
			return fmt.Errorf("%w: tx=%s err=%v", ErrTransactionFailed, sig, st.Err)
		case st != nil && reached(st.ConfirmationStatus, l.Commitment):
			return nil
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("%w: tx=%s after %s", ErrConfirmTimeout, sig, l.ConfirmTimeout)
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func commitmentRank(c rpc.Commitment) int {
	switch c {
	case rpc.CommitmentProcessed:
		return 1
	case rpc.CommitmentConfirmed:
		return 2
	case rpc.CommitmentFinalized:
		return 3
	default:
		return 0
	}
}

func reached(got *rpc.Commitment, want rpc.Commitment) bool {
	if got == nil {
		return false
	}
	return commitmentRank(*got) >= commitmentRank(want)
}

func maskShort(s string) string {
	t := strings.TrimSpace(s)
	if t == "" {
		return ""
	}
	if len(t) <= 10 {
		return t
	}
	return t[:4] + "***" + t[len(t)-4:]
}
