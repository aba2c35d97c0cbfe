// internal/application/provision/provisioner.go
package provision

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/blocto/solana-go-sdk/types"

	mintdom "github.com/x1Brains/x1devtoolkit/internal/domain/mint"
	tierdom "github.com/x1Brains/x1devtoolkit/internal/domain/tier"
)

// Fatal precondition errors. Run returns only these (wrapped); per-tier
// failures are reported in the Report.
var (
	ErrNotConfigured          = errors.New("provision: not configured")
	ErrInvalidCatalog         = errors.New("provision: invalid tier catalog")
	ErrOperatorKeyUnavailable = errors.New("provision: operator keypair unavailable")
	ErrBalanceUnavailable     = errors.New("provision: operator balance query failed")
	ErrInsufficientBalance    = errors.New("provision: insufficient operator balance")
)

// Provisioner creates one Token-2022 mint per tier.
type Provisioner struct {
	Settings  Settings
	Ledger    LedgerClient
	Operator  OperatorKeySource
	KeyStore  MintKeyStore
	Results   ResultWriter
	Recorders []MintRecorder
	Backups   []MintKeyBackup
	Notifiers []ReportNotifier

	// AttachSinks runs once, after the operator key and balance checks pass
	// and before the first tier. Sinks that need the network are added here.
	AttachSinks func(ctx context.Context, p *Provisioner)

	// Out receives the human-readable progress lines and summary.
	Out io.Writer
	// NewMintAccount generates the fresh mint keypair for every attempt.
	NewMintAccount func() types.Account
	Now            func() time.Time
}

func NewProvisioner(
	settings Settings,
	ledger LedgerClient,
	operator OperatorKeySource,
	keyStore MintKeyStore,
	results ResultWriter,
) *Provisioner {
	return &Provisioner{
		Settings:       settings,
		Ledger:         ledger,
		Operator:       operator,
		KeyStore:       keyStore,
		Results:        results,
		Out:            os.Stdout,
		NewMintAccount: types.NewAccount,
		Now:            time.Now,
	}
}

// Run checks the preconditions and then attempts every tier in order.
// A returned error is always fatal and means no tier was attempted.
func (p *Provisioner) Run(ctx context.Context, tiers tierdom.Catalog) (mintdom.Report, error) {
	if p == nil || p.Ledger == nil || p.Operator == nil || p.KeyStore == nil || p.Results == nil {
		return mintdom.Report{}, ErrNotConfigured
	}
	if err := tiers.Validate(); err != nil {
		return mintdom.Report{}, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	// 1) operator keypair（ここで失敗したらネットワークには一切触れない）
	operator, err := p.Operator.LoadOperator(ctx)
	if err != nil {
		return mintdom.Report{}, fmt.Errorf("%w: %v", ErrOperatorKeyUnavailable, err)
	}
	p.printf("Wallet: %s\n\n", operator.PublicKey.ToBase58())

	// 2) balance check
	balance, err := p.Ledger.GetBalance(ctx, operator.PublicKey.ToBase58())
	if err != nil {
		return mintdom.Report{}, fmt.Errorf("%w: %v", ErrBalanceUnavailable, err)
	}
	p.printf("Balance: %s SOL\n", formatSOL(balance))
	if balance < p.Settings.MinOperatorBalance {
		return mintdom.Report{}, fmt.Errorf("%w: have %s SOL, need at least %s SOL",
			ErrInsufficientBalance, formatSOL(balance), formatSOL(p.Settings.MinOperatorBalance))
	}

	if p.AttachSinks != nil {
		p.AttachSinks(ctx, p)
	}

	report := mintdom.Report{
		Operator:  operator.PublicKey.ToBase58(),
		StartedAt: p.now(),
		Outcomes:  make([]mintdom.TierOutcome, 0, len(tiers)),
	}
	var succeeded []mintdom.ProvisionedMint

	// 3) tiers, one at a time
	for i, def := range tiers {
		if ctx.Err() != nil {
			report.Outcomes = append(report.Outcomes, mintdom.Failed(i, def.Name, ctx.Err()))
			continue
		}

		p.printf("\n[%d/%d] Creating %s (%s)...\n", i+1, len(tiers), def.Name, def.Symbol)
		p.printf("  Supply: %d | Decimals: %d\n", def.Supply, p.Settings.Decimals)

		outcome := p.provisionTier(ctx, operator, i, def)
		report.Outcomes = append(report.Outcomes, outcome)

		if !outcome.OK() {
			p.printf("  ❌ Failed: %s\n", outcome.Failure.Reason)
			log.Printf("[provision] tier failed: index=%d tier=%s reason=%s", i, def.Name, outcome.Failure.Reason)
			continue
		}

		m := *outcome.Success
		p.printf("  ✅ Mint: %s\n", m.MintAddress)
		p.printf("  TX: %s\n", m.Signature)

		succeeded = append(succeeded, m)

		// aggregate ファイルは成功のたびに書き直す（途中で止まっても keys/ と矛盾しない）
		if _, err := p.Results.WriteResults(ctx, succeeded); err != nil {
			log.Printf("[provision] WARN: incremental result write failed: %v", err)
		}
		p.record(ctx, m)
	}

	// 4) final aggregate write（成功 0 件なら既存ファイルは ResultWriter 側で残す）
	outPath, err := p.Results.WriteResults(context.WithoutCancel(ctx), succeeded)
	if err != nil {
		log.Printf("[provision] ERROR: result write failed: %v", err)
	}
	report.OutputPath = outPath
	report.FinishedAt = p.now()

	p.printSummary(report)
	p.notify(context.WithoutCancel(ctx), report)

	return report, nil
}

// provisionTier never returns an error: every failure becomes a Failure outcome.
func (p *Provisioner) provisionTier(ctx context.Context, operator types.Account, index int, def tierdom.Definition) mintdom.TierOutcome {
	fail := func(step string, err error) mintdom.TierOutcome {
		return mintdom.Failed(index, def.Name, fmt.Errorf("%s: %w", step, err))
	}

	// 1) fresh mint keypair（毎回新規。再試行でも同じアドレスは使わない）
	mintAcc := p.NewMintAccount()

	// 2) size
	plan, err := BuildTierPlan(p.Settings, index, def, operator.PublicKey, mintAcc.PublicKey)
	if err != nil {
		return fail("plan", err)
	}

	// 3) rent
	lamports, err := p.rentExemptMinimum(ctx, plan.Space)
	if err != nil {
		return fail("rent", err)
	}

	// 4) instructions
	ins, err := plan.Instructions(p.Settings, lamports)
	if err != nil {
		return fail("build", err)
	}

	// 送信前に秘密鍵を退避しておく
	stagedPath, err := p.KeyStore.Stage(index, def, mintAcc)
	if err != nil {
		return fail("stage key", err)
	}

	// 5-6) sign (operator + mint) / submit / confirm
	sig, err := p.Ledger.SubmitAndConfirm(ctx, operator, []types.Account{operator, mintAcc}, ins)
	if err != nil {
		if sig != "" {
			// 送信済みで結果不明。mint が作られている可能性があるので鍵は消さない。
			log.Printf("[provision] WARN: unconfirmed tx=%s, mint key kept at %s: tier=%s mint=%s",
				sig, stagedPath, def.Name, mintAcc.PublicKey.ToBase58())
			return fail("confirm", fmt.Errorf("%w (tx %s, key kept at %s)", err, sig, stagedPath))
		}
		if derr := p.KeyStore.Discard(index, def); derr != nil {
			log.Printf("[provision] WARN: discard staged key failed: tier=%s path=%s err=%v", def.Name, stagedPath, derr)
		}
		return fail("submit", err)
	}

	// 7) persist
	keyPath, err := p.KeyStore.Commit(index, def)
	if err != nil {
		// mint は on-chain で生きているので成功扱い。鍵は staged のまま残す。
		log.Printf("[provision] WARN: commit key failed, secret kept at %s: tier=%s err=%v", stagedPath, def.Name, err)
		keyPath = stagedPath
	}

	m := mintdom.ProvisionedMint{
		TierIndex:   index,
		TierName:    def.Name,
		Symbol:      def.Symbol,
		MintAddress: mintAcc.PublicKey.ToBase58(),
		Signature:   sig,
		KeyFile:     keyPath,
		Annotations: plan.Annotations(),
		CreatedAt:   p.now(),
	}
	p.backup(ctx, m, mintAcc)

	return mintdom.Succeeded(m)
}

func (p *Provisioner) rentExemptMinimum(ctx context.Context, size uint64) (uint64, error) {
	attempts := p.Settings.RentQueryAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for a := 1; a <= attempts; a++ {
		lamports, err := p.Ledger.GetRentExemptMinimum(ctx, size)
		if err == nil {
			return lamports, nil
		}
		lastErr = err
		if a == attempts {
			break
		}
		log.Printf("[provision] WARN: rent query failed (attempt %d/%d): %v", a, attempts, err)
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(p.Settings.RentRetryDelay):
		}
	}
	return 0, lastErr
}

func (p *Provisioner) record(ctx context.Context, m mintdom.ProvisionedMint) {
	for _, r := range p.Recorders {
		if err := r.RecordMint(ctx, m); err != nil {
			log.Printf("[provision] WARN: record mint failed: tier=%s err=%v", m.TierName, err)
		}
	}
}

func (p *Provisioner) backup(ctx context.Context, m mintdom.ProvisionedMint, mintAcc types.Account) {
	for _, b := range p.Backups {
		if err := b.BackupMintKey(ctx, m, mintAcc); err != nil {
			log.Printf("[provision] WARN: mint key backup failed: tier=%s err=%v", m.TierName, err)
		}
	}
}

func (p *Provisioner) notify(ctx context.Context, r mintdom.Report) {
	for _, n := range p.Notifiers {
		if err := n.NotifyReport(ctx, r); err != nil {
			log.Printf("[provision] WARN: notify failed: %v", err)
		}
	}
}

func (p *Provisioner) printSummary(r mintdom.Report) {
	line := strings.Repeat("─", 49)
	p.printf("\n%s\nDEPLOYMENT SUMMARY\n%s\n", line, line)
	for _, m := range r.Succeeded() {
		p.printf("  %-14s → %s\n", m.TierName, m.MintAddress)
	}
	if failed := r.Failed(); len(failed) > 0 {
		p.printf("\n  failed: %d\n", len(failed))
		for _, f := range failed {
			p.printf("  %-14s ✗ %s\n", f.TierName, f.Reason)
		}
	}
	if r.OutputPath != "" {
		p.printf("\nSaved to: %s\n", r.OutputPath)
	}
}

func (p *Provisioner) printf(format string, args ...any) {
	if p.Out == nil {
		return
	}
	fmt.Fprintf(p.Out, format, args...)
}

func (p *Provisioner) now() time.Time {
	if p.Now == nil {
		return time.Now().UTC()
	}
	return p.Now().UTC()
}

func formatSOL(lamports uint64) string {
	return fmt.Sprintf("%.4f", float64(lamports)/float64(LamportsPerSOL))
}
