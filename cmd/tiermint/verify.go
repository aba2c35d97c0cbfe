// cmd/tiermint/verify.go
package main

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/x1Brains/x1devtoolkit/internal/adapters/out/localfs"
	solanainfra "github.com/x1Brains/x1devtoolkit/internal/infra/solana"
	"github.com/x1Brains/x1devtoolkit/internal/platform/di"
)

func newVerifyCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check that every mint in the aggregate result file exists on the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return verifyHandler(cmd, root)
		},
	}
	cmd.Flags().String("out", "", "aggregate result file to verify (default reference/deployed-mints.json)")
	return cmd
}

func verifyHandler(cmd *cobra.Command, root *rootOptions) error {
	cfg, err := loadConfig(cmd, root)
	if err != nil {
		return err
	}

	records, err := localfs.ReadResults(cfg.OutputPath)
	if err != nil {
		return err
	}

	checks, err := solanainfra.NewMintVerifier(di.Endpoint(cfg)).Verify(cmd.Context(), records)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, c := range checks {
		switch {
		case c.OK():
			fmt.Fprintf(out, "  ✅ %-14s %s (%d bytes, %d lamports)\n", c.Tier, c.Mint, c.DataLen, c.Lamports)
		case c.Err != nil:
			fmt.Fprintf(out, "  ❌ %-14s %s: %v\n", c.Tier, c.Mint, c.Err)
		case !c.Exists:
			fmt.Fprintf(out, "  ❌ %-14s %s: account not found\n", c.Tier, c.Mint)
		default:
			fmt.Fprintf(out, "  ❌ %-14s %s: not owned by Token-2022\n", c.Tier, c.Mint)
		}
	}

	bad := lo.CountBy(checks, func(c solanainfra.MintCheck) bool { return !c.OK() })
	if bad > 0 {
		return fmt.Errorf("%d of %d mints failed verification", bad, len(checks))
	}
	fmt.Fprintf(out, "\nAll %d mints verified on %s\n", len(checks), cfg.Network)
	return nil
}
