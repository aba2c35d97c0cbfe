// cmd/tiermint/plan.go
package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/x1Brains/x1devtoolkit/internal/application/provision"
	mintdom "github.com/x1Brains/x1devtoolkit/internal/domain/mint"
	tierdom "github.com/x1Brains/x1devtoolkit/internal/domain/tier"
	solanainfra "github.com/x1Brains/x1devtoolkit/internal/infra/solana"
	"github.com/x1Brains/x1devtoolkit/internal/platform/di"
)

type planOptions struct {
	Rent bool
}

func newPlanCommand(root *rootOptions) *cobra.Command {
	opts := &planOptions{}

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show per-tier account size and metadata without sending anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return planHandler(cmd, root, opts)
		},
	}

	flags := cmd.Flags()
	flags.String("tiers", "", "tier catalog YAML (defaults to the built-in ten tiers)")
	flags.BoolVar(&opts.Rent, "rent", false, "also query the rent-exempt minimum for each tier (read-only RPC)")

	return cmd
}

func planHandler(cmd *cobra.Command, root *rootOptions, opts *planOptions) error {
	cfg, err := loadConfig(cmd, root)
	if err != nil {
		return err
	}
	tiers, err := tierdom.LoadCatalog(cfg.TiersFile)
	if err != nil {
		return err
	}
	if err := tiers.Validate(); err != nil {
		return err
	}

	settings := di.SettingsFromConfig(cfg)
	var ledger *solanainfra.RPCLedger
	if opts.Rent {
		ledger = solanainfra.NewRPCLedger(di.Endpoint(cfg), cfg.Commitment, cfg.ConfirmTimeout)
	}

	// アドレスは provision 時に決まる。サイズは鍵に依存しないので仮の鍵で計算する。
	operator := types.NewAccount().PublicKey

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tTIER\tSYMBOL\tSUPPLY\tMINT LEN\tMETADATA LEN\tSPACE\tRENT (lamports)\tANNOTATIONS")
	for i, def := range tiers {
		plan, err := provision.BuildTierPlan(settings, i, def, operator, types.NewAccount().PublicKey)
		if err != nil {
			return fmt.Errorf("tier %s: %w", def.Name, err)
		}

		rent := "-"
		if ledger != nil {
			lamports, err := ledger.GetRentExemptMinimum(cmd.Context(), plan.Space)
			if err != nil {
				return fmt.Errorf("tier %s: rent query: %w", def.Name, err)
			}
			rent = fmt.Sprintf("%d", lamports)
		}

		annotations := lo.Map(plan.Annotations(), func(a mintdom.Annotation, _ int) string {
			return a.Key + "=" + a.Value
		})
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%d\t%d\t%s\t%s\n",
			i, def.Name, def.Symbol, def.Supply, plan.MintLen, plan.MetadataLen, plan.Space, rent,
			strings.Join(annotations, " "))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\ndecimals=%d fee=%dbps max_fee=%d min_balance=%d lamports\n",
		settings.Decimals, settings.FeeBasisPoints, settings.MaxFee, settings.MinOperatorBalance)
	return nil
}
