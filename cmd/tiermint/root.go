// cmd/tiermint/root.go
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	appcfg "github.com/x1Brains/x1devtoolkit/internal/infra/config"
)

type rootOptions struct {
	ConfigFile string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "tiermint",
		Short:         "Provision one Token-2022 mint per INCINERATOR tier",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.ConfigFile, "config", "", "config file, E.g. `./tiermint.yaml`")
	flags.String("network", appcfg.NetworkTestnet, "network to use: `testnet` or `mainnet`")
	flags.String("rpc", "", "RPC endpoint override (defaults to the network endpoint)")
	flags.String("commitment", "confirmed", "commitment to wait for: processed, confirmed or finalized")
	flags.String("keypair", "", "operator keypair file (defaults to ~/.config/solana/id.json)")

	cmd.AddCommand(
		newProvisionCommand(opts),
		newPlanCommand(opts),
		newVerifyCommand(opts),
		newKeygenCommand(),
	)
	return cmd
}

// Execute runs the CLI and returns the process exit code.
func Execute(ctx context.Context, args []string) int {
	cmd := newRootCommand()
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		return 1
	}
	return 0
}

func loadConfig(cmd *cobra.Command, opts *rootOptions) (*appcfg.Config, error) {
	return appcfg.Load(appcfg.LoadOptions{
		ConfigFile: opts.ConfigFile,
		Flags:      cmd.Flags(),
	})
}
