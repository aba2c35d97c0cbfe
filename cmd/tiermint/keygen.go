// cmd/tiermint/keygen.go
package main

import (
	"fmt"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/spf13/cobra"

	solanainfra "github.com/x1Brains/x1devtoolkit/internal/infra/solana"
)

type keygenOptions struct {
	Outfile string
}

func newKeygenCommand() *cobra.Command {
	opts := &keygenOptions{}

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a new operator keypair file (solana-keygen format)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return keygenHandler(cmd, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.Outfile, "outfile", "o", solanainfra.DefaultKeypairPath(), "path to write the keypair to")
	return cmd
}

func keygenHandler(cmd *cobra.Command, opts *keygenOptions) error {
	acc := types.NewAccount()
	if err := solanainfra.WriteKeypairFile(opts.Outfile, acc); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote new keypair to %s\npubkey: %s\n", opts.Outfile, acc.PublicKey.ToBase58())
	return nil
}
