// cmd/tiermint/provision.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	tierdom "github.com/x1Brains/x1devtoolkit/internal/domain/tier"
	"github.com/x1Brains/x1devtoolkit/internal/platform/di"
)

func newProvisionCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Create the tier mints and write keys/ and the aggregate result file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return provisionHandler(cmd, root)
		},
	}

	flags := cmd.Flags()
	flags.String("tiers", "", "tier catalog YAML (defaults to the built-in ten tiers)")
	flags.String("out", "", "aggregate result file (default reference/deployed-mints.json)")
	flags.String("keys-dir", "", "directory for per-tier mint key files (default keys)")

	return cmd
}

func provisionHandler(cmd *cobra.Command, root *rootOptions) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd, root)
	if err != nil {
		return err
	}

	tiers, err := tierdom.LoadCatalog(cfg.TiersFile)
	if err != nil {
		return err
	}

	c, err := di.Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	c.Provisioner.Out = cmd.OutOrStdout()
	fmt.Fprintf(cmd.OutOrStdout(), "Creating %d tier mints on %s (%s)\n", len(tiers), cfg.Network, c.Endpoint)

	// tier ごとの失敗は report に入るだけ。ここで返るのは前提条件の失敗のみ。
	if _, err := c.Provisioner.Run(ctx, tiers); err != nil {
		return err
	}
	return nil
}
