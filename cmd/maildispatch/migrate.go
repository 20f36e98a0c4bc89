package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vertriebsportal/maildispatch/internal/config"
	"github.com/vertriebsportal/maildispatch/internal/store"
)

func newMigrateCmd(load func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones SQL pendientes (drivers pg y sqlite)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			n, err := store.Migrate(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migraciones aplicadas: %d\n", n)
			return nil
		},
	}
}
