package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vertriebsportal/maildispatch/internal/config"
	"github.com/vertriebsportal/maildispatch/internal/observability/logger"
)

var version = "dev"

func main() {
	// .env opcional; el entorno del proceso tiene prioridad
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:           "maildispatch",
		Short:         "Relay SMTP con credenciales por empleado y log de envíos",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", os.Getenv("MAILDISPATCH_CONFIG"), "Path al YAML de configuración (env MAILDISPATCH_CONFIG)")

	load := func() (*config.Config, error) {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return nil, err
		}
		if cfg.App.Version == "" {
			cfg.App.Version = version
		}
		logger.Init(logger.Config{
			Env:         cfg.App.Env,
			Level:       cfg.Log.Level,
			ServiceName: "maildispatch",
			Version:     cfg.App.Version,
		})
		return cfg, nil
	}

	root.AddCommand(
		newServeCmd(load),
		newMigrateCmd(load),
		newTokenCmd(load),
		newLookupCmd(load),
	)
	return root
}
