package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vertriebsportal/maildispatch/internal/config"
	"github.com/vertriebsportal/maildispatch/internal/directory"
	"github.com/vertriebsportal/maildispatch/internal/store"
)

// lookup informa si un empleado puede enviar. Nunca imprime la password.
func newLookupCmd(load func() (*config.Config, error)) *cobra.Command {
	var email, tenant string

	cmd := &cobra.Command{
		Use:   "lookup",
		Short: "Verifica las credenciales SMTP de un empleado en el directorio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			b, err := store.Open(cmd.Context(), cfg, false)
			if err != nil {
				return err
			}
			defer b.Close()

			out := cmd.OutOrStdout()
			e, err := b.Directory.Lookup(cmd.Context(), directory.Key{TenantID: tenant, Email: email})
			if errors.Is(err, directory.ErrNotFound) {
				fmt.Fprintf(out, "%s: sin entrada en el directorio\n", email)
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "email:     %s\n", e.Email)
			fmt.Fprintf(out, "tenant:    %s\n", e.TenantID)
			fmt.Fprintf(out, "nombre:    %s\n", e.FullName)
			fmt.Fprintf(out, "smtp user: %s\n", e.SMTPUser)
			fmt.Fprintf(out, "password:  %s\n", presence(e.SMTPPassword))
			fmt.Fprintf(out, "sparte:    %s\n", e.Sparte)
			fmt.Fprintf(out, "completa:  %t\n", e.Complete())
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email del empleado (requerido)")
	cmd.Flags().StringVar(&tenant, "tenant", "", "Restringir al tenant")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func presence(s string) string {
	if s == "" {
		return "(vacía)"
	}
	return "(definida)"
}
