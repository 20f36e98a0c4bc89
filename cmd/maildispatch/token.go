package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vertriebsportal/maildispatch/internal/config"
	"github.com/vertriebsportal/maildispatch/internal/identity"
)

func newTokenCmd(load func() (*config.Config, error)) *cobra.Command {
	var (
		email, tenant, sub string
		ttl                time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Firma un bearer token de desarrollo con identity.jwt_secret",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if cfg.IsProd() {
				return errors.New("token: no disponible con app.env=prod")
			}
			jr, err := identity.NewJWTResolver(identity.JWTConfig{
				Secret:      cfg.Identity.JWTSecret,
				Issuer:      cfg.Identity.Issuer,
				Audience:    cfg.Identity.Audience,
				TenantClaim: cfg.Identity.TenantClaim,
			})
			if err != nil {
				return err
			}
			if sub == "" {
				sub = email
			}
			tok, err := jr.Issue(sub, email, tenant, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email del caller (requerido)")
	cmd.Flags().StringVar(&tenant, "tenant", "", "Tenant ID (claim configurado en identity.tenant_claim)")
	cmd.Flags().StringVar(&sub, "sub", "", "Subject; default = email")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Vigencia del token")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
