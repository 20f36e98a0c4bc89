// Package server construye el handler HTTP con todas las dependencias cableadas.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/vertriebsportal/maildispatch/internal/config"
	"github.com/vertriebsportal/maildispatch/internal/dispatch"
	healthctrl "github.com/vertriebsportal/maildispatch/internal/http/controllers/health"
	mailctrl "github.com/vertriebsportal/maildispatch/internal/http/controllers/mail"
	"github.com/vertriebsportal/maildispatch/internal/http/router"
	"github.com/vertriebsportal/maildispatch/internal/identity"
	"github.com/vertriebsportal/maildispatch/internal/mail"
	"github.com/vertriebsportal/maildispatch/internal/metrics"
	"github.com/vertriebsportal/maildispatch/internal/observability/logger"
	"github.com/vertriebsportal/maildispatch/internal/rate"
	"github.com/vertriebsportal/maildispatch/internal/store"
)

// App es el servidor listo para correr.
type App struct {
	HTTP    *http.Server
	closers []func() error
}

// Close libera backends y clientes externos.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Build abre backends y arma el handler. migrate aplica el esquema SQL al arrancar.
func Build(ctx context.Context, cfg *config.Config, migrate bool) (*App, error) {
	log := logger.From(ctx).With(logger.Component("server"))
	app := &App{}
	fail := func(err error) (*App, error) {
		_ = app.Close()
		return nil, err
	}

	backends, err := store.Open(ctx, cfg, migrate)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	app.closers = append(app.closers, backends.Close)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		if m, err = metrics.New(reg); err != nil {
			return fail(fmt.Errorf("metrics: %w", err))
		}
	}

	var resolver identity.Resolver
	if cfg.Identity.JWTSecret != "" {
		jr, err := identity.NewJWTResolver(identity.JWTConfig{
			Secret:      cfg.Identity.JWTSecret,
			Issuer:      cfg.Identity.Issuer,
			Audience:    cfg.Identity.Audience,
			TenantClaim: cfg.Identity.TenantClaim,
		})
		if err != nil {
			return fail(err)
		}
		resolver = jr
	} else {
		log.Warn("identity.jwt_secret not set: every /send-mail request will be unauthorized")
	}

	var limiter rate.Limiter
	if cfg.Rate.Enabled {
		l, closeFn, err := rate.New(ctx, rate.Options{
			Backend:  cfg.Rate.Backend,
			Limit:    cfg.Rate.Limit,
			Window:   cfg.Rate.Window,
			Addr:     cfg.Rate.Redis.Addr,
			Password: cfg.Rate.Redis.Password,
			DB:       cfg.Rate.Redis.DB,
			Prefix:   cfg.Rate.Redis.Prefix,
		})
		if err != nil {
			return fail(fmt.Errorf("rate limiter: %w", err))
		}
		limiter = l
		app.closers = append(app.closers, closeFn)
	}

	transport := mail.NewSMTPTransport(mail.SMTPConfig{
		Host:               cfg.SMTP.Host,
		Port:               cfg.SMTP.Port,
		Timeout:            cfg.SMTP.Timeout,
		LocalName:          cfg.SMTP.LocalName,
		InsecureSkipVerify: cfg.SMTP.InsecureSkipVerify,
	})

	svc := dispatch.New(dispatch.Deps{
		Directory:    backends.Directory,
		Transport:    transport,
		Audit:        backends.Audit,
		Metrics:      m,
		StrictTenant: cfg.Directory.StrictTenant,
	})

	handler := router.New(router.Deps{
		Mail: mailctrl.NewMailController(svc),
		Health: healthctrl.NewHealthController(cfg.App.Version, map[string]healthctrl.Check{
			"directory": backends.Ping,
		}),
		Resolver:    resolver,
		Limiter:     limiter,
		Metrics:     m,
		MetricsPath: cfg.Metrics.Path,
	})

	app.HTTP = &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	log.Info("server wired",
		logger.String("addr", cfg.Server.Addr),
		logger.String("smtp_host", cfg.SMTP.Host),
		logger.Int("smtp_port", cfg.SMTP.Port),
		logger.Bool("strict_tenant", cfg.Directory.StrictTenant),
		logger.Bool("rate_limit", cfg.Rate.Enabled),
		logger.Bool("metrics", cfg.Metrics.Enabled),
	)
	return app, nil
}
