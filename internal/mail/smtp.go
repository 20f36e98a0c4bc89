package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"time"

	gomail "github.com/go-mail/mail"

	"github.com/vertriebsportal/maildispatch/internal/observability/logger"
)

var errCanceled = errors.New("send canceled before dial")

// SMTPConfig fija el endpoint de submission. Nunca viene del request.
type SMTPConfig struct {
	Host               string
	Port               int
	Timeout            time.Duration
	LocalName          string
	InsecureSkipVerify bool // solo dev
}

// SMTPTransport implementa Transport con go-mail (STARTTLS obligatorio + PLAIN).
type SMTPTransport struct {
	cfg SMTPConfig
}

// NewSMTPTransport crea el transport. Timeout 0 = 30s.
func NewSMTPTransport(cfg SMTPConfig) *SMTPTransport {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &SMTPTransport{cfg: cfg}
}

// Send abre una sesión, envía y la cierra. Sin reintentos.
func (t *SMTPTransport) Send(ctx context.Context, creds Credentials, msg Message) error {
	log := logger.From(ctx).With(
		logger.Component("smtp"),
		logger.String("host", t.cfg.Host),
		logger.Int("port", t.cfg.Port),
		logger.Recipient(msg.To),
	)

	if err := ctx.Err(); err != nil {
		return &TransportError{Code: DiagCanceled, Temporary: true, Err: errors.Join(errCanceled, err)}
	}

	d := t.dialer(creds)
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < d.Timeout {
			d.Timeout = left
		}
	}

	log.Debug("sending email", logger.String("subject", msg.Subject))
	if err := d.DialAndSend(buildMessage(msg)); err != nil {
		diag := DiagnoseSMTP(err)
		log.Warn("smtp send failed", logger.DiagCode(diag.Code), logger.Err(err))
		return &TransportError{Code: diag.Code, Temporary: diag.Temporary, Err: err}
	}

	log.Info("email sent")
	return nil
}

func (t *SMTPTransport) dialer(creds Credentials) *gomail.Dialer {
	d := gomail.NewDialer(t.cfg.Host, t.cfg.Port, creds.Username, creds.Password)
	d.TLSConfig = &tls.Config{
		ServerName:         t.cfg.Host,
		InsecureSkipVerify: t.cfg.InsecureSkipVerify,
	}
	d.StartTLSPolicy = gomail.MandatoryStartTLS
	d.Timeout = t.cfg.Timeout
	d.RetryFailure = false
	if t.cfg.LocalName != "" {
		d.LocalName = t.cfg.LocalName
	}
	return d
}

// buildMessage arma el mensaje text/plain con From: "Nombre" <buzón>.
func buildMessage(msg Message) *gomail.Message {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", msg.FromAddress, msg.FromName)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Text)
	return m
}
