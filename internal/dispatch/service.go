// Package dispatch orquesta un envío: caller -> payload -> credenciales ->
// mensaje -> SMTP -> auditoría. Cada paso corta la cadena si falla, excepto la
// auditoría: corre después de un envío que ya salió y su fallo solo se loguea.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vertriebsportal/maildispatch/internal/audit"
	"github.com/vertriebsportal/maildispatch/internal/directory"
	"github.com/vertriebsportal/maildispatch/internal/identity"
	"github.com/vertriebsportal/maildispatch/internal/mail"
	"github.com/vertriebsportal/maildispatch/internal/metrics"
	"github.com/vertriebsportal/maildispatch/internal/observability/logger"
)

// auditTimeout acota el append de auditoría, que no hereda la cancelación del request.
const auditTimeout = 10 * time.Second

// Deps son los colaboradores del Service. Metrics puede ser nil.
type Deps struct {
	Directory directory.Directory
	Transport mail.Transport
	Audit     audit.Recorder
	Metrics   *metrics.Metrics

	// StrictTenant exige tenant en el caller y match exacto contra la entrada.
	StrictTenant bool
}

// Result es la respuesta exitosa.
type Result struct {
	Message  string
	AuditID  string
	Recorded bool
}

// Service no guarda estado entre llamadas; seguro para uso concurrente.
type Service struct {
	deps Deps
	now  func() time.Time
}

func New(d Deps) *Service {
	return &Service{deps: d, now: time.Now}
}

// Handle valida caller antes de mirar el body y luego delega en Dispatch.
func (s *Service) Handle(ctx context.Context, caller *identity.Caller, raw []byte) (*Result, error) {
	start := s.now()
	if err := s.authorize(caller); err != nil {
		s.deps.Metrics.Dispatch(string(KindUnauthorized), time.Since(start))
		return nil, err
	}
	p, err := ParsePayload(raw)
	if err != nil {
		s.deps.Metrics.Dispatch(string(KindBadRequest), time.Since(start))
		return nil, err
	}
	return s.Dispatch(ctx, caller, p)
}

// Dispatch envía p en nombre de caller con sus propias credenciales SMTP.
func (s *Service) Dispatch(ctx context.Context, caller *identity.Caller, p Payload) (res *Result, err error) {
	start := s.now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = string(KindOf(err))
		}
		s.deps.Metrics.Dispatch(outcome, time.Since(start))
	}()

	if err := s.authorize(caller); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	log := logger.From(ctx).With(logger.Component("dispatch"), logger.Caller(caller.Email))
	if caller.TenantID != "" {
		log = log.With(logger.TenantID(caller.TenantID))
	}

	entry, err := s.lookup(ctx, caller)
	if err != nil {
		if KindOf(err) == KindInternal {
			log.Error("directory lookup failed", logger.Err(err))
		} else {
			log.Info("sender has no smtp credentials")
		}
		return nil, err
	}

	msg := mail.Message{
		FromName:    entry.FullName,
		FromAddress: entry.SMTPUser,
		To:          p.To,
		Subject:     p.Subject,
		Text:        p.Text,
	}
	creds := mail.Credentials{Username: entry.SMTPUser, Password: entry.SMTPPassword}

	if err := s.deps.Transport.Send(ctx, creds, msg); err != nil {
		code := mail.DiagUnknown
		var te *mail.TransportError
		if errors.As(err, &te) {
			code = te.Code
		}
		s.deps.Metrics.SMTPFailure(code)
		log.Warn("transport failed", logger.Mailbox(entry.SMTPUser), logger.DiagCode(code), logger.Err(err))
		return nil, newError(KindTransportFailure, fmt.Sprintf("%s: %v", MsgTransportFailure, err), err)
	}

	// El mensaje ya salió: desde acá nada cambia la respuesta al caller.
	rec := &audit.Record{
		TenantID:   entry.TenantID,
		Owner:      caller.Email,
		Subject:    p.Subject,
		From:       entry.SMTPUser,
		To:         p.To,
		Body:       p.Text,
		Mailbox:    entry.SMTPUser,
		SenderName: entry.FullName,
		Sparte:     entry.Sparte,
		Direction:  audit.DirectionOutbound,
		Read:       true,
	}
	res = &Result{Message: MsgSuccess}
	// Si el cliente cortó durante el envío el registro se escribe igual.
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditTimeout)
	defer cancel()
	if err := s.deps.Audit.Record(actx, rec); err != nil {
		s.deps.Metrics.AuditFailure()
		log.Error("audit append failed after successful send",
			logger.Mailbox(entry.SMTPUser), logger.Recipient(p.To), logger.Err(err))
		return res, nil
	}
	res.AuditID = rec.ID
	res.Recorded = true

	log.Info("mail dispatched", logger.Mailbox(entry.SMTPUser), logger.Sparte(entry.Sparte), logger.String("audit_id", rec.ID))
	return res, nil
}

func (s *Service) authorize(caller *identity.Caller) error {
	if caller == nil || caller.Email == "" {
		return newError(KindUnauthorized, MsgUnauthorized, identity.ErrTokenMissing)
	}
	if s.deps.StrictTenant && caller.TenantID == "" {
		return newError(KindUnauthorized, MsgUnauthorized, errors.New("tenant claim required"))
	}
	return nil
}

func (s *Service) lookup(ctx context.Context, caller *identity.Caller) (*directory.Entry, error) {
	key := directory.Key{Email: caller.Email}
	if s.deps.StrictTenant {
		key.TenantID = caller.TenantID
	}

	entry, err := s.deps.Directory.Lookup(ctx, key)
	switch {
	case errors.Is(err, directory.ErrNotFound):
		return nil, newError(KindCredentialsMissing, MsgCredentialsMissing, err)
	case err != nil:
		return nil, newError(KindInternal, MsgInternal, fmt.Errorf("directory lookup: %w", err))
	case !entry.Complete():
		return nil, newError(KindCredentialsMissing, MsgCredentialsMissing, directory.ErrIncomplete)
	}
	return entry, nil
}
