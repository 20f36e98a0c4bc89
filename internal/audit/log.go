package audit

import (
	"context"

	"go.uber.org/zap"
)

// Log escribe cada registro como evento estructurado "mail_audit".
// Sirve cuando no hay store SQL (driver fs) o para shipping a un colector de logs.
// El cuerpo del mensaje no se loguea, sólo su largo.
type Log struct {
	l *zap.Logger
}

func NewLog(l *zap.Logger) *Log {
	return &Log{l: l.Named("audit")}
}

func (a *Log) Record(_ context.Context, rec *Record) error {
	if err := prepare(rec); err != nil {
		return err
	}
	a.l.Info("mail_audit",
		zap.String("id", rec.ID),
		zap.String("tenant_id", rec.TenantID),
		zap.String("owner", rec.Owner),
		zap.String("betreff", rec.Subject),
		zap.String("absender", rec.From),
		zap.String("empfaenger", rec.To),
		zap.Int("nachricht_len", len(rec.Body)),
		zap.String("email_adresse", rec.Mailbox),
		zap.String("absender_name", rec.SenderName),
		zap.String("sparte", rec.Sparte),
		zap.String("typ", rec.Direction),
		zap.Bool("gelesen", rec.Read),
		zap.Time("ts", rec.CreatedAt),
	)
	return nil
}
