// Package mail expone POST /send-mail.
package mail

import (
	"context"
	"errors"
	"net/http"

	"github.com/vertriebsportal/maildispatch/internal/dispatch"
	dto "github.com/vertriebsportal/maildispatch/internal/http/dto/mail"
	httperrors "github.com/vertriebsportal/maildispatch/internal/http/errors"
	"github.com/vertriebsportal/maildispatch/internal/http/helpers"
	"github.com/vertriebsportal/maildispatch/internal/identity"
	"github.com/vertriebsportal/maildispatch/internal/observability/logger"
)

// Dispatcher es lo que el controller necesita del orquestador.
type Dispatcher interface {
	Handle(ctx context.Context, caller *identity.Caller, raw []byte) (*dispatch.Result, error)
}

// MailController maneja el envío de correos del caller autenticado.
type MailController struct {
	svc Dispatcher
}

func NewMailController(svc Dispatcher) *MailController {
	return &MailController{svc: svc}
}

// SendMail maneja POST /send-mail.
func (c *MailController) SendMail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := identity.FromContext(ctx)

	// un body ilegible se trata como payload inválido dentro de Handle
	raw, err := helpers.ReadBody(w, r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) && caller != nil && caller.Email != "" {
			httperrors.WriteError(w, httperrors.ErrPayloadTooLarge.WithCause(err))
			return
		}
		logger.From(ctx).Debug("body read failed", logger.Op("MailController.SendMail"), logger.Err(err))
		raw = nil
	}

	res, err := c.svc.Handle(ctx, caller, raw)
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.SendMailResponse{Success: true, Message: res.Message})
}
