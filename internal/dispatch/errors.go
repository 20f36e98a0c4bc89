package dispatch

import (
	"errors"
	"net/http"
)

// Kind clasifica el fallo de un dispatch.
type Kind string

const (
	KindUnauthorized       Kind = "unauthorized"
	KindBadRequest         Kind = "bad_request"
	KindCredentialsMissing Kind = "credentials_missing"
	KindTransportFailure   Kind = "transport_failure"
	KindInternal           Kind = "internal"
	KindRateLimited        Kind = "rate_limited"
)

// Mensajes visibles para el caller.
const (
	MsgSuccess            = "E-Mail erfolgreich gesendet."
	MsgUnauthorized       = "Nicht autorisiert. Bitte melden Sie sich an."
	MsgBadRequest         = "Ungültige Anfrage: Empfänger, Betreff und Text sind erforderlich."
	MsgCredentialsMissing = "Bitte hinterlegen Sie Ihre E-Mail-Zugangsdaten (E-Mail-Adresse und Passwort) in Ihrem Profil, bevor Sie E-Mails versenden."
	MsgTransportFailure   = "E-Mail konnte nicht gesendet werden"
	MsgInternal           = "Interner Serverfehler."
	MsgRateLimited        = "Zu viele Anfragen. Bitte versuchen Sie es später erneut."
)

// Error es el fallo tipado del orquestador. Message es seguro para el caller.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Err.Error()
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Status mapea el Kind al status HTTP.
func (e *Error) Status() int {
	switch e.Kind {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindBadRequest, KindCredentialsMissing:
		return http.StatusBadRequest
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// KindOf devuelve el Kind de err, o KindInternal si no es un *Error.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

func newError(k Kind, msg string, err error) *Error {
	return &Error{Kind: k, Message: msg, Err: err}
}
