package errors

import (
	stderrors "errors"
	"net/http"

	"github.com/vertriebsportal/maildispatch/internal/dispatch"
)

// AppError es el error de la capa HTTP: status + mensaje visible + causa interna.
type AppError struct {
	HTTPStatus int
	Message    string
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// WithCause devuelve una copia con la causa adjunta.
func (e *AppError) WithCause(err error) *AppError {
	c := *e
	c.Err = err
	return &c
}

var (
	ErrNotFound            = &AppError{HTTPStatus: http.StatusNotFound, Message: "Nicht gefunden."}
	ErrMethodNotAllowed    = &AppError{HTTPStatus: http.StatusMethodNotAllowed, Message: "Methode nicht erlaubt."}
	ErrInternalServerError = &AppError{HTTPStatus: http.StatusInternalServerError, Message: dispatch.MsgInternal}
	ErrRateLimitExceeded   = &AppError{HTTPStatus: http.StatusTooManyRequests, Message: dispatch.MsgRateLimited}
	ErrPayloadTooLarge     = &AppError{HTTPStatus: http.StatusRequestEntityTooLarge, Message: "Anfrage zu groß."}
)

// FromError normaliza cualquier error a *AppError.
// Los *dispatch.Error conservan su status y mensaje.
func FromError(err error) *AppError {
	var ae *AppError
	if stderrors.As(err, &ae) {
		return ae
	}
	var de *dispatch.Error
	if stderrors.As(err, &de) {
		return &AppError{HTTPStatus: de.Status(), Message: de.Message, Err: de}
	}
	return ErrInternalServerError.WithCause(err)
}
