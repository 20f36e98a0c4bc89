package dispatch

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/vertriebsportal/maildispatch/internal/validation"
)

// Payload es el cuerpo de POST /send-mail.
type Payload struct {
	To      string `json:"to" validate:"required,email"`
	Subject string `json:"subject" validate:"required"`
	Text    string `json:"text" validate:"required"`
}

// ParsePayload decodifica y valida el body. Cualquier fallo es KindBadRequest.
func ParsePayload(raw []byte) (Payload, error) {
	var p Payload
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return p, newError(KindBadRequest, MsgBadRequest, fmt.Errorf("body must be a json object"))
	}
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return Payload{}, newError(KindBadRequest, MsgBadRequest, fmt.Errorf("decode payload: %w", err))
	}
	if err := p.Validate(); err != nil {
		return Payload{}, err
	}
	return p, nil
}

// Validate aplica las reglas de los tags `validate`.
func (p Payload) Validate() error {
	if err := validation.Struct(p); err != nil {
		return newError(KindBadRequest, MsgBadRequest, fmt.Errorf("invalid payload %v: %w", validation.Fields(err), err))
	}
	return nil
}
