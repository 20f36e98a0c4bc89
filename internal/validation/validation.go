// Package validation envuelve go-playground/validator con las opciones del servicio.
package validation

import (
	"errors"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	once sync.Once
	v    *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
		// nombres de campo = tag json
		v.RegisterTagNameFunc(jsonName)
	})
	return v
}

// Struct valida s según sus tags `validate`.
func Struct(s any) error {
	return instance().Struct(s)
}

// Fields convierte un error del validator en campo -> tags fallidos.
// Devuelve nil si err no es de validación.
func Fields(err error) map[string][]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := map[string][]string{}
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		fields[field] = append(fields[field], fe.Tag())
	}
	return fields
}
