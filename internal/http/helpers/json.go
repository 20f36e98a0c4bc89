// Package helpers tiene utilidades de request/response compartidas por los controllers.
package helpers

import (
	"encoding/json"
	"io"
	"net/http"
)

// MaxBodyBytes limita el body de los endpoints JSON.
const MaxBodyBytes = 1 << 20

// ReadBody lee el body completo con límite de MaxBodyBytes.
func ReadBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer r.Body.Close()
	return io.ReadAll(r.Body)
}

// WriteJSON escribe una respuesta JSON estándar.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
