// Package errors escribe los fallos HTTP con el contrato {success:false, error}.
package errors

import (
	"encoding/json"
	"net/http"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// WriteError escribe la respuesta para err. Nunca expone la causa interna.
func WriteError(w http.ResponseWriter, err error) {
	appErr := FromError(err)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(errorResponse{Success: false, Error: appErr.Message})
}
