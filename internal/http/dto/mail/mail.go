// Package mail contiene los DTOs de POST /send-mail.
package mail

// SendMailRequest es el body esperado. El parseo real lo hace dispatch.ParsePayload.
type SendMailRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

// SendMailResponse es la respuesta exitosa. Los fallos usan {success:false, error}.
type SendMailResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
