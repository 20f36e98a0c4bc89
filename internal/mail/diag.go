package mail

import (
	"errors"
	"net"
	"strings"
	"time"
)

// Códigos de diagnóstico.
const (
	DiagAuth             = "auth"
	DiagTLS              = "tls"
	DiagDial             = "dial"
	DiagTimeout          = "timeout"
	DiagRateLimited      = "rate_limited"
	DiagInvalidRecipient = "invalid_recipient"
	DiagRejected         = "rejected"
	DiagNetwork          = "network"
	DiagCanceled         = "canceled"
	DiagUnknown          = "unknown"
)

// SMTPDiag contiene información de diagnóstico de un error SMTP.
type SMTPDiag struct {
	Code       string
	Temporary  bool          // si conviene reintentar
	RetryAfter time.Duration // 0 si no se pudo inferir
}

// DiagnoseSMTP analiza un error SMTP y retorna información de diagnóstico.
func DiagnoseSMTP(err error) SMTPDiag {
	if err == nil {
		return SMTPDiag{Code: DiagUnknown}
	}
	if errors.Is(err, errCanceled) {
		return SMTPDiag{Code: DiagCanceled, Temporary: true}
	}
	s := strings.ToLower(err.Error())

	// timeouts
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return SMTPDiag{Code: DiagTimeout, Temporary: true}
	}
	if strings.Contains(s, "timeout") {
		return SMTPDiag{Code: DiagTimeout, Temporary: true}
	}

	// dial/conn/dns
	if strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connectex:") || // windows
		strings.Contains(s, "no such host") ||
		strings.Contains(s, "dial tcp") {
		return SMTPDiag{Code: DiagDial, Temporary: true}
	}

	// tls/handshake/cert, o servidor sin STARTTLS
	if strings.Contains(s, "x509:") ||
		strings.Contains(s, "does not support starttls") ||
		strings.Contains(s, "tls") && (strings.Contains(s, "handshake") || strings.Contains(s, "certificate")) {
		return SMTPDiag{Code: DiagTLS}
	}

	// auth (credenciales/permiso)
	if strings.Contains(s, "5.7.8") || strings.Contains(s, "535") ||
		strings.Contains(s, "username and password not accepted") ||
		strings.Contains(s, "authentication failed") ||
		strings.Contains(s, "auth") && strings.Contains(s, "failed") {
		return SMTPDiag{Code: DiagAuth}
	}

	// throttling temporal (4.x.x)
	if strings.Contains(s, "4.7.0") ||
		strings.Contains(s, "rate limit") ||
		strings.Contains(s, "try again later") ||
		strings.Contains(s, "temporarily unavailable") ||
		strings.Contains(s, "451") || strings.Contains(s, "421") {
		return SMTPDiag{Code: DiagRateLimited, Temporary: true}
	}

	if strings.Contains(s, "5.1.1") || strings.Contains(s, "user unknown") ||
		strings.Contains(s, "mailbox not found") {
		return SMTPDiag{Code: DiagInvalidRecipient}
	}

	// políticas/DMARC/SPF/rechazos 5.7.1
	if strings.Contains(s, "5.7.1") ||
		strings.Contains(s, "message rejected") ||
		strings.Contains(s, "policy") ||
		strings.Contains(s, "dmarc") || strings.Contains(s, "spf") {
		return SMTPDiag{Code: DiagRejected}
	}

	if errors.As(err, &ne) {
		return SMTPDiag{Code: DiagNetwork, Temporary: true}
	}
	return SMTPDiag{Code: DiagUnknown}
}
