// Package util tiene helpers sin dependencias del dominio.
package util

import "strings"

// MaskEmail oculta la parte local de una dirección para logs: "max@firma.de"
// queda "m…@firma.de". El dominio se conserva para diagnosticar rechazos.
func MaskEmail(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	i := strings.LastIndexByte(s, '@')
	if i <= 0 {
		return "***"
	}
	user, dom := s[:i], s[i+1:]
	if len([]rune(user)) > 1 {
		user = string([]rune(user)[:1]) + "…"
	}
	return user + "@" + dom
}
