package logger

import (
	"time"

	"github.com/vertriebsportal/maildispatch/internal/util"
	"go.uber.org/zap"
)

// Field es un alias de zap.Field para no importar zap en cada caller.
type Field = zap.Field

// =================================================================================
// CAMPOS ESTÁNDAR - HTTP
// =================================================================================

func RequestID(v string) zap.Field { return zap.String("request_id", v) }

func Method(v string) zap.Field { return zap.String("method", v) }

func Path(v string) zap.Field { return zap.String("path", v) }

func Status(v int) zap.Field { return zap.Int("status", v) }

func DurationMs(v time.Duration) zap.Field { return zap.Int64("duration_ms", v.Milliseconds()) }

func Bytes(v int) zap.Field { return zap.Int("bytes", v) }

func ClientIP(v string) zap.Field { return zap.String("client_ip", v) }

// =================================================================================
// CAMPOS ESTÁNDAR - NEGOCIO
// =================================================================================

// Caller identifica al usuario autenticado que dispara el envío.
func Caller(email string) zap.Field { return zap.String("caller", email) }

func TenantID(v string) zap.Field { return zap.String("tenant_id", v) }

// Recipient es la dirección destino de un envío, enmascarada (es de un tercero).
func Recipient(v string) zap.Field { return zap.String("to", util.MaskEmail(v)) }

// Mailbox es el usuario SMTP (email_adresse) con el que se autentica el envío.
// Nunca loguear la password asociada.
func Mailbox(v string) zap.Field { return zap.String("mailbox", v) }

func Sparte(v string) zap.Field { return zap.String("sparte", v) }

// DiagCode es el código de diagnóstico SMTP (auth, tls, dial, timeout, ...).
func DiagCode(v string) zap.Field { return zap.String("diag_code", v) }

// =================================================================================
// CAMPOS ESTÁNDAR - SISTEMA
// =================================================================================

func Component(v string) zap.Field { return zap.String("component", v) }

func Op(v string) zap.Field { return zap.String("op", v) }

func Err(err error) zap.Field { return zap.Error(err) }

func String(key, v string) zap.Field { return zap.String(key, v) }

func Int(key string, v int) zap.Field { return zap.Int(key, v) }

func Bool(key string, v bool) zap.Field { return zap.Bool(key, v) }

func Any(key string, v any) zap.Field { return zap.Any(key, v) }
