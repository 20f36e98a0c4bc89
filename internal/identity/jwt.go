package identity

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// leeway tolera pequeñas diferencias de reloj con el proveedor de identidad.
const leeway = 30 * time.Second

// JWTConfig configura la validación de tokens HS256.
type JWTConfig struct {
	Secret      string
	Issuer      string // opcional
	Audience    string // opcional
	TenantClaim string // default "tenant_id"
}

// JWTResolver valida tokens HS256 firmados por el servicio de auth hospedado.
type JWTResolver struct {
	secret      []byte
	issuer      string
	audience    string
	tenantClaim string
}

func NewJWTResolver(cfg JWTConfig) (*JWTResolver, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, errors.New("identity: jwt secret is required")
	}
	tc := cfg.TenantClaim
	if tc == "" {
		tc = "tenant_id"
	}
	return &JWTResolver{
		secret:      []byte(cfg.Secret),
		issuer:      cfg.Issuer,
		audience:    cfg.Audience,
		tenantClaim: tc,
	}, nil
}

// CurrentUser devuelve (nil, err) si no hay token o no valida.
func (j *JWTResolver) CurrentUser(r *http.Request) (*Caller, error) {
	raw, err := BearerToken(r)
	if err != nil {
		return nil, err
	}
	return j.Parse(raw)
}

// Parse valida firma, exp/nbf y, si están configurados, iss/aud.
func (j *JWTResolver) Parse(raw string) (*Caller, error) {
	opts := []jwtv5.ParserOption{
		jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()}),
		jwtv5.WithLeeway(leeway),
		jwtv5.WithExpirationRequired(),
	}
	if j.issuer != "" {
		opts = append(opts, jwtv5.WithIssuer(j.issuer))
	}
	if j.audience != "" {
		opts = append(opts, jwtv5.WithAudience(j.audience))
	}

	claims := jwtv5.MapClaims{}
	tok, err := jwtv5.ParseWithClaims(raw, claims, func(*jwtv5.Token) (any, error) {
		return j.secret, nil
	}, opts...)
	if err != nil || !tok.Valid {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	email := claimString(claims, "email")
	if email == "" {
		return nil, ErrNoEmail
	}

	return &Caller{
		Subject:  claimString(claims, "sub"),
		Email:    email,
		TenantID: j.tenantFrom(claims),
	}, nil
}

// tenantFrom busca el claim de tenant plano o dentro de app_metadata.
func (j *JWTResolver) tenantFrom(claims jwtv5.MapClaims) string {
	if v := claimString(claims, j.tenantClaim); v != "" {
		return v
	}
	if md, ok := claims["app_metadata"].(map[string]any); ok {
		if s, ok := md[j.tenantClaim].(string); ok {
			return s
		}
	}
	return ""
}

// Issue firma un token para el email dado. Lo usa el comando "token" en
// desarrollo y los tests; en producción los tokens los emite el proveedor.
func (j *JWTResolver) Issue(sub, email, tenantID string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := jwtv5.MapClaims{
		"sub":   sub,
		"email": email,
		"iat":   now.Unix(),
		"nbf":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	if tenantID != "" {
		claims[j.tenantClaim] = tenantID
	}
	if j.issuer != "" {
		claims["iss"] = j.issuer
	}
	if j.audience != "" {
		claims["aud"] = j.audience
	}
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	tk.Header["typ"] = "JWT"
	return tk.SignedString(j.secret)
}

func claimString(claims jwtv5.MapClaims, key string) string {
	if v, ok := claims[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}
