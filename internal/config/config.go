package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Endpoint de submission por defecto. No lo elige el caller: sólo el operador
// puede cambiarlo por YAML/env.
const (
	DefaultSMTPHost = "smtp.ionos.de"
	DefaultSMTPPort = 587
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env     string `yaml:"env"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Server struct {
		Addr            string        `yaml:"addr"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Identity struct {
		// Secreto HS256 compartido con el proveedor de identidad.
		JWTSecret   string `yaml:"jwt_secret"`
		Issuer      string `yaml:"issuer"`
		Audience    string `yaml:"audience"`
		TenantClaim string `yaml:"tenant_claim"`
	} `yaml:"identity"`

	Storage struct {
		// pg | sqlite | fs | memory
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
		// Path de la base SQLite o del directorio YAML (driver fs).
		Path     string `yaml:"path"`
		Postgres struct {
			MaxConns        int32         `yaml:"max_conns"`
			ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Directory struct {
		StrictTenant bool `yaml:"strict_tenant"`
		// MasterKey descifra passwords guardadas con prefijo "enc:" (base64 o hex, 32 bytes).
		MasterKey string `yaml:"master_key"`
	} `yaml:"directory"`

	SMTP struct {
		Host               string        `yaml:"host"`
		Port               int           `yaml:"port"`
		Timeout            time.Duration `yaml:"timeout"`
		LocalName          string        `yaml:"local_name"`
		InsecureSkipVerify bool          `yaml:"insecure_skip_verify"` // sólo dev
	} `yaml:"smtp"`

	Audit struct {
		// Sink: "store" (mismo driver que storage) | "log"
		Sink string `yaml:"sink"`
	} `yaml:"audit"`

	Rate struct {
		Enabled bool `yaml:"enabled"`
		// memory | redis
		Backend string        `yaml:"backend"`
		Limit   int           `yaml:"limit"`
		Window  time.Duration `yaml:"window"`
		Redis   struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"rate"`

	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
}

// Load lee el YAML en path (si no está vacío), aplica defaults, overrides por env
// y valida. Sin path la config sale sólo de defaults + env.
func Load(path string) (*Config, error) {
	var c Config
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	c.applyDefaults()
	c.applyEnvOverrides()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	// El envío SMTP corre dentro del request: el write timeout debe superar al de SMTP.
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 60 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 15 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Identity.TenantClaim == "" {
		c.Identity.TenantClaim = "tenant_id"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Storage.Postgres.MaxConns == 0 {
		c.Storage.Postgres.MaxConns = 10
	}
	if c.SMTP.Host == "" {
		c.SMTP.Host = DefaultSMTPHost
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = DefaultSMTPPort
	}
	if c.SMTP.Timeout == 0 {
		c.SMTP.Timeout = 30 * time.Second
	}
	if c.Audit.Sink == "" {
		c.Audit.Sink = "store"
	}
	if c.Rate.Backend == "" {
		c.Rate.Backend = "memory"
	}
	if c.Rate.Limit == 0 {
		c.Rate.Limit = 30
	}
	if c.Rate.Window == 0 {
		c.Rate.Window = time.Minute
	}
	if c.Rate.Redis.Prefix == "" {
		c.Rate.Redis.Prefix = "maildispatch:rl:"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}

func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}

func getEnvDur(key string) (time.Duration, bool) {
	if s, ok := getEnvStr(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil {
			return d, true
		}
	}
	return 0, false
}

// applyEnvOverrides pisa el YAML con variables de entorno.
func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = strings.ToLower(v)
	}

	// IDENTITY
	if v, ok := getEnvStr("IDENTITY_JWT_SECRET"); ok {
		c.Identity.JWTSecret = v
	}
	if v, ok := getEnvStr("IDENTITY_ISSUER"); ok {
		c.Identity.Issuer = v
	}
	if v, ok := getEnvStr("IDENTITY_AUDIENCE"); ok {
		c.Identity.Audience = v
	}
	if v, ok := getEnvStr("IDENTITY_TENANT_CLAIM"); ok {
		c.Identity.TenantClaim = v
	}

	// STORAGE
	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = strings.ToLower(v)
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvStr("STORAGE_PATH"); ok {
		c.Storage.Path = v
	}
	if v, ok := getEnvInt("POSTGRES_MAX_CONNS"); ok {
		c.Storage.Postgres.MaxConns = int32(v)
	}
	if v, ok := getEnvDur("POSTGRES_CONN_MAX_LIFETIME"); ok {
		c.Storage.Postgres.ConnMaxLifetime = v
	}

	// DIRECTORY
	if v, ok := getEnvBool("DIRECTORY_STRICT_TENANT"); ok {
		c.Directory.StrictTenant = v
	}
	if v, ok := getEnvStr("DIRECTORY_MASTER_KEY"); ok {
		c.Directory.MasterKey = v
	}

	// SMTP
	if v, ok := getEnvStr("SMTP_HOST"); ok {
		c.SMTP.Host = v
	}
	if v, ok := getEnvInt("SMTP_PORT"); ok {
		c.SMTP.Port = v
	}
	if v, ok := getEnvDur("SMTP_TIMEOUT"); ok {
		c.SMTP.Timeout = v
	}
	if v, ok := getEnvStr("SMTP_LOCAL_NAME"); ok {
		c.SMTP.LocalName = v
	}
	if v, ok := getEnvBool("SMTP_INSECURE_SKIP_VERIFY"); ok {
		c.SMTP.InsecureSkipVerify = v
	}

	// AUDIT
	if v, ok := getEnvStr("AUDIT_SINK"); ok {
		c.Audit.Sink = strings.ToLower(v)
	}

	// RATE
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvStr("RATE_BACKEND"); ok {
		c.Rate.Backend = strings.ToLower(v)
	}
	if v, ok := getEnvInt("RATE_LIMIT"); ok {
		c.Rate.Limit = v
	}
	if v, ok := getEnvDur("RATE_WINDOW"); ok {
		c.Rate.Window = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Rate.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Rate.Redis.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Rate.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PREFIX"); ok {
		c.Rate.Redis.Prefix = v
	}

	// METRICS
	if v, ok := getEnvBool("METRICS_ENABLED"); ok {
		c.Metrics.Enabled = v
	}
}

// Validate chequea combinaciones inválidas. Se llama desde Load.
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Driver {
	case "pg", "postgres":
		if strings.TrimSpace(c.Storage.DSN) == "" {
			errs = append(errs, errors.New("storage.dsn es requerido para driver pg"))
		}
	case "sqlite", "fs":
		if strings.TrimSpace(c.Storage.Path) == "" {
			errs = append(errs, fmt.Errorf("storage.path es requerido para driver %s", c.Storage.Driver))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("storage.driver desconocido: %q", c.Storage.Driver))
	}

	switch c.Audit.Sink {
	case "store", "log":
	default:
		errs = append(errs, fmt.Errorf("audit.sink desconocido: %q", c.Audit.Sink))
	}
	if c.Storage.Driver == "fs" && c.Audit.Sink == "store" {
		errs = append(errs, errors.New("driver fs no tiene store de auditoría: usar audit.sink=log"))
	}

	if c.SMTP.Port <= 0 || c.SMTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("smtp.port inválido: %d", c.SMTP.Port))
	}

	if c.Rate.Enabled {
		if c.Rate.Limit <= 0 || c.Rate.Window <= 0 {
			errs = append(errs, errors.New("rate.limit y rate.window deben ser > 0"))
		}
		if c.Rate.Backend == "redis" && strings.TrimSpace(c.Rate.Redis.Addr) == "" {
			errs = append(errs, errors.New("rate.redis.addr es requerido para backend redis"))
		}
	}

	if strings.EqualFold(c.App.Env, "prod") {
		if strings.TrimSpace(c.Identity.JWTSecret) == "" {
			errs = append(errs, errors.New("identity.jwt_secret es requerido en prod"))
		}
		if c.SMTP.InsecureSkipVerify {
			errs = append(errs, errors.New("smtp.insecure_skip_verify no se permite en prod"))
		}
	}

	return errors.Join(errs...)
}

// IsProd indica si la app corre en entorno productivo.
func (c *Config) IsProd() bool {
	return strings.EqualFold(c.App.Env, "prod")
}
