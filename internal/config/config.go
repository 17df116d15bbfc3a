package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

const minProductionSecretBytes = 32

type Config struct {
	AppEnv string

	ServerPort              string
	ServerReadHeaderTimeout time.Duration
	ServerWriteTimeout      time.Duration
	ServerIdleTimeout       time.Duration
	RequestTimeout          time.Duration

	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	JWTSecret string
	JWTIssuer string
	JWTTTL    time.Duration

	SessionTTL           time.Duration
	SessionSweepSchedule string

	BcryptCost int

	LockoutMaxAttempts   int
	LockoutDuration      time.Duration
	LockoutResetOnExpiry bool

	PasswordResetTTL time.Duration
	ExposeResetToken bool

	CORSOrigins      []string
	RateLimitRPM     int
	AuthRateLimitRPM int

	// TrustedProxies lists the peers, as IPs or CIDRs, whose forwarding
	// headers name the client. Empty means only the socket peer counts.
	TrustedProxies []string

	LogLevel        string
	LogFormat       string
	OpenAPISpecPath string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv: strings.ToLower(getEnv("APP_ENV", "production")),

		ServerPort:              getEnv("SERVER_PORT", "3000"),
		ServerReadHeaderTimeout: getDuration("SERVER_READ_HEADER_TIMEOUT", 10*time.Second),
		ServerWriteTimeout:      getDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		ServerIdleTimeout:       getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		RequestTimeout:          getDuration("REQUEST_TIMEOUT", 20*time.Second),

		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBMaxConns:  int32(getInt("DB_MAX_CONNS", 20)),
		DBMinConns:  int32(getInt("DB_MIN_CONNS", 2)),

		JWTSecret: strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTIssuer: getEnv("JWT_ISSUER", "hospital-api"),
		JWTTTL:    getDuration("JWT_TTL", 24*time.Hour),

		SessionTTL:           getDuration("SESSION_TTL", 24*time.Hour),
		SessionSweepSchedule: strings.TrimSpace(os.Getenv("SESSION_SWEEP_SCHEDULE")),

		BcryptCost: getInt("BCRYPT_COST", bcrypt.DefaultCost),

		LockoutMaxAttempts:   getInt("LOCKOUT_MAX_ATTEMPTS", 5),
		LockoutDuration:      getDuration("LOCKOUT_DURATION", 30*time.Minute),
		LockoutResetOnExpiry: getBool("LOCKOUT_RESET_ON_EXPIRY", false),

		PasswordResetTTL: getDuration("PASSWORD_RESET_TTL", time.Hour),
		ExposeResetToken: getBool("EXPOSE_RESET_TOKEN", false),

		CORSOrigins:      splitCSV(getEnv("CORS_ORIGINS", "*")),
		RateLimitRPM:     getInt("RATE_LIMIT_RPM", 100),
		AuthRateLimitRPM: getInt("AUTH_RATE_LIMIT_RPM", 10),
		TrustedProxies:   splitCSV(os.Getenv("TRUSTED_PROXIES")),

		LogLevel:        strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:       strings.ToLower(getEnv("LOG_FORMAT", "pretty")),
		OpenAPISpecPath: strings.TrimSpace(os.Getenv("OPENAPI_SPEC_PATH")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// Validate reports every problem at once so a misconfigured deployment can
// be fixed in one pass.
func (c *Config) Validate() error {
	var errs []error

	switch c.AppEnv {
	case "development", "production", "test":
	default:
		errs = append(errs, fmt.Errorf("APP_ENV must be development, production or test, got %q", c.AppEnv))
	}

	if c.ServerPort == "" {
		errs = append(errs, errors.New("SERVER_PORT cannot be empty"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("REQUEST_TIMEOUT must be positive"))
	}

	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.DBMaxConns <= 0 {
		errs = append(errs, errors.New("DB_MAX_CONNS must be positive"))
	}
	if c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		errs = append(errs, errors.New("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS"))
	}

	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	} else if !c.IsDevelopment() && len(c.JWTSecret) < minProductionSecretBytes {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes outside development", minProductionSecretBytes))
	}
	if c.JWTTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}

	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}

	if c.LockoutMaxAttempts <= 0 {
		errs = append(errs, errors.New("LOCKOUT_MAX_ATTEMPTS must be positive"))
	}
	if c.LockoutDuration <= 0 {
		errs = append(errs, errors.New("LOCKOUT_DURATION must be positive"))
	}
	if c.PasswordResetTTL <= 0 {
		errs = append(errs, errors.New("PASSWORD_RESET_TTL must be positive"))
	}
	if c.ExposeResetToken && !c.IsDevelopment() {
		errs = append(errs, errors.New("EXPOSE_RESET_TOKEN is only allowed when APP_ENV=development"))
	}

	if _, err := c.TrustedProxyPrefixes(); err != nil {
		errs = append(errs, err)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be debug, info, warn or error, got %q", c.LogLevel))
	}
	switch c.LogFormat {
	case "pretty", "json":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be pretty or json, got %q", c.LogFormat))
	}

	return errors.Join(errs...)
}

// TrustedProxyPrefixes parses TrustedProxies. A bare address becomes a
// single-host prefix.
func (c *Config) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(c.TrustedProxies))
	for _, entry := range c.TrustedProxies {
		if prefix, err := netip.ParsePrefix(entry); err == nil {
			out = append(out, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("TRUSTED_PROXIES: %q is not an IP or CIDR", entry)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

func getEnv(key string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}

	return v
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return v
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}

	return out
}
