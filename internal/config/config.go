package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/FluxtonX/partner-sub002/internal/secrets"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Storage   StorageConfig
	Secrets   SecretsConfig
	Logging   LoggingConfig
	Server    ServerConfig
	CORS      CORSConfig
	Security  SecurityConfig
	RateLimit RateLimitConfig
	Jobs      JobsConfig
}

type AppConfig struct {
	Name        string
	Environment string
	Port        int
}

type DatabaseConfig struct {
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
}

// AuthConfig holds token and API key settings
type AuthConfig struct {
	// JWTSecret is the HMAC secret used to verify bearer tokens
	JWTSecret string
	// Issuer is the expected "iss" claim; empty disables the check
	Issuer string
	// APIKey authenticates system-to-system calls
	APIKey string
}

type StorageConfig struct {
	Mode                  string
	LocalBasePath         string
	CloudConnectionString string
	CloudContainer        string
}

type SecretsConfig struct {
	// Source determines where secrets are loaded from: "environment", "vault", or "auto"
	// "auto" uses environment in development, vault in staging/production
	Source       string
	KeyVaultName string
	CacheEnabled bool
	CacheTTL     int // seconds
}

type LoggingConfig struct {
	Level  string
	Format string
}

type ServerConfig struct {
	ReadTimeout    int
	WriteTimeout   int
	RequestTimeout int
	EnableSwagger  bool
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	// AllowedOrigins is a list of allowed origins for CORS requests
	// Use "*" to allow all origins (not recommended for production)
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	// MaxAge is the max age (in seconds) for preflight cache
	MaxAge int
}

// SecurityConfig holds security header configuration
type SecurityConfig struct {
	EnableHSTS            bool
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool
	HSTSPreload           bool
	ContentSecurityPolicy string
	// FrameOptions sets the X-Frame-Options header (DENY, SAMEORIGIN, or empty to disable)
	FrameOptions       string
	ContentTypeNosniff bool
	ReferrerPolicy     string
	PermissionsPolicy  string
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled bool
	// RequestsPerMinute is the limit per client IP
	RequestsPerMinute int
	// RequestsPerMinuteBusiness is the limit per authenticated business
	RequestsPerMinuteBusiness int
	WhitelistIPs              []string
	// WhitelistPaths bypass rate limiting; a trailing /* matches a prefix
	WhitelistPaths []string
}

// JobsConfig holds background job configuration
type JobsConfig struct {
	// TotalsRefreshEnabled turns on the periodic cached-totals refresh
	TotalsRefreshEnabled bool
	// TotalsRefreshCron uses the six-field (seconds) cron format
	TotalsRefreshCron string
	// TotalsRefreshTimeout bounds a single run (seconds)
	TotalsRefreshTimeout int
	// TotalsRefreshOnStartup runs one refresh in the background at boot
	TotalsRefreshOnStartup bool
}

// ConnectionString builds PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// ConnMaxLifetimeDuration returns connection max lifetime as duration
func (d *DatabaseConfig) ConnMaxLifetimeDuration() time.Duration {
	return time.Duration(d.ConnMaxLifetime) * time.Second
}

// ReadTimeoutDuration returns read timeout as duration
func (s *ServerConfig) ReadTimeoutDuration() time.Duration {
	return time.Duration(s.ReadTimeout) * time.Second
}

// WriteTimeoutDuration returns write timeout as duration
func (s *ServerConfig) WriteTimeoutDuration() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

// RequestTimeoutDuration returns request timeout as duration
func (s *ServerConfig) RequestTimeoutDuration() time.Duration {
	return time.Duration(s.RequestTimeout) * time.Second
}

// TotalsRefreshTimeoutDuration returns the refresh job timeout as duration
func (j *JobsConfig) TotalsRefreshTimeoutDuration() time.Duration {
	return time.Duration(j.TotalsRefreshTimeout) * time.Second
}

// Load reads config.json (from . or ./config) and the environment, with
// environment variables taking precedence. Vault secrets are not resolved;
// use LoadWithSecrets for that.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Deployment-wide variable names that do not follow the section_key scheme
	for env, dest := range map[string]*string{
		"ADMIN_API_KEY":        &cfg.Auth.APIKey,
		"JWT_SECRET":           &cfg.Auth.JWTSecret,
		"AZURE_KEY_VAULT_NAME": &cfg.Secrets.KeyVaultName,
	} {
		if *dest == "" {
			*dest = v.GetString(env)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every setting that would make the service misbehave at runtime
func (c *Config) Validate() error {
	var errs []error
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("app.port %d out of range", c.App.Port))
	}
	switch c.Storage.Mode {
	case "local", "cloud", "azure":
	default:
		errs = append(errs, fmt.Errorf("storage.mode %q must be local, cloud or azure", c.Storage.Mode))
	}
	switch secrets.SecretSource(c.Secrets.Source) {
	case secrets.SourceAuto, secrets.SourceEnvironment, secrets.SourceVault:
	default:
		errs = append(errs, fmt.Errorf("secrets.source %q must be auto, environment or vault", c.Secrets.Source))
	}
	if c.Logging.Format != "console" && c.Logging.Format != "json" {
		errs = append(errs, fmt.Errorf("logging.format %q must be console or json", c.Logging.Format))
	}
	if c.RateLimit.Enabled && c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("rateLimit.requestsPerMinute must be positive when rate limiting is enabled"))
	}
	if c.Jobs.TotalsRefreshEnabled && strings.TrimSpace(c.Jobs.TotalsRefreshCron) == "" {
		errs = append(errs, errors.New("jobs.totalsRefreshCron is required when the refresh job is enabled"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// LoadWithSecrets loads configuration and resolves secrets from the configured source.
//
// Key Vault is used when BOTH conditions are met:
// 1. USE_AZURE_KEY_VAULT environment variable is set to "true"
// 2. Environment is "staging" or "production"
func LoadWithSecrets(ctx context.Context, logger *zap.Logger) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	useKeyVault := strings.ToLower(os.Getenv("USE_AZURE_KEY_VAULT")) == "true"
	isValidEnv := cfg.App.Environment == "staging" || cfg.App.Environment == "production"

	if !useKeyVault {
		logger.Info("USE_AZURE_KEY_VAULT not enabled, using environment variables for secrets",
			zap.String("environment", cfg.App.Environment),
		)
		return cfg, nil
	}

	if !isValidEnv {
		logger.Warn("USE_AZURE_KEY_VAULT is enabled but environment is not staging or production, using environment variables for secrets",
			zap.String("environment", cfg.App.Environment),
		)
		return cfg, nil
	}

	if cfg.Secrets.KeyVaultName == "" {
		return nil, fmt.Errorf("AZURE_KEY_VAULT_NAME is required when USE_AZURE_KEY_VAULT=true")
	}

	provider, err := secrets.NewProvider(&secrets.ProviderConfig{
		Source:       secrets.SourceVault,
		VaultName:    cfg.Secrets.KeyVaultName,
		Environment:  cfg.App.Environment,
		CacheEnabled: cfg.Secrets.CacheEnabled,
		CacheTTL:     time.Duration(cfg.Secrets.CacheTTL) * time.Second,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize secrets provider (USE_AZURE_KEY_VAULT=true requires valid vault): %w", err)
	}

	if err := applySecrets(ctx, cfg, provider); err != nil {
		return nil, err
	}

	logger.Info("Secrets loaded from vault successfully",
		zap.String("key_vault_name", cfg.Secrets.KeyVaultName),
	)
	return cfg, nil
}

// SecretSource is the subset of the secrets provider used to resolve config values
type SecretSource interface {
	GetSecretOrEnv(ctx context.Context, secretName, envName string) (string, error)
}

// applySecrets overlays secret values onto cfg. Missing secrets keep the
// configured value; any other lookup failure aborts.
func applySecrets(ctx context.Context, cfg *Config, source SecretSource) error {
	targets := []struct {
		secret string
		env    string
		dest   *string
	}{
		{"POSTGRES-MAIN-HOST", "DATABASE_HOST", &cfg.Database.Host},
		{"POSTGRES-MAIN-USER", "DATABASE_USER", &cfg.Database.User},
		{"POSTGRES-MAIN-PASSWORD", "DATABASE_PASSWORD", &cfg.Database.Password},
		{"jwt-secret", "JWT_SECRET", &cfg.Auth.JWTSecret},
		{"admin-api-key", "ADMIN_API_KEY", &cfg.Auth.APIKey},
		{"storage-connection-string", "STORAGE_CLOUDCONNECTIONSTRING", &cfg.Storage.CloudConnectionString},
	}

	for _, t := range targets {
		value, err := source.GetSecretOrEnv(ctx, t.secret, t.env)
		if errors.Is(err, secrets.ErrSecretNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to load secret %s: %w", t.secret, err)
		}
		if value != "" {
			*t.dest = value
		}
	}

	// Database name and SSL mode vary per environment and are never vaulted
	if name := os.Getenv("DEFAULT_DATABASE"); name != "" {
		cfg.Database.Name = name
	}
	if sslMode := os.Getenv("DATABASE_SSLMODE"); sslMode != "" {
		cfg.Database.SSLMode = sslMode
	}

	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("jwt secret not found in vault or environment")
	}
	return nil
}

var defaults = map[string]any{
	"app.name":        "Estimate API",
	"app.environment": "development",
	"app.port":        8080,

	"database.host":            "localhost",
	"database.port":            5432,
	"database.name":            "estimates",
	"database.user":            "estimates_user",
	"database.password":        "estimates_password",
	"database.sslMode":         "disable",
	"database.maxOpenConns":    25,
	"database.maxIdleConns":    5,
	"database.connMaxLifetime": 300,

	"auth.issuer": "",

	"secrets.source":       "auto",
	"secrets.cacheEnabled": true,
	"secrets.cacheTTL":     300,

	"storage.mode":           "local",
	"storage.localBasePath":  "./storage",
	"storage.cloudContainer": "estimate-exports",

	"logging.level":  "info",
	"logging.format": "console",

	"server.readTimeout":    30,
	"server.writeTimeout":   30,
	"server.requestTimeout": 60,
	"server.enableSwagger":  true,

	// No origins are allowed until configured
	"cors.allowedOrigins":   []string{},
	"cors.allowedMethods":   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
	"cors.allowedHeaders":   []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Business-ID", "X-Request-ID"},
	"cors.exposedHeaders":   []string{"Location", "X-Request-ID"},
	"cors.allowCredentials": true,
	"cors.maxAge":           300,

	"security.enableHSTS":            false,
	"security.hstsMaxAge":            31536000,
	"security.hstsIncludeSubdomains": true,
	"security.hstsPreload":           false,
	"security.contentSecurityPolicy": "default-src 'self'",
	"security.frameOptions":          "DENY",
	"security.contentTypeNosniff":    true,
	"security.referrerPolicy":        "strict-origin-when-cross-origin",
	"security.permissionsPolicy":     "geolocation=(), microphone=(), camera=()",

	"rateLimit.enabled":                   true,
	"rateLimit.requestsPerMinute":         120,
	"rateLimit.requestsPerMinuteBusiness": 600,
	"rateLimit.whitelistIPs":              []string{"127.0.0.1", "::1"},
	"rateLimit.whitelistPaths":            []string{"/health", "/health/db", "/health/ready", "/swagger/*"},

	"jobs.totalsRefreshEnabled":   true,
	"jobs.totalsRefreshCron":      "0 0 3 * * *",
	"jobs.totalsRefreshTimeout":   600,
	"jobs.totalsRefreshOnStartup": false,
}
