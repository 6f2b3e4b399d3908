package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
)

// ErrSecretNotFound is returned when the source has no value for a secret.
// Any other error from a Provider means the source itself failed.
var ErrSecretNotFound = errors.New("secret not found")

// SecretSource names where secrets are read from
type SecretSource string

const (
	SourceEnvironment SecretSource = "environment"
	SourceVault       SecretSource = "vault"
	// SourceAuto picks the environment locally and the vault everywhere else
	SourceAuto SecretSource = "auto"
)

// secretGetter is implemented by VaultClient
type secretGetter interface {
	GetSecret(ctx context.Context, secretName string) (string, error)
}

// Provider resolves named secrets from a single source
type Provider struct {
	source SecretSource
	vault  secretGetter
	logger *zap.Logger
}

// ProviderConfig configures NewProvider
type ProviderConfig struct {
	Source       SecretSource
	VaultName    string
	Environment  string
	CacheEnabled bool
	CacheTTL     time.Duration
}

// ResolveSource turns SourceAuto into a concrete source for the environment
func ResolveSource(source SecretSource, environment string) SecretSource {
	if source != SourceAuto {
		return source
	}
	switch environment {
	case "development", "local", "test", "":
		return SourceEnvironment
	default:
		return SourceVault
	}
}

// NewProvider builds a provider for cfg.Source. Vault sources connect eagerly
// so a bad vault name fails at startup rather than on first lookup.
func NewProvider(cfg *ProviderConfig, logger *zap.Logger) (*Provider, error) {
	p := &Provider{
		source: ResolveSource(cfg.Source, cfg.Environment),
		logger: logger.Named("secrets"),
	}

	switch p.source {
	case SourceEnvironment:
	case SourceVault:
		if cfg.VaultName == "" {
			return nil, errors.New("vault name required when using vault secret source")
		}
		client, err := NewVaultClient(&VaultConfig{
			VaultName:    cfg.VaultName,
			CacheEnabled: cfg.CacheEnabled,
			CacheTTL:     cfg.CacheTTL,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize vault client: %w", err)
		}
		p.vault = client
	default:
		return nil, fmt.Errorf("unknown secret source: %q", p.source)
	}

	p.logger.Info("Secrets provider initialized",
		zap.String("source", string(p.source)),
		zap.String("environment", cfg.Environment),
	)
	return p, nil
}

// GetSecret looks up secretName in the configured source. For the
// environment source the name is an environment variable.
func (p *Provider) GetSecret(ctx context.Context, secretName string) (string, error) {
	if p.source == SourceEnvironment {
		return lookupEnv(secretName)
	}
	if p.vault == nil {
		return "", errors.New("vault client not initialized")
	}
	return p.vault.GetSecret(ctx, secretName)
}

// GetSecretOrEnv returns envName when it is set and non-empty, skipping the source
func (p *Provider) GetSecretOrEnv(ctx context.Context, secretName, envName string) (string, error) {
	if value, err := lookupEnv(envName); err == nil {
		p.logger.Debug("Using environment variable override", zap.String("env_name", envName))
		return value, nil
	}
	return p.GetSecret(ctx, secretName)
}

func lookupEnv(name string) (string, error) {
	if value := os.Getenv(name); value != "" {
		return value, nil
	}
	return "", fmt.Errorf("%w: environment variable %s not set", ErrSecretNotFound, name)
}

// Source returns the resolved source
func (p *Provider) Source() SecretSource {
	return p.source
}

// IsVaultEnabled reports whether secrets come from Key Vault
func (p *Provider) IsVaultEnabled() bool {
	return p.source == SourceVault
}
