package logger

import (
	"context"
	"fmt"

	"github.com/FluxtonX/partner-sub002/internal/auth"
	"github.com/FluxtonX/partner-sub002/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the application logger. JSON output is used when asked for
// or in production; everything else gets the colored console encoder.
func NewLogger(cfg *config.LoggingConfig, appCfg *config.AppConfig) (*zap.Logger, error) {
	zapCfg := zap.NewDevelopmentConfig()
	zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if cfg.Format == "json" || appCfg.Environment == "production" {
		zapCfg = zap.NewProductionConfig()
		zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	zapCfg.InitialFields = map[string]interface{}{
		"app":         appCfg.Name,
		"environment": appCfg.Environment,
	}

	log, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return log, nil
}

// WithRequest scopes a logger to one HTTP request
func WithRequest(log *zap.Logger, method, path, requestID string) *zap.Logger {
	return log.With(
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", requestID),
	)
}

// WithBusiness scopes a logger to the acting user and business
func WithBusiness(log *zap.Logger, businessID, userID string) *zap.Logger {
	return log.With(
		zap.String("business_id", businessID),
		zap.String("user_id", userID),
	)
}

// WithEstimate adds estimate identifiers
func WithEstimate(log *zap.Logger, estimateID, number string) *zap.Logger {
	return log.With(
		zap.String("estimate_id", estimateID),
		zap.String("estimate_number", number),
	)
}

// ForContext scopes log to the authenticated caller in ctx, if any
func ForContext(ctx context.Context, log *zap.Logger) *zap.Logger {
	user, ok := auth.FromContext(ctx)
	if !ok {
		return log
	}
	return WithBusiness(log, user.BusinessID.String(), user.UserID.String())
}
