package logging

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/km-arc/go-resolver/framework/config"
)

// New builds the application logger. Local environments get zap's
// development config (console, debug stack traces); everything else gets the
// production config (JSON, sampling). LOG_LEVEL and LOG_ENCODING override
// either preset.
func New(app config.AppConfig, cfg config.LogConfig) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if app.IsLocal() {
		zc = zap.NewDevelopmentConfig()
	}

	if cfg.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("logging: %w", err)
		}
		zc.Level = level
	}

	switch cfg.Encoding {
	case "":
	case "json", "console":
		zc.Encoding = cfg.Encoding
	default:
		return nil, fmt.Errorf("logging: unknown encoding %q", cfg.Encoding)
	}

	logger, err := zc.Build(zap.Fields(zap.String("app", app.Name), zap.String("env", app.Env)))
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}
