package db

import (
	"gorm.io/gorm"

	"github.com/mercadolito/strategia/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// New opens the configured database. When persistence is disabled the
// returned handle is nil and run storage becomes a no-op.
func New(cfg config.Config, log *zap.Logger) (*gorm.DB, error) {
	if !cfg.PersistenceEnabled() {
		log.Info("run persistence disabled")
		return nil, nil
	}

	dialect, err := Dialect(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := gorm.Open(dialect, &gorm.Config{})
	if err != nil {
		return nil, err
	}

	log.Info("database opened", zap.String("type", cfg.DBType))
	return conn, nil
}

var Module = fx.Module("db",
	fx.Provide(New),
)
