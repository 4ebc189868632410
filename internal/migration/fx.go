package migration

import (
	"strings"

	"github.com/smallbiznis/settlement/internal/config"
	orderdomain "github.com/smallbiznis/settlement/internal/order/domain"
	settlementdomain "github.com/smallbiznis/settlement/internal/settlement/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(Run),
)

// Run migrates the schema on startup when DATABASE_AUTO_MIGRATE is set.
// Postgres uses the versioned SQL files; other dialects fall back to
// gorm's AutoMigrate over the same models.
func Run(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
	if !cfg.DBAutoMigrate {
		log.Info("schema migration skipped")
		return nil
	}

	if strings.EqualFold(cfg.DBType, "postgres") {
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB, log)
	}

	return conn.AutoMigrate(
		&settlementdomain.Settlement{},
		&orderdomain.Order{},
		&orderdomain.OrderItem{},
	)
}
