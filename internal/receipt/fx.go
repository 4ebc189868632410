package receipt

import (
	"context"
	"fmt"

	"github.com/smallbiznis/settlement/internal/clock"
	"github.com/smallbiznis/settlement/internal/config"
	settlementdomain "github.com/smallbiznis/settlement/internal/settlement/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("receipt",
	fx.Provide(NewStorage),
	fx.Provide(func(s Storage, cfg config.Config, clk clock.Clock, log *zap.Logger) *Exporter {
		return NewExporter(s, cfg.Receipt.GCSPrefix, clk, log)
	}),
	fx.Provide(func(e *Exporter) settlementdomain.ReceiptExporter { return e }),
)

// NewStorage selects the receipt backend from RECEIPT_STORAGE_DRIVER.
func NewStorage(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (Storage, error) {
	switch cfg.Receipt.Driver {
	case "", config.ReceiptDriverLocal:
		return NewLocalStorage(cfg.Receipt.LocalDir)
	case config.ReceiptDriverGCS:
		client, err := NewGCSClient(context.Background(), cfg.Receipt.CredentialsJSON)
		if err != nil {
			return nil, fmt.Errorf("gcs client: %w", err)
		}
		store, err := NewGCSStorage(client, cfg.Receipt.GCSBucket)
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error {
				return store.Close()
			},
		})
		log.Info("receipt storage ready", zap.String("driver", "gcs"), zap.String("bucket", cfg.Receipt.GCSBucket))
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported receipt storage driver %q", cfg.Receipt.Driver)
	}
}
