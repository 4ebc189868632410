package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/settlement/internal/clock"
	"github.com/smallbiznis/settlement/internal/config"
	"github.com/smallbiznis/settlement/internal/lock"
	"github.com/smallbiznis/settlement/internal/migration"
	"github.com/smallbiznis/settlement/internal/observability"
	"github.com/smallbiznis/settlement/internal/order"
	"github.com/smallbiznis/settlement/internal/receipt"
	"github.com/smallbiznis/settlement/internal/scheduler"
	"github.com/smallbiznis/settlement/internal/settlement"
	"github.com/smallbiznis/settlement/internal/tax"
	"github.com/smallbiznis/settlement/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.WithLogger(observability.NewFxLogger),
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		lock.Module,

		// Domain services required by scheduler
		tax.Module,
		order.Module,
		receipt.Module,
		settlement.Module,

		// No server module!
		scheduler.Module,
	)
	app.Run()
}

// RegisterSnowflake uses a node id distinct from the API binary so both can
// generate settlement ids concurrently.
func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(2)
	if err != nil {
		panic(err)
	}
	return node
}
