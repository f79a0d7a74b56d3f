// Package di contains dependency injection tokens for the liquidation context.
package di

import (
	"github.com/0xarb/flash-liquidator/business/liquidation/app"
	"github.com/0xarb/flash-liquidator/business/liquidation/infra"
	"github.com/0xarb/flash-liquidator/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Runner = di.NewToken[*infra.Runner]("liquidation.Runner")
)

// Private dependency tokens - internal to liquidation module
var (
	Reporter = di.NewToken[app.Reporter]("liquidation:reporter")
)

// Helper functions for type-safe access
func GetRunner(c di.ServiceRegistry) *infra.Runner {
	return di.GetToken(c, Runner)
}

func GetReporter(c di.ServiceRegistry) app.Reporter {
	return di.GetToken(c, Reporter)
}
