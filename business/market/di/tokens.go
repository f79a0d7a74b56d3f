// Package di contains dependency injection tokens for the market context.
package di

import (
	"github.com/0xarb/flash-liquidator/business/market/app"
	"github.com/0xarb/flash-liquidator/internal/di"
)

// Public service tokens - exposed to other modules
var (
	PairStateReader = di.NewToken[app.PairStateReader]("market.PairStateReader")
)

// Helper functions for type-safe access
func GetPairStateReader(c di.ServiceRegistry) app.PairStateReader {
	return di.GetToken(c, PairStateReader)
}
