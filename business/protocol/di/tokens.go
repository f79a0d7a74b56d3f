// Package di contains dependency injection tokens for the protocol context.
package di

import (
	"github.com/0xarb/flash-liquidator/business/protocol/app"
	"github.com/0xarb/flash-liquidator/internal/di"
)

// Public service tokens - exposed to other modules
var (
	ProtocolService = di.NewToken[*app.ProtocolService]("protocol.ProtocolService")
	PoolReader      = di.NewToken[app.PoolReader]("protocol.PoolReader")
	PriceOracle     = di.NewToken[app.PriceOracle]("protocol.PriceOracle")
	BalanceReader   = di.NewToken[app.BalanceReader]("protocol.BalanceReader")
)

// Helper functions for type-safe access
func GetProtocolService(c di.ServiceRegistry) *app.ProtocolService {
	return di.GetToken(c, ProtocolService)
}

func GetPoolReader(c di.ServiceRegistry) app.PoolReader {
	return di.GetToken(c, PoolReader)
}

func GetPriceOracle(c di.ServiceRegistry) app.PriceOracle {
	return di.GetToken(c, PriceOracle)
}

func GetBalanceReader(c di.ServiceRegistry) app.BalanceReader {
	return di.GetToken(c, BalanceReader)
}
