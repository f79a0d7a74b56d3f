// Package protocol implements the lending protocol bounded context: reserve
// configuration, account health and position reads.
package protocol

import (
	"context"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/0xarb/flash-liquidator/business/protocol/app"
	protocolDI "github.com/0xarb/flash-liquidator/business/protocol/di"
	"github.com/0xarb/flash-liquidator/business/protocol/infra/aave"
	"github.com/0xarb/flash-liquidator/internal/config"
	"github.com/0xarb/flash-liquidator/internal/di"
	"github.com/0xarb/flash-liquidator/internal/logger"
	"github.com/0xarb/flash-liquidator/internal/monolith"
)

// Module implements the protocol bounded context.
type Module struct{}

// RegisterServices registers all protocol services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, protocolDI.PoolReader, func(sr di.ServiceRegistry) app.PoolReader {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		ethClient := sr.Get("ethClient").(*ethclient.Client)

		clientCfg := aave.DefaultPoolClientConfig(cfg.Protocol.LendingPoolAddressHex())
		clientCfg.RequestsPerSecond = cfg.Ethereum.RequestsPerSec

		reader, err := aave.NewPoolClient(ethClient, clientCfg, log)
		if err != nil {
			panic("failed to create pool reader: " + err.Error())
		}
		return reader
	})

	di.RegisterToken(c, protocolDI.PriceOracle, func(sr di.ServiceRegistry) app.PriceOracle {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		ethClient := sr.Get("ethClient").(*ethclient.Client)

		oracle, err := aave.NewOracleClient(ethClient, aave.DefaultOracleClientConfig(cfg.Protocol.PriceOracleAddressHex()), log)
		if err != nil {
			panic("failed to create oracle reader: " + err.Error())
		}
		return oracle
	})

	di.RegisterToken(c, protocolDI.BalanceReader, func(sr di.ServiceRegistry) app.BalanceReader {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		ethClient := sr.Get("ethClient").(*ethclient.Client)

		reader, err := aave.NewERC20Reader(ethClient, cfg.Ethereum.RequestsPerSec, log)
		if err != nil {
			panic("failed to create erc20 reader: " + err.Error())
		}
		return reader
	})

	di.RegisterToken(c, protocolDI.ProtocolService, func(sr di.ServiceRegistry) *app.ProtocolService {
		log := sr.Get("logger").(logger.LoggerInterface)
		return app.NewProtocolService(
			protocolDI.GetPoolReader(sr),
			protocolDI.GetBalanceReader(sr),
			log,
		)
	})

	return nil
}

// Startup verifies the configured reserves are readable.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	cfg := mono.Config()

	pool := protocolDI.GetPoolReader(mono.Services())
	reserves, err := pool.GetReservesList(ctx)
	if err != nil {
		log.Warn(ctx, "reserves list read failed at startup", "error", err)
		return nil
	}

	log.Info(ctx, "protocol module started",
		"lending_pool", cfg.Protocol.LendingPoolAddress,
		"reserves", len(reserves),
	)
	return nil
}
