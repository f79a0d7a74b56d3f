// Package market implements the constant-product market bounded context:
// pair resolution, quoting and reserve reads.
package market

import (
	"context"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/0xarb/flash-liquidator/business/market/app"
	marketDI "github.com/0xarb/flash-liquidator/business/market/di"
	"github.com/0xarb/flash-liquidator/business/market/infra/uniswapv2"
	"github.com/0xarb/flash-liquidator/internal/config"
	"github.com/0xarb/flash-liquidator/internal/di"
	"github.com/0xarb/flash-liquidator/internal/logger"
	"github.com/0xarb/flash-liquidator/internal/monolith"
)

// Module implements the market bounded context.
type Module struct{}

// RegisterServices registers all market services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, marketDI.PairStateReader, func(sr di.ServiceRegistry) app.PairStateReader {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		ethClient := sr.Get("ethClient").(*ethclient.Client)

		reader, err := uniswapv2.NewFactoryClient(ethClient, uniswapv2.DefaultFactoryClientConfig(cfg.Market.FactoryAddressHex()), log)
		if err != nil {
			panic("failed to create factory reader: " + err.Error())
		}
		return reader
	})

	return nil
}

// Startup verifies the configured flash pair exists.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	cfg := mono.Config()

	pairs := marketDI.GetPairStateReader(mono.Services())
	state, err := pairs.PairState(ctx, cfg.Target.CollateralAssetHex(), cfg.Target.BorrowAssetHex())
	if err != nil {
		log.Warn(ctx, "flash pair read failed at startup", "error", err)
		return nil
	}

	log.Info(ctx, "market module started",
		"factory", cfg.Market.FactoryAddress,
		"flash_pair", state.Address.Hex(),
	)
	return nil
}
