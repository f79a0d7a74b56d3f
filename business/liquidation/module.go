// Package liquidation implements the liquidation bounded context: sizing,
// flash-swap orchestration and profit settlement.
package liquidation

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/0xarb/flash-liquidator/business/liquidation/app"
	liquidationDI "github.com/0xarb/flash-liquidator/business/liquidation/di"
	"github.com/0xarb/flash-liquidator/business/liquidation/infra"
	marketDI "github.com/0xarb/flash-liquidator/business/market/di"
	protocolDI "github.com/0xarb/flash-liquidator/business/protocol/di"
	"github.com/0xarb/flash-liquidator/internal/asset"
	"github.com/0xarb/flash-liquidator/internal/config"
	"github.com/0xarb/flash-liquidator/internal/di"
	"github.com/0xarb/flash-liquidator/internal/logger"
	"github.com/0xarb/flash-liquidator/internal/monolith"
)

// Synthetic accounts the settlement world runs against. The executor holds
// balances only inside one attempt; the pool address anchors the replayed
// liquidity.
var (
	executorAddress = common.BytesToAddress(crypto.Keccak256([]byte("liquidation/executor"))[12:])
	simPoolAddress  = common.BytesToAddress(crypto.Keccak256([]byte("liquidation/pool"))[12:])
)

// Module implements the liquidation bounded context.
type Module struct{}

// RegisterServices registers all liquidation services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, liquidationDI.Reporter, func(sr di.ServiceRegistry) app.Reporter {
		cfg := sr.Get("config").(*config.Config)
		assets := sr.Get("assetRegistry").(*asset.Registry)
		return infra.NewConsoleReporter(
			assets,
			cfg.Ethereum.ChainID,
			cfg.Target.CollateralAssetHex(),
			cfg.Target.DebtAssetHex(),
			cfg.Target.BorrowAssetHex(),
			cfg.Target.MinProfitDecimal(),
		)
	})

	di.RegisterToken(c, liquidationDI.Runner, func(sr di.ServiceRegistry) *infra.Runner {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		initiator := cfg.Target.InitiatorHex()
		if initiator == (common.Address{}) {
			initiator = executorAddress
		}

		runner, err := infra.NewRunner(
			infra.RunnerConfig{
				Target: app.Target{
					User:            cfg.Target.UserHex(),
					CollateralAsset: cfg.Target.CollateralAssetHex(),
					DebtAsset:       cfg.Target.DebtAssetHex(),
				},
				Executor:       executorAddress,
				Initiator:      initiator,
				BorrowAsset:    cfg.Target.BorrowAssetHex(),
				WrappedNative:  cfg.Target.WrappedNativeHex(),
				CloseFactorBps: cfg.Protocol.CloseFactorBps,
				SimPoolAddress: simPoolAddress,
			},
			protocolDI.GetPoolReader(sr),
			protocolDI.GetProtocolService(sr),
			protocolDI.GetPriceOracle(sr),
			protocolDI.GetBalanceReader(sr),
			marketDI.GetPairStateReader(sr),
			liquidationDI.GetReporter(sr),
			log,
		)
		if err != nil {
			panic("failed to create liquidation runner: " + err.Error())
		}
		return runner
	})

	return nil
}

// Startup brings up the reporter.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	reporter := liquidationDI.GetReporter(mono.Services())
	if err := reporter.Start(ctx); err != nil {
		return err
	}

	log.Info(ctx, "liquidation module started")
	return nil
}
