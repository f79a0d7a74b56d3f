package sim

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	marketApp "github.com/0xarb/flash-liquidator/business/market/app"
	protocolApp "github.com/0xarb/flash-liquidator/business/protocol/app"
	"github.com/0xarb/flash-liquidator/internal/logger"
)

// World bundles everything one settlement run executes against.
type World struct {
	Ledger  *Ledger
	Oracle  *Oracle
	Pool    *LendingPool
	Factory *PairFactory
	Tokens  *TokenBook
}

// NewWorld creates an empty world. poolAddr is the address holding lending
// liquidity; liquidator is the account LiquidationCall settles against.
func NewWorld(poolAddr, liquidator common.Address, closeFactorBps uint64) *World {
	ledger := NewLedger()
	oracle := NewOracle()
	return &World{
		Ledger:  ledger,
		Oracle:  oracle,
		Pool:    NewLendingPool(ledger, oracle, poolAddr, liquidator, closeFactorBps),
		Factory: NewPairFactory(ledger),
		Tokens:  NewTokenBook(ledger),
	}
}

// Seeder copies chain state into a world: reserve configs, prices, the
// target's receipt balances, pool liquidity and pair reserves.
type Seeder struct {
	pool     protocolApp.PoolReader
	oracle   protocolApp.PriceOracle
	balances protocolApp.BalanceReader
	pairs    marketApp.PairStateReader
	logger   logger.LoggerInterface
}

// NewSeeder wires a seeder over the chain-side read ports.
func NewSeeder(
	pool protocolApp.PoolReader,
	oracle protocolApp.PriceOracle,
	balances protocolApp.BalanceReader,
	pairs marketApp.PairStateReader,
	log logger.LoggerInterface,
) *Seeder {
	return &Seeder{pool: pool, oracle: oracle, balances: balances, pairs: pairs, logger: log}
}

// SeedReserve copies one reserve into the world: its packed configuration,
// its price, the user's receipt balances, and the pool's underlying
// liquidity. On chain the underlying sits in the receipt-token contract, so
// that balance becomes the sim pool's inventory.
func (s *Seeder) SeedReserve(ctx context.Context, w *World, asset, user common.Address) error {
	data, err := s.pool.GetReserveData(ctx, asset)
	if err != nil {
		return err
	}
	w.Pool.AddReserve(data)

	price, err := s.oracle.GetAssetPrice(ctx, asset)
	if err != nil {
		return err
	}
	w.Oracle.SetPrice(asset, price)
	w.Tokens.Register(asset, "", data.Config.Decimals())

	aBal, err := s.balances.BalanceOf(ctx, data.ATokenAddress, user)
	if err != nil {
		return err
	}
	w.Ledger.SetBalance(data.ATokenAddress, user, aBal)

	stable, err := s.balances.BalanceOf(ctx, data.StableDebtAddress, user)
	if err != nil {
		return err
	}
	w.Ledger.SetBalance(data.StableDebtAddress, user, stable)

	variable, err := s.balances.BalanceOf(ctx, data.VariableDebtAddress, user)
	if err != nil {
		return err
	}
	w.Ledger.SetBalance(data.VariableDebtAddress, user, variable)

	liquidity, err := s.balances.BalanceOf(ctx, asset, data.ATokenAddress)
	if err != nil {
		return err
	}
	w.Ledger.SetBalance(asset, w.Pool.Address(), liquidity)

	s.logger.Debug(ctx, "reserve seeded",
		"asset", asset.Hex(),
		"price", price.String(),
		"collateral", aBal.String(),
		"stable_debt", stable.String(),
		"variable_debt", variable.String(),
		"liquidity", liquidity.String(),
	)
	return nil
}

// SeedPair copies one pair's reserves into the world.
func (s *Seeder) SeedPair(ctx context.Context, w *World, assetA, assetB common.Address) error {
	state, err := s.pairs.PairState(ctx, assetA, assetB)
	if err != nil {
		return err
	}
	pair := w.Factory.CreatePair(state.Token0, state.Token1)
	pair.SetReserves(state.Reserve0, state.Reserve1)

	s.logger.Debug(ctx, "pair seeded",
		"token0", state.Token0.Hex(),
		"token1", state.Token1.Hex(),
		"reserve0", state.Reserve0.String(),
		"reserve1", state.Reserve1.String(),
	)
	return nil
}
