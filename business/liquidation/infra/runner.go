package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	liquidationApp "github.com/0xarb/flash-liquidator/business/liquidation/app"
	"github.com/0xarb/flash-liquidator/business/liquidation/domain"
	"github.com/0xarb/flash-liquidator/business/liquidation/infra/sim"
	marketApp "github.com/0xarb/flash-liquidator/business/market/app"
	protocolApp "github.com/0xarb/flash-liquidator/business/protocol/app"
	"github.com/0xarb/flash-liquidator/internal/logger"
)

const (
	tracerName = "github.com/0xarb/flash-liquidator/business/liquidation/infra"
	meterName  = "github.com/0xarb/flash-liquidator/business/liquidation/infra"
)

// RunnerConfig holds the parameters of one engine instance.
type RunnerConfig struct {
	Target         liquidationApp.Target // fixed at construction, see Operate
	Executor       common.Address        // engine-owned settlement account
	Initiator      common.Address        // receives the settled profit
	BorrowAsset    common.Address
	WrappedNative  common.Address
	CloseFactorBps uint64
	// SimPoolAddress is the address the replayed pool's liquidity sits at.
	SimPoolAddress common.Address
}

// runnerMetrics holds OTEL metric instruments.
type runnerMetrics struct {
	attempts    metric.Int64Counter
	completed   metric.Int64Counter
	aborted     metric.Int64Counter
	runDuration metric.Float64Histogram
}

// Runner executes one liquidation attempt end to end: it seeds a settlement
// world from fresh chain reads, drives the orchestrator against it, and
// reports the outcome.
type Runner struct {
	cfg      RunnerConfig
	chain    protocolApp.PoolReader
	protocol *protocolApp.ProtocolService
	oracle   protocolApp.PriceOracle
	balances protocolApp.BalanceReader
	pairs    marketApp.PairStateReader
	reporter liquidationApp.Reporter
	logger   logger.LoggerInterface

	tracer  trace.Tracer
	metrics *runnerMetrics
}

// NewRunner wires a runner over the chain-side read ports.
func NewRunner(
	cfg RunnerConfig,
	chain protocolApp.PoolReader,
	protocol *protocolApp.ProtocolService,
	oracle protocolApp.PriceOracle,
	balances protocolApp.BalanceReader,
	pairs marketApp.PairStateReader,
	reporter liquidationApp.Reporter,
	log logger.LoggerInterface,
) (*Runner, error) {
	r := &Runner{
		cfg:      cfg,
		chain:    chain,
		protocol: protocol,
		oracle:   oracle,
		balances: balances,
		pairs:    pairs,
		reporter: reporter,
		logger:   log,
		tracer:   otel.Tracer(tracerName),
	}
	if err := r.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	return r, nil
}

// initMetrics initializes OTEL metric instruments.
func (r *Runner) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	r.metrics = &runnerMetrics{}

	r.metrics.attempts, err = meter.Int64Counter(
		"liquidation_attempts_total",
		metric.WithDescription("Total liquidation attempts"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return err
	}

	r.metrics.completed, err = meter.Int64Counter(
		"liquidation_completed_total",
		metric.WithDescription("Liquidation attempts that settled profitably"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return err
	}

	r.metrics.aborted, err = meter.Int64Counter(
		"liquidation_aborted_total",
		metric.WithDescription("Liquidation attempts rolled back"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return err
	}

	r.metrics.runDuration, err = meter.Float64Histogram(
		"liquidation_run_duration_seconds",
		metric.WithDescription("Wall time of one end-to-end attempt"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Operate drives one attempt against the configured target.
func (r *Runner) Operate(ctx context.Context) (*domain.Outcome, error) {
	return r.Run(ctx, r.cfg.Target)
}

// Run seeds a world for the target and drives one attempt against it.
func (r *Runner) Run(ctx context.Context, target liquidationApp.Target) (*domain.Outcome, error) {
	ctx, span := r.tracer.Start(ctx, "liquidation.run",
		trace.WithAttributes(
			attribute.String("user", target.User.Hex()),
			attribute.String("collateral", target.CollateralAsset.Hex()),
			attribute.String("debt", target.DebtAsset.Hex()),
		),
	)
	defer span.End()

	start := time.Now()
	r.metrics.attempts.Add(ctx, 1)

	r.logTargetReserves(ctx, target.User)

	world, err := r.seed(ctx, target)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "seed failed")
		r.metrics.aborted.Add(ctx, 1)
		return nil, err
	}

	orchestrator := r.buildOrchestrator(world)
	outcome, err := orchestrator.Liquidate(ctx, target)
	r.metrics.runDuration.Record(ctx, time.Since(start).Seconds())
	if outcome != nil {
		r.reporter.Report(outcome)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "attempt aborted")
		r.metrics.aborted.Add(ctx, 1)
		return outcome, err
	}

	span.SetStatus(codes.Ok, "completed")
	r.metrics.completed.Add(ctx, 1)
	return outcome, nil
}

// logTargetReserves walks the target's reserve involvement before sizing.
// Diagnostic only; a failed walk does not block the attempt.
func (r *Runner) logTargetReserves(ctx context.Context, user common.Address) {
	flags, err := r.protocol.UserReserves(ctx, user)
	if err != nil {
		r.logger.Warn(ctx, "user reserve walk failed", "user", user.Hex(), "error", err)
		return
	}
	for _, f := range flags {
		r.logger.Info(ctx, "target reserve",
			"asset", f.Asset.Hex(),
			"index", f.Index,
			"borrowing", f.Borrowing,
			"collateral", f.AsCollateral,
		)
	}
}

// seed copies the chain state the attempt depends on into a fresh world.
func (r *Runner) seed(ctx context.Context, target liquidationApp.Target) (*sim.World, error) {
	ctx, span := r.tracer.Start(ctx, "liquidation.seed")
	defer span.End()

	world := sim.NewWorld(r.cfg.SimPoolAddress, r.cfg.Executor, r.cfg.CloseFactorBps)
	seeder := sim.NewSeeder(r.chain, r.oracle, r.balances, r.pairs, r.logger)

	assets := []common.Address{target.CollateralAsset, target.DebtAsset}
	if r.cfg.BorrowAsset != target.CollateralAsset && r.cfg.BorrowAsset != target.DebtAsset {
		assets = append(assets, r.cfg.BorrowAsset)
	}
	for _, asset := range assets {
		if err := seeder.SeedReserve(ctx, world, asset, target.User); err != nil {
			span.RecordError(err)
			return nil, err
		}
	}

	if err := seeder.SeedPair(ctx, world, target.CollateralAsset, r.cfg.BorrowAsset); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if r.cfg.BorrowAsset != target.DebtAsset {
		if err := seeder.SeedPair(ctx, world, r.cfg.BorrowAsset, target.DebtAsset); err != nil {
			span.RecordError(err)
			return nil, err
		}
	}

	return world, nil
}

// buildOrchestrator assembles the engine over a seeded world.
func (r *Runner) buildOrchestrator(world *sim.World) *liquidationApp.Orchestrator {
	protocol := protocolApp.NewProtocolService(world.Pool, world.Tokens, r.logger)

	var wrapper liquidationApp.NativeWrapper
	if r.cfg.WrappedNative != (common.Address{}) {
		wrapper = sim.NewWrappedNative(world.Tokens, r.cfg.WrappedNative, "WETH")
	}
	settler := liquidationApp.NewProfitSettler(r.cfg.BorrowAsset, world.Tokens, wrapper, r.logger)

	return liquidationApp.NewOrchestrator(
		liquidationApp.OrchestratorConfig{
			Executor:       r.cfg.Executor,
			Initiator:      r.cfg.Initiator,
			BorrowAsset:    r.cfg.BorrowAsset,
			CloseFactorBps: r.cfg.CloseFactorBps,
		},
		world.Pool,
		world.Oracle,
		protocol,
		world.Factory,
		world.Tokens,
		sim.NewScope(world.Ledger, world.Factory),
		settler,
		r.logger,
	)
}
