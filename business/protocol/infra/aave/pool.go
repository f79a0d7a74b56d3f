// Package aave implements the protocol context's chain-side ports against an
// Aave V2 style lending pool over JSON-RPC.
package aave

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/holiman/uint256"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/0xarb/flash-liquidator/business/protocol/app"
	"github.com/0xarb/flash-liquidator/business/protocol/domain"
	"github.com/0xarb/flash-liquidator/internal/apperror"
	"github.com/0xarb/flash-liquidator/internal/cache"
	"github.com/0xarb/flash-liquidator/internal/circuitbreaker"
	"github.com/0xarb/flash-liquidator/internal/logger"
	"github.com/0xarb/flash-liquidator/internal/ratelimit"
)

const (
	tracerName = "aave"
	meterName  = "aave"
)

// Ensure PoolClient implements the read port.
var _ app.PoolReader = (*PoolClient)(nil)

// PoolClientConfig holds configuration for the pool reader.
type PoolClientConfig struct {
	PoolAddress common.Address
	// RequestsPerSecond caps the RPC call rate.
	RequestsPerSecond float64
	// ReserveDataTTL is how long reserve metadata may be served from cache.
	// Receipt-token addresses are effectively immutable, so minutes are fine.
	ReserveDataTTL time.Duration
}

// DefaultPoolClientConfig returns sensible defaults.
func DefaultPoolClientConfig(pool common.Address) PoolClientConfig {
	return PoolClientConfig{
		PoolAddress:       pool,
		RequestsPerSecond: 10,
		ReserveDataTTL:    5 * time.Minute,
	}
}

// poolMetrics holds OTEL metric instruments.
type poolMetrics struct {
	callsTotal  metric.Int64Counter
	callErrors  metric.Int64Counter
	callLatency metric.Float64Histogram
}

// PoolClient reads the lending pool's accounting over JSON-RPC. Account and
// configuration reads go straight to the node; reserve metadata is cached.
type PoolClient struct {
	config  PoolClientConfig
	client  *ethclient.Client
	poolABI abi.ABI

	reserveCache *cache.Cache[common.Address, domain.ReserveData]
	limiter      *ratelimit.Limiter
	cb           *circuitbreaker.CircuitBreaker[[]byte]
	logger       logger.LoggerInterface

	tracer  trace.Tracer
	metrics *poolMetrics
}

// NewPoolClient creates a pool reader over an established RPC client.
func NewPoolClient(client *ethclient.Client, cfg PoolClientConfig, log logger.LoggerInterface) (*PoolClient, error) {
	parsedABI, err := abi.JSON(strings.NewReader(LendingPoolABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse lending pool ABI: %w", err)
	}

	p := &PoolClient{
		config:       cfg,
		client:       client,
		poolABI:      parsedABI,
		reserveCache: cache.New[common.Address, domain.ReserveData](time.Minute),
		limiter:      ratelimit.New(cfg.RequestsPerSecond),
		logger:       log,
		tracer:       otel.Tracer(tracerName),
	}

	cbCfg := circuitbreaker.DefaultConfig("aave-pool")
	p.cb = circuitbreaker.New[[]byte](cbCfg)

	if err := p.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	return p, nil
}

func (p *PoolClient) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	p.metrics = &poolMetrics{}

	p.metrics.callsTotal, err = meter.Int64Counter(
		"aave_pool_calls_total",
		metric.WithDescription("Total lending pool contract calls"),
	)
	if err != nil {
		return err
	}

	p.metrics.callErrors, err = meter.Int64Counter(
		"aave_pool_call_errors_total",
		metric.WithDescription("Failed lending pool contract calls"),
	)
	if err != nil {
		return err
	}

	p.metrics.callLatency, err = meter.Float64Histogram(
		"aave_pool_call_latency_ms",
		metric.WithDescription("Lending pool call latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	return nil
}

// call packs, rate-limits and executes one eth_call against the pool.
func (p *PoolClient) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	callData, err := p.poolABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s call: %w", method, err)
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeRateLimitExceeded, method)
	}

	start := time.Now()
	p.metrics.callsTotal.Add(ctx, 1)

	result, err := p.cb.Execute(func() ([]byte, error) {
		return p.client.CallContract(ctx, ethereum.CallMsg{
			To:   &p.config.PoolAddress,
			Data: callData,
		}, nil)
	})
	p.metrics.callLatency.Record(ctx, float64(time.Since(start).Milliseconds()))
	if err != nil {
		p.metrics.callErrors.Add(ctx, 1)
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("%s call failed", method)))
	}

	outputs, err := p.poolABI.Unpack(method, result)
	if err != nil {
		p.metrics.callErrors.Add(ctx, 1)
		return nil, fmt.Errorf("failed to decode %s result: %w", method, err)
	}
	return outputs, nil
}

// GetUserAccountData returns the aggregate account view.
func (p *PoolClient) GetUserAccountData(ctx context.Context, user common.Address) (domain.AccountData, error) {
	ctx, span := p.tracer.Start(ctx, "aave.get_user_account_data",
		trace.WithAttributes(attribute.String("user", user.Hex())),
	)
	defer span.End()

	outputs, err := p.call(ctx, "getUserAccountData", user)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "call failed")
		return domain.AccountData{}, err
	}
	if len(outputs) < 6 {
		return domain.AccountData{}, fmt.Errorf("unexpected output length: %d", len(outputs))
	}

	totalCollateral, err := toUint256(outputs[0])
	if err != nil {
		return domain.AccountData{}, err
	}
	totalDebt, err := toUint256(outputs[1])
	if err != nil {
		return domain.AccountData{}, err
	}
	available, err := toUint256(outputs[2])
	if err != nil {
		return domain.AccountData{}, err
	}
	health, err := toUint256(outputs[5])
	if err != nil {
		return domain.AccountData{}, err
	}

	span.SetAttributes(attribute.String("health_factor", health.String()))
	span.SetStatus(codes.Ok, "read")

	return domain.AccountData{
		TotalCollateral: totalCollateral,
		TotalDebt:       totalDebt,
		AvailableBorrow: available,
		HealthFactor:    health,
	}, nil
}

// GetReserveData returns the receipt-token addresses and packed
// configuration for an asset's reserve, served from cache when fresh.
func (p *PoolClient) GetReserveData(ctx context.Context, asset common.Address) (domain.ReserveData, error) {
	if data, found := p.reserveCache.Get(ctx, asset); found {
		return data, nil
	}

	ctx, span := p.tracer.Start(ctx, "aave.get_reserve_data",
		trace.WithAttributes(attribute.String("asset", asset.Hex())),
	)
	defer span.End()

	outputs, err := p.call(ctx, "getReserveData", asset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "call failed")
		return domain.ReserveData{}, err
	}
	if len(outputs) < 12 {
		return domain.ReserveData{}, fmt.Errorf("unexpected output length: %d", len(outputs))
	}

	configuration, err := toUint256(outputs[0])
	if err != nil {
		return domain.ReserveData{}, err
	}

	data := domain.ReserveData{
		Asset:               asset,
		ATokenAddress:       outputs[7].(common.Address),
		StableDebtAddress:   outputs[8].(common.Address),
		VariableDebtAddress: outputs[9].(common.Address),
		Config:              domain.ReserveConfig{Data: configuration},
	}
	p.reserveCache.Set(ctx, asset, data, p.config.ReserveDataTTL)

	span.SetStatus(codes.Ok, "read")
	return data, nil
}

// GetReservesList returns the protocol's reserves in index order.
func (p *PoolClient) GetReservesList(ctx context.Context) ([]common.Address, error) {
	outputs, err := p.call(ctx, "getReservesList")
	if err != nil {
		return nil, err
	}
	if len(outputs) < 1 {
		return nil, fmt.Errorf("unexpected output length: %d", len(outputs))
	}
	list, ok := outputs[0].([]common.Address)
	if !ok {
		return nil, fmt.Errorf("unexpected reserves list type %T", outputs[0])
	}
	return list, nil
}

// GetUserConfiguration returns the packed borrow/collateral bitmap.
func (p *PoolClient) GetUserConfiguration(ctx context.Context, user common.Address) (domain.UserConfig, error) {
	outputs, err := p.call(ctx, "getUserConfiguration", user)
	if err != nil {
		return domain.UserConfig{}, err
	}
	if len(outputs) < 1 {
		return domain.UserConfig{}, fmt.Errorf("unexpected output length: %d", len(outputs))
	}
	data, err := toUint256(outputs[0])
	if err != nil {
		return domain.UserConfig{}, err
	}
	return domain.NewUserConfig(data), nil
}

// GetConfiguration returns the packed reserve configuration word.
func (p *PoolClient) GetConfiguration(ctx context.Context, asset common.Address) (domain.ReserveConfig, error) {
	outputs, err := p.call(ctx, "getConfiguration", asset)
	if err != nil {
		return domain.ReserveConfig{}, err
	}
	if len(outputs) < 1 {
		return domain.ReserveConfig{}, fmt.Errorf("unexpected output length: %d", len(outputs))
	}
	data, err := toUint256(outputs[0])
	if err != nil {
		return domain.ReserveConfig{}, err
	}
	return domain.ReserveConfig{Data: data}, nil
}

// Close releases the reserve cache janitor.
func (p *PoolClient) Close() {
	p.reserveCache.Close()
}

// toUint256 converts an unpacked *big.Int output.
func toUint256(v interface{}) (*uint256.Int, error) {
	b, ok := v.(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected output type %T", v)
	}
	u, overflow := uint256.FromBig(b)
	if overflow {
		return nil, apperror.Validation(apperror.CodeOverflow, "contract output exceeds 256 bits")
	}
	return u, nil
}
