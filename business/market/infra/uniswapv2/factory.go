// Package uniswapv2 reads constant-product pair state from a Uniswap V2
// style factory over JSON-RPC.
package uniswapv2

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
	"go.opentelemetry.io/otel/trace"

	"github.com/0xarb/flash-liquidator/business/market/app"
	"github.com/0xarb/flash-liquidator/internal/apperror"
	"github.com/0xarb/flash-liquidator/internal/cache"
	"github.com/0xarb/flash-liquidator/internal/circuitbreaker"
	"github.com/0xarb/flash-liquidator/internal/logger"
)

const tracerName = "uniswapv2"

// Ensure FactoryClient implements the snapshot port.
var _ app.PairStateReader = (*FactoryClient)(nil)

// FactoryClientConfig holds configuration for the factory reader.
type FactoryClientConfig struct {
	FactoryAddress common.Address
	// PairAddressTTL is how long a resolved pair address may be reused.
	// Pair addresses never change once created.
	PairAddressTTL time.Duration
}

// DefaultFactoryClientConfig returns sensible defaults.
func DefaultFactoryClientConfig(factory common.Address) FactoryClientConfig {
	return FactoryClientConfig{
		FactoryAddress: factory,
		PairAddressTTL: time.Hour,
	}
}

// FactoryClient resolves pairs through the factory and reads their reserves.
// Reserves are never cached; a stale read would missize the flash borrow.
type FactoryClient struct {
	config     FactoryClientConfig
	client     *ethclient.Client
	factoryABI abi.ABI
	pairABI    abi.ABI

	addressCache *cache.Cache[[2]common.Address, common.Address]
	cb           *circuitbreaker.CircuitBreaker[[]byte]
	logger       logger.LoggerInterface
	tracer       trace.Tracer
}

// NewFactoryClient creates a factory reader over an established RPC client.
func NewFactoryClient(client *ethclient.Client, cfg FactoryClientConfig, log logger.LoggerInterface) (*FactoryClient, error) {
	factoryABI, err := abi.JSON(strings.NewReader(FactoryABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse factory ABI: %w", err)
	}
	pairABI, err := abi.JSON(strings.NewReader(PairABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse pair ABI: %w", err)
	}

	f := &FactoryClient{
		config:       cfg,
		client:       client,
		factoryABI:   factoryABI,
		pairABI:      pairABI,
		addressCache: cache.New[[2]common.Address, common.Address](time.Minute),
		logger:       log,
		tracer:       otel.Tracer(tracerName),
	}

	cbCfg := circuitbreaker.DefaultConfig("uniswapv2-factory")
	f.cb = circuitbreaker.New[[]byte](cbCfg)

	return f, nil
}

// PairState resolves the pair for the two assets and reads its reserves.
func (f *FactoryClient) PairState(ctx context.Context, assetA, assetB common.Address) (app.PairState, error) {
	ctx, span := f.tracer.Start(ctx, "uniswapv2.pair_state",
		trace.WithAttributes(
			attribute.String("asset_a", assetA.Hex()),
			attribute.String("asset_b", assetB.Hex()),
		),
	)
	defer span.End()

	pairAddr, err := f.pairAddress(ctx, assetA, assetB)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "pair lookup failed")
		return app.PairState{}, err
	}

	reserve0, reserve1, err := f.reserves(ctx, pairAddr)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "reserves read failed")
		return app.PairState{}, err
	}

	token0, token1 := app.SortTokens(assetA, assetB)
	state := app.PairState{
		Address:  pairAddr,
		Token0:   token0,
		Token1:   token1,
		Reserve0: reserve0,
		Reserve1: reserve1,
	}

	span.SetAttributes(
		attribute.String("pair", pairAddr.Hex()),
		attribute.String("reserve0", reserve0.String()),
		attribute.String("reserve1", reserve1.String()),
	)
	span.SetStatus(codes.Ok, "read")

	f.logger.Debug(ctx, "pair state",
		"pair", pairAddr.Hex(),
		"reserve0", reserve0.String(),
		"reserve1", reserve1.String(),
	)
	return state, nil
}

// pairAddress resolves the pair contract through the factory, cached.
func (f *FactoryClient) pairAddress(ctx context.Context, assetA, assetB common.Address) (common.Address, error) {
	token0, token1 := app.SortTokens(assetA, assetB)
	key := [2]common.Address{token0, token1}
	if addr, found := f.addressCache.Get(ctx, key); found {
		return addr, nil
	}

	callData, err := f.factoryABI.Pack("getPair", token0, token1)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to encode getPair call: %w", err)
	}
	result, err := f.cb.Execute(func() ([]byte, error) {
		return f.client.CallContract(ctx, ethereum.CallMsg{
			To:   &f.config.FactoryAddress,
			Data: callData,
		}, nil)
	})
	if err != nil {
		return common.Address{}, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext("factory getPair call failed"))
	}

	outputs, err := f.factoryABI.Unpack("getPair", result)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to decode getPair result: %w", err)
	}
	if len(outputs) < 1 {
		return common.Address{}, fmt.Errorf("unexpected output length: %d", len(outputs))
	}
	addr, ok := outputs[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("unexpected output type %T", outputs[0])
	}
	if addr == (common.Address{}) {
		return common.Address{}, apperror.Validation(apperror.CodePairNotFound,
			"factory has no pair for "+token0.Hex()+"/"+token1.Hex())
	}

	f.addressCache.Set(ctx, key, addr, f.config.PairAddressTTL)
	return addr, nil
}

// reserves reads the pair's current reserves.
func (f *FactoryClient) reserves(ctx context.Context, pair common.Address) (*uint256.Int, *uint256.Int, error) {
	callData, err := f.pairABI.Pack("getReserves")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode getReserves call: %w", err)
	}
	result, err := f.cb.Execute(func() ([]byte, error) {
		return f.client.CallContract(ctx, ethereum.CallMsg{
			To:   &pair,
			Data: callData,
		}, nil)
	})
	if err != nil {
		return nil, nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext("pair getReserves call failed"))
	}

	outputs, err := f.pairABI.Unpack("getReserves", result)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode getReserves result: %w", err)
	}
	if len(outputs) < 3 {
		return nil, nil, fmt.Errorf("unexpected output length: %d", len(outputs))
	}

	reserve0, err := toUint256(outputs[0])
	if err != nil {
		return nil, nil, err
	}
	reserve1, err := toUint256(outputs[1])
	if err != nil {
		return nil, nil, err
	}
	return reserve0, reserve1, nil
}

// Close releases the address cache janitor.
func (f *FactoryClient) Close() {
	f.addressCache.Close()
}

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
