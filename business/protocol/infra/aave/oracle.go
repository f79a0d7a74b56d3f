package aave

import (
	"context"
	"fmt"
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

	"github.com/0xarb/flash-liquidator/business/protocol/app"
	"github.com/0xarb/flash-liquidator/internal/apperror"
	"github.com/0xarb/flash-liquidator/internal/cache"
	"github.com/0xarb/flash-liquidator/internal/circuitbreaker"
	"github.com/0xarb/flash-liquidator/internal/logger"
)

// Ensure OracleClient implements the price port.
var _ app.PriceOracle = (*OracleClient)(nil)

// OracleClientConfig holds configuration for the price oracle reader.
type OracleClientConfig struct {
	OracleAddress common.Address
	// PriceTTL bounds how long a price may be served from cache between
	// attempts. Each attempt reads a price exactly once, at seed time; a
	// read path that consults the same price twice within one attempt must
	// not rely on this cache, it can hand back a stale quote mid-decision.
	PriceTTL time.Duration
}

// DefaultOracleClientConfig returns sensible defaults.
func DefaultOracleClientConfig(oracle common.Address) OracleClientConfig {
	return OracleClientConfig{
		OracleAddress: oracle,
		PriceTTL:      12 * time.Second,
	}
}

// OracleClient reads asset prices from the protocol oracle contract.
type OracleClient struct {
	config    OracleClientConfig
	client    *ethclient.Client
	oracleABI abi.ABI

	priceCache *cache.Cache[common.Address, *uint256.Int]
	cb         *circuitbreaker.CircuitBreaker[[]byte]
	logger     logger.LoggerInterface
	tracer     trace.Tracer
}

// NewOracleClient creates an oracle reader over an established RPC client.
func NewOracleClient(client *ethclient.Client, cfg OracleClientConfig, log logger.LoggerInterface) (*OracleClient, error) {
	parsedABI, err := abi.JSON(strings.NewReader(PriceOracleABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse oracle ABI: %w", err)
	}

	o := &OracleClient{
		config:     cfg,
		client:     client,
		oracleABI:  parsedABI,
		priceCache: cache.New[common.Address, *uint256.Int](time.Minute),
		logger:     log,
		tracer:     otel.Tracer(tracerName),
	}

	cbCfg := circuitbreaker.DefaultConfig("aave-oracle")
	o.cb = circuitbreaker.New[[]byte](cbCfg)

	return o, nil
}

// GetAssetPrice returns the asset's price in the 18-decimal reference unit.
func (o *OracleClient) GetAssetPrice(ctx context.Context, asset common.Address) (*uint256.Int, error) {
	if price, found := o.priceCache.Get(ctx, asset); found {
		return new(uint256.Int).Set(price), nil
	}

	ctx, span := o.tracer.Start(ctx, "aave.get_asset_price",
		trace.WithAttributes(attribute.String("asset", asset.Hex())),
	)
	defer span.End()

	callData, err := o.oracleABI.Pack("getAssetPrice", asset)
	if err != nil {
		return nil, fmt.Errorf("failed to encode getAssetPrice call: %w", err)
	}

	result, err := o.cb.Execute(func() ([]byte, error) {
		return o.client.CallContract(ctx, ethereum.CallMsg{
			To:   &o.config.OracleAddress,
			Data: callData,
		}, nil)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "call failed")
		return nil, apperror.New(apperror.CodeOracleQueryFailed,
			apperror.WithCause(err),
			apperror.WithContext("oracle price call failed"))
	}

	outputs, err := o.oracleABI.Unpack("getAssetPrice", result)
	if err != nil {
		return nil, fmt.Errorf("failed to decode getAssetPrice result: %w", err)
	}
	if len(outputs) < 1 {
		return nil, fmt.Errorf("unexpected output length: %d", len(outputs))
	}
	price, err := toUint256(outputs[0])
	if err != nil {
		return nil, err
	}
	if price.IsZero() {
		span.SetStatus(codes.Error, "zero price")
		return nil, apperror.Validation(apperror.CodeInvalidPrice, "oracle returned zero for "+asset.Hex())
	}

	o.priceCache.Set(ctx, asset, price, o.config.PriceTTL)
	span.SetAttributes(attribute.String("price", price.String()))
	span.SetStatus(codes.Ok, "read")

	o.logger.Debug(ctx, "oracle price",
		"asset", asset.Hex(),
		"price", price.String(),
	)
	return price, nil
}

// Close releases the price cache janitor.
func (o *OracleClient) Close() {
	o.priceCache.Close()
}
