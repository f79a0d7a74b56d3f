package aave

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/holiman/uint256"

	"github.com/0xarb/flash-liquidator/business/protocol/app"
	"github.com/0xarb/flash-liquidator/internal/apperror"
	"github.com/0xarb/flash-liquidator/internal/logger"
	"github.com/0xarb/flash-liquidator/internal/ratelimit"
)

// Ensure ERC20Reader implements the balance port.
var _ app.BalanceReader = (*ERC20Reader)(nil)

// ERC20Reader reads token balances and metadata over JSON-RPC. It serves
// both underlying assets and the protocol's receipt tokens, which expose the
// same read surface.
type ERC20Reader struct {
	client   *ethclient.Client
	erc20ABI abi.ABI
	limiter  *ratelimit.Limiter
	logger   logger.LoggerInterface
}

// NewERC20Reader creates a token reader over an established RPC client.
func NewERC20Reader(client *ethclient.Client, requestsPerSecond float64, log logger.LoggerInterface) (*ERC20Reader, error) {
	parsedABI, err := abi.JSON(strings.NewReader(ERC20ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ERC20 ABI: %w", err)
	}
	return &ERC20Reader{
		client:   client,
		erc20ABI: parsedABI,
		limiter:  ratelimit.New(requestsPerSecond),
		logger:   log,
	}, nil
}

func (r *ERC20Reader) call(ctx context.Context, token common.Address, method string, args ...interface{}) ([]interface{}, error) {
	callData, err := r.erc20ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s call: %w", method, err)
	}
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeRateLimitExceeded, method)
	}
	result, err := r.client.CallContract(ctx, ethereum.CallMsg{
		To:   &token,
		Data: callData,
	}, nil)
	if err != nil {
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("%s call failed for %s", method, token.Hex())))
	}
	outputs, err := r.erc20ABI.Unpack(method, result)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s result: %w", method, err)
	}
	return outputs, nil
}

// BalanceOf returns the account's balance of token.
func (r *ERC20Reader) BalanceOf(ctx context.Context, token, account common.Address) (*uint256.Int, error) {
	outputs, err := r.call(ctx, token, "balanceOf", account)
	if err != nil {
		return nil, err
	}
	if len(outputs) < 1 {
		return nil, fmt.Errorf("unexpected output length: %d", len(outputs))
	}
	return toUint256(outputs[0])
}

// Symbol returns the token's symbol.
func (r *ERC20Reader) Symbol(ctx context.Context, token common.Address) (string, error) {
	outputs, err := r.call(ctx, token, "symbol")
	if err != nil {
		return "", err
	}
	if len(outputs) < 1 {
		return "", fmt.Errorf("unexpected output length: %d", len(outputs))
	}
	s, ok := outputs[0].(string)
	if !ok {
		return "", fmt.Errorf("unexpected output type %T", outputs[0])
	}
	return s, nil
}

// Decimals returns the token's decimal count.
func (r *ERC20Reader) Decimals(ctx context.Context, token common.Address) (uint8, error) {
	outputs, err := r.call(ctx, token, "decimals")
	if err != nil {
		return 0, err
	}
	if len(outputs) < 1 {
		return 0, fmt.Errorf("unexpected output length: %d", len(outputs))
	}
	d, ok := outputs[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("unexpected output type %T", outputs[0])
	}
	return d, nil
}
