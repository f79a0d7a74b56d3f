// Package app contains the liquidation engine: sizing, orchestration, the
// flash-swap continuation, and profit settlement.
package app

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/0xarb/flash-liquidator/business/liquidation/domain"
)

// Token is the boundary to one ERC20 asset.
type Token interface {
	Address() common.Address
	BalanceOf(ctx context.Context, account common.Address) (*uint256.Int, error)
	Approve(ctx context.Context, owner, spender common.Address, amount *uint256.Int) error
	Transfer(ctx context.Context, from, to common.Address, amount *uint256.Int) error
	Symbol(ctx context.Context) (string, error)
	Decimals(ctx context.Context) (uint8, error)
}

// TokenSource resolves Token instances by address.
type TokenSource interface {
	Token(addr common.Address) Token
}

// NativeWrapper is the wrapped-native token's unwrap surface. Withdraw burns
// the holder's wrapped balance and credits the equivalent native balance.
type NativeWrapper interface {
	Address() common.Address
	Withdraw(ctx context.Context, holder common.Address, amount *uint256.Int) error
	SendNative(ctx context.Context, from, to common.Address, amount *uint256.Int) error
}

// ExecutionScope is the surrounding all-or-nothing unit of work. Run executes
// fn; if fn returns an error, every effect made inside the scope is undone
// before Run returns that error.
type ExecutionScope interface {
	Run(ctx context.Context, fn func(ctx context.Context) error) error
}

// Reporter presents the outcome of an invocation.
type Reporter interface {
	Start(ctx context.Context) error
	Report(outcome *domain.Outcome)
	Stop() error
}
