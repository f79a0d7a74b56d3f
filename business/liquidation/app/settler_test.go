package app

import (
	"context"
	"io"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/0xarb/flash-liquidator/internal/apperror"
	"github.com/0xarb/flash-liquidator/internal/logger"
)

var (
	settlerAsset     = common.HexToAddress("0x0000000000000000000000000000000000000301")
	settlerHolder    = common.HexToAddress("0x0000000000000000000000000000000000000302")
	settlerInitiator = common.HexToAddress("0x0000000000000000000000000000000000000303")
)

// fakeToken is one in-memory ERC20 for settler tests.
type fakeToken struct {
	address  common.Address
	balances map[common.Address]*uint256.Int
}

func newFakeToken(address common.Address) *fakeToken {
	return &fakeToken{address: address, balances: make(map[common.Address]*uint256.Int)}
}

func (t *fakeToken) Address() common.Address { return t.address }

func (t *fakeToken) BalanceOf(_ context.Context, account common.Address) (*uint256.Int, error) {
	bal, ok := t.balances[account]
	if !ok {
		return uint256.NewInt(0), nil
	}
	return new(uint256.Int).Set(bal), nil
}

func (t *fakeToken) Transfer(_ context.Context, from, to common.Address, amount *uint256.Int) error {
	bal, ok := t.balances[from]
	if !ok || bal.Lt(amount) {
		return apperror.Validation(apperror.CodeTransferFailed, "insufficient balance")
	}
	t.balances[from] = new(uint256.Int).Sub(bal, amount)
	toBal, ok := t.balances[to]
	if !ok {
		toBal = uint256.NewInt(0)
	}
	t.balances[to] = new(uint256.Int).Add(toBal, amount)
	return nil
}

func (t *fakeToken) Approve(context.Context, common.Address, common.Address, *uint256.Int) error {
	return nil
}

func (t *fakeToken) Symbol(context.Context) (string, error) { return "FAKE", nil }

func (t *fakeToken) Decimals(context.Context) (uint8, error) { return 18, nil }

type fakeTokenSource map[common.Address]*fakeToken

func (s fakeTokenSource) Token(addr common.Address) Token {
	if t, ok := s[addr]; ok {
		return t
	}
	t := newFakeToken(addr)
	s[addr] = t
	return t
}

func settlerLogger() *logger.Logger {
	return logger.New(io.Discard, logger.LevelError, "test", nil)
}

func TestProfitSettler_TransfersResidual(t *testing.T) {
	tokens := fakeTokenSource{}
	token := newFakeToken(settlerAsset)
	token.balances[settlerHolder] = uint256.NewInt(1887)
	tokens[settlerAsset] = token

	settler := NewProfitSettler(settlerAsset, tokens, nil, settlerLogger())
	profit, err := settler.Settle(context.Background(), settlerHolder, settlerInitiator)
	if err != nil {
		t.Fatalf("Settle error: %v", err)
	}

	if profit.Uint64() != 1887 {
		t.Errorf("profit = %s, want 1887", profit)
	}
	initiatorBal, _ := token.BalanceOf(context.Background(), settlerInitiator)
	if initiatorBal.Uint64() != 1887 {
		t.Errorf("initiator balance = %s, want 1887", initiatorBal)
	}
	holderBal, _ := token.BalanceOf(context.Background(), settlerHolder)
	if !holderBal.IsZero() {
		t.Errorf("holder balance = %s, want 0", holderBal)
	}
}

func TestProfitSettler_ZeroResidualSettlesToZero(t *testing.T) {
	settler := NewProfitSettler(settlerAsset, fakeTokenSource{}, nil, settlerLogger())

	profit, err := settler.Settle(context.Background(), settlerHolder, settlerInitiator)
	if err != nil {
		t.Fatalf("Settle error: %v", err)
	}
	if !profit.IsZero() {
		t.Errorf("profit = %s, want 0", profit)
	}
}

// fakeWrapper unwraps balances into a native map.
type fakeWrapper struct {
	token  *fakeToken
	native map[common.Address]*uint256.Int
}

func (w *fakeWrapper) Address() common.Address { return w.token.address }

func (w *fakeWrapper) Withdraw(ctx context.Context, holder common.Address, amount *uint256.Int) error {
	if err := w.token.Transfer(ctx, holder, common.Address{}, amount); err != nil {
		return err
	}
	bal, ok := w.native[holder]
	if !ok {
		bal = uint256.NewInt(0)
	}
	w.native[holder] = new(uint256.Int).Add(bal, amount)
	return nil
}

func (w *fakeWrapper) SendNative(_ context.Context, from, to common.Address, amount *uint256.Int) error {
	bal, ok := w.native[from]
	if !ok || bal.Lt(amount) {
		return apperror.Validation(apperror.CodeTransferFailed, "insufficient native balance")
	}
	w.native[from] = new(uint256.Int).Sub(bal, amount)
	toBal, ok := w.native[to]
	if !ok {
		toBal = uint256.NewInt(0)
	}
	w.native[to] = new(uint256.Int).Add(toBal, amount)
	return nil
}

func TestProfitSettler_UnwrapsWrappedNative(t *testing.T) {
	tokens := fakeTokenSource{}
	token := newFakeToken(settlerAsset)
	token.balances[settlerHolder] = uint256.NewInt(770)
	tokens[settlerAsset] = token
	wrapper := &fakeWrapper{token: token, native: make(map[common.Address]*uint256.Int)}

	settler := NewProfitSettler(settlerAsset, tokens, wrapper, settlerLogger())
	profit, err := settler.Settle(context.Background(), settlerHolder, settlerInitiator)
	if err != nil {
		t.Fatalf("Settle error: %v", err)
	}

	if profit.Uint64() != 770 {
		t.Errorf("profit = %s, want 770", profit)
	}
	if got := wrapper.native[settlerInitiator]; got == nil || got.Uint64() != 770 {
		t.Errorf("initiator native balance = %v, want 770", got)
	}
	holderBal, _ := token.BalanceOf(context.Background(), settlerHolder)
	if !holderBal.IsZero() {
		t.Errorf("holder wrapped balance = %s, want 0", holderBal)
	}
}

func TestProfitSettler_TransferFailureIsPayoutFailed(t *testing.T) {
	token := newFakeToken(settlerAsset)
	token.balances[settlerHolder] = uint256.NewInt(100)

	// A wrapper for a different asset must not be consulted; the plain
	// transfer path fails and surfaces as a payout error.
	wrongWrapper := &fakeWrapper{token: newFakeToken(common.HexToAddress("0x99")), native: map[common.Address]*uint256.Int{}}
	settler := NewProfitSettler(settlerAsset, brokenSource{token}, wrongWrapper, settlerLogger())
	_, err := settler.Settle(context.Background(), settlerHolder, settlerInitiator)
	if apperror.GetCode(err) != apperror.CodePayoutFailed {
		t.Errorf("code = %v, want %v", apperror.GetCode(err), apperror.CodePayoutFailed)
	}
}

// brokenSource serves a token whose transfers always fail.
type brokenSource struct {
	token *fakeToken
}

func (s brokenSource) Token(common.Address) Token {
	return &failingToken{fakeToken: s.token}
}

// failingToken reads balances but rejects every transfer.
type failingToken struct {
	*fakeToken
}

func (t *failingToken) Transfer(context.Context, common.Address, common.Address, *uint256.Int) error {
	return apperror.Validation(apperror.CodeTransferFailed, "transfer disabled")
}
