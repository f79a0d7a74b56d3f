package sim

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	liquidationApp "github.com/0xarb/flash-liquidator/business/liquidation/app"
	"github.com/0xarb/flash-liquidator/internal/apperror"
)

// Token is one ledger-backed ERC20. Approvals are tracked but transfers move
// value directly; the engine always moves its own funds.
type Token struct {
	ledger   *Ledger
	address  common.Address
	symbol   string
	decimals uint8

	mu         sync.Mutex
	allowances map[common.Address]map[common.Address]*uint256.Int
}

// NewToken registers a token over the ledger.
func NewToken(ledger *Ledger, address common.Address, symbol string, decimals uint8) *Token {
	return &Token{
		ledger:     ledger,
		address:    address,
		symbol:     symbol,
		decimals:   decimals,
		allowances: make(map[common.Address]map[common.Address]*uint256.Int),
	}
}

func (t *Token) Address() common.Address {
	return t.address
}

func (t *Token) BalanceOf(_ context.Context, account common.Address) (*uint256.Int, error) {
	return t.ledger.Balance(t.address, account), nil
}

func (t *Token) Approve(_ context.Context, owner, spender common.Address, amount *uint256.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	spenders, ok := t.allowances[owner]
	if !ok {
		spenders = make(map[common.Address]*uint256.Int)
		t.allowances[owner] = spenders
	}
	spenders[spender] = new(uint256.Int).Set(amount)
	return nil
}

func (t *Token) Transfer(_ context.Context, from, to common.Address, amount *uint256.Int) error {
	return t.ledger.Transfer(t.address, from, to, amount)
}

func (t *Token) Symbol(context.Context) (string, error) {
	return t.symbol, nil
}

func (t *Token) Decimals(context.Context) (uint8, error) {
	return t.decimals, nil
}

// TokenBook resolves sim tokens by address and doubles as the balance
// reader for receipt tokens the protocol service walks.
type TokenBook struct {
	ledger *Ledger

	mu     sync.Mutex
	tokens map[common.Address]*Token
}

// NewTokenBook returns an empty book over the ledger.
func NewTokenBook(ledger *Ledger) *TokenBook {
	return &TokenBook{
		ledger: ledger,
		tokens: make(map[common.Address]*Token),
	}
}

// Register adds a token with metadata. Idempotent per address.
func (b *TokenBook) Register(address common.Address, symbol string, decimals uint8) *Token {
	b.mu.Lock()
	defer b.mu.Unlock()
	if t, ok := b.tokens[address]; ok {
		return t
	}
	t := NewToken(b.ledger, address, symbol, decimals)
	b.tokens[address] = t
	return t
}

// Token implements liquidationApp.TokenSource. Unregistered addresses
// resolve to an anonymous 18-decimal token so receipt tokens work without
// explicit registration.
func (b *TokenBook) Token(address common.Address) liquidationApp.Token {
	b.mu.Lock()
	defer b.mu.Unlock()
	if t, ok := b.tokens[address]; ok {
		return t
	}
	t := NewToken(b.ledger, address, "", 18)
	b.tokens[address] = t
	return t
}

// BalanceOf implements the protocol context's balance reader.
func (b *TokenBook) BalanceOf(_ context.Context, token, account common.Address) (*uint256.Int, error) {
	return b.ledger.Balance(token, account), nil
}

// WrappedNative is the ledger-backed wrapped native token. Withdraw burns
// wrapped balance and credits native value one to one.
type WrappedNative struct {
	*Token
}

// NewWrappedNative registers the wrapper in the book and returns it.
func NewWrappedNative(book *TokenBook, address common.Address, symbol string) *WrappedNative {
	return &WrappedNative{Token: book.Register(address, symbol, 18)}
}

func (w *WrappedNative) Withdraw(_ context.Context, holder common.Address, amount *uint256.Int) error {
	if err := w.ledger.Debit(w.address, holder, amount); err != nil {
		return apperror.Wrap(err, apperror.CodePayoutFailed, "burning wrapped balance")
	}
	return w.ledger.CreditNative(holder, amount)
}

func (w *WrappedNative) SendNative(_ context.Context, from, to common.Address, amount *uint256.Int) error {
	if err := w.ledger.DebitNative(from, amount); err != nil {
		return err
	}
	return w.ledger.CreditNative(to, amount)
}
