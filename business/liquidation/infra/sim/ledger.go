// Package sim is the in-memory settlement world the engine executes against.
// Chain reads seed it; every balance mutation happens here, inside a
// snapshot/revert scope, so a failed attempt leaves no trace.
package sim

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/0xarb/flash-liquidator/internal/apperror"
)

// Ledger tracks token and native balances for every participant. Receipt
// tokens (aTokens, debt tokens) live here too, so a snapshot captures the
// lending pool's accounting along with wallet balances.
type Ledger struct {
	mu      sync.Mutex
	tokens  map[common.Address]map[common.Address]*uint256.Int
	native  map[common.Address]*uint256.Int
	version uint64
}

// Snapshot is an opaque copy of the ledger at one point in time.
type Snapshot struct {
	tokens  map[common.Address]map[common.Address]*uint256.Int
	native  map[common.Address]*uint256.Int
	version uint64
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		tokens: make(map[common.Address]map[common.Address]*uint256.Int),
		native: make(map[common.Address]*uint256.Int),
	}
}

// Balance returns the holder's balance of token. Unknown entries are zero.
func (l *Ledger) Balance(token, holder common.Address) *uint256.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balanceLocked(token, holder)
}

func (l *Ledger) balanceLocked(token, holder common.Address) *uint256.Int {
	holders, ok := l.tokens[token]
	if !ok {
		return uint256.NewInt(0)
	}
	bal, ok := holders[holder]
	if !ok {
		return uint256.NewInt(0)
	}
	return new(uint256.Int).Set(bal)
}

// SetBalance overwrites the holder's balance of token. Used while seeding.
func (l *Ledger) SetBalance(token, holder common.Address, amount *uint256.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.setLocked(token, holder, new(uint256.Int).Set(amount))
}

func (l *Ledger) setLocked(token, holder common.Address, amount *uint256.Int) {
	holders, ok := l.tokens[token]
	if !ok {
		holders = make(map[common.Address]*uint256.Int)
		l.tokens[token] = holders
	}
	holders[holder] = amount
	l.version++
}

// Credit adds amount to the holder's balance of token.
func (l *Ledger) Credit(token, holder common.Address, amount *uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	bal := l.balanceLocked(token, holder)
	sum, overflow := new(uint256.Int).AddOverflow(bal, amount)
	if overflow {
		return apperror.Validation(apperror.CodeOverflow, "balance credit")
	}
	l.setLocked(token, holder, sum)
	return nil
}

// Debit removes amount from the holder's balance of token, failing when the
// balance does not cover it.
func (l *Ledger) Debit(token, holder common.Address, amount *uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	bal := l.balanceLocked(token, holder)
	if bal.Lt(amount) {
		return apperror.Validation(apperror.CodeTransferFailed, "balance below debit amount")
	}
	l.setLocked(token, holder, new(uint256.Int).Sub(bal, amount))
	return nil
}

// Transfer moves amount of token from one holder to another.
func (l *Ledger) Transfer(token, from, to common.Address, amount *uint256.Int) error {
	if err := l.Debit(token, from, amount); err != nil {
		return err
	}
	return l.Credit(token, to, amount)
}

// NativeBalance returns the holder's native-value balance.
func (l *Ledger) NativeBalance(holder common.Address) *uint256.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	bal, ok := l.native[holder]
	if !ok {
		return uint256.NewInt(0)
	}
	return new(uint256.Int).Set(bal)
}

// CreditNative adds amount to the holder's native balance.
func (l *Ledger) CreditNative(holder common.Address, amount *uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	bal, ok := l.native[holder]
	if !ok {
		bal = uint256.NewInt(0)
	}
	sum, overflow := new(uint256.Int).AddOverflow(bal, amount)
	if overflow {
		return apperror.Validation(apperror.CodeOverflow, "native credit")
	}
	l.native[holder] = sum
	l.version++
	return nil
}

// DebitNative removes amount from the holder's native balance.
func (l *Ledger) DebitNative(holder common.Address, amount *uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	bal, ok := l.native[holder]
	if !ok || bal.Lt(amount) {
		return apperror.Validation(apperror.CodeTransferFailed, "native balance below debit amount")
	}
	l.native[holder] = new(uint256.Int).Sub(bal, amount)
	l.version++
	return nil
}

// Take captures a snapshot for a later Revert.
func (l *Ledger) Take() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	tokens := make(map[common.Address]map[common.Address]*uint256.Int, len(l.tokens))
	for token, holders := range l.tokens {
		copied := make(map[common.Address]*uint256.Int, len(holders))
		for holder, bal := range holders {
			copied[holder] = new(uint256.Int).Set(bal)
		}
		tokens[token] = copied
	}
	native := make(map[common.Address]*uint256.Int, len(l.native))
	for holder, bal := range l.native {
		native[holder] = new(uint256.Int).Set(bal)
	}
	return Snapshot{tokens: tokens, native: native, version: l.version}
}

// Revert restores the ledger to a previously taken snapshot.
func (l *Ledger) Revert(snap Snapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tokens = snap.tokens
	l.native = snap.native
	l.version = snap.version
}

// Version increments on every mutation.
func (l *Ledger) Version() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.version
}
