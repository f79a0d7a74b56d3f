// Package domain contains the core domain types for the lending protocol context.
package domain

import "github.com/holiman/uint256"

// ReserveConfig wraps the protocol's packed per-reserve configuration word.
// Bit layout (least significant first):
//
//	0-15:  loan-to-value, 4-decimal fixed point
//	16-31: liquidation threshold, 4-decimal fixed point
//	32-47: liquidation bonus, 4-decimal fixed point (10000 = 100%, no bonus)
//	48-55: underlying asset decimals
//	56:    reserve active flag
//	57:    reserve frozen flag
//	58:    borrowing enabled flag
//	59:    stable rate borrowing enabled flag
//	64-79: reserve factor, 4-decimal fixed point
//
// Decoding is pure mask-and-shift; the packed form is kept only for wire
// compatibility with the protocol contracts.
type ReserveConfig struct {
	Data *uint256.Int
}

const (
	ltvShift                  = 0
	liquidationThresholdShift = 16
	liquidationBonusShift     = 32
	decimalsShift             = 48
	activeShift               = 56
	frozenShift               = 57
	borrowingEnabledShift     = 58
	stableBorrowingShift      = 59
	reserveFactorShift        = 64

	percentFieldBits  = 16
	decimalsFieldBits = 8
)

// NewReserveConfig wraps a packed configuration word.
func NewReserveConfig(data *uint256.Int) ReserveConfig {
	if data == nil {
		data = uint256.NewInt(0)
	}
	return ReserveConfig{Data: data.Clone()}
}

// field extracts width bits starting at shift.
func (c ReserveConfig) field(shift, width uint) uint64 {
	v := new(uint256.Int).Rsh(c.Data, shift)
	mask := uint64(1)<<width - 1
	return v.Uint64() & mask
}

// setField clears width bits at shift and writes value there.
func (c *ReserveConfig) setField(shift, width uint, value uint64) {
	mask := new(uint256.Int).Lsh(uint256.NewInt(uint64(1)<<width-1), shift)
	c.Data.And(c.Data, new(uint256.Int).Not(mask))
	c.Data.Or(c.Data, new(uint256.Int).Lsh(uint256.NewInt(value), shift))
}

// LTV returns the loan-to-value as a 4-decimal fixed-point percentage.
func (c ReserveConfig) LTV() uint64 {
	return c.field(ltvShift, percentFieldBits)
}

// LiquidationThreshold returns the liquidation threshold as a 4-decimal
// fixed-point percentage.
func (c ReserveConfig) LiquidationThreshold() uint64 {
	return c.field(liquidationThresholdShift, percentFieldBits)
}

// LiquidationBonus returns the liquidation bonus as a 4-decimal fixed-point
// percentage: 10000 = 100% (no bonus), 10500 = 5% bonus.
func (c ReserveConfig) LiquidationBonus() uint64 {
	return c.field(liquidationBonusShift, percentFieldBits)
}

// Decimals returns the underlying asset's decimals.
func (c ReserveConfig) Decimals() uint8 {
	return uint8(c.field(decimalsShift, decimalsFieldBits))
}

// IsActive returns true if the reserve is active.
func (c ReserveConfig) IsActive() bool {
	return c.field(activeShift, 1) == 1
}

// IsFrozen returns true if the reserve is frozen.
func (c ReserveConfig) IsFrozen() bool {
	return c.field(frozenShift, 1) == 1
}

// IsBorrowingEnabled returns true if the reserve can be borrowed.
func (c ReserveConfig) IsBorrowingEnabled() bool {
	return c.field(borrowingEnabledShift, 1) == 1
}

// IsStableBorrowingEnabled returns true if stable-rate borrowing is enabled.
func (c ReserveConfig) IsStableBorrowingEnabled() bool {
	return c.field(stableBorrowingShift, 1) == 1
}

// ReserveFactor returns the reserve factor as a 4-decimal fixed-point fraction.
func (c ReserveConfig) ReserveFactor() uint64 {
	return c.field(reserveFactorShift, percentFieldBits)
}

// Setters encode fields back into the packed word. They exist for tests and
// the settlement simulator; live configuration always arrives packed.

func (c *ReserveConfig) SetLTV(v uint64) { c.setField(ltvShift, percentFieldBits, v) }

func (c *ReserveConfig) SetLiquidationThreshold(v uint64) {
	c.setField(liquidationThresholdShift, percentFieldBits, v)
}

func (c *ReserveConfig) SetLiquidationBonus(v uint64) {
	c.setField(liquidationBonusShift, percentFieldBits, v)
}

func (c *ReserveConfig) SetDecimals(v uint8) {
	c.setField(decimalsShift, decimalsFieldBits, uint64(v))
}

func (c *ReserveConfig) SetActive(v bool) { c.setField(activeShift, 1, boolBit(v)) }

func (c *ReserveConfig) SetFrozen(v bool) { c.setField(frozenShift, 1, boolBit(v)) }

func (c *ReserveConfig) SetBorrowingEnabled(v bool) {
	c.setField(borrowingEnabledShift, 1, boolBit(v))
}

func (c *ReserveConfig) SetStableBorrowingEnabled(v bool) {
	c.setField(stableBorrowingShift, 1, boolBit(v))
}

func (c *ReserveConfig) SetReserveFactor(v uint64) {
	c.setField(reserveFactorShift, percentFieldBits, v)
}

func boolBit(v bool) uint64 {
	if v {
		return 1
	}
	return 0
}
