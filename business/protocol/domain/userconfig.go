package domain

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/0xarb/flash-liquidator/internal/apperror"
)

// MaxReserves is the number of reserves addressable by the packed user
// configuration: two bits per reserve in a 256-bit word.
const MaxReserves = 128

// UserConfig wraps the protocol's packed per-user configuration bitmap.
// For reserve index i, bit 2*i is set when the user borrows that reserve and
// bit 2*i+1 when the user supplies it as collateral.
type UserConfig struct {
	Data *uint256.Int
}

// NewUserConfig wraps a packed user configuration bitmap.
func NewUserConfig(data *uint256.Int) UserConfig {
	if data == nil {
		data = uint256.NewInt(0)
	}
	return UserConfig{Data: data.Clone()}
}

// IsBorrowing reports whether the user borrows the reserve at index.
func (c UserConfig) IsBorrowing(index uint64) (bool, error) {
	if index >= MaxReserves {
		return false, apperror.Validation(apperror.CodeInvalidIndex,
			fmt.Sprintf("reserve index %d", index))
	}
	return bit(c.Data, 2*index), nil
}

// IsUsingAsCollateral reports whether the user supplies the reserve at index
// as collateral.
func (c UserConfig) IsUsingAsCollateral(index uint64) (bool, error) {
	if index >= MaxReserves {
		return false, apperror.Validation(apperror.CodeInvalidIndex,
			fmt.Sprintf("reserve index %d", index))
	}
	return bit(c.Data, 2*index+1), nil
}

// IsEmpty reports whether the user has no borrow and no collateral positions.
func (c UserConfig) IsEmpty() bool {
	return c.Data.IsZero()
}

// IsBorrowingAny reports whether the user borrows any reserve.
func (c UserConfig) IsBorrowingAny() bool {
	// Odd bits mask: collateral flags. Any remaining set bit is a borrow flag.
	borrowMask := borrowBitsMask()
	return !new(uint256.Int).And(c.Data, borrowMask).IsZero()
}

// SetBorrowing sets or clears the borrow flag for a reserve index.
// Exists for tests and the settlement simulator.
func (c *UserConfig) SetBorrowing(index uint64, v bool) error {
	if index >= MaxReserves {
		return apperror.Validation(apperror.CodeInvalidIndex,
			fmt.Sprintf("reserve index %d", index))
	}
	setBit(c.Data, 2*index, v)
	return nil
}

// SetUsingAsCollateral sets or clears the collateral flag for a reserve index.
func (c *UserConfig) SetUsingAsCollateral(index uint64, v bool) error {
	if index >= MaxReserves {
		return apperror.Validation(apperror.CodeInvalidIndex,
			fmt.Sprintf("reserve index %d", index))
	}
	setBit(c.Data, 2*index+1, v)
	return nil
}

func bit(word *uint256.Int, pos uint64) bool {
	return new(uint256.Int).Rsh(word, uint(pos)).Uint64()&1 == 1
}

func setBit(word *uint256.Int, pos uint64, v bool) {
	mask := new(uint256.Int).Lsh(uint256.NewInt(1), uint(pos))
	if v {
		word.Or(word, mask)
	} else {
		word.And(word, new(uint256.Int).Not(mask))
	}
}

// borrowBitsMask returns the mask of all even (borrow) bits.
func borrowBitsMask() *uint256.Int {
	mask := uint256.NewInt(0)
	for i := uint64(0); i < MaxReserves; i++ {
		mask.Or(mask, new(uint256.Int).Lsh(uint256.NewInt(1), uint(2*i)))
	}
	return mask
}
