// Package domain contains the constant-product market math for the market context.
package domain

import (
	"github.com/holiman/uint256"

	"github.com/0xarb/flash-liquidator/internal/apperror"
)

// Fee parameters of the constant-product pair: a 0.3% trading fee applied by
// scaling the input by 997/1000 in integer arithmetic.
var (
	feeNumerator   = uint256.NewInt(997)
	feeDenominator = uint256.NewInt(1000)
)

// QuoteOut returns the output amount a pair delivers for amountIn, after the
// trading fee, flooring in the pair's favor:
//
//	floor(amountIn*997*reserveOut / (reserveIn*1000 + amountIn*997))
//
// All arithmetic is 256-bit with explicit overflow rejection.
func QuoteOut(amountIn, reserveIn, reserveOut *uint256.Int) (*uint256.Int, error) {
	if amountIn == nil || amountIn.IsZero() {
		return nil, apperror.Validation(apperror.CodeInsufficientInput, "quote out")
	}
	if reserveIn == nil || reserveOut == nil || reserveIn.IsZero() || reserveOut.IsZero() {
		return nil, apperror.Validation(apperror.CodeInsufficientLiquidity, "quote out")
	}

	amountInWithFee, overflow := new(uint256.Int).MulOverflow(amountIn, feeNumerator)
	if overflow {
		return nil, apperror.Validation(apperror.CodeOverflow, "quote out: fee-adjusted input")
	}

	numerator, overflow := new(uint256.Int).MulOverflow(amountInWithFee, reserveOut)
	if overflow {
		return nil, apperror.Validation(apperror.CodeOverflow, "quote out: numerator")
	}

	scaledReserve, overflow := new(uint256.Int).MulOverflow(reserveIn, feeDenominator)
	if overflow {
		return nil, apperror.Validation(apperror.CodeOverflow, "quote out: scaled reserve")
	}
	denominator, overflow := new(uint256.Int).AddOverflow(scaledReserve, amountInWithFee)
	if overflow {
		return nil, apperror.Validation(apperror.CodeOverflow, "quote out: denominator")
	}

	return new(uint256.Int).Div(numerator, denominator), nil
}

// QuoteIn returns the input amount a pair requires to deliver amountOut,
// ceiling in the pair's favor:
//
//	floor(reserveIn*amountOut*1000 / ((reserveOut-amountOut)*997)) + 1
//
// Draining the entire output reserve is never valid.
func QuoteIn(amountOut, reserveIn, reserveOut *uint256.Int) (*uint256.Int, error) {
	if amountOut == nil || amountOut.IsZero() {
		return nil, apperror.Validation(apperror.CodeInsufficientOutput, "quote in")
	}
	if reserveIn == nil || reserveOut == nil || reserveIn.IsZero() || reserveOut.IsZero() {
		return nil, apperror.Validation(apperror.CodeInsufficientLiquidity, "quote in")
	}
	if !amountOut.Lt(reserveOut) {
		return nil, apperror.Validation(apperror.CodeInsufficientLiquidity, "quote in: output exceeds reserve")
	}

	numerator, overflow := new(uint256.Int).MulOverflow(reserveIn, amountOut)
	if overflow {
		return nil, apperror.Validation(apperror.CodeOverflow, "quote in: numerator")
	}
	numerator, overflow = new(uint256.Int).MulOverflow(numerator, feeDenominator)
	if overflow {
		return nil, apperror.Validation(apperror.CodeOverflow, "quote in: scaled numerator")
	}

	remaining := new(uint256.Int).Sub(reserveOut, amountOut)
	denominator, overflow := new(uint256.Int).MulOverflow(remaining, feeNumerator)
	if overflow {
		return nil, apperror.Validation(apperror.CodeOverflow, "quote in: denominator")
	}

	amountIn := new(uint256.Int).Div(numerator, denominator)
	amountIn, overflow = new(uint256.Int).AddOverflow(amountIn, uint256.NewInt(1))
	if overflow {
		return nil, apperror.Validation(apperror.CodeOverflow, "quote in: rounding")
	}
	return amountIn, nil
}

// SwapQuote is an (in, out) pair derived from one reserve snapshot. Its
// lifetime is a single computation; reserves are externally mutable and must
// be re-read immediately before use.
type SwapQuote struct {
	AmountIn  *uint256.Int
	AmountOut *uint256.Int
}
