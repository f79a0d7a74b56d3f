package app

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/0xarb/flash-liquidator/internal/apperror"
	"github.com/0xarb/flash-liquidator/internal/logger"
)

// ProfitSettler sweeps whatever remains of the borrowed asset after
// repayment and delivers it to the initiator. When the borrow asset is the
// wrapped native token the residual is unwrapped and paid out as native
// value; otherwise it is transferred as-is.
type ProfitSettler struct {
	borrowAsset common.Address
	tokens      TokenSource
	wrapper     NativeWrapper
	logger      logger.LoggerInterface
}

// NewProfitSettler builds a settler for the given borrow asset. wrapper may
// be nil when the borrow asset is not the wrapped native token.
func NewProfitSettler(borrowAsset common.Address, tokens TokenSource, wrapper NativeWrapper, log logger.LoggerInterface) *ProfitSettler {
	return &ProfitSettler{
		borrowAsset: borrowAsset,
		tokens:      tokens,
		wrapper:     wrapper,
		logger:      log,
	}
}

// Settle moves the holder's residual borrow-asset balance to the initiator
// and returns the amount delivered. A zero residual settles to zero without
// error; any transfer failure surfaces as PAYOUT_FAILED so the enclosing
// scope rolls the whole attempt back.
func (s *ProfitSettler) Settle(ctx context.Context, holder, initiator common.Address) (*uint256.Int, error) {
	token := s.tokens.Token(s.borrowAsset)
	residual, err := token.BalanceOf(ctx, holder)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodePayoutFailed, "reading residual balance")
	}
	if residual.IsZero() {
		s.logger.Debug(ctx, "no residual to settle", "holder", holder.Hex())
		return uint256.NewInt(0), nil
	}

	if s.wrapper != nil && s.wrapper.Address() == s.borrowAsset {
		if err := s.wrapper.Withdraw(ctx, holder, residual); err != nil {
			return nil, apperror.Wrap(err, apperror.CodePayoutFailed, "unwrapping residual")
		}
		if err := s.wrapper.SendNative(ctx, holder, initiator, residual); err != nil {
			return nil, apperror.Wrap(err, apperror.CodePayoutFailed, "paying native residual")
		}
	} else {
		if err := token.Transfer(ctx, holder, initiator, residual); err != nil {
			return nil, apperror.Wrap(err, apperror.CodePayoutFailed, "paying residual")
		}
	}

	s.logger.Info(ctx, "profit settled",
		"initiator", initiator.Hex(),
		"amount", residual.String(),
	)
	return residual, nil
}
