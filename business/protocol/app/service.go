package app

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/0xarb/flash-liquidator/business/protocol/domain"
	"github.com/0xarb/flash-liquidator/internal/apperror"
	"github.com/0xarb/flash-liquidator/internal/logger"
)

// BalanceReader reads ERC20 balances by token address.
type BalanceReader interface {
	BalanceOf(ctx context.Context, token, account common.Address) (*uint256.Int, error)
}

// ReserveFlags describes a user's involvement with one reserve.
type ReserveFlags struct {
	Asset        common.Address
	Index        uint64
	Borrowing    bool
	AsCollateral bool
}

// ProtocolService assembles position snapshots from fresh protocol reads.
type ProtocolService struct {
	pool     PoolReader
	balances BalanceReader
	logger   logger.LoggerInterface
}

// NewProtocolService creates a new ProtocolService.
func NewProtocolService(pool PoolReader, balances BalanceReader, log logger.LoggerInterface) *ProtocolService {
	return &ProtocolService{
		pool:     pool,
		balances: balances,
		logger:   log,
	}
}

// Pool exposes the underlying pool reader.
func (s *ProtocolService) Pool() PoolReader {
	return s.pool
}

// Snapshot reads the user's outstanding debt and available collateral for
// one asset pair, in native decimal scale. Every value is read at call time;
// callers must not hold snapshots across external interactions.
func (s *ProtocolService) Snapshot(ctx context.Context, user, collateralAsset, debtAsset common.Address) (domain.Position, error) {
	debtReserve, err := s.pool.GetReserveData(ctx, debtAsset)
	if err != nil {
		return domain.Position{}, err
	}
	collReserve, err := s.pool.GetReserveData(ctx, collateralAsset)
	if err != nil {
		return domain.Position{}, err
	}

	if !debtReserve.Config.IsActive() || !collReserve.Config.IsActive() {
		return domain.Position{}, apperror.Validation(apperror.CodeReserveInactive, "snapshot")
	}

	stableDebt, err := s.balances.BalanceOf(ctx, debtReserve.StableDebtAddress, user)
	if err != nil {
		return domain.Position{}, err
	}
	variableDebt, err := s.balances.BalanceOf(ctx, debtReserve.VariableDebtAddress, user)
	if err != nil {
		return domain.Position{}, err
	}
	collateral, err := s.balances.BalanceOf(ctx, collReserve.ATokenAddress, user)
	if err != nil {
		return domain.Position{}, err
	}

	debt := new(uint256.Int).Add(stableDebt, variableDebt)

	s.logger.Debug(ctx, "position snapshot",
		"user", user.Hex(),
		"debt", debt.String(),
		"collateral", collateral.String(),
	)

	return domain.Position{
		User:               user,
		DebtAsset:          debtAsset,
		CollateralAsset:    collateralAsset,
		Debt:               debt,
		Collateral:         collateral,
		DebtDecimals:       debtReserve.Config.Decimals(),
		CollateralDecimals: collReserve.Config.Decimals(),
	}, nil
}

// UserReserves walks the reserves list against the user's packed
// configuration and reports which reserves the user borrows or supplies as
// collateral. Used for pre-sizing diagnostics; the operated pair itself is
// fixed configuration.
func (s *ProtocolService) UserReserves(ctx context.Context, user common.Address) ([]ReserveFlags, error) {
	userCfg, err := s.pool.GetUserConfiguration(ctx, user)
	if err != nil {
		return nil, err
	}
	if userCfg.IsEmpty() {
		return nil, nil
	}

	reserves, err := s.pool.GetReservesList(ctx)
	if err != nil {
		return nil, err
	}

	var flags []ReserveFlags
	for i, asset := range reserves {
		idx := uint64(i)
		borrowing, err := userCfg.IsBorrowing(idx)
		if err != nil {
			return nil, err
		}
		asCollateral, err := userCfg.IsUsingAsCollateral(idx)
		if err != nil {
			return nil, err
		}
		if !borrowing && !asCollateral {
			continue
		}
		flags = append(flags, ReserveFlags{
			Asset:        asset,
			Index:        idx,
			Borrowing:    borrowing,
			AsCollateral: asCollateral,
		})
	}
	return flags, nil
}
