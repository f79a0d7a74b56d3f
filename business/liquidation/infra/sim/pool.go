package sim

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/0xarb/flash-liquidator/business/protocol/domain"
	"github.com/0xarb/flash-liquidator/internal/apperror"
)

// LendingPool replays the protocol's accounting over the ledger. Receipt
// balances (aToken, stable and variable debt) are ordinary ledger entries at
// the receipt-token addresses, so the surrounding snapshot scope covers
// every liquidation effect.
type LendingPool struct {
	ledger         *Ledger
	oracle         *Oracle
	self           common.Address
	liquidator     common.Address
	closeFactorBps uint64

	mu       sync.Mutex
	order    []common.Address
	reserves map[common.Address]domain.ReserveData
}

// NewLendingPool builds an empty pool. liquidator is the account that pays
// debt and receives collateral on LiquidationCall.
func NewLendingPool(ledger *Ledger, oracle *Oracle, self, liquidator common.Address, closeFactorBps uint64) *LendingPool {
	return &LendingPool{
		ledger:         ledger,
		oracle:         oracle,
		self:           self,
		liquidator:     liquidator,
		closeFactorBps: closeFactorBps,
		reserves:       make(map[common.Address]domain.ReserveData),
	}
}

// Address returns the pool's own address; it holds the underlying liquidity.
func (p *LendingPool) Address() common.Address {
	return p.self
}

// AddReserve registers a reserve at the next index. Idempotent per asset.
func (p *LendingPool) AddReserve(data domain.ReserveData) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.reserves[data.Asset]; ok {
		p.reserves[data.Asset] = data
		return
	}
	p.order = append(p.order, data.Asset)
	p.reserves[data.Asset] = data
}

func (p *LendingPool) reserve(asset common.Address) (domain.ReserveData, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	data, ok := p.reserves[asset]
	if !ok {
		return domain.ReserveData{}, apperror.Validation(apperror.CodeNotFound, "unknown reserve "+asset.Hex())
	}
	return data, nil
}

func (p *LendingPool) GetReservesList(context.Context) ([]common.Address, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]common.Address, len(p.order))
	copy(out, p.order)
	return out, nil
}

func (p *LendingPool) GetReserveData(_ context.Context, asset common.Address) (domain.ReserveData, error) {
	return p.reserve(asset)
}

func (p *LendingPool) GetConfiguration(_ context.Context, asset common.Address) (domain.ReserveConfig, error) {
	data, err := p.reserve(asset)
	if err != nil {
		return domain.ReserveConfig{}, err
	}
	return data.Config, nil
}

// GetUserConfiguration derives the bitmap from the user's receipt balances,
// so it stays consistent after a liquidation mutates them.
func (p *LendingPool) GetUserConfiguration(_ context.Context, user common.Address) (domain.UserConfig, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cfg := domain.NewUserConfig(uint256.NewInt(0))
	for i, asset := range p.order {
		data := p.reserves[asset]
		debt := p.userDebtLocked(data, user)
		if !debt.IsZero() {
			if err := cfg.SetBorrowing(uint64(i), true); err != nil {
				return domain.UserConfig{}, err
			}
		}
		if !p.ledger.Balance(data.ATokenAddress, user).IsZero() {
			if err := cfg.SetUsingAsCollateral(uint64(i), true); err != nil {
				return domain.UserConfig{}, err
			}
		}
	}
	return cfg, nil
}

func (p *LendingPool) userDebtLocked(data domain.ReserveData, user common.Address) *uint256.Int {
	stable := p.ledger.Balance(data.StableDebtAddress, user)
	variable := p.ledger.Balance(data.VariableDebtAddress, user)
	return new(uint256.Int).Add(stable, variable)
}

// GetUserAccountData aggregates the user's reserves into reference-unit
// totals and the 1e18-scaled health factor.
func (p *LendingPool) GetUserAccountData(ctx context.Context, user common.Address) (domain.AccountData, error) {
	p.mu.Lock()
	assets := make([]common.Address, len(p.order))
	copy(assets, p.order)
	p.mu.Unlock()

	totalCollateral := uint256.NewInt(0)
	weightedCollateral := uint256.NewInt(0)
	borrowCapacity := uint256.NewInt(0)
	totalDebt := uint256.NewInt(0)

	for _, asset := range assets {
		data, err := p.reserve(asset)
		if err != nil {
			return domain.AccountData{}, err
		}
		price, err := p.oracle.GetAssetPrice(ctx, asset)
		if err != nil {
			return domain.AccountData{}, err
		}
		unit := pow10(data.Config.Decimals())

		collateral := p.ledger.Balance(data.ATokenAddress, user)
		if !collateral.IsZero() {
			value, err := scaleValue(collateral, price, unit)
			if err != nil {
				return domain.AccountData{}, err
			}
			totalCollateral.Add(totalCollateral, value)

			weighted, err := applyBps(value, data.Config.LiquidationThreshold())
			if err != nil {
				return domain.AccountData{}, err
			}
			weightedCollateral.Add(weightedCollateral, weighted)

			capacity, err := applyBps(value, data.Config.LTV())
			if err != nil {
				return domain.AccountData{}, err
			}
			borrowCapacity.Add(borrowCapacity, capacity)
		}

		p.mu.Lock()
		debt := p.userDebtLocked(data, user)
		p.mu.Unlock()
		if !debt.IsZero() {
			value, err := scaleValue(debt, price, unit)
			if err != nil {
				return domain.AccountData{}, err
			}
			totalDebt.Add(totalDebt, value)
		}
	}

	health := new(uint256.Int).SetAllOne()
	if !totalDebt.IsZero() {
		hi, err := mulCheck(weightedCollateral, domain.HealthFactorScale)
		if err != nil {
			return domain.AccountData{}, err
		}
		health = hi.Div(hi, totalDebt)
	}

	available := uint256.NewInt(0)
	if borrowCapacity.Gt(totalDebt) {
		available.Sub(borrowCapacity, totalDebt)
	}

	return domain.AccountData{
		TotalCollateral: totalCollateral,
		TotalDebt:       totalDebt,
		AvailableBorrow: available,
		HealthFactor:    health,
	}, nil
}

// LiquidationCall repays the user's debt from the liquidator's balance and
// hands back bonus-adjusted collateral from the pool's liquidity. The
// requested amount is clamped to the close-factor bound and to the seizable
// collateral.
func (p *LendingPool) LiquidationCall(ctx context.Context, collateralAsset, debtAsset, user common.Address,
	debtToCover *uint256.Int, receiveAToken bool) (*uint256.Int, *uint256.Int, error) {

	account, err := p.GetUserAccountData(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	if !account.IsLiquidatable() {
		return nil, nil, apperror.Validation(apperror.CodeNotLiquidatable, "health factor at or above one")
	}

	collData, err := p.reserve(collateralAsset)
	if err != nil {
		return nil, nil, err
	}
	debtData, err := p.reserve(debtAsset)
	if err != nil {
		return nil, nil, err
	}
	if !collData.Config.IsActive() || !debtData.Config.IsActive() {
		return nil, nil, apperror.Validation(apperror.CodeReserveInactive, "liquidation over inactive reserve")
	}

	p.mu.Lock()
	userDebt := p.userDebtLocked(debtData, user)
	p.mu.Unlock()
	if userDebt.IsZero() {
		return nil, nil, apperror.Validation(apperror.CodeNotLiquidatable, "no outstanding debt in this asset")
	}
	userCollateral := p.ledger.Balance(collData.ATokenAddress, user)
	if userCollateral.IsZero() {
		return nil, nil, apperror.Validation(apperror.CodeNotLiquidatable, "no collateral in this asset")
	}

	maxRepay, err := applyBps(userDebt, p.closeFactorBps)
	if err != nil {
		return nil, nil, err
	}
	repay := new(uint256.Int).Set(debtToCover)
	if maxRepay.Lt(repay) {
		repay.Set(maxRepay)
	}
	if repay.IsZero() {
		return nil, nil, apperror.Validation(apperror.CodeInvalidInput, "zero debt to cover")
	}

	debtPrice, err := p.oracle.GetAssetPrice(ctx, debtAsset)
	if err != nil {
		return nil, nil, err
	}
	collPrice, err := p.oracle.GetAssetPrice(ctx, collateralAsset)
	if err != nil {
		return nil, nil, err
	}
	debtUnit := pow10(debtData.Config.Decimals())
	collUnit := pow10(collData.Config.Decimals())
	bonus := collData.Config.LiquidationBonus()

	// seize = repay * debtPrice * bonus * collUnit / (collPrice * 1e4 * debtUnit)
	seize, err := convertWithBonus(repay, debtPrice, collPrice, debtUnit, collUnit, bonus, false)
	if err != nil {
		return nil, nil, err
	}
	if userCollateral.Lt(seize) {
		seize = userCollateral
		// repay shrinks to what the available collateral is worth.
		repay, err = convertWithBonus(seize, collPrice, debtPrice, collUnit, debtUnit, bonus, true)
		if err != nil {
			return nil, nil, err
		}
		if repay.IsZero() {
			return nil, nil, apperror.Validation(apperror.CodeNotLiquidatable, "collateral too small to liquidate")
		}
	}

	if p.ledger.Balance(collateralAsset, p.self).Lt(seize) && !receiveAToken {
		return nil, nil, apperror.Validation(apperror.CodeInsufficientLiquidity, "pool cannot deliver seized collateral")
	}

	// Settle: debt in, receipt burns, collateral out.
	if err := p.ledger.Transfer(debtAsset, p.liquidator, p.self, repay); err != nil {
		return nil, nil, apperror.Wrap(err, apperror.CodeTransferFailed, "pulling debt repayment")
	}
	if err := p.burnDebt(debtData, user, repay); err != nil {
		return nil, nil, err
	}
	if err := p.ledger.Debit(collData.ATokenAddress, user, seize); err != nil {
		return nil, nil, apperror.Wrap(err, apperror.CodeTransferFailed, "burning collateral receipt")
	}
	if receiveAToken {
		if err := p.ledger.Credit(collData.ATokenAddress, p.liquidator, seize); err != nil {
			return nil, nil, err
		}
	} else {
		if err := p.ledger.Transfer(collateralAsset, p.self, p.liquidator, seize); err != nil {
			return nil, nil, apperror.Wrap(err, apperror.CodeTransferFailed, "delivering seized collateral")
		}
	}

	return repay, seize, nil
}

// burnDebt retires repay from the user's debt receipts, variable first.
func (p *LendingPool) burnDebt(data domain.ReserveData, user common.Address, repay *uint256.Int) error {
	remaining := new(uint256.Int).Set(repay)
	variable := p.ledger.Balance(data.VariableDebtAddress, user)
	if !variable.IsZero() {
		burn := new(uint256.Int).Set(remaining)
		if variable.Lt(burn) {
			burn.Set(variable)
		}
		if err := p.ledger.Debit(data.VariableDebtAddress, user, burn); err != nil {
			return err
		}
		remaining.Sub(remaining, burn)
	}
	if remaining.IsZero() {
		return nil
	}
	if err := p.ledger.Debit(data.StableDebtAddress, user, remaining); err != nil {
		return apperror.Wrap(err, apperror.CodeTransferFailed, "burning stable debt receipt")
	}
	return nil
}

var bpsScale = uint256.NewInt(10000)

// scaleValue converts a native-scale amount to the reference unit.
func scaleValue(amount, price, unit *uint256.Int) (*uint256.Int, error) {
	v, err := mulCheck(amount, price)
	if err != nil {
		return nil, err
	}
	return v.Div(v, unit), nil
}

// applyBps scales an amount by a 4-decimal fixed-point factor, truncating.
func applyBps(amount *uint256.Int, bps uint64) (*uint256.Int, error) {
	v, err := mulCheck(amount, uint256.NewInt(bps))
	if err != nil {
		return nil, err
	}
	return v.Div(v, bpsScale), nil
}

// convertWithBonus converts an amount across assets, applying the bonus as a
// markup (divide=false) or a discount (divide=true). Truncates.
func convertWithBonus(amount, priceIn, priceOut, unitIn, unitOut *uint256.Int, bonusBps uint64, divide bool) (*uint256.Int, error) {
	num, err := mulCheck(amount, priceIn)
	if err != nil {
		return nil, err
	}
	num, err = mulCheck(num, unitOut)
	if err != nil {
		return nil, err
	}
	den := new(uint256.Int).Mul(priceOut, unitIn)
	if divide {
		den, err = mulCheck(den, uint256.NewInt(bonusBps))
		if err != nil {
			return nil, err
		}
		num, err = mulCheck(num, bpsScale)
		if err != nil {
			return nil, err
		}
	} else {
		num, err = mulCheck(num, uint256.NewInt(bonusBps))
		if err != nil {
			return nil, err
		}
		den, err = mulCheck(den, bpsScale)
		if err != nil {
			return nil, err
		}
	}
	if den.IsZero() {
		return nil, apperror.Validation(apperror.CodeInvalidPrice, "zero conversion denominator")
	}
	return num.Div(num, den), nil
}

func mulCheck(a, b *uint256.Int) (*uint256.Int, error) {
	v, overflow := new(uint256.Int).MulOverflow(a, b)
	if overflow {
		return nil, apperror.Validation(apperror.CodeOverflow, "value computation")
	}
	return v, nil
}

func pow10(decimals uint8) *uint256.Int {
	return new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(uint64(decimals)))
}
