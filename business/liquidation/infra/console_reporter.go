// Package infra contains infrastructure adapters for the liquidation context.
package infra

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	"github.com/0xarb/flash-liquidator/business/liquidation/domain"
	"github.com/0xarb/flash-liquidator/internal/asset"
)

// ConsoleReporter implements Reporter for CLI output. Amounts print in human
// units when the asset registry knows the token, raw otherwise.
type ConsoleReporter struct {
	out     io.Writer
	assets  *asset.Registry
	chainID uint64

	collateralAsset common.Address
	debtAsset       common.Address
	borrowAsset     common.Address
	minProfit       decimal.Decimal // borrow-asset human units, zero disables
}

// NewConsoleReporter creates a new ConsoleReporter for one target's assets.
func NewConsoleReporter(assets *asset.Registry, chainID uint64, collateralAsset, debtAsset, borrowAsset common.Address, minProfit decimal.Decimal) *ConsoleReporter {
	return &ConsoleReporter{
		out:             os.Stdout,
		assets:          assets,
		chainID:         chainID,
		collateralAsset: collateralAsset,
		debtAsset:       debtAsset,
		borrowAsset:     borrowAsset,
		minProfit:       minProfit,
	}
}

// Start initializes the console reporter.
func (r *ConsoleReporter) Start(ctx context.Context) error {
	fmt.Fprintln(r.out, "Flash Liquidator Started")
	fmt.Fprintln(r.out, "========================")
	return nil
}

// Report outputs a liquidation outcome to the console.
func (r *ConsoleReporter) Report(outcome *domain.Outcome) {
	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, "================================================================================")
	if outcome.Succeeded() {
		fmt.Fprintln(r.out, "LIQUIDATION COMPLETED")
	} else {
		fmt.Fprintln(r.out, "LIQUIDATION ABORTED")
	}
	fmt.Fprintln(r.out, "================================================================================")
	fmt.Fprintf(r.out, "State:          %s\n", outcome.State)
	fmt.Fprintf(r.out, "Started:        %s\n", outcome.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(r.out, "Duration:       %s\n", outcome.Duration)
	fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")
	fmt.Fprintln(r.out, "PLAN")
	if outcome.Plan.MaxRepayAmount != nil {
		fmt.Fprintf(r.out, "  Max Repay:      %s\n", r.format(r.debtAsset, outcome.Plan.MaxRepayAmount))
		fmt.Fprintf(r.out, "  Max Collateral: %s\n", r.format(r.collateralAsset, outcome.Plan.MaxCollateralAmount))
	}
	if outcome.Succeeded() {
		fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")
		fmt.Fprintln(r.out, "SETTLEMENT")
		fmt.Fprintf(r.out, "  Borrowed:       %s\n", r.format(r.borrowAsset, outcome.Borrowed))
		fmt.Fprintf(r.out, "  Repaid:         %s\n", r.format(r.debtAsset, outcome.Repaid))
		fmt.Fprintf(r.out, "  Seized:         %s\n", r.format(r.collateralAsset, outcome.Seized))
		fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")
		fmt.Fprintln(r.out, "PROFIT")
		fmt.Fprintf(r.out, "  Settled:        %s\n", r.format(r.borrowAsset, outcome.Profit))
		if r.belowMinimum(outcome.Profit) {
			fmt.Fprintf(r.out, "  WARNING: below configured minimum of %s\n", r.minProfit)
		}
	}
	if outcome.Err != nil {
		fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")
		fmt.Fprintf(r.out, "Error:          %s\n", outcome.Err)
	}
	fmt.Fprintln(r.out, "================================================================================")
}

// Stop gracefully shuts down the console reporter.
func (r *ConsoleReporter) Stop() error {
	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, "Flash Liquidator Stopped")
	return nil
}

// belowMinimum compares the settled profit to the configured threshold. The
// comparison needs the borrow asset's decimals; an unknown asset is never
// flagged.
func (r *ConsoleReporter) belowMinimum(profit *uint256.Int) bool {
	if profit == nil || !r.minProfit.IsPositive() || r.assets == nil {
		return false
	}
	a, ok := r.assets.GetToken(r.chainID, r.borrowAsset)
	if !ok {
		return false
	}
	return asset.NewAmount(a, profit.ToBig()).ToDecimal().LessThan(r.minProfit)
}

func (r *ConsoleReporter) format(addr common.Address, v *uint256.Int) string {
	if v == nil {
		return "-"
	}
	if r.assets != nil {
		if a, ok := r.assets.GetToken(r.chainID, addr); ok {
			return asset.NewAmount(a, v.ToBig()).String()
		}
	}
	return v.String()
}
