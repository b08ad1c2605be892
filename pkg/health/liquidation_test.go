package health_test

import (
	"testing"

	"github.com/skyline-protocol/health-computer/pkg/health"
	"github.com/skyline-protocol/health-computer/pkg/primitives"
)

func liquidationSnapshot() health.Snapshot {
	return health.Snapshot{
		AccountKind: health.AccountDefault,
		Positions: health.Positions{
			Deposits: []health.Coin{
				{Denom: "uosmo", Amount: primitives.MustUintFromInt64(1000)},
			},
			Debts: []health.DebtCoin{
				{Denom: "uusdc", Amount: primitives.MustUintFromInt64(600)},
			},
		},
		AssetParams: map[string]health.AssetParams{
			"uosmo": {MaxLTV: primitives.MustDecFromString("0.8"), LiqThreshold: primitives.MustDecFromString("0.85"), Whitelisted: true},
			"uusdc": {MaxLTV: primitives.MustDecFromString("0.9"), LiqThreshold: primitives.MustDecFromString("0.95"), Whitelisted: true},
		},
		OraclePrices: map[string]primitives.Dec{
			"uosmo": primitives.MustDecFromString("1"),
			"uusdc": primitives.OneDec(),
		},
	}
}

func TestLiquidationPriceEstimateZeroDebtReturnsZero(t *testing.T) {
	s := liquidationSnapshot()
	s.Positions.Debts = nil

	got, err := s.LiquidationPriceEstimate("uosmo", health.LiquidationAsset)
	if err != nil {
		t.Fatalf("LiquidationPriceEstimate: %v", err)
	}
	if !got.IsZero() {
		t.Errorf("got %s, want zero for a debt-free account", got.String())
	}
}

func TestLiquidationPriceEstimateAsset(t *testing.T) {
	s := liquidationSnapshot()

	// RWA_max = 1000*1*0.8 = 800, debt = 600: solvent (HF = 800/600 > 1).
	got, err := s.LiquidationPriceEstimate("uosmo", health.LiquidationAsset)
	if err != nil {
		t.Fatalf("LiquidationPriceEstimate: %v", err)
	}
	if got.IsZero() {
		t.Error("expected a non-zero liquidation price for a solvent account holding the priced asset")
	}

	// At the returned price, the asset's LTV-weighted value should
	// approximately equal the outstanding debt.
	weighted, err := got.Mul(primitives.MustDecFromString("0.8"))
	if err != nil {
		t.Fatalf("Mul: %v", err)
	}
	value, err := primitives.MustUintFromInt64(1000).ToDec().Mul(weighted)
	if err != nil {
		t.Fatalf("Mul: %v", err)
	}
	if value.LessThan(primitives.MustDecFromString("599")) || value.GreaterThan(primitives.MustDecFromString("601")) {
		t.Errorf("got weighted collateral value %s, want close to the 600 owed", value.String())
	}
}

func TestLiquidationPriceEstimateAlreadyUnderwaterReturnsCurrentPrice(t *testing.T) {
	s := liquidationSnapshot()
	s.Positions.Debts = []health.DebtCoin{{Denom: "uusdc", Amount: primitives.MustUintFromInt64(10_000)}}

	got, err := s.LiquidationPriceEstimate("uosmo", health.LiquidationAsset)
	if err != nil {
		t.Fatalf("LiquidationPriceEstimate: %v", err)
	}
	want := s.OraclePrices["uosmo"]
	if !got.Equal(want) {
		t.Errorf("got %s, want the current price %s for an already-insolvent account", got.String(), want.String())
	}
}
