package health_test

import (
	"testing"

	"github.com/skyline-protocol/health-computer/pkg/health"
	"github.com/skyline-protocol/health-computer/pkg/primitives"
)

func actionSnapshot() health.Snapshot {
	return health.Snapshot{
		AccountKind: health.AccountDefault,
		Positions: health.Positions{
			Deposits: []health.Coin{
				{Denom: "uusdc", Amount: primitives.MustUintFromInt64(1000)},
			},
			Debts: []health.DebtCoin{
				{Denom: "uatom", Amount: primitives.MustUintFromInt64(100)},
			},
		},
		AssetParams: map[string]health.AssetParams{
			"uusdc": {MaxLTV: primitives.MustDecFromString("0.8"), LiqThreshold: primitives.MustDecFromString("0.9"), Whitelisted: true},
			"uatom": {MaxLTV: primitives.MustDecFromString("0.7"), LiqThreshold: primitives.MustDecFromString("0.75"), Whitelisted: true},
		},
		OraclePrices: map[string]primitives.Dec{
			"uusdc": primitives.OneDec(),
			"uatom": primitives.OneDec(),
		},
	}
}

func TestMaxWithdrawEstimateWhitelistedWithDebt(t *testing.T) {
	s := actionSnapshot()

	got, err := s.MaxWithdrawEstimate("uusdc")
	if err != nil {
		t.Fatalf("MaxWithdrawEstimate: %v", err)
	}
	if got.IsZero() || got.GreaterThan(primitives.MustUintFromInt64(1000)) {
		t.Errorf("got %s, want a positive amount capped at the 1000 deposited", got.String())
	}
}

func TestMaxWithdrawEstimateDeListedAssetReturnsFullBalance(t *testing.T) {
	s := actionSnapshot()
	ap := s.AssetParams["uusdc"]
	ap.Whitelisted = false
	s.AssetParams["uusdc"] = ap

	got, err := s.MaxWithdrawEstimate("uusdc")
	if err != nil {
		t.Fatalf("MaxWithdrawEstimate: %v", err)
	}
	want := primitives.MustUintFromInt64(1000)
	if !got.Equal(want) {
		t.Errorf("got %s, want %s", got.String(), want.String())
	}
}

func TestMaxWithdrawEstimateInsolventReturnsZero(t *testing.T) {
	s := actionSnapshot()
	s.Positions.Debts = []health.DebtCoin{{Denom: "uatom", Amount: primitives.MustUintFromInt64(10_000)}}

	got, err := s.MaxWithdrawEstimate("uusdc")
	if err != nil {
		t.Fatalf("MaxWithdrawEstimate: %v", err)
	}
	if !got.IsZero() {
		t.Errorf("got %s, want zero for an insolvent account", got.String())
	}
}

func TestMaxBorrowEstimateToWallet(t *testing.T) {
	s := actionSnapshot()

	got, err := s.MaxBorrowEstimate("uatom", health.BorrowTarget{Kind: health.BorrowToWallet})
	if err != nil {
		t.Fatalf("MaxBorrowEstimate: %v", err)
	}
	// RWA = 1000*0.8 = 800, debt = 100 -> headroom = 800-100-1 = 699
	want := primitives.MustUintFromInt64(699)
	if !got.Equal(want) {
		t.Errorf("got %s, want %s", got.String(), want.String())
	}
}

func TestMaxBorrowEstimateDeListedAssetReturnsZero(t *testing.T) {
	s := actionSnapshot()

	_, err := s.MaxBorrowEstimate("uatom", health.BorrowTarget{Kind: health.BorrowToWallet})
	if err != nil {
		t.Fatalf("MaxBorrowEstimate: %v", err)
	}

	ap := s.AssetParams["uatom"]
	ap.Whitelisted = false
	s.AssetParams["uatom"] = ap

	got, err := s.MaxBorrowEstimate("uatom", health.BorrowTarget{Kind: health.BorrowToWallet})
	if err != nil {
		t.Fatalf("MaxBorrowEstimate: %v", err)
	}
	if !got.IsZero() {
		t.Errorf("got %s, want zero for a de-listed borrow target", got.String())
	}
}

func TestMaxSwapEstimateFullBalanceWhenTargetLTVDominates(t *testing.T) {
	s := actionSnapshot()
	s.AssetParams["uosmo"] = health.AssetParams{
		MaxLTV: primitives.MustDecFromString("0.9"), LiqThreshold: primitives.MustDecFromString("0.92"), Whitelisted: true,
	}

	got, err := s.MaxSwapEstimate("uusdc", "uosmo", primitives.ZeroDec(), health.SwapDefault)
	if err != nil {
		t.Fatalf("MaxSwapEstimate: %v", err)
	}
	want := primitives.MustUintFromInt64(1000)
	if !got.Equal(want) {
		t.Errorf("got %s, want full balance %s", got.String(), want.String())
	}
}
