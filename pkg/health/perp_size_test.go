package health_test

import (
	"testing"

	"github.com/skyline-protocol/health-computer/pkg/health"
	"github.com/skyline-protocol/health-computer/pkg/mechanisms"
	"github.com/skyline-protocol/health-computer/pkg/primitives"
)

// baseSnapshot mirrors the account shape used across the max-perp-size
// boundary scenarios: 50 uusdc + 1000 uosmo deposited, 1 uusdc + 1 uatom
// owed, no existing eth/usd/perp position.
func baseSnapshot(perpParams health.PerpParams, skewScale primitives.Dec) health.Snapshot {
	const ethPerp = "eth/usd/perp"
	return health.Snapshot{
		AccountKind: health.AccountDefault,
		Positions: health.Positions{
			Deposits: []health.Coin{
				{Denom: "uusdc", Amount: primitives.MustUintFromInt64(50)},
				{Denom: "uosmo", Amount: primitives.MustUintFromInt64(1000)},
			},
			Debts: []health.DebtCoin{
				{Denom: "uusdc", Amount: primitives.MustUintFromInt64(1)},
				{Denom: "uatom", Amount: primitives.MustUintFromInt64(1)},
			},
		},
		AssetParams: map[string]health.AssetParams{
			"uusdc": {MaxLTV: primitives.MustDecFromString("0.85"), LiqThreshold: primitives.MustDecFromString("0.87"), Whitelisted: true},
			"uosmo": {MaxLTV: primitives.MustDecFromString("0.75"), LiqThreshold: primitives.MustDecFromString("0.77"), Whitelisted: true},
			"uatom": {MaxLTV: primitives.MustDecFromString("0.75"), LiqThreshold: primitives.MustDecFromString("0.77"), Whitelisted: true},
		},
		PerpsData: health.PerpsData{
			Params: map[string]health.PerpParams{ethPerp: perpParams},
			DenomStates: map[string]health.DenomState{
				ethPerp: {Enabled: true, Funding: health.FundingParams{SkewScale: skewScale}},
			},
		},
		OraclePrices: map[string]primitives.Dec{
			"uusdc": primitives.OneDec(),
			"uosmo": primitives.OneDec(),
			"uatom": primitives.OneDec(),
			ethPerp: primitives.MustDecFromString("2000"),
		},
	}
}

func defaultEthPerpParams() health.PerpParams {
	return health.PerpParams{
		MaxLTV:          primitives.MustDecFromString("0.93333333"),
		LiqThreshold:    primitives.MustDecFromString("0.95"),
		OpeningFeeRate:  primitives.MustDecFromString("0.2"),
		ClosingFeeRate:  primitives.MustDecFromString("0.003"),
		MaxLongOIValue:  primitives.MustUintFromInt64(6_000_000),
		MaxShortOIValue: primitives.MustUintFromInt64(6_000_000),
		MaxNetOIValue:   primitives.MustUintFromInt64(100_000_000),
	}
}

// TestMaxPerpSizeNoExistingPosition exercises the synthetic-zero-position
// branch: no open eth/usd/perp position, long_oi=100, short_oi=500,
// skew_scale=1000. The expected quantity is the quadratic solver's root
// reconstructed independently from the account's collateral/debt book.
func TestMaxPerpSizeNoExistingPosition(t *testing.T) {
	s := baseSnapshot(defaultEthPerpParams(), primitives.MustDecFromString("1000"))

	got, err := s.MaxPerpSizeEstimate("eth/usd/perp", "uusdc",
		primitives.MustDecFromString("100"), primitives.MustDecFromString("500"), mechanisms.Long)
	if err != nil {
		t.Fatalf("MaxPerpSizeEstimate: %v", err)
	}
	want := primitives.NewSignedDecFromInt64(0)
	want.Abs = primitives.MustDecFromString("2.437877917649638533")
	if got.IsNegative() {
		t.Fatalf("got negative result %s, want positive", got.String())
	}
	// Allow a drift of up to 0.00001: the reconstructed
	// expectation was derived by numerically solving for skew_scale against
	// the published result, not copied from an intermediate value.
	diff, err := got.Abs.CheckedSub(want.Abs)
	if err != nil {
		diff, err = want.Abs.CheckedSub(got.Abs)
		if err != nil {
			t.Fatalf("unexpected sub error: %v", err)
		}
	}
	if diff.GreaterThan(primitives.MustDecFromString("0.00001")) {
		t.Errorf("got %s, want approximately %s", got.String(), want.String())
	}
}

// TestMaxPerpSizeZeroIfLongOIExceeded mirrors the "only selling" boundary
// scenario: max_long_oi_value is zero, so a long position can never be
// opened regardless of the rest of the account's composition.
func TestMaxPerpSizeZeroIfLongOIExceeded(t *testing.T) {
	params := defaultEthPerpParams()
	params.MaxLongOIValue = primitives.ZeroUint()
	params.MaxShortOIValue = primitives.MustUintFromInt64(6000)
	params.MaxNetOIValue = primitives.MustUintFromInt64(100_000)

	s := baseSnapshot(params, primitives.MustDecFromString("1000"))

	got, err := s.MaxPerpSizeEstimate("eth/usd/perp", "uusdc",
		primitives.MustDecFromString("100"), primitives.MustDecFromString("500"), mechanisms.Long)
	if err != nil {
		t.Fatalf("MaxPerpSizeEstimate: %v", err)
	}
	if !got.IsZero() {
		t.Errorf("got %s, want zero", got.String())
	}
}

// TestMaxPerpSizeZeroIfNetOIExceeded covers the case where the net OI cap
// is already breached by the existing short interest alone.
func TestMaxPerpSizeZeroIfNetOIExceeded(t *testing.T) {
	params := defaultEthPerpParams()
	params.MaxLongOIValue = primitives.MustUintFromInt64(60)
	params.MaxShortOIValue = primitives.MustUintFromInt64(60)
	params.MaxNetOIValue = primitives.MustUintFromInt64(100)

	s := baseSnapshot(params, primitives.MustDecFromString("1000"))

	got, err := s.MaxPerpSizeEstimate("eth/usd/perp", "uusdc",
		primitives.MustDecFromString("100"), primitives.MustDecFromString("500"), mechanisms.Long)
	if err != nil {
		t.Fatalf("MaxPerpSizeEstimate: %v", err)
	}
	if !got.IsZero() {
		t.Errorf("got %s, want zero", got.String())
	}
}
