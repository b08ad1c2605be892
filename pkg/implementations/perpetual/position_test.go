package perpetual_test

import (
	"testing"

	"github.com/skyline-protocol/health-computer/pkg/implementations/perpetual"
	"github.com/skyline-protocol/health-computer/pkg/mechanisms"
	"github.com/skyline-protocol/health-computer/pkg/primitives"
)

// Verify MarketMechanism interface
var _ mechanisms.MarketMechanism = (*perpetual.Position)(nil)

func TestNewPositionRejectsZeroSize(t *testing.T) {
	_, err := perpetual.NewPosition("eth/usd/perp", "uusdc", primitives.ZeroSignedDec(),
		primitives.MustDecFromString("2000"), primitives.MustDecFromString("0.001"), primitives.MustDecFromString("0.001"))
	if err != perpetual.ErrInvalidPositionSize {
		t.Fatalf("got %v, want ErrInvalidPositionSize", err)
	}
}

func TestPositionDirection(t *testing.T) {
	long, err := perpetual.NewPosition("eth/usd/perp", "uusdc", primitives.NewSignedDecFromInt64(1),
		primitives.MustDecFromString("2000"), primitives.MustDecFromString("0.001"), primitives.MustDecFromString("0.001"))
	if err != nil {
		t.Fatalf("NewPosition: %v", err)
	}
	if long.Direction() != mechanisms.Long {
		t.Errorf("got %s, want Long", long.Direction())
	}

	short, err := perpetual.NewPosition("eth/usd/perp", "uusdc", primitives.NewSignedDecFromInt64(-1),
		primitives.MustDecFromString("2000"), primitives.MustDecFromString("0.001"), primitives.MustDecFromString("0.001"))
	if err != nil {
		t.Fatalf("NewPosition: %v", err)
	}
	if short.Direction() != mechanisms.Short {
		t.Errorf("got %s, want Short", short.Direction())
	}
}

func TestExecutionPriceNoSkewEqualsOraclePrice(t *testing.T) {
	got, err := perpetual.ExecutionPrice(
		primitives.MustDecFromString("2000"), primitives.ZeroSignedDec(),
		primitives.MustDecFromString("1000000"), primitives.ZeroSignedDec())
	if err != nil {
		t.Fatalf("ExecutionPrice: %v", err)
	}
	want := primitives.MustDecFromString("2000")
	if !got.Equal(want) {
		t.Errorf("got %s, want %s", got.String(), want.String())
	}
}

func TestExecutionPriceAdjustsForSkew(t *testing.T) {
	// skew = 100, skewScale = 1000, sizeDelta = 0: price = 2000*(1+100/1000) = 2200.
	got, err := perpetual.ExecutionPrice(
		primitives.MustDecFromString("2000"), primitives.NewSignedDecFromInt64(100),
		primitives.MustDecFromString("1000"), primitives.ZeroSignedDec())
	if err != nil {
		t.Fatalf("ExecutionPrice: %v", err)
	}
	want := primitives.MustDecFromString("2200")
	if !got.Equal(want) {
		t.Errorf("got %s, want %s", got.String(), want.String())
	}
}

func TestUnrealizedPnLAndFunding(t *testing.T) {
	pos, err := perpetual.NewPosition("eth/usd/perp", "uusdc", primitives.NewSignedDecFromInt64(2),
		primitives.MustDecFromString("2000"), primitives.MustDecFromString("0.001"), primitives.MustDecFromString("0.001"))
	if err != nil {
		t.Fatalf("NewPosition: %v", err)
	}

	pnl, err := pos.UnrealizedPnL(primitives.MustDecFromString("2100"))
	if err != nil {
		t.Fatalf("UnrealizedPnL: %v", err)
	}
	// size(2) * (2100-2000) = 200, no funding accrued yet.
	if pnl.IsNegative() || pnl.Abs.String() != "200" {
		t.Errorf("got %s, want 200", pnl.String())
	}

	if err := pos.ApplyFunding(primitives.NewSignedDecFromInt64(-50)); err != nil {
		t.Fatalf("ApplyFunding: %v", err)
	}
	pnl, err = pos.UnrealizedPnL(primitives.MustDecFromString("2100"))
	if err != nil {
		t.Fatalf("UnrealizedPnL: %v", err)
	}
	if pnl.IsNegative() || pnl.Abs.String() != "150" {
		t.Errorf("got %s, want 150 after funding settlement", pnl.String())
	}
}
