// Package perpetual implements perpetual futures positions.
// This package provides a pure valuation helper over a single instantaneous
// skew/funding state, rather than a stateful time-series contract: the
// health computer evaluates one snapshot per call and never advances time.
package perpetual

import (
	"errors"

	"github.com/skyline-protocol/health-computer/pkg/mechanisms"
	"github.com/skyline-protocol/health-computer/pkg/primitives"
)

var (
	// ErrInvalidOraclePrice is returned when an oracle price is non-positive.
	ErrInvalidOraclePrice = errors.New("oracle price must be positive")

	// ErrInvalidSkewScale is returned when skew_scale is non-positive.
	ErrInvalidSkewScale = errors.New("skew scale must be positive")

	// ErrInvalidPositionSize is returned when position size is zero.
	ErrInvalidPositionSize = errors.New("position size cannot be zero")
)

// Position represents an open perpetual position, valued against the
// current skew of its market rather than against time elapsed.
//
// Thread Safety: this implementation is not thread-safe. Concurrent access
// should be protected by the caller.
type Position struct {
	// denom identifies the perp market (e.g. "eth/usd/perp").
	denom string

	// baseDenom is the settlement asset PnL and funding are denominated in.
	baseDenom string

	// size is the signed position quantity; positive is long, negative short.
	size primitives.SignedDec

	// entryExecPrice is the execution price recorded when the position opened.
	entryExecPrice primitives.Dec

	// closingFeeRate and openingFeeRate are the market's perp fee schedule.
	closingFeeRate primitives.Dec
	openingFeeRate primitives.Dec

	// accruedFunding is the signed running funding settlement.
	accruedFunding primitives.SignedDec
}

// NewPosition creates a new perpetual position.
func NewPosition(
	denom, baseDenom string,
	size primitives.SignedDec,
	entryExecPrice primitives.Dec,
	closingFeeRate, openingFeeRate primitives.Dec,
) (*Position, error) {
	if denom == "" || baseDenom == "" {
		return nil, errors.New("denom and baseDenom cannot be empty")
	}
	if size.IsZero() {
		return nil, ErrInvalidPositionSize
	}
	if entryExecPrice.IsZero() {
		return nil, ErrInvalidOraclePrice
	}
	return &Position{
		denom:          denom,
		baseDenom:      baseDenom,
		size:           size,
		entryExecPrice: entryExecPrice,
		closingFeeRate: closingFeeRate,
		openingFeeRate: openingFeeRate,
		accruedFunding: primitives.ZeroSignedDec(),
	}, nil
}

// Mechanism returns the mechanism type identifier.
func (p *Position) Mechanism() mechanisms.MechanismType {
	return mechanisms.MechanismTypeDerivative
}

// Venue returns the venue identifier.
func (p *Position) Venue() string {
	return "perpetual"
}

// Direction reports which side of the market this position is on.
func (p *Position) Direction() mechanisms.Direction {
	if p.size.IsNegative() {
		return mechanisms.Short
	}
	return mechanisms.Long
}

// Size returns the signed position quantity.
func (p *Position) Size() primitives.SignedDec {
	return p.size
}

// EntryExecPrice returns the execution price recorded at open.
func (p *Position) EntryExecPrice() primitives.Dec {
	return p.entryExecPrice
}

// AccruedFunding returns the running signed funding settlement.
func (p *Position) AccruedFunding() primitives.SignedDec {
	return p.accruedFunding
}

// ExecutionPrice computes the skew-adjusted fill price for a market:
// p_ex = p * (1 + (skew - sizeDelta/2) / skewScale), where skew is the
// current long_oi - short_oi and sizeDelta is the signed quantity of the
// hypothetical trade being priced (the open position's own size, when
// valuing an existing position; the requested delta, when pricing a new
// one). Extracted as a free function, mirroring the toolkit's own
// convention of keeping pure price math outside the position struct.
func ExecutionPrice(oraclePrice primitives.Dec, skew primitives.SignedDec, skewScale primitives.Dec, sizeDelta primitives.SignedDec) (primitives.Dec, error) {
	if oraclePrice.IsZero() {
		return primitives.Dec{}, ErrInvalidOraclePrice
	}
	if skewScale.IsZero() {
		return primitives.Dec{}, ErrInvalidSkewScale
	}

	half, err := sizeDelta.CheckedDiv(primitives.NewSignedDecFromInt64(2))
	if err != nil {
		return primitives.Dec{}, err
	}
	adjustedSkew, err := skew.CheckedSub(half)
	if err != nil {
		return primitives.Dec{}, err
	}
	ratio, err := adjustedSkew.CheckedDiv(primitives.FromDec(skewScale))
	if err != nil {
		return primitives.Dec{}, err
	}
	factor, err := primitives.OneSignedDec().CheckedAdd(ratio)
	if err != nil {
		return primitives.Dec{}, err
	}
	execPrice, err := factor.CheckedMul(primitives.FromDec(oraclePrice))
	if err != nil {
		return primitives.Dec{}, err
	}
	return execPrice.Abs, nil
}

// UnrealizedPnL computes this position's unrealised profit or loss against
// a current execution price: size * (currentExecPrice - entryExecPrice) + accruedFunding.
func (p *Position) UnrealizedPnL(currentExecPrice primitives.Dec) (primitives.SignedDec, error) {
	if currentExecPrice.IsZero() {
		return primitives.SignedDec{}, ErrInvalidOraclePrice
	}
	delta, err := primitives.FromDec(currentExecPrice).CheckedSub(primitives.FromDec(p.entryExecPrice))
	if err != nil {
		return primitives.SignedDec{}, err
	}
	pnl, err := p.size.CheckedMul(delta)
	if err != nil {
		return primitives.SignedDec{}, err
	}
	return pnl.CheckedAdd(p.accruedFunding)
}

// ClosingFeeValue returns the notional closing fee this position would
// incur if closed at execPrice: |execPrice| * closingFeeRate * |size|.
func (p *Position) ClosingFeeValue(execPrice primitives.Dec) (primitives.Dec, error) {
	fee, err := execPrice.Mul(p.closingFeeRate)
	if err != nil {
		return primitives.Dec{}, err
	}
	return fee.Mul(p.size.Abs)
}

// ApplyFunding accumulates a funding settlement onto the position.
// Positive delta increases accruedFunding (a receivable); negative delta
// decreases it (a payable).
func (p *Position) ApplyFunding(delta primitives.SignedDec) error {
	updated, err := p.accruedFunding.CheckedAdd(delta)
	if err != nil {
		return err
	}
	p.accruedFunding = updated
	return nil
}

// LiquidationPrice returns the execution price at which this position's
// unrealised loss alone (ignoring the rest of the account's collateral)
// would consume perpLiqLTV of its entry notional. This is a per-position
// sizing utility, distinct from the account-wide liquidation price the
// health computer derives across the whole snapshot.
func (p *Position) LiquidationPrice(perpLiqLTV primitives.Dec) (primitives.Dec, error) {
	entryNotional, err := p.entryExecPrice.Mul(p.size.Abs)
	if err != nil {
		return primitives.Dec{}, err
	}
	lossBudget, err := entryNotional.Mul(perpLiqLTV)
	if err != nil {
		return primitives.Dec{}, err
	}
	budget, err := primitives.FromDec(lossBudget).CheckedAdd(p.accruedFunding)
	if err != nil {
		return primitives.Dec{}, err
	}
	if p.size.Abs.IsZero() {
		return primitives.Dec{}, ErrInvalidPositionSize
	}
	shift, err := budget.Abs.Div(p.size.Abs)
	if err != nil {
		return primitives.Dec{}, err
	}

	if p.size.IsNegative() {
		return p.entryExecPrice.CheckedAdd(shift)
	}
	if shift.GreaterThan(p.entryExecPrice) {
		return primitives.ZeroDec(), nil
	}
	return p.entryExecPrice.CheckedSub(shift)
}
