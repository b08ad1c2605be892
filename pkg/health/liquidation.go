package health

import "github.com/skyline-protocol/health-computer/pkg/primitives"

// LiquidationTargetKind selects whether the liquidation-price estimator
// solves for the price of a held asset or of an owed debt.
type LiquidationTargetKind int

const (
	LiquidationAsset LiquidationTargetKind = iota
	LiquidationDebt
)

// LiquidationPriceEstimate computes the oracle price of denom at which the
// account's max-LTV Health Factor drops to exactly 1, per spec §4.7.
func (s Snapshot) LiquidationPriceEstimate(denom string, kind LiquidationTargetKind) (primitives.Dec, error) {
	collateral, err := s.totalCollateralValue()
	if err != nil {
		return primitives.Dec{}, err
	}
	spotDebt, err := s.spotDebtValue(s.Positions.Debts)
	if err != nil {
		return primitives.Dec{}, err
	}

	if spotDebt.IsZero() {
		return primitives.ZeroDec(), nil
	}
	if spotDebt.GreaterThanOrEqual(collateral.MaxLTVAdjusted) {
		return s.price(denom)
	}

	switch kind {
	case LiquidationAsset:
		return s.liquidationPriceAsset(denom, collateral.MaxLTVAdjusted, spotDebt)
	default:
		return s.liquidationPriceDebt(denom, collateral.MaxLTVAdjusted, spotDebt)
	}
}

func (s Snapshot) liquidationPriceAsset(denom string, rwaMax, spotDebt primitives.Uint) (primitives.Dec, error) {
	amount, err := s.Positions.depositedAndLent(denom)
	if err != nil {
		return primitives.Dec{}, err
	}
	if amount.IsZero() {
		return primitives.Dec{}, errMissingAmount(denom)
	}

	ap, err := s.assetParams(denom)
	if err != nil {
		return primitives.Dec{}, err
	}
	maxLTV, _, err := s.activeLTV(denom, ap)
	if err != nil {
		return primitives.Dec{}, err
	}
	price, err := s.price(denom)
	if err != nil {
		return primitives.Dec{}, err
	}

	weightedPrice, err := price.Mul(maxLTV)
	if err != nil {
		return primitives.Dec{}, wrapArithmetic(err)
	}
	assetLTVValue, err := amount.MulFloor(weightedPrice)
	if err != nil {
		return primitives.Dec{}, wrapArithmetic(err)
	}

	excess, err := spotDebt.ToSignedDec().CheckedAdd(assetLTVValue.ToSignedDec())
	if err != nil {
		return primitives.Dec{}, wrapArithmetic(err)
	}
	if excess, err = excess.CheckedSub(rwaMax.ToSignedDec()); err != nil {
		return primitives.Dec{}, wrapArithmetic(err)
	}
	if !excess.IsPositive() {
		return primitives.ZeroDec(), nil
	}

	divisor, err := amount.ToDec().Mul(maxLTV)
	if err != nil {
		return primitives.Dec{}, wrapArithmetic(err)
	}
	if divisor.IsZero() {
		return primitives.ZeroDec(), nil
	}
	liqPrice, err := excess.Abs.Div(divisor)
	if err != nil {
		return primitives.Dec{}, wrapArithmetic(err)
	}
	return liqPrice, nil
}

func (s Snapshot) liquidationPriceDebt(denom string, rwaMax, spotDebt primitives.Uint) (primitives.Dec, error) {
	amount, err := s.Positions.debtAmount(denom)
	if err != nil {
		return primitives.Dec{}, err
	}
	if amount.IsZero() {
		return primitives.Dec{}, errMissingAmount(denom)
	}

	price, err := s.price(denom)
	if err != nil {
		return primitives.Dec{}, err
	}
	debtValue, err := amount.MulCeil(price)
	if err != nil {
		return primitives.Dec{}, wrapArithmetic(err)
	}

	net, err := rwaMax.ToSignedDec().CheckedAdd(debtValue.ToSignedDec())
	if err != nil {
		return primitives.Dec{}, wrapArithmetic(err)
	}
	if net, err = net.CheckedSub(spotDebt.ToSignedDec()); err != nil {
		return primitives.Dec{}, wrapArithmetic(err)
	}

	liqPrice, err := net.Abs.Div(amount.ToDec())
	if err != nil {
		return primitives.Dec{}, wrapArithmetic(err)
	}
	return liqPrice, nil
}
