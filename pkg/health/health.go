package health

import "github.com/skyline-protocol/health-computer/pkg/primitives"

// Health is the full output of ComputeHealth: collateral/debt totals, the
// perp contribution, and the two resulting Health Factors.
type Health struct {
	TotalCollateralValue primitives.Uint
	TotalDebtValue       primitives.Uint
	Perps                PerpHFValues

	// MaxLTVHealthFactor and LiquidationHealthFactor are nil when the
	// account carries zero spot debt and no perp positions: a healthy
	// account with nothing to be liquidated for has no Health Factor at all.
	MaxLTVHealthFactor      *primitives.Dec
	LiquidationHealthFactor *primitives.Dec
}

// ComputeHealth runs the full health computer over a snapshot: it values
// collateral and debt, folds in every perp position's contribution, and
// derives both Health Factors.
func ComputeHealth(s Snapshot) (Health, error) {
	collateral, err := s.totalCollateralValue()
	if err != nil {
		return Health{}, err
	}
	spotDebt, err := s.spotDebtValue(s.Positions.Debts)
	if err != nil {
		return Health{}, err
	}
	perps, err := s.perpHealthFactorValues(s.Positions.Perps)
	if err != nil {
		return Health{}, err
	}

	result := Health{
		TotalCollateralValue: collateral.TotalValue,
		TotalDebtValue:       spotDebt,
		Perps:                perps,
	}

	hasPerps := len(s.Positions.Perps) > 0
	if spotDebt.IsZero() && !hasPerps {
		return result, nil
	}

	maxLTVHF, err := combinedHealthFactor(collateral.MaxLTVAdjusted, spotDebt, perps.MaxLTVNumerator, perps.MaxLTVDenominator)
	if err != nil {
		return Health{}, err
	}
	liqHF, err := combinedHealthFactor(collateral.LiqThresholdAdjusted, spotDebt, perps.LiqNumerator, perps.LiqDenominator)
	if err != nil {
		return Health{}, err
	}
	result.MaxLTVHealthFactor = &maxLTVHF
	result.LiquidationHealthFactor = &liqHF
	return result, nil
}

// combinedHealthFactor folds the spot book's LTV-weighted collateral value
// and debt value together with the perp contributor's numerator/denominator
// into RWA/DEN and returns their floored ratio.
func combinedHealthFactor(
	ltvAdjustedCollateral, spotDebt primitives.Uint,
	perpNumerator, perpDenominator primitives.SignedDec,
) (primitives.Dec, error) {
	rwa, err := ltvAdjustedCollateral.ToSignedDec().CheckedAdd(perpNumerator)
	if err != nil {
		return primitives.Dec{}, wrapArithmetic(err)
	}
	den, err := spotDebt.ToSignedDec().CheckedAdd(perpDenominator)
	if err != nil {
		return primitives.Dec{}, wrapArithmetic(err)
	}

	rwaFloor := rwa.Abs.ToUint()
	denFloor := den.Abs.ToUint()

	if denFloor.IsZero() {
		return primitives.ZeroDec(), nil
	}
	hf, err := primitives.CheckedFromRatio(rwaFloor, denFloor)
	if err != nil {
		return primitives.Dec{}, wrapArithmetic(err)
	}
	return hf, nil
}
