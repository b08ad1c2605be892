package health

import "github.com/skyline-protocol/health-computer/pkg/primitives"

// PerpHFValues is the four-accumulator output of the perp HF contributor:
// the numerator/denominator pairs for both the max-LTV and liquidation
// regimes, plus the positions' aggregate unrealised PnL split into profit
// and loss.
type PerpHFValues struct {
	MaxLTVNumerator   primitives.SignedDec
	MaxLTVDenominator primitives.SignedDec
	LiqNumerator      primitives.SignedDec
	LiqDenominator    primitives.SignedDec
	Profit            primitives.Uint
	Loss              primitives.Uint
}

func zeroPerpHFValues() PerpHFValues {
	return PerpHFValues{
		MaxLTVNumerator:   primitives.ZeroSignedDec(),
		MaxLTVDenominator: primitives.ZeroSignedDec(),
		LiqNumerator:      primitives.ZeroSignedDec(),
		LiqDenominator:    primitives.ZeroSignedDec(),
		Profit:            primitives.ZeroUint(),
		Loss:              primitives.ZeroUint(),
	}
}

// activePerpLTV resolves perp_max_ltv/perp_liq_ltv for denom, forced to
// zero when the market is disabled (invariant 5).
func (s Snapshot) activePerpLTV(denom string) (maxLTV, liqThreshold primitives.Dec, err error) {
	params, err := s.perpParams(denom)
	if err != nil {
		return primitives.Dec{}, primitives.Dec{}, err
	}
	state, err := s.denomState(denom)
	if err != nil {
		return primitives.Dec{}, primitives.Dec{}, err
	}
	if !state.Enabled {
		return primitives.ZeroDec(), primitives.ZeroDec(), nil
	}
	return params.MaxLTV, params.LiqThreshold, nil
}

// perpNumDen computes one position's (numerator, denominator) contribution
// for a given LTV regime (max-LTV or liquidation), per spec §4.3 steps 4-5.
func perpNumDen(
	size primitives.SignedDec,
	positionValueOpen, positionValueCurrent primitives.SignedDec,
	fundingMaxValue, fundingMinValue primitives.SignedDec,
	perpLTV, baseLTV, closingFeeRate primitives.Dec,
) (num, den primitives.SignedDec, err error) {
	if size.IsNegative() {
		// short: num = position_value_open + funding_max_value * base_ltv
		//        den = position_value_current * (2 - perp_ltv + closing_fee_rate) + funding_min_value
		fundingTerm, err := fundingMaxValue.CheckedMul(primitives.FromDec(baseLTV))
		if err != nil {
			return primitives.SignedDec{}, primitives.SignedDec{}, wrapArithmetic(err)
		}
		num, err = positionValueOpen.CheckedAdd(fundingTerm)
		if err != nil {
			return primitives.SignedDec{}, primitives.SignedDec{}, wrapArithmetic(err)
		}

		factor, err := primitives.NewDecFromInt64(2).CheckedSub(perpLTV)
		if err != nil {
			return primitives.SignedDec{}, primitives.SignedDec{}, wrapArithmetic(err)
		}
		factor, err = factor.CheckedAdd(closingFeeRate)
		if err != nil {
			return primitives.SignedDec{}, primitives.SignedDec{}, wrapArithmetic(err)
		}
		denTerm, err := positionValueCurrent.CheckedMul(primitives.FromDec(factor))
		if err != nil {
			return primitives.SignedDec{}, primitives.SignedDec{}, wrapArithmetic(err)
		}
		den, err = denTerm.CheckedAdd(fundingMinValue)
		if err != nil {
			return primitives.SignedDec{}, primitives.SignedDec{}, wrapArithmetic(err)
		}
		return num, den, nil
	}

	// long: num = position_value_current * (perp_ltv - closing_fee_rate) + funding_max_value * base_ltv
	//       den = position_value_open + funding_min_value
	//
	// perp_ltv - closing_fee_rate is computed in signed space: a disabled
	// market (invariant 5) forces perp_ltv to zero while closing_fee_rate
	// still applies, making this legitimately negative.
	factor, err := primitives.FromDec(perpLTV).CheckedSub(primitives.FromDec(closingFeeRate))
	if err != nil {
		return primitives.SignedDec{}, primitives.SignedDec{}, wrapArithmetic(err)
	}
	numTerm1, err := positionValueCurrent.CheckedMul(factor)
	if err != nil {
		return primitives.SignedDec{}, primitives.SignedDec{}, wrapArithmetic(err)
	}
	numTerm2, err := fundingMaxValue.CheckedMul(primitives.FromDec(baseLTV))
	if err != nil {
		return primitives.SignedDec{}, primitives.SignedDec{}, wrapArithmetic(err)
	}
	num, err = numTerm1.CheckedAdd(numTerm2)
	if err != nil {
		return primitives.SignedDec{}, primitives.SignedDec{}, wrapArithmetic(err)
	}
	den, err = positionValueOpen.CheckedAdd(fundingMinValue)
	if err != nil {
		return primitives.SignedDec{}, primitives.SignedDec{}, wrapArithmetic(err)
	}
	return num, den, nil
}

// perpHealthFactorValues is the perp HF contributor of spec §4.3: it folds
// every perp position into the four HF accumulators plus aggregate PnL.
func (s Snapshot) perpHealthFactorValues(perps []PerpPosition) (PerpHFValues, error) {
	totals := zeroPerpHFValues()

	for _, pos := range perps {
		if pos.Size.IsZero() {
			continue // step 6: a zero-size position contributes nothing
		}

		basePrice, err := s.price(pos.BaseDenom)
		if err != nil {
			return PerpHFValues{}, err
		}
		baseAP, err := s.assetParams(pos.BaseDenom)
		if err != nil {
			return PerpHFValues{}, err
		}
		baseMaxLTV, baseLiqThreshold, err := s.activeLTV(pos.BaseDenom, baseAP)
		if err != nil {
			return PerpHFValues{}, err
		}
		perpMaxLTV, perpLiqLTV, err := s.activePerpLTV(pos.Denom)
		if err != nil {
			return PerpHFValues{}, err
		}
		params, err := s.perpParams(pos.Denom)
		if err != nil {
			return PerpHFValues{}, err
		}

		// step 1: funding, split into its positive and negative magnitudes
		zero := primitives.ZeroSignedDec()
		fundingMax := pos.AccruedFunding.Max(zero)
		fundingMinRaw, err := zero.CheckedSub(pos.AccruedFunding.Min(zero))
		if err != nil {
			return PerpHFValues{}, wrapArithmetic(err)
		}
		fundingMaxValue, err := fundingMax.CheckedMul(primitives.FromDec(basePrice))
		if err != nil {
			return PerpHFValues{}, wrapArithmetic(err)
		}
		fundingMinValue, err := fundingMinRaw.CheckedMul(primitives.FromDec(basePrice))
		if err != nil {
			return PerpHFValues{}, wrapArithmetic(err)
		}

		// step 2: position values
		positionValueOpenMag, err := pos.Size.Abs.Mul(pos.EntryExecPrice)
		if err != nil {
			return PerpHFValues{}, wrapArithmetic(err)
		}
		positionValueOpen := primitives.FromDec(positionValueOpenMag)

		sizeTimesCurrent, err := pos.Size.CheckedMul(primitives.FromDec(pos.CurrentExecPrice))
		if err != nil {
			return PerpHFValues{}, wrapArithmetic(err)
		}
		positionValueCurrent := primitives.FromDec(sizeTimesCurrent.Abs)

		// steps 4-5-7: accumulate both regimes
		maxNum, maxDen, err := perpNumDen(pos.Size, positionValueOpen, positionValueCurrent,
			fundingMaxValue, fundingMinValue, perpMaxLTV, baseMaxLTV, params.ClosingFeeRate)
		if err != nil {
			return PerpHFValues{}, err
		}
		liqNum, liqDen, err := perpNumDen(pos.Size, positionValueOpen, positionValueCurrent,
			fundingMaxValue, fundingMinValue, perpLiqLTV, baseLiqThreshold, params.ClosingFeeRate)
		if err != nil {
			return PerpHFValues{}, err
		}

		if totals.MaxLTVNumerator, err = totals.MaxLTVNumerator.CheckedAdd(maxNum); err != nil {
			return PerpHFValues{}, wrapArithmetic(err)
		}
		if totals.MaxLTVDenominator, err = totals.MaxLTVDenominator.CheckedAdd(maxDen); err != nil {
			return PerpHFValues{}, wrapArithmetic(err)
		}
		if totals.LiqNumerator, err = totals.LiqNumerator.CheckedAdd(liqNum); err != nil {
			return PerpHFValues{}, wrapArithmetic(err)
		}
		if totals.LiqDenominator, err = totals.LiqDenominator.CheckedAdd(liqDen); err != nil {
			return PerpHFValues{}, wrapArithmetic(err)
		}

		// step 8: fold pnl
		switch pos.UnrealisedPnL.Kind {
		case PnLProfit:
			if totals.Profit, err = totals.Profit.CheckedAdd(pos.UnrealisedPnL.Amount); err != nil {
				return PerpHFValues{}, wrapArithmetic(err)
			}
		case PnLLoss:
			if totals.Loss, err = totals.Loss.CheckedAdd(pos.UnrealisedPnL.Amount); err != nil {
				return PerpHFValues{}, wrapArithmetic(err)
			}
		}
	}

	// final numerators/denominators are floored to integer-scale
	totals.MaxLTVNumerator = totals.MaxLTVNumerator.Floor()
	totals.MaxLTVDenominator = totals.MaxLTVDenominator.Floor()
	totals.LiqNumerator = totals.LiqNumerator.Floor()
	totals.LiqDenominator = totals.LiqDenominator.Floor()

	return totals, nil
}
