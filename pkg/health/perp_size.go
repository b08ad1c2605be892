package health

import (
	"github.com/skyline-protocol/health-computer/pkg/mechanisms"
	"github.com/skyline-protocol/health-computer/pkg/primitives"
)

// accountComposition is the step-7 split of the account's book into the
// base-denom slice (C), and everything else folded into RWA'/Debt', with
// the perp position under consideration excluded from the perp HF terms.
type accountComposition struct {
	C    primitives.Dec
	RWA  primitives.SignedDec
	Debt primitives.SignedDec
}

func (s Snapshot) accountComposition(baseDenom, excludeDenom string) (accountComposition, error) {
	var baseCoins, otherCoins []Coin
	for _, c := range s.Positions.Deposits {
		if c.Denom == baseDenom {
			baseCoins = append(baseCoins, c)
		} else {
			otherCoins = append(otherCoins, c)
		}
	}
	for _, c := range s.Positions.Lends {
		if c.Denom == baseDenom {
			baseCoins = append(baseCoins, c)
		} else {
			otherCoins = append(otherCoins, c)
		}
	}

	baseTotals, err := s.coinsValue(baseCoins)
	if err != nil {
		return accountComposition{}, err
	}
	otherTotals, err := s.coinsValue(otherCoins)
	if err != nil {
		return accountComposition{}, err
	}
	vaultTotals, err := s.vaultsValue(s.Positions.Vaults)
	if err != nil {
		return accountComposition{}, err
	}
	spotDebt, err := s.spotDebtValue(s.Positions.Debts)
	if err != nil {
		return accountComposition{}, err
	}

	var otherPerps []PerpPosition
	for _, p := range s.Positions.Perps {
		if p.Denom != excludeDenom {
			otherPerps = append(otherPerps, p)
		}
	}
	perps, err := s.perpHealthFactorValues(otherPerps)
	if err != nil {
		return accountComposition{}, err
	}

	rwa, err := otherTotals.MaxLTVAdjusted.ToSignedDec().CheckedAdd(vaultTotals.MaxLTVAdjusted.ToSignedDec())
	if err != nil {
		return accountComposition{}, wrapArithmetic(err)
	}
	if rwa, err = rwa.CheckedAdd(perps.MaxLTVNumerator); err != nil {
		return accountComposition{}, wrapArithmetic(err)
	}

	debt, err := spotDebt.ToSignedDec().CheckedAdd(perps.MaxLTVDenominator)
	if err != nil {
		return accountComposition{}, wrapArithmetic(err)
	}

	return accountComposition{C: baseTotals.TotalValue.ToDec(), RWA: rwa, Debt: debt}, nil
}

// saturatingSubDec returns max(0, a-b) as a Dec.
func saturatingSubDec(a, b primitives.Dec) (primitives.Dec, error) {
	diff, err := primitives.FromDec(a).CheckedSub(primitives.FromDec(b))
	if err != nil {
		return primitives.Dec{}, wrapArithmetic(err)
	}
	return diff.Max(primitives.ZeroSignedDec()).Abs, nil
}

// remainingOIQuantityCap is step 1: the remaining open-interest room in the
// requested direction, translated from value terms into a quantity cap via
// the current oracle price. Net open interest is modeled as aggregate
// notional (long value + short value), matching the boundary scenario where
// an already-breached net cap blocks both directions.
func remainingOIQuantityCap(price primitives.Dec, longOI, shortOI primitives.Dec, params PerpParams, direction mechanisms.Direction) (primitives.Dec, error) {
	longValue, err := longOI.Mul(price)
	if err != nil {
		return primitives.Dec{}, wrapArithmetic(err)
	}
	shortValue, err := shortOI.Mul(price)
	if err != nil {
		return primitives.Dec{}, wrapArithmetic(err)
	}
	netValue, err := longValue.CheckedAdd(shortValue)
	if err != nil {
		return primitives.Dec{}, wrapArithmetic(err)
	}

	directionalCap := params.MaxLongOIValue.ToDec()
	directionalValue := longValue
	if direction == mechanisms.Short {
		directionalCap = params.MaxShortOIValue.ToDec()
		directionalValue = shortValue
	}

	roomDirectional, err := saturatingSubDec(directionalCap, directionalValue)
	if err != nil {
		return primitives.Dec{}, err
	}
	roomNet, err := saturatingSubDec(params.MaxNetOIValue.ToDec(), netValue)
	if err != nil {
		return primitives.Dec{}, err
	}
	room := roomDirectional
	if roomNet.LessThan(room) {
		room = roomNet
	}
	if room.IsZero() {
		return primitives.ZeroDec(), nil
	}
	qCap, err := room.Div(price)
	if err != nil {
		return primitives.Dec{}, wrapArithmetic(err)
	}
	return qCap, nil
}

// MaxPerpSizeEstimate computes the signed quantity q_max of new exposure on
// denom, in the given direction, that keeps the account's max-LTV Health
// Factor at exactly 1, per the quadratic derivation of spec §4.6.
func (s Snapshot) MaxPerpSizeEstimate(denom, baseDenom string, longOI, shortOI primitives.Dec, direction mechanisms.Direction) (primitives.SignedDec, error) {
	params, err := s.perpParams(denom)
	if err != nil {
		return primitives.SignedDec{}, err
	}
	state, err := s.denomState(denom)
	if err != nil {
		return primitives.SignedDec{}, err
	}
	price, err := s.price(denom)
	if err != nil {
		return primitives.SignedDec{}, err
	}
	baseAP, err := s.assetParams(baseDenom)
	if err != nil {
		return primitives.SignedDec{}, err
	}
	baseMaxLTV, _, err := s.activeLTV(baseDenom, baseAP)
	if err != nil {
		return primitives.SignedDec{}, err
	}

	qCap, err := remainingOIQuantityCap(price, longOI, shortOI, params, direction)
	if err != nil {
		return primitives.SignedDec{}, err
	}
	if qCap.IsZero() {
		return primitives.ZeroSignedDec(), nil
	}

	skewScale := state.Funding.SkewScale
	k, err := primitives.FromDec(longOI).CheckedSub(primitives.FromDec(shortOI))
	if err != nil {
		return primitives.SignedDec{}, wrapArithmetic(err)
	}

	// step 3: existing position, or the synthetic zero-position defaults.
	qOld := primitives.ZeroSignedDec()
	funding := primitives.ZeroSignedDec()
	entryExec := primitives.ZeroSignedDec()
	if pos, ok := s.Positions.perpPosition(denom); ok {
		qOld = pos.Size
		funding = pos.AccruedFunding
		entryExec = primitives.FromDec(pos.EntryExecPrice)
	} else {
		ratio, err := k.CheckedDiv(primitives.FromDec(skewScale))
		if err != nil {
			return primitives.SignedDec{}, wrapArithmetic(err)
		}
		factor, err := primitives.OneSignedDec().CheckedAdd(ratio)
		if err != nil {
			return primitives.SignedDec{}, wrapArithmetic(err)
		}
		if entryExec, err = factor.CheckedMul(primitives.FromDec(price)); err != nil {
			return primitives.SignedDec{}, wrapArithmetic(err)
		}
	}

	// step 4: execution price p_ex = p * (1 + (k - q_old/2)/S)
	half, err := qOld.CheckedDiv(primitives.NewSignedDecFromInt64(2))
	if err != nil {
		return primitives.SignedDec{}, wrapArithmetic(err)
	}
	kMinusHalfQOld, err := k.CheckedSub(half)
	if err != nil {
		return primitives.SignedDec{}, wrapArithmetic(err)
	}
	execRatio, err := kMinusHalfQOld.CheckedDiv(primitives.FromDec(skewScale))
	if err != nil {
		return primitives.SignedDec{}, wrapArithmetic(err)
	}
	execFactor, err := primitives.OneSignedDec().CheckedAdd(execRatio)
	if err != nil {
		return primitives.SignedDec{}, wrapArithmetic(err)
	}
	pEx, err := execFactor.CheckedMul(primitives.FromDec(price))
	if err != nil {
		return primitives.SignedDec{}, wrapArithmetic(err)
	}

	// step 5: closing-fee value and side indicators
	sameSide := !qOld.IsZero() && (qOld.IsNegative() == (direction == mechanisms.Short))
	oppositeSide := !qOld.IsZero() && !sameSide

	phi, err := pEx.Abs.Mul(params.ClosingFeeRate)
	if err != nil {
		return primitives.SignedDec{}, wrapArithmetic(err)
	}
	phi, err = phi.Mul(qOld.Abs)
	if err != nil {
		return primitives.SignedDec{}, wrapArithmetic(err)
	}

	// step 6: unrealised PnL u = q_old*(p_ex - p_ex_o) + f
	priceDelta, err := pEx.CheckedSub(entryExec)
	if err != nil {
		return primitives.SignedDec{}, wrapArithmetic(err)
	}
	u, err := qOld.CheckedMul(priceDelta)
	if err != nil {
		return primitives.SignedDec{}, wrapArithmetic(err)
	}
	if u, err = u.CheckedAdd(funding); err != nil {
		return primitives.SignedDec{}, wrapArithmetic(err)
	}

	// step 7: account composition
	comp, err := s.accountComposition(baseDenom, denom)
	if err != nil {
		return primitives.SignedDec{}, err
	}

	// step 8: z = perp_max_ltv - closing_fee_rate - opening_fee_rate - 1
	z, err := primitives.FromDec(params.MaxLTV).CheckedSub(primitives.FromDec(params.ClosingFeeRate))
	if err != nil {
		return primitives.SignedDec{}, wrapArithmetic(err)
	}
	if z, err = z.CheckedSub(primitives.FromDec(params.OpeningFeeRate)); err != nil {
		return primitives.SignedDec{}, wrapArithmetic(err)
	}
	if z, err = z.CheckedSub(primitives.OneSignedDec()); err != nil {
		return primitives.SignedDec{}, wrapArithmetic(err)
	}

	// step 9: quadratic coefficients
	zp, err := z.CheckedMul(primitives.FromDec(price))
	if err != nil {
		return primitives.SignedDec{}, wrapArithmetic(err)
	}
	twoSkewScale, err := skewScale.Mul(primitives.NewDecFromInt64(2))
	if err != nil {
		return primitives.SignedDec{}, wrapArithmetic(err)
	}
	a, err := zp.CheckedDiv(primitives.FromDec(twoSkewScale))
	if err != nil {
		return primitives.SignedDec{}, wrapArithmetic(err)
	}
	a, err = a.CheckedMul(primitives.NewSignedDecFromInt64(direction.Sign()))
	if err != nil {
		return primitives.SignedDec{}, wrapArithmetic(err)
	}

	kMinusQOld, err := k.CheckedSub(qOld)
	if err != nil {
		return primitives.SignedDec{}, wrapArithmetic(err)
	}
	bRatio, err := kMinusQOld.CheckedDiv(primitives.FromDec(skewScale))
	if err != nil {
		return primitives.SignedDec{}, wrapArithmetic(err)
	}
	bFactor, err := primitives.OneSignedDec().CheckedAdd(bRatio)
	if err != nil {
		return primitives.SignedDec{}, wrapArithmetic(err)
	}
	b, err := zp.CheckedMul(bFactor)
	if err != nil {
		return primitives.SignedDec{}, wrapArithmetic(err)
	}

	cRaw, err := primitives.FromDec(comp.C).CheckedAdd(u)
	if err != nil {
		return primitives.SignedDec{}, wrapArithmetic(err)
	}
	if oppositeSide {
		if cRaw, err = cRaw.CheckedSub(phi); err != nil {
			return primitives.SignedDec{}, wrapArithmetic(err)
		}
	}
	posPart := cRaw.Max(primitives.ZeroSignedDec())
	negPart := cRaw.Neg().Max(primitives.ZeroSignedDec())
	cDelta, err := posPart.CheckedMul(primitives.FromDec(baseMaxLTV))
	if err != nil {
		return primitives.SignedDec{}, wrapArithmetic(err)
	}
	if cDelta, err = cDelta.CheckedSub(negPart); err != nil {
		return primitives.SignedDec{}, wrapArithmetic(err)
	}

	cAdd := primitives.ZeroSignedDec()
	if sameSide {
		term, err := price.Mul(qOld.Abs)
		if err != nil {
			return primitives.SignedDec{}, wrapArithmetic(err)
		}
		if term, err = term.Mul(params.OpeningFeeRate); err != nil {
			return primitives.SignedDec{}, wrapArithmetic(err)
		}
		ratio, err := kMinusHalfQOld.CheckedDiv(primitives.FromDec(skewScale))
		if err != nil {
			return primitives.SignedDec{}, wrapArithmetic(err)
		}
		factor, err := primitives.OneSignedDec().CheckedAdd(ratio)
		if err != nil {
			return primitives.SignedDec{}, wrapArithmetic(err)
		}
		if cAdd, err = primitives.FromDec(term).CheckedMul(factor); err != nil {
			return primitives.SignedDec{}, wrapArithmetic(err)
		}
	}

	c, err := comp.RWA.CheckedSub(comp.Debt)
	if err != nil {
		return primitives.SignedDec{}, wrapArithmetic(err)
	}
	if c, err = c.CheckedAdd(cDelta); err != nil {
		return primitives.SignedDec{}, wrapArithmetic(err)
	}
	if c, err = c.CheckedAdd(cAdd); err != nil {
		return primitives.SignedDec{}, wrapArithmetic(err)
	}

	// step 10: d = b^2 - 4ac; q = -(b + sqrt|d|) / (2a)
	bSquared, err := b.CheckedMul(b)
	if err != nil {
		return primitives.SignedDec{}, wrapArithmetic(err)
	}
	fourAC, err := a.CheckedMul(c)
	if err != nil {
		return primitives.SignedDec{}, wrapArithmetic(err)
	}
	if fourAC, err = fourAC.CheckedMul(primitives.NewSignedDecFromInt64(4)); err != nil {
		return primitives.SignedDec{}, wrapArithmetic(err)
	}
	d, err := bSquared.CheckedSub(fourAC)
	if err != nil {
		return primitives.SignedDec{}, wrapArithmetic(err)
	}
	sqrtD, err := d.Sqrt()
	if err != nil {
		return primitives.SignedDec{}, wrapArithmetic(err)
	}

	numerator, err := b.CheckedAdd(sqrtD)
	if err != nil {
		return primitives.SignedDec{}, wrapArithmetic(err)
	}
	twoA, err := a.CheckedMul(primitives.NewSignedDecFromInt64(2))
	if err != nil {
		return primitives.SignedDec{}, wrapArithmetic(err)
	}
	q, err := numerator.CheckedDiv(twoA)
	if err != nil {
		return primitives.SignedDec{}, wrapArithmetic(err)
	}
	q = q.Neg()

	if q.Abs.GreaterThan(qCap) {
		q = primitives.SignedDec{Negative: q.Negative, Abs: qCap}
	}
	return q, nil
}
