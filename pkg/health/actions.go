package health

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/skyline-protocol/health-computer/pkg/primitives"
)

// SwapKind distinguishes a plain balance-for-balance swap from a Margin
// swap, which may additionally borrow against the resulting position.
type SwapKind int

const (
	SwapDefault SwapKind = iota
	SwapMargin
)

// BorrowTargetKind selects which max-borrow formula applies.
type BorrowTargetKind int

const (
	// BorrowToWallet borrows without depositing; collateral does not grow.
	BorrowToWallet BorrowTargetKind = iota
	// BorrowToDeposit borrows and immediately deposits the proceeds.
	BorrowToDeposit
	// BorrowToVault borrows and stakes the proceeds into a vault.
	BorrowToVault
	// BorrowToSwap borrows and swaps the proceeds into another denom.
	BorrowToSwap
)

// BorrowTarget names what happens to borrowed funds, per spec §4.5.
type BorrowTarget struct {
	Kind      BorrowTargetKind
	VaultAddr common.Address // BorrowToVault only
	SwapDenom string         // BorrowToSwap only
	Slippage  primitives.Dec // BorrowToSwap only
}

// maxLTVState captures the four running totals every max-action estimator
// rearranges, plus the current Health Factor used for the HF<=1 guard.
type maxLTVState struct {
	rwaMax   primitives.SignedDec
	spotDebt primitives.SignedDec
	perpNum  primitives.SignedDec
	perpDen  primitives.SignedDec
	hf       *primitives.Dec
}

// coinMaxLTV resolves denom's active max-LTV, dropped to zero when the
// asset is de-listed (invariant 4) — mirroring the original's
// `get_coin_max_ltv`, which every max-swap/max-borrow-to-swap lookup must
// go through instead of the raw table selector `activeLTV`.
func (s Snapshot) coinMaxLTV(denom string) (primitives.Dec, error) {
	ap, err := s.assetParams(denom)
	if err != nil {
		return primitives.Dec{}, err
	}
	if !ap.Whitelisted {
		return primitives.ZeroDec(), nil
	}
	maxLTV, _, err := s.activeLTV(denom, ap)
	if err != nil {
		return primitives.Dec{}, err
	}
	return maxLTV, nil
}

func (s Snapshot) currentMaxLTVState() (maxLTVState, error) {
	collateral, err := s.totalCollateralValue()
	if err != nil {
		return maxLTVState{}, err
	}
	spotDebt, err := s.spotDebtValue(s.Positions.Debts)
	if err != nil {
		return maxLTVState{}, err
	}
	perps, err := s.perpHealthFactorValues(s.Positions.Perps)
	if err != nil {
		return maxLTVState{}, err
	}

	st := maxLTVState{
		rwaMax:   collateral.MaxLTVAdjusted.ToSignedDec(),
		spotDebt: spotDebt.ToSignedDec(),
		perpNum:  perps.MaxLTVNumerator,
		perpDen:  perps.MaxLTVDenominator,
	}

	if !spotDebt.IsZero() || len(s.Positions.Perps) > 0 {
		hf, err := combinedHealthFactor(collateral.MaxLTVAdjusted, spotDebt, perps.MaxLTVNumerator, perps.MaxLTVDenominator)
		if err != nil {
			return maxLTVState{}, err
		}
		st.hf = &hf
	}
	return st, nil
}

// insolvent reports whether the account's current max-LTV Health Factor is
// at or below 1 (a debt-bearing or perp-bearing account only: a debt-free,
// perp-free account has no Health Factor and is never insolvent by this
// check).
func (st maxLTVState) insolvent() bool {
	return st.hf != nil && st.hf.LessThanOrEqual(primitives.OneDec())
}

// roundedHeadroom computes RWA_max - spot_debt - perp_den + perp_num - 1,
// the rounding-adjusted numerator shared by every max-action estimator's
// closed-form rearrangement. A result that would go negative is reported as
// zero instead (the action is simply unavailable).
func roundedHeadroom(st maxLTVState) (primitives.SignedDec, error) {
	v, err := st.rwaMax.CheckedSub(st.spotDebt)
	if err != nil {
		return primitives.SignedDec{}, wrapArithmetic(err)
	}
	if v, err = v.CheckedSub(st.perpDen); err != nil {
		return primitives.SignedDec{}, wrapArithmetic(err)
	}
	if v, err = v.CheckedAdd(st.perpNum); err != nil {
		return primitives.SignedDec{}, wrapArithmetic(err)
	}
	if v, err = v.CheckedSub(primitives.OneSignedDec()); err != nil {
		return primitives.SignedDec{}, wrapArithmetic(err)
	}
	if v.IsNegative() {
		return primitives.ZeroSignedDec(), nil
	}
	return v, nil
}

// MaxWithdrawEstimate bounds how much of denom w can be withdrawn (from
// deposits and lends combined) while keeping the account's max-LTV Health
// Factor at or above 1.
func (s Snapshot) MaxWithdrawEstimate(w string) (primitives.Uint, error) {
	available, err := s.Positions.depositedAndLent(w)
	if err != nil {
		return primitives.Uint{}, err
	}

	ap, err := s.assetParams(w)
	if err != nil {
		return primitives.Uint{}, err
	}
	if !ap.Whitelisted {
		return available, nil
	}

	hasDebtOrPerp := len(s.Positions.Debts) > 0 || len(s.Positions.Perps) > 0
	if !hasDebtOrPerp {
		return available, nil
	}

	st, err := s.currentMaxLTVState()
	if err != nil {
		return primitives.Uint{}, err
	}
	if st.insolvent() {
		return primitives.ZeroUint(), nil
	}

	headroom, err := roundedHeadroom(st)
	if err != nil {
		return primitives.Uint{}, err
	}
	if headroom.IsZero() {
		return primitives.ZeroUint(), nil
	}

	price, err := s.price(w)
	if err != nil {
		return primitives.Uint{}, err
	}
	maxLTV, _, err := s.activeLTV(w, ap)
	if err != nil {
		return primitives.Uint{}, err
	}
	weightedPrice, err := price.Mul(maxLTV)
	if err != nil {
		return primitives.Uint{}, wrapArithmetic(err)
	}
	if weightedPrice.IsZero() {
		return available, nil
	}
	amount, err := headroom.Abs.Div(weightedPrice)
	if err != nil {
		return primitives.Uint{}, wrapArithmetic(err)
	}
	return amount.ToUint().Min(available), nil
}

// MaxSwapEstimate bounds how much of denom f can be swapped to denom t at
// the given slippage while keeping the max-LTV Health Factor at or above 1.
// Under SwapMargin, if the full balance is already swappable the estimator
// additionally returns how much more may be borrowed against the resulting
// position.
func (s Snapshot) MaxSwapEstimate(f, t string, slippage primitives.Dec, kind SwapKind) (primitives.Uint, error) {
	balance, err := s.Positions.depositedAndLent(f)
	if err != nil {
		return primitives.Uint{}, err
	}

	fromLTV, err := s.coinMaxLTV(f)
	if err != nil {
		return primitives.Uint{}, err
	}
	toLTV, err := s.coinMaxLTV(t)
	if err != nil {
		return primitives.Uint{}, err
	}
	// De-listed assets on either side of the swap are never swappable.
	if fromLTV.IsZero() || toLTV.IsZero() {
		return primitives.ZeroUint(), nil
	}
	slippageComplement, err := primitives.OneDec().CheckedSub(slippage)
	if err != nil {
		return primitives.Uint{}, wrapArithmetic(err)
	}
	toLTVPrime, err := toLTV.Mul(slippageComplement)
	if err != nil {
		return primitives.Uint{}, wrapArithmetic(err)
	}

	if toLTVPrime.GreaterThanOrEqual(fromLTV) {
		if kind == SwapDefault {
			return balance, nil
		}
		borrow, err := s.maxSwapMarginBorrow(balance, f, toLTV, fromLTV, toLTVPrime)
		if err != nil {
			return primitives.Uint{}, err
		}
		total, err := balance.CheckedAdd(borrow)
		if err != nil {
			return primitives.Uint{}, wrapArithmetic(err)
		}
		return total, nil
	}

	st, err := s.currentMaxLTVState()
	if err != nil {
		return primitives.Uint{}, err
	}
	if st.insolvent() {
		return primitives.ZeroUint(), nil
	}
	headroom, err := roundedHeadroom(st)
	if err != nil {
		return primitives.Uint{}, err
	}

	fromPrice, err := s.price(f)
	if err != nil {
		return primitives.Uint{}, err
	}
	ltvSpread, err := fromLTV.CheckedSub(toLTVPrime)
	if err != nil {
		return primitives.Uint{}, wrapArithmetic(err)
	}
	denomPrice, err := fromPrice.Mul(ltvSpread)
	if err != nil {
		return primitives.Uint{}, wrapArithmetic(err)
	}
	if denomPrice.IsZero() || headroom.IsZero() {
		return primitives.ZeroUint(), nil
	}
	swappable, err := headroom.Abs.Div(denomPrice)
	if err != nil {
		return primitives.Uint{}, wrapArithmetic(err)
	}
	swappableAmount := swappable.ToUint().Min(balance)

	if kind == SwapDefault || swappableAmount.LessThan(balance) {
		return swappableAmount, nil
	}
	borrow, err := s.maxSwapMarginBorrow(balance, f, toLTV, fromLTV, toLTVPrime)
	if err != nil {
		return primitives.Uint{}, err
	}
	total, err := swappableAmount.CheckedAdd(borrow)
	if err != nil {
		return primitives.Uint{}, wrapArithmetic(err)
	}
	return total, nil
}

// maxSwapMarginBorrow implements the additional Margin-kind borrow once the
// full balance is already swappable: RWA' = RWA_max + balance*price(f)*(to_ltv-from_ltv),
// borrow = (RWA' - spot_debt - perp_den + perp_num - 1) / (price(f)*(1-to_ltv')).
func (s Snapshot) maxSwapMarginBorrow(balance primitives.Uint, f string, toLTV, fromLTV, toLTVPrime primitives.Dec) (primitives.Uint, error) {
	st, err := s.currentMaxLTVState()
	if err != nil {
		return primitives.Uint{}, err
	}
	if st.insolvent() {
		return primitives.ZeroUint(), nil
	}

	fromPrice, err := s.price(f)
	if err != nil {
		return primitives.Uint{}, err
	}
	ltvGain, err := primitives.FromDec(toLTV).CheckedSub(primitives.FromDec(fromLTV))
	if err != nil {
		return primitives.Uint{}, wrapArithmetic(err)
	}
	balanceValue, err := balance.MulFloor(fromPrice)
	if err != nil {
		return primitives.Uint{}, wrapArithmetic(err)
	}
	gain, err := balanceValue.ToSignedDec().CheckedMul(ltvGain)
	if err != nil {
		return primitives.Uint{}, wrapArithmetic(err)
	}
	st.rwaMax, err = st.rwaMax.CheckedAdd(gain)
	if err != nil {
		return primitives.Uint{}, wrapArithmetic(err)
	}

	headroom, err := roundedHeadroom(st)
	if err != nil {
		return primitives.Uint{}, err
	}
	complement, err := primitives.OneDec().CheckedSub(toLTVPrime)
	if err != nil {
		return primitives.Uint{}, wrapArithmetic(err)
	}
	denomPrice, err := fromPrice.Mul(complement)
	if err != nil {
		return primitives.Uint{}, wrapArithmetic(err)
	}
	if denomPrice.IsZero() || headroom.IsZero() {
		return primitives.ZeroUint(), nil
	}
	amount, err := headroom.Abs.Div(denomPrice)
	if err != nil {
		return primitives.Uint{}, wrapArithmetic(err)
	}
	return amount.ToUint(), nil
}

// MaxBorrowEstimate bounds how much of denom b can be borrowed toward the
// given target while keeping the max-LTV Health Factor at or above 1.
func (s Snapshot) MaxBorrowEstimate(b string, target BorrowTarget) (primitives.Uint, error) {
	ap, err := s.assetParams(b)
	if err != nil {
		return primitives.Uint{}, err
	}
	if !ap.Whitelisted {
		return primitives.ZeroUint(), nil
	}

	st, err := s.currentMaxLTVState()
	if err != nil {
		return primitives.Uint{}, err
	}
	if st.rwaMax.IsZero() {
		return primitives.ZeroUint(), nil
	}
	if st.insolvent() {
		return primitives.ZeroUint(), nil
	}

	headroom, err := roundedHeadroom(st)
	if err != nil {
		return primitives.Uint{}, err
	}
	if headroom.IsZero() {
		return primitives.ZeroUint(), nil
	}

	price, err := s.price(b)
	if err != nil {
		return primitives.Uint{}, err
	}

	if target.Kind == BorrowToWallet {
		amount, err := headroom.Abs.Div(price)
		if err != nil {
			return primitives.Uint{}, wrapArithmetic(err)
		}
		return amount.ToUint(), nil
	}

	var borrowLTV primitives.Dec
	switch target.Kind {
	case BorrowToDeposit:
		borrowLTV, _, err = s.activeLTV(b, ap)
		if err != nil {
			return primitives.Uint{}, err
		}
	case BorrowToVault:
		cfg, cfgErr := s.vaultConfig(target.VaultAddr)
		if cfgErr != nil {
			borrowLTV = primitives.ZeroDec() // unconfigured vault: zero LTV credit
		} else if !cfg.Whitelisted {
			borrowLTV = primitives.ZeroDec() // de-listed vault: zero LTV credit
		} else {
			borrowLTV, _, err = s.activeVaultLTV(cfg)
			if err != nil {
				return primitives.Uint{}, err
			}
		}
	case BorrowToSwap:
		outLTV, ltvErr := s.coinMaxLTV(target.SwapDenom)
		if ltvErr != nil {
			return primitives.Uint{}, ltvErr
		}
		complement, cErr := primitives.OneDec().CheckedSub(target.Slippage)
		if cErr != nil {
			return primitives.Uint{}, wrapArithmetic(cErr)
		}
		borrowLTV, err = outLTV.Mul(complement)
		if err != nil {
			return primitives.Uint{}, wrapArithmetic(err)
		}
	}

	complement, err := primitives.OneDec().CheckedSub(borrowLTV)
	if err != nil {
		return primitives.Uint{}, wrapArithmetic(err)
	}
	denomPrice, err := price.Mul(complement)
	if err != nil {
		return primitives.Uint{}, wrapArithmetic(err)
	}
	if denomPrice.IsZero() {
		return primitives.ZeroUint(), nil
	}
	amount, err := headroom.Abs.Div(denomPrice)
	if err != nil {
		return primitives.Uint{}, wrapArithmetic(err)
	}
	return amount.ToUint(), nil
}
