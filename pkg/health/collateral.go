package health

import "github.com/skyline-protocol/health-computer/pkg/primitives"

// CollateralTotals holds the three running sums the collateral valuator
// produces: raw worth, and the two LTV-weighted figures used by the health
// aggregator and every max-action estimator.
type CollateralTotals struct {
	TotalValue           primitives.Uint
	MaxLTVAdjusted       primitives.Uint
	LiqThresholdAdjusted primitives.Uint
}

func zeroCollateralTotals() CollateralTotals {
	return CollateralTotals{
		TotalValue:           primitives.ZeroUint(),
		MaxLTVAdjusted:       primitives.ZeroUint(),
		LiqThresholdAdjusted: primitives.ZeroUint(),
	}
}

func (t CollateralTotals) add(other CollateralTotals) (CollateralTotals, error) {
	total, err := t.TotalValue.CheckedAdd(other.TotalValue)
	if err != nil {
		return CollateralTotals{}, wrapArithmetic(err)
	}
	maxAdj, err := t.MaxLTVAdjusted.CheckedAdd(other.MaxLTVAdjusted)
	if err != nil {
		return CollateralTotals{}, wrapArithmetic(err)
	}
	liqAdj, err := t.LiqThresholdAdjusted.CheckedAdd(other.LiqThresholdAdjusted)
	if err != nil {
		return CollateralTotals{}, wrapArithmetic(err)
	}
	return CollateralTotals{TotalValue: total, MaxLTVAdjusted: maxAdj, LiqThresholdAdjusted: liqAdj}, nil
}

// coinValue returns floor(amount * price) for one coin.
func (s Snapshot) coinValue(c Coin) (primitives.Uint, error) {
	price, err := s.price(c.Denom)
	if err != nil {
		return primitives.Uint{}, err
	}
	value, err := c.Amount.MulFloor(price)
	if err != nil {
		return primitives.Uint{}, wrapArithmetic(err)
	}
	return value, nil
}

// coinsValue sums raw and LTV-adjusted value across a list of coins (the
// collateral valuator of spec §4.1, applied to deposits/lends). A de-listed
// asset contributes its full raw value but zero LTV-weighted value
// (invariant 4).
func (s Snapshot) coinsValue(coins []Coin) (CollateralTotals, error) {
	totals := zeroCollateralTotals()
	for _, c := range coins {
		value, err := s.coinValue(c)
		if err != nil {
			return CollateralTotals{}, err
		}
		var addErr error
		if totals.TotalValue, addErr = totals.TotalValue.CheckedAdd(value); addErr != nil {
			return CollateralTotals{}, wrapArithmetic(addErr)
		}

		ap, err := s.assetParams(c.Denom)
		if err != nil {
			return CollateralTotals{}, err
		}
		if !ap.Whitelisted {
			continue
		}
		maxLTV, liqThreshold, err := s.activeLTV(c.Denom, ap)
		if err != nil {
			return CollateralTotals{}, err
		}
		maxAdj, err := value.MulFloor(maxLTV)
		if err != nil {
			return CollateralTotals{}, wrapArithmetic(err)
		}
		liqAdj, err := value.MulFloor(liqThreshold)
		if err != nil {
			return CollateralTotals{}, wrapArithmetic(err)
		}
		if totals.MaxLTVAdjusted, addErr = totals.MaxLTVAdjusted.CheckedAdd(maxAdj); addErr != nil {
			return CollateralTotals{}, wrapArithmetic(addErr)
		}
		if totals.LiqThresholdAdjusted, addErr = totals.LiqThresholdAdjusted.CheckedAdd(liqAdj); addErr != nil {
			return CollateralTotals{}, wrapArithmetic(addErr)
		}
	}
	return totals, nil
}

// vaultsValue values each staked vault position: the vault-coin's reported
// value counts directly toward total_collateral_value, weighted by the
// vault's own LTV table (gated by both the vault's whitelist and the base
// asset's whitelist); the unlocking base-coin amount is folded in as if it
// were a plain deposit of base_denom.
func (s Snapshot) vaultsValue(vaults []VaultPosition) (CollateralTotals, error) {
	totals := zeroCollateralTotals()
	for _, vp := range vaults {
		cfg, err := s.vaultConfig(vp.VaultAddr)
		if err != nil {
			return CollateralTotals{}, err
		}
		values, err := s.vaultValues(vp.VaultAddr)
		if err != nil {
			return CollateralTotals{}, err
		}

		var addErr error
		if totals.TotalValue, addErr = totals.TotalValue.CheckedAdd(values.VaultCoinValue); addErr != nil {
			return CollateralTotals{}, wrapArithmetic(addErr)
		}

		if cfg.Whitelisted {
			baseAP, err := s.assetParams(values.BaseCoin.Denom)
			if err != nil {
				return CollateralTotals{}, err
			}
			if baseAP.Whitelisted {
				maxLTV, liqThreshold, err := s.activeVaultLTV(cfg)
				if err != nil {
					return CollateralTotals{}, err
				}
				maxAdj, err := values.VaultCoinValue.MulFloor(maxLTV)
				if err != nil {
					return CollateralTotals{}, wrapArithmetic(err)
				}
				liqAdj, err := values.VaultCoinValue.MulFloor(liqThreshold)
				if err != nil {
					return CollateralTotals{}, wrapArithmetic(err)
				}
				if totals.MaxLTVAdjusted, addErr = totals.MaxLTVAdjusted.CheckedAdd(maxAdj); addErr != nil {
					return CollateralTotals{}, wrapArithmetic(addErr)
				}
				if totals.LiqThresholdAdjusted, addErr = totals.LiqThresholdAdjusted.CheckedAdd(liqAdj); addErr != nil {
					return CollateralTotals{}, wrapArithmetic(addErr)
				}
			}
		}

		unlockingTotals, err := s.coinsValue([]Coin{values.BaseCoin})
		if err != nil {
			return CollateralTotals{}, err
		}
		totals, err = totals.add(unlockingTotals)
		if err != nil {
			return CollateralTotals{}, err
		}
	}
	return totals, nil
}

// totalCollateralValue is the full collateral valuator: deposits, lends,
// and vault positions combined.
func (s Snapshot) totalCollateralValue() (CollateralTotals, error) {
	deposits, err := s.coinsValue(s.Positions.Deposits)
	if err != nil {
		return CollateralTotals{}, err
	}
	lends, err := s.coinsValue(s.Positions.Lends)
	if err != nil {
		return CollateralTotals{}, err
	}
	vaults, err := s.vaultsValue(s.Positions.Vaults)
	if err != nil {
		return CollateralTotals{}, err
	}
	totals, err := deposits.add(lends)
	if err != nil {
		return CollateralTotals{}, err
	}
	return totals.add(vaults)
}
