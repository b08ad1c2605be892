// Package health implements the credit-account health computer: a pure,
// deterministic engine that values collateral and debt, computes the
// Health Factor under two LTV regimes, and inverts that computation to
// bound the maximum size of a withdraw, borrow, swap, or perpetual
// position that keeps an account solvent.
package health

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/skyline-protocol/health-computer/pkg/primitives"
)

// AccountKind selects which LTV / liquidation-threshold table governs an
// account's positions.
type AccountKind int

const (
	// AccountDefault consults each asset's ordinary max_ltv/liq_threshold.
	AccountDefault AccountKind = iota
	// AccountHLS (High-Levered Strategy) consults the stricter hls sub-record.
	AccountHLS
)

// Coin is a denom/amount pair. DebtCoin shares the same shape.
type Coin struct {
	Denom  string
	Amount primitives.Uint
}

// DebtCoin is a borrow-book liability; identical shape to Coin.
type DebtCoin = Coin

// VaultPosition references a staked vault holding by address. The vault's
// coin value and unlocking base-coin amount are looked up in VaultsData,
// not carried on the position itself.
type VaultPosition struct {
	VaultAddr common.Address
}

// HLSParams is the stricter LTV/liquidation-threshold sub-record consulted
// for HLS accounts.
type HLSParams struct {
	MaxLTV       primitives.Dec
	LiqThreshold primitives.Dec
	Correlations []string
}

// AssetParams describes one denom's risk parameters.
type AssetParams struct {
	MaxLTV       primitives.Dec
	LiqThreshold primitives.Dec
	Whitelisted  bool
	HLS          *HLSParams
}

// VaultConfig mirrors AssetParams' shape for a vault, plus its address.
type VaultConfig struct {
	Addr         common.Address
	MaxLTV       primitives.Dec
	LiqThreshold primitives.Dec
	Whitelisted  bool
	HLS          *HLSParams
}

// VaultValues carries the oracle-derived value of a vault position: the
// vault-coin's reported value, and the base-coin amount currently unlocking.
type VaultValues struct {
	VaultCoinValue primitives.Uint
	BaseCoin       Coin
}

// VaultsData indexes vault configuration and values by vault address. Split
// into two maps (rather than one combined struct) because the two pieces of
// data fail independently: a vault may be configured but momentarily have no
// reported values, or vice versa, and the engine must distinguish the two.
type VaultsData struct {
	Configs map[common.Address]VaultConfig
	Values  map[common.Address]VaultValues
}

// PerpParams describes one perp market's risk parameters and OI caps.
type PerpParams struct {
	MaxLTV          primitives.Dec
	LiqThreshold    primitives.Dec
	OpeningFeeRate  primitives.Dec
	ClosingFeeRate  primitives.Dec
	MaxLongOIValue  primitives.Uint
	MaxShortOIValue primitives.Uint
	MaxNetOIValue   primitives.Uint
}

// FundingParams carries the funding-curve constants for a perp market.
type FundingParams struct {
	SkewScale primitives.Dec
}

// DenomState carries the mutable enablement/funding state of a perp market.
type DenomState struct {
	Enabled bool
	Funding FundingParams
}

// PerpsData indexes perp market parameters and state by denom, split for
// the same independent-failure reason as VaultsData.
type PerpsData struct {
	Params      map[string]PerpParams
	DenomStates map[string]DenomState
}

// PnLKind classifies a perp position's unrealised coin-denominated PnL.
type PnLKind int

const (
	// PnLBreakEven indicates neither profit nor loss.
	PnLBreakEven PnLKind = iota
	// PnLProfit indicates an unrealised gain.
	PnLProfit
	// PnLLoss indicates an unrealised loss.
	PnLLoss
)

// PnL is the coin-denominated unrealised profit or loss of a perp position.
type PnL struct {
	Kind   PnLKind
	Amount primitives.Uint
}

// PerpPosition is one open perpetual position.
type PerpPosition struct {
	Denom            string
	BaseDenom        string
	Size             primitives.SignedDec
	EntryPrice       primitives.Dec
	EntryExecPrice   primitives.Dec
	CurrentPrice     primitives.Dec
	CurrentExecPrice primitives.Dec
	ClosingFeeRate   primitives.Dec
	AccruedFunding   primitives.SignedDec
	RealisedPnL      primitives.SignedDec
	UnrealisedPnL    PnL
}

// Positions groups every position kind an account can hold.
type Positions struct {
	Deposits []Coin
	Lends    []Coin
	Vaults   []VaultPosition
	Debts    []DebtCoin
	Perps    []PerpPosition
}

// Snapshot is the immutable input to every health-computer entry point. It
// is constructed fresh for each call, never mutated, and carries no
// ambient state: the engine's output is a pure function of this value.
type Snapshot struct {
	AccountKind  AccountKind
	Positions    Positions
	AssetParams  map[string]AssetParams
	VaultsData   VaultsData
	PerpsData    PerpsData
	OraclePrices map[string]primitives.Dec
}

func (s Snapshot) price(denom string) (primitives.Dec, error) {
	p, ok := s.OraclePrices[denom]
	if !ok {
		return primitives.Dec{}, errMissingPrice(denom)
	}
	return p, nil
}

func (s Snapshot) assetParams(denom string) (AssetParams, error) {
	ap, ok := s.AssetParams[denom]
	if !ok {
		return AssetParams{}, errMissingAssetParams(denom)
	}
	return ap, nil
}

func (s Snapshot) vaultConfig(addr common.Address) (VaultConfig, error) {
	cfg, ok := s.VaultsData.Configs[addr]
	if !ok {
		return VaultConfig{}, errMissingVaultConfig(addr)
	}
	return cfg, nil
}

func (s Snapshot) vaultValues(addr common.Address) (VaultValues, error) {
	v, ok := s.VaultsData.Values[addr]
	if !ok {
		return VaultValues{}, errMissingVaultValues(addr)
	}
	return v, nil
}

func (s Snapshot) perpParams(denom string) (PerpParams, error) {
	p, ok := s.PerpsData.Params[denom]
	if !ok {
		return PerpParams{}, errMissingPerpParams(denom)
	}
	return p, nil
}

func (s Snapshot) denomState(denom string) (DenomState, error) {
	d, ok := s.PerpsData.DenomStates[denom]
	if !ok {
		return DenomState{}, errMissingDenomState(denom)
	}
	return d, nil
}

// activeLTV returns the max-LTV and liquidation-threshold Decimals active
// for denom under the snapshot's account kind, consulting the HLS
// sub-record for HLS accounts (invariant 3) and erroring if it is absent.
// Whitelist gating is the caller's responsibility: this helper only
// resolves which table to read from.
func (s Snapshot) activeLTV(denom string, ap AssetParams) (maxLTV, liqThreshold primitives.Dec, err error) {
	if s.AccountKind == AccountHLS {
		if ap.HLS == nil {
			return primitives.Dec{}, primitives.Dec{}, errMissingHLSParams(denom)
		}
		return ap.HLS.MaxLTV, ap.HLS.LiqThreshold, nil
	}
	return ap.MaxLTV, ap.LiqThreshold, nil
}

func (s Snapshot) activeVaultLTV(cfg VaultConfig) (maxLTV, liqThreshold primitives.Dec, err error) {
	if s.AccountKind == AccountHLS {
		if cfg.HLS == nil {
			return primitives.Dec{}, primitives.Dec{}, errMissingHLSParams(cfg.Addr.Hex())
		}
		return cfg.HLS.MaxLTV, cfg.HLS.LiqThreshold, nil
	}
	return cfg.MaxLTV, cfg.LiqThreshold, nil
}

// depositedAndLent sums the amount of denom held across deposits and lends.
func (p Positions) depositedAndLent(denom string) (primitives.Uint, error) {
	total := primitives.ZeroUint()
	var err error
	for _, c := range p.Deposits {
		if c.Denom == denom {
			if total, err = total.CheckedAdd(c.Amount); err != nil {
				return primitives.Uint{}, wrapArithmetic(err)
			}
		}
	}
	for _, c := range p.Lends {
		if c.Denom == denom {
			if total, err = total.CheckedAdd(c.Amount); err != nil {
				return primitives.Uint{}, wrapArithmetic(err)
			}
		}
	}
	return total, nil
}

// debtAmount sums the amount of denom owed across the debt book.
func (p Positions) debtAmount(denom string) (primitives.Uint, error) {
	total := primitives.ZeroUint()
	var err error
	for _, c := range p.Debts {
		if c.Denom == denom {
			if total, err = total.CheckedAdd(c.Amount); err != nil {
				return primitives.Uint{}, wrapArithmetic(err)
			}
		}
	}
	return total, nil
}

// perpPosition returns the existing position on denom, if any.
func (p Positions) perpPosition(denom string) (PerpPosition, bool) {
	for _, pos := range p.Perps {
		if pos.Denom == denom {
			return pos, true
		}
	}
	return PerpPosition{}, false
}
