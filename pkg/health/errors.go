package health

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/skyline-protocol/health-computer/pkg/primitives"
)

// ErrorKind classifies a health-computer failure: either a referential
// integrity violation in the snapshot, a checked-arithmetic failure, or a
// bad inbound decimal string.
type ErrorKind int

const (
	MissingPrice ErrorKind = iota
	MissingAssetParams
	MissingHLSParams
	MissingVaultConfig
	MissingVaultValues
	MissingDenomState
	MissingPerpParams
	MissingAmount
	ArithmeticOverflow
	ArithmeticUnderflow
	ArithmeticDivideByZero
	ArithmeticNegativeSqrt
	Conversion
)

func (k ErrorKind) String() string {
	switch k {
	case MissingPrice:
		return "missing price"
	case MissingAssetParams:
		return "missing asset params"
	case MissingHLSParams:
		return "missing hls params"
	case MissingVaultConfig:
		return "missing vault config"
	case MissingVaultValues:
		return "missing vault values"
	case MissingDenomState:
		return "missing denom state"
	case MissingPerpParams:
		return "missing perp params"
	case MissingAmount:
		return "missing amount"
	case ArithmeticOverflow:
		return "arithmetic overflow"
	case ArithmeticUnderflow:
		return "arithmetic underflow"
	case ArithmeticDivideByZero:
		return "arithmetic divide by zero"
	case ArithmeticNegativeSqrt:
		return "arithmetic negative sqrt"
	case Conversion:
		return "conversion"
	default:
		return "unknown"
	}
}

// Error is the single error type returned from every health-computer entry
// point. It is never panicked or logged internally.
type Error struct {
	Kind  ErrorKind
	Denom string
	Addr  common.Address
	Op    string
}

func (e *Error) Error() string {
	switch {
	case e.Denom != "":
		return fmt.Sprintf("health: %s: %s", e.Kind, e.Denom)
	case e.Addr != (common.Address{}):
		return fmt.Sprintf("health: %s: %s", e.Kind, e.Addr.Hex())
	case e.Op != "":
		return fmt.Sprintf("health: %s: %s", e.Kind, e.Op)
	default:
		return fmt.Sprintf("health: %s", e.Kind)
	}
}

func errMissingPrice(denom string) error         { return &Error{Kind: MissingPrice, Denom: denom} }
func errMissingAssetParams(denom string) error   { return &Error{Kind: MissingAssetParams, Denom: denom} }
func errMissingHLSParams(denom string) error     { return &Error{Kind: MissingHLSParams, Denom: denom} }
func errMissingVaultConfig(a common.Address) error { return &Error{Kind: MissingVaultConfig, Addr: a} }
func errMissingVaultValues(a common.Address) error { return &Error{Kind: MissingVaultValues, Addr: a} }
func errMissingDenomState(denom string) error    { return &Error{Kind: MissingDenomState, Denom: denom} }
func errMissingPerpParams(denom string) error    { return &Error{Kind: MissingPerpParams, Denom: denom} }
func errMissingAmount(denom string) error        { return &Error{Kind: MissingAmount, Denom: denom} }

// wrapArithmetic translates a primitives.ArithmeticError into the
// package's own Error type, preserving the failure kind. Any other error
// (including a health.Error produced upstream) passes through unchanged.
func wrapArithmetic(err error) error {
	var ae *primitives.ArithmeticError
	if errors.As(err, &ae) {
		switch ae.Kind {
		case primitives.Overflow:
			return &Error{Kind: ArithmeticOverflow}
		case primitives.Underflow:
			return &Error{Kind: ArithmeticUnderflow}
		case primitives.DivideByZero:
			return &Error{Kind: ArithmeticDivideByZero}
		case primitives.NegativeSqrt:
			return &Error{Kind: ArithmeticNegativeSqrt}
		}
	}
	if errors.Is(err, primitives.ErrInvalidDecimal) {
		return &Error{Kind: Conversion}
	}
	return err
}
