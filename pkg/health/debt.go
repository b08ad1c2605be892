package health

import "github.com/skyline-protocol/health-computer/pkg/primitives"

// debtValue returns ceil(amount * price) for one debt coin.
func (s Snapshot) debtValue(c DebtCoin) (primitives.Uint, error) {
	price, err := s.price(c.Denom)
	if err != nil {
		return primitives.Uint{}, err
	}
	value, err := c.Amount.MulCeil(price)
	if err != nil {
		return primitives.Uint{}, wrapArithmetic(err)
	}
	return value, nil
}

// spotDebtValue sums ceil-rounded debt value across the borrow book. No LTV
// weighting applies to debt.
func (s Snapshot) spotDebtValue(debts []DebtCoin) (primitives.Uint, error) {
	total := primitives.ZeroUint()
	for _, c := range debts {
		value, err := s.debtValue(c)
		if err != nil {
			return primitives.Uint{}, err
		}
		var addErr error
		if total, addErr = total.CheckedAdd(value); addErr != nil {
			return primitives.Uint{}, wrapArithmetic(addErr)
		}
	}
	return total, nil
}
