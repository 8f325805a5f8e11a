package fundme

import (
	"math/big"

	"github.com/nspcc-dev/fundme-contract/contracts/fundme/fundmeconst"
)

// MinimumUSD returns the smallest accepted contribution in USD with
// fundmeconst.USDDecimals precision.
func MinimumUSD() *big.Int {
	return big.NewInt(fundmeconst.MinimumUSD)
}

// ConversionRate returns USD value of the GAS amount the same way FundMe
// contract does: amount * answer / 10^decimals, rounded down.
func ConversionRate(amount, answer *big.Int, decimals uint32) *big.Int {
	res := new(big.Int).Mul(amount, answer)
	return res.Quo(res, pow10(decimals))
}

// MinimumFunding returns the smallest GAS amount accepted by FundMe for the
// given price feed answer. It returns nil for non-positive answers since no
// amount is accepted then.
func MinimumFunding(answer *big.Int, decimals uint32) *big.Int {
	if answer.Sign() <= 0 {
		return nil
	}

	num := new(big.Int).Mul(MinimumUSD(), pow10(decimals))

	q, r := new(big.Int).QuoRem(num, answer, new(big.Int))
	if r.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}

	return q
}

// IsEnough checks whether FundMe accepts amount of GAS for the given price
// feed answer.
func IsEnough(amount, answer *big.Int, decimals uint32) bool {
	if answer.Sign() <= 0 {
		return false
	}

	return ConversionRate(amount, answer, decimals).Cmp(MinimumUSD()) >= 0
}

func pow10(n uint32) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}
