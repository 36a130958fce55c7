package money

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Zero is the canonical zero amount.
var Zero = decimal.Zero

// Round2 rounds an amount to two decimal places. Totals are rounded at every
// aggregation boundary, so intermediate roundings are part of the contract and
// must not be deferred to the final sum.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Percent returns pct percent of amount, rounded to two decimals.
func Percent(amount decimal.Decimal, pct decimal.Decimal) decimal.Decimal {
	return Round2(amount.Mul(pct).Div(hundred))
}

// ApplyPercentOff reduces amount by pct percent, rounded to two decimals.
func ApplyPercentOff(amount decimal.Decimal, pct decimal.Decimal) decimal.Decimal {
	return Round2(amount.Sub(amount.Mul(pct).Div(hundred)))
}

// BackOutTax splits a tax-inclusive amount into its base using the given rate
// percentage. The returned base is rounded to two decimals; the tax portion is
// gross minus base.
func BackOutTax(gross decimal.Decimal, ratePct decimal.Decimal) (base, tax decimal.Decimal) {
	divisor := decimal.NewFromInt(1).Add(ratePct.Div(hundred))
	base = Round2(gross.Div(divisor))
	tax = Round2(gross.Sub(base))
	return base, tax
}

// Min returns the smaller of a and b.
func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// ClampNonNegative returns zero when the amount is negative.
func ClampNonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
