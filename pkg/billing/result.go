package billing

import "github.com/shopspring/decimal"

// RoundAmount normalizes a monetary amount to two decimal places using
// banker's rounding (round half to even). Applying it twice is a no-op.
func RoundAmount(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(2)
}

// Result is the outcome of one provider's bill query: either a rounded
// monetary amount or a failure cause. Exactly one is produced per provider
// per run.
type Result struct {
	Amount decimal.Decimal
	Err    error
}

// Success wraps a queried total, rounding it to two decimal places.
func Success(amount decimal.Decimal) Result {
	return Result{Amount: RoundAmount(amount)}
}

// Failure records why a provider's bill could not be determined.
func Failure(err error) Result {
	return Result{Err: err}
}

// Failed reports whether the provider query produced no amount.
func (r Result) Failed() bool { return r.Err != nil }
