package types

// CurrencyRWF is the only currency the marketplace settles in. The franc has
// no minor subunit, so Amount is a whole number of francs.
const CurrencyRWF = "RWF"

// Money is a fixed-point monetary amount. All fare arithmetic stays in
// integer francs; floats never touch money.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// RWF wraps an amount in the marketplace currency.
func RWF(amount int64) Money {
	return Money{Amount: amount, Currency: CurrencyRWF}
}
