package chain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Known asset symbols on the chain.
const (
	SymbolSteem = "STEEM"
	SymbolSBD   = "SBD"
	SymbolVests = "VESTS"
)

// Asset is a monetary amount together with its denomination. Amounts coming
// from the chain are always strings like "1.234 STEEM"; they are never carried
// around as bare numbers.
type Asset struct {
	Amount decimal.Decimal
	Symbol string
}

// NewAsset builds an asset from an amount and symbol.
func NewAsset(amount decimal.Decimal, symbol string) Asset {
	return Asset{Amount: amount, Symbol: symbol}
}

// ParseAsset parses a chain-formatted asset string such as "1.234 STEEM".
// Malformed input is an error; it is never coerced to a zero amount.
func ParseAsset(s string) (Asset, error) {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) != 2 {
		return Asset{}, fmt.Errorf("malformed asset %q: want \"<amount> <symbol>\"", s)
	}

	amount, err := decimal.NewFromString(fields[0])
	if err != nil {
		return Asset{}, fmt.Errorf("malformed asset amount %q: %w", fields[0], err)
	}

	return Asset{Amount: amount, Symbol: fields[1]}, nil
}

// String renders the asset in the chain's "<amount> <symbol>" form. VESTS use
// six decimal places, liquid assets three, matching the chain's precision.
func (a Asset) String() string {
	places := int32(3)
	if a.Symbol == SymbolVests {
		places = 6
	}
	return fmt.Sprintf("%s %s", a.Amount.StringFixed(places), a.Symbol)
}

// IsZero reports whether the amount is exactly zero.
func (a Asset) IsZero() bool {
	return a.Amount.IsZero()
}

// UnmarshalJSON accepts the chain's string encoding.
func (a *Asset) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseAsset(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// MarshalJSON renders the chain's string encoding.
func (a Asset) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}
