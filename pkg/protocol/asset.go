// Package protocol holds the chain's value types: assets, prices,
// authorities, operations and transactions, together with their JSON forms.
//
// The binary wire encoding of these types lives in package serializer.
package protocol

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/suffix-labs/hive-tx-go/pkg/hiveerr"
)

// Symbol is an asset symbol.
type Symbol string

// Known asset symbols. STEEM, SBD, TESTS and TBD are legacy or testnet names
// still accepted on input.
const (
	HIVE  Symbol = "HIVE"
	HBD   Symbol = "HBD"
	VESTS Symbol = "VESTS"
	STEEM Symbol = "STEEM"
	SBD   Symbol = "SBD"
	TESTS Symbol = "TESTS"
	TBD   Symbol = "TBD"
)

// Asset numbers written by the NAI binary encoding.
const (
	AssetNumHBD   uint32 = 3200000003
	AssetNumHIVE  uint32 = 3200000035
	AssetNumVESTS uint32 = 3200000070
)

var symbols = map[Symbol]bool{
	HIVE: true, HBD: true, VESTS: true, STEEM: true, SBD: true, TESTS: true, TBD: true,
}

// Valid reports whether s is a known symbol.
func (s Symbol) Valid() bool {
	return symbols[s]
}

// Precision is the number of decimal places of s: 6 for VESTS, 3 otherwise.
func (s Symbol) Precision() int32 {
	if s == VESTS {
		return 6
	}
	return 3
}

// LegacyName is the symbol written by the legacy binary encoding, which still
// uses the pre-fork names.
func (s Symbol) LegacyName() string {
	switch s {
	case HIVE:
		return string(STEEM)
	case HBD:
		return string(SBD)
	}
	return string(s)
}

// AssetNum returns the NAI asset number of s.
func (s Symbol) AssetNum() (uint32, bool) {
	switch s {
	case HIVE, STEEM, TESTS:
		return AssetNumHIVE, true
	case HBD, SBD, TBD:
		return AssetNumHBD, true
	case VESTS:
		return AssetNumVESTS, true
	}
	return 0, false
}

// NAI returns the "@@000000021" style identifier of s.
func (s Symbol) NAI() (string, bool) {
	switch s {
	case HIVE, STEEM, TESTS:
		return "@@000000021", true
	case HBD, SBD, TBD:
		return "@@000000013", true
	case VESTS:
		return "@@000000037", true
	}
	return "", false
}

// SymbolFromNAI maps a NAI identifier back to its symbol.
func SymbolFromNAI(nai string) (Symbol, bool) {
	switch nai {
	case "@@000000013":
		return HBD, true
	case "@@000000021":
		return HIVE, true
	case "@@000000037":
		return VESTS, true
	}
	return "", false
}

// Asset is an amount of a symbol. The amount is kept as an exact decimal
// rounded to the symbol's precision.
type Asset struct {
	Amount decimal.Decimal
	Symbol Symbol
}

// NewAsset rounds amount to the precision of symbol.
func NewAsset(amount decimal.Decimal, symbol Symbol) (Asset, error) {
	if !symbol.Valid() {
		return Asset{}, hiveerr.Malformed("invalid asset symbol %q", symbol)
	}
	return Asset{Amount: amount.Round(symbol.Precision()), Symbol: symbol}, nil
}

// AssetFromFloat builds an asset from a float amount. NaN and infinities are
// rejected.
func AssetFromFloat(amount float64, symbol Symbol) (Asset, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return Asset{}, hiveerr.Malformed("invalid asset amount %v", amount)
	}
	return NewAsset(decimal.NewFromFloat(amount), symbol)
}

// ParseAsset parses "1.000 HIVE". When expected is given, the symbol must
// match it.
func ParseAsset(s string, expected ...Symbol) (Asset, error) {
	parts := strings.Split(strings.TrimSpace(s), " ")
	if len(parts) != 2 {
		return Asset{}, hiveerr.Malformed("invalid asset %q", s)
	}
	symbol := Symbol(parts[1])
	if !symbol.Valid() {
		return Asset{}, hiveerr.Malformed("invalid asset symbol %q", parts[1])
	}
	if len(expected) > 0 && expected[0] != "" && symbol != expected[0] {
		return Asset{}, hiveerr.Malformed("invalid asset, expected symbol %s got %s", expected[0], symbol)
	}
	amount, err := decimal.NewFromString(parts[0])
	if err != nil {
		return Asset{}, hiveerr.MalformedCause(err, "invalid asset amount %q", parts[0])
	}
	return NewAsset(amount, symbol)
}

// MustParseAsset is ParseAsset for constants known to be valid.
func MustParseAsset(s string) Asset {
	a, err := ParseAsset(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Precision returns the precision of the asset's symbol.
func (a Asset) Precision() int32 {
	return a.Symbol.Precision()
}

// String renders the amount with exactly Precision decimals.
func (a Asset) String() string {
	return a.Amount.StringFixed(a.Precision()) + " " + string(a.Symbol)
}

// Satoshis returns the amount in the smallest unit. Amounts outside int64
// are OUT_OF_RANGE.
func (a Asset) Satoshis() (int64, error) {
	scaled := a.Amount.Shift(a.Precision()).Round(0)
	if scaled.GreaterThan(decimal.NewFromInt(math.MaxInt64)) || scaled.LessThan(decimal.NewFromInt(math.MinInt64)) {
		return 0, hiveerr.OutOfRange("asset amount %s overflows int64", a)
	}
	return scaled.IntPart(), nil
}

func (a Asset) sameSymbol(op string, b Asset) error {
	if a.Symbol != b.Symbol {
		return hiveerr.Malformed("cannot %s %s and %s", op, a.Symbol, b.Symbol)
	}
	return nil
}

// Add returns a + b. Both must share a symbol.
func (a Asset) Add(b Asset) (Asset, error) {
	if err := a.sameSymbol("add", b); err != nil {
		return Asset{}, err
	}
	return NewAsset(a.Amount.Add(b.Amount), a.Symbol)
}

// Sub returns a - b. Both must share a symbol.
func (a Asset) Sub(b Asset) (Asset, error) {
	if err := a.sameSymbol("subtract", b); err != nil {
		return Asset{}, err
	}
	return NewAsset(a.Amount.Sub(b.Amount), a.Symbol)
}

// Mul scales the asset by factor.
func (a Asset) Mul(factor decimal.Decimal) Asset {
	return Asset{Amount: a.Amount.Mul(factor).Round(a.Precision()), Symbol: a.Symbol}
}

// Div divides the asset by divisor.
func (a Asset) Div(divisor decimal.Decimal) (Asset, error) {
	if divisor.IsZero() {
		return Asset{}, hiveerr.Malformed("division by zero")
	}
	return Asset{Amount: a.Amount.DivRound(divisor, a.Precision()), Symbol: a.Symbol}, nil
}

// Neg returns the asset with its sign flipped.
func (a Asset) Neg() Asset {
	return Asset{Amount: a.Amount.Neg(), Symbol: a.Symbol}
}

// Cmp compares two assets of the same symbol.
func (a Asset) Cmp(b Asset) (int, error) {
	if err := a.sameSymbol("compare", b); err != nil {
		return 0, err
	}
	return a.Amount.Cmp(b.Amount), nil
}

// Equal reports whether a and b have the same symbol and amount.
func (a Asset) Equal(b Asset) bool {
	return a.Symbol == b.Symbol && a.Amount.Equal(b.Amount)
}

// Steem returns the asset renamed to its pre-fork symbol.
func (a Asset) Steem() Asset {
	return Asset{Amount: a.Amount, Symbol: Symbol(a.Symbol.LegacyName())}
}

// nai is the object form used by the NAI JSON encoding.
type nai struct {
	Amount    string `json:"amount"`
	Precision int32  `json:"precision"`
	NAI       string `json:"nai"`
}

// MarshalJSON renders the asset as its string form.
func (a Asset) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts either "1.000 HIVE" or the NAI object
// {"amount":"1000","precision":3,"nai":"@@000000021"}.
func (a *Asset) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := ParseAsset(s)
		if err != nil {
			return err
		}
		*a = parsed
		return nil
	}
	var obj nai
	if err := json.Unmarshal(data, &obj); err != nil {
		return hiveerr.MalformedCause(err, "invalid asset")
	}
	parsed, err := AssetFromNAI(obj.Amount, obj.Precision, obj.NAI)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// AssetFromNAI decodes the NAI object form.
func AssetFromNAI(amount string, precision int32, naiID string) (Asset, error) {
	symbol, ok := SymbolFromNAI(naiID)
	if !ok {
		return Asset{}, hiveerr.Malformed("unknown nai %q", naiID)
	}
	if precision != symbol.Precision() {
		return Asset{}, hiveerr.Malformed("nai %s has precision %d, got %d", naiID, symbol.Precision(), precision)
	}
	units, err := strconv.ParseInt(amount, 10, 64)
	if err != nil {
		return Asset{}, hiveerr.MalformedCause(err, "invalid nai amount %q", amount)
	}
	return Asset{Amount: decimal.New(units, -precision), Symbol: symbol}, nil
}

// NAIObject returns the NAI object form of the asset.
func (a Asset) NAIObject() (map[string]interface{}, error) {
	id, ok := a.Symbol.NAI()
	if !ok {
		return nil, hiveerr.Malformed("symbol %s has no nai", a.Symbol)
	}
	units, err := a.Satoshis()
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"amount":    strconv.FormatInt(units, 10),
		"precision": a.Precision(),
		"nai":       id,
	}, nil
}
