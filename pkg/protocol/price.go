package protocol

import (
	"github.com/suffix-labs/hive-tx-go/pkg/hiveerr"
)

// Price is an exchange rate between two assets.
type Price struct {
	Base  Asset `json:"base"`
	Quote Asset `json:"quote"`
}

// NewPrice builds a price. Base and quote must differ in symbol and neither
// may be zero.
func NewPrice(base, quote Asset) (Price, error) {
	if base.Symbol == quote.Symbol {
		return Price{}, hiveerr.Malformed("price base and quote share symbol %s", base.Symbol)
	}
	if base.Amount.IsZero() || quote.Amount.IsZero() {
		return Price{}, hiveerr.Malformed("price with zero amount")
	}
	return Price{Base: base, Quote: quote}, nil
}

// Convert converts asset into the other side of the price.
func (p Price) Convert(asset Asset) (Asset, error) {
	switch asset.Symbol {
	case p.Base.Symbol:
		if p.Base.Amount.IsZero() {
			return Asset{}, hiveerr.Malformed("price base is zero")
		}
		amount := asset.Amount.Mul(p.Quote.Amount).Div(p.Base.Amount)
		return NewAsset(amount, p.Quote.Symbol)
	case p.Quote.Symbol:
		if p.Quote.Amount.IsZero() {
			return Asset{}, hiveerr.Malformed("price quote is zero")
		}
		amount := asset.Amount.Mul(p.Base.Amount).Div(p.Quote.Amount)
		return NewAsset(amount, p.Base.Symbol)
	}
	return Asset{}, hiveerr.Malformed("cannot convert %s with price %s/%s", asset, p.Base, p.Quote)
}

// ChainProperties are the witness-voted chain parameters carried by
// witness_update.
type ChainProperties struct {
	AccountCreationFee Asset  `json:"account_creation_fee"`
	MaximumBlockSize   uint32 `json:"maximum_block_size"`
	HBDInterestRate    uint16 `json:"hbd_interest_rate"`
}

// Beneficiary receives weight/10000 of a comment's author reward.
type Beneficiary struct {
	Account string `json:"account"`
	Weight  uint16 `json:"weight"`
}
