package tx

import (
	"fmt"

	"github.com/suffix-labs/hive-tx-go/pkg/hiveerr"
	"github.com/suffix-labs/hive-tx-go/pkg/protocol"
)

// Combiner merges signatures collected separately for one transaction, e.g.
// by the holders of a multisig authority signing in parallel.
type Combiner struct {
	signer *Signer
}

// NewCombiner creates a Combiner that identifies transactions with signer's
// serializer.
func NewCombiner(signer *Signer) *Combiner {
	if signer == nil {
		signer = NewSigner(MainnetChainID)
	}
	return &Combiner{signer: signer}
}

// Combine merges the signatures of stxs into a new SignedTransaction. All
// inputs must have the same transaction id. Signatures keep first-seen order
// and duplicates are dropped.
func (c *Combiner) Combine(stxs ...*protocol.SignedTransaction) (*protocol.SignedTransaction, error) {
	if len(stxs) == 0 {
		return nil, hiveerr.Malformed("no transactions to combine")
	}

	base := stxs[0].Clone()
	baseID, err := c.signer.TrxID(&base.Transaction)
	if err != nil {
		return nil, fmt.Errorf("failed to identify transaction 0: %w", err)
	}

	seen := make(map[string]bool, len(base.Signatures))
	merged := make([]string, 0, len(base.Signatures))
	add := func(sigs []string) {
		for _, sig := range sigs {
			if !seen[sig] {
				seen[sig] = true
				merged = append(merged, sig)
			}
		}
	}
	add(base.Signatures)

	for i := 1; i < len(stxs); i++ {
		id, err := c.signer.TrxID(&stxs[i].Transaction)
		if err != nil {
			return nil, fmt.Errorf("failed to identify transaction %d: %w", i, err)
		}
		if id != baseID {
			return nil, hiveerr.Malformed("transaction %d has id %s, expected %s", i, id, baseID)
		}
		add(stxs[i].Signatures)
	}

	base.Signatures = merged
	return &base, nil
}

// Combine merges signatures using the legacy asset encoding.
func Combine(stxs ...*protocol.SignedTransaction) (*protocol.SignedTransaction, error) {
	return NewCombiner(nil).Combine(stxs...)
}
