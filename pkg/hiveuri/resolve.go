package hiveuri

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/suffix-labs/hive-tx-go/pkg/hiveerr"
	"github.com/suffix-labs/hive-tx-go/pkg/protocol"
	"github.com/suffix-labs/hive-tx-go/pkg/tx"
)

// Resolve turns the request into a transaction ready to sign. signer
// replaces every "__signer" placeholder; props supply the reference block
// and expiration of op/ops requests and of tx headers left as placeholders.
// The request is not modified.
func (r *Request) Resolve(signer string, props tx.TxSignProperties, expire time.Duration) (*protocol.Transaction, error) {
	if signer == "" {
		return nil, hiveerr.Malformed("signer is required")
	}
	if r.Params.Signer != "" && r.Params.Signer != signer {
		return nil, hiveerr.Malformed("request must be signed by %s, not %s", r.Params.Signer, signer)
	}

	var ops []protocol.Operation
	switch r.Kind {
	case KindOp, KindOps:
		ops = r.Operations
	case KindTx:
		if r.Transaction == nil {
			return nil, hiveerr.Malformed("tx request has no transaction")
		}
		ops = r.Transaction.Operations
	default:
		return nil, hiveerr.Malformed("unknown request kind %q", r.Kind)
	}

	resolved := make([]protocol.Operation, len(ops))
	for i, op := range ops {
		params, err := replaceSigner(op.Params, signer)
		if err != nil {
			return nil, errors.Wrapf(err, "operation %d", i)
		}
		resolved[i] = protocol.Operation{Name: op.Name, Params: params}
	}

	if r.Kind != KindTx {
		return tx.From(props, resolved, expire)
	}

	out := r.Transaction.Clone()
	out.Operations = resolved
	if len(r.placeholders) == 0 {
		return &out, nil
	}
	built, err := tx.From(props, resolved, expire)
	if err != nil {
		return nil, err
	}
	if r.placeholders[RefBlockNumPlaceholder] {
		out.RefBlockNum = built.RefBlockNum
	}
	if r.placeholders[RefBlockPrefixPlaceholder] {
		out.RefBlockPrefix = built.RefBlockPrefix
	}
	if r.placeholders[ExpirationPlaceholder] {
		out.Expiration = built.Expiration
	}
	return &out, nil
}

// replaceSigner returns a deep copy of params with the placeholder replaced
// in every string. The copy goes through JSON, so numbers come back as
// json.Number.
func replaceSigner(params map[string]interface{}, signer string) (map[string]interface{}, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, hiveerr.MalformedCause(err, "operation params are not JSON")
	}
	decoded, err := protocol.DecodeParams(raw)
	if err != nil {
		return nil, err
	}
	return replaceIn(decoded, signer).(map[string]interface{}), nil
}

func replaceIn(v interface{}, signer string) interface{} {
	switch t := v.(type) {
	case string:
		return strings.ReplaceAll(t, SignerPlaceholder, signer)
	case map[string]interface{}:
		for k, e := range t {
			t[k] = replaceIn(e, signer)
		}
		return t
	case []interface{}:
		for i, e := range t {
			t[i] = replaceIn(e, signer)
		}
		return t
	}
	return v
}

// ResolveCallback fills the callback template after a transaction was
// signed (and possibly broadcast): {{sig}} is the first signature, {{id}} the
// transaction id, {{block}} the block number it landed in, zero when not
// broadcast.
func (p Params) ResolveCallback(stx *protocol.SignedTransaction, trxID string, block uint32) string {
	sig := ""
	if len(stx.Signatures) > 0 {
		sig = stx.Signatures[0]
	}
	blockNum := ""
	if block > 0 {
		blockNum = strconv.FormatUint(uint64(block), 10)
	}
	return strings.NewReplacer(
		"{{sig}}", url.QueryEscape(sig),
		"{{id}}", url.QueryEscape(trxID),
		"{{block}}", blockNum,
	).Replace(p.Callback)
}
