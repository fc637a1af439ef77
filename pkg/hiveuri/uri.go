// Package hiveuri implements signing request URIs.
//
// A signing request asks a wallet to sign (and usually broadcast) one
// operation, a list of operations, or a whole transaction:
//
//	hive://sign/op/<b64u(["vote", {...}])>
//	hive://sign/ops/<b64u([["vote", {...}], ...])>
//	hive://sign/tx/<b64u({"ref_block_num": ..., "operations": [...]})>
//
// Query parameters:
//   - cb: base64url callback URL the wallet redirects to after signing
//   - nb: present when the wallet must not broadcast
//   - a: authority to sign with (owner, active, posting)
//   - s: account expected to sign
//
// The payload is base64url JSON without padding. Strings equal to "__signer"
// are placeholders for the signing account; transaction payloads may use
// "__ref_block_num", "__ref_block_prefix" and "__expiration" in the header.
package hiveuri

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/suffix-labs/hive-tx-go/pkg/hiveerr"
	"github.com/suffix-labs/hive-tx-go/pkg/protocol"
)

// Scheme is the URI scheme of signing requests.
const Scheme = "hive"

// SignerPlaceholder is replaced by the signing account on Resolve.
const SignerPlaceholder = "__signer"

// Header placeholders in transaction payloads.
const (
	RefBlockNumPlaceholder    = "__ref_block_num"
	RefBlockPrefixPlaceholder = "__ref_block_prefix"
	ExpirationPlaceholder     = "__expiration"
)

// Kind is what a request asks to sign.
type Kind string

const (
	KindOp  Kind = "op"
	KindOps Kind = "ops"
	KindTx  Kind = "tx"
)

// Params are the optional query parameters of a request.
type Params struct {
	Callback    string // Redirect after signing, may hold {{id}}, {{sig}} and {{block}}
	NoBroadcast bool   // Sign only
	Authority   string // owner, active or posting; empty lets the wallet choose
	Signer      string // Expected signing account
}

// Request is a parsed signing request.
type Request struct {
	Kind        Kind
	Operations  []protocol.Operation  // KindOp and KindOps
	Transaction *protocol.Transaction // KindTx
	Params      Params

	// Header placeholders present in a KindTx payload.
	placeholders map[string]bool
}

var authorities = map[string]bool{"owner": true, "active": true, "posting": true}

// Parse parses a hive:// signing URI.
func Parse(uri string) (*Request, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, hiveerr.MalformedCause(err, "invalid uri")
	}
	if u.Scheme != Scheme {
		return nil, hiveerr.Malformed("unsupported scheme %q", u.Scheme)
	}
	if u.Host != "sign" {
		return nil, hiveerr.Malformed("unsupported action %q", u.Host)
	}

	parts := strings.SplitN(strings.TrimPrefix(u.EscapedPath(), "/"), "/", 2)
	if len(parts) != 2 || parts[1] == "" {
		return nil, hiveerr.Malformed("uri must be hive://sign/<kind>/<payload>")
	}
	payload, err := decodeB64U(parts[1])
	if err != nil {
		return nil, errors.Wrap(err, "payload")
	}

	req := &Request{Kind: Kind(parts[0])}
	switch req.Kind {
	case KindOp:
		var op protocol.Operation
		if err := json.Unmarshal(payload, &op); err != nil {
			return nil, wrapJSON(err, "operation payload")
		}
		req.Operations = []protocol.Operation{op}
	case KindOps:
		if err := json.Unmarshal(payload, &req.Operations); err != nil {
			return nil, wrapJSON(err, "operations payload")
		}
		if len(req.Operations) == 0 {
			return nil, hiveerr.Malformed("operations payload is empty")
		}
	case KindTx:
		tx, placeholders, err := decodeTransaction(payload)
		if err != nil {
			return nil, err
		}
		req.Transaction, req.placeholders = tx, placeholders
	default:
		return nil, hiveerr.Malformed("unknown request kind %q", parts[0])
	}

	if req.Params, err = parseParams(u.Query()); err != nil {
		return nil, err
	}
	return req, nil
}

func parseParams(q url.Values) (Params, error) {
	p := Params{
		Authority: q.Get("a"),
		Signer:    q.Get("s"),
	}
	_, p.NoBroadcast = q["nb"]
	if p.Authority != "" && !authorities[p.Authority] {
		return p, hiveerr.Malformed("unknown authority %q", p.Authority)
	}
	if cb := q.Get("cb"); cb != "" {
		raw, err := decodeB64U(cb)
		if err != nil {
			return p, errors.Wrap(err, "callback")
		}
		p.Callback = string(raw)
	}
	return p, nil
}

// Encode renders the request as a URI.
func (r *Request) Encode() (string, error) {
	var (
		payload []byte
		err     error
	)
	switch r.Kind {
	case KindOp:
		if len(r.Operations) != 1 {
			return "", hiveerr.Malformed("op request needs exactly one operation, has %d", len(r.Operations))
		}
		payload, err = json.Marshal(r.Operations[0])
	case KindOps:
		if len(r.Operations) == 0 {
			return "", hiveerr.Malformed("ops request has no operations")
		}
		payload, err = json.Marshal(r.Operations)
	case KindTx:
		if r.Transaction == nil {
			return "", hiveerr.Malformed("tx request has no transaction")
		}
		payload, err = encodeTransaction(r.Transaction, r.placeholders)
	default:
		return "", hiveerr.Malformed("unknown request kind %q", r.Kind)
	}
	if err != nil {
		return "", errors.Wrap(err, "failed to encode payload")
	}

	out := Scheme + "://sign/" + string(r.Kind) + "/" + base64.RawURLEncoding.EncodeToString(payload)
	if q := r.Params.query(); q != "" {
		out += "?" + q
	}
	return out, nil
}

func (p Params) query() string {
	q := url.Values{}
	if p.Authority != "" {
		q.Set("a", p.Authority)
	}
	if p.Callback != "" {
		q.Set("cb", base64.RawURLEncoding.EncodeToString([]byte(p.Callback)))
	}
	if p.Signer != "" {
		q.Set("s", p.Signer)
	}
	// nb is a bare flag.
	s := q.Encode()
	if p.NoBroadcast {
		if s != "" {
			s += "&"
		}
		s += "nb"
	}
	return s
}

// EncodeOp builds a single operation request.
func EncodeOp(op protocol.Operation, params Params) (string, error) {
	return (&Request{Kind: KindOp, Operations: []protocol.Operation{op}, Params: params}).Encode()
}

// EncodeOps builds a multi-operation request.
func EncodeOps(ops []protocol.Operation, params Params) (string, error) {
	return (&Request{Kind: KindOps, Operations: ops, Params: params}).Encode()
}

// EncodeTx builds a transaction request.
func EncodeTx(tx *protocol.Transaction, params Params) (string, error) {
	return (&Request{Kind: KindTx, Transaction: tx, Params: params}).Encode()
}

// decodeB64U accepts base64url with or without padding.
func decodeB64U(s string) ([]byte, error) {
	s, err := url.PathUnescape(s)
	if err != nil {
		return nil, hiveerr.MalformedCause(err, "invalid escape")
	}
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
	if err != nil {
		return nil, hiveerr.MalformedCause(err, "invalid base64url")
	}
	return raw, nil
}

func wrapJSON(err error, what string) error {
	if errors.Is(err, hiveerr.ErrMalformedInput) {
		return errors.Wrap(err, what)
	}
	return hiveerr.MalformedCause(err, "invalid %s", what)
}

// decodeTransaction decodes a transaction payload. Header fields holding a
// placeholder are left zero and reported in the returned set.
func decodeTransaction(payload []byte) (*protocol.Transaction, map[string]bool, error) {
	var raw struct {
		RefBlockNum    json.RawMessage      `json:"ref_block_num"`
		RefBlockPrefix json.RawMessage      `json:"ref_block_prefix"`
		Expiration     json.RawMessage      `json:"expiration"`
		Operations     []protocol.Operation `json:"operations"`
		Extensions     []string             `json:"extensions"`
	}
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, nil, wrapJSON(err, "transaction payload")
	}
	if len(raw.Operations) == 0 {
		return nil, nil, hiveerr.Malformed("transaction payload has no operations")
	}

	tx := &protocol.Transaction{Operations: raw.Operations, Extensions: raw.Extensions}
	if tx.Extensions == nil {
		tx.Extensions = []string{}
	}
	placeholders := map[string]bool{}

	header := []struct {
		name string
		raw  json.RawMessage
		dst  interface{}
	}{
		{RefBlockNumPlaceholder, raw.RefBlockNum, &tx.RefBlockNum},
		{RefBlockPrefixPlaceholder, raw.RefBlockPrefix, &tx.RefBlockPrefix},
		{ExpirationPlaceholder, raw.Expiration, &tx.Expiration},
	}
	for _, h := range header {
		if len(h.raw) == 0 || string(h.raw) == `"`+h.name+`"` {
			placeholders[h.name] = true
			continue
		}
		if err := json.Unmarshal(h.raw, h.dst); err != nil {
			return nil, nil, wrapJSON(err, strings.TrimPrefix(h.name, "__"))
		}
	}
	return tx, placeholders, nil
}

func encodeTransaction(tx *protocol.Transaction, placeholders map[string]bool) ([]byte, error) {
	if len(placeholders) == 0 {
		return json.Marshal(tx)
	}
	body, err := json.Marshal(tx)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	for name := range placeholders {
		fields[strings.TrimPrefix(name, "__")] = json.RawMessage(`"` + name + `"`)
	}
	return json.Marshal(fields)
}
