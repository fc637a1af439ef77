package serializer

import (
	"encoding/hex"
	"sort"

	"github.com/suffix-labs/hive-tx-go/pkg/bytebuffer"
	"github.com/suffix-labs/hive-tx-go/pkg/crypto"
	"github.com/suffix-labs/hive-tx-go/pkg/hiveerr"
	"github.com/suffix-labs/hive-tx-go/pkg/log"
	"github.com/suffix-labs/hive-tx-go/pkg/protocol"
)

var logger = log.New("serializer")

// AssetEncoding selects how assets are written.
type AssetEncoding int

const (
	// AssetLegacy writes int64 || precision || 7-byte symbol. This is what
	// signing uses on the main network.
	AssetLegacy AssetEncoding = iota
	// AssetNAI writes int64 || uint32 asset number.
	AssetNAI
)

func (e AssetEncoding) String() string {
	if e == AssetNAI {
		return "nai"
	}
	return "legacy"
}

// ParseAssetEncoding maps "legacy" or "nai" to an AssetEncoding.
func ParseAssetEncoding(s string) (AssetEncoding, error) {
	switch s {
	case "", "legacy":
		return AssetLegacy, nil
	case "nai":
		return AssetNAI, nil
	}
	return 0, hiveerr.Malformed("unknown asset encoding %q", s)
}

// Registry holds the serializers built for one asset encoding. It is
// immutable after construction and safe for concurrent use.
type Registry struct {
	encoding AssetEncoding

	Asset           Serializer
	Price           Serializer
	Authority       Serializer
	ChainProperties Serializer
	Beneficiary     Serializer
	Operation       Serializer
	Transaction     Serializer

	operations map[string]Serializer
}

// Default is the legacy-asset registry used for signing.
var Default = NewRegistry(AssetLegacy)

// NewRegistry builds the serializer set for encoding.
func NewRegistry(encoding AssetEncoding) *Registry {
	r := &Registry{encoding: encoding}
	if encoding == AssetNAI {
		r.Asset = NAIAsset
	} else {
		r.Asset = LegacyAsset
	}
	r.Price = Object(
		F("base", r.Asset),
		F("quote", r.Asset),
	)
	r.Authority = Object(
		F("weight_threshold", UInt32),
		F("account_auths", FlatMap(String, UInt16)),
		F("key_auths", FlatMap(PublicKey, UInt16)),
	)
	r.ChainProperties = Object(
		F("account_creation_fee", r.Asset),
		F("maximum_block_size", UInt32),
		F("hbd_interest_rate", UInt16),
	)
	r.Beneficiary = Object(
		F("account", String),
		F("weight", UInt16),
	)
	r.operations = r.operationSerializers()
	r.Operation = r.writeOperation
	r.Transaction = r.writeTransaction
	return r
}

// Encoding returns the asset encoding of the registry.
func (r *Registry) Encoding() AssetEncoding {
	return r.encoding
}

// Has reports whether the named operation can be serialized.
func (r *Registry) Has(name string) bool {
	_, ok := r.operations[name]
	return ok
}

// writeOperation writes varint(id) followed by the operation's parameters.
func (r *Registry) writeOperation(b *bytebuffer.Buffer, v interface{}) error {
	op, err := toOperation(v)
	if err != nil {
		return err
	}
	id, known := protocol.OperationID(op.Name)
	ser, ok := r.operations[op.Name]
	if !known || !ok {
		return hiveerr.UnknownOperation(op.Name)
	}
	b.WriteVarint32(uint32(id))
	if err := ser(b, op.Params); err != nil {
		return hiveerr.WrapField(op.Name, err)
	}
	return nil
}

func toOperation(v interface{}) (protocol.Operation, error) {
	switch x := v.(type) {
	case protocol.Operation:
		return x, nil
	case *protocol.Operation:
		if x != nil {
			return *x, nil
		}
	case []interface{}:
		if len(x) == 2 {
			name, err := toString(x[0])
			if err != nil {
				return protocol.Operation{}, err
			}
			params, err := toObject(x[1])
			if err != nil {
				return protocol.Operation{}, err
			}
			return protocol.NewOperation(name, params), nil
		}
	}
	return protocol.Operation{}, hiveerr.Malformed("expected [name, params] operation, got %T", v)
}

var transactionFields = []string{"ref_block_num", "ref_block_prefix", "expiration", "operations", "extensions"}

func (r *Registry) writeTransaction(b *bytebuffer.Buffer, v interface{}) error {
	var m map[string]interface{}
	switch x := v.(type) {
	case *protocol.Transaction:
		m = transactionMap(x)
	case protocol.Transaction:
		m = transactionMap(&x)
	case *protocol.SignedTransaction:
		m = transactionMap(&x.Transaction)
	case protocol.SignedTransaction:
		m = transactionMap(&x.Transaction)
	default:
		obj, err := toObject(v)
		if err != nil {
			return err
		}
		m = obj
	}
	fields := []Serializer{UInt16, UInt32, Date, Array(r.Operation), Array(String)}
	for i, name := range transactionFields {
		if err := fields[i](b, m[name]); err != nil {
			return hiveerr.WrapField(name, err)
		}
	}
	return nil
}

func transactionMap(tx *protocol.Transaction) map[string]interface{} {
	return map[string]interface{}{
		"ref_block_num":    tx.RefBlockNum,
		"ref_block_prefix": tx.RefBlockPrefix,
		"expiration":       tx.Expiration,
		"operations":       tx.Operations,
		"extensions":       tx.Extensions,
	}
}

// SerializeTransaction returns the wire bytes of tx. Signatures are not part
// of the encoding.
func (r *Registry) SerializeTransaction(tx *protocol.Transaction) ([]byte, error) {
	out, err := Serialize(r.Transaction, tx)
	if err != nil {
		logger.WithError(err).Debug("transaction serialization failed")
		return nil, err
	}
	return out, nil
}

// SerializeSignedTransaction returns the wire bytes of tx followed by its
// signatures, as broadcast to the network.
func (r *Registry) SerializeSignedTransaction(tx *protocol.SignedTransaction) ([]byte, error) {
	b := bytebuffer.New(0)
	if err := r.Transaction(b, &tx.Transaction); err != nil {
		return nil, err
	}
	if err := Array(Binary(crypto.SignatureLen+1))(b, tx.Signatures); err != nil {
		return nil, hiveerr.WrapField("signatures", err)
	}
	return b.Bytes(), nil
}

// SerializeOperation returns the wire bytes of a single operation.
func (r *Registry) SerializeOperation(op protocol.Operation) ([]byte, error) {
	return Serialize(r.Operation, op)
}

// witnessPropType maps witness_set_properties keys to their value types.
func (r *Registry) witnessPropType(key string) (Serializer, bool) {
	switch key {
	case "key", "new_signing_key":
		return PublicKey, true
	case "account_subsidy_budget", "account_subsidy_decay", "maximum_block_size":
		return UInt32, true
	case "hbd_interest_rate":
		return UInt16, true
	case "url":
		return String, true
	case "hbd_exchange_rate":
		return r.Price, true
	case "account_creation_fee":
		return r.Asset, true
	}
	return nil, false
}

// WitnessProps encodes each witness property with its own type and returns
// [key, hex] pairs sorted by key, ready for witness_set_properties.
func (r *Registry) WitnessProps(props map[string]interface{}) ([]interface{}, error) {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]interface{}, 0, len(keys))
	for _, key := range keys {
		ser, ok := r.witnessPropType(key)
		if !ok {
			return nil, hiveerr.Malformed("unknown witness prop %q", key)
		}
		data, err := Serialize(ser, props[key])
		if err != nil {
			return nil, hiveerr.WrapField(key, err)
		}
		out = append(out, []interface{}{key, hex.EncodeToString(data)})
	}
	return out, nil
}

// WitnessSetProperties builds a witness_set_properties operation for owner.
func (r *Registry) WitnessSetProperties(owner string, props map[string]interface{}) (protocol.Operation, error) {
	encoded, err := r.WitnessProps(props)
	if err != nil {
		return protocol.Operation{}, err
	}
	return protocol.NewOperation("witness_set_properties", map[string]interface{}{
		"owner":      owner,
		"props":      encoded,
		"extensions": []interface{}{},
	}), nil
}
