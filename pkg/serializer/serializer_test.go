package serializer

import (
	"encoding/hex"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suffix-labs/hive-tx-go/pkg/bytebuffer"
	"github.com/suffix-labs/hive-tx-go/pkg/crypto"
	"github.com/suffix-labs/hive-tx-go/pkg/hiveerr"
	"github.com/suffix-labs/hive-tx-go/pkg/protocol"
)

const (
	testPub  = "STM5p78kHbL33Rn3JWkTWRE2B9uz6gy4r1KbfAKLNQGE3ovMBS5bu"
	nullPub  = "STM1111111111111111111111111111111114T1Anm"
	voteHex  = "0003666f6f036261720362617a1027"
	txHex    = "d204f776e54207486a59010003666f6f036261720362617a102700"
	transfer = "0203666f6f03626172e80300000000000003535445454d0000046d656d6f"
)

func serializeHex(t *testing.T, s Serializer, v interface{}) string {
	t.Helper()
	out, err := Serialize(s, v)
	require.NoError(t, err)
	return hex.EncodeToString(out)
}

func voteOp() protocol.Operation {
	return protocol.NewOperation("vote", map[string]interface{}{
		"voter":    "foo",
		"author":   "bar",
		"permlink": "baz",
		"weight":   10000,
	})
}

func TestPrimitives(t *testing.T) {
	assert.Equal(t, "ff", serializeHex(t, Int8, -1))
	assert.Equal(t, "1027", serializeHex(t, Int16, 10000))
	assert.Equal(t, "f0d8ffff", serializeHex(t, Int32, -10000))
	assert.Equal(t, "0100000000000000", serializeHex(t, Int64, json.Number("1")))
	assert.Equal(t, "2a", serializeHex(t, UInt8, uint8(42)))
	assert.Equal(t, "ffff", serializeHex(t, UInt16, 65535))
	assert.Equal(t, "00000100", serializeHex(t, UInt32, "65536"))
	assert.Equal(t, "ffffffffffffffff", serializeHex(t, UInt64, uint64(18446744073709551615)))
	assert.Equal(t, "01", serializeHex(t, Bool, true))
	assert.Equal(t, "00", serializeHex(t, String, ""))
	assert.Equal(t, "0968747470733a2f2f78", serializeHex(t, String, "https://x"))
	assert.Equal(t, "076d656d6fe788b1", serializeHex(t, String, "memo爱"))
	assert.Equal(t, "07486a59", serializeHex(t, Date, "2017-07-15T16:51:19"))
	assert.Equal(t, "07486a59", serializeHex(t, Date, time.Unix(1500137479, 0)))
	assert.Equal(t, "03010203", serializeHex(t, VariableBinary, []byte{1, 2, 3}))
	assert.Equal(t, "0a0b", serializeHex(t, Binary(2), "0a0b"))
}

func TestPrimitiveRanges(t *testing.T) {
	tests := []struct {
		name string
		s    Serializer
		v    interface{}
	}{
		{"int16 high", Int16, 32768},
		{"int16 low", Int16, -32769},
		{"uint16 high", UInt16, 65536},
		{"uint16 negative", UInt16, -1},
		{"uint32 high", UInt32, int64(1) << 32},
		{"int64 string overflow", Int64, "9223372036854775808"},
		{"date before epoch", Date, time.Unix(-1, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Serialize(tt.s, tt.v)
			assert.ErrorIs(t, err, hiveerr.ErrOutOfRange)
		})
	}
}

func TestPrimitiveTypeErrors(t *testing.T) {
	_, err := Serialize(String, 5)
	assert.ErrorIs(t, err, hiveerr.ErrMalformedInput)
	_, err = Serialize(String, nil)
	assert.ErrorIs(t, err, hiveerr.ErrMalformedInput)
	_, err = Serialize(Bool, "true")
	assert.ErrorIs(t, err, hiveerr.ErrMalformedInput)
	_, err = Serialize(Int16, 1.5)
	assert.ErrorIs(t, err, hiveerr.ErrMalformedInput)
	_, err = Serialize(Binary(2), "0a")
	assert.ErrorIs(t, err, hiveerr.ErrMalformedInput)
	_, err = Serialize(VariableBinary, "zz")
	assert.ErrorIs(t, err, hiveerr.ErrMalformedInput)
	_, err = Serialize(Void, nil)
	assert.Error(t, err)
}

func TestPublicKey(t *testing.T) {
	out, err := Serialize(PublicKey, nullPub)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 33), out)

	pub, err := crypto.ParsePublicKey(testPub)
	require.NoError(t, err)
	assert.Equal(t, hex.EncodeToString(pub.Bytes()), serializeHex(t, PublicKey, pub))
	assert.Equal(t, hex.EncodeToString(pub.Bytes()), serializeHex(t, PublicKey, testPub))

	_, err = Serialize(PublicKey, "STMbad")
	assert.Error(t, err)
}

func TestAssets(t *testing.T) {
	assert.Equal(t, "e80300000000000003535445454d0000", serializeHex(t, LegacyAsset, "1.000 HIVE"))
	assert.Equal(t, "01000000000000000353424400000000", serializeHex(t, LegacyAsset, protocol.MustParseAsset("0.001 HBD")))
	assert.Equal(t, "3fa5ae02000000000656455354530000", serializeHex(t, LegacyAsset, "44.999999 VESTS"))
	assert.Equal(t, "e8030000000000002320bcbe", serializeHex(t, NAIAsset, "1.000 HIVE"))
	assert.Equal(t, "e8030000000000002320bcbe", serializeHex(t, NAIAsset,
		map[string]interface{}{"amount": "1000", "precision": json.Number("3"), "nai": "@@000000021"}))

	_, err := Serialize(LegacyAsset, "99999999999999999.000 HIVE")
	assert.ErrorIs(t, err, hiveerr.ErrOutOfRange)
	_, err = Serialize(LegacyAsset, "1.000 FOO")
	assert.ErrorIs(t, err, hiveerr.ErrMalformedInput)
}

func TestCombinators(t *testing.T) {
	assert.Equal(t, "02026161026262", serializeHex(t, Array(String), []string{"aa", "bb"}))
	assert.Equal(t, "00", serializeHex(t, Array(String), nil))
	assert.Equal(t, "00", serializeHex(t, Optional(String), nil))
	assert.Equal(t, "010161", serializeHex(t, Optional(String), "a"))
	assert.Equal(t, "00", serializeHex(t, Optional(String), (*string)(nil)))

	assert.Equal(t, "020161010001620200",
		serializeHex(t, FlatMap(String, UInt16), []interface{}{[]interface{}{"a", 1}, [2]interface{}{"b", 2}}))
	// Go maps are written in key order.
	assert.Equal(t, "020161010001620200",
		serializeHex(t, FlatMap(String, UInt16), map[string]interface{}{"b": 2, "a": 1}))

	variant := StaticVariant(Void, String)
	assert.Equal(t, "010161", serializeHex(t, variant, []interface{}{1, "a"}))
	_, err := Serialize(variant, []interface{}{2, "a"})
	assert.ErrorIs(t, err, hiveerr.ErrMalformedInput)
	_, err = Serialize(variant, []interface{}{0, nil})
	assert.Error(t, err)
}

func TestObjectAcceptsStructs(t *testing.T) {
	type vote struct {
		Voter    string `json:"voter"`
		Author   string `json:"author"`
		Permlink string `json:"permlink"`
		Weight   int16  `json:"weight"`
	}
	ser := Default.operations["vote"]
	want := voteHex[2:]
	assert.Equal(t, want, serializeHex(t, ser, vote{"foo", "bar", "baz", 10000}))
	assert.Equal(t, want, serializeHex(t, ser, voteOp().Params))
}

func TestOperations(t *testing.T) {
	out, err := Default.SerializeOperation(voteOp())
	require.NoError(t, err)
	assert.Equal(t, voteHex, hex.EncodeToString(out))

	out, err = Default.SerializeOperation(protocol.NewOperation("transfer", map[string]interface{}{
		"from":   "foo",
		"to":     "bar",
		"amount": "1.000 HIVE",
		"memo":   "memo",
	}))
	require.NoError(t, err)
	assert.Equal(t, transfer, hex.EncodeToString(out))

	// JSON form of the same operation.
	var op protocol.Operation
	require.NoError(t, json.Unmarshal([]byte(`["transfer",{"from":"foo","to":"bar","amount":"1.000 HIVE","memo":"memo"}]`), &op))
	out, err = Default.SerializeOperation(op)
	require.NoError(t, err)
	assert.Equal(t, transfer, hex.EncodeToString(out))
}

func TestOperationCoverage(t *testing.T) {
	noSerializer := map[string]bool{"pow": true, "pow2": true, "report_over_production": true}
	for _, name := range protocol.OperationNames() {
		want := !protocol.IsVirtual(name) && !noSerializer[name]
		assert.Equal(t, want, Default.Has(name), name)
	}
}

func TestUnknownOperation(t *testing.T) {
	_, err := Default.SerializeOperation(protocol.NewOperation("shutdown_network", map[string]interface{}{}))
	assert.ErrorIs(t, err, hiveerr.ErrUnknownOperation)

	_, err = Default.SerializeOperation(protocol.NewOperation("producer_reward", map[string]interface{}{}))
	assert.ErrorIs(t, err, hiveerr.ErrUnknownOperation)

	_, err = Default.SerializeOperation(protocol.NewOperation("pow", map[string]interface{}{}))
	assert.ErrorIs(t, err, hiveerr.ErrUnknownOperation)
}

func TestFieldPathErrors(t *testing.T) {
	_, err := Default.SerializeOperation(protocol.NewOperation("transfer", map[string]interface{}{
		"from":   "foo",
		"to":     "bar",
		"amount": "1.000 NOPE",
		"memo":   "",
	}))
	require.Error(t, err)
	var se *hiveerr.SerializationError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "transfer.amount", se.Path)
	assert.ErrorIs(t, err, hiveerr.ErrSerialization)
	assert.ErrorIs(t, err, hiveerr.ErrMalformedInput)

	exp, err := protocol.ParseTime("2017-07-15T16:51:19")
	require.NoError(t, err)
	tx := &protocol.Transaction{
		Expiration: exp,
		Operations: []protocol.Operation{
			voteOp(),
			protocol.NewOperation("account_create", map[string]interface{}{
				"fee":              "3.000 HIVE",
				"creator":          "foo",
				"new_account_name": "bar",
				"owner": map[string]interface{}{
					"weight_threshold": 1,
					"account_auths":    []interface{}{},
					"key_auths":        []interface{}{[]interface{}{"STMnotakey", 1}},
				},
			}),
		},
	}
	_, err = Default.SerializeTransaction(tx)
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "operations.1.account_create.owner.key_auths.0", se.Path)
}

func TestTransaction(t *testing.T) {
	exp, err := protocol.ParseTime("2017-07-15T16:51:19")
	require.NoError(t, err)
	tx := &protocol.Transaction{
		RefBlockNum:    1234,
		RefBlockPrefix: 1122334455,
		Expiration:     exp,
		Operations:     []protocol.Operation{voteOp()},
	}

	out, err := Default.SerializeTransaction(tx)
	require.NoError(t, err)
	assert.Equal(t, txHex, hex.EncodeToString(out))

	// Decoded JSON serializes identically.
	var parsed protocol.Transaction
	data, err := json.Marshal(tx)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &parsed))
	out, err = Default.SerializeTransaction(&parsed)
	require.NoError(t, err)
	assert.Equal(t, txHex, hex.EncodeToString(out))

	sig := "1f" + hex.EncodeToString(make([]byte, 64))
	out, err = Default.SerializeSignedTransaction(&protocol.SignedTransaction{Transaction: *tx, Signatures: []string{sig}})
	require.NoError(t, err)
	assert.Equal(t, txHex+"01"+sig, hex.EncodeToString(out))
}

func TestNAIRegistry(t *testing.T) {
	nai := NewRegistry(AssetNAI)
	assert.Equal(t, AssetNAI, nai.Encoding())

	out, err := nai.SerializeOperation(protocol.NewOperation("transfer_to_vesting", map[string]interface{}{
		"from":   "foo",
		"to":     "bar",
		"amount": "1.000 HIVE",
	}))
	require.NoError(t, err)
	assert.Equal(t, "0303666f6f03626172e8030000000000002320bcbe", hex.EncodeToString(out))

	enc, err := ParseAssetEncoding("nai")
	require.NoError(t, err)
	assert.Equal(t, AssetNAI, enc)
	_, err = ParseAssetEncoding("binary")
	assert.Error(t, err)
}

func TestAccountUpdateOptionals(t *testing.T) {
	params := map[string]interface{}{
		"account":       "foo",
		"owner":         nil,
		"active":        protocol.NewKeyAuthority(mustPub(t, testPub)),
		"memo_key":      nullPub,
		"json_metadata": "{}",
	}
	b := bytebuffer.New(0)
	require.NoError(t, Default.operations["account_update"](b, params))

	pubBytes := mustPub(t, testPub).Bytes()
	want := "03666f6f" + // account
		"00" + // owner absent
		"01" + "01000000" + "00" + "01" + hex.EncodeToString(pubBytes) + "0100" + // active
		"00" + // posting absent
		hex.EncodeToString(make([]byte, 33)) + // memo_key
		"027b7d"
	assert.Equal(t, want, hex.EncodeToString(b.Bytes()))
}

func TestCommentOptionsBeneficiaries(t *testing.T) {
	params := map[string]interface{}{
		"author":                 "foo",
		"permlink":               "bar",
		"max_accepted_payout":    "1000000.000 HBD",
		"percent_hbd":            10000,
		"allow_votes":            true,
		"allow_curation_rewards": true,
		"extensions": []interface{}{
			[]interface{}{0, map[string]interface{}{
				"beneficiaries": []protocol.Beneficiary{{Account: "baz", Weight: 1000}},
			}},
		},
	}
	out, err := Serialize(Default.operations["comment_options"], params)
	require.NoError(t, err)
	tail := "01" + "00" + "01" + "0362617a" + "e803"
	assert.Equal(t, tail, hex.EncodeToString(out)[len(hex.EncodeToString(out))-len(tail):])
}

func TestWitnessProps(t *testing.T) {
	op, err := Default.WitnessSetProperties("foo", map[string]interface{}{
		"url":                "https://x",
		"maximum_block_size": 65536,
		"key":                testPub,
	})
	require.NoError(t, err)

	props := op.Params["props"].([]interface{})
	require.Len(t, props, 3)
	assert.Equal(t, []interface{}{"key", hex.EncodeToString(mustPub(t, testPub).Bytes())}, props[0])
	assert.Equal(t, []interface{}{"maximum_block_size", "00000100"}, props[1])
	assert.Equal(t, []interface{}{"url", "0968747470733a2f2f78"}, props[2])

	_, err = Default.SerializeOperation(op)
	require.NoError(t, err)

	_, err = Default.WitnessProps(map[string]interface{}{"colour": "red"})
	assert.ErrorIs(t, err, hiveerr.ErrMalformedInput)
}

func mustPub(t *testing.T, s string) *crypto.PublicKey {
	t.Helper()
	pub, err := crypto.ParsePublicKey(s)
	require.NoError(t, err)
	return pub
}
