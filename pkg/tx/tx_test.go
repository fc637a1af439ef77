package tx

import (
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suffix-labs/hive-tx-go/pkg/crypto"
	"github.com/suffix-labs/hive-tx-go/pkg/hiveerr"
	"github.com/suffix-labs/hive-tx-go/pkg/protocol"
	"github.com/suffix-labs/hive-tx-go/pkg/serializer"
)

const (
	voteDigest = "25e2e8b21021136b4681d605bea24f2e0d8b7576a6f2cb43f7e0c46713acafec"
	voteTrxID  = "2072295d67761f9d4cf80d8cce52b0f35b382d1e"
	// Block 1234 with bytes 4..8 encoding ref_block_prefix 1122334455.
	headBlockID = "000004d2f776e5420000000000000000000000ff"
)

func voteTx(t *testing.T) *protocol.Transaction {
	t.Helper()
	exp, err := protocol.ParseTime("2017-07-15T16:51:19")
	require.NoError(t, err)
	return &protocol.Transaction{
		RefBlockNum:    1234,
		RefBlockPrefix: 1122334455,
		Expiration:     exp,
		Operations: []protocol.Operation{protocol.NewOperation("vote", map[string]interface{}{
			"voter":    "foo",
			"author":   "bar",
			"permlink": "baz",
			"weight":   10000,
		})},
		Extensions: []string{},
	}
}

func loginKey(t *testing.T, role crypto.Role) *crypto.PrivateKey {
	t.Helper()
	key, err := crypto.PrivateKeyFromLogin("foo", "barman", role)
	require.NoError(t, err)
	return key
}

func TestFrom(t *testing.T) {
	head, err := time.Parse(time.RFC3339, "2017-07-15T16:41:19Z")
	require.NoError(t, err)
	props := TxSignProperties{HeadBlockNumber: 0x10000 + 1234, HeadBlockID: headBlockID, Time: head}

	tx, err := From(props, voteTx(t).Operations, 0)
	require.NoError(t, err)
	assert.Equal(t, uint16(1234), tx.RefBlockNum)
	assert.Equal(t, uint32(1122334455), tx.RefBlockPrefix)
	assert.Equal(t, "2017-07-15T16:51:19", tx.Expiration.String())

	hash, err := Digest(tx, MainnetChainID)
	require.NoError(t, err)
	assert.Equal(t, voteDigest, hex.EncodeToString(hash[:]))

	tx, err = From(props, nil, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "2017-07-15T16:42:19", tx.Expiration.String())
	assert.Empty(t, tx.Operations)
}

func TestFromRejects(t *testing.T) {
	now := time.Now()
	_, err := From(TxSignProperties{HeadBlockID: "zz", Time: now}, nil, 0)
	assert.ErrorIs(t, err, hiveerr.ErrMalformedInput)

	_, err = From(TxSignProperties{HeadBlockID: "0011", Time: now}, nil, 0)
	assert.ErrorIs(t, err, hiveerr.ErrMalformedInput)

	_, err = From(TxSignProperties{HeadBlockID: headBlockID}, nil, 0)
	assert.ErrorIs(t, err, hiveerr.ErrMalformedInput)

	_, err = From(TxSignProperties{HeadBlockID: headBlockID, Time: now}, nil, 2*time.Hour)
	assert.ErrorIs(t, err, hiveerr.ErrOutOfRange)
}

func TestDigestAndTrxID(t *testing.T) {
	tx := voteTx(t)

	hash, err := Digest(tx, MainnetChainID)
	require.NoError(t, err)
	assert.Equal(t, voteDigest, hex.EncodeToString(hash[:]))

	id, err := TrxID(tx)
	require.NoError(t, err)
	assert.Equal(t, voteTrxID, id)

	// The id ignores the chain, the digest does not.
	other, err := ParseChainID("18dcf0a285365fc58b71f18b3d3fec954aa0c141c44e4e5cb4cf777b9eab274e")
	require.NoError(t, err)
	signer := NewSigner(other)
	otherHash, err := signer.Digest(tx)
	require.NoError(t, err)
	assert.NotEqual(t, hash, otherHash)
	otherID, err := signer.TrxID(tx)
	require.NoError(t, err)
	assert.Equal(t, voteTrxID, otherID)
}

func TestParseChainID(t *testing.T) {
	id, err := ParseChainID(MainnetChainID.String())
	require.NoError(t, err)
	assert.Equal(t, MainnetChainID, id)
	assert.Equal(t, "beeab0de00000000000000000000000000000000000000000000000000000000", id.String())

	_, err = ParseChainID("beeab0de")
	assert.ErrorIs(t, err, hiveerr.ErrMalformedInput)
	_, err = ParseChainID("not hex")
	assert.ErrorIs(t, err, hiveerr.ErrMalformedInput)
}

func TestSignAndRecover(t *testing.T) {
	tx := voteTx(t)
	key := loginKey(t, crypto.RoleActive)

	stx, err := Sign(tx, []*crypto.PrivateKey{key}, MainnetChainID)
	require.NoError(t, err)
	require.Len(t, stx.Signatures, 1)
	assert.Len(t, stx.Signatures[0], 130)
	assert.Empty(t, voteTx(t).Extensions)

	pub, ok := RecoverKeyFromSignature(tx, stx.Signatures[0], MainnetChainID)
	require.True(t, ok)
	assert.Equal(t, key.PublicKey().String(), pub.String())
	assert.Equal(t, "STM87F7tN56tAUL2C6J9Gzi9HzgNpZdi6M2cLQo7TjDU5v178QsYA", pub.String())

	// Deterministic.
	again, err := Sign(tx, []*crypto.PrivateKey{key}, MainnetChainID)
	require.NoError(t, err)
	assert.Equal(t, stx.Signatures, again.Signatures)

	sig, err := crypto.ParseSignature(stx.Signatures[0])
	require.NoError(t, err)
	assert.True(t, sig.IsCanonical())
}

func TestSignDoesNotMutate(t *testing.T) {
	tx := voteTx(t)
	stx, err := NewSigner(MainnetChainID).Sign(tx, loginKey(t, crypto.RoleActive))
	require.NoError(t, err)

	stx.Operations[0].Params["voter"] = "mallory"
	assert.Equal(t, "foo", tx.Operations[0].Params["voter"])
}

func TestSignMultipleAndAppend(t *testing.T) {
	tx := voteTx(t)
	signer := NewSigner(MainnetChainID)
	active, posting := loginKey(t, crypto.RoleActive), loginKey(t, crypto.RolePosting)

	stx, err := signer.Sign(tx, active, posting)
	require.NoError(t, err)
	require.Len(t, stx.Signatures, 2)

	keys, err := signer.RecoverSigners(stx)
	require.NoError(t, err)
	assert.Equal(t, active.PublicKey().String(), keys[0].String())
	assert.Equal(t, posting.PublicKey().String(), keys[1].String())

	first, err := signer.Sign(tx, active)
	require.NoError(t, err)
	appended, err := signer.SignSigned(first, posting)
	require.NoError(t, err)
	assert.Equal(t, stx.Signatures, appended.Signatures)
	assert.Len(t, first.Signatures, 1)

	_, err = signer.Sign(tx)
	assert.ErrorIs(t, err, hiveerr.ErrMalformedInput)
}

func TestVerify(t *testing.T) {
	tx := voteTx(t)
	signer := NewSigner(MainnetChainID)
	active := loginKey(t, crypto.RoleActive)

	stx, err := signer.Sign(tx, active)
	require.NoError(t, err)
	assert.True(t, signer.Verify(stx, active.PublicKey()))
	assert.False(t, signer.Verify(stx, loginKey(t, crypto.RoleOwner).PublicKey()))
	assert.True(t, Verify(stx, active.PublicKey(), MainnetChainID))

	keys, err := RecoverSigners(stx, MainnetChainID)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.True(t, active.PublicKey().Equal(keys[0]))

	// A signature for another chain does not verify here.
	other := NewSigner(ChainID{0x01})
	assert.False(t, other.Verify(stx, active.PublicKey()))

	// Changing the transaction invalidates the signature.
	tampered := stx.Clone()
	tampered.Operations[0].Params["weight"] = 5000
	assert.False(t, signer.Verify(&tampered, active.PublicKey()))
	pub, ok := signer.RecoverKeyFromSignature(&tampered.Transaction, stx.Signatures[0])
	require.True(t, ok)
	assert.NotEqual(t, active.PublicKey().String(), pub.String())
}

func TestRecoverIsSoft(t *testing.T) {
	tx := voteTx(t)
	for _, sig := range []string{"", "zz", "1f00", hex.EncodeToString(make([]byte, 65))} {
		pub, ok := RecoverKeyFromSignature(tx, sig, MainnetChainID)
		assert.False(t, ok, sig)
		assert.Nil(t, pub)
	}

	bad := &protocol.Transaction{Operations: []protocol.Operation{protocol.NewOperation("shutdown_network", nil)}}
	_, ok := RecoverKeyFromSignature(bad, "1f"+hex.EncodeToString(make([]byte, 64)), MainnetChainID)
	assert.False(t, ok)

	_, err := NewSigner(MainnetChainID).RecoverSigners(&protocol.SignedTransaction{
		Transaction: *tx,
		Signatures:  []string{"zz"},
	})
	assert.ErrorIs(t, err, hiveerr.ErrInvalidSignature)
}

func TestSignUnknownOperation(t *testing.T) {
	tx := voteTx(t)
	tx.Operations = append(tx.Operations, protocol.NewOperation("shutdown_network", map[string]interface{}{}))
	_, err := Sign(tx, []*crypto.PrivateKey{loginKey(t, crypto.RoleActive)}, MainnetChainID)
	assert.ErrorIs(t, err, hiveerr.ErrUnknownOperation)
}

func TestCombine(t *testing.T) {
	tx := voteTx(t)
	signer := NewSigner(MainnetChainID)
	active, posting := loginKey(t, crypto.RoleActive), loginKey(t, crypto.RolePosting)

	a, err := signer.Sign(tx, active)
	require.NoError(t, err)
	b, err := signer.Sign(tx, posting)
	require.NoError(t, err)
	both, err := signer.Sign(tx, posting, active)
	require.NoError(t, err)

	combined, err := Combine(a, b, both)
	require.NoError(t, err)
	assert.Equal(t, []string{a.Signatures[0], b.Signatures[0]}, combined.Signatures)
	assert.Len(t, a.Signatures, 1)

	other := voteTx(t)
	other.RefBlockNum = 1
	c, err := signer.Sign(other, active)
	require.NoError(t, err)
	_, err = Combine(a, c)
	assert.ErrorIs(t, err, hiveerr.ErrMalformedInput)

	_, err = Combine()
	assert.Error(t, err)
}

func TestNAISigner(t *testing.T) {
	tx := voteTx(t)
	tx.Operations = []protocol.Operation{protocol.NewOperation("transfer", map[string]interface{}{
		"from": "foo", "to": "bar", "amount": "1.000 HIVE", "memo": "",
	})}

	legacy := NewSigner(MainnetChainID)
	nai := NewSigner(MainnetChainID, WithRegistry(serializer.NewRegistry(serializer.AssetNAI)), WithAddressPrefix("TST"))

	h1, err := legacy.Digest(tx)
	require.NoError(t, err)
	h2, err := nai.Digest(tx)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)

	key := loginKey(t, crypto.RoleActive)
	stx, err := nai.Sign(tx, key)
	require.NoError(t, err)
	pub, ok := nai.RecoverKeyFromSignature(tx, stx.Signatures[0])
	require.True(t, ok)
	assert.Equal(t, key.PublicKey("TST").String(), pub.String())
}
