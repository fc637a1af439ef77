package memo

import (
	"sync"
	"testing"
	"time"

	"github.com/btcsuite/btcutil/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suffix-labs/hive-tx-go/pkg/crypto"
	"github.com/suffix-labs/hive-tx-go/pkg/hiveerr"
)

const (
	recipientWIF = "5JdeC9P7Pbd1uGdFVEsJ41EkEnADbbHGq6p1BwFxm6txNBsQnsw"
	senderWIF    = "5JYsrHMfTM2Hh3heyPMYvRpuu9gFhoAYghb71EZH7VRLQkHu3Bc"
	encoded      = "#FqMXi3bftzAKWoFmjBMxJ8VSx1NRJoHKa34s23czTXGSP6tWXXSm8PhwU1o7FPie6qo8dXHQRakQbp6jRg6Th2H6a8wHQ2krGKeQbqg5C461y7TqPukk74FNHnpRVoXUR"
)

func keys(t *testing.T) (recipient, sender *crypto.PrivateKey) {
	t.Helper()
	recipient, err := crypto.ParsePrivateKeyWIF(recipientWIF)
	require.NoError(t, err)
	sender, err = crypto.ParsePrivateKeyWIF(senderWIF)
	require.NoError(t, err)
	return recipient, sender
}

func TestEncodeVector(t *testing.T) {
	recipient, sender := keys(t)
	assert.Equal(t, "STM8m5UgaFAAYQRuaNejYdS8FVLVp9Ss3K1qAVk5de6F8s3HnVbvA", recipient.PublicKey().String())

	out, err := Encode("memo爱", recipient.PublicKey(), sender, 123)
	require.NoError(t, err)
	assert.Equal(t, encoded, out)

	// The marker on the input is optional.
	out, err = Encode("#memo爱", recipient.PublicKey(), sender, 123)
	require.NoError(t, err)
	assert.Equal(t, encoded, out)
}

func TestDecodeVector(t *testing.T) {
	recipient, sender := keys(t)

	out, err := Decode(encoded, recipient, false)
	require.NoError(t, err)
	assert.Equal(t, "memo爱", out)

	out, err = Decode(encoded, recipient, true)
	require.NoError(t, err)
	assert.Equal(t, "#memo爱", out)

	// The sender can read its own memo.
	out, err = Decode(encoded, sender, false)
	require.NoError(t, err)
	assert.Equal(t, "memo爱", out)
}

func TestEnvelope(t *testing.T) {
	recipient, sender := keys(t)

	var env EncryptedMemo
	require.NoError(t, env.UnmarshalBinary(base58.Decode(encoded[1:])))
	assert.True(t, env.From.Equal(sender.PublicKey()))
	assert.True(t, env.To.Equal(recipient.PublicKey()))
	assert.Equal(t, uint64(123), env.Nonce)
	assert.Equal(t, uint32(0xabd41749), env.Check)
	assert.Len(t, env.Encrypted, 16)

	raw, err := env.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, encoded[1:], base58.Encode(raw))

	err = env.UnmarshalBinary(append(raw, 0))
	assert.ErrorIs(t, err, hiveerr.ErrMalformedInput)
	err = env.UnmarshalBinary(raw[:40])
	assert.ErrorIs(t, err, hiveerr.ErrOutOfRange)

	_, err = (&EncryptedMemo{From: sender.PublicKey()}).MarshalBinary()
	assert.ErrorIs(t, err, hiveerr.ErrMalformedInput)
}

func TestRoundTrip(t *testing.T) {
	recipient, sender := keys(t)
	codec := NewCodec("")
	codec.Nonces = NewNonceGenerator(nil)

	for _, text := range []string{"", "hello", "a longer memo spanning several AES blocks of plaintext", "爱爱爱"} {
		out, err := codec.Encode(text, recipient.PublicKey(), sender)
		require.NoError(t, err)
		assert.True(t, len(out) > 1 && out[0] == '#')

		back, err := codec.Decode(out, recipient, false)
		require.NoError(t, err)
		assert.Equal(t, text, back)
	}
}

func TestFreshNonces(t *testing.T) {
	recipient, sender := keys(t)
	a, err := Encode("same", recipient.PublicKey(), sender)
	require.NoError(t, err)
	b, err := Encode("same", recipient.PublicKey(), sender)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestCustomMarker(t *testing.T) {
	recipient, sender := keys(t)
	codec := NewCodec("!")

	out, err := codec.Encode("hi", recipient.PublicKey(), sender, 1)
	require.NoError(t, err)
	assert.Equal(t, byte('!'), out[0])

	back, err := codec.Decode(out, recipient, true)
	require.NoError(t, err)
	assert.Equal(t, "!hi", back)

	// Under the default codec this is not an encrypted memo.
	plain, err := Decode(out, recipient, false)
	require.NoError(t, err)
	assert.Equal(t, out, plain)
}

func TestDecodePlain(t *testing.T) {
	recipient, _ := keys(t)
	out, err := Decode("just a memo", recipient, false)
	require.NoError(t, err)
	assert.Equal(t, "just a memo", out)
}

func TestDecodeWrongKey(t *testing.T) {
	stranger, err := crypto.PrivateKeyFromLogin("foo", "barman", crypto.RoleMemo)
	require.NoError(t, err)

	_, err = Decode(encoded, stranger, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, hiveerr.ErrInvalidKey)
	assert.ErrorIs(t, err, hiveerr.ErrChecksumMismatch)
}

func TestDecodeMalformed(t *testing.T) {
	recipient, _ := keys(t)

	_, err := Decode("#0OIl", recipient, false)
	assert.ErrorIs(t, err, hiveerr.ErrMalformedInput)

	_, err = Decode("#"+base58.Encode([]byte{1, 2, 3}), recipient, false)
	assert.Error(t, err)

	_, err = Decode(encoded, nil, false)
	assert.ErrorIs(t, err, hiveerr.ErrMalformedInput)
}

func TestDecodeBadCiphertext(t *testing.T) {
	recipient, sender := keys(t)

	var env EncryptedMemo
	require.NoError(t, env.UnmarshalBinary(base58.Decode(encoded[1:])))
	env.Encrypted = env.Encrypted[:15]
	raw, err := env.MarshalBinary()
	require.NoError(t, err)

	_, err = Decode("#"+base58.Encode(raw), recipient, false)
	assert.ErrorIs(t, err, hiveerr.ErrMalformedInput)

	_, err = Encode("x", recipient.PublicKey(), nil)
	assert.ErrorIs(t, err, hiveerr.ErrMalformedInput)
	_, err = Encode("x", crypto.NullPublicKey(), sender)
	assert.ErrorIs(t, err, hiveerr.ErrInvalidKey)
}

func TestDecodeLegacyPlaintext(t *testing.T) {
	recipient, sender := keys(t)

	// Old senders encrypted the bare text with no length prefix.
	km, err := deriveKey(sender, recipient.PublicKey(), 42)
	require.NoError(t, err)
	ciphertext, err := encryptCBC(km, []byte("hello"))
	require.NoError(t, err)
	raw, err := (&EncryptedMemo{
		From:      sender.PublicKey(),
		To:        recipient.PublicKey(),
		Nonce:     42,
		Check:     km.check,
		Encrypted: ciphertext,
	}).MarshalBinary()
	require.NoError(t, err)

	out, err := Decode("#"+base58.Encode(raw), recipient, false)
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}

func TestPKCS7(t *testing.T) {
	padded := pkcs7Pad([]byte("abc"), 16)
	assert.Len(t, padded, 16)
	assert.Equal(t, byte(13), padded[15])

	full := pkcs7Pad(make([]byte, 16), 16)
	assert.Len(t, full, 32)

	out, err := pkcs7Unpad(padded, 16)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), out)

	padded[14] = 1
	_, err = pkcs7Unpad(padded, 16)
	assert.ErrorIs(t, err, hiveerr.ErrMalformedInput)

	_, err = pkcs7Unpad(append(make([]byte, 15), 0), 16)
	assert.ErrorIs(t, err, hiveerr.ErrMalformedInput)
}

func TestNonceGenerator(t *testing.T) {
	clock := time.UnixMilli(1500137479000)
	g := NewNonceGenerator(func() time.Time { return clock })

	g.Reset(0)
	assert.Equal(t, uint64(1500137479000)<<16|1, g.Next())
	assert.Equal(t, uint64(1500137479000)<<16|2, g.Next())

	// The counter wraps at 0xFFFF.
	g.Reset(0xFFFE)
	assert.Equal(t, uint64(1500137479000)<<16, g.Next())
	assert.Equal(t, uint64(1500137479000)<<16|1, g.Next())

	// Seeds past the 16-bit range never yield the same value twice in a row.
	g.Reset(0xFFFFFFFE)
	a, b := g.Next(), g.Next()
	assert.NotEqual(t, a, b)
	repeats := 0
	for i := 0; i < 2*entropyMod; i++ {
		next := g.Next()
		if next == b {
			repeats++
		}
		b = next
	}
	assert.Zero(t, repeats)
}

func TestNonceGeneratorConcurrent(t *testing.T) {
	g := NewNonceGenerator(func() time.Time { return time.UnixMilli(1) })
	g.Reset(0)

	const n = 1000
	out := make(chan uint64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out <- g.Next()
		}()
	}
	wg.Wait()
	close(out)

	seen := make(map[uint64]bool, n)
	for v := range out {
		assert.False(t, seen[v], "duplicate nonce %d", v)
		seen[v] = true
	}
	assert.Len(t, seen, n)
}
