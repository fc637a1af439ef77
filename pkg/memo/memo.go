// Package memo encrypts and decrypts private transfer memos.
//
// The sender and recipient derive the same secret by ECDH. Each memo uses a
// fresh nonce, so the AES key and IV differ per memo even between the same
// two accounts. The text form is the marker character followed by the base58
// envelope:
//
//	#<base58(from ‖ to ‖ nonce ‖ check ‖ varint(len) ‖ ciphertext)>
package memo

import (
	"strings"

	"github.com/btcsuite/btcutil/base58"
	"github.com/pkg/errors"

	"github.com/suffix-labs/hive-tx-go/pkg/bytebuffer"
	"github.com/suffix-labs/hive-tx-go/pkg/crypto"
	"github.com/suffix-labs/hive-tx-go/pkg/hiveerr"
	"github.com/suffix-labs/hive-tx-go/pkg/log"
)

// DefaultMarker prefixes encrypted memos.
const DefaultMarker = "#"

var logger = log.New("memo")

// Codec encodes and decodes memos with a given marker.
type Codec struct {
	Marker string
	Nonces *NonceGenerator
}

// NewCodec creates a Codec. An empty marker means DefaultMarker.
func NewCodec(marker string) *Codec {
	if marker == "" {
		marker = DefaultMarker
	}
	return &Codec{Marker: marker, Nonces: DefaultNonces}
}

// DefaultCodec uses "#" and DefaultNonces.
var DefaultCodec = NewCodec(DefaultMarker)

// Encode encrypts text from sender to recipient. A leading marker on text is
// dropped. When nonce is omitted a fresh one is drawn from c.Nonces.
func (c *Codec) Encode(text string, to *crypto.PublicKey, from *crypto.PrivateKey, nonce ...uint64) (string, error) {
	if to == nil || from == nil {
		return "", hiveerr.Malformed("memo needs a recipient and a sender key")
	}
	text = strings.TrimPrefix(text, c.Marker)

	var n uint64
	if len(nonce) > 0 {
		n = nonce[0]
	} else {
		n = c.Nonces.Next()
	}

	km, err := deriveKey(from, to, n)
	if err != nil {
		return "", err
	}

	plain := bytebuffer.New(bytebuffer.MaxVarint32Len + len(text))
	plain.WriteVString(text)
	encrypted, err := encryptCBC(km, plain.Bytes())
	if err != nil {
		return "", err
	}

	envelope := &EncryptedMemo{
		From:      from.PublicKey(),
		To:        to,
		Nonce:     n,
		Check:     km.check,
		Encrypted: encrypted,
	}
	raw, err := envelope.MarshalBinary()
	if err != nil {
		return "", err
	}
	logger.WithField("nonce", n).Debug("memo encrypted")
	return c.Marker + base58.Encode(raw), nil
}

// Decode decrypts a memo addressed to, or sent by, priv. Text without the
// marker is a plain memo and is returned unchanged. keepPrefix puts the
// marker back in front of the plaintext.
func (c *Codec) Decode(text string, priv *crypto.PrivateKey, keepPrefix bool) (string, error) {
	if priv == nil {
		return "", hiveerr.Malformed("memo needs a private key")
	}
	if !strings.HasPrefix(text, c.Marker) {
		return text, nil
	}

	raw := base58.Decode(strings.TrimPrefix(text, c.Marker))
	if len(raw) == 0 {
		return "", hiveerr.Malformed("memo is not base58")
	}
	var envelope EncryptedMemo
	if err := envelope.UnmarshalBinary(raw); err != nil {
		return "", errors.Wrap(err, "failed to parse memo envelope")
	}

	// Either party can decrypt: the shared secret is the same from both sides.
	other := envelope.From
	if priv.PublicKey().Equal(envelope.From) {
		other = envelope.To
	}

	km, err := deriveKey(priv, other, envelope.Nonce)
	if err != nil {
		return "", err
	}
	if km.check != envelope.Check {
		return "", &hiveerr.Error{
			Code:    hiveerr.CodeInvalidKey,
			Message: "memo was not encrypted for this key",
			Cause:   hiveerr.Checksum("check %08x, expected %08x", km.check, envelope.Check),
		}
	}

	plain, err := decryptCBC(km, envelope.Encrypted)
	if err != nil {
		return "", errors.Wrap(err, "failed to decrypt memo")
	}

	out, err := bytebuffer.Wrap(plain).ReadVString()
	if err != nil {
		// Old clients encrypted the bare UTF-8 text with no length prefix.
		out = string(plain)
	}
	if keepPrefix {
		out = c.Marker + out
	}
	return out, nil
}

// Encode encrypts text with DefaultCodec.
func Encode(text string, to *crypto.PublicKey, from *crypto.PrivateKey, nonce ...uint64) (string, error) {
	return DefaultCodec.Encode(text, to, from, nonce...)
}

// Decode decrypts text with DefaultCodec.
func Decode(text string, priv *crypto.PrivateKey, keepPrefix bool) (string, error) {
	return DefaultCodec.Decode(text, priv, keepPrefix)
}
