package crypto

import (
	"bytes"
	"crypto/sha256"

	"github.com/btcsuite/btcutil/base58"
	"golang.org/x/crypto/ripemd160"

	"github.com/suffix-labs/hive-tx-go/pkg/hiveerr"
)

// WIFVersion is the version byte prepended to private keys in WIF.
const WIFVersion = 0x80

const (
	checksumLen = 4
	wifLen      = 1 + 32 + checksumLen
	pubKeyLen   = 33 + checksumLen
)

// doubleSHA256Checksum returns the first 4 bytes of sha256(sha256(payload)).
func doubleSHA256Checksum(payload []byte) []byte {
	hash1 := sha256.Sum256(payload)
	hash2 := sha256.Sum256(hash1[:])
	return hash2[:checksumLen]
}

// ripemd160Checksum returns the first 4 bytes of ripemd160(payload).
func ripemd160Checksum(payload []byte) []byte {
	h := ripemd160.New()
	h.Write(payload)
	return h.Sum(nil)[:checksumLen]
}

// decodeWIF decodes a WIF-encoded private key.
// WIF format: version_byte (0x80) || private_key (32 bytes) || checksum (4 bytes)
func decodeWIF(wif string) ([]byte, error) {
	decoded := base58.Decode(wif)
	if len(decoded) != wifLen {
		return nil, hiveerr.Malformed("invalid WIF length %d", len(decoded))
	}

	if version := decoded[0]; version != WIFVersion {
		return nil, hiveerr.Malformed("invalid WIF version byte: 0x%02x", version)
	}

	checksumOffset := len(decoded) - checksumLen
	payload := decoded[:checksumOffset]
	if !bytes.Equal(decoded[checksumOffset:], doubleSHA256Checksum(payload)) {
		return nil, hiveerr.Checksum("WIF checksum mismatch")
	}

	return payload[1:], nil
}

// encodeWIF encodes a 32-byte private key to WIF.
func encodeWIF(privateKey []byte) string {
	payload := make([]byte, 0, wifLen)
	payload = append(payload, WIFVersion)
	payload = append(payload, privateKey...)
	payload = append(payload, doubleSHA256Checksum(payload)...)
	return base58.Encode(payload)
}

// encodePublicKey renders prefix || base58(key || ripemd160(key)[:4]).
func encodePublicKey(key []byte, prefix string) string {
	payload := make([]byte, 0, pubKeyLen)
	payload = append(payload, key...)
	payload = append(payload, ripemd160Checksum(key)...)
	return prefix + base58.Encode(payload)
}

// decodePublicKey strips prefix and verifies the ripemd160 checksum.
func decodePublicKey(body string) ([]byte, error) {
	decoded := base58.Decode(body)
	if len(decoded) != pubKeyLen {
		return nil, hiveerr.Malformed("invalid public key length %d", len(decoded))
	}
	key := decoded[:33]
	if !bytes.Equal(decoded[33:], ripemd160Checksum(key)) {
		return nil, hiveerr.Checksum("public key checksum mismatch")
	}
	return key, nil
}
