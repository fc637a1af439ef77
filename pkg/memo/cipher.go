package memo

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/suffix-labs/hive-tx-go/pkg/crypto"
	"github.com/suffix-labs/hive-tx-go/pkg/hiveerr"
)

// keyMaterial holds the AES key and IV derived for one nonce.
type keyMaterial struct {
	key   []byte
	iv    []byte
	check uint32
}

// deriveKey computes sha512(nonce ‖ sha512(x(priv·pub))). The first 32 bytes
// are the AES-256 key, the next 16 the IV. check is the first 4 bytes of
// sha256 of the whole 64 bytes.
func deriveKey(priv *crypto.PrivateKey, pub *crypto.PublicKey, nonce uint64) (keyMaterial, error) {
	secret, err := priv.SharedSecret(pub)
	if err != nil {
		return keyMaterial{}, err
	}

	var seed [8 + sha512.Size]byte
	binary.LittleEndian.PutUint64(seed[:8], nonce)
	copy(seed[8:], secret[:])
	ek := sha512.Sum512(seed[:])

	sum := sha256.Sum256(ek[:])
	return keyMaterial{
		key:   ek[:32],
		iv:    ek[32:48],
		check: binary.LittleEndian.Uint32(sum[:4]),
	}, nil
}

func encryptCBC(km keyMaterial, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(km.key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create cipher")
	}
	padded := pkcs7Pad(plaintext, block.BlockSize())
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, km.iv).CryptBlocks(out, padded)
	return out, nil
}

func decryptCBC(km keyMaterial, ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(km.key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create cipher")
	}
	if len(ciphertext) == 0 || len(ciphertext)%block.BlockSize() != 0 {
		return nil, hiveerr.Malformed("ciphertext length %d is not a multiple of %d", len(ciphertext), block.BlockSize())
	}
	out := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, km.iv).CryptBlocks(out, ciphertext)
	return pkcs7Unpad(out, block.BlockSize())
}

func pkcs7Pad(p []byte, size int) []byte {
	n := size - len(p)%size
	return append(append([]byte{}, p...), bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(p []byte, size int) ([]byte, error) {
	n := int(p[len(p)-1])
	if n == 0 || n > size || n > len(p) {
		return nil, hiveerr.Malformed("invalid padding")
	}
	for _, c := range p[len(p)-n:] {
		if int(c) != n {
			return nil, hiveerr.Malformed("invalid padding")
		}
	}
	return p[:len(p)-n], nil
}
