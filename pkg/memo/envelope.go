package memo

import (
	"github.com/pkg/errors"

	"github.com/suffix-labs/hive-tx-go/pkg/bytebuffer"
	"github.com/suffix-labs/hive-tx-go/pkg/crypto"
	"github.com/suffix-labs/hive-tx-go/pkg/hiveerr"
)

// pubKeyLen is the size of a compressed public key on the wire.
const pubKeyLen = 33

// EncryptedMemo is the binary envelope carried, base58 encoded, in a
// transfer memo.
type EncryptedMemo struct {
	From      *crypto.PublicKey
	To        *crypto.PublicKey
	Nonce     uint64
	Check     uint32 // First 4 bytes of sha256 of the key material, little-endian
	Encrypted []byte
}

// MarshalBinary writes from ‖ to ‖ nonce ‖ check ‖ varint(len) ‖ ciphertext.
func (m *EncryptedMemo) MarshalBinary() ([]byte, error) {
	if m.From == nil || m.To == nil {
		return nil, hiveerr.Malformed("memo envelope needs both keys")
	}
	b := bytebuffer.New(2*pubKeyLen + 8 + 4 + bytebuffer.MaxVarint32Len + len(m.Encrypted))
	b.WriteBytes(m.From.Bytes())
	b.WriteBytes(m.To.Bytes())
	b.WriteUint64(m.Nonce)
	b.WriteUint32(m.Check)
	b.WriteVBytes(m.Encrypted)
	return b.Bytes(), nil
}

// UnmarshalBinary parses the envelope. Trailing bytes are rejected.
func (m *EncryptedMemo) UnmarshalBinary(data []byte) error {
	b := bytebuffer.Wrap(data)

	from, err := readKey(b)
	if err != nil {
		return errors.Wrap(err, "from key")
	}
	to, err := readKey(b)
	if err != nil {
		return errors.Wrap(err, "to key")
	}
	nonce, err := b.ReadUint64()
	if err != nil {
		return errors.Wrap(err, "nonce")
	}
	check, err := b.ReadUint32()
	if err != nil {
		return errors.Wrap(err, "check")
	}
	encrypted, err := b.ReadVBytes()
	if err != nil {
		return errors.Wrap(err, "ciphertext")
	}
	if b.Remaining() != 0 {
		return hiveerr.Malformed("%d trailing bytes after memo envelope", b.Remaining())
	}

	*m = EncryptedMemo{From: from, To: to, Nonce: nonce, Check: check, Encrypted: encrypted}
	return nil
}

func readKey(b *bytebuffer.Buffer) (*crypto.PublicKey, error) {
	raw, err := b.ReadBytes(pubKeyLen)
	if err != nil {
		return nil, err
	}
	return crypto.PublicKeyFromBytes(raw)
}
