// Package crypto implements the key model: secp256k1 private keys, public
// keys and recoverable signatures.
//
// Key formats:
//   - Private keys: WIF (0x80 || key || sha256d checksum, base58) or raw 32 bytes
//   - Public keys: compressed 33-byte point, rendered as an address prefix
//     (e.g. "STM") followed by base58(key || ripemd160(key)[:4])
//   - Signatures: 65 bytes, (recovery id + 31) || r || s, hex encoded
//
// All types are immutable once constructed.
package crypto

import (
	"crypto/sha256"
	"crypto/sha512"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/suffix-labs/hive-tx-go/pkg/curve"
	"github.com/suffix-labs/hive-tx-go/pkg/hiveerr"
)

// DefaultAddressPrefix is the public key prefix of the main network.
const DefaultAddressPrefix = "STM"

// Role names the authority a login-derived key belongs to.
type Role string

// Account roles.
const (
	RoleOwner   Role = "owner"
	RoleActive  Role = "active"
	RolePosting Role = "posting"
	RoleMemo    Role = "memo"
)

// Roles lists all account roles in authority order.
var Roles = []Role{RoleOwner, RoleActive, RolePosting, RoleMemo}

// PrivateKey wraps a secp256k1 private scalar.
type PrivateKey struct {
	key *secp256k1.PrivateKey
}

// PublicKey is a compressed curve point plus the prefix used to render it.
// The all-zero key is the null sentinel and carries no point.
type PublicKey struct {
	point  curve.Point
	data   [curve.CompressedLen]byte
	prefix string
}

// PrivateKeyFromBytes creates a private key from a raw 32-byte scalar.
func PrivateKeyFromBytes(keyBytes []byte) (*PrivateKey, error) {
	k, err := curve.ParseScalar(keyBytes)
	if err != nil {
		return nil, hiveerr.MalformedCause(err, "private key must be 32 bytes in [1, n-1], got %d bytes", len(keyBytes))
	}
	return &PrivateKey{key: secp256k1.NewPrivateKey(k)}, nil
}

// ParsePrivateKeyWIF parses a WIF-encoded private key.
func ParsePrivateKeyWIF(wif string) (*PrivateKey, error) {
	decoded, err := decodeWIF(wif)
	if err != nil {
		return nil, err
	}
	return PrivateKeyFromBytes(decoded)
}

// PrivateKeyFromSeed derives a key from sha256(seed). Identical seeds always
// give identical keys.
func PrivateKeyFromSeed(seed string) (*PrivateKey, error) {
	digest := sha256.Sum256([]byte(seed))
	return PrivateKeyFromBytes(digest[:])
}

// PrivateKeyFromLogin derives the role key of an account from its master
// password: sha256(username + role + password).
func PrivateKeyFromLogin(username, password string, role Role) (*PrivateKey, error) {
	if role == "" {
		role = RoleActive
	}
	return PrivateKeyFromSeed(username + string(role) + password)
}

// Bytes returns the raw 32-byte private key.
func (pk *PrivateKey) Bytes() []byte {
	return pk.key.Serialize()
}

// WIF returns the WIF encoding of the key.
func (pk *PrivateKey) WIF() string {
	return encodeWIF(pk.Bytes())
}

// String returns the WIF encoding of the key.
func (pk *PrivateKey) String() string {
	return pk.WIF()
}

// PublicKey derives the public key. The prefix defaults to
// DefaultAddressPrefix.
func (pk *PrivateKey) PublicKey(prefix ...string) *PublicKey {
	point := curve.ScalarBaseMult(&pk.key.Key)
	return &PublicKey{point: point, data: point.Compress(), prefix: pickPrefix(prefix)}
}

// IsPublicKey reports whether candidate is the string form of this key's
// public key under prefix.
func (pk *PrivateKey) IsPublicKey(candidate string, prefix ...string) bool {
	return pk.PublicKey(prefix...).String() == candidate
}

// SharedSecret returns sha512 of the x coordinate of priv·pub. Both parties of
// a memo derive the same 64 bytes.
func (pk *PrivateKey) SharedSecret(pub *PublicKey) ([sha512.Size]byte, error) {
	if pub.IsNull() {
		return [sha512.Size]byte{}, hiveerr.InvalidKey("cannot derive a shared secret with the null key")
	}
	shared := pub.point.ScalarMult(&pk.key.Key)
	x := shared.XBytes()
	return sha512.Sum512(x[:]), nil
}

func pickPrefix(prefix []string) string {
	if len(prefix) > 0 && prefix[0] != "" {
		return prefix[0]
	}
	return DefaultAddressPrefix
}

// NullPublicKey returns the all-zero sentinel key.
func NullPublicKey(prefix ...string) *PublicKey {
	return &PublicKey{point: curve.Infinity(), prefix: pickPrefix(prefix)}
}

// PublicKeyFromBytes parses a 33-byte compressed key. The 33 zero bytes of the
// null key are accepted without curve validation.
func PublicKeyFromBytes(pubKeyBytes []byte, prefix ...string) (*PublicKey, error) {
	if len(pubKeyBytes) != curve.CompressedLen {
		return nil, hiveerr.Malformed("compressed public key must be 33 bytes, got %d", len(pubKeyBytes))
	}
	point, err := curve.DecodeAllowNull(pubKeyBytes)
	if err != nil {
		return nil, &hiveerr.Error{Code: hiveerr.CodeInvalidKey, Message: "public key is not on the curve", Cause: err}
	}
	pub := &PublicKey{point: point, prefix: pickPrefix(prefix)}
	copy(pub.data[:], pubKeyBytes)
	return pub, nil
}

// ParsePublicKey parses the string form of a public key. When prefix is
// empty, the first three characters are taken as the prefix.
func ParsePublicKey(s string, prefix ...string) (*PublicKey, error) {
	p := ""
	if len(prefix) > 0 {
		p = prefix[0]
	}
	if p == "" {
		if len(s) < 3 {
			return nil, hiveerr.Malformed("public key %q too short", s)
		}
		p = s[:3]
	}
	if !strings.HasPrefix(s, p) {
		return nil, hiveerr.Malformed("public key %q does not start with prefix %q", s, p)
	}
	key, err := decodePublicKey(s[len(p):])
	if err != nil {
		return nil, err
	}
	return PublicKeyFromBytes(key, p)
}

// String renders the key with its prefix.
func (pub *PublicKey) String() string {
	return encodePublicKey(pub.data[:], pub.prefix)
}

// Bytes returns the compressed public key bytes.
func (pub *PublicKey) Bytes() []byte {
	out := make([]byte, curve.CompressedLen)
	copy(out, pub.data[:])
	return out
}

// SerializeCompressed returns the 33-byte compressed public key.
func (pub *PublicKey) SerializeCompressed() [33]byte {
	return pub.data
}

// Prefix returns the address prefix used by String.
func (pub *PublicKey) Prefix() string {
	return pub.prefix
}

// WithPrefix returns a copy of the key rendered under prefix.
func (pub *PublicKey) WithPrefix(prefix string) *PublicKey {
	cp := *pub
	cp.prefix = prefix
	return &cp
}

// IsNull reports whether this is the all-zero sentinel key.
func (pub *PublicKey) IsNull() bool {
	return pub.point.IsInfinity()
}

// Point returns the curve point of the key.
func (pub *PublicKey) Point() curve.Point {
	return pub.point
}

// Equal compares keys by their compressed bytes; prefixes are ignored.
func (pub *PublicKey) Equal(other *PublicKey) bool {
	return other != nil && pub.data == other.data
}

// Verify checks sig against hash. It never accepts the null key.
func (pub *PublicKey) Verify(hash [32]byte, sig *Signature) bool {
	if pub.IsNull() || sig == nil {
		return false
	}
	key, err := pub.point.PublicKey()
	if err != nil {
		return false
	}
	r, s, ok := sig.scalars()
	if !ok {
		return false
	}
	return ecdsa.NewSignature(&r, &s).Verify(hash[:], key)
}

// MarshalText implements encoding.TextMarshaler.
func (pub *PublicKey) MarshalText() ([]byte, error) {
	return []byte(pub.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (pub *PublicKey) UnmarshalText(text []byte) error {
	parsed, err := ParsePublicKey(string(text))
	if err != nil {
		return err
	}
	*pub = *parsed
	return nil
}
