package crypto

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/suffix-labs/hive-tx-go/pkg/curve"
	"github.com/suffix-labs/hive-tx-go/pkg/hiveerr"
	"github.com/suffix-labs/hive-tx-go/pkg/log"
)

// MaxSignAttempts bounds the canonical signing loop. A signature is canonical
// with probability about 1/4 per attempt, so reaching the bound means
// something is broken rather than unlucky.
const MaxSignAttempts = 256

// SignatureLen is the length of r || s.
const SignatureLen = 64

// recoveryOffset is added to the recovery id in the 65-byte wire form
// (27 for "compact", +4 for compressed keys).
const recoveryOffset = 31

var logger = log.New("crypto")

// canonical decides whether Sign accepts a signature. Tests replace it.
var canonical = (*Signature).IsCanonical

// Signature is a recoverable ECDSA signature: r || s plus a recovery id.
type Signature struct {
	data     [SignatureLen]byte
	recovery byte
}

// NewSignature builds a signature from 64 bytes of r || s and a recovery id
// in [0, 3].
func NewSignature(rs []byte, recovery byte) (*Signature, error) {
	if len(rs) != SignatureLen {
		return nil, hiveerr.InvalidSignature("signature must be %d bytes, got %d", SignatureLen, len(rs))
	}
	if recovery > 3 {
		return nil, hiveerr.InvalidSignature("recovery id %d out of range", recovery)
	}
	sig := &Signature{recovery: recovery}
	copy(sig.data[:], rs)
	return sig, nil
}

// SignatureFromBytes parses the 65-byte wire form. A leading byte of 27-30
// (uncompressed key flag) is accepted as well as the usual 31-34.
func SignatureFromBytes(b []byte) (*Signature, error) {
	if len(b) != SignatureLen+1 {
		return nil, hiveerr.InvalidSignature("signature must be %d bytes, got %d", SignatureLen+1, len(b))
	}
	header := b[0]
	switch {
	case header >= recoveryOffset && header <= recoveryOffset+3:
		return NewSignature(b[1:], header-recoveryOffset)
	case header >= 27 && header <= 30:
		return NewSignature(b[1:], header-27)
	}
	return nil, hiveerr.InvalidSignature("invalid recovery header byte %d", header)
}

// ParseSignature parses the hex string form of a signature.
func ParseSignature(s string) (*Signature, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, &hiveerr.Error{Code: hiveerr.CodeInvalidSignature, Message: "signature is not hex", Cause: err}
	}
	return SignatureFromBytes(b)
}

// Bytes returns (recovery + 31) || r || s.
func (sig *Signature) Bytes() []byte {
	out := make([]byte, 0, SignatureLen+1)
	out = append(out, sig.recovery+recoveryOffset)
	return append(out, sig.data[:]...)
}

// String returns the hex encoding of Bytes.
func (sig *Signature) String() string {
	return hex.EncodeToString(sig.Bytes())
}

// Data returns r || s.
func (sig *Signature) Data() [SignatureLen]byte {
	return sig.data
}

// Recovery returns the recovery id.
func (sig *Signature) Recovery() byte {
	return sig.recovery
}

// IsCanonical reports whether the signature is in the canonical form the
// chain requires.
func (sig *Signature) IsCanonical() bool {
	return IsCanonical(sig.data[:])
}

// RequireCanonical returns an INVALID_SIGNATURE error for non-canonical
// signatures.
func (sig *Signature) RequireCanonical() error {
	if !sig.IsCanonical() {
		return hiveerr.InvalidSignature("signature is not canonical")
	}
	return nil
}

// IsCanonical checks the 64-byte r || s form: neither half may have its high
// bit set, and neither may start with a zero byte unless the following byte
// has its high bit set.
func IsCanonical(rs []byte) bool {
	if len(rs) != SignatureLen {
		return false
	}
	return rs[0]&0x80 == 0 &&
		!(rs[0] == 0 && rs[1]&0x80 == 0) &&
		rs[32]&0x80 == 0 &&
		!(rs[32] == 0 && rs[33]&0x80 == 0)
}

// Recover reconstructs the public key that produced sig over hash.
func (sig *Signature) Recover(hash [32]byte, prefix ...string) (*PublicKey, error) {
	compact := make([]byte, 0, SignatureLen+1)
	compact = append(compact, 27+4+sig.recovery)
	compact = append(compact, sig.data[:]...)

	key, _, err := ecdsa.RecoverCompact(compact, hash[:])
	if err != nil {
		return nil, &hiveerr.Error{Code: hiveerr.CodeInvalidSignature, Message: "public key recovery failed", Cause: err}
	}
	point := curve.FromPublicKey(key)
	return &PublicKey{point: point, data: point.Compress(), prefix: pickPrefix(prefix)}, nil
}

func (sig *Signature) scalars() (r, s secp256k1.ModNScalar, ok bool) {
	if overflow := r.SetByteSlice(sig.data[:32]); overflow || r.IsZero() {
		return r, s, false
	}
	if overflow := s.SetByteSlice(sig.data[32:]); overflow || s.IsZero() {
		return r, s, false
	}
	return r, s, true
}

// Sign produces a canonical, recoverable signature over a 32-byte hash.
//
// The nonce is RFC 6979 with extra entropy sha256(hash || attempt), attempt
// counting up from 1. When the result is not canonical the next attempt is
// tried, so the output is fully determined by the key and the hash.
func (pk *PrivateKey) Sign(hash [32]byte) (*Signature, error) {
	for attempt := 1; attempt <= MaxSignAttempts; attempt++ {
		extra := sha256.Sum256(append(hash[:], byte(attempt)))
		sig := signRFC6979(pk.key, hash, extra[:])
		if canonical(sig) {
			return sig, nil
		}
		logger.WithField("attempt", attempt).Debug("signature not canonical, retrying")
	}
	return nil, &hiveerr.Error{
		Code:    hiveerr.CodeSignatureExhausted,
		Message: "no canonical signature found",
	}
}

// signRFC6979 is ECDSA with a low-S normalized result and a recovery id.
func signRFC6979(key *secp256k1.PrivateKey, hash [32]byte, extra []byte) *Signature {
	privBytes := key.Serialize()
	defer zero(privBytes)

	var e secp256k1.ModNScalar
	e.SetByteSlice(hash[:])

	for iteration := uint32(0); ; iteration++ {
		k := secp256k1.NonceRFC6979(privBytes, hash[:], extra, nil, iteration)

		kG := curve.ScalarBaseMult(k)
		if kG.IsInfinity() {
			k.Zero()
			continue
		}
		x := kG.XBytes()

		var r secp256k1.ModNScalar
		overflow := r.SetByteSlice(x[:])
		if r.IsZero() {
			k.Zero()
			continue
		}
		recovery := byte(0)
		if overflow {
			recovery |= 0x02
		}
		if compressed := kG.Compress(); compressed[0] == 0x03 {
			recovery |= 0x01
		}

		kinv := new(secp256k1.ModNScalar).InverseValNonConst(k)
		k.Zero()
		s := new(secp256k1.ModNScalar).Mul2(&key.Key, &r).Add(&e).Mul(kinv)
		if s.IsZero() {
			continue
		}
		if s.IsOverHalfOrder() {
			s.Negate()
			recovery ^= 0x01
		}

		sig := &Signature{recovery: recovery}
		rBytes, sBytes := r.Bytes(), s.Bytes()
		copy(sig.data[:32], rBytes[:])
		copy(sig.data[32:], sBytes[:])
		return sig
	}
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
