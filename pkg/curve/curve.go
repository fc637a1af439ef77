// Package curve implements the secp256k1 point arithmetic used by the key
// model.
//
// The curve is y² = x³ + 7 over the prime field p, with generator G and group
// order n (SEC 2, section 2.4.1). Field and scalar arithmetic come from
// github.com/decred/dcrd/dcrec/secp256k1/v4; this package adds a value-typed
// Point with an explicit point at infinity, encoding/decoding with on-curve
// validation, and scalar range checks.
//
// Points are kept in affine form. Operations go through Jacobian coordinates
// internally and normalize back before returning.
package curve

import (
	"errors"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

var (
	// ErrInvalidPoint indicates an encoding that is not a point on the curve.
	ErrInvalidPoint = errors.New("invalid point")

	// ErrInvalidScalar indicates a scalar outside [1, n-1].
	ErrInvalidScalar = errors.New("invalid scalar")

	// ErrIdentity indicates the point at infinity where a real point is required.
	ErrIdentity = errors.New("point at infinity")
)

// Encoded sizes.
const (
	CompressedLen   = 33
	UncompressedLen = 65
	ScalarLen       = 32
)

// P returns the field prime.
func P() *big.Int { return new(big.Int).Set(secp256k1.Params().P) }

// N returns the group order.
func N() *big.Int { return new(big.Int).Set(secp256k1.Params().N) }

// Point is an affine curve point or the point at infinity. The zero value is
// the point at infinity.
type Point struct {
	x, y     secp256k1.FieldVal
	infinite bool
	set      bool // false for the zero value, which is infinity
}

// Infinity returns the identity element.
func Infinity() Point {
	return Point{infinite: true, set: true}
}

// Generator returns G.
func Generator() Point {
	var one secp256k1.ModNScalar
	one.SetInt(1)
	return ScalarBaseMult(&one)
}

func fromJacobian(j *secp256k1.JacobianPoint) Point {
	z := j.Z
	if z.Normalize().IsZero() {
		return Infinity()
	}
	j.ToAffine()
	if j.X.IsZero() && j.Y.IsZero() {
		return Infinity()
	}
	p := Point{set: true}
	p.x.Set(&j.X)
	p.y.Set(&j.Y)
	p.x.Normalize()
	p.y.Normalize()
	return p
}

func (p Point) jacobian() secp256k1.JacobianPoint {
	var j secp256k1.JacobianPoint
	if p.IsInfinity() {
		return j
	}
	j.X.Set(&p.x)
	j.Y.Set(&p.y)
	j.Z.SetInt(1)
	return j
}

// IsInfinity reports whether p is the identity element.
func (p Point) IsInfinity() bool {
	return !p.set || p.infinite
}

// Add returns p + q.
func (p Point) Add(q Point) Point {
	if p.IsInfinity() {
		return q
	}
	if q.IsInfinity() {
		return p
	}
	a, b := p.jacobian(), q.jacobian()
	var r secp256k1.JacobianPoint
	secp256k1.AddNonConst(&a, &b, &r)
	return fromJacobian(&r)
}

// Double returns 2p.
func (p Point) Double() Point {
	if p.IsInfinity() {
		return p
	}
	a := p.jacobian()
	var r secp256k1.JacobianPoint
	secp256k1.DoubleNonConst(&a, &r)
	return fromJacobian(&r)
}

// Negate returns -p.
func (p Point) Negate() Point {
	if p.IsInfinity() {
		return p
	}
	n := p
	n.y.Negate(1).Normalize()
	return n
}

// ScalarMult returns k·p.
func (p Point) ScalarMult(k *secp256k1.ModNScalar) Point {
	if p.IsInfinity() || k.IsZero() {
		return Infinity()
	}
	a := p.jacobian()
	var r secp256k1.JacobianPoint
	secp256k1.ScalarMultNonConst(k, &a, &r)
	return fromJacobian(&r)
}

// ScalarBaseMult returns k·G.
func ScalarBaseMult(k *secp256k1.ModNScalar) Point {
	if k.IsZero() {
		return Infinity()
	}
	var r secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(k, &r)
	return fromJacobian(&r)
}

// IsOnCurve reports whether p satisfies y² = x³ + 7. The point at infinity is
// not on the curve in this sense.
func (p Point) IsOnCurve() bool {
	if p.IsInfinity() {
		return false
	}
	var lhs, rhs secp256k1.FieldVal
	lhs.SquareVal(&p.y).Normalize()
	rhs.SquareVal(&p.x).Mul(&p.x).AddInt(7).Normalize()
	return lhs.Equals(&rhs)
}

// Equal reports whether p and q are the same point.
func (p Point) Equal(q Point) bool {
	if p.IsInfinity() || q.IsInfinity() {
		return p.IsInfinity() == q.IsInfinity()
	}
	return p.x.Equals(&q.x) && p.y.Equals(&q.y)
}

// XBytes returns the big-endian x coordinate. It is all zeros for infinity.
func (p Point) XBytes() [32]byte {
	var out [32]byte
	if !p.IsInfinity() {
		p.x.PutBytes(&out)
	}
	return out
}

// Compress returns the 33-byte SEC1 compressed encoding: 0x02 or 0x03 for the
// parity of y, then x. Infinity encodes as 33 zero bytes, the same bytes the
// null public key uses.
func (p Point) Compress() [CompressedLen]byte {
	var out [CompressedLen]byte
	if p.IsInfinity() {
		return out
	}
	out[0] = 0x02
	if p.y.IsOdd() {
		out[0] = 0x03
	}
	var x [32]byte
	p.x.PutBytes(&x)
	copy(out[1:], x[:])
	return out
}

// SerializeUncompressed returns 0x04 ‖ x ‖ y.
func (p Point) SerializeUncompressed() [UncompressedLen]byte {
	var out [UncompressedLen]byte
	if p.IsInfinity() {
		return out
	}
	out[0] = 0x04
	var x, y [32]byte
	p.x.PutBytes(&x)
	p.y.PutBytes(&y)
	copy(out[1:33], x[:])
	copy(out[33:], y[:])
	return out
}

// PublicKey converts p to the decred public key type used for verification.
func (p Point) PublicKey() (*secp256k1.PublicKey, error) {
	if p.IsInfinity() {
		return nil, ErrIdentity
	}
	x, y := p.x, p.y
	return secp256k1.NewPublicKey(&x, &y), nil
}

// FromPublicKey converts a decred public key to a Point.
func FromPublicKey(pub *secp256k1.PublicKey) Point {
	var j secp256k1.JacobianPoint
	pub.AsJacobian(&j)
	return fromJacobian(&j)
}

// Decode parses a compressed (33-byte) or uncompressed (65-byte) point. The
// result is guaranteed to lie on the curve and is never the identity.
func Decode(b []byte) (Point, error) {
	switch len(b) {
	case CompressedLen:
		if b[0] != 0x02 && b[0] != 0x03 {
			return Point{}, ErrInvalidPoint
		}
		p := Point{set: true}
		if overflow := p.x.SetByteSlice(b[1:]); overflow {
			return Point{}, ErrInvalidPoint
		}
		if !secp256k1.DecompressY(&p.x, b[0] == 0x03, &p.y) {
			return Point{}, ErrInvalidPoint
		}
		p.y.Normalize()
		return p, nil

	case UncompressedLen:
		if b[0] != 0x04 {
			return Point{}, ErrInvalidPoint
		}
		p := Point{set: true}
		if overflow := p.x.SetByteSlice(b[1:33]); overflow {
			return Point{}, ErrInvalidPoint
		}
		if overflow := p.y.SetByteSlice(b[33:]); overflow {
			return Point{}, ErrInvalidPoint
		}
		if !p.IsOnCurve() {
			return Point{}, ErrInvalidPoint
		}
		return p, nil
	}
	return Point{}, ErrInvalidPoint
}

// DecodeAllowNull is Decode that also accepts the 33 zero bytes of the null
// key, returned as the identity.
func DecodeAllowNull(b []byte) (Point, error) {
	if IsNullEncoding(b) {
		return Infinity(), nil
	}
	return Decode(b)
}

// IsNullEncoding reports whether b is the 33 zero bytes reserved for the
// null public key.
func IsNullEncoding(b []byte) bool {
	if len(b) != CompressedLen {
		return false
	}
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

// ParseScalar interprets b as a big-endian scalar and checks 0 < k < n.
func ParseScalar(b []byte) (*secp256k1.ModNScalar, error) {
	if len(b) != ScalarLen {
		return nil, ErrInvalidScalar
	}
	var k secp256k1.ModNScalar
	if overflow := k.SetByteSlice(b); overflow {
		return nil, ErrInvalidScalar
	}
	if k.IsZero() {
		return nil, ErrInvalidScalar
	}
	return &k, nil
}
