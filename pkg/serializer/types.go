// Package serializer encodes operations and transactions into the chain's
// binary wire format.
//
// The format is built from a small set of combinators:
//
//	Object(fields...)        fields in declaration order, no names or tags
//	Array(item)              varint(count) || items
//	FlatMap(key, value)      varint(count) || (key || value)...
//	Optional(item)           0x00 when absent, 0x01 || item otherwise
//	StaticVariant(items...)  varint(tag) || items[tag]
//
// Primitives are little-endian fixed-width integers, varint-prefixed strings
// and binaries, uint32 seconds for dates and 33-byte compressed public keys.
// Failures inside a composite carry the dotted path of the failing field.
package serializer

import (
	"reflect"
	"strconv"
	"time"

	"github.com/suffix-labs/hive-tx-go/pkg/bytebuffer"
	"github.com/suffix-labs/hive-tx-go/pkg/hiveerr"
)

// Serializer writes v to b.
type Serializer func(b *bytebuffer.Buffer, v interface{}) error

// Field is a named member of an Object.
type Field struct {
	Name       string
	Serializer Serializer
}

// F is shorthand for a Field literal.
func F(name string, s Serializer) Field {
	return Field{Name: name, Serializer: s}
}

// Int8 writes a signed byte.
func Int8(b *bytebuffer.Buffer, v interface{}) error {
	n, err := signedInRange(v, 8)
	if err != nil {
		return err
	}
	b.WriteInt8(int8(n))
	return nil
}

// Int16 writes a little-endian int16.
func Int16(b *bytebuffer.Buffer, v interface{}) error {
	n, err := signedInRange(v, 16)
	if err != nil {
		return err
	}
	b.WriteInt16(int16(n))
	return nil
}

// Int32 writes a little-endian int32.
func Int32(b *bytebuffer.Buffer, v interface{}) error {
	n, err := signedInRange(v, 32)
	if err != nil {
		return err
	}
	b.WriteInt32(int32(n))
	return nil
}

// Int64 writes a little-endian int64.
func Int64(b *bytebuffer.Buffer, v interface{}) error {
	n, err := signedInRange(v, 64)
	if err != nil {
		return err
	}
	b.WriteInt64(n)
	return nil
}

// UInt8 writes a byte.
func UInt8(b *bytebuffer.Buffer, v interface{}) error {
	n, err := unsignedInRange(v, 8)
	if err != nil {
		return err
	}
	b.WriteUint8(uint8(n))
	return nil
}

// UInt16 writes a little-endian uint16.
func UInt16(b *bytebuffer.Buffer, v interface{}) error {
	n, err := unsignedInRange(v, 16)
	if err != nil {
		return err
	}
	b.WriteUint16(uint16(n))
	return nil
}

// UInt32 writes a little-endian uint32.
func UInt32(b *bytebuffer.Buffer, v interface{}) error {
	n, err := unsignedInRange(v, 32)
	if err != nil {
		return err
	}
	b.WriteUint32(uint32(n))
	return nil
}

// UInt64 writes a little-endian uint64.
func UInt64(b *bytebuffer.Buffer, v interface{}) error {
	n, err := unsignedInRange(v, 64)
	if err != nil {
		return err
	}
	b.WriteUint64(n)
	return nil
}

// Bool writes 0x01 or 0x00.
func Bool(b *bytebuffer.Buffer, v interface{}) error {
	x, err := toBool(v)
	if err != nil {
		return err
	}
	b.WriteBool(x)
	return nil
}

// String writes a varint length followed by the UTF-8 bytes.
func String(b *bytebuffer.Buffer, v interface{}) error {
	s, err := toString(v)
	if err != nil {
		return err
	}
	b.WriteVString(s)
	return nil
}

// Date writes whole seconds since the epoch as a uint32.
func Date(b *bytebuffer.Buffer, v interface{}) error {
	t, err := toTime(v)
	if err != nil {
		return err
	}
	secs := t.Unix()
	if secs < 0 || secs > int64(^uint32(0)) {
		return hiveerr.OutOfRange("date %s outside uint32 seconds", t.Format(time.RFC3339))
	}
	b.WriteUint32(uint32(secs))
	return nil
}

// PublicKey writes the 33-byte compressed key. The null key writes 33 zero
// bytes.
func PublicKey(b *bytebuffer.Buffer, v interface{}) error {
	pub, err := toPublicKey(v)
	if err != nil {
		return err
	}
	b.WriteBytes(pub.Bytes())
	return nil
}

// Binary writes raw bytes. With size > 0 the value must be exactly size bytes
// and no length is written; otherwise the bytes are varint-length prefixed.
func Binary(size int) Serializer {
	return func(b *bytebuffer.Buffer, v interface{}) error {
		data, err := toBytes(v)
		if err != nil {
			return err
		}
		if size > 0 {
			if len(data) != size {
				return hiveerr.Malformed("binary must be %d bytes, got %d", size, len(data))
			}
			b.WriteBytes(data)
			return nil
		}
		b.WriteVBytes(data)
		return nil
	}
}

// VariableBinary is a varint-length prefixed binary.
var VariableBinary = Binary(0)

// Void is the placeholder of reserved variant slots. It never serializes.
func Void(b *bytebuffer.Buffer, v interface{}) error {
	return hiveerr.Malformed("void can not be serialized")
}

// Array writes varint(count) followed by each element.
func Array(item Serializer) Serializer {
	return func(b *bytebuffer.Buffer, v interface{}) error {
		items, err := toSlice(v)
		if err != nil {
			return err
		}
		b.WriteVarint32(uint32(len(items)))
		for i, it := range items {
			if err := item(b, it); err != nil {
				return hiveerr.WrapField(strconv.Itoa(i), err)
			}
		}
		return nil
	}
}

// FlatMap writes varint(count) followed by key/value pairs in input order.
func FlatMap(key, value Serializer) Serializer {
	return func(b *bytebuffer.Buffer, v interface{}) error {
		pairs, err := toPairs(v)
		if err != nil {
			return err
		}
		b.WriteVarint32(uint32(len(pairs)))
		for i, p := range pairs {
			if err := key(b, p[0]); err != nil {
				return hiveerr.WrapField(strconv.Itoa(i), err)
			}
			if err := value(b, p[1]); err != nil {
				return hiveerr.WrapField(strconv.Itoa(i), err)
			}
		}
		return nil
	}
}

// Optional writes 0x00 for nil and 0x01 followed by the value otherwise.
func Optional(item Serializer) Serializer {
	return func(b *bytebuffer.Buffer, v interface{}) error {
		if isNil(v) {
			b.WriteUint8(0)
			return nil
		}
		b.WriteUint8(1)
		return item(b, v)
	}
}

func isNil(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// StaticVariant writes a [tag, value] pair as varint(tag) followed by the
// value encoded with items[tag].
func StaticVariant(items ...Serializer) Serializer {
	return func(b *bytebuffer.Buffer, v interface{}) error {
		n, err := normalize(v)
		if err != nil {
			return err
		}
		pair, ok := n.([]interface{})
		if !ok || len(pair) != 2 {
			return hiveerr.Malformed("static variant must be [tag, value]")
		}
		tag, err := toUint64(pair[0])
		if err != nil {
			return err
		}
		if tag >= uint64(len(items)) {
			return hiveerr.Malformed("static variant tag %d out of range", tag)
		}
		b.WriteVarint32(uint32(tag))
		return items[tag](b, pair[1])
	}
}

// Object writes each field in order. Values are looked up by field name.
func Object(fields ...Field) Serializer {
	return func(b *bytebuffer.Buffer, v interface{}) error {
		m, err := toObject(v)
		if err != nil {
			return err
		}
		for _, f := range fields {
			if err := f.Serializer(b, m[f.Name]); err != nil {
				return hiveerr.WrapField(f.Name, err)
			}
		}
		return nil
	}
}

// LegacyAsset writes int64 units, the precision byte and the symbol as seven
// zero-padded ASCII bytes, using the pre-fork symbol names.
func LegacyAsset(b *bytebuffer.Buffer, v interface{}) error {
	a, err := toAsset(v)
	if err != nil {
		return err
	}
	units, err := a.Satoshis()
	if err != nil {
		return err
	}
	name := a.Symbol.LegacyName()
	if len(name) > 7 {
		return hiveerr.Malformed("symbol %q longer than 7 bytes", name)
	}
	var symbol [7]byte
	copy(symbol[:], name)

	b.WriteInt64(units)
	b.WriteUint8(uint8(a.Precision()))
	b.WriteBytes(symbol[:])
	return nil
}

// NAIAsset writes int64 units followed by the uint32 asset number.
func NAIAsset(b *bytebuffer.Buffer, v interface{}) error {
	a, err := toAsset(v)
	if err != nil {
		return err
	}
	num, ok := a.Symbol.AssetNum()
	if !ok {
		return hiveerr.Malformed("symbol %s has no asset number", a.Symbol)
	}
	units, err := a.Satoshis()
	if err != nil {
		return err
	}
	b.WriteInt64(units)
	b.WriteUint32(num)
	return nil
}

// Serialize runs s over v and returns the bytes written.
func Serialize(s Serializer, v interface{}) ([]byte, error) {
	b := bytebuffer.New(0)
	if err := s(b, v); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}
