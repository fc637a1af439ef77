package serializer

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"math"
	"reflect"
	"sort"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/suffix-labs/hive-tx-go/pkg/crypto"
	"github.com/suffix-labs/hive-tx-go/pkg/hiveerr"
	"github.com/suffix-labs/hive-tx-go/pkg/protocol"
)

// Values reaching a serializer come either from Go callers (typed structs,
// ints, protocol.Asset) or from decoded JSON (map[string]interface{},
// json.Number, strings). The helpers below accept both.

func typeError(want string, v interface{}) error {
	if v == nil {
		return hiveerr.Malformed("missing %s value", want)
	}
	return hiveerr.Malformed("expected %s, got %T", want, v)
}

func toInt64(v interface{}) (int64, error) {
	switch x := v.(type) {
	case int:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case uint:
		return uintToInt64(uint64(x))
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint64:
		return uintToInt64(x)
	case float32:
		return floatToInt64(float64(x))
	case float64:
		return floatToInt64(x)
	case json.Number:
		return parseInt64(string(x))
	case string:
		return parseInt64(x)
	}
	return 0, typeError("integer", v)
}

func uintToInt64(v uint64) (int64, error) {
	if v > math.MaxInt64 {
		return 0, hiveerr.OutOfRange("%d overflows int64", v)
	}
	return int64(v), nil
}

func floatToInt64(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, hiveerr.Malformed("%v is not an integer", f)
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, hiveerr.OutOfRange("%v overflows int64", f)
	}
	return int64(f), nil
}

func parseInt64(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, hiveerr.OutOfRange("%s overflows int64", s)
		}
		return 0, hiveerr.MalformedCause(err, "invalid integer %q", s)
	}
	return n, nil
}

func toUint64(v interface{}) (uint64, error) {
	switch x := v.(type) {
	case uint:
		return uint64(x), nil
	case uint64:
		return x, nil
	case json.Number:
		return parseUint64(string(x))
	case string:
		return parseUint64(x)
	}
	n, err := toInt64(v)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, hiveerr.OutOfRange("%d is negative", n)
	}
	return uint64(n), nil
}

func parseUint64(s string) (uint64, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, hiveerr.OutOfRange("%s overflows uint64", s)
		}
		return 0, hiveerr.MalformedCause(err, "invalid unsigned integer %q", s)
	}
	return n, nil
}

func signedInRange(v interface{}, bits uint) (int64, error) {
	n, err := toInt64(v)
	if err != nil {
		return 0, err
	}
	lo, hi := int64(-1)<<(bits-1), int64(1)<<(bits-1)-1
	if n < lo || n > hi {
		return 0, hiveerr.OutOfRange("%d does not fit in int%d", n, bits)
	}
	return n, nil
}

func unsignedInRange(v interface{}, bits uint) (uint64, error) {
	n, err := toUint64(v)
	if err != nil {
		return 0, err
	}
	if bits < 64 && n > uint64(1)<<bits-1 {
		return 0, hiveerr.OutOfRange("%d does not fit in uint%d", n, bits)
	}
	return n, nil
}

func toString(v interface{}) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case json.Number:
		return string(x), nil
	}
	return "", typeError("string", v)
}

func toBool(v interface{}) (bool, error) {
	if b, ok := v.(bool); ok {
		return b, nil
	}
	return false, typeError("bool", v)
}

func toTime(v interface{}) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		return x, nil
	case *time.Time:
		if x != nil {
			return *x, nil
		}
	case protocol.Time:
		return x.Time, nil
	case *protocol.Time:
		if x != nil {
			return x.Time, nil
		}
	case string:
		t, err := protocol.ParseTime(x)
		if err != nil {
			return time.Time{}, err
		}
		return t.Time, nil
	case int, int64, uint32, json.Number:
		secs, err := toInt64(x)
		if err != nil {
			return time.Time{}, err
		}
		return time.Unix(secs, 0).UTC(), nil
	}
	return time.Time{}, typeError("time", v)
}

func toBytes(v interface{}) ([]byte, error) {
	switch x := v.(type) {
	case []byte:
		return x, nil
	case string:
		b, err := hex.DecodeString(x)
		if err != nil {
			return nil, hiveerr.MalformedCause(err, "binary value is not hex")
		}
		return b, nil
	}
	return nil, typeError("bytes", v)
}

func toPublicKey(v interface{}) (*crypto.PublicKey, error) {
	switch x := v.(type) {
	case *crypto.PublicKey:
		if x != nil {
			return x, nil
		}
	case crypto.PublicKey:
		return &x, nil
	case string:
		return crypto.ParsePublicKey(x)
	}
	return nil, typeError("public key", v)
}

func toAsset(v interface{}) (protocol.Asset, error) {
	switch x := v.(type) {
	case protocol.Asset:
		return x, nil
	case *protocol.Asset:
		if x != nil {
			return *x, nil
		}
	case string:
		return protocol.ParseAsset(x)
	case map[string]interface{}:
		amount, err := toString(x["amount"])
		if err != nil {
			return protocol.Asset{}, err
		}
		precision, err := signedInRange(x["precision"], 32)
		if err != nil {
			return protocol.Asset{}, err
		}
		nai, err := toString(x["nai"])
		if err != nil {
			return protocol.Asset{}, err
		}
		return protocol.AssetFromNAI(amount, int32(precision), nai)
	}
	return protocol.Asset{}, typeError("asset", v)
}

// normalize turns typed Go values into the generic shapes decoded JSON has,
// so composite serializers only deal with maps and []interface{}.
func normalize(v interface{}) (interface{}, error) {
	switch v.(type) {
	case nil, map[string]interface{}, []interface{}, string, bool, json.Number:
		return v, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, hiveerr.MalformedCause(err, "cannot encode %T", v)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out interface{}
	if err := dec.Decode(&out); err != nil {
		return nil, hiveerr.MalformedCause(err, "cannot decode %T", v)
	}
	return out, nil
}

func toObject(v interface{}) (map[string]interface{}, error) {
	n, err := normalize(v)
	if err != nil {
		return nil, err
	}
	m, ok := n.(map[string]interface{})
	if !ok {
		return nil, typeError("object", v)
	}
	return m, nil
}

// toSlice returns the elements of any slice or array. nil is empty.
func toSlice(v interface{}) ([]interface{}, error) {
	if v == nil {
		return nil, nil
	}
	if s, ok := v.([]interface{}); ok {
		return s, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, typeError("array", v)
	}
	if rv.Kind() == reflect.Slice && rv.IsNil() {
		return nil, nil
	}
	out := make([]interface{}, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}

// toPairs reads a flat map: a list of [key, value] pairs, or a Go map whose
// keys are emitted in sorted order.
func toPairs(v interface{}) ([][2]interface{}, error) {
	if m, ok := v.(map[string]interface{}); ok {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([][2]interface{}, len(keys))
		for i, k := range keys {
			out[i] = [2]interface{}{k, m[k]}
		}
		return out, nil
	}
	items, err := toSlice(v)
	if err != nil {
		return nil, err
	}
	out := make([][2]interface{}, len(items))
	for i, item := range items {
		if pair, ok := item.([2]interface{}); ok {
			out[i] = pair
			continue
		}
		n, err := normalize(item)
		if err != nil {
			return nil, err
		}
		pair, ok := n.([]interface{})
		if !ok || len(pair) != 2 {
			return nil, hiveerr.Malformed("flat map entry %d is not a [key, value] pair", i)
		}
		out[i] = [2]interface{}{pair[0], pair[1]}
	}
	return out, nil
}
