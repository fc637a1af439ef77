package protocol

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/suffix-labs/hive-tx-go/pkg/hiveerr"
)

// TimeFormat is the chain's timestamp layout: UTC, second precision, no zone.
const TimeFormat = "2006-01-02T15:04:05"

// Time is a UTC timestamp in TimeFormat.
type Time struct {
	time.Time
}

// NewTime truncates t to whole seconds in UTC.
func NewTime(t time.Time) Time {
	return Time{t.UTC().Truncate(time.Second)}
}

// ParseTime parses TimeFormat. A trailing "Z" is tolerated.
func ParseTime(s string) (Time, error) {
	t, err := time.ParseInLocation(TimeFormat, strings.TrimSuffix(s, "Z"), time.UTC)
	if err != nil {
		return Time{}, hiveerr.MalformedCause(err, "invalid time %q", s)
	}
	return Time{t}, nil
}

// String formats the time in TimeFormat.
func (t Time) String() string {
	return t.UTC().Format(TimeFormat)
}

// MarshalJSON implements json.Marshaler.
func (t Time) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Time) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return hiveerr.MalformedCause(err, "time must be a string")
	}
	parsed, err := ParseTime(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Transaction is an unsigned transaction.
type Transaction struct {
	RefBlockNum    uint16      `json:"ref_block_num"`
	RefBlockPrefix uint32      `json:"ref_block_prefix"`
	Expiration     Time        `json:"expiration"`
	Operations     []Operation `json:"operations"`
	Extensions     []string    `json:"extensions"`
}

// SignedTransaction is a transaction plus hex-encoded signatures.
type SignedTransaction struct {
	Transaction
	Signatures []string `json:"signatures"`
}

// Clone returns a copy whose slices and top-level params maps are not shared
// with t.
func (t *Transaction) Clone() Transaction {
	cp := *t
	cp.Operations = make([]Operation, len(t.Operations))
	for i, op := range t.Operations {
		params := make(map[string]interface{}, len(op.Params))
		for k, v := range op.Params {
			params[k] = v
		}
		cp.Operations[i] = Operation{Name: op.Name, Params: params}
	}
	cp.Extensions = append([]string{}, t.Extensions...)
	return cp
}

// MarshalJSON writes nil slices as [].
func (t Transaction) MarshalJSON() ([]byte, error) {
	type plain Transaction
	p := plain(t)
	if p.Operations == nil {
		p.Operations = []Operation{}
	}
	if p.Extensions == nil {
		p.Extensions = []string{}
	}
	return json.Marshal(p)
}

// Clone returns a deep copy of the transaction and its signatures.
func (t *SignedTransaction) Clone() SignedTransaction {
	return SignedTransaction{
		Transaction: t.Transaction.Clone(),
		Signatures:  append([]string{}, t.Signatures...),
	}
}

// MarshalJSON writes the transaction fields followed by the signatures.
func (t SignedTransaction) MarshalJSON() ([]byte, error) {
	body, err := json.Marshal(t.Transaction)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	sigs := t.Signatures
	if sigs == nil {
		sigs = []string{}
	}
	raw, err := json.Marshal(sigs)
	if err != nil {
		return nil, err
	}
	fields["signatures"] = raw
	return json.Marshal(fields)
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *SignedTransaction) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &t.Transaction); err != nil {
		return err
	}
	var sigs struct {
		Signatures []string `json:"signatures"`
	}
	if err := json.Unmarshal(data, &sigs); err != nil {
		return hiveerr.MalformedCause(err, "invalid signatures")
	}
	t.Signatures = sigs.Signatures
	return nil
}
