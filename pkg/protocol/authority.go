package protocol

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/suffix-labs/hive-tx-go/pkg/crypto"
	"github.com/suffix-labs/hive-tx-go/pkg/hiveerr"
)

// AccountAuth is one weighted account of an authority. JSON form is
// ["name", weight].
type AccountAuth struct {
	Account string
	Weight  uint16
}

// KeyAuth is one weighted public key of an authority. JSON form is
// ["STM...", weight].
type KeyAuth struct {
	Key    string
	Weight uint16
}

// Authority is a weighted multisig over accounts and keys.
type Authority struct {
	WeightThreshold uint32        `json:"weight_threshold"`
	AccountAuths    []AccountAuth `json:"account_auths"`
	KeyAuths        []KeyAuth     `json:"key_auths"`
}

// NewKeyAuthority returns the usual single-key authority with threshold 1.
func NewKeyAuthority(key *crypto.PublicKey) Authority {
	return Authority{
		WeightThreshold: 1,
		AccountAuths:    []AccountAuth{},
		KeyAuths:        []KeyAuth{{Key: key.String(), Weight: 1}},
	}
}

// Sort orders account auths by name and key auths by their compressed key
// bytes, the order the chain expects inside a flat map.
func (a *Authority) Sort() error {
	sort.SliceStable(a.AccountAuths, func(i, j int) bool {
		return a.AccountAuths[i].Account < a.AccountAuths[j].Account
	})

	keys := make([][]byte, len(a.KeyAuths))
	for i, ka := range a.KeyAuths {
		pub, err := crypto.ParsePublicKey(ka.Key)
		if err != nil {
			return err
		}
		keys[i] = pub.Bytes()
	}
	idx := make([]int, len(a.KeyAuths))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return bytes.Compare(keys[idx[i]], keys[idx[j]]) < 0
	})
	sorted := make([]KeyAuth, len(idx))
	for i, k := range idx {
		sorted[i] = a.KeyAuths[k]
	}
	a.KeyAuths = sorted
	return nil
}

// MarshalJSON implements json.Marshaler.
func (a AccountAuth) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{a.Account, a.Weight})
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *AccountAuth) UnmarshalJSON(data []byte) error {
	var name string
	var weight uint16
	if err := unmarshalPair(data, &name, &weight); err != nil {
		return err
	}
	a.Account, a.Weight = name, weight
	return nil
}

// MarshalJSON implements json.Marshaler.
func (k KeyAuth) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{k.Key, k.Weight})
}

// UnmarshalJSON implements json.Unmarshaler.
func (k *KeyAuth) UnmarshalJSON(data []byte) error {
	var key string
	var weight uint16
	if err := unmarshalPair(data, &key, &weight); err != nil {
		return err
	}
	k.Key, k.Weight = key, weight
	return nil
}

func unmarshalPair(data []byte, first, second interface{}) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return hiveerr.MalformedCause(err, "expected [key, weight] pair")
	}
	if len(pair) != 2 {
		return hiveerr.Malformed("expected [key, weight] pair, got %d elements", len(pair))
	}
	if err := json.Unmarshal(pair[0], first); err != nil {
		return hiveerr.MalformedCause(err, "invalid pair key")
	}
	if err := json.Unmarshal(pair[1], second); err != nil {
		return hiveerr.MalformedCause(err, "invalid pair weight")
	}
	return nil
}

// MarshalJSON writes empty auth lists as [] rather than null.
func (a Authority) MarshalJSON() ([]byte, error) {
	type plain Authority
	p := plain(a)
	if p.AccountAuths == nil {
		p.AccountAuths = []AccountAuth{}
	}
	if p.KeyAuths == nil {
		p.KeyAuths = []KeyAuth{}
	}
	return json.Marshal(p)
}
