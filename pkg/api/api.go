// Package api provides the high-level public API of the hive-tx library.
//
// This is the main entry point for applications. An API value is bound to
// one config.Config (chain id, address prefix, memo marker, expiration and
// asset encoding) and exposes:
//
//  1. CreateTransaction - References a head block and sets the expiration
//  2. Digest / TrxID - The signing digest and the transaction id
//  3. Sign - Signs with one or more WIF keys
//  4. RecoverSigner / Verify - Checks who signed a transaction
//  5. Combine - Merges signatures collected separately
//  6. EncodeMemo / DecodeMemo - Private memo encryption
//  7. LoginKeys / PublicKey - Key derivation helpers
//  8. ParseSigningRequest - hive:// signing URIs
package api

import (
	"encoding/hex"
	"fmt"

	"github.com/suffix-labs/hive-tx-go/pkg/config"
	"github.com/suffix-labs/hive-tx-go/pkg/crypto"
	"github.com/suffix-labs/hive-tx-go/pkg/hiveuri"
	"github.com/suffix-labs/hive-tx-go/pkg/log"
	"github.com/suffix-labs/hive-tx-go/pkg/memo"
	"github.com/suffix-labs/hive-tx-go/pkg/protocol"
	"github.com/suffix-labs/hive-tx-go/pkg/serializer"
	"github.com/suffix-labs/hive-tx-go/pkg/tx"
)

var logger = log.New("api")

// API is safe for concurrent use.
type API struct {
	cfg      config.Config
	registry *serializer.Registry
	signer   *tx.Signer
	combiner *tx.Combiner
	memo     *memo.Codec
}

// KeyPair is a derived private key and its public key, both in string form.
type KeyPair struct {
	Private string `json:"private"`
	Public  string `json:"public"`
}

// New validates cfg and builds an API bound to it.
func New(cfg config.Config) (*API, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	chainID, err := cfg.Chain()
	if err != nil {
		return nil, err
	}
	encoding, err := cfg.Encoding()
	if err != nil {
		return nil, err
	}

	registry := serializer.Default
	if encoding != serializer.AssetLegacy {
		registry = serializer.NewRegistry(encoding)
	}
	signer := tx.NewSigner(chainID,
		tx.WithRegistry(registry),
		tx.WithAddressPrefix(cfg.AddressPrefix))

	logger.WithField("chain_id", cfg.ChainID).WithField("assets", encoding.String()).
		Debug("api configured")
	return &API{
		cfg:      cfg,
		registry: registry,
		signer:   signer,
		combiner: tx.NewCombiner(signer),
		memo:     memo.NewCodec(cfg.MemoMarker),
	}, nil
}

// Config returns the configuration the API was built with.
func (a *API) Config() config.Config {
	return a.cfg
}

// ============================================================================
// Transactions
// ============================================================================

// CreateTransaction builds an unsigned transaction from head-block properties
// and the configured expiration.
func (a *API) CreateTransaction(props tx.TxSignProperties, ops []protocol.Operation) (*protocol.Transaction, error) {
	return tx.From(props, ops, a.cfg.ExpireTime)
}

// SerializeTransaction returns the wire bytes of t.
func (a *API) SerializeTransaction(t *protocol.Transaction) ([]byte, error) {
	return a.registry.SerializeTransaction(t)
}

// Digest returns the hex signing digest of t.
func (a *API) Digest(t *protocol.Transaction) (string, error) {
	hash, err := a.signer.Digest(t)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(hash[:]), nil
}

// TrxID returns the transaction id of t.
func (a *API) TrxID(t *protocol.Transaction) (string, error) {
	return a.signer.TrxID(t)
}

// Sign signs t with every WIF key.
//
// Parameters:
//   - t: Unsigned transaction; not modified
//   - wifs: One or more private keys in WIF form
//
// Returns:
//   - A new SignedTransaction with one signature per key, in key order
//   - Error if a key is invalid or t cannot be serialized
func (a *API) Sign(t *protocol.Transaction, wifs ...string) (*protocol.SignedTransaction, error) {
	keys, err := parseKeys(wifs)
	if err != nil {
		return nil, err
	}
	return a.signer.Sign(t, keys...)
}

// AppendSignatures adds signatures to a copy of stx.
func (a *API) AppendSignatures(stx *protocol.SignedTransaction, wifs ...string) (*protocol.SignedTransaction, error) {
	keys, err := parseKeys(wifs)
	if err != nil {
		return nil, err
	}
	return a.signer.SignSigned(stx, keys...)
}

// RecoverSigner returns the public key behind sigHex, or false if the
// signature is malformed.
func (a *API) RecoverSigner(t *protocol.Transaction, sigHex string) (string, bool) {
	pub, ok := a.signer.RecoverKeyFromSignature(t, sigHex)
	if !ok {
		return "", false
	}
	return pub.String(), true
}

// RecoverSigners returns the public key of every signature of stx.
func (a *API) RecoverSigners(stx *protocol.SignedTransaction) ([]string, error) {
	keys, err := a.signer.RecoverSigners(stx)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.String()
	}
	return out, nil
}

// Verify reports whether pub signed stx.
func (a *API) Verify(stx *protocol.SignedTransaction, pub string) (bool, error) {
	key, err := crypto.ParsePublicKey(pub, a.cfg.AddressPrefix)
	if err != nil {
		return false, err
	}
	return a.signer.Verify(stx, key), nil
}

// Combine merges the signatures of copies of one transaction.
func (a *API) Combine(stxs ...*protocol.SignedTransaction) (*protocol.SignedTransaction, error) {
	return a.combiner.Combine(stxs...)
}

// ============================================================================
// Memos
// ============================================================================

// EncodeMemo encrypts text for the public key to with the sender's WIF key.
func (a *API) EncodeMemo(text, to, fromWIF string) (string, error) {
	pub, err := crypto.ParsePublicKey(to, a.cfg.AddressPrefix)
	if err != nil {
		return "", fmt.Errorf("invalid recipient key: %w", err)
	}
	priv, err := crypto.ParsePrivateKeyWIF(fromWIF)
	if err != nil {
		return "", fmt.Errorf("invalid sender key: %w", err)
	}
	return a.memo.Encode(text, pub, priv)
}

// DecodeMemo decrypts text with the WIF key of either party.
func (a *API) DecodeMemo(text, wif string, keepPrefix bool) (string, error) {
	priv, err := crypto.ParsePrivateKeyWIF(wif)
	if err != nil {
		return "", fmt.Errorf("invalid key: %w", err)
	}
	return a.memo.Decode(text, priv, keepPrefix)
}

// ============================================================================
// Keys
// ============================================================================

// LoginKeys derives the owner, active, posting and memo keys of an account
// from its master password.
func (a *API) LoginKeys(username, password string) (map[crypto.Role]KeyPair, error) {
	out := make(map[crypto.Role]KeyPair, len(crypto.Roles))
	for _, role := range crypto.Roles {
		key, err := crypto.PrivateKeyFromLogin(username, password, role)
		if err != nil {
			return nil, fmt.Errorf("failed to derive %s key: %w", role, err)
		}
		out[role] = KeyPair{Private: key.WIF(), Public: key.PublicKey(a.cfg.AddressPrefix).String()}
	}
	return out, nil
}

// PublicKey returns the public key of a WIF private key.
func (a *API) PublicKey(wif string) (string, error) {
	key, err := crypto.ParsePrivateKeyWIF(wif)
	if err != nil {
		return "", err
	}
	return key.PublicKey(a.cfg.AddressPrefix).String(), nil
}

// ============================================================================
// Signing requests
// ============================================================================

// ParseSigningRequest parses a hive://sign/... URI.
func (a *API) ParseSigningRequest(uri string) (*hiveuri.Request, error) {
	return hiveuri.Parse(uri)
}

// ResolveSigningRequest parses uri and builds the transaction it asks signer
// to sign.
func (a *API) ResolveSigningRequest(uri, signer string, props tx.TxSignProperties) (*protocol.Transaction, error) {
	req, err := hiveuri.Parse(uri)
	if err != nil {
		return nil, err
	}
	return req.Resolve(signer, props, a.cfg.ExpireTime)
}

func parseKeys(wifs []string) ([]*crypto.PrivateKey, error) {
	keys := make([]*crypto.PrivateKey, len(wifs))
	for i, wif := range wifs {
		key, err := crypto.ParsePrivateKeyWIF(wif)
		if err != nil {
			return nil, fmt.Errorf("key %d: %w", i, err)
		}
		keys[i] = key
	}
	return keys, nil
}
