package tx

import (
	"fmt"

	"github.com/suffix-labs/hive-tx-go/pkg/crypto"
	"github.com/suffix-labs/hive-tx-go/pkg/hiveerr"
	"github.com/suffix-labs/hive-tx-go/pkg/protocol"
	"github.com/suffix-labs/hive-tx-go/pkg/serializer"
)

// Signer signs and verifies transactions for one chain.
//
// A Signer holds no mutable state and is safe for concurrent use.
type Signer struct {
	chainID  ChainID
	registry *serializer.Registry
	prefix   string
}

// Option configures a Signer.
type Option func(*Signer)

// WithRegistry sets the serializer registry. The default is
// serializer.Default (legacy assets).
func WithRegistry(r *serializer.Registry) Option {
	return func(s *Signer) {
		if r != nil {
			s.registry = r
		}
	}
}

// WithAddressPrefix sets the prefix of recovered public keys.
func WithAddressPrefix(prefix string) Option {
	return func(s *Signer) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// NewSigner creates a Signer for chainID.
func NewSigner(chainID ChainID, opts ...Option) *Signer {
	s := &Signer{
		chainID:  chainID,
		registry: serializer.Default,
		prefix:   crypto.DefaultAddressPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ChainID returns the chain the signer is bound to.
func (s *Signer) ChainID() ChainID {
	return s.chainID
}

// Digest returns sha256(chainID || serialized tx).
func (s *Signer) Digest(tx *protocol.Transaction) ([32]byte, error) {
	serialized, err := s.registry.SerializeTransaction(tx)
	if err != nil {
		return [32]byte{}, err
	}
	return digest(s.chainID, serialized), nil
}

// TrxID returns the transaction id of tx.
func (s *Signer) TrxID(tx *protocol.Transaction) (string, error) {
	serialized, err := s.registry.SerializeTransaction(tx)
	if err != nil {
		return "", err
	}
	return trxID(serialized), nil
}

// Sign signs tx with every key and returns a new SignedTransaction. tx is not
// modified.
func (s *Signer) Sign(tx *protocol.Transaction, keys ...*crypto.PrivateKey) (*protocol.SignedTransaction, error) {
	return s.SignSigned(&protocol.SignedTransaction{Transaction: *tx}, keys...)
}

// SignSigned adds signatures to a copy of an already signed transaction.
// Existing signatures are kept in order and new ones are appended.
func (s *Signer) SignSigned(stx *protocol.SignedTransaction, keys ...*crypto.PrivateKey) (*protocol.SignedTransaction, error) {
	if len(keys) == 0 {
		return nil, hiveerr.Malformed("no signing keys given")
	}

	out := stx.Clone()
	hash, err := s.Digest(&out.Transaction)
	if err != nil {
		return nil, fmt.Errorf("failed to compute digest: %w", err)
	}

	for i, key := range keys {
		if key == nil {
			return nil, hiveerr.Malformed("signing key %d is nil", i)
		}
		sig, err := key.Sign(hash)
		if err != nil {
			return nil, fmt.Errorf("failed to sign with key %d: %w", i, err)
		}
		out.Signatures = append(out.Signatures, sig.String())
	}

	logger.WithField("signatures", len(out.Signatures)).Debug("transaction signed")
	return &out, nil
}

// RecoverKeyFromSignature recovers the public key behind sigHex. It reports
// false instead of failing when the signature or transaction is malformed.
func (s *Signer) RecoverKeyFromSignature(tx *protocol.Transaction, sigHex string) (*crypto.PublicKey, bool) {
	sig, err := crypto.ParseSignature(sigHex)
	if err != nil {
		return nil, false
	}
	hash, err := s.Digest(tx)
	if err != nil {
		return nil, false
	}
	pub, err := sig.Recover(hash, s.prefix)
	if err != nil {
		return nil, false
	}
	return pub, true
}

// RecoverSigners recovers the key of every signature of stx, in signature
// order. Unlike RecoverKeyFromSignature it fails on the first bad signature.
func (s *Signer) RecoverSigners(stx *protocol.SignedTransaction) ([]*crypto.PublicKey, error) {
	hash, err := s.Digest(&stx.Transaction)
	if err != nil {
		return nil, fmt.Errorf("failed to compute digest: %w", err)
	}
	keys := make([]*crypto.PublicKey, 0, len(stx.Signatures))
	for i, sigHex := range stx.Signatures {
		sig, err := crypto.ParseSignature(sigHex)
		if err != nil {
			return nil, fmt.Errorf("signature %d: %w", i, err)
		}
		pub, err := sig.Recover(hash, s.prefix)
		if err != nil {
			return nil, fmt.Errorf("signature %d: %w", i, err)
		}
		keys = append(keys, pub)
	}
	return keys, nil
}

// Verify reports whether pub produced one of the signatures of stx.
func (s *Signer) Verify(stx *protocol.SignedTransaction, pub *crypto.PublicKey) bool {
	hash, err := s.Digest(&stx.Transaction)
	if err != nil {
		return false
	}
	for _, sigHex := range stx.Signatures {
		sig, err := crypto.ParseSignature(sigHex)
		if err != nil {
			continue
		}
		if pub.Verify(hash, sig) {
			return true
		}
	}
	return false
}

// Sign signs tx for chainID with the legacy asset encoding.
func Sign(tx *protocol.Transaction, keys []*crypto.PrivateKey, chainID ChainID) (*protocol.SignedTransaction, error) {
	return NewSigner(chainID).Sign(tx, keys...)
}

// RecoverKeyFromSignature recovers the signer of sigHex over tx on chainID.
func RecoverKeyFromSignature(tx *protocol.Transaction, sigHex string, chainID ChainID) (*crypto.PublicKey, bool) {
	return NewSigner(chainID).RecoverKeyFromSignature(tx, sigHex)
}

// RecoverSigners recovers every signer of stx on chainID.
func RecoverSigners(stx *protocol.SignedTransaction, chainID ChainID) ([]*crypto.PublicKey, error) {
	return NewSigner(chainID).RecoverSigners(stx)
}

// Verify reports whether pub signed stx on chainID.
func Verify(stx *protocol.SignedTransaction, pub *crypto.PublicKey, chainID ChainID) bool {
	return NewSigner(chainID).Verify(stx, pub)
}
