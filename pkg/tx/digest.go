package tx

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/suffix-labs/hive-tx-go/pkg/hiveerr"
	"github.com/suffix-labs/hive-tx-go/pkg/protocol"
	"github.com/suffix-labs/hive-tx-go/pkg/serializer"
)

// ChainID identifies the network a signature is valid on.
type ChainID [32]byte

// MainnetChainID is the chain id of the main network.
var MainnetChainID = ChainID{0xbe, 0xea, 0xb0, 0xde}

// TrxIDLen is the length in bytes of a transaction id.
const TrxIDLen = 20

// ParseChainID decodes 32 bytes of hex.
func ParseChainID(s string) (ChainID, error) {
	var id ChainID
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, hiveerr.MalformedCause(err, "chain id is not hex")
	}
	if len(b) != len(id) {
		return id, hiveerr.Malformed("chain id must be %d bytes, got %d", len(id), len(b))
	}
	copy(id[:], b)
	return id, nil
}

// String returns the hex form of the chain id.
func (c ChainID) String() string {
	return hex.EncodeToString(c[:])
}

// digest computes sha256(chainID || serialized).
func digest(chainID ChainID, serialized []byte) [32]byte {
	h := sha256.New()
	h.Write(chainID[:])
	h.Write(serialized)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// trxID is the first 20 bytes of sha256(serialized), hex encoded. Unlike the
// digest it does not depend on the chain id.
func trxID(serialized []byte) string {
	sum := sha256.Sum256(serialized)
	return hex.EncodeToString(sum[:TrxIDLen])
}

// Digest returns the signing digest of tx on chainID using the legacy asset
// encoding.
func Digest(tx *protocol.Transaction, chainID ChainID) ([32]byte, error) {
	serialized, err := serializer.Default.SerializeTransaction(tx)
	if err != nil {
		return [32]byte{}, err
	}
	return digest(chainID, serialized), nil
}

// TrxID returns the transaction id of tx.
func TrxID(tx *protocol.Transaction) (string, error) {
	serialized, err := serializer.Default.SerializeTransaction(tx)
	if err != nil {
		return "", err
	}
	return trxID(serialized), nil
}
