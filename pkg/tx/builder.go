// Package tx builds, digests, signs and verifies transactions.
//
// The flow mirrors what a wallet does before broadcasting:
//   - From: reference a recent block and set an expiration
//   - Signer.Sign: sign sha256(chainID || serialized tx) with one or more keys
//   - Combine: merge signatures collected from several signers
//   - RecoverSigners / Verify: check who signed a transaction
//
// Signing never mutates its input. Every signing call returns a new
// SignedTransaction whose signatures are appended after any existing ones.
package tx

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/suffix-labs/hive-tx-go/pkg/hiveerr"
	"github.com/suffix-labs/hive-tx-go/pkg/log"
	"github.com/suffix-labs/hive-tx-go/pkg/protocol"
)

// DefaultExpireTime is how long a new transaction stays valid.
const DefaultExpireTime = 10 * time.Minute

// MaxExpireTime is the longest expiration the chain accepts.
const MaxExpireTime = time.Hour

var logger = log.New("tx")

// TxSignProperties are the head-block values a transaction references. They
// come from the node's dynamic global properties.
type TxSignProperties struct {
	HeadBlockNumber uint32    // Head block number; only the low 16 bits are used
	HeadBlockID     string    // Hex-encoded 20-byte head block id
	Time            time.Time // Head block time
}

// RefBlock derives ref_block_num and ref_block_prefix. The prefix is bytes
// 4..8 of the block id read as a little-endian uint32.
func (p TxSignProperties) RefBlock() (num uint16, prefix uint32, err error) {
	id, err := hex.DecodeString(p.HeadBlockID)
	if err != nil {
		return 0, 0, hiveerr.MalformedCause(err, "head block id is not hex")
	}
	if len(id) < 8 {
		return 0, 0, hiveerr.Malformed("head block id must be at least 8 bytes, got %d", len(id))
	}
	return uint16(p.HeadBlockNumber & 0xFFFF), binary.LittleEndian.Uint32(id[4:8]), nil
}

// From creates an unsigned transaction carrying ops. expire of zero means
// DefaultExpireTime.
func From(props TxSignProperties, ops []protocol.Operation, expire time.Duration) (*protocol.Transaction, error) {
	if expire == 0 {
		expire = DefaultExpireTime
	}
	if expire < 0 || expire > MaxExpireTime {
		return nil, hiveerr.OutOfRange("expiration %s outside (0, %s]", expire, MaxExpireTime)
	}
	if props.Time.IsZero() {
		return nil, hiveerr.Malformed("head block time is not set")
	}
	num, prefix, err := props.RefBlock()
	if err != nil {
		return nil, fmt.Errorf("failed to derive reference block: %w", err)
	}

	operations := make([]protocol.Operation, len(ops))
	copy(operations, ops)

	tx := &protocol.Transaction{
		RefBlockNum:    num,
		RefBlockPrefix: prefix,
		Expiration:     protocol.NewTime(props.Time.Add(expire)),
		Operations:     operations,
		Extensions:     []string{},
	}
	logger.WithField("ref_block_num", num).WithField("expiration", tx.Expiration.String()).
		Debug("transaction created")
	return tx, nil
}
