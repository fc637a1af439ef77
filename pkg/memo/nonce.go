package memo

import (
	"math/rand"
	"sync/atomic"
	"time"
)

// entropyMod bounds the rolling counter mixed into the low 16 bits.
const entropyMod = 0xFFFF

// NonceGenerator produces process-unique memo nonces: the millisecond clock
// shifted left 16 bits, or'd with a rolling counter. Two calls in the same
// millisecond never collide until the counter wraps.
//
// A NonceGenerator is safe for concurrent use.
type NonceGenerator struct {
	counter atomic.Uint32 // always in [0, entropyMod)
	now     func() time.Time
}

// NewNonceGenerator creates a generator reading time from now. A nil clock
// means time.Now. The counter starts at a random 16-bit value.
func NewNonceGenerator(now func() time.Time) *NonceGenerator {
	if now == nil {
		now = time.Now
	}
	g := &NonceGenerator{now: now}
	g.counter.Store(uint32(rand.Intn(entropyMod)))
	return g
}

// Next returns a fresh nonce.
func (g *NonceGenerator) Next() uint64 {
	var entropy uint32
	for {
		cur := g.counter.Load()
		entropy = (cur + 1) % entropyMod
		if g.counter.CompareAndSwap(cur, entropy) {
			break
		}
	}
	ms := uint64(g.now().UnixMilli())
	return ms<<16 | uint64(entropy)
}

// Reset sets the counter to seed modulo 0xFFFF. Only tests need this.
func (g *NonceGenerator) Reset(seed uint32) {
	g.counter.Store(seed % entropyMod)
}

// DefaultNonces is the process-wide generator used by DefaultCodec.
var DefaultNonces = NewNonceGenerator(nil)
