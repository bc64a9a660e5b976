package pipeline

import (
	"crypto/rand"
	"encoding/binary"
	"sync"
	"time"
)

// Job IDs are ULIDs: 48-bit millisecond timestamp then 80 random bits,
// Crockford Base32 encoded into 26 characters. IDs minted in the same
// millisecond carry an increasing sequence in the first random bytes so
// they still sort in creation order.

var (
	ulidMu  sync.Mutex
	lastTS  uint64
	lastSeq uint16
)

const crockford = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

func generateULID() string {
	ulidMu.Lock()
	ts := uint64(time.Now().UnixMilli())
	if ts == lastTS {
		lastSeq++
	} else {
		lastTS = ts
		lastSeq = 0
	}
	seq := lastSeq
	ulidMu.Unlock()

	var rnd [8]byte
	rand.Read(rnd[:])

	// hi holds the timestamp and sequence, lo the remaining random bits.
	hi := ts<<16 | uint64(seq)
	lo := binary.BigEndian.Uint64(rnd[:])
	return encodeULID(hi, lo)
}

// encodeULID writes the 128-bit value hi:lo as 26 base32 digits, most
// significant first. The leading digit carries only the top 3 bits.
func encodeULID(hi, lo uint64) string {
	var out [26]byte
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = crockford[lo&31]
		lo = lo>>5 | hi<<59
		hi >>= 5
	}
	return string(out[:])
}
