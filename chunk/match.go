package chunk

import (
	"github.com/hellobertrand/zxc/format"
)

// matchFinder implements the hash-chain LZ77 match finder spec.md §4.2
// describes: a power-of-two hash table indexed by a 4-byte key (sized by
// newMatchFinder), plus a chain table indexed by input position linking
// same-bucket candidates in most-recent-first order.
//
// Grounded on the teacher's habit of pre-sizing internal tables from the
// expected data volume (e.g. blob/numeric_encoder.go's indexEntries
// capacity planning) generalized here to a hash/chain pair, since mebo has
// no LZ77 matcher of its own to adapt directly.
type matchFinder struct {
	src         []byte
	head        []int32 // hash bucket -> most recent position, -1 if empty
	chain       []int32 // position -> previous position with same bucket, -1 if none
	mask        uint32
	searchDepth int
}

// newMatchFinder creates a matcher over src sized for src's length, doubling
// the hash table until the number of buckets is at least 2x the number of
// positions, up to 1<<22 buckets. hash4 yields 17-bit values, so at most the
// first 1<<17 buckets are used and chunks of more than 1<<16 positions run
// at a load factor above 0.5.
func newMatchFinder(src []byte, searchDepth int) *matchFinder {
	n := len(src)
	bits := 10 // 1024 buckets minimum
	for (1 << bits) < n*2 {
		bits++
		if bits >= 22 {
			break // cap table growth; chain walk still finds distant matches
		}
	}
	size := 1 << bits

	head := make([]int32, size)
	for i := range head {
		head[i] = -1
	}

	chain := make([]int32, n)

	return &matchFinder{
		src:         src,
		head:        head,
		chain:       chain,
		mask:        uint32(size - 1),
		searchDepth: searchDepth,
	}
}

// hash4 mixes the 4-byte little-endian key at src[pos:pos+4] into a hash
// bucket. This is the "fast mixing hash" spec.md §4.2 allows as an
// alternative to a hardware CRC32c instruction.
func hash4(src []byte, pos int) uint32 {
	v := uint32(src[pos]) | uint32(src[pos+1])<<8 | uint32(src[pos+2])<<16 | uint32(src[pos+3])<<24
	return (v * 2654435761) >> 15
}

// insert records pos in the hash/chain tables, keyed by the 4 bytes at pos.
// The caller must ensure pos+4 <= len(src).
func (m *matchFinder) insert(pos int) {
	h := hash4(m.src, pos) & m.mask
	m.chain[pos] = m.head[h]
	m.head[h] = int32(pos) //nolint:gosec
}

// matchLen returns the length of the common prefix of src[a:] and src[b:],
// not extending past end.
func matchLen(src []byte, a, b, end int) int {
	n := 0
	for a+n < end && b+n < end && src[a+n] == src[b+n] {
		n++
	}

	return n
}

// find walks the hash chain at pos looking for the longest match of length
// >= format.MinMatch whose offset fits in the 16-bit window. It visits at
// most m.searchDepth candidates, matching spec.md §4.2's level-parameterized
// chain-walk depth.
func (m *matchFinder) find(pos int) (length int, offset int) {
	if pos+4 > len(m.src) {
		return 0, 0
	}

	h := hash4(m.src, pos) & m.mask
	cand := m.head[h]
	minCand := pos - format.MaxOffset

	bestLen := 0
	bestOff := 0

	for steps := 0; cand >= 0 && int(cand) >= minCand && steps < m.searchDepth; steps++ {
		c := int(cand)
		l := matchLen(m.src, c, pos, len(m.src))
		if l > bestLen && l >= format.MinMatch {
			bestLen = l
			bestOff = pos - c
		}
		cand = m.chain[c]
	}

	return bestLen, bestOff
}

// searchDepthForLevel maps a compression level (1..5) to a chain-walk depth,
// trading compression ratio for encode speed as spec.md §4.2 describes.
func searchDepthForLevel(level int) int {
	switch {
	case level <= 1:
		return 4
	case level == 2:
		return 8
	case level == 3:
		return 16
	case level == 4:
		return 32
	default:
		return 64
	}
}
