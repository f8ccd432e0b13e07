package container

import (
	"github.com/hellobertrand/zxc/errs"
	"github.com/hellobertrand/zxc/internal/primitives"
)

// FooterSize is the fixed size, in bytes, of the mandatory archive footer
// (spec.md §3.1): an 8-byte original size and a 4-byte global rolling hash.
const FooterSize = 12

// Footer is the trailing record of every ZXC archive.
type Footer struct {
	// OriginalSize is the sum of raw sizes of all data blocks.
	OriginalSize uint64
	// RollingHash is the global rolling hash accumulated over every data
	// block's checksum in emission order. Zero when the archive is not in
	// checksum mode.
	RollingHash uint32
}

// Bytes serializes the footer.
func (f Footer) Bytes() []byte {
	b := make([]byte, FooterSize)
	primitives.StoreU64(b[0:8], f.OriginalSize)
	primitives.StoreU32(b[8:12], f.RollingHash)

	return b
}

// ParseFooter parses the 12-byte footer from data.
func ParseFooter(data []byte) (Footer, error) {
	if len(data) < FooterSize {
		return Footer{}, errs.New(errs.ErrSrcTooSmall, "footer truncated")
	}

	return Footer{
		OriginalSize: primitives.LoadU64(data[0:8]),
		RollingHash:  primitives.LoadU32(data[8:12]),
	}, nil
}

// RollingHash accumulates per-block checksums into the archive-wide hash
// spec.md §3.1/§9 define: h := rotl(h, 1) XOR block_checksum for each data
// block in emission order. The 1-bit rotation makes the accumulator
// order-sensitive, so swapping two adjacent blocks changes the final value
// (the "block reordering detection" property in spec.md §8.1).
type RollingHash struct {
	h uint32
}

// Update folds one block's checksum into the rolling hash and returns the
// new accumulated value.
func (r *RollingHash) Update(blockChecksum uint32) uint32 {
	r.h = rotl32(r.h, 1) ^ blockChecksum
	return r.h
}

// Value returns the current accumulated hash without modifying it.
func (r *RollingHash) Value() uint32 {
	return r.h
}

func rotl32(v uint32, n uint) uint32 {
	return (v << n) | (v >> (32 - n))
}
