package primitives

import "github.com/cespare/xxhash/v2"

// BlockHash32 computes the 32-bit "rapidhash-class" checksum spec.md §4.1
// requires for block payloads: a fast, non-cryptographic, deterministic
// 32-bit fold of a 64-bit internal state. The internal state is
// xxhash.Sum64, and the fold is the high 32 bits XORed with the low 32
// bits — grounded on internal/hash/id.go's use of xxhash.Sum64String for
// mebo's metric IDs, generalized from strings to arbitrary byte payloads.
//
// The checksum algorithm is versioned in file-header flag bits 0..3
// (format.ChecksumAlgoXXHashFold is algorithm ID 0); a future
// implementation of this spec may add an alternate fold under a new ID
// without breaking archives written with this one.
func BlockHash32(data []byte) uint32 {
	h := xxhash.Sum64(data)

	return uint32(h>>32) ^ uint32(h)
}

// Hash16 computes a 16-bit header self-check hash over b, folding the same
// 64-bit xxhash state BlockHash32 uses down to 16 bits.
func Hash16(b []byte) uint16 {
	h := xxhash.Sum64(b)

	return uint16(h>>48) ^ uint16(h>>32) ^ uint16(h>>16) ^ uint16(h)
}

// Hash8 computes an 8-bit header self-check hash over b, used by the
// 12-byte block header to detect header-level corruption (spec.md §3.1).
func Hash8(b []byte) uint8 {
	h16 := Hash16(b)

	return uint8(h16>>8) ^ uint8(h16)
}
