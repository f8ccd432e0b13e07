// Package primitives provides the little-endian codecs, header hashes,
// prefix-varint stream, and bit reader/writer that every higher-level ZXC
// package builds on.
//
// This mirrors the role of the teacher's endian package (binary.ByteOrder
// wrapped for append-friendly encode/decode) but is specialized to the
// fixed little-endian wire format spec.md mandates for every multi-byte
// integer in the container and block formats.
package primitives

import "encoding/binary"

// LoadU16 reads a little-endian uint16 from the first 2 bytes of b.
func LoadU16(b []byte) uint16 {
	return binary.LittleEndian.Uint16(b)
}

// LoadU32 reads a little-endian uint32 from the first 4 bytes of b.
func LoadU32(b []byte) uint32 {
	return binary.LittleEndian.Uint32(b)
}

// LoadU64 reads a little-endian uint64 from the first 8 bytes of b.
func LoadU64(b []byte) uint64 {
	return binary.LittleEndian.Uint64(b)
}

// StoreU16 writes v as little-endian into the first 2 bytes of b.
func StoreU16(b []byte, v uint16) {
	binary.LittleEndian.PutUint16(b, v)
}

// StoreU32 writes v as little-endian into the first 4 bytes of b.
func StoreU32(b []byte, v uint32) {
	binary.LittleEndian.PutUint32(b, v)
}

// StoreU64 writes v as little-endian into the first 8 bytes of b.
func StoreU64(b []byte, v uint64) {
	binary.LittleEndian.PutUint64(b, v)
}

// AppendU32 appends v as little-endian to b and returns the grown slice.
func AppendU32(b []byte, v uint32) []byte {
	return binary.LittleEndian.AppendUint32(b, v)
}

// AppendU64 appends v as little-endian to b and returns the grown slice.
func AppendU64(b []byte, v uint64) []byte {
	return binary.LittleEndian.AppendUint64(b, v)
}

// PartialLoadU64 safely reads up to 7 bytes from b into the low bits of a
// uint64, little-endian. It never reads past len(b).
func PartialLoadU64(b []byte) uint64 {
	var v uint64
	n := len(b)
	if n > 7 {
		n = 7
	}

	for i := 0; i < n; i++ {
		v |= uint64(b[i]) << (8 * uint(i))
	}

	return v
}
