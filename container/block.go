package container

import (
	"github.com/hellobertrand/zxc/errs"
	"github.com/hellobertrand/zxc/format"
	"github.com/hellobertrand/zxc/internal/primitives"
)

// BlockHeaderSize is the fixed size, in bytes, of a block header (spec.md
// §3.1): 1-byte type, 1-byte self-hash, 2 reserved bytes, 4-byte compressed
// size, 4-byte raw size.
const BlockHeaderSize = 12

// ChecksumSize is the size, in bytes, of the optional trailing per-block
// checksum.
const ChecksumSize = 4

// BlockHeader is the 12-byte header preceding every block's payload.
type BlockHeader struct {
	Type     format.BlockType
	CompSize uint32
	RawSize  uint32
}

// Bytes serializes the block header, computing and embedding its own
// self-hash byte over the other 11 bytes.
func (h BlockHeader) Bytes() []byte {
	b := make([]byte, BlockHeaderSize)
	b[0] = uint8(h.Type)
	b[2] = 0 // reserved
	b[3] = 0 // reserved
	primitives.StoreU32(b[4:8], h.CompSize)
	primitives.StoreU32(b[8:12], h.RawSize)

	b[1] = headerHash(b)

	return b
}

// headerHash computes hash8 over the header bytes excluding the hash byte
// itself (index 1), matching the layout written by Bytes.
func headerHash(b []byte) uint8 {
	var scratch [BlockHeaderSize - 1]byte
	scratch[0] = b[0]
	copy(scratch[1:], b[2:])

	return primitives.Hash8(scratch[:])
}

// ParseBlockHeader parses and validates a 12-byte block header from data,
// verifying its self-hash byte (spec.md §4.3's shared decode entry point).
func ParseBlockHeader(data []byte) (BlockHeader, error) {
	if len(data) < BlockHeaderSize {
		return BlockHeader{}, errs.New(errs.ErrSrcTooSmall, "block header truncated")
	}

	want := headerHash(data[:BlockHeaderSize])
	if data[1] != want {
		return BlockHeader{}, errs.New(errs.ErrBadHeader, "block header self-hash mismatch")
	}

	if data[2] != 0 || data[3] != 0 {
		return BlockHeader{}, errs.New(errs.ErrBadHeader, "reserved block header bytes must be zero")
	}

	h := BlockHeader{
		Type:     format.BlockType(data[0]),
		CompSize: primitives.LoadU32(data[4:8]),
		RawSize:  primitives.LoadU32(data[8:12]),
	}

	switch h.Type {
	case format.BlockRAW, format.BlockGLO, format.BlockNUM, format.BlockGHI:
	case format.BlockEOF:
		if h.CompSize != 0 {
			return BlockHeader{}, errs.New(errs.ErrBadHeader, "EOF block must have comp_size=0")
		}
	default:
		return BlockHeader{}, errs.New(errs.ErrBadBlockType, "unknown block type byte")
	}

	return h, nil
}

// EOFBlockHeader returns the header for the terminating EOF block.
func EOFBlockHeader() BlockHeader {
	return BlockHeader{Type: format.BlockEOF}
}
