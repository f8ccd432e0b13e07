// Package chunk implements the single-chunk encoder and decoder pipelines:
// match finding, tokenization, the GLO/GHI/NUM block encodings, and the
// SAFE/FAST bounds-check handoff on decode (spec.md §4.2/§4.3).
package chunk

import (
	"github.com/hellobertrand/zxc/errs"
	"github.com/hellobertrand/zxc/format"
)

// Bound returns the minimum destination buffer size safe to decode a chunk
// of rawSize bytes into: the logical size plus the wild-copy primitives'
// trailing overshoot headroom (spec.md §9).
func Bound(rawSize int) int {
	return rawSize + format.WildCopyMargin
}

// Encode turns one contiguous input chunk into a framed block's type and
// payload, running the full encoder pipeline spec.md §4.2 describes: probe
// for numeric mode, run the LZ match finder/tokenizer, serialize the
// level-selected encoding, and fall back to RAW if nothing beats it.
//
// level selects both search depth and encoding family: 1..2 use GHI
// (cheaper per-sequence cost, coarser fields), 3..5 use GLO (4-bit tokens,
// RLE literal pass, narrower offsets when possible).
func Encode(src []byte, level int) (format.BlockType, []byte) {
	best := src
	bestType := format.BlockRAW

	if probeNumeric(src) {
		if num := encodeNUM(src); len(num) < len(best) {
			best = num
			bestType = format.BlockNUM
		}
	}

	depth := searchDepthForLevel(level)
	seqs, trailing := tokenize(src, depth)

	var lz []byte
	var lzType format.BlockType
	if level <= 2 {
		lz = encodeGHI(src, seqs, trailing)
		lzType = format.BlockGHI
	} else {
		lz = encodeGLO(src, seqs, trailing)
		lzType = format.BlockGLO
	}

	if len(lz) < len(best) {
		best = lz
		bestType = lzType
	}

	return bestType, best
}

// Decode reconstructs one block's raw bytes from its type and payload into
// dst, which must be at least Bound(rawSize) bytes long. It returns the
// number of logical bytes written.
func Decode(blockType format.BlockType, payload []byte, dst []byte) (int, error) {
	switch blockType {
	case format.BlockRAW:
		if len(payload) > len(dst) {
			return 0, errs.New(errs.ErrDstTooSmall, "RAW block exceeds destination")
		}
		copy(dst[:len(payload)], payload)

		return len(payload), nil

	case format.BlockNUM:
		return decodeNUM(payload, dst)

	case format.BlockGLO:
		return decodeGLO(payload, dst)

	case format.BlockGHI:
		return decodeGHI(payload, dst)

	default:
		return 0, errs.New(errs.ErrBadBlockType, "unknown block type in chunk decode")
	}
}
