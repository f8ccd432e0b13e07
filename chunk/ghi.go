package chunk

import (
	"github.com/hellobertrand/zxc/errs"
	"github.com/hellobertrand/zxc/format"
	"github.com/hellobertrand/zxc/internal/pool"
	"github.com/hellobertrand/zxc/internal/primitives"
)

// encodeGHI serializes seqs/trailingLiterals from src into a GHI payload
// (spec.md §3.2): a 16-byte header identical in layout to GLO's, three
// 8-byte section descriptors (Literals, Sequences, Extras), then the
// streams. Each sequence is one 32-bit word: bits 31..24 = LL, 23..16 = ML
// code, 15..0 = offset-1. GHI never applies RLE to literals.
func encodeGHI(src []byte, seqs []sequence, trailingLiterals int) []byte {
	litBuf := pool.GetChunkBuffer()
	extBuf := pool.GetChunkBuffer()
	defer pool.PutChunkBuffer(litBuf)
	defer pool.PutChunkBuffer(extBuf)

	sequences := make([]byte, 0, len(seqs)*4)

	for _, s := range seqs {
		litBuf.MustWrite(src[s.litStart : s.litStart+s.litLen])

		ll := s.litLen
		mlCode := s.matchLen - format.MinMatch

		llField := ll
		if llField >= int(format.GHIFieldSaturation) {
			llField = int(format.GHIFieldSaturation)
			extBuf.B = primitives.AppendVarint(extBuf.B, uint32(ll-int(format.GHIFieldSaturation)))
		}

		mlField := mlCode
		if mlField >= int(format.GHIFieldSaturation) {
			mlField = int(format.GHIFieldSaturation)
			extBuf.B = primitives.AppendVarint(extBuf.B, uint32(mlCode-int(format.GHIFieldSaturation)))
		}

		biased := uint32(s.offset - 1) //nolint:gosec
		word := uint32(llField)<<24 | uint32(mlField)<<16 | biased
		sequences = primitives.AppendU32(sequences, word)
	}

	trailStart := len(src) - trailingLiterals
	litBuf.MustWrite(src[trailStart:])
	literals := litBuf.Bytes()
	extras := extBuf.Bytes()

	out := make([]byte, seqHeaderSize)
	primitives.StoreU32(out[0:4], uint32(len(seqs)))     //nolint:gosec
	primitives.StoreU32(out[4:8], uint32(len(literals))) //nolint:gosec
	out[8] = byte(format.LitRaw)
	// out[9:12] reserved selectors, out[12:16] reserved

	descOffset := len(out)
	out = append(out, make([]byte, 3*sectionDescSize)...)

	out = append(out, literals...)
	out = append(out, sequences...)
	out = append(out, extras...)

	primitives.StoreU64(out[descOffset:], packSectionDesc(len(literals), len(literals)))
	primitives.StoreU64(out[descOffset+8:], packSectionDesc(len(sequences), len(sequences)))
	primitives.StoreU64(out[descOffset+16:], packSectionDesc(len(extras), len(extras)))

	return out
}

// decodeGHI parses a GHI payload and reconstructs the original chunk bytes
// into dst, returning the number of logical bytes written.
func decodeGHI(payload []byte, dst []byte) (int, error) {
	if len(payload) < seqHeaderSize+3*sectionDescSize {
		return 0, errs.New(errs.ErrSrcTooSmall, "GHI header truncated")
	}

	nLiterals := int(primitives.LoadU32(payload[4:8]))

	pos := seqHeaderSize
	litDesc := primitives.LoadU64(payload[pos:])
	seqDesc := primitives.LoadU64(payload[pos+8:])
	extDesc := primitives.LoadU64(payload[pos+16:])
	pos += 3 * sectionDescSize

	litCompSize, litRawSize := unpackSectionDesc(litDesc)
	seqCompSize, _ := unpackSectionDesc(seqDesc)
	extCompSize, _ := unpackSectionDesc(extDesc)

	if litRawSize != nLiterals {
		return 0, errs.New(errs.ErrCorruptData, "GHI literal section size mismatch")
	}

	if err := validateSections(payload, pos, litCompSize, seqCompSize, extCompSize); err != nil {
		return 0, err
	}

	literals := payload[pos : pos+litCompSize]
	pos += litCompSize

	sequences := payload[pos : pos+seqCompSize]
	pos += seqCompSize

	extras := payload[pos : pos+extCompSize]
	pos += extCompSize

	if seqCompSize%4 != 0 {
		return 0, errs.New(errs.ErrCorruptData, "GHI sequence section not word-aligned")
	}
	nSeq := seqCompSize / 4

	vr := primitives.NewVarintReader(extras)
	litPos := 0
	dstPos := 0
	bytesWritten := 0

	const threshold = format.SafeFastThresholdWide

	for i := 0; i < nSeq; i++ {
		word := primitives.LoadU32(sequences[i*4:])
		ll := int(word >> 24)
		mlCode := int((word >> 16) & 0xFF)
		biased := int(word & 0xFFFF)

		if ll == int(format.GHIFieldSaturation) {
			ll += int(vr.Read())
		}
		if mlCode == int(format.GHIFieldSaturation) {
			mlCode += int(vr.Read())
		}
		matchLen := mlCode + format.MinMatch
		offset := biased + 1

		if litPos+ll > len(literals) {
			return 0, errs.New(errs.ErrCorruptData, "GHI literal cursor overruns literal section")
		}

		if dstPos+ll > len(dst) {
			return 0, errs.New(errs.ErrDstTooSmall, "GHI destination too small for literal copy")
		}
		if bytesWritten < threshold {
			copy(dst[dstPos:dstPos+ll], literals[litPos:litPos+ll])
		} else {
			copyLiteralWild(dst, dstPos, literals, litPos, ll)
		}
		dstPos += ll
		litPos += ll
		bytesWritten += ll

		if offset < 1 || offset > bytesWritten {
			return 0, errs.New(errs.ErrBadOffset, "GHI match offset exceeds bytes written")
		}

		if bytesWritten < threshold {
			if dstPos+matchLen > len(dst) {
				return 0, errs.New(errs.ErrDstTooSmall, "GHI destination too small for match copy")
			}
			copyMatchSafe(dst, dstPos, offset, matchLen)
		} else {
			if dstPos+matchLen+format.WildCopyMargin > len(dst) {
				return 0, errs.New(errs.ErrDstTooSmall, "GHI destination too small for match wild copy")
			}
			copyMatch(dst, dstPos, offset, matchLen)
		}
		dstPos += matchLen
		bytesWritten += matchLen
	}

	trailing := len(literals) - litPos
	if trailing > 0 {
		if dstPos+trailing > len(dst) {
			return 0, errs.New(errs.ErrDstTooSmall, "GHI destination too small for trailing literals")
		}
		copy(dst[dstPos:dstPos+trailing], literals[litPos:])
		dstPos += trailing
		bytesWritten += trailing
	}

	if litPos+trailing != len(literals) {
		return 0, errs.New(errs.ErrCorruptData, "GHI literal stream not fully consumed")
	}
	if vr.Pos() != len(extras) {
		return 0, errs.New(errs.ErrCorruptData, "GHI extras stream not fully consumed")
	}

	return bytesWritten, nil
}
