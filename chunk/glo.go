package chunk

import (
	"github.com/hellobertrand/zxc/errs"
	"github.com/hellobertrand/zxc/format"
	"github.com/hellobertrand/zxc/internal/pool"
	"github.com/hellobertrand/zxc/internal/primitives"
)

// GLO/GHI share a 16-byte header: u32 n_sequences, u32 n_literals, four
// 1-byte encoding selectors, 4 reserved bytes (spec.md §3.2).
const seqHeaderSize = 16

// section descriptors are one u64 each: low 32 bits compressed size, high 32
// bits raw size (spec.md §3.3).
const sectionDescSize = 8

func packSectionDesc(compSize, rawSize int) uint64 {
	return uint64(uint32(compSize)) | uint64(uint32(rawSize))<<32 //nolint:gosec
}

func unpackSectionDesc(v uint64) (compSize, rawSize int) {
	return int(uint32(v)), int(uint32(v >> 32))
}

// encodeGLO serializes seqs/trailingLiterals from src into a GLO payload
// (spec.md §3.2/§4.2 steps 3-6): a 16-byte header, four 8-byte section
// descriptors, then Literals/Tokens/Offsets/Extras back to back.
func encodeGLO(src []byte, seqs []sequence, trailingLiterals int) []byte {
	litBuf := pool.GetChunkBuffer()
	extBuf := pool.GetChunkBuffer()
	defer pool.PutChunkBuffer(litBuf)
	defer pool.PutChunkBuffer(extBuf)

	tokens := make([]byte, len(seqs))

	maxOffset := 0
	for _, s := range seqs {
		if s.offset > maxOffset {
			maxOffset = s.offset
		}
	}

	offNarrow := maxOffset > 0 && maxOffset <= 256
	var offsetsWide []byte
	var offsetsNarrow []byte

	for i, s := range seqs {
		litBuf.MustWrite(src[s.litStart : s.litStart+s.litLen])

		ll := s.litLen
		mlCode := s.matchLen - format.MinMatch

		llField := ll
		if llField >= int(format.GLOTokenSaturation) {
			llField = int(format.GLOTokenSaturation)
			extBuf.B = primitives.AppendVarint(extBuf.B, uint32(ll-int(format.GLOTokenSaturation)))
		}

		mlField := mlCode
		if mlField >= int(format.GLOTokenSaturation) {
			mlField = int(format.GLOTokenSaturation)
			extBuf.B = primitives.AppendVarint(extBuf.B, uint32(mlCode-int(format.GLOTokenSaturation)))
		}

		tokens[i] = byte(llField<<4) | byte(mlField)

		biased := s.offset - 1
		if offNarrow {
			offsetsNarrow = append(offsetsNarrow, byte(biased))
		} else {
			offsetsWide = append(offsetsWide, byte(biased), byte(biased>>8))
		}
	}

	trailStart := len(src) - trailingLiterals
	litBuf.MustWrite(src[trailStart:])
	literals := litBuf.Bytes()
	extras := extBuf.Bytes()

	litPayload := literals
	litEnc := format.LitRaw
	if rle := encodeLiteralRLE(literals); len(rle) < len(literals)-len(literals)/10 {
		litPayload = rle
		litEnc = format.LitRLE
	}

	var offsets []byte
	offEnc := format.OffWide
	if offNarrow {
		offsets = offsetsNarrow
		offEnc = format.OffNarrow
	} else {
		offsets = offsetsWide
	}

	out := make([]byte, seqHeaderSize)
	primitives.StoreU32(out[0:4], uint32(len(seqs)))     //nolint:gosec
	primitives.StoreU32(out[4:8], uint32(len(literals))) //nolint:gosec
	out[8] = byte(litEnc)
	out[9] = 0 // enc_litlen: tokens are always direct, no secondary encoding
	out[10] = 0 // enc_mlen: same
	out[11] = byte(offEnc)
	// out[12:16] reserved

	descOffset := len(out)
	out = append(out, make([]byte, 4*sectionDescSize)...)

	out = append(out, litPayload...)
	out = append(out, tokens...)
	out = append(out, offsets...)
	out = append(out, extras...)

	primitives.StoreU64(out[descOffset:], packSectionDesc(len(litPayload), len(literals)))
	primitives.StoreU64(out[descOffset+8:], packSectionDesc(len(tokens), len(tokens)))
	primitives.StoreU64(out[descOffset+16:], packSectionDesc(len(offsets), len(offsets)))
	primitives.StoreU64(out[descOffset+24:], packSectionDesc(len(extras), len(extras)))

	return out
}

// decodeGLO parses a GLO payload and reconstructs the original chunk bytes
// into dst (which must have format.WildCopyMargin bytes of headroom beyond
// the logical end for the wild-copy primitives), returning the number of
// logical bytes written.
func decodeGLO(payload []byte, dst []byte) (int, error) {
	if len(payload) < seqHeaderSize+4*sectionDescSize {
		return 0, errs.New(errs.ErrSrcTooSmall, "GLO header truncated")
	}

	nSeq := int(primitives.LoadU32(payload[0:4]))
	nLiterals := int(primitives.LoadU32(payload[4:8]))
	litEnc := format.LitEncoding(payload[8])
	offEnc := format.OffEncoding(payload[11])

	pos := seqHeaderSize
	litDesc := primitives.LoadU64(payload[pos:])
	tokDesc := primitives.LoadU64(payload[pos+8:])
	offDesc := primitives.LoadU64(payload[pos+16:])
	extDesc := primitives.LoadU64(payload[pos+24:])
	pos += 4 * sectionDescSize

	litCompSize, litRawSize := unpackSectionDesc(litDesc)
	tokCompSize, _ := unpackSectionDesc(tokDesc)
	offCompSize, _ := unpackSectionDesc(offDesc)
	extCompSize, _ := unpackSectionDesc(extDesc)

	if litRawSize != nLiterals {
		return 0, errs.New(errs.ErrCorruptData, "GLO literal section size mismatch")
	}

	if err := validateSections(payload, pos, litCompSize, tokCompSize, offCompSize, extCompSize); err != nil {
		return 0, err
	}

	litSection := payload[pos : pos+litCompSize]
	pos += litCompSize

	tokens := payload[pos : pos+tokCompSize]
	pos += tokCompSize

	offsets := payload[pos : pos+offCompSize]
	pos += offCompSize

	extras := payload[pos : pos+extCompSize]
	pos += extCompSize

	if tokCompSize != nSeq {
		return 0, errs.New(errs.ErrCorruptData, "GLO token section size mismatch")
	}

	var literals []byte
	if litEnc == format.LitRLE {
		// nLiterals is the RLE stream's *expanded* size, independent of
		// litCompSize (that's the point of RLE), so validateSections above
		// cannot bound it. A corrupt or adversarial header can still claim
		// an expansion far larger than any chunk this encoder ever
		// produces; reject it before allocating rather than let a small
		// payload request an arbitrarily large buffer.
		if nLiterals > format.MaxChunkSize {
			return 0, errs.New(errs.ErrMemory, "GLO RLE literal expansion exceeds maximum chunk size")
		}

		literals = make([]byte, nLiterals)
		n, err := decodeLiteralRLE(litSection, literals, nLiterals)
		if err != nil {
			return 0, err
		}
		if n != len(litSection) {
			return 0, errs.New(errs.ErrCorruptData, "GLO RLE literal cursor mismatch")
		}
	} else {
		if len(litSection) != nLiterals {
			return 0, errs.New(errs.ErrCorruptData, "GLO raw literal size mismatch")
		}
		literals = litSection
	}

	vr := primitives.NewVarintReader(extras)
	litPos := 0
	dstPos := 0
	bytesWritten := 0

	threshold := format.SafeFastThresholdWide
	if offEnc == format.OffNarrow {
		threshold = format.SafeFastThresholdNarrow
	}

	for i := 0; i < nSeq; i++ {
		tok := tokens[i]
		ll := int(tok >> 4)
		mlCode := int(tok & 0x0F)

		if ll == int(format.GLOTokenSaturation) {
			ll += int(vr.Read())
		}
		if mlCode == int(format.GLOTokenSaturation) {
			mlCode += int(vr.Read())
		}
		matchLen := mlCode + format.MinMatch

		var biased int
		if offEnc == format.OffNarrow {
			if i >= len(offsets) {
				return 0, errs.New(errs.ErrCorruptData, "GLO offset section truncated")
			}
			biased = int(offsets[i])
		} else {
			o := i * 2
			if o+2 > len(offsets) {
				return 0, errs.New(errs.ErrCorruptData, "GLO offset section truncated")
			}
			biased = int(primitives.LoadU16(offsets[o : o+2]))
		}
		offset := biased + 1

		if litPos+ll > len(literals) {
			return 0, errs.New(errs.ErrCorruptData, "GLO literal cursor overruns literal section")
		}

		if dstPos+ll > len(dst) {
			return 0, errs.New(errs.ErrDstTooSmall, "GLO destination too small for literal copy")
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
			return 0, errs.New(errs.ErrBadOffset, "GLO match offset exceeds bytes written")
		}

		if bytesWritten < threshold {
			if dstPos+matchLen > len(dst) {
				return 0, errs.New(errs.ErrDstTooSmall, "GLO destination too small for match copy")
			}
			copyMatchSafe(dst, dstPos, offset, matchLen)
		} else {
			if dstPos+matchLen+format.WildCopyMargin > len(dst) {
				return 0, errs.New(errs.ErrDstTooSmall, "GLO destination too small for match wild copy")
			}
			copyMatch(dst, dstPos, offset, matchLen)
		}
		dstPos += matchLen
		bytesWritten += matchLen
	}

	trailing := len(literals) - litPos
	if trailing > 0 {
		if dstPos+trailing > len(dst) {
			return 0, errs.New(errs.ErrDstTooSmall, "GLO destination too small for trailing literals")
		}
		copy(dst[dstPos:dstPos+trailing], literals[litPos:])
		dstPos += trailing
		bytesWritten += trailing
	}

	if litPos+trailing != len(literals) {
		return 0, errs.New(errs.ErrCorruptData, "GLO literal stream not fully consumed")
	}
	if vr.Pos() != len(extras) {
		return 0, errs.New(errs.ErrCorruptData, "GLO extras stream not fully consumed")
	}

	return bytesWritten, nil
}

// copyLiteralWild copies n literal bytes from src[srcPos:] into
// dst[dstPos:] using 32-byte unchecked strides once the FAST phase has
// enough destination headroom, falling back to a tail loop for the last
// partial stride (spec.md §4.3.2's literal wild-copy contract).
func copyLiteralWild(dst []byte, dstPos int, src []byte, srcPos int, n int) {
	copied := 0
	for copied+32 <= n {
		copy(dst[dstPos+copied:dstPos+copied+32], src[srcPos+copied:srcPos+copied+32])
		copied += 32
	}
	if copied < n {
		copy(dst[dstPos+copied:dstPos+n], src[srcPos+copied:srcPos+n])
	}
}

// copyMatchSafe is copyMatch's SAFE-phase counterpart: it never reads or
// writes beyond dst[:dstPos+n], clamping every primitive's overshoot to the
// exact logical length instead of relying on buffer headroom.
func copyMatchSafe(dst []byte, dstPos, offset, n int) {
	for i := 0; i < n; i++ {
		dst[dstPos+i] = dst[dstPos+i-offset]
	}
}
