package chunk

import (
	"math/bits"

	"github.com/hellobertrand/zxc/errs"
	"github.com/hellobertrand/zxc/format"
	"github.com/hellobertrand/zxc/internal/primitives"
)

// NUM header: u64 n_values, u16 frame_size, 6 reserved bytes.
const numHeaderSize = 16

// numFrameRecordFixedSize is the fixed portion of one frame record: u16
// nvals_in_frame, u16 bits_per_value, u64 base, u32 packed_size.
const numFrameRecordFixedSize = 2 + 2 + 8 + 4

// probeNumeric applies the cheap heuristic spec.md §4.2 step 1 describes:
// the chunk's length must be a multiple of 4 (and at least 32 bytes), and
// the high byte of each 4-byte lane should repeat the previous lane's often
// enough to suggest integer-like delta runs rather than arbitrary bytes. This
// only gates whether NUM encoding is attempted at all; the actual
// encode-vs-LZ choice always compares real output sizes (Encode keeps the
// smallest of NUM, the level's LZ encoding, and RAW).
func probeNumeric(src []byte) bool {
	if len(src) < 4*8 || len(src)%4 != 0 {
		return false
	}

	n := len(src) / 4
	sameHighByteRuns := 0
	var prevHigh byte
	for i := 0; i < n; i++ {
		hi := src[i*4+3]
		if i > 0 && hi == prevHigh {
			sameHighByteRuns++
		}
		prevHigh = hi
	}

	// Integer-like data tends to keep its high byte constant or
	// slowly-varying across consecutive lanes; require at least half the
	// transitions to repeat the previous high byte.
	return sameHighByteRuns*2 >= n-1
}

// encodeNUM encodes src (interpreted as little-endian uint32 values) using
// delta+zigzag bit-packed frames of up to format.NumFrameSize values each
// (spec.md §3.2/§4.2 step 1).
func encodeNUM(src []byte) []byte {
	nValues := len(src) / 4
	out := make([]byte, numHeaderSize)
	primitives.StoreU64(out[0:8], uint64(nValues))
	primitives.StoreU16(out[8:10], uint16(format.NumFrameSize))
	// out[10:16] reserved, already zero

	var prev uint32
	for start := 0; start < nValues; start += format.NumFrameSize {
		end := start + format.NumFrameSize
		if end > nValues {
			end = nValues
		}
		count := end - start
		base := prev

		zigzags := make([]uint32, count)
		maxBits := 0
		for i := 0; i < count; i++ {
			val := primitives.LoadU32(src[(start+i)*4:])
			delta := int32(val - prev) //nolint:gosec
			zz := primitives.ZigzagEncode32(delta)
			zigzags[i] = zz
			if b := bitsNeeded(zz); b > maxBits {
				maxBits = b
			}
			prev = val
		}

		bw := primitives.NewBitWriter(nil)
		for _, zz := range zigzags {
			bw.WriteBits(uint64(zz), maxBits)
		}
		packed := bw.Flush()

		rec := make([]byte, numFrameRecordFixedSize)
		primitives.StoreU16(rec[0:2], uint16(count))   //nolint:gosec
		primitives.StoreU16(rec[2:4], uint16(maxBits)) //nolint:gosec
		primitives.StoreU64(rec[4:12], uint64(base))
		primitives.StoreU32(rec[12:16], uint32(len(packed))) //nolint:gosec

		out = append(out, rec...)
		out = append(out, packed...)
	}

	return out
}

func bitsNeeded(v uint32) int {
	return bits.Len32(v)
}

// decodeNUM parses a NUM payload and writes the reconstructed little-endian
// uint32 stream into dst, returning the number of bytes written.
func decodeNUM(payload []byte, dst []byte) (int, error) {
	if len(payload) < numHeaderSize {
		return 0, errs.New(errs.ErrSrcTooSmall, "NUM header truncated")
	}

	nValues := primitives.LoadU64(payload[0:8])
	pos := numHeaderSize
	written := 0

	remaining := nValues
	for remaining > 0 {
		if pos+numFrameRecordFixedSize > len(payload) {
			return 0, errs.New(errs.ErrCorruptData, "NUM frame record truncated")
		}

		count := int(primitives.LoadU16(payload[pos : pos+2]))
		bitsPerValue := int(primitives.LoadU16(payload[pos+2 : pos+4]))
		base := uint32(primitives.LoadU64(payload[pos+4 : pos+12])) //nolint:gosec
		packedSize := int(primitives.LoadU32(payload[pos+12 : pos+16]))
		pos += numFrameRecordFixedSize

		if pos+packedSize > len(payload) {
			return 0, errs.New(errs.ErrCorruptData, "NUM frame payload truncated")
		}
		if uint64(count) > remaining {
			return 0, errs.New(errs.ErrCorruptData, "NUM frame overruns declared value count")
		}
		if written+count*4 > len(dst) {
			return 0, errs.New(errs.ErrOverflow, "NUM frame would write past destination bound")
		}

		frameDst := dst[written : written+count*4]
		if err := decodeNUMFrame(payload[pos:pos+packedSize], count, bitsPerValue, base, frameDst); err != nil {
			return 0, err
		}

		pos += packedSize
		written += count * 4
		remaining -= uint64(count)
	}

	return written, nil
}

// decodeNUMFrame unpacks one frame's bit-packed zigzag deltas and runs the
// prefix sum seeded by base, writing reconstructed little-endian uint32
// values into dst (which must be exactly count*4 bytes).
//
// The reconstruction is expressed as a scalar 4x-unrolled loop — the fallback
// spec.md §4.3.1 requires alongside a vectorized >=4-lane strategy. A SIMD
// build would replace this function's body with lane-parallel adds plus a
// broadcast of the last lane across the lane boundary; the frame boundary
// (reseeding from base rather than carrying state across frames) exists
// precisely so each frame can be reconstructed independently on its own
// lane group.
func decodeNUMFrame(packed []byte, count int, bitsPerValue int, base uint32, dst []byte) error {
	if bitsPerValue > 32 {
		return errs.New(errs.ErrCorruptData, "NUM frame bits_per_value out of range")
	}

	br := primitives.NewBitReader(packed)
	running := base

	i := 0
	for ; i+4 <= count; i += 4 {
		var d [4]uint32
		for lane := 0; lane < 4; lane++ {
			if bitsPerValue > 0 {
				br.Refill(bitsPerValue)
			}
			zz := uint32(br.Consume(bitsPerValue))
			d[lane] = uint32(primitives.ZigzagDecode32(zz))
		}
		// Lane-bridging prefix sum: each lane adds its own delta plus the
		// running total carried from the previous group of 4.
		running += d[0]
		primitives.StoreU32(dst[i*4:], running)
		running += d[1]
		primitives.StoreU32(dst[(i+1)*4:], running)
		running += d[2]
		primitives.StoreU32(dst[(i+2)*4:], running)
		running += d[3]
		primitives.StoreU32(dst[(i+3)*4:], running)
	}

	for ; i < count; i++ {
		if bitsPerValue > 0 {
			br.Refill(bitsPerValue)
		}
		zz := uint32(br.Consume(bitsPerValue))
		running += uint32(primitives.ZigzagDecode32(zz))
		primitives.StoreU32(dst[i*4:], running)
	}

	return nil
}
