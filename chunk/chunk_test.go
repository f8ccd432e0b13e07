package chunk

import (
	"encoding/binary"
	"testing"

	"github.com/hellobertrand/zxc/errs"
	"github.com/hellobertrand/zxc/format"
	"github.com/hellobertrand/zxc/internal/primitives"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, src []byte, level int) {
	t.Helper()

	blockType, payload := Encode(src, level)

	dst := make([]byte, Bound(len(src)))
	n, err := Decode(blockType, payload, dst)
	require.NoError(t, err)
	require.Equal(t, len(src), n)
	require.Equal(t, src, dst[:n])
}

func TestRoundTripEmpty(t *testing.T) {
	for level := 1; level <= 5; level++ {
		roundTrip(t, []byte{}, level)
	}
}

func TestRoundTripTenByteLiteral(t *testing.T) {
	src := []byte("abcdefghij")
	for level := 1; level <= 5; level++ {
		roundTrip(t, src, level)
	}
}

func TestRoundTripHighlyRepetitive(t *testing.T) {
	src := make([]byte, 8192)
	for i := range src {
		src[i] = 'x'
	}
	for level := 1; level <= 5; level++ {
		roundTrip(t, src, level)
	}
}

func TestRoundTripLargeOffsetPeriodic(t *testing.T) {
	period := 40000
	src := make([]byte, period*2+37)
	for i := range src {
		src[i] = byte(i % period % 251)
	}
	for level := 1; level <= 5; level++ {
		roundTrip(t, src, level)
	}
}

func TestRoundTripIncompressible(t *testing.T) {
	src := make([]byte, 4096)
	state := uint32(0x2545F491)
	for i := range src {
		state ^= state << 13
		state ^= state >> 17
		state ^= state << 5
		src[i] = byte(state)
	}
	for level := 1; level <= 5; level++ {
		roundTrip(t, src, level)
	}
}

func TestRoundTripNumeric(t *testing.T) {
	n := 4000
	src := make([]byte, n*4)
	v := uint32(1_000_000)
	for i := 0; i < n; i++ {
		v += uint32(i%7) - 3
		binary.LittleEndian.PutUint32(src[i*4:], v)
	}
	for level := 1; level <= 5; level++ {
		roundTrip(t, src, level)
	}
}

func TestEncodeFallsBackToRAWWhenNothingShrinksIt(t *testing.T) {
	src := []byte{0x01, 0x02, 0x03}
	blockType, payload := Encode(src, 5)
	require.Equal(t, format.BlockRAW, blockType)
	require.Equal(t, src, payload)
}

func TestDecodeUnknownBlockType(t *testing.T) {
	_, err := Decode(format.BlockType(200), nil, make([]byte, 8))
	require.Error(t, err)
}

func TestEncodeGLOLiteralRLERoundTrip(t *testing.T) {
	lits := append(append([]byte("AAAA"), make([]byte, 200)...), []byte("end")...)
	for i := 4; i < 204; i++ {
		lits[i] = 'z'
	}
	out := encodeLiteralRLE(lits)
	dst := make([]byte, len(lits))
	n, err := decodeLiteralRLE(out, dst, len(lits))
	require.NoError(t, err)
	require.Equal(t, len(out), n)
	require.Equal(t, lits, dst)
}

func TestDecodeNUMRejectsDestinationOverflow(t *testing.T) {
	n := 600
	src := make([]byte, n*4)
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint32(src[i*4:], uint32(i))
	}

	payload := encodeNUM(src)

	dst := make([]byte, len(src)-4)
	_, err := decodeNUM(payload, dst)
	require.Error(t, err)
	require.ErrorIs(t, err, errs.ErrOverflow)
}

func TestDecodeGLORejectsOversizedRLELiteralExpansion(t *testing.T) {
	nLiterals := format.MaxChunkSize + 1

	payload := make([]byte, seqHeaderSize)
	primitives.StoreU32(payload[0:4], 0)                        // nSeq
	primitives.StoreU32(payload[4:8], uint32(nLiterals)) //nolint:gosec
	payload[8] = byte(format.LitRLE)
	payload[11] = byte(format.OffWide)

	descOffset := len(payload)
	payload = append(payload, make([]byte, 4*sectionDescSize)...)
	primitives.StoreU64(payload[descOffset:], packSectionDesc(0, nLiterals))
	primitives.StoreU64(payload[descOffset+8:], packSectionDesc(0, 0))
	primitives.StoreU64(payload[descOffset+16:], packSectionDesc(0, 0))
	primitives.StoreU64(payload[descOffset+24:], packSectionDesc(0, 0))

	dst := make([]byte, 16)
	_, err := decodeGLO(payload, dst)
	require.Error(t, err)
	require.ErrorIs(t, err, errs.ErrMemory)
}

func TestCopyMatchOffsets(t *testing.T) {
	for _, offset := range []int{1, 2, 5, 15, 16, 31, 32, 64} {
		dst := make([]byte, offset+128+format.WildCopyMargin)
		for i := 0; i < offset; i++ {
			dst[i] = byte(i + 1)
		}
		copyMatch(dst, offset, offset, 64)

		for i := 0; i < 64; i++ {
			require.Equal(t, dst[i], dst[offset+i], "offset=%d i=%d", offset, i)
		}
	}
}
