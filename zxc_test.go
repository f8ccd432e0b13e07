package zxc

import (
	"bytes"
	"testing"

	"github.com/hellobertrand/zxc/errs"
	"github.com/hellobertrand/zxc/format"
	"github.com/stretchr/testify/require"
)

func generatePayload(n int) []byte {
	src := make([]byte, n)
	state := uint32(0x2545F491)
	for i := range src {
		if i%83 < 50 {
			src[i] = 'a' + byte(i%5)
		} else {
			state ^= state << 13
			state ^= state >> 17
			state ^= state << 5
			src[i] = byte(state)
		}
	}

	return src
}

func TestCompressBoundMonotonic(t *testing.T) {
	require.Less(t, CompressBound(0), CompressBound(1))
	require.Less(t, CompressBound(1000), CompressBound(1_000_000))
}

func TestChunkBoundExceedsRawSize(t *testing.T) {
	require.Greater(t, ChunkBound(1024), 1024)
}

func TestCompressDecompressRoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 17, 4096, 9000} {
		src := generatePayload(n)

		dst := make([]byte, CompressBound(uint64(n)))
		written, err := Compress(src, dst, WithLevel(3), WithChecksum(true))
		require.NoError(t, err)

		out := make([]byte, n)
		n2, err := Decompress(dst[:written], out)
		require.NoError(t, err)
		require.Equal(t, uint64(n), n2)
		require.Equal(t, src, out[:n2])
	}
}

func TestCompressRejectsUndersizedDestination(t *testing.T) {
	src := generatePayload(4096)

	dst := make([]byte, 4)
	_, err := Compress(src, dst, WithLevel(3), WithChecksum(true))
	require.Error(t, err)
}

func TestCompressRejectsInvalidLevel(t *testing.T) {
	src := generatePayload(128)
	dst := make([]byte, CompressBound(uint64(len(src))))

	_, err := Compress(src, dst, WithLevel(9))
	require.ErrorIs(t, err, errs.ErrInvalidOption)
}

func TestWithChunkSizeRejectsOutOfRange(t *testing.T) {
	src := generatePayload(128)
	dst := make([]byte, CompressBound(uint64(len(src))))

	_, err := Compress(src, dst, WithChunkSize(0))
	require.Error(t, err)

	_, err = Compress(src, dst, WithChunkSize(format.MaxChunkSize+1))
	require.Error(t, err)
}

func TestWithWorkersRejectsBelowOne(t *testing.T) {
	var out bytes.Buffer
	_, err := StreamCompress(bytes.NewReader(generatePayload(128)), &out, WithWorkers(0))
	require.Error(t, err)
}

func TestDecompressedSizeReadsFooterWithoutDecoding(t *testing.T) {
	src := generatePayload(8192)

	dst := make([]byte, CompressBound(uint64(len(src))))
	written, err := Compress(src, dst, WithLevel(2), WithChecksum(true))
	require.NoError(t, err)

	n, ok := DecompressedSize(dst[:written])
	require.True(t, ok)
	require.Equal(t, uint64(len(src)), n)
}

func TestDecompressedSizeRejectsTruncatedArchive(t *testing.T) {
	_, ok := DecompressedSize([]byte{1, 2, 3})
	require.False(t, ok)
}

func TestStreamCompressDecompressRoundTrip(t *testing.T) {
	src := generatePayload(40000)

	var compressed bytes.Buffer
	var progressed uint64
	_, err := StreamCompress(bytes.NewReader(src), &compressed,
		WithWorkers(4), WithLevel(3), WithChecksum(true),
		WithProgress(func(processed, total uint64) {
			progressed = processed
		}),
	)
	require.NoError(t, err)
	require.Greater(t, progressed, uint64(0))

	var out bytes.Buffer
	n, err := StreamDecompress(bytes.NewReader(compressed.Bytes()), &out, WithWorkers(4))
	require.NoError(t, err)
	require.Equal(t, uint64(len(src)), n)
	require.Equal(t, src, out.Bytes())
}
