package stream

import (
	"bytes"
	"testing"

	"github.com/hellobertrand/zxc/errs"
	"github.com/stretchr/testify/require"
)

func generateInput(n int) []byte {
	src := make([]byte, n)
	state := uint32(0x9E3779B9)
	for i := range src {
		if i%97 < 40 {
			src[i] = 'a' + byte(i%7)
		} else {
			state ^= state << 13
			state ^= state >> 17
			state ^= state << 5
			src[i] = byte(state)
		}
	}

	return src
}

func roundTripStream(t *testing.T, input []byte, workers int, checksum bool, chunkSize int) {
	t.Helper()

	var compressed bytes.Buffer
	_, err := Compress(bytes.NewReader(input), &compressed, Options{
		Workers:   workers,
		Level:     3,
		Checksum:  checksum,
		ChunkSize: chunkSize,
	})
	require.NoError(t, err)

	var decompressed bytes.Buffer
	n, err := Decompress(bytes.NewReader(compressed.Bytes()), &decompressed, Options{Workers: workers})
	require.NoError(t, err)
	require.Equal(t, uint64(len(input)), n)
	require.Equal(t, input, decompressed.Bytes())
}

func TestStreamRoundTripSingleWorker(t *testing.T) {
	input := generateInput(3 * 4096)
	roundTripStream(t, input, 1, true, 4096)
}

func TestStreamRoundTripMultiWorkerMultiBlock(t *testing.T) {
	input := generateInput(50 * 4096)
	roundTripStream(t, input, 6, true, 4096)
}

func TestStreamRoundTripNoChecksum(t *testing.T) {
	input := generateInput(10 * 4096)
	roundTripStream(t, input, 3, false, 4096)
}

func TestStreamRoundTripEmptyInput(t *testing.T) {
	roundTripStream(t, nil, 2, true, 4096)
}

func TestStreamWorkerCountDoesNotChangeOutputBytes(t *testing.T) {
	input := generateInput(30 * 4096)

	var out1, out2 bytes.Buffer
	_, err := Compress(bytes.NewReader(input), &out1, Options{Workers: 1, Level: 3, Checksum: true, ChunkSize: 4096})
	require.NoError(t, err)
	_, err = Compress(bytes.NewReader(input), &out2, Options{Workers: 8, Level: 3, Checksum: true, ChunkSize: 4096})
	require.NoError(t, err)

	require.Equal(t, out1.Bytes(), out2.Bytes())
}

func TestStreamDetectsTruncation(t *testing.T) {
	input := generateInput(10 * 4096)

	var compressed bytes.Buffer
	_, err := Compress(bytes.NewReader(input), &compressed, Options{Workers: 2, Level: 3, Checksum: true, ChunkSize: 4096})
	require.NoError(t, err)

	truncated := compressed.Bytes()[:compressed.Len()-20]

	var decompressed bytes.Buffer
	_, err = Decompress(bytes.NewReader(truncated), &decompressed, Options{Workers: 2})
	require.Error(t, err)
}

func TestCompressRejectsNilReaderOrWriter(t *testing.T) {
	var out bytes.Buffer
	_, err := Compress(nil, &out, Options{Workers: 1, Level: 3})
	require.ErrorIs(t, err, errs.ErrNullInput)

	_, err = Compress(bytes.NewReader(nil), nil, Options{Workers: 1, Level: 3})
	require.ErrorIs(t, err, errs.ErrNullInput)
}

func TestDecompressRejectsNilReaderOrWriter(t *testing.T) {
	var out bytes.Buffer
	_, err := Decompress(nil, &out, Options{Workers: 1})
	require.ErrorIs(t, err, errs.ErrNullInput)

	_, err = Decompress(bytes.NewReader(nil), nil, Options{Workers: 1})
	require.ErrorIs(t, err, errs.ErrNullInput)
}

func TestStreamDetectsChecksumTamper(t *testing.T) {
	input := generateInput(5 * 4096)

	var compressed bytes.Buffer
	_, err := Compress(bytes.NewReader(input), &compressed, Options{Workers: 2, Level: 3, Checksum: true, ChunkSize: 4096})
	require.NoError(t, err)

	tampered := append([]byte(nil), compressed.Bytes()...)
	// Flip a byte inside the first block's payload (past the 8-byte file
	// header and 12-byte block header).
	tampered[8+12] ^= 0xFF

	var decompressed bytes.Buffer
	_, err = Decompress(bytes.NewReader(tampered), &decompressed, Options{Workers: 2})
	require.Error(t, err)
}
