// Package zxc implements ZXC, a lossless asymmetric block compressor built
// around two SIMD-friendly LZ77 encodings (GLO, GHI) and a delta-packed
// numeric codec (NUM), framed inside a checksummed container format.
//
// # Core features
//
//   - Two LZ77 block encodings tuned for fast, branch-light decode: GLO
//     (4-bit token stream with varint overflow) for levels 3-5, GHI (packed
//     32-bit sequence words) for levels 1-2.
//   - NUM, a delta+zigzag bit-packed codec for integer-like 32-bit value
//     streams, selected automatically when it beats the LZ encoding.
//   - A checksummed container format with per-block self-describing headers,
//     an optional non-cryptographic block checksum, and a whole-archive
//     rolling hash.
//   - A parallel streaming driver that preserves source order regardless of
//     worker count, for compressing or decompressing readers/writers of
//     unbounded size.
//
// # Basic usage
//
//	bound := zxc.CompressBound(uint64(len(data)))
//	dst := make([]byte, bound)
//	n, err := zxc.Compress(data, dst, zxc.WithLevel(3), zxc.WithChecksum(true))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	compressed := dst[:n]
//
//	out := make([]byte, len(data))
//	n, err = zxc.Decompress(compressed, out)
//
// # Package structure
//
// This package is a thin wrapper around chunk (the single-chunk codec),
// container (the file/block framing), and stream (the parallel streaming
// driver). Use those packages directly for fine-grained control; most
// callers only need the functions here.
package zxc

import (
	"bytes"
	"io"

	"github.com/hellobertrand/zxc/chunk"
	"github.com/hellobertrand/zxc/container"
	"github.com/hellobertrand/zxc/errs"
	"github.com/hellobertrand/zxc/format"
	"github.com/hellobertrand/zxc/internal/options"
	"github.com/hellobertrand/zxc/stream"
)

// Progress is an optional callback invoked by the streaming writer as work
// completes: (bytesProcessed, bytesTotal). bytesTotal is zero when the
// total input size is not known in advance (e.g. an unbounded reader).
type Progress func(processed, total uint64)

// config holds the resolved settings for a single Compress/Decompress/
// StreamCompress/StreamDecompress call, built by applying Option values
// against the defaults below.
type config struct {
	workers   int
	level     int
	checksum  bool
	chunkSize int
	progress  Progress
}

func defaultConfig() *config {
	return &config{
		workers:   1,
		level:     3,
		checksum:  true,
		chunkSize: format.DefaultChunkSize,
	}
}

// Option configures a Compress/Decompress/StreamCompress/StreamDecompress
// call. An Option validates the value it carries at construction time, so a
// bad level or chunk size fails the call before any work begins rather than
// deep inside the streaming pipeline.
type Option = options.Option[*config]

// WithLevel sets the compression level (1..5, trading speed for ratio).
// Ignored by Decompress/StreamDecompress: decoding does not depend on the
// level, and the archive does not record it. Values outside 1..5 fail with
// errs.ErrInvalidOption.
func WithLevel(level int) Option {
	return options.New(func(c *config) error {
		if level < 1 || level > 5 {
			return errs.New(errs.ErrInvalidOption, "level must be between 1 and 5")
		}

		c.level = level

		return nil
	})
}

// WithChecksum enables or disables the per-block checksum and whole-archive
// rolling hash on Compress/StreamCompress. Ignored by Decompress/
// StreamDecompress, whose archive header carries its own authoritative
// checksum-enabled flag.
func WithChecksum(enabled bool) Option {
	return options.NoError(func(c *config) {
		c.checksum = enabled
	})
}

// WithWorkers sets the number of worker goroutines StreamCompress/
// StreamDecompress run the chunk encoder/decoder on in parallel. Values
// below 1 fail with errs.ErrInvalidOption; Compress/Decompress ignore this
// option, since a single buffer-to-buffer call always runs on one worker.
func WithWorkers(workers int) Option {
	return options.New(func(c *config) error {
		if workers < 1 {
			return errs.New(errs.ErrInvalidOption, "workers must be at least 1")
		}

		c.workers = workers

		return nil
	})
}

// WithChunkSize overrides the default chunk size Compress/StreamCompress
// splits input into. Ignored by Decompress/StreamDecompress, which read the
// chunk size the file header carries. Values outside
// (0, format.MaxChunkSize] fail with errs.ErrInvalidOption.
func WithChunkSize(n int) Option {
	return options.New(func(c *config) error {
		if n <= 0 || n > format.MaxChunkSize {
			return errs.New(errs.ErrInvalidOption, "chunk size out of range")
		}

		c.chunkSize = n

		return nil
	})
}

// WithProgress registers a callback invoked by the streaming writer as work
// completes: (bytesProcessed, bytesTotal). bytesTotal is zero when the
// total input size is not known in advance (e.g. an unbounded reader).
func WithProgress(fn Progress) Option {
	return options.NoError(func(c *config) {
		c.progress = fn
	})
}

// CompressBound returns an upper bound on the compressed size of n input
// bytes: the file header, plus one framed block per chunk (each bounded by
// its raw chunk size since the encoder never emits a payload larger than
// the input it was given) plus its optional checksum, plus the EOF block
// and footer. Chunks are counted at format.DefaultChunkSize; an archive
// written with a smaller WithChunkSize has more blocks, each with its own
// header and checksum, and can exceed this bound.
func CompressBound(n uint64) uint64 {
	chunkSize := uint64(format.DefaultChunkSize)
	blocks := n / chunkSize
	if n%chunkSize != 0 {
		blocks++
	}

	perBlock := uint64(container.BlockHeaderSize) + chunkSize + uint64(container.ChecksumSize)

	return uint64(container.FileHeaderSize) + blocks*perBlock + uint64(container.BlockHeaderSize) + uint64(container.FooterSize)
}

// ChunkBound returns the minimum destination buffer size safe to decode a
// single chunk of rawSize bytes into, for callers sizing their own
// per-chunk buffers against chunk.Decode directly rather than going through
// Compress/Decompress.
func ChunkBound(rawSize int) int {
	return chunk.Bound(rawSize)
}

// boundedWriter adapts a fixed-capacity []byte into an io.Writer that fails
// with errs.ErrDstTooSmall instead of growing, for the single-shot
// buffer-to-buffer operations below.
type boundedWriter struct {
	buf []byte
	n   int
}

func (b *boundedWriter) Write(p []byte) (int, error) {
	if b.n+len(p) > len(b.buf) {
		return 0, errs.New(errs.ErrDstTooSmall, "destination buffer too small")
	}

	copy(b.buf[b.n:], p)
	b.n += len(p)

	return len(p), nil
}

// Compress compresses src into dst using a single worker, returning the
// number of bytes written to dst. dst must be at least
// CompressBound(len(src)) bytes; a smaller dst fails rather than silently
// truncating, with an error of kind errs.ErrIO whose message carries the
// destination-too-small cause. See WithLevel, WithChecksum, and
// WithChunkSize for the options Compress accepts.
func Compress(src []byte, dst []byte, opts ...Option) (uint64, error) {
	cfg := defaultConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return 0, err
	}

	bw := &boundedWriter{buf: dst}
	_, err := stream.Compress(bytes.NewReader(src), bw, stream.Options{
		Workers:   1,
		Level:     cfg.level,
		Checksum:  cfg.checksum,
		ChunkSize: cfg.chunkSize,
	})
	if err != nil {
		return uint64(bw.n), err
	}

	return uint64(bw.n), nil
}

// Decompress decompresses src into dst using a single worker, returning the
// number of bytes written to dst. Decompress accepts no options today (the
// archive's own file header is authoritative for checksum mode and chunk
// size, and decoding does not depend on the level); opts is present for call-site symmetry with Compress and for
// options that may apply later without breaking callers.
func Decompress(src []byte, dst []byte, opts ...Option) (uint64, error) {
	cfg := defaultConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return 0, err
	}

	bw := &boundedWriter{buf: dst}
	_, err := stream.Decompress(bytes.NewReader(src), bw, stream.Options{Workers: 1})
	if err != nil {
		return uint64(bw.n), err
	}

	return uint64(bw.n), nil
}

// DecompressedSize reads an archive's footer without decoding any block
// data, returning the original source size and true if src is at least
// long enough to contain a well-formed footer.
func DecompressedSize(src []byte) (uint64, bool) {
	if len(src) < container.FooterSize {
		return 0, false
	}

	footer, err := container.ParseFooter(src[len(src)-container.FooterSize:])
	if err != nil {
		return 0, false
	}

	return footer.OriginalSize, true
}

// StreamCompress runs the parallel producer/worker/consumer pipeline to
// compress r into w, returning the total bytes written to w. See WithLevel,
// WithChecksum, WithWorkers, WithChunkSize, and WithProgress for the options
// StreamCompress accepts.
func StreamCompress(r io.Reader, w io.Writer, opts ...Option) (uint64, error) {
	cfg := defaultConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return 0, err
	}

	return stream.Compress(r, w, stream.Options{
		Workers:   cfg.workers,
		Level:     cfg.level,
		Checksum:  cfg.checksum,
		ChunkSize: cfg.chunkSize,
		Progress:  cfg.progress,
	})
}

// StreamDecompress runs the parallel producer/worker/consumer pipeline to
// decompress r into w, returning the total bytes written to w. Only
// WithWorkers applies; the decompress pipeline has no source-byte count to
// report against (unlike Compress, it does not know the original size until
// the footer is read), so a WithProgress callback is accepted but never
// invoked. Checksum mode and chunk size are read from the archive's own
// file header, and decoding does not depend on the level.
func StreamDecompress(r io.Reader, w io.Writer, opts ...Option) (uint64, error) {
	cfg := defaultConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return 0, err
	}

	return stream.Decompress(r, w, stream.Options{
		Workers: cfg.workers,
	})
}
