package stream

import "github.com/hellobertrand/zxc/format"

// Options configures a streaming compress or decompress run (spec.md §4.5,
// §6.1's stream_compress/stream_decompress operations).
type Options struct {
	// Workers is the number of worker goroutines running the chunk
	// encoder/decoder in parallel. Values below 1 are treated as 1.
	Workers int

	// Level selects the compression level (1..5) passed to chunk.Encode.
	// Ignored by Decompress. Values outside 1..5 are clamped.
	Level int

	// Checksum enables the per-block checksum and global rolling hash.
	Checksum bool

	// ChunkSize overrides the default chunk size for Compress. Ignored by
	// Decompress, which reads the chunk size the file header carries.
	// Zero means format.DefaultChunkSize.
	ChunkSize int

	// Progress, when non-nil, is invoked by Compress's writer goroutine
	// after each block is emitted with (bytesProcessed, bytesTotal).
	// bytesTotal is zero, since the total is not known in advance.
	// Decompress does not invoke it.
	Progress func(processed, total uint64)
}

func (o Options) resolve() (workers, level, chunkSize int) {
	workers = o.Workers
	if workers < 1 {
		workers = 1
	}

	level = o.Level
	if level < 1 {
		level = 1
	}
	if level > 5 {
		level = 5
	}

	chunkSize = o.ChunkSize
	if chunkSize == 0 {
		chunkSize = format.DefaultChunkSize
	}

	return workers, level, chunkSize
}
