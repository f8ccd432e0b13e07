// Package pool provides pooled, growable byte buffers for the per-chunk
// scratch arenas (the GLO/GHI encoders' literals and extras streams) and
// the streaming driver's job-slot buffers.
//
// Adapted from the teacher's internal/pool/byte_buffer_pool.go: same
// amortized-growth ByteBuffer shape, retargeted from "blob buffer" sizes to
// the chunk and slot sizes this module actually allocates (spec.md §3.5
// defines these as owned-by-scope scratch arenas, exactly what this pool
// backs).
package pool

import (
	"io"
	"sync"
)

// Default and maximum-retained sizes for the two pools this package
// maintains: per-chunk scratch buffers (literals/extras streams) and
// streaming-driver slot buffers (sized for a whole compressed chunk plus
// wild-copy headroom).
const (
	ChunkBufferDefaultSize  = 1024 * 4        // 4KiB, grows as needed per chunk
	ChunkBufferMaxThreshold = 1024 * 512      // 512KiB
	SlotBufferDefaultSize   = 1024 * 256      // matches the default CHUNK_BYTES
	SlotBufferMaxThreshold  = 1024 * 1024 * 8 // 8MiB, covers the largest configurable chunk size
)

// ByteBuffer is a growable byte slice wrapper with amortized-growth
// semantics so repeated appends during one chunk's encode/decode don't pay
// for a reallocation per append.
type ByteBuffer struct {
	// B is the underlying byte slice.
	B []byte
}

// NewByteBuffer creates a new ByteBuffer with the specified default size.
func NewByteBuffer(defaultSize int) *ByteBuffer {
	return &ByteBuffer{
		B: make([]byte, 0, defaultSize),
	}
}

// Bytes returns the underlying byte slice.
func (bb *ByteBuffer) Bytes() []byte {
	return bb.B
}

// Reset resets the buffer to be empty, but retains the allocated memory for
// reuse.
func (bb *ByteBuffer) Reset() {
	bb.B = bb.B[:0]
}

// Len returns the length of the buffer.
func (bb *ByteBuffer) Len() int {
	return len(bb.B)
}

// Cap returns the capacity of the buffer.
func (bb *ByteBuffer) Cap() int {
	return cap(bb.B)
}

// MustWrite writes data to the buffer, growing it if necessary.
func (bb *ByteBuffer) MustWrite(data []byte) {
	bb.B = append(bb.B, data...)
}

// Slice returns a slice of the buffer from start to end. Panics if the
// indices are out of bounds.
func (bb *ByteBuffer) Slice(start, end int) []byte {
	if start < 0 || end < start || end > cap(bb.B) {
		panic("Slice: invalid indices")
	}

	return bb.B[start:end]
}

// SetLength sets the length of the buffer to n. Panics if n is negative or
// greater than the capacity.
func (bb *ByteBuffer) SetLength(n int) {
	if n < 0 || n > cap(bb.B) {
		panic("SetLength: invalid length")
	}
	bb.B = bb.B[:n]
}

// Extend extends the buffer by n bytes if there is sufficient capacity.
func (bb *ByteBuffer) Extend(n int) bool {
	curLen := len(bb.B)
	if cap(bb.B)-curLen < n {
		return false
	}

	bb.B = bb.B[:curLen+n]

	return true
}

// ExtendOrGrow extends the buffer by n bytes, growing it if necessary. This
// backs the streaming driver's slot buffers, which must always present
// exactly CHUNK_BYTES+headroom bytes of addressable space (spec.md §9's
// over-allocation contract).
func (bb *ByteBuffer) ExtendOrGrow(n int) {
	if bb.Extend(n) {
		return
	}

	start := len(bb.B)
	bb.Grow(n)
	bb.B = bb.B[:start+n]
}

// Grow grows the buffer to ensure it can hold requiredBytes more bytes
// without reallocating. If the buffer has sufficient capacity, Grow does
// nothing.
//
// The growth strategy is as follows:
//   - For small buffers (<16KB), grow by ChunkBufferDefaultSize to minimize
//     reallocations.
//   - For larger buffers, grow by 25% of current capacity to balance memory
//     usage and reallocation cost.
func (bb *ByteBuffer) Grow(requiredBytes int) {
	available := cap(bb.B) - len(bb.B)
	if available >= requiredBytes {
		return // Sufficient capacity
	}

	growBy := ChunkBufferDefaultSize
	if cap(bb.B) > 4*ChunkBufferDefaultSize {
		growBy = cap(bb.B) / 4
	}

	if growBy < requiredBytes {
		growBy = requiredBytes
	}

	newBuf := make([]byte, len(bb.B), len(bb.B)+growBy)
	copy(newBuf, bb.B)
	bb.B = newBuf
}

// Write appends the contents of data to the buffer, growing it as needed.
func (bb *ByteBuffer) Write(data []byte) (int, error) {
	bb.B = append(bb.B, data...)
	return len(data), nil
}

// WriteTo writes the contents of the buffer to w.
func (bb *ByteBuffer) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(bb.B)
	return int64(n), err
}

// ByteBufferPool is a sync.Pool of ByteBuffers, optionally discarding
// buffers that have grown past a size threshold to avoid memory bloat from
// one outlier chunk pinning a huge buffer in the pool forever.
type ByteBufferPool struct {
	pool         sync.Pool
	maxThreshold int
}

// NewByteBufferPool creates a new ByteBufferPool with buffers of the
// specified default size.
func NewByteBufferPool(defaultSize int, maxThreshold int) *ByteBufferPool {
	return &ByteBufferPool{
		pool: sync.Pool{
			New: func() any {
				return NewByteBuffer(defaultSize)
			},
		},
		maxThreshold: maxThreshold,
	}
}

// Get retrieves a ByteBuffer from the pool.
func (bbp *ByteBufferPool) Get() *ByteBuffer {
	bb, _ := bbp.pool.Get().(*ByteBuffer)
	return bb
}

// Put returns a ByteBuffer to the pool for reuse.
func (bbp *ByteBufferPool) Put(bb *ByteBuffer) {
	if bb == nil {
		return
	}

	if bbp.maxThreshold > 0 && cap(bb.B) > bbp.maxThreshold {
		return
	}

	bb.Reset()
	bbp.pool.Put(bb)
}

var (
	chunkDefaultPool = NewByteBufferPool(ChunkBufferDefaultSize, ChunkBufferMaxThreshold)
	slotDefaultPool  = NewByteBufferPool(SlotBufferDefaultSize, SlotBufferMaxThreshold)
)

// GetChunkBuffer retrieves a ByteBuffer from the default per-chunk scratch
// pool (the GLO/GHI encoders' literals and extras streams).
func GetChunkBuffer() *ByteBuffer {
	return chunkDefaultPool.Get()
}

// PutChunkBuffer returns a ByteBuffer to the default per-chunk scratch pool.
func PutChunkBuffer(bb *ByteBuffer) {
	chunkDefaultPool.Put(bb)
}

// GetSlotBuffer retrieves a ByteBuffer from the default streaming-driver
// slot pool.
func GetSlotBuffer() *ByteBuffer {
	return slotDefaultPool.Get()
}

// PutSlotBuffer returns a ByteBuffer to the default streaming-driver slot
// pool.
func PutSlotBuffer(bb *ByteBuffer) {
	slotDefaultPool.Put(bb)
}
