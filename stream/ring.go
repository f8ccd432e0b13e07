package stream

import (
	"sync"

	"github.com/hellobertrand/zxc/internal/pool"
)

// jobStatus is a slot's position in the FREE -> FILLED -> CLAIMED ->
// PROCESSED -> FREE lifecycle spec.md §3.5/§4.5 describes. CLAIMED is an
// implementation addition beyond the three states spec.md names, needed so
// two workers never pop the same FILLED slot; a claimed slot is
// functionally still "filled" from the reader's and writer's point of view.
type jobStatus int32

const (
	jobFree jobStatus = iota
	jobFilled
	jobClaimed
	jobProcessed
)

// job is one ring slot. The same struct shape serves both compress mode
// (raw chunk in, encoded block out) and decompress mode (encoded block in,
// raw chunk out); only one direction's fields are populated per run.
type job struct {
	status jobStatus

	// sentinel marks the producer's EOF signal: the writer stops draining
	// once it reaches a sentinel slot instead of waiting for one more
	// FILLED slot that will never arrive (spec.md §4.5's result_sz = -1).
	sentinel bool

	raw     []byte // producer-filled input (compress: chunk bytes; decompress: block payload)
	rawLen  int
	payload []byte // worker-filled output (compress: block payload; decompress: raw bytes)

	blockType     int    // format.BlockType, avoids importing format here for job bookkeeping
	blockRawLen   int    // rawSize as recorded in the block header (decompress mode)
	blockChecksum uint32 // block_hash32 of the compressed payload (decompress mode, checksum mode only)
}

// ring is the fixed-capacity job-slot ring spec.md §4.5 specifies: a single
// mutex protects slot metadata, three condition variables model the
// reader-wait-for-free / worker-wait-for-filled / writer-wait-for-processed
// transitions, and a shared first-error-wins flag lets any stage abort the
// others.
//
// Grounded on the producer/worker/consumer shape description in spec.md;
// mebo has no concurrent pipeline to adapt, so this is modeled directly
// from the spec's prose rather than a teacher file.
type ring struct {
	mu            sync.Mutex
	condFree      *sync.Cond
	condFilled    *sync.Cond
	condProcessed *sync.Cond

	jobs []*job

	// slotBufs backs every job's raw/payload slice for the ring's whole
	// lifetime: one pool.GetSlotBuffer per slot per field, released back to
	// the pool by release() once the stream finishes or aborts.
	slotBufs []*pool.ByteBuffer

	ioErr    error
	finished bool
}

func newRing(capacity int) *ring {
	r := &ring{jobs: make([]*job, capacity)}
	r.condFree = sync.NewCond(&r.mu)
	r.condFilled = sync.NewCond(&r.mu)
	r.condProcessed = sync.NewCond(&r.mu)

	for i := range r.jobs {
		r.jobs[i] = &job{status: jobFree}
	}

	return r
}

// allocSlot pulls a buffer from the streaming-driver slot pool, extends it
// to exactly n bytes, tracks it for release, and returns its backing slice.
func (r *ring) allocSlot(n int) []byte {
	bb := pool.GetSlotBuffer()
	bb.ExtendOrGrow(n)
	r.slotBufs = append(r.slotBufs, bb)

	return bb.B
}

// release returns every slot buffer this ring acquired back to the pool.
// Safe to call once, after every worker/reader/writer goroutine has
// stopped touching job.raw/job.payload.
func (r *ring) release() {
	for _, bb := range r.slotBufs {
		pool.PutSlotBuffer(bb)
	}
	r.slotBufs = nil
}

func (r *ring) slot(id int64) *job {
	return r.jobs[int(id)%len(r.jobs)]
}

// setError records the first error seen by any stage and wakes every
// waiter so blocked stages can observe it and unwind (spec.md §4.5's
// io_error flag).
func (r *ring) setError(err error) {
	r.mu.Lock()
	if r.ioErr == nil {
		r.ioErr = err
	}
	r.mu.Unlock()

	r.condFree.Broadcast()
	r.condFilled.Broadcast()
	r.condProcessed.Broadcast()
}

func (r *ring) err() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.ioErr
}

// waitFree blocks until the slot for id is FREE, then returns it still
// locked out of Filled status for the caller (the producer) to populate.
func (r *ring) waitFree(id int64) (*job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	j := r.slot(id)
	for j.status != jobFree && r.ioErr == nil {
		r.condFree.Wait()
	}
	if r.ioErr != nil {
		return nil, false
	}

	return j, true
}

// markFilled transitions j to FILLED and wakes workers.
func (r *ring) markFilled(j *job) {
	r.mu.Lock()
	j.status = jobFilled
	r.mu.Unlock()
	r.condFilled.Broadcast()
}

// claimFilled blocks until any slot is FILLED, claims it (so no other
// worker can take it), and returns it. It returns ok=false once the stream
// has either errored or finished cleanly (spec.md §4.5's sentinel handoff
// never routes through a worker, so workers only ever see real chunks).
func (r *ring) claimFilled() (*job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for {
		if r.ioErr != nil || r.finished {
			return nil, false
		}

		for _, j := range r.jobs {
			if j.status == jobFilled {
				j.status = jobClaimed

				return j, true
			}
		}

		r.condFilled.Wait()
	}
}

// markSentinelReady marks j PROCESSED directly, skipping the worker stage
// entirely: the EOF sentinel carries no payload to encode or decode, it
// only needs to reach the writer in its correct submission order.
func (r *ring) markSentinelReady(j *job) {
	r.mu.Lock()
	j.status = jobProcessed
	r.mu.Unlock()
	r.condProcessed.Broadcast()
}

// finish marks the ring as cleanly drained once the writer observes the
// sentinel, waking any workers still blocked waiting for work so they can
// exit their goroutines.
func (r *ring) finish() {
	r.mu.Lock()
	r.finished = true
	r.mu.Unlock()
	r.condFilled.Broadcast()
	r.condFree.Broadcast()
	r.condProcessed.Broadcast()
}

// markProcessed transitions j to PROCESSED and wakes the writer.
func (r *ring) markProcessed(j *job) {
	r.mu.Lock()
	j.status = jobProcessed
	r.mu.Unlock()
	r.condProcessed.Broadcast()
}

// waitProcessed blocks until the slot for id is PROCESSED, then returns it.
func (r *ring) waitProcessed(id int64) (*job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	j := r.slot(id)
	for j.status != jobProcessed && r.ioErr == nil {
		r.condProcessed.Wait()
	}
	if r.ioErr != nil {
		return nil, false
	}

	return j, true
}

// markFree transitions j to FREE and wakes the producer.
func (r *ring) markFree(j *job) {
	r.mu.Lock()
	j.status = jobFree
	j.sentinel = false
	r.mu.Unlock()
	r.condFree.Broadcast()
}

// ringCapacity computes R = max(4, 4*workers) per spec.md §4.5.
func ringCapacity(workers int) int {
	if workers < 1 {
		workers = 1
	}
	capacity := 4 * workers
	if capacity < 4 {
		capacity = 4
	}

	return capacity
}
