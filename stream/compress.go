// Package stream implements the producer/worker/consumer streaming driver
// (spec.md §4.5): a fixed-capacity ring of job slots, one reader goroutine,
// N worker goroutines running the chunk codec, and one writer goroutine
// that preserves source order.
//
// The ring itself (ring.go) is a direct hand-rolled translation of spec.md's
// mutex-plus-three-condition-variables design, since that structure is
// spec-prescribed down to the state names. golang.org/x/sync/errgroup sits
// on top of it purely for goroutine lifecycle management and first-error
// propagation to the caller — grounded on its use across the retrieved
// example corpus for exactly this "N goroutines, first error wins" shape.
package stream

import (
	"context"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/hellobertrand/zxc/chunk"
	"github.com/hellobertrand/zxc/container"
	"github.com/hellobertrand/zxc/errs"
	"github.com/hellobertrand/zxc/format"
	"github.com/hellobertrand/zxc/internal/primitives"
)

// Compress runs the streaming compress pipeline, reading r in chunkSize
// pieces and writing a complete ZXC archive to w. It returns the total
// number of bytes written to w.
func Compress(r io.Reader, w io.Writer, opts Options) (uint64, error) {
	if r == nil || w == nil {
		return 0, errs.New(errs.ErrNullInput, "Compress requires a non-nil reader and writer")
	}

	workers, level, chunkSize := opts.resolve()

	hdr, err := container.NewFileHeader(chunkSize, opts.Checksum)
	if err != nil {
		return 0, err
	}

	var totalOut uint64
	n, err := w.Write(hdr.Bytes())
	totalOut += uint64(n)
	if err != nil {
		return totalOut, errs.New(errs.ErrIO, "writing file header: "+err.Error())
	}

	rg := newRing(ringCapacity(workers))
	defer rg.release()
	for _, j := range rg.jobs {
		j.raw = rg.allocSlot(chunkSize)
		j.payload = rg.allocSlot(chunkSize)[:0]
	}

	var totalIn uint64
	var rollingHash container.RollingHash

	group, _ := errgroup.WithContext(context.Background())

	group.Go(func() error {
		return compressProducer(rg, r, &totalIn)
	})

	for i := 0; i < workers; i++ {
		group.Go(func() error {
			return compressWorker(rg, level)
		})
	}

	var written uint64
	group.Go(func() error {
		n, err := compressWriter(rg, w, opts.Checksum, &rollingHash, opts.Progress)
		written = n

		return err
	})

	if err := group.Wait(); err != nil {
		return totalOut, err
	}
	totalOut += written

	eof := container.AppendEOF(nil)
	n, err = w.Write(eof)
	totalOut += uint64(n)
	if err != nil {
		return totalOut, errs.New(errs.ErrIO, "writing EOF block: "+err.Error())
	}

	footer := container.Footer{OriginalSize: totalIn, RollingHash: rollingHash.Value()}
	n, err = w.Write(footer.Bytes())
	totalOut += uint64(n)
	if err != nil {
		return totalOut, errs.New(errs.ErrIO, "writing footer: "+err.Error())
	}

	return totalOut, nil
}

// readChunk fills buf as completely as possible from r, tolerating short
// reads the way io.ReadFull does, but treating a clean EOF as success
// rather than an error: it returns the number of bytes actually read.
func readChunk(r io.Reader, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := r.Read(buf[n:])
		n += m
		if err != nil {
			if err == io.EOF {
				return n, nil
			}

			return n, errs.New(errs.ErrIO, "reading input: "+err.Error())
		}
	}

	return n, nil
}

func compressProducer(rg *ring, r io.Reader, totalIn *uint64) error {
	id := int64(0)

	for {
		j, ok := rg.waitFree(id)
		if !ok {
			return rg.err()
		}

		n, err := readChunk(r, j.raw)
		if err != nil {
			rg.setError(err)

			return err
		}

		if n == 0 {
			j.sentinel = true
			rg.markSentinelReady(j)

			return nil
		}

		j.rawLen = n
		j.sentinel = false
		*totalIn += uint64(n)
		rg.markFilled(j)
		id++
	}
}

func compressWorker(rg *ring, level int) error {
	for {
		j, ok := rg.claimFilled()
		if !ok {
			return rg.err()
		}

		blockType, payload := chunk.Encode(j.raw[:j.rawLen], level)
		j.blockType = int(blockType)
		j.payload = append(j.payload[:0], payload...)
		rg.markProcessed(j)
	}
}

func compressWriter(
	rg *ring,
	w io.Writer,
	checksum bool,
	rh *container.RollingHash,
	progress func(processed, total uint64),
) (uint64, error) {
	id := int64(0)
	var writtenBytes uint64
	var sourceBytes uint64

	for {
		j, ok := rg.waitProcessed(id)
		if !ok {
			return writtenBytes, rg.err()
		}

		if j.sentinel {
			rg.finish()

			return writtenBytes, nil
		}

		framed := container.AppendBlock(nil, format.BlockType(j.blockType), j.payload, j.rawLen, checksum)
		n, err := w.Write(framed)
		writtenBytes += uint64(n)
		if err != nil {
			err = errs.New(errs.ErrIO, "writing block: "+err.Error())
			rg.setError(err)

			return writtenBytes, err
		}

		if checksum {
			rh.Update(primitives.BlockHash32(j.payload))
		}

		sourceBytes += uint64(j.rawLen)
		if progress != nil {
			progress(sourceBytes, 0)
		}

		rg.markFree(j)
		id++
	}
}
