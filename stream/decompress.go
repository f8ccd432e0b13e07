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

// Decompress runs the streaming decompress pipeline symmetric to Compress:
// the producer parses framed block headers and queues payloads, workers run
// the chunk decoder, and the writer emits decoded bytes in source order. On
// reaching the EOF block it verifies the footer's stored original size and
// rolling hash against what was actually produced.
func Decompress(r io.Reader, w io.Writer, opts Options) (uint64, error) {
	if r == nil || w == nil {
		return 0, errs.New(errs.ErrNullInput, "Decompress requires a non-nil reader and writer")
	}

	workers, _, _ := opts.resolve()

	var hdrBuf [container.FileHeaderSize]byte
	if _, err := io.ReadFull(r, hdrBuf[:]); err != nil {
		return 0, errs.New(errs.ErrSrcTooSmall, "reading file header: "+err.Error())
	}

	hdr, err := container.ParseFileHeader(hdrBuf[:])
	if err != nil {
		return 0, err
	}

	chunkSize := hdr.ChunkSize()
	checksum := hdr.ChecksumEnabled

	rg := newRing(ringCapacity(workers))
	defer rg.release()
	for _, j := range rg.jobs {
		j.payload = rg.allocSlot(chunk.Bound(chunkSize))
		j.raw = rg.allocSlot(chunkSize)
	}

	var footer container.Footer
	var rollingHash container.RollingHash

	group, _ := errgroup.WithContext(context.Background())

	group.Go(func() error {
		return decompressProducer(rg, r, checksum, &footer)
	})

	for i := 0; i < workers; i++ {
		group.Go(func() error {
			return decompressWorker(rg)
		})
	}

	var total uint64
	group.Go(func() error {
		n, err := decompressWriter(rg, w, checksum, &rollingHash)
		total = n

		return err
	})

	if err := group.Wait(); err != nil {
		return total, err
	}

	if footer.OriginalSize != total {
		return total, errs.New(errs.ErrBadChecksum, "footer original size does not match decompressed byte count")
	}
	if checksum && footer.RollingHash != rollingHash.Value() {
		return total, errs.New(errs.ErrBadChecksum, "footer rolling hash mismatch")
	}

	return total, nil
}

func decompressProducer(rg *ring, r io.Reader, checksum bool, footerOut *container.Footer) error {
	id := int64(0)

	for {
		j, ok := rg.waitFree(id)
		if !ok {
			return rg.err()
		}

		hdr, payload, err := container.ReadBlock(r, checksum)
		if err != nil {
			rg.setError(err)

			return err
		}

		if hdr.Type == format.BlockEOF {
			var footBuf [container.FooterSize]byte
			if _, ferr := io.ReadFull(r, footBuf[:]); ferr != nil {
				ferr = errs.New(errs.ErrSrcTooSmall, "reading footer: "+ferr.Error())
				rg.setError(ferr)

				return ferr
			}

			footer, ferr := container.ParseFooter(footBuf[:])
			if ferr != nil {
				rg.setError(ferr)

				return ferr
			}

			*footerOut = footer
			j.sentinel = true
			rg.markSentinelReady(j)

			return nil
		}

		if cap(j.raw) < len(payload) {
			j.raw = make([]byte, len(payload))
		} else {
			j.raw = j.raw[:len(payload)]
		}
		copy(j.raw, payload)

		j.rawLen = len(payload)
		j.blockType = int(hdr.Type)
		j.blockRawLen = int(hdr.RawSize)
		j.sentinel = false
		if checksum {
			j.blockChecksum = primitives.BlockHash32(payload)
		}

		rg.markFilled(j)
		id++
	}
}

func decompressWorker(rg *ring) error {
	for {
		j, ok := rg.claimFilled()
		if !ok {
			return rg.err()
		}

		dst := j.payload[:cap(j.payload)]
		n, err := chunk.Decode(format.BlockType(j.blockType), j.raw[:j.rawLen], dst)
		if err != nil {
			rg.setError(err)

			return err
		}
		if n != j.blockRawLen {
			err := errs.New(errs.ErrCorruptData, "decoded size does not match block header raw size")
			rg.setError(err)

			return err
		}

		j.payload = dst[:n]
		rg.markProcessed(j)
	}
}

func decompressWriter(rg *ring, w io.Writer, checksum bool, rh *container.RollingHash) (uint64, error) {
	id := int64(0)
	var total uint64

	for {
		j, ok := rg.waitProcessed(id)
		if !ok {
			return total, rg.err()
		}

		if j.sentinel {
			rg.finish()

			return total, nil
		}

		if checksum {
			rh.Update(j.blockChecksum)
		}

		n, err := w.Write(j.payload)
		total += uint64(n)
		if err != nil {
			err = errs.New(errs.ErrIO, "writing output: "+err.Error())
			rg.setError(err)

			return total, err
		}

		rg.markFree(j)
		id++
	}
}
