package chunk

import (
	"github.com/hellobertrand/zxc/errs"
	"github.com/hellobertrand/zxc/format"
)

// Literal RLE pass (spec.md §4.2 step 5 / §6.3): the GLO encoder may
// additionally compress its literal byte stream when it contains runs of 4
// or more equal bytes, selecting format.LitRLE only when doing so shrinks
// the literal stream.
//
// Each opcode is a single byte t:
//   - t&0x80 == 0: raw run, length (t&0x7F)+1 (1..128), that many raw bytes
//     follow verbatim.
//   - t&0x80 != 0: constant run, length (t&0x7F)+4 (4..131), followed by one
//     repeated byte.
const (
	rleRawMaxLen      = 128
	rleRunMinLen      = format.RLEMinRun
	rleRunMaxLen      = 131
	rleRunLenBias     = 4
	rleConstOpcodeBit = 0x80
)

// encodeLiteralRLE returns the RLE-opcode form of lits.
func encodeLiteralRLE(lits []byte) []byte {
	out := make([]byte, 0, len(lits))

	n := len(lits)
	rawStart := 0

	flushRaw := func(end int) {
		for rawStart < end {
			run := end - rawStart
			if run > rleRawMaxLen {
				run = rleRawMaxLen
			}
			out = append(out, byte(run-1))
			out = append(out, lits[rawStart:rawStart+run]...)
			rawStart += run
		}
	}

	i := 0
	for i < n {
		runLen := 1
		for i+runLen < n && lits[i+runLen] == lits[i] && runLen < rleRunMaxLen {
			runLen++
		}

		if runLen >= rleRunMinLen {
			flushRaw(i)
			out = append(out, rleConstOpcodeBit|byte(runLen-rleRunLenBias))
			out = append(out, lits[i])
			i += runLen
			rawStart = i
			continue
		}

		i += runLen
	}

	flushRaw(n)

	return out
}

// decodeLiteralRLE reconstructs the original literal stream from an
// RLE-opcode payload produced by encodeLiteralRLE, writing exactly litTotal
// bytes into dst and returning the number of payload bytes consumed.
func decodeLiteralRLE(payload []byte, dst []byte, litTotal int) (int, error) {
	pos := 0
	written := 0

	for written < litTotal {
		if pos >= len(payload) {
			return 0, errs.New(errs.ErrSrcTooSmall, "RLE opcode stream truncated")
		}

		t := payload[pos]
		pos++

		if t&rleConstOpcodeBit == 0 {
			run := int(t) + 1
			if pos+run > len(payload) {
				return 0, errs.New(errs.ErrSrcTooSmall, "RLE raw run truncated")
			}
			if written+run > litTotal {
				return 0, errs.New(errs.ErrCorruptData, "RLE raw run overruns literal total")
			}
			copy(dst[written:written+run], payload[pos:pos+run])
			pos += run
			written += run
		} else {
			run := int(t&0x7F) + rleRunLenBias
			if pos >= len(payload) {
				return 0, errs.New(errs.ErrSrcTooSmall, "RLE constant run missing value byte")
			}
			if written+run > litTotal {
				return 0, errs.New(errs.ErrCorruptData, "RLE constant run overruns literal total")
			}
			b := payload[pos]
			pos++

			seg := dst[written : written+run]
			for j := range seg {
				seg[j] = b
			}
			written += run
		}
	}

	return pos, nil
}
