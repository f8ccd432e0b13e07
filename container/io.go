package container

import (
	"io"

	"github.com/hellobertrand/zxc/errs"
	"github.com/hellobertrand/zxc/format"
	"github.com/hellobertrand/zxc/internal/primitives"
)

// AppendBlock frames one data block (header + payload + optional checksum)
// onto dst and returns the grown slice. rawSize is the chunk's uncompressed
// length; payload is the already-encoded block body (spec.md §4.2 step 7).
func AppendBlock(dst []byte, blockType format.BlockType, payload []byte, rawSize int, checksum bool) []byte {
	hdr := BlockHeader{
		Type:     blockType,
		CompSize: uint32(len(payload)), //nolint:gosec
		RawSize:  uint32(rawSize),      //nolint:gosec
	}

	dst = append(dst, hdr.Bytes()...)
	dst = append(dst, payload...)

	if checksum {
		sum := primitives.BlockHash32(payload)
		dst = primitives.AppendU32(dst, sum)
	}

	return dst
}

// AppendEOF appends the terminating EOF block (header only, no payload, no
// checksum) to dst.
func AppendEOF(dst []byte) []byte {
	return append(dst, EOFBlockHeader().Bytes()...)
}

// ReadBlock reads one framed block from r: the 12-byte header, its payload,
// and (if checksum is true and the block is not EOF) the trailing 4-byte
// checksum, which is verified against the payload before returning.
//
// The returned payload slice aliases a freshly allocated buffer owned by the
// caller.
func ReadBlock(r io.Reader, checksum bool) (BlockHeader, []byte, error) {
	var hdrBuf [BlockHeaderSize]byte
	if _, err := io.ReadFull(r, hdrBuf[:]); err != nil {
		return BlockHeader{}, nil, readErr(err, "block header")
	}

	hdr, err := ParseBlockHeader(hdrBuf[:])
	if err != nil {
		return BlockHeader{}, nil, err
	}

	if hdr.Type == format.BlockEOF {
		return hdr, nil, nil
	}

	payload := make([]byte, hdr.CompSize)
	if _, err := io.ReadFull(r, payload); err != nil {
		return BlockHeader{}, nil, readErr(err, "block payload")
	}

	if checksum {
		var sumBuf [ChecksumSize]byte
		if _, err := io.ReadFull(r, sumBuf[:]); err != nil {
			return BlockHeader{}, nil, readErr(err, "block checksum")
		}

		want := primitives.LoadU32(sumBuf[:])
		got := primitives.BlockHash32(payload)
		if want != got {
			return BlockHeader{}, nil, errs.New(errs.ErrBadChecksum, "block checksum mismatch")
		}
	}

	return hdr, payload, nil
}

func readErr(err error, what string) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return errs.New(errs.ErrSrcTooSmall, what+" truncated")
	}

	return errs.New(errs.ErrIO, what+": "+err.Error())
}
