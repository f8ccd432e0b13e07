package chunk

import "github.com/hellobertrand/zxc/errs"

// validateSections checks that a payload's section descriptors, read but
// not yet sliced into, fit inside payload before any stream cursor is
// handed out. Decoding without this check discovers a truncated or
// overflowing section descriptor mid-stream, after earlier sections have
// already been sliced; validating all of them up front against the total
// payload size rejects a corrupt header in one place instead of at an
// arbitrary cursor position.
func validateSections(payload []byte, pos int, compSizes ...int) error {
	total := pos

	for _, size := range compSizes {
		if size < 0 {
			return errs.New(errs.ErrCorruptData, "negative section size")
		}

		total += size
		if total > len(payload) {
			return errs.New(errs.ErrSrcTooSmall, "section sizes exceed payload")
		}
	}

	return nil
}
