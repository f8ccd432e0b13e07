package chunk

import "github.com/hellobertrand/zxc/format"

// sequence is one LZ77 triple (literal_length, match_length, offset), plus
// the literal run's start position in the source chunk. This is the shared
// intermediate form both the GLO and GHI encoders serialize (spec.md
// GLOSSARY: "Sequence").
type sequence struct {
	litStart int // index into src where this sequence's literal run begins
	litLen   int // number of literal bytes before the match
	matchLen int // actual match length, always >= format.MinMatch
	offset   int // actual (unbiased) match offset, 1 <= offset <= window
}

// tokenize runs the lazy-matching LZ77 parse described in spec.md §4.2 step
// 2: at each position, find the best match; if a strictly longer match
// starts one byte later, emit the current byte as a literal and defer.
// Returns the emitted sequences and the length of the trailing literal run
// (bytes after the last sequence's match, copied verbatim by the decoder).
func tokenize(src []byte, searchDepth int) (seqs []sequence, trailingLiterals int) {
	n := len(src)
	mf := newMatchFinder(src, searchDepth)

	pos := 0
	litStart := 0

	for pos < n {
		if pos+4 > n {
			break
		}

		length, offset := mf.find(pos)
		mf.insert(pos)

		if length < format.MinMatch {
			pos++
			continue
		}

		// Lazy step: check if position+1 yields a strictly longer match.
		if pos+1+4 <= n {
			nextLen, _ := mf.find(pos + 1)
			if nextLen > length {
				pos++
				continue
			}
		}

		// Extend matched positions into the hash table so later matches can
		// reference bytes inside this match.
		for i := pos + 1; i < pos+length && i+4 <= n; i++ {
			mf.insert(i)
		}

		seqs = append(seqs, sequence{
			litStart: litStart,
			litLen:   pos - litStart,
			matchLen: length,
			offset:   offset,
		})

		pos += length
		litStart = pos
	}

	return seqs, n - litStart
}
