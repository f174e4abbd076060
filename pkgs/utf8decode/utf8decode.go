// Package utf8decode implements the table-driven DFA described in §4.2:
// one call decodes exactly one scalar and reports how many bytes it
// consumed, or signals a malformed sequence. The three tables below
// (sequence length by leading byte, byte class, and DFA transition) are
// the classic compact UTF-8 validator shape: a leading byte selects an
// expected sequence length and an initial mask, then every continuation
// byte both contributes six value bits and advances a state machine
// that lands on zero only for a well-formed sequence.
package utf8decode

// BadEncoding is the scalar returned for a malformed byte sequence. It
// is outside the valid scalar range so callers cannot mistake it for a
// real code point.
const BadEncoding rune = -1

// bytesNeeded maps a leading byte to the number of bytes its sequence
// should occupy: 1 for ASCII, 2/3/4 for multi-byte leads, 0 for a byte
// that can never start a sequence (stray continuation byte or an
// invalid lead like 0xF8-0xFF).
var bytesNeeded = [256]uint8{
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1,
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1,
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1,
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1,
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1,
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1,
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1,
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2,
	2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2,
	3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3,
	4, 4, 4, 4, 4, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// leadMask masks off the size-indicating high bits of a leading byte,
// indexed by the sequence length bytesNeeded reported.
var leadMask = [5]byte{0, 0xFF, 0x1F, 0x0F, 0x07}

// class buckets every byte value into one of the twelve character
// classes the DFA transitions on. Distinct classes exist for the
// overlong/surrogate/out-of-range edge bytes (0xE0, 0xED, 0xF0, 0xF4)
// so the transition table can reject them without extra branching.
var class = [256]uint8{
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1,
	9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9,
	7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7,
	7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7,
	8, 8, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2,
	2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2,
	10, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 4, 3, 3,
	11, 6, 6, 6, 5, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8,
}

// accept is the zero state: a sequence is well-formed exactly when the
// DFA lands here after its last continuation byte. next is indexed by
// (state + class); an entry of 12 routes to the reject state, whose row
// maps every class back to 12, and any other non-zero entry is an
// intermediate state still expecting continuation bytes.
const accept = 0
const reject = 12

var next = [9 * 12]uint8{
	0, 12, 24, 36, 60, 96, 84, 12, 12, 12, 48, 72, // state 0
	12, 12, 12, 12, 12, 12, 12, 12, 12, 12, 12, 12, // state 1 (reject sink)
	12, 0, 12, 12, 12, 12, 12, 0, 12, 0, 12, 12, // state 2
	12, 24, 12, 12, 12, 12, 12, 24, 12, 24, 12, 12, // state 3
	12, 12, 12, 12, 12, 12, 12, 24, 12, 12, 12, 12, // state 4
	12, 24, 12, 12, 12, 12, 12, 12, 12, 24, 12, 12, // state 5
	12, 12, 12, 12, 12, 12, 12, 36, 12, 36, 12, 12, // state 6
	12, 36, 12, 12, 12, 12, 12, 36, 12, 36, 12, 12, // state 7
	12, 36, 12, 12, 12, 12, 12, 12, 12, 12, 12, 12, // state 8
}

// Decode reads one scalar from data starting at offset. It returns the
// scalar and the number of bytes it occupies. End-of-input is signaled
// by a NUL byte per §6's "NUL-terminated string" contract and reported
// as (0, 0), matching the sentinel the Lexer checks for END. A malformed
// sequence — including one truncated by running off the end of data —
// returns (BadEncoding, 0); the caller raises ILLEGAL_BYTE_SEQUENCE.
func Decode(data []byte, offset int) (rune, int) {
	if offset >= len(data) || data[offset] == 0 {
		return 0, 0
	}

	lead := data[offset]
	seqLen := int(bytesNeeded[lead])
	if seqLen == 0 {
		return BadEncoding, 0
	}

	for i := 1; i < seqLen; i++ {
		if offset+i >= len(data) || data[offset+i] == 0 {
			return BadEncoding, 0
		}
	}

	value := rune(lead & leadMask[seqLen])
	state := next[class[lead]]
	for i := 1; i < seqLen; i++ {
		b := data[offset+i]
		value = value<<6 | rune(b&0x3F)
		state = next[int(state)+int(class[b])]
	}

	if state != accept {
		return BadEncoding, 0
	}
	return value, seqLen
}
