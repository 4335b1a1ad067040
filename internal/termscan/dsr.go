package termscan

// dsrState recognizes CSI 6n and CSI ?6n cursor-position requests. Matched
// request bytes are removed from the passthrough; everything else passes
// through unmodified.
type dsrState int

const (
	dsrIdle dsrState = iota
	dsrEsc
	dsrBracket
	dsrBracketQuestion
	dsrBracket6
	dsrBracketQuestion6
)

// DSRScanner detects DSR cursor-position requests and strips them from the
// passthrough stream, reporting how many requests were seen in the chunk.
type DSRScanner struct {
	state   dsrState
	pending []byte
}

// NewDSRScanner returns a scanner ready to consume the first chunk.
func NewDSRScanner() *DSRScanner {
	return &DSRScanner{}
}

func (s *DSRScanner) resetWithByte(out *[]byte, b byte) {
	if len(s.pending) > 0 {
		*out = append(*out, s.pending...)
		s.pending = s.pending[:0]
	}
	s.state = dsrIdle
	if b == 0x1b {
		s.pending = append(s.pending, b)
		s.state = dsrEsc
	} else {
		*out = append(*out, b)
	}
}

// Scan returns the passthrough bytes (DSR request sequences removed) and the
// number of DSR requests recognized in this chunk, in order.
func (s *DSRScanner) Scan(data []byte) (passthrough []byte, requests int) {
	out := make([]byte, 0, len(data))

	for _, b := range data {
		switch s.state {
		case dsrIdle:
			if b == 0x1b {
				s.pending = s.pending[:0]
				s.pending = append(s.pending, b)
				s.state = dsrEsc
			} else {
				out = append(out, b)
			}

		case dsrEsc:
			if b == '[' {
				s.pending = append(s.pending, b)
				s.state = dsrBracket
			} else {
				s.resetWithByte(&out, b)
			}

		case dsrBracket:
			switch b {
			case '6':
				s.pending = append(s.pending, b)
				s.state = dsrBracket6
			case '?':
				s.pending = append(s.pending, b)
				s.state = dsrBracketQuestion
			default:
				s.resetWithByte(&out, b)
			}

		case dsrBracketQuestion:
			if b == '6' {
				s.pending = append(s.pending, b)
				s.state = dsrBracketQuestion6
			} else {
				s.resetWithByte(&out, b)
			}

		case dsrBracket6, dsrBracketQuestion6:
			if b == 'n' {
				s.pending = s.pending[:0]
				s.state = dsrIdle
				requests++
			} else {
				s.resetWithByte(&out, b)
			}
		}
	}

	return out, requests
}
