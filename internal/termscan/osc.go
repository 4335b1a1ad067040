package termscan

// oscState walks the byte stream looking for OSC 0/OSC 2 window-title
// sequences. Every input byte is reproduced on the passthrough output; the
// title, once a terminator is seen, is surfaced separately.
type oscState int

const (
	oscIdle oscState = iota
	oscEsc
	oscStart
	oscTitleType
	oscCollecting
	oscMaybeST
)

const maxTitleBytes = 256

// OSCScanner extracts OSC 0/2 window-title sequences from a PTY byte stream
// without suppressing any bytes on the passthrough path.
type OSCScanner struct {
	state    oscState
	pending  []byte
	titleBuf []byte
}

// NewOSCScanner returns a scanner ready to consume the first chunk.
func NewOSCScanner() *OSCScanner {
	return &OSCScanner{pending: make([]byte, 0, 64), titleBuf: make([]byte, 0, 128)}
}

func (s *OSCScanner) reset() {
	s.state = oscIdle
	s.pending = s.pending[:0]
	s.titleBuf = s.titleBuf[:0]
}

// Scan processes data, returning the unmodified passthrough bytes and any
// titles whose terminator (BEL or ST) completed within this chunk.
func (s *OSCScanner) Scan(data []byte) (passthrough []byte, titles []string) {
	out := make([]byte, 0, len(data)+len(s.pending))

	for _, b := range data {
		switch s.state {
		case oscIdle:
			if b == 0x1b {
				out = append(out, s.pending...)
				s.pending = s.pending[:0]
				s.pending = append(s.pending, b)
				s.state = oscEsc
			} else {
				out = append(out, b)
			}

		case oscEsc:
			s.pending = append(s.pending, b)
			if b == ']' {
				s.state = oscStart
			} else {
				out = append(out, s.pending...)
				s.reset()
			}

		case oscStart:
			s.pending = append(s.pending, b)
			if b == '0' || b == '2' {
				s.state = oscTitleType
			} else {
				out = append(out, s.pending...)
				s.reset()
			}

		case oscTitleType:
			s.pending = append(s.pending, b)
			if b == ';' {
				s.state = oscCollecting
				s.titleBuf = s.titleBuf[:0]
			} else {
				out = append(out, s.pending...)
				s.reset()
			}

		case oscCollecting:
			s.pending = append(s.pending, b)
			switch {
			case b == 0x07:
				titles = append(titles, string(s.titleBuf))
				out = append(out, s.pending...)
				s.reset()
			case b == 0x1b:
				s.state = oscMaybeST
			case len(s.titleBuf) < maxTitleBytes:
				s.titleBuf = append(s.titleBuf, b)
			}

		case oscMaybeST:
			s.pending = append(s.pending, b)
			if b == '\\' {
				titles = append(titles, string(s.titleBuf))
				out = append(out, s.pending...)
				s.reset()
			} else {
				escPos := len(s.pending) - 2
				out = append(out, s.pending[:escPos]...)
				s.pending = append(s.pending[:0], s.pending[escPos:]...)
				if b == ']' {
					s.state = oscStart
				} else {
					out = append(out, s.pending...)
					s.reset()
				}
			}
		}
	}

	return out, titles
}
