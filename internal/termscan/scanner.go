// Package termscan implements the streaming byte scanner that extracts OSC
// window-title sequences and DSR cursor-position requests from a child
// process's PTY output, without suppressing any byte the child produced
// except the DSR request sequences themselves.
package termscan

// Scanner composes the OSC and DSR sub-scanners over the same stream. OSC
// sequences start with ESC ] and DSR requests start with ESC [, so chaining
// the two passes never double-matches a sequence.
type Scanner struct {
	osc *OSCScanner
	dsr *DSRScanner
}

// New returns a scanner ready to consume a child's output chunk by chunk.
func New() *Scanner {
	return &Scanner{osc: NewOSCScanner(), dsr: NewDSRScanner()}
}

// Scan feeds one chunk through the title scanner and then the DSR scanner,
// returning the bytes that should reach host stdout, any titles captured,
// and the number of DSR requests the supervisor must answer.
func (s *Scanner) Scan(data []byte) (passthrough []byte, titles []string, dsrRequests int) {
	afterOSC, titles := s.osc.Scan(data)
	afterDSR, requests := s.dsr.Scan(afterOSC)
	return afterDSR, titles, requests
}
