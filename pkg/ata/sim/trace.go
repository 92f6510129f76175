// file: pkg/ata/sim/trace.go

package sim

type trace struct {
	writes  []Write
	reads   int
	words   int
	sectors int
}

// Writes returns every port write since the last ResetTrace, in order.
func (d *Device) Writes() []Write {
	out := make([]Write, len(d.trace.writes))
	copy(out, d.trace.writes)
	return out
}

// WritesTo returns the values written to port, in order.
func (d *Device) WritesTo(port uint16) []byte {
	var out []byte
	for _, w := range d.trace.writes {
		if w.Port == port {
			out = append(out, w.Value)
		}
	}
	return out
}

// Reads returns the number of port reads of any width.
func (d *Device) Reads() int { return d.trace.reads }

// WordsTransferred returns the number of data words handed out.
func (d *Device) WordsTransferred() int { return d.trace.words }

// SectorsTransferred returns the number of sectors fully read out of
// the data port.
func (d *Device) SectorsTransferred() int { return d.trace.sectors }

// ResetTrace clears the recorded accesses.
func (d *Device) ResetTrace() {
	d.trace = trace{}
}
