// file: pkg/ata/sim/faults.go

package sim

type faults struct {
	stuckBusy bool
	noDRQ     bool
	floating  bool
	errors    map[uint64]byte
}

// SetStuckBusy makes every status read report BSY.
func (d *Device) SetStuckBusy(on bool) {
	d.faults.stuckBusy = on
}

// SetNoDataRequest makes read commands complete without ever raising
// DRQ, as a hung transfer would.
func (d *Device) SetNoDataRequest(on bool) {
	d.faults.noDRQ = on
}

// SetFloating removes the channel: every read returns all ones and
// writes go nowhere.
func (d *Device) SetFloating(on bool) {
	d.faults.floating = on
}

// InjectError makes any read reaching lba fail before its data is
// transferred. A non-zero errReg is reported with ERR set; zero
// reports a device fault (DF) instead.
func (d *Device) InjectError(lba uint64, errReg byte) {
	d.faults.errors[lba] = errReg
}

// ClearFaults removes all injected faults.
func (d *Device) ClearFaults() {
	d.faults = faults{errors: make(map[uint64]byte)}
}
