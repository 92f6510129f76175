// file: pkg/ata/status.go

package ata

import "strings"

// Status is the value of the status (or alternate status) register.
type Status byte

// Status register bits.
const (
	StatusERR  Status = 0x01
	StatusIDX  Status = 0x02 // obsolete
	StatusCORR Status = 0x04 // obsolete
	StatusDRQ  Status = 0x08
	StatusSRV  Status = 0x10
	StatusDF   Status = 0x20
	StatusDRDY Status = 0x40
	StatusBSY  Status = 0x80
)

// floatingBus is what an empty channel returns: pulled-up data lines.
const floatingBus Status = 0xFF

func (s Status) Busy() bool  { return s&StatusBSY != 0 }
func (s Status) Ready() bool { return s&StatusDRDY != 0 }
func (s Status) DRQ() bool   { return s&StatusDRQ != 0 }

// Failed reports whether the device flagged an error or a device fault.
func (s Status) Failed() bool { return s&(StatusERR|StatusDF) != 0 }

// String lists the set flags, e.g. "DRDY|DRQ".
func (s Status) String() string {
	if s == 0 {
		return "none"
	}
	names := []struct {
		bit  Status
		name string
	}{
		{StatusBSY, "BSY"},
		{StatusDRDY, "DRDY"},
		{StatusDF, "DF"},
		{StatusSRV, "SRV"},
		{StatusDRQ, "DRQ"},
		{StatusCORR, "CORR"},
		{StatusIDX, "IDX"},
		{StatusERR, "ERR"},
	}
	var parts []string
	for _, n := range names {
		if s&n.bit != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// Error register bits, valid when StatusERR is set.
const (
	ErrorAMNF  = 0x01 // address mark not found
	ErrorTK0NF = 0x02 // track 0 not found
	ErrorABRT  = 0x04 // command aborted
	ErrorMCR   = 0x08 // media change request
	ErrorIDNF  = 0x10 // sector ID not found
	ErrorMC    = 0x20 // media changed
	ErrorUNC   = 0x40 // uncorrectable data error
	ErrorBBK   = 0x80 // bad block
)
