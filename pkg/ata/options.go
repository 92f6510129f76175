// file: pkg/ata/options.go

package ata

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// AddressMode selects how LBAs are programmed into the command block.
type AddressMode int

const (
	LBA28 AddressMode = iota // READ SECTORS, 28-bit addresses
	LBA48                    // READ SECTORS EXT, 48-bit addresses
)

// MaxLBA returns the highest sector address the mode can express.
func (m AddressMode) MaxLBA() uint64 {
	if m == LBA48 {
		return 1<<48 - 1
	}
	return 1<<28 - 1
}

func (m AddressMode) String() string {
	switch m {
	case LBA28:
		return "lba28"
	case LBA48:
		return "lba48"
	default:
		return fmt.Sprintf("AddressMode(%d)", int(m))
	}
}

// ParseAddressMode accepts "lba28"/"28" and "lba48"/"48".
func ParseAddressMode(s string) (AddressMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lba28", "28":
		return LBA28, nil
	case "lba48", "48":
		return LBA48, nil
	default:
		return LBA28, errors.Errorf("unknown address mode %q (want lba28 or lba48)", s)
	}
}

// Options configures a Reader.
type Options struct {
	Mode AddressMode

	// PollLimit bounds the status reads of every wait loop.
	PollLimit int

	// Timeout, when non-zero, additionally bounds every wait loop by
	// wall-clock time.
	Timeout time.Duration

	// Capacity is the device size in sectors. Zero means unknown, in
	// which case only the address mode limits the LBA.
	Capacity uint64
}

// DefaultPollLimit is the status read bound used when none is given.
const DefaultPollLimit = 100000

// DefaultOptions returns the options used when NewReader gets nil.
func DefaultOptions() *Options {
	return &Options{
		Mode:      LBA28,
		PollLimit: DefaultPollLimit,
		Timeout:   0,
		Capacity:  0,
	}
}
