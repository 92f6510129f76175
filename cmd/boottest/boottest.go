// file: cmd/boottest/boottest.go

package boottest

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ha1tch/piodisk/internal"
	"github.com/ha1tch/piodisk/pkg/ata"
	"github.com/ha1tch/piodisk/pkg/ata/sim"
	"github.com/ha1tch/piodisk/pkg/boot"
	"github.com/ha1tch/piodisk/pkg/disk"
)

// Fault is an error injected at one sector
type Fault struct {
	LBA  uint64
	Code byte // error register value; 0 means device fault
}

// BootTestOptions configures a boot disk check
type BootTestOptions struct {
	LBA     uint64
	Count   uint8
	Policy  boot.Policy
	Expect  []byte        // Required prefix of the first sector read
	Retries int           // Extra attempts after a timeout
	Backoff time.Duration // Pause between attempts

	Mode      ata.AddressMode // Addressing when Probe is false
	Probe     bool            // Identify the drive first
	PollLimit int             // Status polls before a timeout; 0 uses the default

	Faults    []Fault // Errors injected into the simulated drive
	StuckBusy bool    // Drive never leaves BSY
	Floating  bool    // No controller on the bus

	Halt  func(error) // Called under the halt policy
	Out   io.Writer   // Report destination; nil means stdout
	Quiet bool        // Suppress the report
}

// DefaultBootTestOptions returns default options for BootTest
func DefaultBootTestOptions() *BootTestOptions {
	return &BootTestOptions{
		LBA:     boot.DefaultLBA,
		Count:   1,
		Policy:  boot.PolicyReport,
		Backoff: 10 * time.Millisecond,
		Probe:   true,
	}
}

// BootTest runs the boot disk check against an image behind a simulated
// controller
func BootTest(diskPath string, opts *BootTestOptions) (*boot.Report, error) {
	if opts == nil {
		opts = DefaultBootTestOptions()
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	img, err := disk.LoadFromFile(diskPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open disk: %w", err)
	}

	dev := sim.New(img, nil)
	for _, f := range opts.Faults {
		dev.InjectError(f.LBA, f.Code)
	}
	dev.SetStuckBusy(opts.StuckBusy)
	dev.SetFloating(opts.Floating)

	aopts := &ata.Options{Mode: opts.Mode, PollLimit: opts.PollLimit}
	var reader *ata.Reader
	if opts.Probe && !opts.StuckBusy && !opts.Floating {
		// A stuck or absent drive would fail IDENTIFY before the check
		// gets to classify anything.
		if reader, _, err = ata.Probe(dev, ata.PrimaryBus, ata.Master, aopts); err != nil {
			return nil, fmt.Errorf("failed to identify drive: %w", err)
		}
	} else {
		reader = ata.NewReader(dev, ata.PrimaryBus, ata.Master, aopts)
	}

	count := opts.Count
	h := boot.New(reader, &boot.Options{
		LBA:     opts.LBA,
		Count:   count,
		Policy:  opts.Policy,
		Expect:  opts.Expect,
		Retries: opts.Retries,
		Backoff: opts.Backoff,
		Halt:    opts.Halt,
	})

	report, err := h.Run(make([]byte, internal.SectorsToBytes(int(count))))
	if err != nil {
		if !opts.Quiet {
			fmt.Fprintf(out, "boot check failed: code %d: %v\n", ata.ResultCode(err), err)
		}
		return nil, err
	}
	if !opts.Quiet {
		fmt.Fprintln(out, report)
	}
	return report, nil
}
