// file: cmd/read/read.go

package read

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/ha1tch/piodisk/internal/logging"
	"github.com/ha1tch/piodisk/pkg/ata"
	"github.com/ha1tch/piodisk/pkg/ata/sim"
	"github.com/ha1tch/piodisk/pkg/disk"
)

// HexMode selects how sector data is written
type HexMode int

const (
	// HexAuto dumps hex to a terminal and raw bytes anywhere else (default)
	HexAuto HexMode = iota
	// HexOn always writes a hex dump
	HexOn
	// HexOff always writes raw bytes
	HexOff
)

// ReadOptions configures a sector read
type ReadOptions struct {
	LBA       uint64          // First sector
	CHS       string          // Optional "c/h/s" address, overrides LBA
	Count     uint64          // Sectors to read; must be at least 1
	Mode      ata.AddressMode // Addressing when Probe is false
	Probe     bool            // Identify the drive and pick the mode from it
	Hex       HexMode         // Output format
	Output    string          // Output file; empty means Out
	Out       io.Writer       // Destination when Output is empty; nil means stdout
	PollLimit int             // Status polls before a timeout; 0 uses the default
}

// DefaultReadOptions returns default options for Read
func DefaultReadOptions() *ReadOptions {
	return &ReadOptions{
		LBA:   33,
		Count: 1,
		Mode:  ata.LBA28,
		Probe: true,
		Hex:   HexAuto,
	}
}

// Read loads a disk image behind a simulated controller and reads
// sectors from it through the PIO engine
func Read(diskPath string, opts *ReadOptions) error {
	if opts == nil {
		opts = DefaultReadOptions()
	}

	img, err := disk.LoadFromFile(diskPath)
	if err != nil {
		return fmt.Errorf("failed to open disk: %w", err)
	}

	lba := opts.LBA
	if opts.CHS != "" {
		if lba, err = parseCHS(img, opts.CHS); err != nil {
			return err
		}
	}
	count := opts.Count

	cfg := sim.DefaultConfig()
	dev := sim.New(img, cfg)
	reader, err := newReader(dev, cfg.Bus, img, opts)
	if err != nil {
		return err
	}
	// Zero sectors is an invalid request, not an empty one.
	if count == 0 {
		err := reader.ReadSectors(lba, 0, nil)
		return fmt.Errorf("read failed (code %d): %w", ata.ResultCode(err), err)
	}

	logging.LogDebug(logging.ComponentCLI, "reading sectors",
		"image", diskPath, "lba", lba, "count", count, "mode", reader.Options().Mode)

	out := opts.Out
	if opts.Output != "" {
		f, err := os.Create(opts.Output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	} else if out == nil {
		out = os.Stdout
	}

	if useHex(opts.Hex, out) {
		dumper := hex.Dumper(out)
		defer dumper.Close()
		out = dumper
	}

	if _, err := io.Copy(out, ata.NewStream(reader, lba, count)); err != nil {
		return fmt.Errorf("read failed (code %d): %w", ata.ResultCode(err), err)
	}
	return nil
}

func newReader(dev *sim.Device, bus ata.Bus, img *disk.Image, opts *ReadOptions) (*ata.Reader, error) {
	aopts := &ata.Options{PollLimit: opts.PollLimit}
	if opts.Probe {
		r, _, err := ata.Probe(dev, bus, ata.Master, aopts)
		if err != nil {
			return nil, fmt.Errorf("failed to identify drive: %w", err)
		}
		return r, nil
	}
	aopts.Mode = opts.Mode
	aopts.Capacity = img.SectorCount()
	return ata.NewReader(dev, bus, ata.Master, aopts), nil
}

// parseCHS converts a "cylinder/head/sector" string using the image geometry
func parseCHS(img *disk.Image, s string) (uint64, error) {
	var c, h, sec int
	if _, err := fmt.Sscanf(s, "%d/%d/%d", &c, &h, &sec); err != nil {
		return 0, fmt.Errorf("invalid CHS address %q: want cylinder/head/sector", s)
	}
	lba, err := img.CHS(c, h, sec)
	if err != nil {
		return 0, fmt.Errorf("invalid CHS address %q: %w", s, err)
	}
	return lba, nil
}

func useHex(mode HexMode, w io.Writer) bool {
	switch mode {
	case HexOn:
		return true
	case HexOff:
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
