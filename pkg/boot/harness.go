// file: pkg/boot/harness.go

// Package boot is the early boot disk check: it reads a known sector
// through the PIO engine and decides what happens when that fails.
package boot

import (
	"bytes"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/ha1tch/piodisk/internal/logging"
	"github.com/ha1tch/piodisk/pkg/ata"
)

// DefaultLBA is the first data sector of a 1.44MB FAT12 volume
// (1 boot + 2x9 FAT + 14 root directory sectors).
const DefaultLBA = 33

// ErrSignatureMismatch is returned when the sector read fine but does
// not start with the expected bytes.
var ErrSignatureMismatch = errors.New("sector does not match expected signature")

// Policy decides what a failed read leads to.
type Policy int

const (
	// PolicyReport returns the classified error to the caller.
	PolicyReport Policy = iota
	// PolicyHalt hands the error to the halt function, which does not
	// return on real hardware.
	PolicyHalt
)

func (p Policy) String() string {
	if p == PolicyHalt {
		return "halt"
	}
	return "report"
}

// Options configures a Harness.
type Options struct {
	LBA    uint64
	Count  uint8 // required; zero is rejected by the reader
	Policy Policy
	Expect []byte // required prefix of the data read; nil skips the check

	// Retries is how many extra attempts a timed-out read gets. Device
	// errors and bad parameters are never retried.
	Retries int
	Backoff time.Duration

	// Halt is called under PolicyHalt. Defaults to HaltForever.
	Halt func(error)
}

// DefaultOptions returns the single-sector read at DefaultLBA with no
// retries and the report policy.
func DefaultOptions() *Options {
	return &Options{
		LBA:     DefaultLBA,
		Count:   1,
		Policy:  PolicyReport,
		Retries: 0,
		Backoff: 10 * time.Millisecond,
		Halt:    HaltForever,
	}
}

// HaltForever idles forever. It is the fail-fast path for a boot stage
// that has nowhere to report to.
func HaltForever(error) {
	for {
		time.Sleep(time.Hour)
	}
}

// Report describes a successful check.
type Report struct {
	LBA      uint64
	Count    uint8
	Attempts int
	Code     int
	Head     []byte // first bytes of the data read
}

func (r *Report) String() string {
	return fmt.Sprintf("loaded %d sector(s) from lba %d in %d attempt(s), code %d, head % x",
		r.Count, r.LBA, r.Attempts, r.Code, r.Head)
}

// Harness runs the boot disk check against a sector reader.
type Harness struct {
	r     ata.SectorReader
	opts  Options
	sleep func(time.Duration)
}

// New returns a Harness reading through r. A nil opts uses
// DefaultOptions.
func New(r ata.SectorReader, opts *Options) *Harness {
	if opts == nil {
		opts = DefaultOptions()
	}
	h := &Harness{r: r, opts: *opts, sleep: time.Sleep}
	if h.opts.Halt == nil {
		h.opts.Halt = HaltForever
	}
	return h
}

// Run reads the configured sectors into buf, which must hold
// Count*512 bytes.
func (h *Harness) Run(buf []byte) (*Report, error) {
	lba, count := h.opts.LBA, h.opts.Count

	var err error
	attempts := 0
	for {
		attempts++
		err = h.r.ReadSectors(lba, count, buf)
		if err == nil || !errors.Is(err, ata.ErrDeviceTimeout) || attempts > h.opts.Retries {
			break
		}
		logging.LogWarn(logging.ComponentBoot, "disk read timed out, retrying",
			"lba", lba, "attempt", attempts, "backoff", h.opts.Backoff)
		h.sleep(h.opts.Backoff)
	}
	if err != nil {
		return nil, h.fail(errors.Wrapf(err, "boot disk read of lba %d", lba))
	}

	if h.opts.Expect != nil && !bytes.HasPrefix(buf, h.opts.Expect) {
		return nil, h.fail(errors.Wrapf(ErrSignatureMismatch, "lba %d", lba))
	}

	n := 16
	if len(buf) < n {
		n = len(buf)
	}
	report := &Report{
		LBA:      lba,
		Count:    count,
		Attempts: attempts,
		Code:     ata.ResultSuccess,
		Head:     append([]byte(nil), buf[:n]...),
	}
	logging.LogInfo(logging.ComponentBoot, "boot disk read ok", "lba", lba, "count", count, "attempts", attempts)
	return report, nil
}

func (h *Harness) fail(err error) error {
	logging.LogError(logging.ComponentBoot, "boot disk check failed",
		"code", ata.ResultCode(err), "policy", h.opts.Policy, "err", err)
	if h.opts.Policy == PolicyHalt {
		h.opts.Halt(err)
	}
	return err
}
