// file: pkg/ata/reader.go

package ata

import (
	"encoding/binary"
	"time"

	"github.com/pkg/errors"

	"github.com/ha1tch/piodisk/internal/logging"
)

// Reader reads sectors from one drive using polled PIO. It holds only
// configuration; every call runs the full protocol from an idle device.
type Reader struct {
	io    PortIO
	bus   Bus
	drive Drive
	opts  Options
}

// NewReader returns a Reader for drive on bus. A nil opts uses
// DefaultOptions.
func NewReader(io PortIO, bus Bus, drive Drive, opts *Options) *Reader {
	if opts == nil {
		opts = DefaultOptions()
	}
	r := &Reader{io: io, bus: bus, drive: drive, opts: *opts}
	if r.opts.PollLimit <= 0 {
		r.opts.PollLimit = DefaultPollLimit
	}
	return r
}

// Options returns the reader's effective configuration.
func (r *Reader) Options() Options {
	return r.opts
}

// ReadSectors transfers count sectors starting at lba into dst.
//
// Parameters are validated before any port is touched. A count of zero
// is rejected rather than treated as 256. On a device error the
// contents of dst are unspecified.
func (r *Reader) ReadSectors(lba uint64, count uint8, dst []byte) error {
	if err := r.validate(lba, count, dst); err != nil {
		logging.LogDebug(logging.ComponentATA, "rejected read", "lba", lba, "count", count, "err", err)
		return err
	}

	logging.LogDebug(logging.ComponentATA, "read sectors",
		"lba", lba, "count", count, "mode", r.opts.Mode, "drive", r.drive)

	if _, err := r.waitNotBusy("idle"); err != nil {
		logging.LogWarn(logging.ComponentATA, "device not idle", "err", err)
		return err
	}

	r.issueRead(lba, count)

	for i := 0; i < int(count); i++ {
		cur := lba + uint64(i)
		r.settle()
		if _, err := r.waitData(cur); err != nil {
			logging.LogWarn(logging.ComponentATA, "sector read failed", "lba", cur, "err", err)
			return err
		}
		r.transfer(dst[i*SectorSize : (i+1)*SectorSize])
	}

	// The device may still report an error once the last word is out.
	if st := r.altStatus(); st.Failed() {
		err := r.deviceError(lba+uint64(count)-1, st)
		logging.LogWarn(logging.ComponentATA, "error after transfer", "err", err)
		return err
	}

	logging.LogDebug(logging.ComponentATA, "read complete", "lba", lba, "count", count)
	return nil
}

// ReadSectorsPIO is ReadSectors reduced to its integer result code.
func (r *Reader) ReadSectorsPIO(lba uint64, count uint8, dst []byte) int {
	return ResultCode(r.ReadSectors(lba, count, dst))
}

func (r *Reader) validate(lba uint64, count uint8, dst []byte) error {
	if count == 0 {
		return errors.Wrap(ErrInvalidParameters, "sector count must be at least 1")
	}
	if need := int(count) * SectorSize; len(dst) < need {
		return errors.Wrapf(ErrInvalidParameters, "destination holds %d bytes, need %d", len(dst), need)
	}

	limit := r.opts.Mode.MaxLBA()
	last := lba + uint64(count) - 1
	if lba > limit || last > limit {
		return errors.Wrapf(ErrInvalidParameters, "lba range %d-%d exceeds %s limit %d", lba, last, r.opts.Mode, limit)
	}
	if r.opts.Capacity > 0 && last >= r.opts.Capacity {
		return errors.Wrapf(ErrInvalidParameters, "lba range %d-%d beyond device capacity of %d sectors", lba, last, r.opts.Capacity)
	}
	return nil
}

// issueRead selects the drive, loads the task file and writes the read
// command.
func (r *Reader) issueRead(lba uint64, count uint8) {
	if r.bus.Control != 0 {
		r.io.Out8(r.bus.Control, ControlNIEN)
	}

	sel := byte(DriveHeadObsolete | DriveHeadLBA)
	if r.drive == Slave {
		sel |= DriveHeadSlave
	}
	if r.opts.Mode == LBA28 {
		sel |= byte(lba>>24) & 0x0F
	}
	r.io.Out8(r.bus.Port(RegDriveHead), sel)
	r.settle()

	cmd := byte(CmdReadSectors)
	if r.opts.Mode == LBA48 {
		// High-order bytes go first; the registers are two-deep FIFOs.
		r.io.Out8(r.bus.Port(RegSectorCount), 0)
		r.io.Out8(r.bus.Port(RegLBALow), byte(lba>>24))
		r.io.Out8(r.bus.Port(RegLBAMid), byte(lba>>32))
		r.io.Out8(r.bus.Port(RegLBAHigh), byte(lba>>40))
		cmd = CmdReadSectorsExt
	}
	r.io.Out8(r.bus.Port(RegSectorCount), count)
	r.io.Out8(r.bus.Port(RegLBALow), byte(lba))
	r.io.Out8(r.bus.Port(RegLBAMid), byte(lba>>8))
	r.io.Out8(r.bus.Port(RegLBAHigh), byte(lba>>16))

	r.io.Out8(r.bus.Port(RegCommand), cmd)
}

// transfer moves one sector from the data port into dst, low byte of
// each word first.
func (r *Reader) transfer(dst []byte) {
	port := r.bus.Port(RegData)
	for w := 0; w < WordsPerSector; w++ {
		binary.LittleEndian.PutUint16(dst[w*2:], r.io.In16(port))
	}
}

func (r *Reader) status() Status {
	return Status(r.io.In8(r.bus.Port(RegStatus)))
}

// altStatus reads status without acknowledging a pending interrupt.
func (r *Reader) altStatus() Status {
	if r.bus.Control == 0 {
		return r.status()
	}
	return Status(r.io.In8(r.bus.Control))
}

// settle gives the device the 400ns it needs to drive a valid status
// after a select or command: four alternate status reads.
func (r *Reader) settle() {
	for i := 0; i < 4; i++ {
		r.altStatus()
	}
}

func (r *Reader) deviceError(lba uint64, st Status) error {
	return &DeviceError{
		LBA:      lba,
		Status:   st,
		ErrorReg: r.io.In8(r.bus.Port(RegError)),
	}
}

// poll reads the status register until check reports done or returns an
// error, bounded by PollLimit reads and the optional Timeout.
func (r *Reader) poll(phase string, check func(Status) (bool, error)) (Status, error) {
	var deadline time.Time
	if r.opts.Timeout > 0 {
		deadline = time.Now().Add(r.opts.Timeout)
	}

	var st Status
	for i := 0; i < r.opts.PollLimit; i++ {
		st = r.status()
		done, err := check(st)
		if err != nil {
			return st, err
		}
		if done {
			return st, nil
		}
		if !deadline.IsZero() && i&0xFF == 0xFF && time.Now().After(deadline) {
			return st, &TimeoutError{Phase: phase, Status: st, Polls: i + 1}
		}
	}
	return st, &TimeoutError{Phase: phase, Status: st, Polls: r.opts.PollLimit}
}

func (r *Reader) waitNotBusy(phase string) (Status, error) {
	return r.poll(phase, func(st Status) (bool, error) {
		if st == floatingBus {
			return false, errors.Wrapf(ErrNoDevice, "status %#02x on bus %#x", byte(st), r.bus.Base)
		}
		return !st.Busy(), nil
	})
}

func (r *Reader) waitData(lba uint64) (Status, error) {
	return r.poll("data request", func(st Status) (bool, error) {
		// A selected drive that is present drives at least BSY or DRDY.
		if st == 0 {
			return false, errors.Wrapf(ErrNoDevice, "%s on bus %#x", r.drive, r.bus.Base)
		}
		if st.Busy() {
			return false, nil
		}
		if st.Failed() {
			return false, r.deviceError(lba, st)
		}
		return st.DRQ(), nil
	})
}
