// file: pkg/ata/errors.go

package ata

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrInvalidParameters = errors.New("invalid parameters")
	ErrDeviceTimeout     = errors.New("device timeout")
	ErrDeviceError       = errors.New("device error")
	ErrNoDevice          = errors.New("no device on bus")
	ErrNotATA            = errors.New("device is not ATA")
)

// DeviceError is returned when the device sets ERR or DF while a
// command is in progress. It matches ErrDeviceError under errors.Is.
type DeviceError struct {
	LBA      uint64 // sector being transferred when the error was seen
	Status   Status // raw status register
	ErrorReg byte   // raw error register
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("device error at lba %d: status=%s error=%#02x (%s)",
		e.LBA, e.Status, e.ErrorReg, describeError(e.ErrorReg))
}

func (e *DeviceError) Is(target error) bool {
	return target == ErrDeviceError
}

// TimeoutError is returned when a poll loop exhausts its bound. It
// matches ErrDeviceTimeout under errors.Is.
type TimeoutError struct {
	Phase  string // what was being waited for
	Status Status // last status observed
	Polls  int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("device timeout waiting for %s after %d polls (status=%s)",
		e.Phase, e.Polls, e.Status)
}

func (e *TimeoutError) Is(target error) bool {
	return target == ErrDeviceTimeout
}

func describeError(reg byte) string {
	if reg == 0 {
		return "device fault"
	}
	names := []struct {
		bit  byte
		name string
	}{
		{ErrorBBK, "bad block"},
		{ErrorUNC, "uncorrectable"},
		{ErrorMC, "media changed"},
		{ErrorIDNF, "id not found"},
		{ErrorMCR, "media change request"},
		{ErrorABRT, "aborted"},
		{ErrorTK0NF, "track 0 not found"},
		{ErrorAMNF, "address mark not found"},
	}
	desc := ""
	for _, n := range names {
		if reg&n.bit == 0 {
			continue
		}
		if desc != "" {
			desc += ", "
		}
		desc += n.name
	}
	return desc
}

// Result codes returned by ResultCode. Positive values 1-255 are the raw
// error register of a device error.
const (
	ResultSuccess           = 0
	ResultInvalidParameters = -1
	ResultDeviceTimeout     = -2
	ResultNoDevice          = -3
	ResultUnknown           = -4
	ResultDeviceFault       = 256 // device error with an empty error register
)

// ResultCode maps a ReadSectors error onto its stable integer code.
func ResultCode(err error) int {
	if err == nil {
		return ResultSuccess
	}
	var de *DeviceError
	switch {
	case errors.As(err, &de):
		if de.ErrorReg == 0 {
			return ResultDeviceFault
		}
		return int(de.ErrorReg)
	case errors.Is(err, ErrInvalidParameters):
		return ResultInvalidParameters
	case errors.Is(err, ErrDeviceTimeout):
		return ResultDeviceTimeout
	case errors.Is(err, ErrNoDevice):
		return ResultNoDevice
	default:
		return ResultUnknown
	}
}
