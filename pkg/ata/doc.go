// Package ata implements a polled (PIO) sector reader for classic ATA
// disk controllers.
//
// The controller is reached through a [PortIO] capability so the same
// protocol code runs against real ports or the simulated controller in
// package sim:
//
//	r := ata.NewReader(ports, ata.PrimaryBus, ata.Master, nil)
//	buf := make([]byte, ata.SectorSize)
//	if err := r.ReadSectors(33, 1, buf); err != nil {
//	    code := ata.ResultCode(err)
//	    ...
//	}
//
// A Reader keeps no state between calls and does no locking. Callers
// sharing one controller must serialise access themselves.
//
// # Errors
//
// Failures are classified as [ErrInvalidParameters], [ErrDeviceTimeout],
// [ErrNoDevice] or a [*DeviceError] carrying the raw status and error
// registers. [ResultCode] maps them to stable integers for callers that
// need a numeric status.
package ata
