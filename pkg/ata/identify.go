// file: pkg/ata/identify.go

package ata

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/ha1tch/piodisk/internal/logging"
)

// Identity is the parsed subset of IDENTIFY DEVICE data.
type Identity struct {
	Model        string
	Serial       string
	Firmware     string
	LBA28Sectors uint32
	LBA48        bool
	LBA48Sectors uint64
	Raw          [WordsPerSector]uint16
}

// IDENTIFY DEVICE word offsets.
const (
	idSerial       = 10 // 10 words
	idFirmware     = 23 // 4 words
	idModel        = 27 // 20 words
	idLBA28Sectors = 60 // 2 words
	idCommandSets  = 83
	idLBA48Sectors = 100 // 4 words

	idCommandSetLBA48 = 1 << 10
)

// Sectors returns the addressable capacity in sectors.
func (id *Identity) Sectors() uint64 {
	if id.LBA48 && id.LBA48Sectors > 0 {
		return id.LBA48Sectors
	}
	return uint64(id.LBA28Sectors)
}

// Mode returns the widest address mode the device supports.
func (id *Identity) Mode() AddressMode {
	if id.LBA48 {
		return LBA48
	}
	return LBA28
}

// Identify issues IDENTIFY DEVICE to drive and parses the response. It
// returns ErrNoDevice for an empty slot or floating bus and ErrNotATA
// when the device answers with a packet or SATA signature.
func Identify(io PortIO, bus Bus, drive Drive, opts *Options) (*Identity, error) {
	r := NewReader(io, bus, drive, opts)

	sel := byte(DriveHeadObsolete)
	if drive == Slave {
		sel |= DriveHeadSlave
	}
	io.Out8(bus.Port(RegDriveHead), sel)
	r.settle()

	io.Out8(bus.Port(RegSectorCount), 0)
	io.Out8(bus.Port(RegLBALow), 0)
	io.Out8(bus.Port(RegLBAMid), 0)
	io.Out8(bus.Port(RegLBAHigh), 0)
	io.Out8(bus.Port(RegCommand), CmdIdentify)

	if st := r.status(); st == 0 || st == floatingBus {
		return nil, errors.Wrapf(ErrNoDevice, "%s on bus %#x", drive, bus.Base)
	}
	if _, err := r.waitNotBusy("identify"); err != nil {
		return nil, err
	}

	mid, high := io.In8(bus.Port(RegLBAMid)), io.In8(bus.Port(RegLBAHigh))
	if mid != 0 || high != 0 {
		return nil, errors.Wrapf(ErrNotATA, "signature %#02x %#02x", mid, high)
	}

	if _, err := r.waitData(0); err != nil {
		return nil, errors.Wrap(err, "identify")
	}

	id := &Identity{}
	for i := range id.Raw {
		id.Raw[i] = io.In16(bus.Port(RegData))
	}
	id.parse()

	logging.LogInfo(logging.ComponentATA, "identified drive",
		"drive", drive, "model", id.Model, "sectors", id.Sectors(), "lba48", id.LBA48)
	return id, nil
}

// Probe identifies drive and returns a Reader configured with the
// address mode and capacity the device reports. Other settings come
// from opts.
func Probe(io PortIO, bus Bus, drive Drive, opts *Options) (*Reader, *Identity, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	id, err := Identify(io, bus, drive, opts)
	if err != nil {
		return nil, nil, err
	}

	o := *opts
	o.Mode = id.Mode()
	o.Capacity = id.Sectors()
	return NewReader(io, bus, drive, &o), id, nil
}

func (id *Identity) parse() {
	w := id.Raw[:]
	id.Serial = ataString(w[idSerial : idSerial+10])
	id.Firmware = ataString(w[idFirmware : idFirmware+4])
	id.Model = ataString(w[idModel : idModel+20])
	id.LBA28Sectors = uint32(w[idLBA28Sectors]) | uint32(w[idLBA28Sectors+1])<<16
	id.LBA48 = w[idCommandSets]&idCommandSetLBA48 != 0
	if id.LBA48 {
		for i := 3; i >= 0; i-- {
			id.LBA48Sectors = id.LBA48Sectors<<16 | uint64(w[idLBA48Sectors+i])
		}
	}
}

// ataString decodes an IDENTIFY text field, which stores each pair of
// characters high byte first.
func ataString(words []uint16) string {
	b := make([]byte, 0, len(words)*2)
	for _, w := range words {
		b = append(b, byte(w>>8), byte(w))
	}
	return strings.TrimSpace(strings.TrimRight(string(b), "\x00"))
}

// EncodeATAString is the inverse of the IDENTIFY text decoding: it pads s
// with spaces to n words and packs it high byte first.
func EncodeATAString(s string, n int) []uint16 {
	b := []byte(s)
	for len(b) < n*2 {
		b = append(b, ' ')
	}
	words := make([]uint16, n)
	for i := range words {
		words[i] = uint16(b[i*2])<<8 | uint16(b[i*2+1])
	}
	return words
}
