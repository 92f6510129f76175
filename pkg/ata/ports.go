// file: pkg/ata/ports.go

package ata

// PortIO is raw access to the processor's I/O port space. On hardware it
// is backed by in/out instructions; in tests by a simulated controller.
type PortIO interface {
	In8(port uint16) byte
	Out8(port uint16, value byte)
	In16(port uint16) uint16
}

// Bus describes one ATA channel: the command block base and the device
// control / alternate status port.
type Bus struct {
	Base    uint16
	Control uint16 // 0 when the channel has no control block
}

// Standard ISA channel locations.
var (
	PrimaryBus   = Bus{Base: 0x1F0, Control: 0x3F6}
	SecondaryBus = Bus{Base: 0x170, Control: 0x376}
)

// Command block register offsets from Bus.Base.
const (
	RegData        = 0 // 16-bit data port
	RegError       = 1 // read: error register
	RegFeatures    = 1 // write: features register
	RegSectorCount = 2
	RegLBALow      = 3
	RegLBAMid      = 4
	RegLBAHigh     = 5
	RegDriveHead   = 6
	RegStatus      = 7 // read: status register
	RegCommand     = 7 // write: command register
)

// Port returns the absolute port number of a command block register.
func (b Bus) Port(reg uint16) uint16 {
	return b.Base + reg
}

// Drive selects master or slave on a channel.
type Drive uint8

const (
	Master Drive = 0
	Slave  Drive = 1
)

// String returns the drive name.
func (d Drive) String() string {
	if d == Slave {
		return "slave"
	}
	return "master"
}

// Drive/head register bits.
const (
	DriveHeadObsolete = 0xA0 // bits 7 and 5, set on legacy devices
	DriveHeadLBA      = 0x40
	DriveHeadSlave    = 0x10
)

// Device control register bits.
const (
	ControlNIEN = 0x02 // disable device interrupts
	ControlSRST = 0x04 // software reset
	ControlHOB  = 0x80 // read back high-order LBA48 bytes
)

// Commands.
const (
	CmdReadSectors    = 0x20
	CmdReadSectorsExt = 0x24
	CmdIdentify       = 0xEC
)

// SectorSize is the transfer unit in bytes; one sector is 256 words.
const (
	SectorSize     = 512
	WordsPerSector = SectorSize / 2
)
