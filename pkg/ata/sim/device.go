// file: pkg/ata/sim/device.go

// Package sim is a software model of a classic ATA channel. A Device
// implements ata.PortIO and answers the register protocol the PIO
// engine speaks, serving sector data from a Medium.
//
// The model is not synchronised; one goroutine drives it at a time.
package sim

import (
	"encoding/binary"

	"github.com/ha1tch/piodisk/internal/logging"
	"github.com/ha1tch/piodisk/pkg/ata"
)

// Medium is the storage behind a simulated drive.
type Medium interface {
	ReadSector(lba uint64, dst []byte) error
	SectorCount() uint64
}

// Write is one recorded port output.
type Write struct {
	Port  uint16
	Value byte
}

// Config describes the simulated channel and its drives.
type Config struct {
	Bus ata.Bus

	// BusyPolls is how many status reads report BSY after a command or
	// between sectors before the device is ready.
	BusyPolls int

	Model    string
	Serial   string
	Firmware string
	LBA48    bool

	// Packet makes the drives answer IDENTIFY with the ATAPI signature.
	Packet bool
}

// DefaultConfig returns a primary channel with an LBA48 capable drive.
func DefaultConfig() *Config {
	return &Config{
		Bus:       ata.PrimaryBus,
		BusyPolls: 2,
		Model:     "PIODISK SIMULATED DRIVE",
		Serial:    "SIM0000001",
		Firmware:  "1.0",
		LBA48:     true,
	}
}

// taskReg is a task file register with its LBA48 high-order shadow.
type taskReg struct {
	cur, prev byte
}

func (r *taskReg) write(v byte) {
	r.prev = r.cur
	r.cur = v
}

// Device is a simulated ATA channel with up to two drives.
type Device struct {
	cfg   Config
	media [2]Medium

	features byte
	errReg   byte
	count    taskReg
	lbaLow   taskReg
	lbaMid   taskReg
	lbaHigh  taskReg
	devHead  byte
	control  byte
	status   ata.Status
	busyLeft int

	buf        [ata.SectorSize]byte
	bufPos     int
	dataActive bool
	nextLBA    uint64
	remaining  int

	faults faults
	trace  trace
}

// New returns a channel with master attached. A nil cfg uses
// DefaultConfig.
func New(master Medium, cfg *Config) *Device {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	d := &Device{cfg: *cfg}
	d.media[ata.Master] = master
	d.faults.errors = make(map[uint64]byte)
	d.reset()
	return d
}

// AttachSlave puts m in the slave position.
func (d *Device) AttachSlave(m Medium) {
	d.media[ata.Slave] = m
}

func (d *Device) selected() ata.Drive {
	if d.devHead&ata.DriveHeadSlave != 0 {
		return ata.Slave
	}
	return ata.Master
}

func (d *Device) reset() {
	d.status = ata.StatusDRDY
	d.errReg = 0x01 // diagnostic code: no error
	d.busyLeft = 0
	d.dataActive = false
	d.remaining = 0
	d.count = taskReg{cur: 1}
	d.lbaLow = taskReg{cur: 1}
	d.lbaMid = taskReg{}
	d.lbaHigh = taskReg{}
	if d.cfg.Packet {
		d.lbaMid.cur, d.lbaHigh.cur = 0x14, 0xEB
	}
}

// In8 implements ata.PortIO.
func (d *Device) In8(port uint16) byte {
	d.trace.reads++
	if d.faults.floating {
		return 0xFF
	}
	if d.media[d.selected()] == nil {
		return 0
	}
	if port == d.cfg.Bus.Control && port != 0 {
		return byte(d.readStatus())
	}

	bus := d.cfg.Bus
	hob := d.control&ata.ControlHOB != 0
	pick := func(r taskReg) byte {
		if hob {
			return r.prev
		}
		return r.cur
	}
	switch port {
	case bus.Port(ata.RegError):
		return d.errReg
	case bus.Port(ata.RegSectorCount):
		return pick(d.count)
	case bus.Port(ata.RegLBALow):
		return pick(d.lbaLow)
	case bus.Port(ata.RegLBAMid):
		return pick(d.lbaMid)
	case bus.Port(ata.RegLBAHigh):
		return pick(d.lbaHigh)
	case bus.Port(ata.RegDriveHead):
		return d.devHead
	case bus.Port(ata.RegStatus):
		return byte(d.readStatus())
	}
	return 0
}

// In16 implements ata.PortIO. Only the data port answers.
func (d *Device) In16(port uint16) uint16 {
	d.trace.reads++
	if d.faults.floating {
		return 0xFFFF
	}
	if port != d.cfg.Bus.Port(ata.RegData) || !d.dataActive {
		return 0
	}

	w := binary.LittleEndian.Uint16(d.buf[d.bufPos:])
	d.bufPos += 2
	d.trace.words++
	if d.bufPos == ata.SectorSize {
		d.sectorDone()
	}
	return w
}

// Out8 implements ata.PortIO.
func (d *Device) Out8(port uint16, value byte) {
	d.trace.writes = append(d.trace.writes, Write{Port: port, Value: value})
	if d.faults.floating {
		return
	}

	bus := d.cfg.Bus
	switch port {
	case bus.Control:
		if port == 0 {
			return
		}
		if d.control&ata.ControlSRST != 0 && value&ata.ControlSRST == 0 {
			d.reset()
		}
		d.control = value
	case bus.Port(ata.RegFeatures):
		d.features = value
	case bus.Port(ata.RegSectorCount):
		d.count.write(value)
	case bus.Port(ata.RegLBALow):
		d.lbaLow.write(value)
	case bus.Port(ata.RegLBAMid):
		d.lbaMid.write(value)
	case bus.Port(ata.RegLBAHigh):
		d.lbaHigh.write(value)
	case bus.Port(ata.RegDriveHead):
		d.devHead = value
	case bus.Port(ata.RegCommand):
		d.command(value)
	}
}

func (d *Device) readStatus() ata.Status {
	if d.faults.stuckBusy {
		return ata.StatusBSY
	}
	if d.busyLeft > 0 {
		d.busyLeft--
		return ata.StatusBSY
	}
	return d.status
}

// settle puts the device into st after the configured busy period.
func (d *Device) settle(st ata.Status) {
	d.status = st
	d.busyLeft = d.cfg.BusyPolls
}

func (d *Device) abort(errReg byte) {
	d.dataActive = false
	d.remaining = 0
	d.errReg = errReg
	if errReg == 0 {
		d.settle(ata.StatusDRDY | ata.StatusDF)
		return
	}
	d.settle(ata.StatusDRDY | ata.StatusERR)
}

func (d *Device) command(cmd byte) {
	drive := d.selected()
	if d.media[drive] == nil {
		return
	}
	d.errReg = 0
	logging.LogDebug(logging.ComponentSim, "command", "cmd", cmd, "drive", drive)

	switch cmd {
	case ata.CmdReadSectors:
		if d.devHead&ata.DriveHeadLBA == 0 {
			d.abort(ata.ErrorABRT)
			return
		}
		lba := uint64(d.devHead&0x0F)<<24 | uint64(d.lbaHigh.cur)<<16 |
			uint64(d.lbaMid.cur)<<8 | uint64(d.lbaLow.cur)
		n := int(d.count.cur)
		if n == 0 {
			n = 256
		}
		d.startRead(lba, n)
	case ata.CmdReadSectorsExt:
		if !d.cfg.LBA48 {
			d.abort(ata.ErrorABRT)
			return
		}
		lba := uint64(d.lbaHigh.prev)<<40 | uint64(d.lbaMid.prev)<<32 |
			uint64(d.lbaLow.prev)<<24 | uint64(d.lbaHigh.cur)<<16 |
			uint64(d.lbaMid.cur)<<8 | uint64(d.lbaLow.cur)
		n := int(d.count.prev)<<8 | int(d.count.cur)
		if n == 0 {
			n = 65536
		}
		d.startRead(lba, n)
	case ata.CmdIdentify:
		if d.cfg.Packet {
			d.lbaMid.cur, d.lbaHigh.cur = 0x14, 0xEB
			d.abort(ata.ErrorABRT)
			return
		}
		d.loadIdentify(d.media[drive])
	default:
		d.abort(ata.ErrorABRT)
	}
}

func (d *Device) startRead(lba uint64, n int) {
	m := d.media[d.selected()]
	if lba+uint64(n) > m.SectorCount() {
		d.abort(ata.ErrorIDNF)
		return
	}
	d.nextLBA = lba
	d.remaining = n
	d.loadNext()
}

// loadNext fetches the next sector of the current command into the
// sector buffer, or raises the injected error for it.
func (d *Device) loadNext() {
	lba := d.nextLBA
	if code, ok := d.faults.errors[lba]; ok {
		logging.LogDebug(logging.ComponentSim, "injected error", "lba", lba, "error", code)
		d.abort(code)
		return
	}
	if d.faults.noDRQ {
		d.dataActive = false
		d.settle(ata.StatusDRDY)
		return
	}
	if err := d.media[d.selected()].ReadSector(lba, d.buf[:]); err != nil {
		logging.LogWarn(logging.ComponentSim, "medium read failed", "lba", lba, "err", err)
		d.abort(ata.ErrorUNC)
		return
	}
	d.bufPos = 0
	d.dataActive = true
	d.nextLBA++
	d.remaining--
	d.settle(ata.StatusDRDY | ata.StatusDRQ)
}

func (d *Device) sectorDone() {
	d.trace.sectors++
	d.dataActive = false
	if d.remaining > 0 {
		d.loadNext()
		return
	}
	d.status = ata.StatusDRDY
}

func (d *Device) loadIdentify(m Medium) {
	var words [ata.WordsPerSector]uint16
	copy(words[10:20], ata.EncodeATAString(d.cfg.Serial, 10))
	copy(words[23:27], ata.EncodeATAString(d.cfg.Firmware, 4))
	copy(words[27:47], ata.EncodeATAString(d.cfg.Model, 20))
	words[49] = 1 << 9 // LBA supported

	sectors := m.SectorCount()
	lba28 := sectors
	if lba28 > ata.LBA28.MaxLBA() {
		lba28 = ata.LBA28.MaxLBA()
	}
	words[60] = uint16(lba28)
	words[61] = uint16(lba28 >> 16)

	words[83] = 1 << 14
	if d.cfg.LBA48 {
		words[83] |= 1 << 10
		for i := 0; i < 4; i++ {
			words[100+i] = uint16(sectors >> (16 * i))
		}
	}

	for i, w := range words {
		binary.LittleEndian.PutUint16(d.buf[i*2:], w)
	}
	d.bufPos = 0
	d.dataActive = true
	d.remaining = 0
	d.settle(ata.StatusDRDY | ata.StatusDRQ)
}
