// file: pkg/ata/identify_test.go

package ata_test

import (
	"errors"
	"testing"

	"github.com/ha1tch/piodisk/pkg/ata"
	"github.com/ha1tch/piodisk/pkg/ata/sim"
	"github.com/ha1tch/piodisk/pkg/disk"
)

func TestIdentify(t *testing.T) {
	cfg := sim.DefaultConfig()
	cfg.Model = "QEMU HARDDISK"
	cfg.Serial = "QM00001"
	cfg.Firmware = "2.5+"
	dev := sim.New(newPatternImage(t, 2880), cfg)

	id, err := ata.Identify(dev, ata.PrimaryBus, ata.Master, nil)
	if err != nil {
		t.Fatalf("Identify failed: %v", err)
	}

	if id.Model != "QEMU HARDDISK" {
		t.Errorf("Model = %q", id.Model)
	}
	if id.Serial != "QM00001" {
		t.Errorf("Serial = %q", id.Serial)
	}
	if id.Firmware != "2.5+" {
		t.Errorf("Firmware = %q", id.Firmware)
	}
	if id.LBA28Sectors != 2880 {
		t.Errorf("LBA28Sectors = %d, want 2880", id.LBA28Sectors)
	}
	if !id.LBA48 || id.LBA48Sectors != 2880 {
		t.Errorf("LBA48 = %v/%d, want true/2880", id.LBA48, id.LBA48Sectors)
	}
	if id.Sectors() != 2880 {
		t.Errorf("Sectors() = %d", id.Sectors())
	}
	if id.Mode() != ata.LBA48 {
		t.Errorf("Mode() = %s, want lba48", id.Mode())
	}
	if got := dev.WritesTo(ata.PrimaryBus.Port(ata.RegCommand)); len(got) != 1 || got[0] != ata.CmdIdentify {
		t.Errorf("command writes = % x", got)
	}
}

func TestIdentifyLargeLBA48Device(t *testing.T) {
	dev := sim.New(patternMedium{sectors: 1 << 40}, nil)

	id, err := ata.Identify(dev, ata.PrimaryBus, ata.Master, nil)
	if err != nil {
		t.Fatalf("Identify failed: %v", err)
	}
	if id.LBA28Sectors != 1<<28-1 {
		t.Errorf("LBA28Sectors = %#x, want saturated %#x", id.LBA28Sectors, 1<<28-1)
	}
	if id.Sectors() != 1<<40 {
		t.Errorf("Sectors() = %#x, want %#x", id.Sectors(), uint64(1)<<40)
	}
}

func TestIdentifyLBA28Device(t *testing.T) {
	cfg := sim.DefaultConfig()
	cfg.LBA48 = false
	dev := sim.New(newPatternImage(t, 100), cfg)

	id, err := ata.Identify(dev, ata.PrimaryBus, ata.Master, nil)
	if err != nil {
		t.Fatalf("Identify failed: %v", err)
	}
	if id.LBA48 {
		t.Error("device reported LBA48 support")
	}
	if id.Mode() != ata.LBA28 || id.Sectors() != 100 {
		t.Errorf("Mode/Sectors = %s/%d, want lba28/100", id.Mode(), id.Sectors())
	}
}

func TestIdentifyErrors(t *testing.T) {
	t.Run("Absent slave", func(t *testing.T) {
		dev := sim.New(newPatternImage(t, 10), nil)
		_, err := ata.Identify(dev, ata.PrimaryBus, ata.Slave, nil)
		if !errors.Is(err, ata.ErrNoDevice) {
			t.Errorf("got %v, want ErrNoDevice", err)
		}
	})

	t.Run("Floating bus", func(t *testing.T) {
		dev := sim.New(newPatternImage(t, 10), nil)
		dev.SetFloating(true)
		_, err := ata.Identify(dev, ata.PrimaryBus, ata.Master, nil)
		if !errors.Is(err, ata.ErrNoDevice) {
			t.Errorf("got %v, want ErrNoDevice", err)
		}
	})

	t.Run("Packet device", func(t *testing.T) {
		cfg := sim.DefaultConfig()
		cfg.Packet = true
		dev := sim.New(newPatternImage(t, 10), cfg)
		_, err := ata.Identify(dev, ata.PrimaryBus, ata.Master, nil)
		if !errors.Is(err, ata.ErrNotATA) {
			t.Errorf("got %v, want ErrNotATA", err)
		}
	})

	t.Run("Stuck busy", func(t *testing.T) {
		dev := sim.New(newPatternImage(t, 10), nil)
		dev.SetStuckBusy(true)
		_, err := ata.Identify(dev, ata.PrimaryBus, ata.Master, &ata.Options{PollLimit: 50})
		if !errors.Is(err, ata.ErrDeviceTimeout) {
			t.Errorf("got %v, want ErrDeviceTimeout", err)
		}
	})
}

func TestProbe(t *testing.T) {
	img, _ := disk.NewImage(128)
	img.FillPattern()
	dev := sim.New(img, nil)

	r, id, err := ata.Probe(dev, ata.PrimaryBus, ata.Master, &ata.Options{PollLimit: 1000})
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}
	opts := r.Options()
	if opts.Mode != ata.LBA48 || opts.Capacity != 128 || opts.PollLimit != 1000 {
		t.Errorf("probed options = %+v", opts)
	}
	if id.Sectors() != 128 {
		t.Errorf("identity sectors = %d", id.Sectors())
	}

	// Capacity is now checked before the device is touched.
	dev.ResetTrace()
	err = r.ReadSectors(127, 2, make([]byte, 1024))
	if !errors.Is(err, ata.ErrInvalidParameters) {
		t.Fatalf("got %v, want ErrInvalidParameters", err)
	}
	if len(dev.Writes()) != 0 || dev.Reads() != 0 {
		t.Error("rejected read touched the device")
	}

	if err := r.ReadSectors(127, 1, make([]byte, 512)); err != nil {
		t.Errorf("reading the last sector failed: %v", err)
	}
}
