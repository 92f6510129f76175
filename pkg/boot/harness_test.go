// file: pkg/boot/harness_test.go

package boot

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/ha1tch/piodisk/pkg/ata"
	"github.com/ha1tch/piodisk/pkg/ata/sim"
	"github.com/ha1tch/piodisk/pkg/disk"
)

func newDevice(t *testing.T) *sim.Device {
	t.Helper()
	img, err := disk.NewImageWithGeometry(disk.Floppy144)
	if err != nil {
		t.Fatal(err)
	}
	img.FillPattern()
	return sim.New(img, nil)
}

// flakyReader times out a fixed number of times before delegating.
type flakyReader struct {
	r        ata.SectorReader
	failures int
	calls    int
}

func (f *flakyReader) ReadSectors(lba uint64, count uint8, dst []byte) error {
	f.calls++
	if f.calls <= f.failures {
		return &ata.TimeoutError{Phase: "idle", Status: ata.StatusBSY, Polls: 1}
	}
	return f.r.ReadSectors(lba, count, dst)
}

func TestRunDefault(t *testing.T) {
	dev := newDevice(t)
	h := New(ata.NewReader(dev, ata.PrimaryBus, ata.Master, nil), nil)

	buf := make([]byte, 512)
	report, err := h.Run(buf)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.LBA != DefaultLBA || report.Count != 1 || report.Attempts != 1 {
		t.Errorf("report = %+v", report)
	}
	if report.Code != ata.ResultSuccess {
		t.Errorf("Code = %d", report.Code)
	}
	if !bytes.Equal(buf, disk.PatternSector(DefaultLBA)) {
		t.Error("buffer does not hold sector 33")
	}
	if !bytes.Equal(report.Head, disk.PatternSector(DefaultLBA)[:16]) {
		t.Errorf("Head = % x", report.Head)
	}
}

func TestRunSignature(t *testing.T) {
	dev := newDevice(t)
	r := ata.NewReader(dev, ata.PrimaryBus, ata.Master, nil)

	t.Run("Match", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Expect = disk.PatternSector(DefaultLBA)[:8]
		if _, err := New(r, opts).Run(make([]byte, 512)); err != nil {
			t.Errorf("Run failed: %v", err)
		}
	})

	t.Run("Mismatch", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Expect = []byte("KERNEL  BIN")
		_, err := New(r, opts).Run(make([]byte, 512))
		if !errors.Is(err, ErrSignatureMismatch) {
			t.Errorf("got %v, want ErrSignatureMismatch", err)
		}
	})
}

func TestReportPolicy(t *testing.T) {
	dev := newDevice(t)
	dev.InjectError(DefaultLBA, ata.ErrorUNC)

	halted := false
	opts := DefaultOptions()
	opts.Halt = func(error) { halted = true }

	_, err := New(ata.NewReader(dev, ata.PrimaryBus, ata.Master, nil), opts).Run(make([]byte, 512))
	if !errors.Is(err, ata.ErrDeviceError) {
		t.Fatalf("got %v, want ErrDeviceError", err)
	}
	if ata.ResultCode(err) != ata.ErrorUNC {
		t.Errorf("ResultCode = %d, want %d", ata.ResultCode(err), ata.ErrorUNC)
	}
	if halted {
		t.Error("report policy halted")
	}
}

func TestHaltPolicy(t *testing.T) {
	dev := newDevice(t)
	dev.SetStuckBusy(true)

	var haltErr error
	opts := DefaultOptions()
	opts.Policy = PolicyHalt
	opts.Halt = func(err error) { haltErr = err }

	r := ata.NewReader(dev, ata.PrimaryBus, ata.Master, &ata.Options{PollLimit: 100})
	_, err := New(r, opts).Run(make([]byte, 512))
	if haltErr == nil {
		t.Fatal("halt function not called")
	}
	if !errors.Is(haltErr, ata.ErrDeviceTimeout) {
		t.Errorf("halt got %v, want ErrDeviceTimeout", haltErr)
	}
	if err != haltErr {
		t.Errorf("Run returned %v, halt got %v", err, haltErr)
	}
}

func TestRetryOnTimeout(t *testing.T) {
	dev := newDevice(t)

	t.Run("Recovers", func(t *testing.T) {
		fr := &flakyReader{r: ata.NewReader(dev, ata.PrimaryBus, ata.Master, nil), failures: 2}
		opts := DefaultOptions()
		opts.Retries = 2
		opts.Backoff = time.Second
		h := New(fr, opts)

		var slept []time.Duration
		h.sleep = func(d time.Duration) { slept = append(slept, d) }

		report, err := h.Run(make([]byte, 512))
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if report.Attempts != 3 {
			t.Errorf("Attempts = %d, want 3", report.Attempts)
		}
		if len(slept) != 2 || slept[0] != time.Second {
			t.Errorf("backoffs = %v", slept)
		}
	})

	t.Run("Gives up", func(t *testing.T) {
		fr := &flakyReader{r: ata.NewReader(dev, ata.PrimaryBus, ata.Master, nil), failures: 5}
		opts := DefaultOptions()
		opts.Retries = 1
		h := New(fr, opts)
		h.sleep = func(time.Duration) {}

		_, err := h.Run(make([]byte, 512))
		if !errors.Is(err, ata.ErrDeviceTimeout) {
			t.Errorf("got %v, want ErrDeviceTimeout", err)
		}
		if fr.calls != 2 {
			t.Errorf("calls = %d, want 2", fr.calls)
		}
	})
}

func TestDeviceErrorNotRetried(t *testing.T) {
	dev := newDevice(t)
	dev.InjectError(DefaultLBA, ata.ErrorIDNF)
	fr := &flakyReader{r: ata.NewReader(dev, ata.PrimaryBus, ata.Master, nil)}

	opts := DefaultOptions()
	opts.Retries = 3
	h := New(fr, opts)
	h.sleep = func(time.Duration) { t.Error("device error was retried") }

	if _, err := h.Run(make([]byte, 512)); !errors.Is(err, ata.ErrDeviceError) {
		t.Errorf("got %v, want ErrDeviceError", err)
	}
	if fr.calls != 1 {
		t.Errorf("calls = %d, want 1", fr.calls)
	}
}

func TestZeroCountRejected(t *testing.T) {
	dev := newDevice(t)
	h := New(ata.NewReader(dev, ata.PrimaryBus, ata.Master, nil), &Options{LBA: 5})

	report, err := h.Run(make([]byte, 512))
	if !errors.Is(err, ata.ErrInvalidParameters) {
		t.Fatalf("got %v, want ErrInvalidParameters", err)
	}
	if report != nil {
		t.Errorf("report = %+v, want nil", report)
	}
	if code := ata.ResultCode(err); code != ata.ResultInvalidParameters {
		t.Errorf("ResultCode = %d, want %d", code, ata.ResultInvalidParameters)
	}
	if len(dev.Writes()) != 0 {
		t.Errorf("rejected read wrote %d ports", len(dev.Writes()))
	}
}
