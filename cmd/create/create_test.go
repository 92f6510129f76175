// file: cmd/create/create_test.go

package create

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/ha1tch/piodisk/pkg/disk"
)

func TestCreate(t *testing.T) {
	tmpDir := t.TempDir()
	outPath := filepath.Join(tmpDir, "test.img")

	if err := Create(outPath, &CreateOptions{Quiet: true}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	stat, err := os.Stat(outPath)
	if err != nil {
		t.Fatalf("Output file not created: %v", err)
	}
	if stat.Size() != 1474560 {
		t.Errorf("Default image size = %d, want 1474560", stat.Size())
	}

	nestedPath := filepath.Join(tmpDir, "sub", "nested.img")
	if err := Create(nestedPath, &CreateOptions{Sectors: 16, Quiet: true}); err != nil {
		t.Errorf("Create with nested path failed: %v", err)
	}

	if err := Create(outPath, &CreateOptions{Quiet: true}); err == nil {
		t.Error("Create overwrote an existing file without force")
	}
	if err := Create(outPath, &CreateOptions{Sectors: 8, Force: true, Quiet: true}); err != nil {
		t.Errorf("Create with force failed: %v", err)
	}
}

func TestCreateBootAndPattern(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "boot.img")

	opts := &CreateOptions{Sectors: 64, Fill: FillPattern, Boot: true, Quiet: true}
	if err := Create(outPath, opts); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	img, err := disk.LoadFromFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	if !HasBootSignature(img) {
		t.Error("Boot signature missing")
	}

	got := make([]byte, disk.SectorSize)
	img.ReadSector(33, got)
	if !bytes.Equal(got, disk.PatternSector(33)) {
		t.Error("Pattern missing from sector 33")
	}
}

func TestCreatePayload(t *testing.T) {
	tmpDir := t.TempDir()
	payload := filepath.Join(tmpDir, "kernel.bin")
	data := bytes.Repeat([]byte("KERNEL"), 100) // 600 bytes, two sectors
	if err := os.WriteFile(payload, data, 0644); err != nil {
		t.Fatal(err)
	}

	outPath := filepath.Join(tmpDir, "payload.img")
	opts := &CreateOptions{Sectors: 64, Payload: payload, At: 33, Quiet: true}
	if err := Create(outPath, opts); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	img, _ := disk.LoadFromFile(outPath)
	buf := make([]byte, 2*disk.SectorSize)
	img.ReadSector(33, buf[:disk.SectorSize])
	img.ReadSector(34, buf[disk.SectorSize:])
	if !bytes.Equal(buf[:len(data)], data) {
		t.Error("Payload content mismatch")
	}

	opts.At = 63
	opts.Force = true
	if err := Create(outPath, opts); err == nil {
		t.Error("Payload past the end of the image was accepted")
	}
}
