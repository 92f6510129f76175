// file: cmd/create/create.go

package create

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ha1tch/piodisk/pkg/disk"
)

// FillType specifies what the new image's sectors contain
type FillType int

const (
	// FillZero leaves every sector zeroed (default)
	FillZero FillType = iota
	// FillPattern writes the per-sector test pattern
	FillPattern
)

// CreateOptions configures the image creation
type CreateOptions struct {
	Sectors uint64   // Image size in sectors; 0 means a 1.44MB floppy
	Fill    FillType // Initial sector contents
	Boot    bool     // Write the 0x55AA boot signature into sector 0
	Payload string   // Optional host file copied into the image
	At      uint64   // First sector of the payload
	Force   bool     // Overwrite existing file
	Quiet   bool     // Suppress non-error output
}

// DefaultCreateOptions returns default options for Create
func DefaultCreateOptions() *CreateOptions {
	return &CreateOptions{
		Sectors: 0,
		Fill:    FillZero,
		Boot:    false,
		Payload: "",
		At:      33,
		Force:   false,
		Quiet:   false,
	}
}

// BootSignature is the marker BIOSes look for at the end of sector 0.
var BootSignature = [2]byte{0x55, 0xAA}

// Create creates a new raw disk image
func Create(outPath string, opts *CreateOptions) error {
	if opts == nil {
		opts = DefaultCreateOptions()
	}

	outPath = filepath.Clean(outPath)

	if !opts.Force {
		if _, err := os.Stat(outPath); err == nil {
			return fmt.Errorf("file already exists: %s (use force to overwrite)", outPath)
		}
	}

	if dir := filepath.Dir(outPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	var img *disk.Image
	var err error
	if opts.Sectors == 0 {
		img, err = disk.NewImageWithGeometry(disk.Floppy144)
	} else {
		img, err = disk.NewImage(opts.Sectors)
	}
	if err != nil {
		return fmt.Errorf("failed to create disk image: %w", err)
	}

	if opts.Fill == FillPattern {
		img.FillPattern()
	}

	if opts.Boot {
		if err := setupBootSector(img); err != nil {
			return fmt.Errorf("failed to set up boot sector: %w", err)
		}
	}

	if opts.Payload != "" {
		if err := writePayload(img, opts.Payload, opts.At); err != nil {
			return fmt.Errorf("failed to write payload: %w", err)
		}
	}

	if err := img.SaveToFile(outPath); err != nil {
		os.Remove(outPath)
		return fmt.Errorf("failed to save disk image: %w", err)
	}

	if err := verifyDiskImage(outPath, img.SectorCount(), opts.Boot); err != nil {
		os.Remove(outPath)
		return fmt.Errorf("disk image verification failed: %w", err)
	}

	if !opts.Quiet {
		fmt.Printf("Created %d sector disk image: %s\n", img.SectorCount(), outPath)
		if opts.Boot {
			fmt.Println("Disk is bootable")
		}
		if opts.Payload != "" {
			fmt.Printf("Payload %s at LBA %d\n", opts.Payload, opts.At)
		}
	}

	return nil
}

// setupBootSector marks sector 0 as bootable
func setupBootSector(img *disk.Image) error {
	sector := make([]byte, disk.SectorSize)
	if err := img.ReadSector(0, sector); err != nil {
		return err
	}
	sector[510] = BootSignature[0]
	sector[511] = BootSignature[1]
	return img.WriteSector(0, sector)
}

// writePayload copies a host file into consecutive sectors starting at lba
func writePayload(img *disk.Image, path string, lba uint64) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	sectors := uint64((len(data) + disk.SectorSize - 1) / disk.SectorSize)
	if lba+sectors > img.SectorCount() {
		return fmt.Errorf("payload of %d bytes does not fit at lba %d", len(data), lba)
	}

	for i := uint64(0); i < sectors; i++ {
		sector := make([]byte, disk.SectorSize)
		copy(sector, data[i*disk.SectorSize:])
		if err := img.WriteSector(lba+i, sector); err != nil {
			return err
		}
	}
	return nil
}

// HasBootSignature reports whether sector 0 carries the boot signature
func HasBootSignature(img *disk.Image) bool {
	if img.SectorCount() == 0 {
		return false
	}
	s := img.Sectors[0].Data
	return s[510] == BootSignature[0] && s[511] == BootSignature[1]
}

// verifyDiskImage checks the written image reloads with the expected layout
func verifyDiskImage(path string, sectors uint64, boot bool) error {
	img, err := disk.LoadFromFile(path)
	if err != nil {
		return err
	}
	if img.SectorCount() != sectors {
		return fmt.Errorf("expected %d sectors, found %d", sectors, img.SectorCount())
	}
	if boot && !HasBootSignature(img) {
		return fmt.Errorf("boot signature missing")
	}
	return nil
}
