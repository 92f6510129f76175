// file: pkg/disk/disk.go

package disk

import (
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/ha1tch/piodisk/internal"
)

// SectorSize is the size of every sector in an image.
const SectorSize = internal.SectorSize

// Sector represents a 512-byte sector on the disk.
type Sector struct {
	Data [SectorSize]byte
}

// Geometry is the cylinder/head/sector layout an image was created for.
type Geometry struct {
	Cylinders       int // Number of cylinders
	Heads           int // Heads per cylinder
	SectorsPerTrack int // Sectors per track
}

// Floppy144 is the 3.5" 1.44MB layout: 80 cylinders, 2 heads, 18 sectors.
var Floppy144 = Geometry{Cylinders: 80, Heads: 2, SectorsPerTrack: 18}

// Sectors returns the total number of sectors the geometry describes.
func (g Geometry) Sectors() uint64 {
	return uint64(g.Cylinders * g.Heads * g.SectorsPerTrack)
}

// Image is a raw disk image held in memory: a flat array of sectors
// addressed by LBA.
type Image struct {
	Sectors  []Sector
	Geometry Geometry // zero when the image has no CHS layout
}

// NewImage returns a zero-filled image of the given number of sectors.
func NewImage(sectors uint64) (*Image, error) {
	if sectors == 0 {
		return nil, ErrEmptyImage
	}
	return &Image{Sectors: make([]Sector, sectors)}, nil
}

// NewImageWithGeometry returns a zero-filled image sized for g.
func NewImageWithGeometry(g Geometry) (*Image, error) {
	img, err := NewImage(g.Sectors())
	if err != nil {
		return nil, err
	}
	img.Geometry = g
	return img, nil
}

// SectorCount returns the number of sectors in the image.
func (img *Image) SectorCount() uint64 {
	return uint64(len(img.Sectors))
}

// Size returns the image size in bytes.
func (img *Image) Size() int64 {
	return internal.SectorOffset(img.SectorCount())
}

// ReadSector copies sector lba into dst.
func (img *Image) ReadSector(lba uint64, dst []byte) error {
	if lba >= img.SectorCount() {
		return errors.Wrapf(ErrOutOfRange, "lba %d of %d", lba, img.SectorCount())
	}
	if len(dst) < SectorSize {
		return errors.Wrapf(ErrShortBuffer, "%d bytes", len(dst))
	}
	copy(dst, img.Sectors[lba].Data[:])
	return nil
}

// WriteSector replaces sector lba with the first 512 bytes of src.
func (img *Image) WriteSector(lba uint64, src []byte) error {
	if lba >= img.SectorCount() {
		return errors.Wrapf(ErrOutOfRange, "lba %d of %d", lba, img.SectorCount())
	}
	if len(src) < SectorSize {
		return errors.Wrapf(ErrShortBuffer, "%d bytes", len(src))
	}
	copy(img.Sectors[lba].Data[:], src)
	return nil
}

// CHS converts a cylinder/head/sector address to an LBA using the
// image's geometry.
func (img *Image) CHS(cylinder, head, sector int) (uint64, error) {
	g := img.Geometry
	if g.SectorsPerTrack == 0 {
		return 0, ErrNoGeometry
	}
	if cylinder < 0 || cylinder >= g.Cylinders || head < 0 || head >= g.Heads ||
		sector < 1 || sector > g.SectorsPerTrack {
		return 0, errors.Wrapf(ErrOutOfRange, "chs %d/%d/%d", cylinder, head, sector)
	}
	return uint64(internal.CHSToLBA(cylinder, head, sector, g.Heads, g.SectorsPerTrack)), nil
}

// PrintDetails writes a short description of the image to w.
func (img *Image) PrintDetails(w io.Writer) {
	fmt.Fprintf(w, "Sectors:     %d\n", img.SectorCount())
	fmt.Fprintf(w, "Sector Size: %d bytes\n", SectorSize)
	fmt.Fprintf(w, "Size:        %dK\n", img.Size()/1024)
	if g := img.Geometry; g.SectorsPerTrack != 0 {
		fmt.Fprintf(w, "Geometry:    %d/%d/%d (C/H/S)\n", g.Cylinders, g.Heads, g.SectorsPerTrack)
	}
}
