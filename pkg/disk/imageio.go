// file: pkg/disk/imageio.go

package disk

import (
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/ha1tch/piodisk/internal/logging"
)

// LoadFromFile loads a raw image from a file.
func LoadFromFile(filename string) (*Image, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, err := Load(file)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", filename)
	}
	logging.LogDebug(logging.ComponentDisk, "loaded image", "path", filename, "sectors", img.SectorCount())
	return img, nil
}

// Load reads a raw image from an io.Reader. The data must be a whole
// number of sectors. A 1.44MB image gets the floppy geometry.
func Load(r io.Reader) (*Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading image")
	}
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	if len(data)%SectorSize != 0 {
		return nil, errors.Wrapf(ErrBadSize, "%d bytes", len(data))
	}

	img := &Image{Sectors: make([]Sector, len(data)/SectorSize)}
	for i := range img.Sectors {
		copy(img.Sectors[i].Data[:], data[i*SectorSize:])
	}
	if img.SectorCount() == Floppy144.Sectors() {
		img.Geometry = Floppy144
	}
	return img, nil
}

// SaveToFile writes the image to a file, replacing it if it exists.
func (img *Image) SaveToFile(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}

	if err := img.Save(file); err != nil {
		file.Close()
		return errors.Wrapf(err, "saving %s", filename)
	}
	return file.Close()
}

// Save writes the raw sectors to w.
func (img *Image) Save(w io.Writer) error {
	for i := range img.Sectors {
		if _, err := w.Write(img.Sectors[i].Data[:]); err != nil {
			return errors.Wrapf(err, "writing sector %d", i)
		}
	}
	return nil
}
