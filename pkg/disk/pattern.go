// file: pkg/disk/pattern.go

package disk

import "encoding/binary"

// PatternSector returns the test pattern for sector lba. The first eight
// bytes hold the LBA little-endian; the rest is a byte sequence seeded by
// it, so every sector of a pattern image is distinct.
func PatternSector(lba uint64) []byte {
	b := make([]byte, SectorSize)
	binary.LittleEndian.PutUint64(b, lba)
	seed := byte(lba*13 + lba>>8)
	for i := 8; i < SectorSize; i++ {
		b[i] = seed + byte(i*7)
	}
	return b
}

// FillPattern writes PatternSector into every sector of img.
func (img *Image) FillPattern() {
	for i := range img.Sectors {
		copy(img.Sectors[i].Data[:], PatternSector(uint64(i)))
	}
}

// Fill sets every byte of img to b.
func (img *Image) Fill(b byte) {
	for i := range img.Sectors {
		for j := range img.Sectors[i].Data {
			img.Sectors[i].Data[j] = b
		}
	}
}
