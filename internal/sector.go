package internal

// SectorSize is the size in bytes of one addressable sector.
const SectorSize = 512

// CHSToLBA converts a cylinder/head/sector address into a linear sector
// index. Sectors are numbered from 1, cylinders and heads from 0.
func CHSToLBA(cylinder, head, sector, headsPerCylinder, sectorsPerTrack int) int {
	return (cylinder*headsPerCylinder+head)*sectorsPerTrack + (sector - 1)
}

// SectorOffset returns the byte offset of sector lba in a raw image.
func SectorOffset(lba uint64) int64 {
	return int64(lba) * SectorSize
}

// SectorsToBytes returns the size in bytes of count sectors.
func SectorsToBytes(count int) int {
	return count * SectorSize
}
