// file: cmd/info/info.go

package info

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ha1tch/piodisk/cmd/create"
	"github.com/ha1tch/piodisk/pkg/ata"
	"github.com/ha1tch/piodisk/pkg/ata/sim"
	"github.com/ha1tch/piodisk/pkg/disk"
)

// DiskInfo represents disk information in a structured format
type DiskInfo struct {
	Path     string    `json:"path"`
	Sectors  uint64    `json:"sectors"`
	Size     int64     `json:"size"`
	Geometry string    `json:"geometry,omitempty"`
	Bootable bool      `json:"bootable"`
	Model    string    `json:"model"`
	Serial   string    `json:"serial"`
	Firmware string    `json:"firmware"`
	Mode     string    `json:"address_mode"`
	Modified time.Time `json:"modified_time,omitempty"`
}

// InfoOptions configures the information display
type InfoOptions struct {
	JSON    bool      // Output in JSON format
	Verbose bool      // Show additional details
	LBA48   bool      // Simulated drive supports LBA48
	Out     io.Writer // Destination; nil means stdout
}

// DefaultInfoOptions returns default options for Info
func DefaultInfoOptions() *InfoOptions {
	return &InfoOptions{
		JSON:    false,
		Verbose: false,
		LBA48:   true,
	}
}

// Info attaches the image to a simulated drive, identifies it over PIO
// and displays the result
func Info(diskPath string, opts *InfoOptions) error {
	if opts == nil {
		opts = DefaultInfoOptions()
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	if _, err := os.Stat(diskPath); os.IsNotExist(err) {
		return fmt.Errorf("disk image does not exist: %w", err)
	}

	img, err := disk.LoadFromFile(diskPath)
	if err != nil {
		return fmt.Errorf("failed to open disk: %w", err)
	}

	cfg := sim.DefaultConfig()
	cfg.LBA48 = opts.LBA48
	id, err := ata.Identify(sim.New(img, cfg), cfg.Bus, ata.Master, nil)
	if err != nil {
		return fmt.Errorf("failed to identify drive: %w", err)
	}

	info := &DiskInfo{
		Path:     diskPath,
		Sectors:  id.Sectors(),
		Size:     img.Size(),
		Bootable: create.HasBootSignature(img),
		Model:    id.Model,
		Serial:   id.Serial,
		Firmware: id.Firmware,
		Mode:     id.Mode().String(),
	}
	if g := img.Geometry; g.SectorsPerTrack != 0 {
		info.Geometry = fmt.Sprintf("%d/%d/%d", g.Cylinders, g.Heads, g.SectorsPerTrack)
	}
	if stat, err := os.Stat(diskPath); err == nil {
		info.Modified = stat.ModTime()
	}

	if opts.JSON {
		return outputJSON(out, info)
	}
	return outputText(out, info, img, opts)
}

// outputJSON writes disk information in JSON format
func outputJSON(w io.Writer, info *DiskInfo) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(info)
}

// outputText writes disk information in human-readable format
func outputText(w io.Writer, info *DiskInfo, img *disk.Image, opts *InfoOptions) error {
	fmt.Fprintf(w, "Disk Image: %s\n\n", info.Path)
	fmt.Fprintf(w, "Model:      %s\n", info.Model)
	fmt.Fprintf(w, "Sectors:    %d\n", info.Sectors)
	fmt.Fprintf(w, "Size:       %dK\n", info.Size/1024)
	fmt.Fprintf(w, "Addressing: %s\n", info.Mode)
	fmt.Fprintf(w, "Bootable:   %v\n", info.Bootable)

	if !info.Modified.IsZero() {
		fmt.Fprintf(w, "Modified:   %s\n", info.Modified.Format(time.RFC1123))
	}

	if opts.Verbose {
		fmt.Fprintf(w, "\nDrive:\n")
		fmt.Fprintf(w, "Serial:     %s\n", info.Serial)
		fmt.Fprintf(w, "Firmware:   %s\n", info.Firmware)
		fmt.Fprintf(w, "\nImage:\n")
		img.PrintDetails(w)
	}

	return nil
}
