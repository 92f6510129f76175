// file: cmd/main.go

package main

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ha1tch/piodisk/cmd/boottest"
	"github.com/ha1tch/piodisk/cmd/create"
	"github.com/ha1tch/piodisk/cmd/info"
	"github.com/ha1tch/piodisk/cmd/read"
	"github.com/ha1tch/piodisk/internal/logging"
	"github.com/ha1tch/piodisk/pkg/ata"
	"github.com/ha1tch/piodisk/pkg/boot"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose, logJSON bool

	root := &cobra.Command{
		Use:           "piodisk",
		Short:         "ATA PIO sector reader over simulated drives backed by raw disk images",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			format := logging.FormatText
			if logJSON {
				format = logging.FormatJSON
			}
			logging.SetFormat(cmd.ErrOrStderr(), format)
			if verbose {
				logging.SetLevel(slog.LevelDebug)
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log engine activity at debug level")
	root.PersistentFlags().BoolVar(&logJSON, "log-json", false, "write logs as JSON")

	root.AddCommand(newCreateCmd(), newInfoCmd(), newReadCmd(), newBootTestCmd())
	return root
}

func newCreateCmd() *cobra.Command {
	opts := create.DefaultCreateOptions()
	var pattern bool

	cmd := &cobra.Command{
		Use:   "create <image>",
		Short: "Create a raw disk image",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if pattern {
				opts.Fill = create.FillPattern
			}
			return create.Create(args[0], opts)
		},
	}
	f := cmd.Flags()
	f.Uint64Var(&opts.Sectors, "sectors", 0, "image size in sectors (0 for a 1.44MB floppy)")
	f.BoolVar(&pattern, "pattern", false, "fill every sector with its test pattern")
	f.BoolVar(&opts.Boot, "boot", false, "write the boot signature into sector 0")
	f.StringVar(&opts.Payload, "payload", "", "host file to copy into the image")
	f.Uint64Var(&opts.At, "at", opts.At, "first sector of the payload")
	f.BoolVarP(&opts.Force, "force", "f", false, "overwrite an existing image")
	f.BoolVarP(&opts.Quiet, "quiet", "q", false, "suppress output")
	return cmd
}

func newInfoCmd() *cobra.Command {
	opts := info.DefaultInfoOptions()

	cmd := &cobra.Command{
		Use:   "info <image>",
		Short: "Identify the drive backed by an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Out = cmd.OutOrStdout()
			return info.Info(args[0], opts)
		},
	}
	f := cmd.Flags()
	f.BoolVar(&opts.JSON, "json", false, "output JSON")
	f.BoolVar(&opts.Verbose, "details", false, "show drive and image details")
	f.BoolVar(&opts.LBA48, "lba48", true, "drive advertises 48-bit addressing")
	return cmd
}

func newReadCmd() *cobra.Command {
	opts := read.DefaultReadOptions()

	cmd := &cobra.Command{
		Use:   "read <image>",
		Short: "Read sectors through the PIO engine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("mode") {
				opts.Probe = false
			}
			opts.Out = cmd.OutOrStdout()
			return read.Read(args[0], opts)
		},
	}
	f := cmd.Flags()
	f.Uint64Var(&opts.LBA, "lba", opts.LBA, "first sector")
	f.StringVar(&opts.CHS, "chs", "", "cylinder/head/sector address, overrides --lba")
	f.Uint64VarP(&opts.Count, "count", "n", opts.Count, "sectors to read")
	f.Var(&modeValue{&opts.Mode}, "mode", "force lba28 or lba48 instead of probing the drive")
	f.Var(&hexValue{&opts.Hex}, "hex", "output format: auto, on or off")
	f.StringVarP(&opts.Output, "output", "o", "", "write to a file instead of stdout")
	f.IntVar(&opts.PollLimit, "poll-limit", 0, "status polls before a timeout")
	return cmd
}

func newBootTestCmd() *cobra.Command {
	opts := boottest.DefaultBootTestOptions()
	var count uint8
	var expect string

	cmd := &cobra.Command{
		Use:   "boottest <image>",
		Short: "Run the boot disk check against an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("mode") {
				opts.Probe = false
			}
			if expect != "" {
				b, err := hex.DecodeString(expect)
				if err != nil {
					return fmt.Errorf("invalid --expect: %w", err)
				}
				opts.Expect = b
			}
			opts.Count = count
			opts.Out = cmd.OutOrStdout()
			opts.Halt = func(err error) {
				fmt.Fprintf(cmd.ErrOrStderr(), "halted: code %d: %v\n", ata.ResultCode(err), err)
				os.Exit(2)
			}
			_, err := boottest.BootTest(args[0], opts)
			return err
		},
	}
	f := cmd.Flags()
	f.Uint64Var(&opts.LBA, "lba", boot.DefaultLBA, "sector to load")
	f.Uint8VarP(&count, "count", "n", 1, "sectors to load")
	f.Var(&policyValue{&opts.Policy}, "policy", "on failure: report or halt")
	f.StringVar(&expect, "expect", "", "hex bytes the sector must start with")
	f.IntVar(&opts.Retries, "retries", 0, "extra attempts after a timeout")
	f.DurationVar(&opts.Backoff, "backoff", opts.Backoff, "pause between attempts")
	f.Var(&modeValue{&opts.Mode}, "mode", "force lba28 or lba48 instead of probing the drive")
	f.IntVar(&opts.PollLimit, "poll-limit", 0, "status polls before a timeout")
	f.Var(&faultsValue{&opts.Faults}, "fault", "inject lba:code errors, code 0 for a device fault")
	f.BoolVar(&opts.StuckBusy, "stuck-busy", false, "drive never leaves BSY")
	f.BoolVar(&opts.Floating, "floating", false, "no controller on the bus")
	f.BoolVarP(&opts.Quiet, "quiet", "q", false, "suppress the report")
	return cmd
}
