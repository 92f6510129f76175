// file: cmd/flags.go

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/ha1tch/piodisk/cmd/boottest"
	"github.com/ha1tch/piodisk/cmd/read"
	"github.com/ha1tch/piodisk/pkg/ata"
	"github.com/ha1tch/piodisk/pkg/boot"
)

var (
	_ pflag.Value = (*modeValue)(nil)
	_ pflag.Value = (*policyValue)(nil)
	_ pflag.Value = (*hexValue)(nil)
	_ pflag.Value = (*faultsValue)(nil)
)

// modeValue is an address mode flag: lba28 or lba48.
type modeValue struct{ mode *ata.AddressMode }

func (v *modeValue) String() string {
	if v.mode == nil {
		return ata.LBA28.String()
	}
	return v.mode.String()
}

func (v *modeValue) Set(s string) error {
	m, err := ata.ParseAddressMode(s)
	if err != nil {
		return err
	}
	*v.mode = m
	return nil
}

func (v *modeValue) Type() string { return "mode" }

// policyValue is a failure policy flag: report or halt.
type policyValue struct{ policy *boot.Policy }

func (v *policyValue) String() string {
	if v.policy == nil {
		return boot.PolicyReport.String()
	}
	return v.policy.String()
}

func (v *policyValue) Set(s string) error {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "report":
		*v.policy = boot.PolicyReport
	case "halt":
		*v.policy = boot.PolicyHalt
	default:
		return fmt.Errorf("unknown policy %q (want report or halt)", s)
	}
	return nil
}

func (v *policyValue) Type() string { return "policy" }

// hexValue selects the read output format: auto, on or off.
type hexValue struct{ mode *read.HexMode }

func (v *hexValue) String() string {
	if v.mode == nil {
		return "auto"
	}
	switch *v.mode {
	case read.HexOn:
		return "on"
	case read.HexOff:
		return "off"
	}
	return "auto"
}

func (v *hexValue) Set(s string) error {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "auto":
		*v.mode = read.HexAuto
	case "on", "true":
		*v.mode = read.HexOn
	case "off", "false", "raw":
		*v.mode = read.HexOff
	default:
		return fmt.Errorf("unknown hex mode %q (want auto, on or off)", s)
	}
	return nil
}

func (v *hexValue) Type() string { return "hex" }

// faultsValue collects lba:code pairs. The code accepts any base
// strconv understands, so 0x40 works.
type faultsValue struct{ faults *[]boottest.Fault }

func (v *faultsValue) String() string {
	if v.faults == nil || len(*v.faults) == 0 {
		return "[]"
	}
	parts := make([]string, len(*v.faults))
	for i, f := range *v.faults {
		parts[i] = fmt.Sprintf("%d:%#02x", f.LBA, f.Code)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func (v *faultsValue) Set(s string) error {
	for _, item := range strings.Split(s, ",") {
		lbaStr, codeStr, ok := strings.Cut(strings.TrimSpace(item), ":")
		if !ok {
			return fmt.Errorf("invalid fault %q (want lba:code)", item)
		}
		lba, err := strconv.ParseUint(lbaStr, 0, 64)
		if err != nil {
			return fmt.Errorf("invalid fault lba %q: %w", lbaStr, err)
		}
		code, err := strconv.ParseUint(codeStr, 0, 8)
		if err != nil {
			return fmt.Errorf("invalid fault code %q: %w", codeStr, err)
		}
		*v.faults = append(*v.faults, boottest.Fault{LBA: lba, Code: byte(code)})
	}
	return nil
}

func (v *faultsValue) Type() string { return "faults" }
