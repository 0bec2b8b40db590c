package main

import (
	"fmt"

	"github.com/hostwatch/pcie-errmon/internal/access"
	"github.com/hostwatch/pcie-errmon/internal/color"
	"github.com/hostwatch/pcie-errmon/internal/pci"
	"github.com/hostwatch/pcie-errmon/internal/walker"
	"github.com/spf13/cobra"
)

var (
	checkBDF       string
	checkSource    string
	checkAccessDir string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check a single PCI device's capability and error status",
	Long: `Opens one device, walks its capability lists, and prints its current
Device Status and AER register state.

Example:
  pcieerrmon check --bdf 0000:01:00.0`,
	RunE: func(cmd *cobra.Command, args []string) error {
		bdf, err := pci.ParseBDF(checkBDF)
		if err != nil {
			return fmt.Errorf("invalid BDF: %w", err)
		}

		fmt.Printf("Checking device %s...\n\n", color.Bold(bdf.String()))

		backend, err := access.New(checkSource, checkAccessDir)
		if err != nil {
			return err
		}

		dev, err := backend.Open(bdf)
		if err != nil {
			return fmt.Errorf("%s", color.Failf("cannot open device: %v", err))
		}
		defer dev.Close()
		fmt.Println(color.OK("Device opened"))

		capExp, ok := walker.FindPCIExpress(dev)
		if !ok {
			fmt.Println(color.Fail("No PCI Express capability found; this is not a PCIe device"))
			return nil
		}
		fmt.Println(color.Okf("PCI Express capability at offset 0x%02x", capExp))

		status, _ := pci.ReadU16(dev, capExp+pci.DeviceStatusOffset)
		status &= pci.DeviceStatusMask
		if status == 0 {
			fmt.Println(color.OK("Device Status: clean"))
		} else {
			fmt.Println(color.Warnf("Device Status: 0x%02x", status))
			for _, bit := range pci.DeviceStatusBits {
				if status&uint16(bit.Mask) != 0 {
					fmt.Printf("  [%s] %s\n", bit.Name, bit.Desc)
				}
			}
		}

		aerOffset, ok := walker.FindAER(dev)
		if !ok {
			fmt.Println(color.Warn("No AER extended capability; only device-status polling applies"))
			return nil
		}
		fmt.Println(color.Okf("AER extended capability at offset 0x%03x", aerOffset))

		uncor, _ := pci.ReadU32(dev, aerOffset+pci.UncorrectableStatusOffset)
		if uncor == 0 {
			fmt.Println(color.OK("AER Uncorrectable Status: clean"))
		} else {
			fmt.Println(color.Warnf("AER Uncorrectable Status: 0x%08x", uncor))
			for _, bit := range pci.UncorrectableAERBits {
				if uncor&bit.Mask != 0 {
					fmt.Printf("  [%s] %s\n", bit.Name, bit.Desc)
				}
			}
		}

		cor, _ := pci.ReadU32(dev, aerOffset+pci.CorrectableStatusOffset)
		if cor == 0 {
			fmt.Println(color.OK("AER Correctable Status: clean"))
		} else {
			fmt.Println(color.Warnf("AER Correctable Status: 0x%08x", cor))
			for _, bit := range pci.CorrectableAERBits {
				if cor&bit.Mask != 0 {
					fmt.Printf("  [%s] %s\n", bit.Name, bit.Desc)
				}
			}
		}

		fmt.Printf("\n%s\n", color.Header("Check complete"))
		return nil
	},
}

func init() {
	checkCmd.Flags().StringVar(&checkBDF, "bdf", "", "device BDF address to check (required)")
	checkCmd.Flags().StringVar(&checkSource, "source", "sysfs", "access backend: sysfs or proc")
	checkCmd.Flags().StringVar(&checkAccessDir, "access-dir", "", "override the backend's default root directory")
	_ = checkCmd.MarkFlagRequired("bdf")
	rootCmd.AddCommand(checkCmd)
}
