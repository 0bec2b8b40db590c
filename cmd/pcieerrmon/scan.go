package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/hostwatch/pcie-errmon/internal/access"
	"github.com/hostwatch/pcie-errmon/internal/pci"
	"github.com/hostwatch/pcie-errmon/internal/walker"
	"github.com/spf13/cobra"
)

var (
	scanSource    string
	scanAccessDir string
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan and list PCI devices with PCI Express/AER capability status",
	Long:  "Enumerates PCI devices via the configured access backend and shows which ones have a PCI Express capability and an AER extended capability.",
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, err := access.New(scanSource, scanAccessDir)
		if err != nil {
			return err
		}

		bdfs, err := backend.Enumerate()
		if err != nil {
			return fmt.Errorf("failed to enumerate devices: %w", err)
		}

		db := pci.LoadPCIDB()

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for _, bdf := range bdfs {
			dev, err := backend.Open(bdf)
			if err != nil {
				fmt.Fprintf(w, "%s\t-\terror: %v\n", bdf.String(), err)
				continue
			}

			vendorID, _ := pci.ReadU16(dev, 0x00)
			deviceID, _ := pci.ReadU16(dev, 0x02)
			name := fmt.Sprintf("%s %s", db.VendorName(vendorID), db.DeviceName(vendorID, deviceID))

			capStr := "no-pcie"
			aerStr := "-"
			if _, ok := walker.FindPCIExpress(dev); ok {
				capStr = "pcie"
				if _, ok := walker.FindAER(dev); ok {
					aerStr = "aer"
				} else {
					aerStr = "no-aer"
				}
			}

			dev.Close()
			fmt.Fprintf(w, "%s\t[%04x:%04x]\t%s\t%s\t%s\n", bdf.String(), vendorID, deviceID, name, capStr, aerStr)
		}
		w.Flush()

		fmt.Printf("\nTotal: %d devices\n", len(bdfs))
		return nil
	},
}

func init() {
	scanCmd.Flags().StringVar(&scanSource, "source", "sysfs", "access backend: sysfs or proc")
	scanCmd.Flags().StringVar(&scanAccessDir, "access-dir", "", "override the backend's default root directory")
	rootCmd.AddCommand(scanCmd)
}
