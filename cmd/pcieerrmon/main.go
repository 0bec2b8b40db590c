package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pcieerrmon",
	Short: "PCIe hardware error monitor",
	Long: `pcieerrmon watches a Linux host for PCI Express hardware errors.

It polls each PCIe device's configuration space for Device Status and Advanced
Error Reporting (AER) register transitions, and optionally tails the kernel
log for pcieport AER events, emitting structured notifications for both.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
