package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/sbgecom/internal/discovery"
	"github.com/muurk/sbgecom/internal/ui"
)

var (
	scanTimeout time.Duration
	scanService string
)

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().DurationVar(&scanTimeout, "scan-timeout", discovery.DefaultScanTimeout, "How long to listen for announcements")
	scanCmd.Flags().StringVar(&scanService, "service", "", "DNS-SD service type to browse (default _http._tcp)")
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Find Ethernet units on the local network",
	Long: `Find Ethernet units using mDNS/DNS-SD.

Units announce their web interface with a hostname made of the product family
and serial number (e.g. ekinox-045000123.local). Each unit found is listed
with the --udp-remote address to use with the other commands.`,
	Example: `  sbgecom scan
  sbgecom scan --scan-timeout 10s --format json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		scanner := discovery.NewScanner()
		scanner.Timeout = scanTimeout
		if scanService != "" {
			scanner.ServiceType = scanService
		}

		if opts.format == formatDetailed {
			newPrinter(cmd).PrintHeader(ui.NewHeader("Device scan", cmd.CommandPath(),
				ui.Field{Key: "Timeout", Value: scanTimeout.String()}))
		}

		devices, err := scanner.ScanForDevicesWithContext(cmd.Context())
		if err != nil {
			return fail(cmd, "Device scan", err)
		}

		if opts.format == formatJSON {
			return printJSON(cmd.OutOrStdout(), devices)
		}

		p := newPrinter(cmd)
		if len(devices) == 0 {
			p.PrintResult(ui.NewWarningResult("no devices found",
				ui.Field{Key: "Hint", Value: "check the unit is on this subnet and mDNS is not filtered"},
				ui.Field{Key: "Hint", Value: "try a longer --scan-timeout"}))
			return nil
		}
		for _, d := range devices {
			p.PrintTable(d.Hostname, []ui.Field{
				{Key: "Family", Value: d.Family},
				{Key: "Serial", Value: d.Serial},
				{Key: "Address", Value: d.IP},
				{Key: "Web", Value: d.BaseURL()},
				{Key: "Connect", Value: fmt.Sprintf("--udp-remote %s --udp-local :%d", d.UDPAddr(), d.ListenPort())},
			})
		}
		return nil
	},
}
