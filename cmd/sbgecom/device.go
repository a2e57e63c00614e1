package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/muurk/sbgecom/internal/ecom"
	"github.com/muurk/sbgecom/internal/protocol"
	"github.com/muurk/sbgecom/internal/ui"
)

func init() {
	rootCmd.AddCommand(featuresCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(outputCmd)

	outputCmd.AddCommand(outputGetCmd)
	outputCmd.AddCommand(outputSetCmd)
}

var featuresCmd = &cobra.Command{
	Use:   "features",
	Short: "Show the sensors and GNSS receiver of the device",
	Example: `  sbgecom features --port /dev/ttyUSB0
  sbgecom features --udp-remote 192.168.1.1:1234 --udp-local :1235 --format json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, "Device features", func(s *session) error {
			var f ecom.Features
			if err := ecom.GetFeatures(s.Handle, &f); err != nil {
				return err
			}
			if opts.format == formatJSON {
				return printJSON(cmd.OutOrStdout(), f)
			}
			newPrinter(cmd).PrintTable("Features", featureRows(&f))
			return nil
		})
	},
}

func featureRows(f *ecom.Features) []ui.Field {
	list := func(names []string) string {
		if len(names) == 0 {
			return "none"
		}
		return strings.Join(names, ", ")
	}
	return []ui.Field{
		{Key: "Sensors", Value: list(f.SensorNames())},
		{Key: "GNSS receiver", Value: f.GNSSType.String()},
		{Key: "GNSS rate", Value: fmt.Sprintf("%d Hz", f.GNSSUpdateRate)},
		{Key: "GNSS signals", Value: list(f.SignalNames())},
		{Key: "GNSS options", Value: list(f.CapabilityNames())},
		{Key: "GNSS product", Value: f.ProductCode()},
		{Key: "GNSS serial", Value: f.SerialNumber()},
	}
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the device identification",
	Long: `Query the product code, serial number, calibration and revisions.

When the connection came from a configuration profile, the product code and
serial number are stored in that profile.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, "Device information", func(s *session) error {
			var info ecom.DeviceInfo
			if err := ecom.GetInfo(s.Handle, &info); err != nil {
				return err
			}
			s.rememberDevice(info.ProductCode.String(), fmt.Sprint(info.SerialNumber))

			if opts.format == formatJSON {
				return printJSON(cmd.OutOrStdout(), info)
			}
			newPrinter(cmd).PrintTable("Information", []ui.Field{
				{Key: "Product", Value: info.ProductCode.String()},
				{Key: "Serial number", Value: fmt.Sprint(info.SerialNumber)},
				{Key: "Calibration", Value: calibrationText(&info)},
				{Key: "Hardware", Value: info.HardwareRev.String()},
				{Key: "Firmware", Value: info.FirmwareRev.String()},
			})
			return nil
		})
	},
}

func calibrationText(info *ecom.DeviceInfo) string {
	date, ok := info.CalibrationDate()
	if !ok {
		return fmt.Sprintf("rev %d, no date", info.CalibrationRev)
	}
	return fmt.Sprintf("rev %d, %s", info.CalibrationRev, date.Format("2006-01-02"))
}

var settingsCmd = &cobra.Command{
	Use:       "settings save|restore|reboot",
	Short:     "Save, restore or reboot the device settings",
	ValidArgs: []string{"save", "restore", "reboot"},
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	Example: `  # Persist the current configuration to flash
  sbgecom settings save

  # Restore factory settings
  sbgecom settings restore --profile lab`,
	RunE: func(cmd *cobra.Command, args []string) error {
		action, err := ecom.ParseSettingsAction(args[0])
		if err != nil {
			return err
		}
		return withSession(cmd, "Settings action", func(s *session) error {
			if err := ecom.ApplySettingsAction(s.Handle, action); err != nil {
				return err
			}
			return report(cmd, "settings "+action.String(), map[string]any{"action": action.String()},
				ui.Field{Key: "Action", Value: action.String()})
		})
	},
}

var outputCmd = &cobra.Command{
	Use:   "output",
	Short: "Read or change the output rate of a log",
}

var outputGetCmd = &cobra.Command{
	Use:   "get PORT LOG",
	Short: "Show the output mode of a log on a port (A, C or E)",
	Example: `  sbgecom output get A EKF_EULER`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		port, log, err := parseOutputTarget(args[0], args[1])
		if err != nil {
			return err
		}
		return withSession(cmd, "Output configuration", func(s *session) error {
			mode, err := ecom.GetOutputConf(s.Handle, port, log)
			if err != nil {
				return err
			}
			return report(cmd, "output read",
				map[string]any{"port": port.String(), "log": log.String(), "mode": mode.String()},
				ui.Field{Key: "Port", Value: port.String()},
				ui.Field{Key: "Log", Value: log.String()},
				ui.Field{Key: "Mode", Value: mode.String()})
		})
	},
}

var outputSetCmd = &cobra.Command{
	Use:   "set PORT LOG MODE",
	Short: "Change the output mode of a log on a port",
	Long: `Change the output mode of a log on a port.

MODE is a rate in Hz that divides the 200 Hz main loop (e.g. 50), a divider
(div:4) or a trigger: disabled, pps, new_data, event_a, event_b.

The change is applied immediately but lost at reboot unless followed by
'sbgecom settings save'.`,
	Example: `  sbgecom output set A EKF_EULER 50
  sbgecom output set C IMU_DATA disabled`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		port, log, err := parseOutputTarget(args[0], args[1])
		if err != nil {
			return err
		}
		mode, err := ecom.ParseOutputMode(args[2])
		if err != nil {
			return err
		}
		return withSession(cmd, "Output configuration", func(s *session) error {
			if err := ecom.SetOutputConf(s.Handle, port, log, mode); err != nil {
				return err
			}
			return report(cmd, "output changed",
				map[string]any{"port": port.String(), "log": log.String(), "mode": mode.String()},
				ui.Field{Key: "Port", Value: port.String()},
				ui.Field{Key: "Log", Value: log.String()},
				ui.Field{Key: "Mode", Value: mode.String()})
		})
	},
}

func parseOutputTarget(portArg, logArg string) (ecom.OutputPort, protocol.CommandID, error) {
	port, err := ecom.ParseOutputPort(strings.ToUpper(portArg))
	if err != nil {
		return 0, 0, err
	}
	log, err := protocol.ParseLogID(logArg)
	if err != nil {
		return 0, 0, err
	}
	return port, log, nil
}

// report prints a success box, or v as JSON.
func report(cmd *cobra.Command, title string, v any, details ...ui.Field) error {
	if opts.format == formatJSON {
		return printJSON(cmd.OutOrStdout(), v)
	}
	newPrinter(cmd).PrintResult(ui.NewSuccessResult(title, details...))
	return nil
}
