package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Class is a message family. The device firmware defines the values; unknown
// classes are carried through untouched.
type Class uint8

// Message classes
const (
	ClassLog0        Class = 0x00 // Binary output logs
	ClassLog1        Class = 0x01 // High frequency binary output logs
	ClassNMEA0       Class = 0x02 // Standard NMEA sentences
	ClassNMEA1       Class = 0x03 // Proprietary NMEA sentences
	ClassThirdParty0 Class = 0x04 // Third party output formats
	ClassCmd0        Class = 0x10 // Commands and their answers
)

// Log identifiers within ClassLog0
const (
	LogStatus       uint8 = 1
	LogUTCTime      uint8 = 2
	LogIMUData      uint8 = 3
	LogMag          uint8 = 4
	LogMagCalib     uint8 = 5
	LogEKFEuler     uint8 = 6
	LogEKFQuat      uint8 = 7
	LogEKFNav       uint8 = 8
	LogShipMotion   uint8 = 9
	LogGPS1Vel      uint8 = 13
	LogGPS1Pos      uint8 = 14
	LogGPS1HDT      uint8 = 15
	LogGPS2Vel      uint8 = 16
	LogGPS2Pos      uint8 = 17
	LogGPS2HDT      uint8 = 18
	LogOdoVel       uint8 = 19
	LogEventA       uint8 = 24
	LogEventB       uint8 = 25
	LogEventC       uint8 = 26
	LogEventD       uint8 = 27
	LogEventE       uint8 = 28
	LogGPS1Raw      uint8 = 31
	LogShipMotionHP uint8 = 32
	LogPressure     uint8 = 36
	LogGPS2Raw      uint8 = 38
	LogIMURawData   uint8 = 40
)

// Command identifiers within ClassCmd0
const (
	CmdAck                uint8 = 0
	CmdSettingsAction     uint8 = 1
	CmdImportSettings     uint8 = 2
	CmdExportSettings     uint8 = 3
	CmdInfo               uint8 = 4
	CmdInitParameters     uint8 = 5
	CmdMotionProfileID    uint8 = 7
	CmdIMUAlignLeverArm   uint8 = 8
	CmdAidingAssignment   uint8 = 9
	CmdMagModelID         uint8 = 11
	CmdMagRejectMode      uint8 = 12
	CmdGNSS1ModelID       uint8 = 17
	CmdGNSS1LeverArm      uint8 = 18
	CmdGNSS1RejectModes   uint8 = 19
	CmdOdoConf            uint8 = 20
	CmdUARTConf           uint8 = 23
	CmdCANBusConf         uint8 = 24
	CmdOutputConf         uint8 = 30
	CmdAdvancedConf       uint8 = 32
	CmdFeatures           uint8 = 33
	CmdLicenseApply       uint8 = 34
	CmdOutputClassEnable  uint8 = 35
	CmdEthernetConf       uint8 = 36
	CmdEthernetInfo       uint8 = 37
	CmdValidityThresholds uint8 = 38
)

// ErrInvalidCommandID is returned when a class or message id does not fit in a byte.
var ErrInvalidCommandID = errors.New("invalid command id")

// CommandID identifies a message: (class << 8) | id.
type CommandID uint16

// NewCommandID builds a CommandID from a class and an id within that class.
func NewCommandID(class Class, id uint8) CommandID {
	return CommandID(uint16(class)<<8 | uint16(id))
}

// ParseCommandID validates untyped class and id values, e.g. from flags or a
// config file, and builds the CommandID.
func ParseCommandID(class, id int) (CommandID, error) {
	if class < 0 || class > 0xFF {
		return 0, fmt.Errorf("class %d out of range 0-255: %w", class, ErrInvalidCommandID)
	}
	if id < 0 || id > 0xFF {
		return 0, fmt.Errorf("id %d out of range 0-255: %w", id, ErrInvalidCommandID)
	}
	return NewCommandID(Class(class), uint8(id)), nil
}

// Class returns the message family.
func (c CommandID) Class() Class { return Class(c >> 8) }

// ID returns the message identifier within its class.
func (c CommandID) ID() uint8 { return uint8(c) }

// String returns "CLASS/NAME", falling back to hex for ids this build does not know.
func (c CommandID) String() string {
	return c.Class().String() + "/" + MessageName(c)
}

// String returns a human-readable class name
func (c Class) String() string {
	switch c {
	case ClassLog0:
		return "LOG_0"
	case ClassLog1:
		return "LOG_1"
	case ClassNMEA0:
		return "NMEA_0"
	case ClassNMEA1:
		return "NMEA_1"
	case ClassThirdParty0:
		return "THIRD_PARTY_0"
	case ClassCmd0:
		return "CMD_0"
	default:
		return fmt.Sprintf("0x%02x", uint8(c))
	}
}

var logNames = map[uint8]string{
	LogStatus:       "STATUS",
	LogUTCTime:      "UTC_TIME",
	LogIMUData:      "IMU_DATA",
	LogMag:          "MAG",
	LogMagCalib:     "MAG_CALIB",
	LogEKFEuler:     "EKF_EULER",
	LogEKFQuat:      "EKF_QUAT",
	LogEKFNav:       "EKF_NAV",
	LogShipMotion:   "SHIP_MOTION",
	LogGPS1Vel:      "GPS1_VEL",
	LogGPS1Pos:      "GPS1_POS",
	LogGPS1HDT:      "GPS1_HDT",
	LogGPS2Vel:      "GPS2_VEL",
	LogGPS2Pos:      "GPS2_POS",
	LogGPS2HDT:      "GPS2_HDT",
	LogOdoVel:       "ODO_VEL",
	LogEventA:       "EVENT_A",
	LogEventB:       "EVENT_B",
	LogEventC:       "EVENT_C",
	LogEventD:       "EVENT_D",
	LogEventE:       "EVENT_E",
	LogGPS1Raw:      "GPS1_RAW",
	LogShipMotionHP: "SHIP_MOTION_HP",
	LogPressure:     "PRESSURE",
	LogGPS2Raw:      "GPS2_RAW",
	LogIMURawData:   "IMU_RAW_DATA",
}

var cmdNames = map[uint8]string{
	CmdAck:                "ACK",
	CmdSettingsAction:     "SETTINGS_ACTION",
	CmdImportSettings:     "IMPORT_SETTINGS",
	CmdExportSettings:     "EXPORT_SETTINGS",
	CmdInfo:               "INFO",
	CmdInitParameters:     "INIT_PARAMETERS",
	CmdMotionProfileID:    "MOTION_PROFILE_ID",
	CmdIMUAlignLeverArm:   "IMU_ALIGNMENT_LEVER_ARM",
	CmdAidingAssignment:   "AIDING_ASSIGNMENT",
	CmdMagModelID:         "MAGNETOMETER_MODEL_ID",
	CmdMagRejectMode:      "MAGNETOMETER_REJECT_MODE",
	CmdGNSS1ModelID:       "GNSS_1_MODEL_ID",
	CmdGNSS1LeverArm:      "GNSS_1_LEVER_ARM_ALIGNMENT",
	CmdGNSS1RejectModes:   "GNSS_1_REJECT_MODES",
	CmdOdoConf:            "ODO_CONF",
	CmdUARTConf:           "UART_CONF",
	CmdCANBusConf:         "CAN_BUS_CONF",
	CmdOutputConf:         "OUTPUT_CONF",
	CmdAdvancedConf:       "ADVANCED_CONF",
	CmdFeatures:           "FEATURES",
	CmdLicenseApply:       "LICENSE_APPLY",
	CmdOutputClassEnable:  "OUTPUT_CLASS_ENABLE",
	CmdEthernetConf:       "ETHERNET_CONF",
	CmdEthernetInfo:       "ETHERNET_INFO",
	CmdValidityThresholds: "VALIDITY_THRESHOLDS",
}

// MessageName returns the name of the message within its class, or the id in
// hex when this build does not know it.
func MessageName(id CommandID) string {
	var names map[uint8]string
	switch id.Class() {
	case ClassLog0:
		names = logNames
	case ClassCmd0:
		names = cmdNames
	}
	if name, ok := names[id.ID()]; ok {
		return name
	}
	return fmt.Sprintf("0x%02x", id.ID())
}

// ParseLogID accepts a LOG_0 message name such as "EKF_EULER" (case
// insensitive, optional "LOG_0/" prefix) or a decimal id within LOG_0.
func ParseLogID(s string) (CommandID, error) {
	name := strings.TrimPrefix(strings.ToUpper(s), "LOG_0/")
	for id, n := range logNames {
		if n == name {
			return NewCommandID(ClassLog0, id), nil
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("unknown log %q: %w", s, ErrInvalidCommandID)
	}
	return ParseCommandID(int(ClassLog0), n)
}
