package ecom

import (
	"errors"
	"fmt"
	"time"

	"github.com/muurk/sbgecom/internal/protocol"
	"github.com/muurk/sbgecom/internal/streambuffer"
)

// InfoID is the id of the device information query.
var InfoID = protocol.NewCommandID(protocol.ClassCmd0, protocol.CmdInfo)

// Version is a packed major.minor.revision.build number.
type Version uint32

// String formats the version as major.minor.revision.build
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", uint8(v>>24), uint8(v>>16), uint8(v>>8), uint8(v))
}

// MarshalText lets JSON output show the dotted form.
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// DeviceInfo identifies a device.
type DeviceInfo struct {
	ProductCode      FixedString `json:"product_code"`
	SerialNumber     uint32      `json:"serial_number"`
	CalibrationRev   uint32      `json:"calibration_rev"`
	CalibrationYear  uint16      `json:"calibration_year"`
	CalibrationMonth uint8       `json:"calibration_month"`
	CalibrationDay   uint8       `json:"calibration_day"`
	HardwareRev      Version     `json:"hardware_rev"`
	FirmwareRev      Version     `json:"firmware_rev"`
}

// CalibrationDate returns the calibration date. It reports false when the
// fields do not form a valid date, as on an uncalibrated device.
func (d *DeviceInfo) CalibrationDate() (time.Time, bool) {
	t := time.Date(int(d.CalibrationYear), time.Month(d.CalibrationMonth), int(d.CalibrationDay), 0, 0, 0, 0, time.UTC)
	y, m, day := t.Date()
	if d.CalibrationYear == 0 || y != int(d.CalibrationYear) || m != time.Month(d.CalibrationMonth) || day != int(d.CalibrationDay) {
		return time.Time{}, false
	}
	return t, true
}

// GetInfo queries the device identification into info.
func GetInfo(h *Handle, info *DeviceInfo) error {
	if h == nil {
		return newNullArgument(InfoID.String(), "handle")
	}
	if info == nil {
		return newNullArgument(InfoID.String(), "info")
	}

	payload, err := h.Call(InfoID, nil)
	if err != nil {
		return err
	}
	return wrapError(InfoID.String(), info.UnmarshalBinary(payload))
}

// UnmarshalBinary decodes an information answer.
func (d *DeviceInfo) UnmarshalBinary(payload []byte) error {
	r := streambuffer.NewReader(payload)

	var errs [8]error
	var hw, fw uint32
	errs[0] = r.ReadBuffer(d.ProductCode[:])
	d.SerialNumber, errs[1] = r.ReadUint32()
	d.CalibrationRev, errs[2] = r.ReadUint32()
	d.CalibrationYear, errs[3] = r.ReadUint16()
	d.CalibrationMonth, errs[4] = r.ReadUint8()
	d.CalibrationDay, errs[5] = r.ReadUint8()
	hw, errs[6] = r.ReadUint32()
	fw, errs[7] = r.ReadUint32()
	if err := errors.Join(errs[:]...); err != nil {
		return err
	}

	d.HardwareRev = Version(hw)
	d.FirmwareRev = Version(fw)
	return nil
}

// MarshalBinary encodes d as the device sends it.
func (d *DeviceInfo) MarshalBinary() ([]byte, error) {
	w := streambuffer.NewWriter(make([]byte, len(d.ProductCode)+20))
	err := errors.Join(
		w.WriteBuffer(d.ProductCode[:]),
		w.WriteUint32(d.SerialNumber),
		w.WriteUint32(d.CalibrationRev),
		w.WriteUint16(d.CalibrationYear),
		w.WriteUint8(d.CalibrationMonth),
		w.WriteUint8(d.CalibrationDay),
		w.WriteUint32(uint32(d.HardwareRev)),
		w.WriteUint32(uint32(d.FirmwareRev)),
	)
	if err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}
