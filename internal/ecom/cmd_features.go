package ecom

import (
	"errors"
	"fmt"
	"strings"

	"github.com/muurk/sbgecom/internal/protocol"
	"github.com/muurk/sbgecom/internal/streambuffer"
)

// FeaturesID is the id of the features query.
var FeaturesID = protocol.NewCommandID(protocol.ClassCmd0, protocol.CmdFeatures)

// Sensor feature bits
const (
	SensorFeatureIMU  uint32 = 1 << 0
	SensorFeatureMag  uint32 = 1 << 1
	SensorFeatureGNSS uint32 = 1 << 2
)

// GNSS signal bits
const (
	SignalGPSL1     uint32 = 1 << 0
	SignalGPSL2     uint32 = 1 << 1
	SignalGPSL5     uint32 = 1 << 2
	SignalGLONASSL1 uint32 = 1 << 3
	SignalGLONASSL2 uint32 = 1 << 4
	SignalBeidouB1  uint32 = 1 << 5
	SignalBeidouB2  uint32 = 1 << 6
	SignalGalileoE1 uint32 = 1 << 7
	SignalGalileoE5 uint32 = 1 << 8
)

// GNSS capability bits
const (
	GNSSFeatureRTKLimited  uint32 = 1 << 0
	GNSSFeatureRTK         uint32 = 1 << 1
	GNSSFeaturePPP         uint32 = 1 << 2
	GNSSFeatureDualAntenna uint32 = 1 << 3
	GNSSFeatureRawData     uint32 = 1 << 4
)

// GNSSType identifies the embedded GNSS receiver.
type GNSSType uint8

const (
	GNSSTypeDisabled GNSSType = iota
	GNSSTypeExternal
	GNSSTypeUbloxGPSBeidou
	GNSSTypeUbloxGPSGlonass
	GNSSTypeNovatelOEM615
	GNSSTypeNovatelOEM615Dual
	GNSSTypeNovatelOEM617D
	GNSSTypeSeptentrioAsterx4
	GNSSTypeSeptentrioAxm2a
	GNSSTypeUbloxF9P
)

var gnssTypeNames = [...]string{
	"disabled", "external", "u-blox GPS/BeiDou", "u-blox GPS/GLONASS",
	"NovAtel OEM615", "NovAtel OEM615 dual", "NovAtel OEM617D",
	"Septentrio AsteRx4", "Septentrio AsteRx-m2a", "u-blox F9P",
}

// String returns the receiver name
func (t GNSSType) String() string {
	if int(t) < len(gnssTypeNames) {
		return gnssTypeNames[t]
	}
	return fmt.Sprintf("GNSSType(%d)", uint8(t))
}

// Features describes the sensors and GNSS receiver of a device.
type Features struct {
	SensorFeatures   uint32      `json:"sensor_features"`
	GNSSType         GNSSType    `json:"gnss_type"`
	GNSSUpdateRate   uint8       `json:"gnss_update_rate"` // Hz
	GNSSSignals      uint32      `json:"gnss_signals"`
	GNSSFeatures     uint32      `json:"gnss_features"`
	GNSSProductCode  FixedString `json:"gnss_product_code"`
	GNSSSerialNumber FixedString `json:"gnss_serial_number"`
}

// GetFeatures queries the device features into f.
func GetFeatures(h *Handle, f *Features) error {
	if h == nil {
		return newNullArgument(FeaturesID.String(), "handle")
	}
	if f == nil {
		return newNullArgument(FeaturesID.String(), "features")
	}

	payload, err := h.Call(FeaturesID, nil)
	if err != nil {
		return err
	}
	return wrapError(FeaturesID.String(), f.UnmarshalBinary(payload))
}

// UnmarshalBinary decodes a features answer.
func (f *Features) UnmarshalBinary(payload []byte) error {
	r := streambuffer.NewReader(payload)

	var errs [7]error
	f.SensorFeatures, errs[0] = r.ReadUint32()
	var gnssType uint8
	gnssType, errs[1] = r.ReadUint8()
	f.GNSSType = GNSSType(gnssType)
	f.GNSSUpdateRate, errs[2] = r.ReadUint8()
	f.GNSSSignals, errs[3] = r.ReadUint32()
	f.GNSSFeatures, errs[4] = r.ReadUint32()
	errs[5] = r.ReadBuffer(f.GNSSProductCode[:])
	errs[6] = r.ReadBuffer(f.GNSSSerialNumber[:])

	return errors.Join(errs[:]...)
}

// MarshalBinary encodes f as the device sends it.
func (f *Features) MarshalBinary() ([]byte, error) {
	w := streambuffer.NewWriter(make([]byte, 14+2*len(FixedString{})))
	err := errors.Join(
		w.WriteUint32(f.SensorFeatures),
		w.WriteUint8(uint8(f.GNSSType)),
		w.WriteUint8(f.GNSSUpdateRate),
		w.WriteUint32(f.GNSSSignals),
		w.WriteUint32(f.GNSSFeatures),
		w.WriteBuffer(f.GNSSProductCode[:]),
		w.WriteBuffer(f.GNSSSerialNumber[:]),
	)
	if err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// ProductCode returns the GNSS receiver product code.
func (f *Features) ProductCode() string {
	return f.GNSSProductCode.String()
}

// SerialNumber returns the GNSS receiver serial number.
func (f *Features) SerialNumber() string {
	return f.GNSSSerialNumber.String()
}

// SensorNames lists the sensors present.
func (f *Features) SensorNames() []string {
	return maskNames(f.SensorFeatures, []string{"IMU", "magnetometers", "GNSS"})
}

// SignalNames lists the GNSS signals tracked.
func (f *Features) SignalNames() []string {
	return maskNames(f.GNSSSignals, []string{
		"GPS L1", "GPS L2", "GPS L5", "GLONASS L1", "GLONASS L2",
		"BeiDou B1", "BeiDou B2", "Galileo E1", "Galileo E5",
	})
}

// CapabilityNames lists the GNSS options enabled.
func (f *Features) CapabilityNames() []string {
	return maskNames(f.GNSSFeatures, []string{"RTK limited", "RTK", "PPP", "dual antenna", "raw data"})
}

// String returns a one-line summary
func (f *Features) String() string {
	return fmt.Sprintf("sensors=[%s] gnss=%s@%dHz signals=[%s]",
		strings.Join(f.SensorNames(), ","), f.GNSSType, f.GNSSUpdateRate, strings.Join(f.SignalNames(), ","))
}

func maskNames(mask uint32, names []string) []string {
	var out []string
	for i, name := range names {
		if mask&(1<<i) != 0 {
			out = append(out, name)
		}
	}
	return out
}
