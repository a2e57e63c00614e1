package ecan

import (
	"errors"
	"fmt"

	"github.com/muurk/sbgecom/internal/streambuffer"
)

// Message is a decoded CAN message.
type Message interface {
	MessageID() MessageID
	String() string
}

// Scale factors of the CAN integer fields
const (
	accelScale       = 0.01   // m/s² per LSB
	gyroScale        = 0.001  // rad/s per LSB
	angleScale       = 0.0001 // rad per LSB
	temperatureScale = 0.01   // °C per LSB
)

// Decode returns the typed message carried by f. Identifiers without a
// decoder come back as *Raw.
func Decode(f Frame) (Message, error) {
	r := streambuffer.NewReader(f.Payload())
	var (
		m   Message
		err error
	)
	switch f.ID {
	case MsgStatus01:
		m, err = decodeStatus01(r)
	case MsgIMUInfo:
		m, err = decodeIMUInfo(r)
	case MsgIMUAccel:
		m, err = decodeVector(r, f.ID, accelScale)
	case MsgIMUGyro:
		m, err = decodeVector(r, f.ID, gyroScale)
	case MsgEKFEuler:
		m, err = decodeVector(r, f.ID, angleScale)
	default:
		return &Raw{Frame: f}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w: %w", f.ID, ErrShortFrame, err)
	}
	return m, nil
}

// Status01 carries the device time stamp with the general and clock status.
type Status01 struct {
	TimeStamp   uint32 `json:"time_stamp"` // µs
	General     uint16 `json:"general"`
	ClockStatus uint16 `json:"clock_status"`
}

func (s *Status01) MessageID() MessageID { return MsgStatus01 }

func (s *Status01) String() string {
	return fmt.Sprintf("STATUS_01{t=%dus, general=0x%04x, clock=0x%04x}", s.TimeStamp, s.General, s.ClockStatus)
}

func decodeStatus01(r *streambuffer.Reader) (*Status01, error) {
	s := &Status01{}
	var err1, err2, err3 error
	s.TimeStamp, err1 = r.ReadUint32()
	s.General, err2 = r.ReadUint16()
	s.ClockStatus, err3 = r.ReadUint16()
	if err := errors.Join(err1, err2, err3); err != nil {
		return nil, err
	}
	return s, nil
}

// IMUInfo carries the IMU time stamp, status and temperature.
type IMUInfo struct {
	TimeStamp   uint32  `json:"time_stamp"`
	Status      uint16  `json:"status"`
	Temperature float64 `json:"temperature"` // °C
}

func (i *IMUInfo) MessageID() MessageID { return MsgIMUInfo }

func (i *IMUInfo) String() string {
	return fmt.Sprintf("IMU_INFO{t=%dus, status=0x%04x, temp=%.2fC}", i.TimeStamp, i.Status, i.Temperature)
}

func decodeIMUInfo(r *streambuffer.Reader) (*IMUInfo, error) {
	i := &IMUInfo{}
	var temp int16
	var err1, err2, err3 error
	i.TimeStamp, err1 = r.ReadUint32()
	i.Status, err2 = r.ReadUint16()
	temp, err3 = r.ReadInt16()
	if err := errors.Join(err1, err2, err3); err != nil {
		return nil, err
	}
	i.Temperature = float64(temp) * temperatureScale
	return i, nil
}

// Vector is a scaled x, y, z triple: accelerations, rates or roll, pitch, yaw.
type Vector struct {
	ID     MessageID  `json:"-"`
	Values [3]float64 `json:"values"`
}

func (v *Vector) MessageID() MessageID { return v.ID }

func (v *Vector) String() string {
	return fmt.Sprintf("%s{%.4f, %.4f, %.4f}", v.ID, v.Values[0], v.Values[1], v.Values[2])
}

func decodeVector(r *streambuffer.Reader, id MessageID, scale float64) (*Vector, error) {
	v := &Vector{ID: id}
	var errs [3]error
	for i := range v.Values {
		var raw int16
		raw, errs[i] = r.ReadInt16()
		v.Values[i] = float64(raw) * scale
	}
	if err := errors.Join(errs[:]...); err != nil {
		return nil, err
	}
	return v, nil
}

// Raw is a frame without a decoder.
type Raw struct {
	Frame Frame
}

func (r *Raw) MessageID() MessageID { return r.Frame.ID }

func (r *Raw) String() string {
	return fmt.Sprintf("%s{% x}", r.Frame.ID, r.Frame.Payload())
}
