package logs

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/muurk/sbgecom/internal/protocol"
	"github.com/muurk/sbgecom/internal/streambuffer"
)

// Log is a decoded telemetry record.
type Log interface {
	ID() protocol.CommandID
	String() string
}

// Message ids with a typed decoder
var (
	StatusID   = protocol.NewCommandID(protocol.ClassLog0, protocol.LogStatus)
	UTCTimeID  = protocol.NewCommandID(protocol.ClassLog0, protocol.LogUTCTime)
	IMUDataID  = protocol.NewCommandID(protocol.ClassLog0, protocol.LogIMUData)
	EKFEulerID = protocol.NewCommandID(protocol.ClassLog0, protocol.LogEKFEuler)
	EKFNavID   = protocol.NewCommandID(protocol.ClassLog0, protocol.LogEKFNav)
)

// Decode parses payload according to id.
func Decode(id protocol.CommandID, payload []byte) (Log, error) {
	var (
		l   Log
		err error
	)
	switch id {
	case StatusID:
		l, err = decodeStatus(payload)
	case UTCTimeID:
		l, err = decodeUTCTime(payload)
	case IMUDataID:
		l, err = decodeIMUData(payload)
	case EKFEulerID:
		l, err = decodeEKFEuler(payload)
	case EKFNavID:
		l, err = decodeEKFNav(payload)
	default:
		return &Unknown{MsgID: id, Payload: payload}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", id, err)
	}
	return l, nil
}

// Vector3 is an x, y, z triple in the device frame, or north, east, down.
type Vector3 [3]float32

func readVector3(r *streambuffer.Reader) (Vector3, error) {
	var v Vector3
	var errs [3]error
	for i := range v {
		v[i], errs[i] = r.ReadFloat32()
	}
	return v, errors.Join(errs[:]...)
}

// Status is the STATUS log: general, communication and aiding status masks.
type Status struct {
	TimeStamp    uint32 `json:"time_stamp"` // µs since power up
	General      uint16 `json:"general"`
	ComStatus2   uint16 `json:"com_status2"`
	ComStatus    uint32 `json:"com_status"`
	AidingStatus uint32 `json:"aiding_status"`
	Uptime       uint32 `json:"uptime"` // s, zero on firmware that does not report it
}

// General status bits
const (
	GeneralMainPowerOK   uint16 = 1 << 0
	GeneralIMUPowerOK    uint16 = 1 << 1
	GeneralGPSPowerOK    uint16 = 1 << 2
	GeneralSettingsOK    uint16 = 1 << 3
	GeneralTemperatureOK uint16 = 1 << 4
	GeneralDataLoggerOK  uint16 = 1 << 5
	GeneralCPUOK         uint16 = 1 << 6
)

func (s *Status) ID() protocol.CommandID { return StatusID }

// Healthy reports whether every power, settings and temperature bit is set.
func (s *Status) Healthy() bool {
	const want = GeneralMainPowerOK | GeneralIMUPowerOK | GeneralGPSPowerOK | GeneralSettingsOK | GeneralTemperatureOK
	return s.General&want == want
}

func (s *Status) String() string {
	return fmt.Sprintf("STATUS{t=%dus, general=0x%04x, com=0x%08x, aiding=0x%08x, uptime=%ds}",
		s.TimeStamp, s.General, s.ComStatus, s.AidingStatus, s.Uptime)
}

func decodeStatus(payload []byte) (*Status, error) {
	r := streambuffer.NewReader(payload)
	s := &Status{}
	var errs [7]error
	s.TimeStamp, errs[0] = r.ReadUint32()
	s.General, errs[1] = r.ReadUint16()
	s.ComStatus2, errs[2] = r.ReadUint16()
	s.ComStatus, errs[3] = r.ReadUint32()
	s.AidingStatus, errs[4] = r.ReadUint32()
	errs[5] = r.Skip(4 + 2) // reserved
	if err := errors.Join(errs[:6]...); err != nil {
		return nil, err
	}
	if r.Remaining() >= 4 {
		s.Uptime, errs[6] = r.ReadUint32()
	}
	return s, errs[6]
}

// UTCTime is the UTC_TIME log.
type UTCTime struct {
	TimeStamp     uint32    `json:"time_stamp"`
	Status        uint16    `json:"status"`
	Time          time.Time `json:"time"`
	GPSTimeOfWeek uint32    `json:"gps_tow"` // ms
}

// UTC status: bits 1..4 hold the clock state, bit 5 is set once UTC is valid.
const (
	utcClockStateShift = 1
	utcClockStateMask  = 0x0F
	utcValid           = 1 << 5
)

// ClockState is the device clock synchronisation state.
type ClockState uint8

const (
	ClockError ClockState = iota
	ClockFreeRunning
	ClockSteering
	ClockValid
)

func (c ClockState) String() string {
	switch c {
	case ClockError:
		return "error"
	case ClockFreeRunning:
		return "free_running"
	case ClockSteering:
		return "steering"
	case ClockValid:
		return "valid"
	default:
		return fmt.Sprintf("ClockState(%d)", uint8(c))
	}
}

func (u *UTCTime) ID() protocol.CommandID { return UTCTimeID }

// ClockState returns the clock state field of Status.
func (u *UTCTime) ClockState() ClockState {
	return ClockState((u.Status >> utcClockStateShift) & utcClockStateMask)
}

// Valid reports whether the device considers UTC valid.
func (u *UTCTime) Valid() bool { return u.Status&utcValid != 0 }

func (u *UTCTime) String() string {
	return fmt.Sprintf("UTC_TIME{%s, clock=%s, valid=%t}",
		u.Time.Format(time.RFC3339Nano), u.ClockState(), u.Valid())
}

func decodeUTCTime(payload []byte) (*UTCTime, error) {
	r := streambuffer.NewReader(payload)
	u := &UTCTime{}
	var year uint16
	var month, day, hour, minute, second uint8
	var nanos uint32
	var errs [10]error
	u.TimeStamp, errs[0] = r.ReadUint32()
	u.Status, errs[1] = r.ReadUint16()
	year, errs[2] = r.ReadUint16()
	month, errs[3] = r.ReadUint8()
	day, errs[4] = r.ReadUint8()
	hour, errs[5] = r.ReadUint8()
	minute, errs[6] = r.ReadUint8()
	second, errs[7] = r.ReadUint8()
	nanos, errs[8] = r.ReadUint32()
	u.GPSTimeOfWeek, errs[9] = r.ReadUint32()
	if err := errors.Join(errs[:]...); err != nil {
		return nil, err
	}
	u.Time = time.Date(int(year), time.Month(month), int(day), int(hour), int(minute), int(second), int(nanos), time.UTC)
	return u, nil
}

// IMUData is the IMU_DATA log.
type IMUData struct {
	TimeStamp   uint32  `json:"time_stamp"`
	Status      uint16  `json:"status"`
	Accel       Vector3 `json:"accel"`
	Gyro        Vector3 `json:"gyro"`
	Temperature float32 `json:"temperature"` // °C
	DeltaVel    Vector3 `json:"delta_vel"`
	DeltaAngle  Vector3 `json:"delta_angle"`
}

func (m *IMUData) ID() protocol.CommandID { return IMUDataID }

func (m *IMUData) String() string {
	return fmt.Sprintf("IMU_DATA{accel=%.3f, gyro=%.4f, temp=%.1fC}", m.Accel, m.Gyro, m.Temperature)
}

func decodeIMUData(payload []byte) (*IMUData, error) {
	r := streambuffer.NewReader(payload)
	m := &IMUData{}
	var errs [7]error
	m.TimeStamp, errs[0] = r.ReadUint32()
	m.Status, errs[1] = r.ReadUint16()
	m.Accel, errs[2] = readVector3(r)
	m.Gyro, errs[3] = readVector3(r)
	m.Temperature, errs[4] = r.ReadFloat32()
	m.DeltaVel, errs[5] = readVector3(r)
	m.DeltaAngle, errs[6] = readVector3(r)
	if err := errors.Join(errs[:]...); err != nil {
		return nil, err
	}
	return m, nil
}

// EKFEuler is the EKF_EULER log.
type EKFEuler struct {
	TimeStamp uint32  `json:"time_stamp"`
	Euler     Vector3 `json:"euler"` // roll, pitch, yaw
	StdDev    Vector3 `json:"std_dev"`
	Status    uint32  `json:"status"`
}

func (e *EKFEuler) ID() protocol.CommandID { return EKFEulerID }

// Degrees returns roll, pitch and yaw in degrees.
func (e *EKFEuler) Degrees() Vector3 {
	var d Vector3
	for i, v := range e.Euler {
		d[i] = float32(float64(v) * 180 / math.Pi)
	}
	return d
}

// SolutionMode returns the low four bits of Status.
func (e *EKFEuler) SolutionMode() SolutionMode { return SolutionMode(e.Status & 0x0F) }

func (e *EKFEuler) String() string {
	d := e.Degrees()
	return fmt.Sprintf("EKF_EULER{roll=%.2f, pitch=%.2f, yaw=%.2f deg, mode=%s}", d[0], d[1], d[2], e.SolutionMode())
}

func decodeEKFEuler(payload []byte) (*EKFEuler, error) {
	r := streambuffer.NewReader(payload)
	e := &EKFEuler{}
	var errs [4]error
	e.TimeStamp, errs[0] = r.ReadUint32()
	e.Euler, errs[1] = readVector3(r)
	e.StdDev, errs[2] = readVector3(r)
	e.Status, errs[3] = r.ReadUint32()
	if err := errors.Join(errs[:]...); err != nil {
		return nil, err
	}
	return e, nil
}

// SolutionMode is the Kalman filter mode carried in EKF status words.
type SolutionMode uint8

const (
	SolutionUninitialized SolutionMode = iota
	SolutionVerticalGyro
	SolutionAHRS
	SolutionNavVelocity
	SolutionNavPosition
)

func (m SolutionMode) String() string {
	switch m {
	case SolutionUninitialized:
		return "uninitialized"
	case SolutionVerticalGyro:
		return "vertical_gyro"
	case SolutionAHRS:
		return "ahrs"
	case SolutionNavVelocity:
		return "nav_velocity"
	case SolutionNavPosition:
		return "nav_position"
	default:
		return fmt.Sprintf("SolutionMode(%d)", uint8(m))
	}
}

// EKFNav is the EKF_NAV log.
type EKFNav struct {
	TimeStamp      uint32     `json:"time_stamp"`
	Velocity       Vector3    `json:"velocity"` // north, east, down
	VelocityStdDev Vector3    `json:"velocity_std_dev"`
	Position       [3]float64 `json:"position"` // latitude, longitude, altitude
	Undulation     float32    `json:"undulation"`
	PositionStdDev Vector3    `json:"position_std_dev"`
	Status         uint32     `json:"status"`
}

func (n *EKFNav) ID() protocol.CommandID { return EKFNavID }

// SolutionMode returns the low four bits of Status.
func (n *EKFNav) SolutionMode() SolutionMode { return SolutionMode(n.Status & 0x0F) }

func (n *EKFNav) String() string {
	return fmt.Sprintf("EKF_NAV{lat=%.7f, lon=%.7f, alt=%.2fm, vel=%.2f, mode=%s}",
		n.Position[0], n.Position[1], n.Position[2], n.Velocity, n.SolutionMode())
}

func decodeEKFNav(payload []byte) (*EKFNav, error) {
	r := streambuffer.NewReader(payload)
	n := &EKFNav{}
	var errs [9]error
	n.TimeStamp, errs[0] = r.ReadUint32()
	n.Velocity, errs[1] = readVector3(r)
	n.VelocityStdDev, errs[2] = readVector3(r)
	n.Position[0], errs[3] = r.ReadFloat64()
	n.Position[1], errs[4] = r.ReadFloat64()
	n.Position[2], errs[5] = r.ReadFloat64()
	n.Undulation, errs[6] = r.ReadFloat32()
	n.PositionStdDev, errs[7] = readVector3(r)
	n.Status, errs[8] = r.ReadUint32()
	if err := errors.Join(errs[:]...); err != nil {
		return nil, err
	}
	return n, nil
}

// Unknown carries a message without a typed decoder.
type Unknown struct {
	MsgID   protocol.CommandID `json:"id"`
	Payload []byte             `json:"payload"`
}

func (u *Unknown) ID() protocol.CommandID { return u.MsgID }

func (u *Unknown) String() string {
	return fmt.Sprintf("%s{%d bytes}", u.MsgID, len(u.Payload))
}
