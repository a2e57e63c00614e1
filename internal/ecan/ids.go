// Package ecan decodes the CAN bus output of a device.
//
// On CAN the device sends fixed 11-bit identifiers, each carrying up to eight
// bytes of little-endian scaled integers. Frames are read from candump log
// lines with ParseCandump and turned into typed messages with Decode.
package ecan

import "fmt"

// MessageID is a default CAN identifier of a device output message.
type MessageID uint16

const (
	MsgStatus01          MessageID = 0x100
	MsgStatus02          MessageID = 0x101
	MsgStatus03          MessageID = 0x102
	MsgUTC0              MessageID = 0x110
	MsgUTC1              MessageID = 0x111
	MsgIMUInfo           MessageID = 0x120
	MsgIMUAccel          MessageID = 0x121
	MsgIMUGyro           MessageID = 0x122
	MsgIMUDeltaVel       MessageID = 0x123
	MsgIMUDeltaAngle     MessageID = 0x124
	MsgEKFInfo           MessageID = 0x130
	MsgEKFQuat           MessageID = 0x131
	MsgEKFEuler          MessageID = 0x132
	MsgEKFOrientationAcc MessageID = 0x133
	MsgEKFPos            MessageID = 0x134
	MsgEKFAltitude       MessageID = 0x135
	MsgEKFPosAcc         MessageID = 0x136
	MsgEKFVel            MessageID = 0x137
	MsgEKFVelAcc         MessageID = 0x138
	MsgShipMotionInfo    MessageID = 0x140
	MsgShipMotion00      MessageID = 0x141
	MsgShipMotion01      MessageID = 0x145
	MsgShipMotion02      MessageID = 0x149
	MsgMag0              MessageID = 0x150
	MsgMag1              MessageID = 0x151
	MsgMag2              MessageID = 0x152
	MsgOdoInfo           MessageID = 0x160
	MsgOdoVel            MessageID = 0x161
	MsgPressureInfo      MessageID = 0x162
	MsgPressureAltitude  MessageID = 0x163
	MsgGPS1VelInfo       MessageID = 0x170
	MsgGPS1Vel           MessageID = 0x171
	MsgGPS1VelAcc        MessageID = 0x172
	MsgGPS1VelCourse     MessageID = 0x173
	MsgGPS1PosInfo       MessageID = 0x174
	MsgGPS1Pos           MessageID = 0x175
	MsgGPS1PosAlt        MessageID = 0x176
	MsgGPS1PosAcc        MessageID = 0x177
	MsgGPS1HDTInfo       MessageID = 0x178
	MsgGPS1HDT           MessageID = 0x179
	MsgEventInfoA        MessageID = 0x200
	MsgEventTimeA        MessageID = 0x201
	MsgEventInfoB        MessageID = 0x202
	MsgEventTimeB        MessageID = 0x203
	MsgEventInfoC        MessageID = 0x204
	MsgEventTimeC        MessageID = 0x205
	MsgEventInfoD        MessageID = 0x206
	MsgEventTimeD        MessageID = 0x207
)

var messageNames = map[MessageID]string{
	MsgStatus01:          "STATUS_01",
	MsgStatus02:          "STATUS_02",
	MsgStatus03:          "STATUS_03",
	MsgUTC0:              "UTC_0",
	MsgUTC1:              "UTC_1",
	MsgIMUInfo:           "IMU_INFO",
	MsgIMUAccel:          "IMU_ACCEL",
	MsgIMUGyro:           "IMU_GYRO",
	MsgIMUDeltaVel:       "IMU_DELTA_VEL",
	MsgIMUDeltaAngle:     "IMU_DELTA_ANGLE",
	MsgEKFInfo:           "EKF_INFO",
	MsgEKFQuat:           "EKF_QUAT",
	MsgEKFEuler:          "EKF_EULER",
	MsgEKFOrientationAcc: "EKF_ORIENTATION_ACC",
	MsgEKFPos:            "EKF_POS",
	MsgEKFAltitude:       "EKF_ALTITUDE",
	MsgEKFPosAcc:         "EKF_POS_ACC",
	MsgEKFVel:            "EKF_VEL",
	MsgEKFVelAcc:         "EKF_VEL_ACC",
	MsgShipMotionInfo:    "SHIP_MOTION_INFO",
	MsgShipMotion00:      "SHIP_MOTION_0_0",
	MsgShipMotion01:      "SHIP_MOTION_0_1",
	MsgShipMotion02:      "SHIP_MOTION_0_2",
	MsgMag0:              "MAG_0",
	MsgMag1:              "MAG_1",
	MsgMag2:              "MAG_2",
	MsgOdoInfo:           "ODO_INFO",
	MsgOdoVel:            "ODO_VEL",
	MsgPressureInfo:      "PRESSURE_INFO",
	MsgPressureAltitude:  "PRESSURE_ALTITUDE",
	MsgGPS1VelInfo:       "GPS1_VEL_INFO",
	MsgGPS1Vel:           "GPS1_VEL",
	MsgGPS1VelAcc:        "GPS1_VEL_ACC",
	MsgGPS1VelCourse:     "GPS1_VEL_COURSE",
	MsgGPS1PosInfo:       "GPS1_POS_INFO",
	MsgGPS1Pos:           "GPS1_POS",
	MsgGPS1PosAlt:        "GPS1_POS_ALT",
	MsgGPS1PosAcc:        "GPS1_POS_ACC",
	MsgGPS1HDTInfo:       "GPS1_HDT_INFO",
	MsgGPS1HDT:           "GPS1_HDT",
	MsgEventInfoA:        "EVENT_INFO_A",
	MsgEventTimeA:        "EVENT_TIME_A",
	MsgEventInfoB:        "EVENT_INFO_B",
	MsgEventTimeB:        "EVENT_TIME_B",
	MsgEventInfoC:        "EVENT_INFO_C",
	MsgEventTimeC:        "EVENT_TIME_C",
	MsgEventInfoD:        "EVENT_INFO_D",
	MsgEventTimeD:        "EVENT_TIME_D",
}

// String returns the message name, or the identifier in hex.
func (id MessageID) String() string {
	if name, ok := messageNames[id]; ok {
		return name
	}
	return fmt.Sprintf("0x%03x", uint16(id))
}

// Known reports whether id is one of the default device identifiers.
func (id MessageID) Known() bool {
	_, ok := messageNames[id]
	return ok
}
