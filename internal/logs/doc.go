// Package logs decodes the periodic telemetry logs a device emits in the
// LOG_0 class.
//
// Decode selects the layout from the message id and returns one of the typed
// records below. Messages without a known layout come back as *Unknown so
// that callers can still forward them.
//
//	h.OnClass(protocol.ClassLog0, func(f protocol.Frame) error {
//		l, err := logs.Decode(f.ID, f.Payload)
//		if err != nil {
//			return err
//		}
//		fmt.Println(l)
//		return nil
//	})
//
// All fields are little-endian. Angles are radians, rates rad/s,
// accelerations m/s², velocities m/s and positions WGS84 degrees and meters.
package logs
