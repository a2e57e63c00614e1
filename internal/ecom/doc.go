// Package ecom implements request/response exchanges with a device.
//
// A Handle owns one transport. Commands are sent with Call or CallAck, which
// send the frame, wait for the matching answer and send again on timeout, up
// to a fixed number of attempts:
//
//	h, err := ecom.NewHandle(t)
//	if err != nil {
//	    return err
//	}
//	var f ecom.Features
//	if err := ecom.GetFeatures(h, &f); err != nil {
//	    fmt.Println(ecom.GetTroubleshootingHint(err))
//	}
//
// Frames that are not the awaited answer are telemetry logs. They go to the
// consumers registered with OnLog, OnClass or OnAnyLog, on the goroutine that
// is waiting or polling:
//
//	h.OnLog(logs.EKFEulerID, func(f protocol.Frame) error {
//	    ...
//	})
//	for {
//	    if _, err := h.Poll(100 * time.Millisecond); err != nil {
//	        return err
//	    }
//	}
//
// Every error returned by this package is an *Error whose Type tells timeouts,
// transport failures and device error codes apart.
package ecom
