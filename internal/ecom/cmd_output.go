package ecom

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/muurk/sbgecom/internal/protocol"
	"github.com/muurk/sbgecom/internal/streambuffer"
)

// OutputConfID is the id of the output configuration command.
var OutputConfID = protocol.NewCommandID(protocol.ClassCmd0, protocol.CmdOutputConf)

// OutputPort is a device output interface.
type OutputPort uint8

const (
	OutputPortA OutputPort = 0
	OutputPortC OutputPort = 1
	OutputPortE OutputPort = 2
)

// String returns the port letter
func (p OutputPort) String() string {
	switch p {
	case OutputPortA:
		return "A"
	case OutputPortC:
		return "C"
	case OutputPortE:
		return "E"
	default:
		return fmt.Sprintf("OutputPort(%d)", uint8(p))
	}
}

// ParseOutputPort accepts a port letter.
func ParseOutputPort(s string) (OutputPort, error) {
	for _, p := range []OutputPort{OutputPortA, OutputPortC, OutputPortE} {
		if p.String() == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown output port %q (want A, C or E)", s)
}

// OutputMode is the rate or trigger of a log output. Values 1 to 10000 divide
// the 200 Hz main loop.
type OutputMode uint16

const (
	OutputDisabled OutputMode = 0
	OutputMainLoop OutputMode = 1
	OutputDiv2     OutputMode = 2
	OutputDiv4     OutputMode = 4
	OutputDiv5     OutputMode = 5
	OutputDiv8     OutputMode = 8
	OutputDiv10    OutputMode = 10
	OutputDiv20    OutputMode = 20
	OutputDiv40    OutputMode = 40
	OutputDiv200   OutputMode = 200
	OutputPPS      OutputMode = 10000
	OutputNewData  OutputMode = 10001
	OutputEventInA OutputMode = 10003
	OutputEventInB OutputMode = 10004
)

const mainLoopHz = 200

var outputModeNames = map[OutputMode]string{
	OutputDisabled: "disabled",
	OutputPPS:      "pps",
	OutputNewData:  "new_data",
	OutputEventInA: "event_a",
	OutputEventInB: "event_b",
}

// String returns a rate such as "50Hz" or a trigger name
func (m OutputMode) String() string {
	if name, ok := outputModeNames[m]; ok {
		return name
	}
	if m >= OutputMainLoop && m < OutputPPS {
		return strconv.FormatFloat(float64(mainLoopHz)/float64(m), 'g', 4, 64) + "Hz"
	}
	return fmt.Sprintf("OutputMode(%d)", uint16(m))
}

// ParseOutputMode accepts a trigger name, a divider ("div:4") or a rate in Hz
// that divides the main loop ("50").
func ParseOutputMode(s string) (OutputMode, error) {
	for m, name := range outputModeNames {
		if name == s {
			return m, nil
		}
	}
	var div int
	if _, err := fmt.Sscanf(s, "div:%d", &div); err == nil && div >= 1 && div < int(OutputPPS) {
		return OutputMode(div), nil
	}
	hz, err := strconv.Atoi(s)
	if err == nil && hz > 0 && hz <= mainLoopHz && mainLoopHz%hz == 0 {
		return OutputMode(mainLoopHz / hz), nil
	}
	return 0, fmt.Errorf("invalid output mode %q (want a rate dividing %d Hz, div:N or a trigger name)", s, mainLoopHz)
}

// OutputConf is the output setting of one log on one port.
type OutputConf struct {
	Port OutputPort
	Log  protocol.CommandID
	Mode OutputMode
}

// GetOutputConf reads the output mode of log on port.
func GetOutputConf(h *Handle, port OutputPort, log protocol.CommandID) (OutputMode, error) {
	if h == nil {
		return 0, newNullArgument(OutputConfID.String(), "handle")
	}

	payload, err := h.Call(OutputConfID, []byte{uint8(port), log.ID(), uint8(log.Class())})
	if err != nil {
		return 0, err
	}

	var conf OutputConf
	if err := conf.UnmarshalBinary(payload); err != nil {
		return 0, wrapError(OutputConfID.String(), err)
	}
	if conf.Port != port || conf.Log != log {
		return 0, &Error{
			Type:    ErrTypeUnknown,
			Op:      OutputConfID.String(),
			Message: fmt.Sprintf("answer is for port %s %s, asked for port %s %s", conf.Port, conf.Log, port, log),
		}
	}
	return conf.Mode, nil
}

// SetOutputConf changes the output mode of log on port. The change applies
// immediately and is lost on reboot unless saved with ActionSave.
func SetOutputConf(h *Handle, port OutputPort, log protocol.CommandID, mode OutputMode) error {
	if h == nil {
		return newNullArgument(OutputConfID.String(), "handle")
	}
	conf := OutputConf{Port: port, Log: log, Mode: mode}
	payload, err := conf.MarshalBinary()
	if err != nil {
		return wrapError(OutputConfID.String(), err)
	}
	return h.CallAck(OutputConfID, payload)
}

// UnmarshalBinary decodes port, message id, class and mode.
func (c *OutputConf) UnmarshalBinary(payload []byte) error {
	r := streambuffer.NewReader(payload)
	port, err1 := r.ReadUint8()
	id, err2 := r.ReadUint8()
	class, err3 := r.ReadUint8()
	mode, err4 := r.ReadUint16()
	if err := errors.Join(err1, err2, err3, err4); err != nil {
		return err
	}
	c.Port = OutputPort(port)
	c.Log = protocol.NewCommandID(protocol.Class(class), id)
	c.Mode = OutputMode(mode)
	return nil
}

// MarshalBinary encodes port, message id, class and mode.
func (c *OutputConf) MarshalBinary() ([]byte, error) {
	w := streambuffer.NewWriter(make([]byte, 5))
	err := errors.Join(
		w.WriteUint8(uint8(c.Port)),
		w.WriteUint8(c.Log.ID()),
		w.WriteUint8(uint8(c.Log.Class())),
		w.WriteUint16(uint16(c.Mode)),
	)
	if err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}
