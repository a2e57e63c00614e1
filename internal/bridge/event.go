package bridge

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/muurk/sbgecom/internal/logs"
	"github.com/muurk/sbgecom/internal/protocol"
)

// Event is one telemetry frame ready for publication.
type Event struct {
	ID      uuid.UUID `json:"id"`
	Device  string    `json:"device"`
	Time    time.Time `json:"time"`
	Class   string    `json:"class"`
	MsgID   uint8     `json:"msg_id"`
	Name    string    `json:"name"`
	Payload []byte    `json:"payload"`
	Decoded logs.Log  `json:"decoded,omitempty"`
}

// NewEvent builds an event for frame f received now. decoded may be nil.
func NewEvent(device string, f protocol.Frame, decoded logs.Log) Event {
	return Event{
		ID:      uuid.New(),
		Device:  device,
		Time:    time.Now().UTC(),
		Class:   f.ID.Class().String(),
		MsgID:   f.ID.ID(),
		Name:    protocol.MessageName(f.ID),
		Payload: f.Payload,
		Decoded: decoded,
	}
}

// Subject returns the NATS subject of e under prefix.
func (e Event) Subject(prefix string) string {
	return strings.ToLower(strings.Join([]string{prefix, token(e.Device), e.Class, e.Name}, "."))
}

// token strips the characters NATS reserves in subject tokens.
func token(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t':
			return '_'
		}
		return r
	}, s)
}
