package ecom

import (
	"fmt"

	"github.com/muurk/sbgecom/internal/protocol"
)

// SettingsActionID is the id of the settings action command.
var SettingsActionID = protocol.NewCommandID(protocol.ClassCmd0, protocol.CmdSettingsAction)

// SettingsAction selects what the device does with its settings.
type SettingsAction uint8

const (
	// ActionReboot reboots without saving.
	ActionReboot SettingsAction = 0
	// ActionSave saves the current settings to flash and reboots.
	ActionSave SettingsAction = 1
	// ActionRestoreDefaults restores factory settings and reboots.
	ActionRestoreDefaults SettingsAction = 2
)

// String returns the action name
func (a SettingsAction) String() string {
	switch a {
	case ActionReboot:
		return "reboot"
	case ActionSave:
		return "save"
	case ActionRestoreDefaults:
		return "restore"
	default:
		return fmt.Sprintf("SettingsAction(%d)", uint8(a))
	}
}

// ParseSettingsAction maps a CLI word to an action.
func ParseSettingsAction(s string) (SettingsAction, error) {
	for _, a := range []SettingsAction{ActionReboot, ActionSave, ActionRestoreDefaults} {
		if a.String() == s {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown settings action %q (want save, restore or reboot)", s)
}

// ApplySettingsAction sends a settings action and waits for its ACK.
func ApplySettingsAction(h *Handle, action SettingsAction) error {
	if h == nil {
		return newNullArgument(SettingsActionID.String(), "handle")
	}
	return h.CallAck(SettingsActionID, []byte{uint8(action)})
}
