// Package hook runs external plugins when the application enters a state.
package hook

import "encoding/json"

// ManifestFile is the manifest name looked up in each plugin directory.
const ManifestFile = "plugin.json"

// Manifest describes a plugin's metadata and capabilities.
type Manifest struct {
	Name         string          `json:"name"`
	Version      string          `json:"version"`
	Description  string          `json:"description"`
	Executable   string          `json:"executable"`
	Actions      []string        `json:"actions"`
	ConfigSchema json.RawMessage `json:"configSchema,omitempty"`
}

// HasAction reports whether the manifest declares action.
func (m Manifest) HasAction(action string) bool {
	for _, a := range m.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// Request is the JSON document written to a plugin's stdin. Besides the
// action and its config it carries the snapshot the state was entered with.
type Request struct {
	Action        string          `json:"action"`
	State         string          `json:"state"`
	PreviousState string          `json:"previous_state,omitempty"`
	Gesture       string          `json:"gesture"`
	StatusText    string          `json:"status_text"`
	Hint          string          `json:"hint,omitempty"`
	Photos        int             `json:"photos"`
	ActivePhoto   *int            `json:"active_photo,omitempty"`
	Config        json.RawMessage `json:"config"`
	Params        json.RawMessage `json:"params,omitempty"`
}

// Response is the JSON document a plugin writes to stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin is a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest `json:"manifest"`
	Path       string   `json:"path"`
	Executable string   `json:"-"`
}
