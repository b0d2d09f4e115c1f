package render

import (
	"encoding/json"
	"strings"
)

// Mode is the tag carried by a menu button.
type Mode string

const (
	ModeSetting Mode = "setting"
	ModeGuide   Mode = "guide"
)

type postback struct {
	Mode Mode `json:"mode"`
}

// EncodeMode returns the button payload for mode: a JSON object with a
// single "mode" field.
func EncodeMode(mode Mode) string {
	data, _ := json.Marshal(postback{Mode: mode})
	return string(data)
}

// DecodeMode extracts the mode from a button payload. Plain "setting" or
// "guide" strings are accepted as well. Unrecognised payloads are returned
// verbatim so callers can fall back.
func DecodeMode(data string) Mode {
	data = strings.TrimSpace(data)
	if strings.HasPrefix(data, "{") {
		var p postback
		if err := json.Unmarshal([]byte(data), &p); err == nil {
			return p.Mode
		}
	}
	return Mode(data)
}
