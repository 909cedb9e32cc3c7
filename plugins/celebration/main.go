// Package main provides a celebration plugin for macOS.
// It posts notifications, speaks messages and nudges media playback via AppleScript.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// Request represents the input from the hook executor.
type Request struct {
	Action        string          `json:"action"`
	State         string          `json:"state"`
	PreviousState string          `json:"previous_state"`
	Gesture       string          `json:"gesture"`
	StatusText    string          `json:"status_text"`
	Hint          string          `json:"hint"`
	Photos        int             `json:"photos"`
	ActivePhoto   *int            `json:"active_photo"`
	Config        json.RawMessage `json:"config"`
	Params        json.RawMessage `json:"params"`
}

// Response represents the output to the hook executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Config is the per-hook configuration.
type Config struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Voice   string `json:"voice"`
	Sound   string `json:"sound"`
	Step    int    `json:"step"`
}

type actionHandler func(req Request, cfg Config) error

var actionHandlers = map[string]actionHandler{
	"notify":           notify,
	"say":              say,
	"volume-up":        volumeUp,
	"volume-down":      volumeDown,
	"media-play-pause": mediaPlayPause,
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	handler, ok := actionHandlers[req.Action]
	if !ok {
		writeErrorResponse(fmt.Sprintf("unknown action: %s", req.Action))
		return
	}

	var cfg Config
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			writeErrorResponse(fmt.Sprintf("invalid config: %v", err))
			return
		}
	}

	if err := handler(req, cfg); err != nil {
		writeErrorResponse(fmt.Sprintf("action %s failed: %v", req.Action, err))
		return
	}

	writeSuccessResponse()
}

func writeErrorResponse(errMsg string) {
	json.NewEncoder(os.Stdout).Encode(Response{Success: false, Error: errMsg})
}

func writeSuccessResponse() {
	json.NewEncoder(os.Stdout).Encode(Response{Success: true})
}

func runAppleScript(script string) error {
	cmd := exec.Command("osascript", "-e", script)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}

// quote renders s as an AppleScript string literal.
func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

// defaultMessage picks a line for the state being entered. The host's
// status text wins over the built-in lines.
func defaultMessage(req Request) string {
	msg := req.StatusText
	if msg == "" {
		switch req.State {
		case "SCATTERED":
			msg = "Make a wish..."
		case "PHOTO_ZOOM":
			msg = "Memory Lane"
		default:
			msg = "Happy Birthday!"
		}
	}
	if req.ActivePhoto != nil && req.Photos > 0 {
		msg += fmt.Sprintf(", photo %d of %d", *req.ActivePhoto+1, req.Photos)
	}
	return msg
}

func notify(req Request, cfg Config) error {
	msg := cfg.Message
	if msg == "" {
		msg = defaultMessage(req)
	}
	title := cfg.Title
	if title == "" {
		title = "cakewish"
	}

	script := fmt.Sprintf("display notification %s with title %s", quote(msg), quote(title))
	if cfg.Sound != "" {
		script += " sound name " + quote(cfg.Sound)
	}
	return runAppleScript(script)
}

func say(req Request, cfg Config) error {
	msg := cfg.Message
	if msg == "" {
		msg = defaultMessage(req)
	}

	args := []string{}
	if cfg.Voice != "" {
		args = append(args, "-v", cfg.Voice)
	}
	args = append(args, msg)

	output, err := exec.Command("say", args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}

func volumeStep(cfg Config) string {
	if cfg.Step > 0 {
		return strconv.Itoa(cfg.Step)
	}
	return "10"
}

func volumeUp(_ Request, cfg Config) error {
	return runAppleScript(`set volume output volume ((output volume of (get volume settings)) + ` + volumeStep(cfg) + `)`)
}

func volumeDown(_ Request, cfg Config) error {
	return runAppleScript(`set volume output volume ((output volume of (get volume settings)) - ` + volumeStep(cfg) + `)`)
}

// mediaPlayPause sends the Play/Pause media key.
func mediaPlayPause(_ Request, _ Config) error {
	return runAppleScript(`tell application "System Events"
	key code 100
end tell`)
}
