package hook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// ErrTimeout is returned when a plugin outlives the executor timeout.
var ErrTimeout = errors.New("plugin timed out")

const (
	// waitDelay bounds how long the pipes of a killed plugin's children are
	// drained before Execute gives up on them.
	waitDelay = 500 * time.Millisecond
	// maxStderr caps how much plugin stderr is quoted in an error.
	maxStderr = 512
)

// Executor runs plugin executables. A plugin gets the Request as JSON on
// stdin and its headline fields as CAKEWISH_* environment variables, and must
// print a Response document on stdout before the timeout.
type Executor struct {
	timeout time.Duration
}

// NewExecutor creates a new Executor with the given timeout.
func NewExecutor(timeout time.Duration) *Executor {
	return &Executor{timeout: timeout}
}

// Execute runs plugin with req and parses its stdout as a Response.
// The run is bounded by both ctx and the executor timeout.
func (e *Executor) Execute(ctx context.Context, plugin *Plugin, req *Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	if len(req.Config) == 0 {
		req.Config = json.RawMessage("{}")
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	cmd := exec.CommandContext(ctx, plugin.Executable)
	cmd.Dir = plugin.Path
	cmd.Env = append(os.Environ(), requestEnv(req)...)
	cmd.WaitDelay = waitDelay
	cmd.Stdin = bytes.NewReader(body)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return nil, fmt.Errorf("%w: %s after %s", ErrTimeout, plugin.Manifest.Name, e.timeout)
	case err != nil:
		if s := tail(stderr.Bytes(), maxStderr); s != "" {
			return nil, fmt.Errorf("plugin %s failed: %w, stderr: %s", plugin.Manifest.Name, err, s)
		}
		return nil, fmt.Errorf("plugin %s failed: %w", plugin.Manifest.Name, err)
	}

	resp, err := parseResponse(stdout.Bytes())
	if err != nil {
		return nil, fmt.Errorf("plugin %s: %w", plugin.Manifest.Name, err)
	}
	return resp, nil
}

// requestEnv exposes the request's headline fields to shell plugins.
func requestEnv(req *Request) []string {
	return []string{
		"CAKEWISH_ACTION=" + req.Action,
		"CAKEWISH_STATE=" + req.State,
		"CAKEWISH_PREVIOUS_STATE=" + req.PreviousState,
		"CAKEWISH_GESTURE=" + req.Gesture,
		"CAKEWISH_STATUS=" + req.StatusText,
	}
}

// parseResponse decodes out as a Response. Plugins may print progress lines
// first; then the last non-empty line is the response.
func parseResponse(out []byte) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(out, &resp); err == nil {
		return &resp, nil
	}

	lines := bytes.Split(bytes.TrimSpace(out), []byte("\n"))
	last := bytes.TrimSpace(lines[len(lines)-1])
	if err := json.Unmarshal(last, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse plugin response: %w, stdout: %s", err, tail(out, maxStderr))
	}
	return &resp, nil
}

// tail returns at most the last n bytes of b, trimmed.
func tail(b []byte, n int) string {
	b = bytes.TrimSpace(b)
	if len(b) > n {
		b = b[len(b)-n:]
	}
	return string(b)
}
