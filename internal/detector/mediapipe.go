package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"gocv.io/x/gocv"
)

const (
	serviceScript = "gesture_service.py"
	shutdownGrace = 2 * time.Second
)

// MediaPipeRecognizer implements Recognizer using a Python MediaPipe
// gesture recognizer subprocess.
//
// Wire format per frame: 8-byte big-endian timestamp (ms), 4-byte big-endian
// length, JPEG bytes. The service answers each frame with one JSON line.
type MediaPipeRecognizer struct {
	config Config
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
	mu     sync.Mutex
	guard  timestampGuard
	closed bool

	interrupted atomic.Bool
}

type serviceResponse struct {
	Ready bool       `json:"ready"`
	Hands []jsonHand `json:"hands"`
	Error string     `json:"error"`
}

// NewMediaPipeRecognizer starts the recognizer service and waits for it to
// load its model. Startup failures are returned here rather than on the
// first frame.
func NewMediaPipeRecognizer(config Config) (*MediaPipeRecognizer, error) {
	scriptPath := config.Script
	if scriptPath == "" {
		scriptPath = findServiceScript()
	}
	if scriptPath == "" {
		return nil, fmt.Errorf("%s not found", serviceScript)
	}

	pythonPath := config.Python
	if pythonPath == "" {
		pythonPath = findVenvPython()
	}
	if pythonPath == "" {
		pythonPath = "python3"
	}

	args := []string{scriptPath, "--num-hands", strconv.Itoa(max(config.NumHands, 1))}
	if config.Model != "" {
		args = append(args, "--model", config.Model)
	}
	if config.MinConfidence > 0 {
		args = append(args, "--min-confidence", strconv.FormatFloat(config.MinConfidence, 'f', -1, 64))
	}

	r := &MediaPipeRecognizer{config: config}
	r.cmd = exec.Command(pythonPath, args...)

	stdin, err := r.cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := r.cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdout pipe: %w", err)
	}

	// Capture stderr for debugging
	r.cmd.Stderr = os.Stderr

	if err := r.cmd.Start(); err != nil {
		return nil, fmt.Errorf("start recognizer service: %w", err)
	}

	r.stdin = stdin
	r.stdout = bufio.NewReader(stdout)

	resp, err := r.readResponse()
	if err == nil && !resp.Ready {
		err = errors.New("service did not report ready")
	}
	if err != nil {
		r.shutdown()
		return nil, fmt.Errorf("recognizer startup: %w", err)
	}

	return r, nil
}

// Recognize sends one frame to the service and returns its gestures and
// landmarks.
func (r *MediaPipeRecognizer) Recognize(frame *gocv.Mat, timestampMs int64) (Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || r.interrupted.Load() {
		return Result{}, ErrRecognizerClosed
	}
	if frame == nil || frame.Empty() {
		return Result{}, errors.New("empty frame")
	}
	if err := r.guard.check(timestampMs); err != nil {
		return Result{}, err
	}

	// Encode frame as JPEG
	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return Result{}, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	data := buf.GetBytes()

	header := make([]byte, 12)
	binary.BigEndian.PutUint64(header[:8], uint64(timestampMs))
	binary.BigEndian.PutUint32(header[8:], uint32(len(data)))

	if _, err := r.stdin.Write(header); err != nil {
		return Result{}, fmt.Errorf("write header: %w", err)
	}
	if _, err := r.stdin.Write(data); err != nil {
		return Result{}, fmt.Errorf("write data: %w", err)
	}

	resp, err := r.readResponse()
	if err != nil {
		if r.interrupted.Load() {
			return Result{}, ErrRecognizerClosed
		}
		return Result{}, err
	}
	if resp.Error != "" {
		return Result{}, fmt.Errorf("recognizer: %s", resp.Error)
	}

	return resp.result(), nil
}

// Interrupt kills the service without waiting for an in-flight Recognize,
// which then fails with ErrRecognizerClosed.
func (r *MediaPipeRecognizer) Interrupt() {
	if !r.interrupted.CompareAndSwap(false, true) {
		return
	}
	if r.cmd.Process != nil {
		r.cmd.Process.Kill()
	}
}

// Close shuts down the Python process. A Recognize still waiting on the
// service is interrupted first. Further calls to Recognize fail with
// ErrRecognizerClosed.
func (r *MediaPipeRecognizer) Close() error {
	if !r.mu.TryLock() {
		r.Interrupt()
		r.mu.Lock()
	}
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	err := r.shutdown()
	if r.interrupted.Load() {
		return nil
	}
	return err
}

func (r *MediaPipeRecognizer) readResponse() (serviceResponse, error) {
	line, err := r.stdout.ReadBytes('\n')
	if err != nil {
		return serviceResponse{}, fmt.Errorf("read response: %w", err)
	}
	return parseResponse(line)
}

func parseResponse(line []byte) (serviceResponse, error) {
	var resp serviceResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return serviceResponse{}, fmt.Errorf("parse response: %w", err)
	}
	return resp, nil
}

// shutdown closes stdin so the service exits on its own, and kills it if it
// is still running after shutdownGrace.
func (r *MediaPipeRecognizer) shutdown() error {
	if r.stdin != nil {
		r.stdin.Close()
	}

	exited := make(chan error, 1)
	go func() { exited <- r.cmd.Wait() }()

	var err error
	select {
	case err = <-exited:
	case <-time.After(shutdownGrace):
		r.Interrupt()
		err = <-exited
	}
	r.stdin = nil
	r.stdout = nil
	return err
}

func findServiceScript() string {
	// Get executable directory
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		filepath.Join("scripts", serviceScript),
		filepath.Join("..", "scripts", serviceScript),
		filepath.Join(execDir, "scripts", serviceScript),
		filepath.Join(os.Getenv("HOME"), ".cakewish", "scripts", serviceScript),
	}

	return firstExisting(candidates)
}

// findVenvPython looks for a Python interpreter in a virtual environment
// next to the working directory, the executable, or the data directory.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".cakewish/venv/bin/python"),
	}

	return firstExisting(candidates)
}

func firstExisting(paths []string) string {
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// jsonHand represents the JSON structure from the Python service.
type jsonHand struct {
	Points     []jsonPoint `json:"points"`
	Handedness string      `json:"handedness"`
	Score      float64     `json:"score"`
	Gestures   []Category  `json:"gestures"`
}

type jsonPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (resp serviceResponse) result() Result {
	if len(resp.Hands) == 0 {
		return Result{}
	}
	hands := make([]Hand, len(resp.Hands))
	for i, h := range resp.Hands {
		hands[i] = h.toHand()
	}
	return Result{Hands: hands}
}

func (h jsonHand) toHand() Hand {
	hand := Hand{
		Handedness: h.Handedness,
		Score:      h.Score,
		Gestures:   h.Gestures,
	}

	for i := 0; i < NumLandmarks && i < len(h.Points); i++ {
		hand.Points[i] = Point3D{
			X: h.Points[i].X,
			Y: h.Points[i].Y,
			Z: h.Points[i].Z,
		}
	}

	return hand
}
