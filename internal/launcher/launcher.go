// Package launcher opens files in an external application: a configured
// editor for original-format files, or the operating system's default
// handler for everything else.
package launcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"pair-viewer/internal/filetypes"
	"pair-viewer/internal/logging"
	"pair-viewer/internal/metrics"
)

// defaultOpenTimeout bounds how long the OS opener may run. Openers hand
// the file to a desktop service and exit quickly.
const defaultOpenTimeout = 30 * time.Second

var (
	// ErrFileNotFound is returned when the file to open does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrLaunchFailed is matched by every LaunchError.
	ErrLaunchFailed = errors.New("launch failed")
)

// Launch methods reported in LaunchError and metrics.
const (
	MethodEditor  = "editor"
	MethodDefault = "default"
)

// LaunchError reports a command that could not be started or exited with
// an error.
type LaunchError struct {
	Path    string
	Method  string
	Command string
	Output  string
	Err     error
}

func (e *LaunchError) Error() string {
	msg := fmt.Sprintf("open %s with %s (%s): %v", e.Path, e.Method, e.Command, e.Err)
	if e.Output != "" {
		msg += ": " + e.Output
	}
	return msg
}

func (e *LaunchError) Unwrap() []error { return []error{ErrLaunchFailed, e.Err} }

// Runner executes external commands.
type Runner interface {
	// Start launches the command without waiting for it.
	Start(name string, args ...string) error
	// Run launches the command and waits, returning combined output.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Start(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	// Reap the editor when it exits so it does not linger as a zombie.
	go func() { _ = cmd.Wait() }()
	return nil
}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.Bytes(), err
}

// Launcher opens files with external applications.
type Launcher struct {
	editorPath string
	goos       string
	runner     Runner
	timeout    time.Duration
}

// New returns a Launcher that opens original-format files with editorPath
// when it is set and exists.
func New(editorPath string) *Launcher {
	return NewWithRunner(editorPath, runtime.GOOS, execRunner{})
}

// NewWithRunner is New with an explicit target OS and command runner.
func NewWithRunner(editorPath, goos string, runner Runner) *Launcher {
	return &Launcher{
		editorPath: strings.TrimSpace(editorPath),
		goos:       goos,
		runner:     runner,
		timeout:    defaultOpenTimeout,
	}
}

// Open opens path. Original-format files go to the configured editor,
// which is started and left running; anything else, or any file when no
// usable editor is configured, goes to the OS default opener, which is run
// to completion.
func (l *Launcher) Open(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return &LaunchError{Path: path, Method: MethodDefault, Err: err}
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrFileNotFound, path)
	}

	if l.useEditor(path) {
		err := l.runner.Start(l.editorPath, path)
		record(MethodEditor, err)
		if err != nil {
			return &LaunchError{Path: path, Method: MethodEditor, Command: l.editorPath, Err: err}
		}
		logging.Info("Opened %s in %s", filepath.Base(path), l.editorPath)
		return nil
	}

	name, args := defaultOpener(l.goos, path)
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	out, err := l.runner.Run(ctx, name, args...)
	record(MethodDefault, err)
	if err != nil {
		return &LaunchError{
			Path:    path,
			Method:  MethodDefault,
			Command: name,
			Output:  strings.TrimSpace(string(out)),
			Err:     err,
		}
	}
	logging.Info("Opened %s with %s", filepath.Base(path), name)
	return nil
}

func (l *Launcher) useEditor(path string) bool {
	if l.editorPath == "" || !filetypes.IsOriginal(filepath.Ext(path)) {
		return false
	}
	if _, err := os.Stat(l.editorPath); err != nil {
		logging.Warn("Configured editor %s is not usable, falling back to the default application: %v", l.editorPath, err)
		return false
	}
	return true
}

// defaultOpener returns the command that hands path to the desktop's
// default application on goos.
func defaultOpener(goos, path string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{path}
	case "windows":
		// The empty argument is the window title consumed by start.
		return "cmd", []string{"/c", "start", "", path}
	default:
		return "xdg-open", []string{path}
	}
}

func record(method string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.LauncherInvocationsTotal.WithLabelValues(method, status).Inc()
}
