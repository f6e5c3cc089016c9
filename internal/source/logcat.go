// Package source launches adb logcat and exposes its output as a plain
// byte stream. The rest of the pipeline only ever sees an io.Reader, so
// tests and replay feed it from anything line-oriented.
package source

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"strconv"
)

// ErrADBNotFound indicates adb is missing from PATH or not executable.
var ErrADBNotFound = errors.New("adb not found or not accessible")

// Options mirrors the logcat invocation surface.
type Options struct {
	Buffer string // main, system, crash, all
	Format string // brief, process, tag, thread, threadtime, raw
	Since  string // -T 'YYYY-MM-DD HH:MM:SS'
	Tail   int    // -T <count>, used by interactive mode to backfill
}

// Args returns the logcat argument list for the options, exposed so the
// CLI can echo the exact command it runs.
func Args(opts Options) []string {
	args := []string{"logcat"}
	if opts.Buffer != "" {
		args = append(args, "-b", opts.Buffer)
	}
	if opts.Format != "" {
		args = append(args, "-v", opts.Format)
	}
	if opts.Since != "" {
		args = append(args, "-T", opts.Since)
	} else if opts.Tail > 0 {
		args = append(args, "-T", strconv.Itoa(opts.Tail))
	}
	return args
}

// Stream is a running logcat process; reading it yields log lines.
type Stream struct {
	io.Reader
	cmd *exec.Cmd
}

// Close releases the pipe and reaps the adb process.
func (s *Stream) Close() error {
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	return s.cmd.Wait()
}

// Open spawns adb logcat with the given options. The returned Stream must
// be closed by the caller; cancelling ctx also kills the process.
func Open(ctx context.Context, opts Options) (*Stream, error) {
	if _, err := exec.LookPath("adb"); err != nil {
		return nil, ErrADBNotFound
	}

	cmd := exec.CommandContext(ctx, "adb", Args(opts)...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, ErrADBNotFound
	}

	return &Stream{Reader: stdout, cmd: cmd}, nil
}

// Clear flushes the device-side log buffers (logcat -c).
func Clear(ctx context.Context) error {
	if err := exec.CommandContext(ctx, "adb", "logcat", "-c").Run(); err != nil {
		return ErrADBNotFound
	}
	return nil
}

// EmitMarker writes an informational marker into the device log so a
// fresh capture has a visible starting point. Failure is harmless.
func EmitMarker(ctx context.Context, msg string) {
	_ = exec.CommandContext(ctx, "adb", "shell", "log", "-p", "i", "-t", "DevInsight", msg).Run()
}
