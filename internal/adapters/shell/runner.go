// Package shell runs manifest commands as OS processes.
package shell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.trai.ch/remake/internal/core/domain"
	"go.trai.ch/remake/internal/core/ports"
)

// Runner implements ports.CommandRunner using os/exec.
type Runner struct {
	logger  ports.Logger
	environ func() []string
}

// NewRunner creates a Runner that mirrors command output lines to logger.
func NewRunner(logger ports.Logger) *Runner {
	return &Runner{
		logger:  logger,
		environ: os.Environ,
	}
}

// Run starts cmd and waits for it to exit.
//
// The child inherits the host environment with cmd.Environment layered on top,
// and runs in cmd.WorkingDir when it is set. Output is written to stdout and
// stderr and, line by line, to the logger. The command line is logged on the
// vertex carried by ctx, if any.
func (r *Runner) Run(ctx context.Context, cmd *domain.Command, stdout, stderr io.Writer) error {
	if v, ok := ports.VertexFromContext(ctx); ok {
		v.Log(domain.LogLevelInfo, cmd.String())
	}

	env := resolveEnvironment(r.environ(), cmd.Environment)

	executable := cmd.Executable
	if executable != "" && !strings.ContainsRune(executable, filepath.Separator) {
		if lp, err := lookPath(executable, env); err == nil {
			executable = lp
		}
	}

	c := exec.CommandContext(ctx, executable, cmd.Arguments...) //nolint:gosec // commands come from the manifest
	if len(c.Args) > 0 {
		c.Args[0] = cmd.Executable
	}
	c.Dir = cmd.WorkingDir
	c.Env = env

	stdoutLog := &logWriter{logger: r.logger, level: domain.LogLevelInfo}
	stderrLog := &logWriter{logger: r.logger, level: domain.LogLevelError}
	c.Stdout = io.MultiWriter(stdoutLog, orDiscard(stdout))
	c.Stderr = io.MultiWriter(stderrLog, orDiscard(stderr))

	if err := c.Start(); err != nil {
		return domain.NewStartError(cmd, err)
	}

	err := c.Wait()
	_ = stdoutLog.Close()
	_ = stderrLog.Close()
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
		return domain.NewExitError(cmd, exitErr.ExitCode(), err)
	}
	return domain.NewTerminatedError(cmd, err)
}

func orDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}

// logWriter forwards complete lines to the logger, buffering partial writes.
type logWriter struct {
	logger ports.Logger
	level  domain.LogLevel
	buf    []byte
}

func (w *logWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.logLine(w.buf[:i])
		w.buf = w.buf[i+1:]
	}
	return len(p), nil
}

// Close flushes a trailing line without newline.
func (w *logWriter) Close() error {
	if len(w.buf) > 0 {
		w.logLine(w.buf)
		w.buf = nil
	}
	return nil
}

func (w *logWriter) logLine(line []byte) {
	msg := strings.TrimSuffix(string(line), "\r")
	if w.level == domain.LogLevelError {
		w.logger.Warn(msg)
		return
	}
	w.logger.Info(msg)
}

// resolveEnvironment layers overrides on top of the inherited environment.
// Later entries win, so the result has one entry per key.
func resolveEnvironment(sysEnv []string, overrides map[string]string) []string {
	envMap := make(map[string]string, len(sysEnv)+len(overrides))
	order := make([]string, 0, len(sysEnv)+len(overrides))

	set := func(k, v string) {
		if _, ok := envMap[k]; !ok {
			order = append(order, k)
		}
		envMap[k] = v
	}
	for _, entry := range sysEnv {
		if k, v, ok := strings.Cut(entry, "="); ok {
			set(k, v)
		}
	}
	for k, v := range overrides {
		set(k, v)
	}

	result := make([]string, 0, len(order))
	for _, k := range order {
		result = append(result, k+"="+envMap[k])
	}
	return result
}

// lookPath searches for file in the PATH of env rather than of the current process,
// so a command may override PATH for its own lookup.
func lookPath(file string, env []string) (string, error) {
	var path string
	for _, e := range env {
		if v, ok := strings.CutPrefix(e, "PATH="); ok {
			path = v
		}
	}
	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			dir = "."
		}
		candidate := filepath.Join(dir, file)
		if err := findExecutable(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", exec.ErrNotFound
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0o111 != 0 {
		return nil
	}
	return os.ErrPermission
}
