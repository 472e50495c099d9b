package build

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/keyforge/backend/internal/models"
)

// compile runs the external compiler and finishes the job from its outcome.
func (j *job) compile(ctx context.Context) {
	vars := strings.NewReplacer(
		"{keyboard}", j.req.Geometry.Keyboard,
		"{keymap}", j.layout.KeymapName,
		"{output_dir}", j.m.store.Dir(j.req.OutputDir),
	)
	args := make([]string, len(j.m.cfg.Command))
	for i, a := range j.m.cfg.Command {
		args[i] = vars.Replace(a)
	}

	procCtx, stopProc := context.WithCancel(context.Background())
	defer stopProc()
	go func() {
		select {
		case <-j.h.cancel:
			stopProc()
		case <-procCtx.Done():
		}
	}()

	cmd := exec.CommandContext(procCtx, args[0], args[1:]...)
	cmd.Dir = vars.Replace(j.m.cfg.WorkDir)
	cmd.Env = append(os.Environ(), j.m.cfg.Env...)
	startGroup(cmd)
	cmd.WaitDelay = j.m.cfg.KillGrace

	lines := &lineCollector{job: j}
	stdout := &lineWriter{c: lines, stream: Stdout}
	stderr := &lineWriter{c: lines, stream: Stderr}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	// Artifacts older than the build start belong to an earlier build.
	since := time.Now().Truncate(time.Second)

	j.logf("Running %s", strings.Join(args, " "))
	if err := cmd.Start(); err != nil {
		if j.h.cancelRequested() {
			j.cancelled(ctx)
			return
		}
		j.fail(ctx, Failed{Reason: ReasonSpawn, Err: NewSpawnError(err)})
		return
	}

	waitErr := cmd.Wait()
	stdout.flush()
	stderr.flush()
	j.record.Log = lines.log

	if j.h.cancelRequested() {
		killGroup(cmd)
		j.cancelled(ctx)
		return
	}

	var exitErr *exec.ExitError
	switch {
	case waitErr == nil:
	case errors.As(waitErr, &exitErr) && exitErr.ExitCode() >= 0:
		code := exitErr.ExitCode()
		j.fail(ctx, Failed{Reason: ReasonExit, ExitCode: &code, Log: lines.log, Err: NewExitError(code)})
		return
	default:
		j.fail(ctx, Failed{Reason: ReasonTerminated, Log: lines.log, Err: NewTerminatedError(waitErr)})
		return
	}

	artifactDir := j.req.OutputDir
	if j.m.cfg.ArtifactDir != "" {
		artifactDir = vars.Replace(j.m.cfg.ArtifactDir)
	}
	artifact, err := j.m.store.FindArtifact(artifactDir, j.m.cfg.ArtifactPatterns, since)
	if err != nil {
		zero := 0
		j.fail(ctx, Failed{Reason: ReasonNoArtifact, ExitCode: &zero, Log: lines.log, Err: err})
		return
	}
	j.succeed(ctx, artifact)
}

// lineCollector turns compiler output into LogOutput and Progress events.
// Both output writers share it, so its lock also orders their events.
type lineCollector struct {
	mu       sync.Mutex
	job      *job
	log      []string
	progress progressParser
}

func (c *lineCollector) line(stream Stream, line string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.log = append(c.log, line)
	c.job.emit(LogOutput{Line: line, Stream: stream})
	if pct, ok := c.progress.parse(line); ok {
		c.job.emit(Progress{Phase: models.BuildStatusCompiling, Percent: percent(pct)})
	}
}

// lineWriter splits a byte stream into lines.
type lineWriter struct {
	c      *lineCollector
	stream Stream
	buf    []byte
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.c.line(w.stream, strings.TrimRight(string(w.buf[:i]), "\r"))
		w.buf = w.buf[i+1:]
	}
	return len(p), nil
}

// flush emits a trailing line without newline. Call after the process exited.
func (w *lineWriter) flush() {
	if len(w.buf) > 0 {
		w.c.line(w.stream, strings.TrimRight(string(w.buf), "\r"))
		w.buf = nil
	}
}

// progressParser estimates completion from compiler milestones. Estimates
// only move forward; unrecognized lines are ignored.
type progressParser struct {
	last int
}

const (
	compileStart = 10
	compileMax   = 60
)

func (p *progressParser) parse(line string) (int, bool) {
	text := strings.TrimSpace(line)

	next := -1
	switch {
	case strings.HasPrefix(text, "Compiling:"):
		next = compileStart
		if p.last >= compileStart {
			next = min(p.last+2, compileMax)
		}
	case strings.HasPrefix(text, "Linking:"):
		next = 70
	case strings.HasPrefix(text, "Creating load file"):
		next = 85
	case strings.HasPrefix(text, "Copying"):
		next = 95
	}
	if next <= p.last {
		return 0, false
	}
	p.last = next
	return next, true
}
