// Package build runs the firmware pipeline in the background: generate,
// write sources, invoke the external compiler, stream events back.
package build

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/keyforge/backend/internal/generator"
	"github.com/keyforge/backend/internal/mapping"
	"github.com/keyforge/backend/internal/models"
	"github.com/keyforge/backend/internal/storage"
)

// DefaultArtifactPatterns match the firmware images the compiler produces.
var DefaultArtifactPatterns = []string{"*.hex", "*.bin", "*.uf2"}

// DefaultKillGrace is how long a terminated compiler gets before it is killed.
const DefaultKillGrace = 5 * time.Second

// Config describes how to invoke the external compiler. Command, WorkDir and
// ArtifactDir may use the {keyboard}, {keymap} and {output_dir} placeholders.
type Config struct {
	Command          []string
	WorkDir          string
	Env              []string
	ArtifactDir      string // defaults to the output directory
	ArtifactPatterns []string
	KillGrace        time.Duration
}

// Recorder persists the summary of every finished build.
type Recorder interface {
	Record(ctx context.Context, rec *models.BuildRecord) error
}

// Request is one build invocation. The layout is snapshotted when the build
// starts, so the caller may keep editing it.
type Request struct {
	Layout    *models.Layout
	Geometry  *models.KeyboardGeometry
	Mapping   *mapping.Mapping
	OutputDir string
}

// Manager starts builds. It holds no per-build state; every build runs on
// its own worker goroutine.
type Manager struct {
	cfg      Config
	gen      *generator.Generator
	store    storage.Store
	recorder Recorder
	out      io.Writer
	now      func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithRecorder stores a record of every finished build.
func WithRecorder(r Recorder) Option {
	return func(m *Manager) { m.recorder = r }
}

// WithLogWriter redirects the manager's own log lines. Defaults to stdout.
func WithLogWriter(w io.Writer) Option {
	return func(m *Manager) { m.out = w }
}

// WithClock overrides time.Now for build timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a build manager.
func NewManager(cfg Config, gen *generator.Generator, store storage.Store, opts ...Option) *Manager {
	if len(cfg.ArtifactPatterns) == 0 {
		cfg.ArtifactPatterns = DefaultArtifactPatterns
	}
	if cfg.KillGrace <= 0 {
		cfg.KillGrace = DefaultKillGrace
	}
	m := &Manager{
		cfg:   cfg,
		gen:   gen,
		store: store,
		out:   os.Stdout,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start launches a build and returns immediately. Cancelling ctx has the same
// effect as Handle.Cancel.
func (m *Manager) Start(ctx context.Context, req Request) *Handle {
	id := uuid.New().String()
	q := newEventQueue()
	h := newHandle(id, q)

	j := &job{
		m:      m,
		h:      h,
		q:      q,
		req:    req,
		record: &models.BuildRecord{ID: id, OutputDir: req.OutputDir, StartedAt: m.now()},
	}
	if req.Layout != nil {
		j.layout, j.snapErr = models.Snapshot(req.Layout)
		j.record.Keymap = req.Layout.KeymapName
	}
	if req.Geometry != nil {
		j.record.Keyboard = req.Geometry.Keyboard
	}

	go j.run(ctx)
	return h
}

// job is the worker-side state of one build. Only the worker goroutine
// touches it, apart from the line collector used during compilation.
type job struct {
	m      *Manager
	h      *Handle
	q      *eventQueue
	req    Request
	layout *models.Layout

	snapErr  error
	record   *models.BuildRecord
	finished bool
}

func (j *job) logf(format string, args ...interface{}) {
	fmt.Fprintf(j.m.out, "[Build %s] "+format+"\n", append([]interface{}{j.h.ID[:8]}, args...)...)
}

func (j *job) emit(e Event) {
	j.q.push(e)
}

func (j *job) phase(status models.BuildStatus, pct *int) {
	j.record.Status = status
	j.emit(Progress{Phase: status, Percent: pct})
}

func (j *job) run(ctx context.Context) {
	defer close(j.h.done)
	defer func() {
		if r := recover(); r != nil {
			j.logf("PANIC recovered: %v", r)
			j.fail(ctx, Failed{Reason: ReasonPanic, Err: fmt.Errorf("build panicked: %v", r)})
		}
	}()

	// Cancelling the caller's context counts as a cancel request.
	if ctx.Err() != nil {
		j.h.Cancel()
	}
	stop := context.AfterFunc(ctx, j.h.Cancel)
	defer stop()

	j.logf("Starting build of %s (%s)", j.record.Keyboard, j.record.Keymap)

	if err := j.checkRequest(); err != nil {
		j.fail(ctx, Failed{Reason: ReasonInvalid, Err: err})
		return
	}
	if j.h.cancelRequested() {
		j.cancelled(ctx)
		return
	}

	j.phase(models.BuildStatusValidating, nil)
	if problems := j.m.gen.Validate(j.layout, j.req.Geometry, j.req.Mapping); len(problems) > 0 {
		j.fail(ctx, Failed{Reason: ReasonGeneration, Problems: problems, Err: &generator.GenerationError{Problems: problems}})
		return
	}
	if j.h.cancelRequested() {
		j.cancelled(ctx)
		return
	}

	j.phase(models.BuildStatusGenerating, nil)
	files, err := j.m.gen.Generate(j.layout, j.req.Geometry, j.req.Mapping)
	if err != nil {
		f := Failed{Reason: ReasonGeneration, Err: err}
		if genErr, ok := err.(*generator.GenerationError); ok {
			f.Problems = genErr.Problems
		}
		j.fail(ctx, f)
		return
	}
	written, err := j.m.store.WriteFiles(j.req.OutputDir, files.Files)
	if err != nil {
		j.fail(ctx, Failed{Reason: ReasonWrite, Err: err})
		return
	}
	j.logf("Wrote %d files to %s", len(written), j.m.store.Dir(j.req.OutputDir))
	if j.h.cancelRequested() {
		j.cancelled(ctx)
		return
	}

	j.phase(models.BuildStatusCompiling, percent(0))
	j.compile(ctx)
}

func (j *job) checkRequest() error {
	switch {
	case j.snapErr != nil:
		return fmt.Errorf("snapshotting layout: %w", j.snapErr)
	case j.layout == nil:
		return fmt.Errorf("layout is required")
	case j.req.Geometry == nil || j.req.Mapping == nil:
		return fmt.Errorf("geometry and mapping are required")
	case len(j.m.cfg.Command) == 0:
		return fmt.Errorf("no build command configured")
	}
	return nil
}

func (j *job) succeed(ctx context.Context, artifact *models.FileInfo) {
	j.record.Status = models.BuildStatusSuccess
	j.record.ArtifactPath = artifact.Path
	j.record.ArtifactSize = artifact.Size
	j.logf("Build succeeded: %s (%d bytes)", artifact.Path, artifact.Size)
	j.finish(ctx, Success{ArtifactPath: artifact.Path, SizeBytes: artifact.Size})
}

func (j *job) fail(ctx context.Context, f Failed) {
	j.record.Status = models.BuildStatusFailed
	j.record.ExitCode = f.ExitCode
	j.record.Reason = f.Reason
	for _, p := range f.Problems {
		j.record.Problems = append(j.record.Problems, models.BuildProblem{
			Category: p.Category,
			Message:  p.Message,
			Position: p.Where(),
		})
	}
	if f.Err != nil {
		j.logf("Build failed: %v", f.Err)
	} else {
		j.logf("Build failed: %s", f.Reason)
	}
	j.finish(ctx, f)
}

func (j *job) cancelled(ctx context.Context) {
	j.record.Status = models.BuildStatusCancelled
	j.logf("Build cancelled")
	j.finish(ctx, Cancelled{})
}

// finish queues the terminal event, closes the stream and records the build.
// Only the first call has any effect.
func (j *job) finish(ctx context.Context, terminal Event) {
	if j.finished {
		return
	}
	j.finished = true
	j.record.FinishedAt = j.m.now()

	j.emit(terminal)
	j.q.close()

	if j.m.recorder != nil {
		// The caller's context may be what cancelled the build.
		recCtx := context.WithoutCancel(ctx)
		if err := j.m.recorder.Record(recCtx, j.record); err != nil {
			j.logf("Warning: failed to record build: %v", err)
		}
	}
}
