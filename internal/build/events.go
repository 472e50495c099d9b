package build

import (
	"github.com/keyforge/backend/internal/generator"
	"github.com/keyforge/backend/internal/models"
)

// Event is one message on a build's event stream. The set is closed:
// Progress, LogOutput, Success, Failed and Cancelled.
type Event interface {
	// Terminal reports whether this is the last event of the stream.
	Terminal() bool
	isEvent()
}

// Stream identifies which compiler output a log line came from.
type Stream string

const (
	Stdout Stream = "stdout"
	Stderr Stream = "stderr"
)

// Progress reports a phase change or a compiler milestone. Percent is nil
// when the phase has no meaningful completion estimate.
type Progress struct {
	Phase   models.BuildStatus
	Percent *int
}

// LogOutput is one line of compiler output.
type LogOutput struct {
	Line   string
	Stream Stream
}

// Success carries the located firmware artifact.
type Success struct {
	ArtifactPath string
	SizeBytes    int64
}

// Failed ends a build that did not produce an artifact. Problems is set when
// generation failed; ExitCode and Log when the compiler ran.
type Failed struct {
	ExitCode *int
	Problems []generator.Problem
	Log      []string
	Reason   string
	Err      error
}

// Cancelled ends a build after the compiler exited following a cancel request.
type Cancelled struct{}

func (Progress) Terminal() bool  { return false }
func (LogOutput) Terminal() bool { return false }
func (Success) Terminal() bool   { return true }
func (Failed) Terminal() bool    { return true }
func (Cancelled) Terminal() bool { return true }

func (Progress) isEvent()  {}
func (LogOutput) isEvent() {}
func (Success) isEvent()   {}
func (Failed) isEvent()    {}
func (Cancelled) isEvent() {}

func percent(p int) *int {
	return &p
}
