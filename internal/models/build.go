package models

import "time"

// BuildStatus is a state of the build state machine.
type BuildStatus string

const (
	BuildStatusIdle       BuildStatus = "idle"
	BuildStatusValidating BuildStatus = "validating"
	BuildStatusGenerating BuildStatus = "generating"
	BuildStatusCompiling  BuildStatus = "compiling"
	BuildStatusSuccess    BuildStatus = "success"
	BuildStatusFailed     BuildStatus = "failed"
	BuildStatusCancelled  BuildStatus = "cancelled"
)

// IsTerminal reports whether no further transitions are possible.
func (s BuildStatus) IsTerminal() bool {
	switch s {
	case BuildStatusSuccess, BuildStatusFailed, BuildStatusCancelled:
		return true
	}
	return false
}

// BuildProblem is a flattened validation failure kept with a build record.
type BuildProblem struct {
	Category string `json:"category" msgpack:"category"`
	Message  string `json:"message" msgpack:"message"`
	Position string `json:"position,omitempty" msgpack:"position,omitempty"`
}

// BuildRecord is the final summary of one build job.
type BuildRecord struct {
	ID           string         `json:"id"`
	Keyboard     string         `json:"keyboard"`
	Keymap       string         `json:"keymap"`
	OutputDir    string         `json:"outputDir"`
	Status       BuildStatus    `json:"status"`
	ExitCode     *int           `json:"exitCode,omitempty"`
	ArtifactPath string         `json:"artifactPath,omitempty"`
	ArtifactSize int64          `json:"artifactSize,omitempty"`
	Reason       string         `json:"reason,omitempty"`
	Problems     []BuildProblem `json:"problems,omitempty"`
	Log          []string       `json:"-"`
	StartedAt    time.Time      `json:"startedAt"`
	FinishedAt   time.Time      `json:"finishedAt"`
}

// Duration returns how long the build ran.
func (r *BuildRecord) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
