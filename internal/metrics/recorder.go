package metrics

import "time"

// StageResult is the result label of a finished build stage.
type StageResult string

const (
	StageSucceeded StageResult = "success"
	StageFailed    StageResult = "fatal"
	StageCanceled  StageResult = "canceled"
)

// Recorder receives measurements from the build orchestrator and the live
// reload supervisor.
//
// Scopes are the manifest scopes (site, api, examples). Build outcomes are
// success, failed or canceled. Request kinds are build or terminate.
type Recorder interface {
	// Per stage of a build pass.
	ObserveStageDuration(stage string, d time.Duration)
	IncStageResult(stage string, result StageResult)

	// Per build pass.
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome string)
	AddArtifacts(scope string, n int)
	AddOrphansDeleted(scope string, n int)

	// Per request consumed by the supervisor.
	IncBuildRequest(kind string)
}

// NoopRecorder discards everything.
type NoopRecorder struct{}

var _ Recorder = NoopRecorder{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) IncStageResult(string, StageResult)         {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)         {}
func (NoopRecorder) IncBuildOutcome(string)                     {}
func (NoopRecorder) AddArtifacts(string, int)                   {}
func (NoopRecorder) AddOrphansDeleted(string, int)              {}
func (NoopRecorder) IncBuildRequest(string)                     {}
