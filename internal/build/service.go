package build

import (
	"context"
	"time"

	"git.home.luguber.info/inful/doxidize/internal/artifacts"
)

// Runner is the interface the CLI and the preview loop build through.
type Runner interface {
	Run(ctx context.Context) (*Report, error)
}

// State is the position of the orchestrator in a build pass.
type State string

const (
	StateIdle        State = "idle"
	StateDiscovering State = "discovering"
	StateRendering   State = "rendering"
	StateDone        State = "done"
	StateFailed      State = "failed"
)

// IsTerminal reports whether s ends a pass.
func (s State) IsTerminal() bool {
	return s == StateDone || s == StateFailed
}

// Outcome is the overall result of a pass.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// Stage names used for timings, logs and metrics.
const (
	StageDiscover  = "discover"
	StageAnalyze   = "analyze"
	StageRender    = "render"
	StageReconcile = "reconcile"
)

// Report describes one build pass.
type Report struct {
	BuildID string
	Outcome Outcome
	State   State
	// Stages maps stage names to the time spent in them.
	Stages map[string]time.Duration

	// Artifacts is the set written by the pass. It is nil unless the pass
	// succeeded.
	Artifacts *artifacts.Set

	Documents   int
	Definitions int
	Assets      int
	Orphans     int
	Errors      []error

	Start time.Time
	End   time.Time
}

// Duration is the wall time of the pass.
func (r *Report) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

func (r *Report) addError(err error) {
	if err != nil {
		r.Errors = append(r.Errors, err)
	}
}
