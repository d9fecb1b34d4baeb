package preview

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/doxidize/internal/build"
	"git.home.luguber.info/inful/doxidize/internal/config"
	"git.home.luguber.info/inful/doxidize/internal/logfields"
	"git.home.luguber.info/inful/doxidize/internal/metrics"
	"git.home.luguber.info/inful/doxidize/internal/notify"
)

// RequestKind distinguishes the two requests the loop consumes.
type RequestKind int

const (
	RequestBuild RequestKind = iota
	RequestTerminate
)

func (k RequestKind) String() string {
	if k == RequestTerminate {
		return "terminate"
	}
	return "build"
}

// Request is one entry of the request queue.
type Request struct {
	Kind   RequestKind
	Reason string
}

// State is the lifecycle position of a Supervisor.
type State string

const (
	StateStarting   State = "starting"
	StateWatching   State = "watching"
	StateTerminated State = "terminated"
)

const (
	queueSize       = 16
	shutdownTimeout = 5 * time.Second
)

// Options configures a Supervisor.
type Options struct {
	Addr     string
	Debounce time.Duration
	// Metrics is mounted at /metrics when set.
	Metrics  http.Handler
	Recorder metrics.Recorder
	Notifier notify.Notifier
	// Signals replaces the interrupt and terminate signals of the process.
	Signals <-chan os.Signal
}

// Supervisor keeps the site of one project built while it is served.
type Supervisor struct {
	project *config.Project
	builder build.Runner
	opts    Options

	hub      *LiveReloadHub
	server   *Server
	requests chan Request
	stopped  chan struct{}
	ready    chan struct{}

	mu    sync.Mutex
	state State
}

// New returns a supervisor that rebuilds with builder.
func New(project *config.Project, builder build.Runner, opts Options) *Supervisor {
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Noop{}
	}
	if opts.Addr == "" {
		opts.Addr = project.Config.Serve.Addr
	}
	hub := NewLiveReloadHub()
	return &Supervisor{
		project:  project,
		builder:  builder,
		opts:     opts,
		hub:      hub,
		server:   NewServer(project.Paths.PublicDir(), project.Config.BasePath(), hub, opts.Metrics),
		requests: make(chan Request, queueSize),
		stopped:  make(chan struct{}),
		ready:    make(chan struct{}),
		state:    StateStarting,
	}
}

// Ready is closed once every task runs and the server accepts connections.
func (s *Supervisor) Ready() <-chan struct{} { return s.ready }

// Addr is the bound server address. It is valid after Ready.
func (s *Supervisor) Addr() string { return s.server.Addr() }

// State returns the current lifecycle state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Supervisor) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	slog.Debug("Preview state changed", slog.String("state", string(st)))
}

// Run starts the watcher, the server and the signal listener, queues an
// initial build and consumes requests until a terminate request arrives.
// Canceling ctx enqueues a terminate request; a build in progress finishes
// first.
func (s *Supervisor) Run(ctx context.Context) error {
	defer s.setState(StateTerminated)

	w, err := newWatcher(s.project, s.opts.Debounce, func(reason string) {
		s.enqueue(Request{Kind: RequestBuild, Reason: reason})
	})
	if err != nil {
		return err
	}
	defer func() { _ = w.close() }()
	if err := s.server.Listen(s.opts.Addr); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	producers, stopProducers := context.WithCancel(gctx)
	defer stopProducers()

	g.Go(func() error { return w.run(producers) })
	g.Go(s.server.Serve)
	g.Go(func() error {
		s.listenSignals(producers)
		return nil
	})
	g.Go(func() error {
		defer stopProducers()
		s.loop(ctx)
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			slog.Warn("Preview server shutdown error", logfields.Error(err))
		}
		return nil
	})

	s.enqueue(Request{Kind: RequestBuild, Reason: "startup"})
	s.setState(StateWatching)
	close(s.ready)

	return g.Wait()
}

// enqueue appends req to the queue. It reports false once the loop has
// stopped.
func (s *Supervisor) enqueue(req Request) bool {
	select {
	case <-s.stopped:
		return false
	default:
	}
	select {
	case s.requests <- req:
		s.opts.Recorder.IncBuildRequest(req.Kind.String())
		slog.Debug("Request queued", logfields.Request(req.Kind.String()), slog.String("reason", req.Reason))
		return true
	case <-s.stopped:
		return false
	}
}

// listenSignals turns the first shutdown signal, or the end of ctx, into a
// terminate request.
func (s *Supervisor) listenSignals(ctx context.Context) {
	sigs := s.opts.Signals
	if sigs == nil {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(ch)
		sigs = ch
	}

	var reason string
	select {
	case sig := <-sigs:
		reason = sig.String()
		slog.Info("Shutdown signal received", slog.String("signal", reason))
	case <-ctx.Done():
		reason = "context done"
	case <-s.stopped:
		return
	}
	s.enqueue(Request{Kind: RequestTerminate, Reason: reason})
}

// loop is the single consumer of the queue and the only caller of the
// builder.
func (s *Supervisor) loop(ctx context.Context) {
	defer close(s.stopped)
	buildCtx := context.WithoutCancel(ctx)
	for {
		req := <-s.requests
		switch req.Kind {
		case RequestTerminate:
			slog.Info("Stopping preview", slog.String("reason", req.Reason))
			return
		case RequestBuild:
			s.build(buildCtx, req)
		}
	}
}

func (s *Supervisor) build(ctx context.Context, req Request) {
	slog.Info("Rebuilding site", slog.String("reason", req.Reason))
	report, err := s.builder.Run(ctx)
	ev := notify.BuildEvent{Outcome: string(build.OutcomeFailed)}
	if report != nil {
		ev.BuildID = report.BuildID
		ev.Outcome = string(report.Outcome)
		ev.DurationMS = float64(report.Duration().Microseconds()) / 1000
		if report.Artifacts != nil {
			ev.Artifacts = report.Artifacts.Len()
		}
	}
	if err != nil {
		slog.Error("Rebuild failed; serving the last good output", logfields.Error(err))
	} else {
		s.hub.Broadcast(ev.BuildID)
	}
	if perr := s.opts.Notifier.Publish(ctx, ev); perr != nil {
		slog.Warn("Failed to publish build event", logfields.Error(perr))
	}
}
