package commands

import (
	"fmt"
	"log/slog"
	"net/http"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/doxidize/internal/build"
	"git.home.luguber.info/inful/doxidize/internal/logfields"
	"git.home.luguber.info/inful/doxidize/internal/metrics"
	"git.home.luguber.info/inful/doxidize/internal/notify"
	"git.home.luguber.info/inful/doxidize/internal/preview"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Addr    string `name:"addr" help:"Address to serve on (overrides serve.addr)"`
	Metrics bool   `name:"metrics" help:"Expose Prometheus metrics at /metrics"`
}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	project, err := root.project()
	if err != nil {
		return err
	}
	store, err := openStore(project)
	if err != nil {
		return err
	}
	defer closeStore(store)

	var (
		recorder metrics.Recorder = metrics.NoopRecorder{}
		handler  http.Handler
	)
	if s.Metrics {
		reg := prom.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(reg)
		handler = metrics.HTTPHandler(reg)
	}

	notifier, err := notify.Connect(project.Config.Notify.NATSURL, project.Config.Notify.Subject)
	if err != nil {
		return err
	}
	defer func() {
		if err := notifier.Close(); err != nil {
			slog.Warn("Failed to close notifier", logfields.Error(err))
		}
	}()

	o, err := build.New(project,
		build.WithStore(store),
		build.WithLoader(g.loader()),
		build.WithRecorder(recorder),
		build.WithLiveReload(true),
	)
	if err != nil {
		return err
	}

	sup := preview.New(project, o, preview.Options{
		Addr:     s.Addr,
		Debounce: project.Config.Serve.Debounce,
		Metrics:  handler,
		Recorder: recorder,
		Notifier: notifier,
	})
	announced := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(announced)
		select {
		case <-sup.Ready():
			fmt.Fprintf(g.out(), "Serving %s at http://%s/\n", project.Paths.PublicDir(), sup.Addr())
		case <-done:
		}
	}()
	err = sup.Run(g.ctx())
	close(done)
	<-announced
	return err
}
