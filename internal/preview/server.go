package preview

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	ferrors "git.home.luguber.info/inful/doxidize/internal/foundation/errors"
	"git.home.luguber.info/inful/doxidize/internal/logfields"
	"git.home.luguber.info/inful/doxidize/internal/pathmap"
)

// Server serves the output tree. Paths without a matching file answer 404.
type Server struct {
	root    string
	base    string
	hub     *LiveReloadHub
	metrics http.Handler

	ln  net.Listener
	srv *http.Server
}

// NewServer serves root under the URL sub-path base. hub and metrics are
// optional.
func NewServer(root, base string, hub *LiveReloadHub, metrics http.Handler) *Server {
	return &Server{root: root, base: pathmap.NormalizeBase(base), hub: hub, metrics: metrics}
}

// Listen binds addr so that an address in use fails before anything else
// starts.
func (s *Server) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryNetwork, "failed to bind preview server").
			WithContext("addr", addr).
			UserAction().
			Build()
	}
	s.ln = ln
	s.srv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return nil
}

// Addr is the bound address, empty before Listen.
func (s *Server) Addr() string {
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// URL is the address browsers open.
func (s *Server) URL() string {
	u := "http://" + s.Addr() + "/"
	if s.base != "" {
		u += s.base + "/"
	}
	return u
}

// Serve blocks until Shutdown.
func (s *Server) Serve() error {
	if s.srv == nil {
		return ferrors.InternalError("preview server is not listening").Build()
	}
	slog.Info("Preview server listening", logfields.Addr(s.Addr()), logfields.URL(s.URL()))
	if err := s.srv.Serve(s.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return ferrors.WrapError(err, ferrors.CategoryNetwork, "preview server failed").Build()
	}
	return nil
}

// Shutdown stops accepting connections and waits for open requests. Live
// reload streams are closed first since they never finish on their own.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.hub != nil {
		s.hub.Shutdown()
	}
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// Handler routes live reload, metrics and the static tree.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	if s.hub != nil {
		mux.Handle(LiveReloadPath, s.hub)
	}
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics)
	}

	files := http.FileServer(http.Dir(s.root))
	if s.base == "" {
		mux.Handle("/", files)
	} else {
		prefix := "/" + s.base
		mux.Handle(prefix+"/", http.StripPrefix(prefix, files))
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/" || r.URL.Path == prefix {
				http.Redirect(w, r, prefix+"/", http.StatusFound)
				return
			}
			http.NotFound(w, r)
		})
	}
	return chain(mux)
}

// chain adds request logging and panic recovery.
func chain(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		defer func() {
			if err := recover(); err != nil {
				slog.Error("HTTP handler panic", "error", err, logfields.Path(r.URL.Path))
				http.Error(wrapped, "internal server error", http.StatusInternalServerError)
			}
			slog.Debug("HTTP request",
				logfields.Method(r.Method),
				logfields.Path(r.URL.Path),
				logfields.Status(wrapped.statusCode),
				slog.Duration("duration", time.Since(start)))
		}()
		next.ServeHTTP(wrapped, r)
	})
}

// responseWriter captures the status code for logging.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush keeps server-sent events working through the wrapper.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
