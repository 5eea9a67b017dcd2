// Package server exposes the stream and the single-page frontend over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/andresmejia3/sightline/internal/modes"
	"github.com/andresmejia3/sightline/internal/stream"
	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

// Streamer writes a session's parts until the context ends or the client goes away.
type Streamer interface {
	Stream(ctx context.Context, w io.Writer, sel modes.Selection) error
}

// Config controls the HTTP surface.
type Config struct {
	Addr      string
	StaticDir string
	CORS      bool
}

// NewHandler builds the router: /video_feed, then the SPA fallback for everything else.
func NewHandler(s Streamer, cfg Config) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/video_feed", videoFeed(s)).Methods(http.MethodGet)
	// Anything else starting with /video_feed is a broken stream URL, not a frontend route
	r.MatcherFunc(func(req *http.Request, _ *mux.RouteMatch) bool {
		return strings.HasPrefix(req.URL.Path, "/video_feed")
	}).Handler(http.NotFoundHandler())
	r.PathPrefix("/").Handler(spa{dir: cfg.StaticDir}).Methods(http.MethodGet, http.MethodHead)

	var h http.Handler = r
	if cfg.CORS {
		h = handlers.CORS(
			handlers.AllowedOrigins([]string{"*"}),
			handlers.AllowedMethods([]string{http.MethodGet, http.MethodHead, http.MethodOptions}),
		)(h)
	}
	return handlers.RecoveryHandler(handlers.PrintRecoveryStack(false))(h)
}

func videoFeed(s Streamer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sel := modes.Select(r.URL.Query().Get("mode"))
		session := uuid.NewString()

		w.Header().Set("Content-Type", stream.ContentType)
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.WriteHeader(http.StatusOK)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}

		logger := log.With().Str("session", session).Str("mode", sel.Mode.String()).Str("remote", r.RemoteAddr).Logger()
		logger.Info().Msg("stream session started")
		start := time.Now()
		if err := s.Stream(r.Context(), w, sel); err != nil {
			logger.Error().Err(err).Msg("stream session failed")
		}
		logger.Info().Dur("duration", time.Since(start)).Msg("stream session ended")
	}
}

// spa serves files from dir and falls back to index.html for any path that is not a file.
type spa struct {
	dir string
}

func (s spa) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.dir != "" {
		name := filepath.Join(s.dir, filepath.FromSlash(filepathClean(r.URL.Path)))
		if fi, err := os.Stat(name); err == nil && !fi.IsDir() {
			http.ServeFile(w, r, name)
			return
		}
		index := filepath.Join(s.dir, "index.html")
		if _, err := os.Stat(index); err == nil {
			http.ServeFile(w, r, index)
			return
		}
	}
	http.Error(w, "frontend not built", http.StatusNotFound)
}

// filepathClean roots p so it cannot escape the static directory.
func filepathClean(p string) string {
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return filepath.ToSlash(filepath.Clean(p))
}

// Server is the HTTP listener. Shutting it down ends every open stream.
type Server struct {
	srv    *http.Server
	ln     net.Listener
	cancel context.CancelFunc
}

// Listen binds the address. Failing to bind is the one fatal startup error.
func Listen(addr string, h http.Handler) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to bind %s: %w", addr, err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{ln: ln, cancel: cancel}
	s.srv = &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	return s, nil
}

// SetHandler replaces the handler. Call it before Serve.
func (s *Server) SetHandler(h http.Handler) { s.srv.Handler = h }

// Close releases the listener of a server that will not be served.
func (s *Server) Close() error {
	s.cancel()
	return s.ln.Close()
}

// Addr returns the bound address.
func (s *Server) Addr() net.Addr { return s.ln.Addr() }

// Serve blocks until ctx is done, then drains open sessions within grace.
func (s *Server) Serve(ctx context.Context, grace time.Duration) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(s.ln) }()
	log.Info().Str("addr", s.ln.Addr().String()).Msg("listening")

	select {
	case err := <-errCh:
		s.cancel()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	// Streams never go idle on their own; cancelling the base context ends them.
	s.cancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
