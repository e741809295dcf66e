// SPDX-License-Identifier: MIT
//
// Package server exposes the catalog over HTTP: on-demand rhythm
// generation, the catalogue listing, static audio and record files, the
// player page and a websocket stream of generation events.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/Brian099/music-rhythm-test/internal/catalog"
	applog "github.com/Brian099/music-rhythm-test/internal/log"

	"golang.org/x/sync/semaphore"
)

const shutdownTimeout = 5 * time.Second

// Catalog is the part of catalog.Catalog the service needs.
type Catalog interface {
	Generate(filename string, minBeatDuration float64) (catalog.Generation, error)
	List() (catalog.Listing, error)
}

// Options configures a Server.
type Options struct {
	Addr      string // Listen address, e.g. ":8000".
	Root      string // Filesystem directory the library lives in.
	MusicDir  string // Audio directory under Root; served at /<MusicDir>/.
	IndexFile string // Page served at "/", relative to Root.
	MaxJobs   int    // Generation requests analysed at once.
}

// Server is the HTTP front end.
type Server struct {
	opts    Options
	catalog Catalog
	events  http.Handler
	jobs    *semaphore.Weighted
	mux     *http.ServeMux
	http    *http.Server
}

// New builds the routes. events, if non-nil, is mounted on /ws.
func New(opts Options, cat Catalog, events http.Handler) (*Server, error) {
	if cat == nil {
		return nil, errors.New("server: catalog is required")
	}
	if opts.MaxJobs < 1 {
		return nil, fmt.Errorf("server: max jobs must be at least 1, got %d", opts.MaxJobs)
	}
	if opts.Root == "" {
		opts.Root = "."
	}
	opts.MusicDir = strings.Trim(filepath.ToSlash(filepath.Clean(opts.MusicDir)), "/")
	if opts.MusicDir == "" || opts.MusicDir == "." {
		return nil, errors.New("server: music directory must be a subdirectory of the root")
	}

	s := &Server{
		opts:    opts,
		catalog: cat,
		events:  events,
		jobs:    semaphore.NewWeighted(int64(opts.MaxJobs)),
		mux:     http.NewServeMux(),
	}
	s.routes()
	s.http = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() {
	prefix := "/" + s.opts.MusicDir + "/"
	musicRoot := filepath.Join(s.opts.Root, filepath.FromSlash(s.opts.MusicDir))

	s.mux.HandleFunc("POST /api/generate", s.handleGenerate)
	s.mux.HandleFunc("GET /playlist.json", s.handlePlaylist)
	s.mux.Handle("GET "+prefix, http.StripPrefix(prefix, http.FileServer(http.Dir(musicRoot))))
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	if s.events != nil {
		s.mux.Handle("GET /ws", s.events)
	}
}

// Handler returns the root handler with request logging.
func (s *Server) Handler() http.Handler {
	return logRequests(s.mux)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.opts.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		applog.Infof("Server: Listening on %s", ln.Addr())
		errCh <- s.http.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	applog.Infof("Server: Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the hijacker for /ws.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ws" {
			// The websocket upgrade needs the unwrapped writer.
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		applog.Debugf("Server: %s %s %d (%s)", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Millisecond))
	})
}
