// Package server provides the HTTP surface serving Soundscape tiles to
// the mobile client.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/justinas/alice"
	"golang.org/x/time/rate"

	"github.com/steinbro/overscape-server/pkg/geo"
	"github.com/steinbro/overscape-server/pkg/overpass"
	"github.com/steinbro/overscape-server/pkg/tiles"
)

// Options configures the HTTP server.
type Options struct {
	Addr        string
	ClientRPS   float64
	ClientBurst int
	Logger      *slog.Logger
}

// Server serves the tile endpoint.
type Server struct {
	tiles   *tiles.Service
	logger  *slog.Logger
	limiter *RateLimiter
	httpSrv *http.Server
}

// New creates a tile server with the standard middleware chain.
func New(svc *tiles.Service, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.ClientRPS <= 0 {
		opts.ClientRPS = 10
	}
	if opts.ClientBurst <= 0 {
		opts.ClientBurst = 20
	}

	s := &Server{
		tiles:   svc,
		logger:  opts.Logger,
		limiter: NewRateLimiter(rate.Limit(opts.ClientRPS), opts.ClientBurst),
	}

	r := mux.NewRouter()
	r.HandleFunc("/tiles/{zoom:[0-9]+}/{x:[0-9]+}/{y:[0-9]+}.json", s.handleTile).Methods(http.MethodGet)

	chain := alice.New(
		LoggingMiddleware(opts.Logger),
		TracingMiddleware(),
		SecurityHeaders,
		s.limiter.Middleware,
		handlers.CompressHandler,
	).Then(r)

	s.httpSrv = &http.Server{
		Addr:              opts.Addr,
		Handler:           chain,
		ReadHeaderTimeout: 30 * time.Second,
	}

	return s
}

// Handler returns the full middleware-wrapped handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// Start runs the server until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("starting tile server", "addr", s.httpSrv.Addr)
	return s.httpSrv.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.httpSrv.Shutdown(ctx)
}

// errorBody is the JSON error payload.
type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	var body errorBody
	body.Error.Code = code
	body.Error.Message = message

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// handleTile serves GET /tiles/{zoom}/{x}/{y}.json.
func (s *Server) handleTile(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	zoom, err := strconv.Atoi(vars["zoom"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ZOOM", "zoom must be an integer")
		return
	}
	// The Soundscape client only ever requests the service zoom level;
	// other zooms do not exist on this server.
	if zoom != s.tiles.Zoom() {
		writeError(w, http.StatusNotFound, "UNSUPPORTED_ZOOM",
			"tiles are only available at zoom "+strconv.Itoa(s.tiles.Zoom()))
		return
	}

	x, err := strconv.Atoi(vars["x"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_TILE", "tile x must be an integer")
		return
	}
	y, err := strconv.Atoi(vars["y"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_TILE", "tile y must be an integer")
		return
	}

	data, err := s.tiles.Tile(r.Context(), x, y)
	if err != nil {
		s.writeTileError(w, r, x, y, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(data); err != nil {
		s.logger.Error("failed to write tile response", "error", err)
	}
}

// writeTileError maps tile service errors onto HTTP status codes.
func (s *Server) writeTileError(w http.ResponseWriter, r *http.Request, x, y int, err error) {
	switch {
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful to send.
		writeError(w, http.StatusServiceUnavailable, "CANCELLED", "request cancelled")
	case overpass.IsUpstreamError(err):
		s.logger.Warn("upstream failure serving tile", "x", x, "y", y, "error", err)
		writeError(w, http.StatusBadGateway, "UPSTREAM_ERROR", "the map data service is unavailable")
	case errors.Is(err, geo.ErrInvalidTile):
		writeError(w, http.StatusBadRequest, "INVALID_TILE", err.Error())
	default:
		s.logger.Error("internal error serving tile", "x", x, "y", y, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
