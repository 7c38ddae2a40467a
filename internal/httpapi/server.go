package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"netpulse/internal/export"
	"netpulse/internal/monitor"
	"netpulse/internal/outage"
	"netpulse/internal/query"
	"netpulse/internal/storage"
	pkgerrors "netpulse/pkg/errors"
)

// DefaultLimit caps outage lists when the caller gives no limit.
const DefaultLimit = 50

// Server exposes the query service as a read-only JSON API.
type Server struct {
	Logger  *zap.Logger
	Queries *query.Service
	// Stats reports scheduler counters; nil when the API runs without a
	// scheduler in the same process.
	Stats func() monitor.Stats
}

func NewServer(l *zap.Logger, q *query.Service, stats func() monitor.Stats) *Server {
	return &Server{Logger: l, Queries: q, Stats: stats}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		MaxAge:         300,
	}))
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/outages", s.handleListOutages)
		r.Get("/outages/last", s.handleLastOutage)
		r.Get("/outages/count", s.handleOutageCount)
		r.Get("/report", s.handleReport)
		r.Get("/export/samples.csv", s.handleExportSamples)
		r.Get("/export/outages.csv", s.handleExportOutages)
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.Logger.Debug("http_request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
		)
	})
}

// EpisodeView is the wire form of an outage episode.
type EpisodeView struct {
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	DurationSeconds float64   `json:"duration_s"`
	Failures        int       `json:"failures"`
	Open            bool      `json:"open"`
	Kind            string    `json:"kind"`
}

func viewOf(ep outage.Episode) EpisodeView {
	return EpisodeView{
		Start:           ep.Start,
		End:             ep.End,
		DurationSeconds: ep.Seconds(),
		Failures:        ep.Failures,
		Open:            ep.Open,
		Kind:            ep.Kind,
	}
}

func viewsOf(episodes []outage.Episode) []EpisodeView {
	out := make([]EpisodeView, 0, len(episodes))
	for _, ep := range episodes {
		out = append(out, viewOf(ep))
	}
	return out
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{"ok": true}
	if s.Stats != nil {
		st := s.Stats()
		body["ticks"] = st.Ticks
		body["failures"] = st.Failures
		body["failovers"] = st.Failovers
		body["store_errors"] = st.StoreErrors
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.Queries.CurrentStatus(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleListOutages(w http.ResponseWriter, r *http.Request) {
	rng, window, err := s.rangeFrom(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	limit, err := limitFrom(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	episodes, err := s.Queries.ListOutages(r.Context(), rng, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"window":  window,
		"outages": viewsOf(episodes),
	})
}

func (s *Server) handleLastOutage(w http.ResponseWriter, r *http.Request) {
	rng, window, err := s.rangeFrom(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	ep, err := s.Queries.LastOutage(r.Context(), rng)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var last *EpisodeView
	if ep != nil {
		v := viewOf(*ep)
		last = &v
	}
	writeJSON(w, http.StatusOK, map[string]any{"window": window, "last_outage": last})
}

func (s *Server) handleOutageCount(w http.ResponseWriter, r *http.Request) {
	rng, window, err := s.rangeFrom(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	n, err := s.Queries.OutageCount(r.Context(), rng)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"window": window, "count": n})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	rng, window, err := s.rangeFrom(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	limit, err := limitFrom(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	rep, err := s.Queries.Report(r.Context(), rng, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var last *EpisodeView
	if rep.LastOutage != nil {
		v := viewOf(*rep.LastOutage)
		last = &v
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"window":       window,
		"current":      rep.Current,
		"last_outage":  last,
		"outage_count": rep.OutageCount,
		"outages":      viewsOf(rep.Outages),
		"summary":      rep.Summary,
		"trend":        rep.Trend,
	})
}

func (s *Server) handleExportSamples(w http.ResponseWriter, r *http.Request) {
	rng, _, err := s.rangeFrom(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="samples.csv"`)
	if n, err := export.Samples(r.Context(), s.Queries, rng, w); err != nil {
		s.exportFailed(w, n, err)
	}
}

func (s *Server) handleExportOutages(w http.ResponseWriter, r *http.Request) {
	rng, _, err := s.rangeFrom(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="outages.csv"`)
	if n, err := export.Outages(r.Context(), s.Queries, rng, 0, w); err != nil {
		s.exportFailed(w, n, err)
	}
}

// exportFailed reports err as JSON while nothing has been streamed. Once rows
// are out the 200 is already sent, so the failure is only logged.
func (s *Server) exportFailed(w http.ResponseWriter, rows int, err error) {
	if rows == 0 {
		w.Header().Del("Content-Disposition")
		s.writeError(w, err)
		return
	}
	s.Logger.Warn("export aborted mid-stream", zap.Int("rows", rows), zap.Error(err))
}

// rangeFrom reads ?window=, ?from= and ?to=. Explicit bounds win over the window.
func (s *Server) rangeFrom(r *http.Request) (storage.Range, string, error) {
	q := r.URL.Query()
	window, err := query.ParseWindow(q.Get("window"))
	if err != nil {
		return storage.Range{}, "", err
	}
	from, to := q.Get("from"), q.Get("to")
	rng, err := query.ParseRange(window, from, to, s.Queries.Now())
	if err != nil {
		return storage.Range{}, "", err
	}
	label := string(window)
	if from != "" || to != "" {
		label = "custom"
	}
	return rng, label, nil
}

func limitFrom(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return DefaultLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &badRequest{msg: "limit must be an integer"}
	}
	return n, nil
}

type badRequest struct{ msg string }

func (e *badRequest) Error() string { return e.msg }

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var bad *badRequest
	switch {
	case errors.As(err, &bad), errors.Is(err, pkgerrors.ErrInvalidWindow):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, pkgerrors.ErrStoreUnavailable):
		s.Logger.Warn("store unavailable", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "sample store unavailable"})
	default:
		s.Logger.Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
