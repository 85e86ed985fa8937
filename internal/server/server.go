package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/KaramelBytes/ccsdb/internal/dataset"
	"github.com/KaramelBytes/ccsdb/internal/export"
	"github.com/KaramelBytes/ccsdb/internal/facet"
	"github.com/KaramelBytes/ccsdb/internal/logging"
	"github.com/KaramelBytes/ccsdb/internal/pathway"
	"github.com/KaramelBytes/ccsdb/internal/render"
	"github.com/KaramelBytes/ccsdb/internal/session"
	"github.com/KaramelBytes/ccsdb/internal/structure"
	"github.com/KaramelBytes/ccsdb/internal/table"
	"github.com/KaramelBytes/ccsdb/internal/utils"
)

// Config holds the server's collaborators.
type Config struct {
	Data               *session.Dataset
	Exporter           *export.Exporter
	PageSize           int
	DiagramServiceURL  string
	StructureImageBase string
	// DataDir is served under /data/ when it is a local directory.
	DataDir string
	Log     *logging.Logger
}

// Server exposes the table over stateless GET endpoints. Each request builds
// its own session over the shared dataset.
type Server struct {
	router *chi.Mux
	cfg    Config
}

// New creates the server and its routes.
func New(cfg Config) *Server {
	if cfg.Log == nil {
		cfg.Log = logging.Default
	}
	s := &Server{router: chi.NewRouter(), cfg: cfg}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(s.logRequests)
}

func (s *Server) setupRoutes() {
	s.router.Get("/", s.handleIndex)
	s.router.Get("/api/table", s.handleTable)
	s.router.Get("/api/pathways", s.handlePathways)
	s.router.Get("/api/pathways/{id}/overlay", s.handleOverlay)
	s.router.Get("/api/export", s.handleExport)
	s.router.Get("/api/review", s.handleReview)

	if s.cfg.DataDir != "" && !utils.IsRemote(s.cfg.DataDir) {
		fs := http.FileServer(http.Dir(s.cfg.DataDir))
		s.router.Handle("/data/*", http.StripPrefix("/data/", fs))
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.cfg.Log.Debug("%s %s -> %d (%s)", r.Method, r.URL.RequestURI(), ww.Status(), time.Since(start).Round(time.Microsecond))
	})
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdown)
	}
}

// sessionFor replays the request's query onto a fresh session.
func (s *Server) sessionFor(r *http.Request) (*session.TableSession, error) {
	sess, err := session.New(s.cfg.Data, s.cfg.PageSize)
	if err != nil {
		return nil, err
	}
	q := r.URL.Query()
	page, err := intParam(q.Get("page"))
	if err != nil {
		return nil, fmt.Errorf("page: %w", err)
	}
	size, err := intParam(q.Get("size"))
	if err != nil {
		return nil, fmt.Errorf("size: %w", err)
	}
	err = sess.ApplyQuery(session.Query{
		Classes:    q["class"],
		Subclasses: q["subclass"],
		Pathway:    q.Get("pathway"),
		Search:     q.Get("search"),
		Order:      q.Get("order"),
		Toggles:    q["toggle"],
		Page:       page,
		Size:       size,
	})
	return sess, err
}

func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

type tableResponse struct {
	Variant      string          `json:"variant"`
	State        facet.State     `json:"state"`
	PathwayLabel string          `json:"pathwayLabel"`
	Order        []table.SortKey `json:"order"`
	Options      session.Options `json:"options"`
	Page         table.Page      `json:"page"`
	Images       []string        `json:"images,omitempty"`
}

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessionFor(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	p := sess.Page()
	resp := tableResponse{
		Variant:      s.cfg.Data.Variant.ID,
		State:        sess.State(),
		PathwayLabel: sess.PathwayLabel(),
		Order:        sess.Order(),
		Options:      sess.Options(),
		Page:         p,
	}
	if s.cfg.StructureImageBase != "" {
		for _, row := range p.Rows {
			resp.Images = append(resp.Images, structure.URL(s.cfg.StructureImageBase, row.StructureRef))
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePathways(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.Data.PathwayEnabled() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "pathway resources are not loaded"})
		return
	}
	writeJSON(w, http.StatusOK, s.cfg.Data.Catalog.Options())
}

func (s *Server) handleOverlay(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessionFor(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := sess.SetPathway(chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	ov, ok := sess.Overlay(s.cfg.DiagramServiceURL, pathway.DefaultStyle())
	if !ok {
		writeJSON(w, http.StatusOK, map[string]string{"message": pathway.NoSelectionText})
		return
	}
	writeJSON(w, http.StatusOK, ov)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	scope, err := session.ParseScope(q.Get("scope"))
	if err != nil {
		s.writeError(w, badRequest(err))
		return
	}
	format, err := export.ParseFormat(q.Get("format"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	es, ok := s.cfg.Data.Variant.Export(q.Get("source"))
	if !ok {
		s.writeError(w, badRequest(fmt.Errorf("unknown export source %q", q.Get("source"))))
		return
	}
	sess, err := s.sessionFor(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	ids, name := sess.ExportTarget(scope, es)
	f, err := s.cfg.Exporter.Export(r.Context(), ids, es, format, name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", f.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", f.Name))
	_, _ = w.Write(f.Data)
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	review := s.cfg.Data.Review
	if review == nil {
		review = []dataset.MassReview{}
	}
	writeJSON(w, http.StatusOK, review)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessionFor(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	v := s.cfg.Data.Variant
	var b strings.Builder
	b.WriteString(sess.Page().Markdown(v.Title))
	b.WriteString("\n---\n\n")
	b.WriteString(fmt.Sprintf("Pathway: %s. ", sess.PathwayLabel()))
	b.WriteString("JSON: [/api/table](/api/table), [/api/pathways](/api/pathways), [/api/review](/api/review).\n")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(render.Page(v.Title, b.String()))
}

type requestError struct{ err error }

func (e requestError) Error() string { return e.err.Error() }
func (e requestError) Unwrap() error { return e.err }

func badRequest(err error) error { return requestError{err} }

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var re requestError
	switch {
	case errors.Is(err, facet.ErrUnknownPathway):
		status = http.StatusNotFound
	case errors.Is(err, facet.ErrFacetDisabled):
		status = http.StatusServiceUnavailable
	case errors.As(err, &re),
		errors.Is(err, table.ErrUnknownColumn),
		errors.Is(err, table.ErrUnknownDirection),
		errors.Is(err, export.ErrUnknownFormat),
		errors.Is(err, strconv.ErrSyntax):
		status = http.StatusBadRequest
	}
	if status >= 500 {
		s.cfg.Log.Error("request failed: %v", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
