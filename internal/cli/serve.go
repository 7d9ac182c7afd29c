package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/MarkovWon/Knowdes/pkg/expand"
	kerrors "github.com/MarkovWon/Knowdes/pkg/errors"
	"github.com/MarkovWon/Knowdes/pkg/generate"
	"github.com/MarkovWon/Knowdes/pkg/graph"
	"github.com/MarkovWon/Knowdes/pkg/render"
	"github.com/MarkovWon/Knowdes/pkg/workspace"
)

// serveCommand creates the "serve" command: the HTTP API plus a browser
// viewer for the workspace.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		file    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the graph over HTTP",
		Long: `Serve starts an HTTP server exposing the workspace: a JSON API for
generating, expanding, importing, and exporting, and an interactive
viewer at the root path. With --file the named document is loaded at
startup and written back on shutdown.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, err := c.newGenerator(cmd, noCache)
			if err != nil {
				return err
			}

			store := workspace.NewStore()
			if file != "" {
				if err := store.Load(file); err != nil {
					if kerrors.GetCode(err) != kerrors.ErrCodeFileNotFound {
						return err
					}
					c.Logger.Info("document does not exist yet, starting empty", "file", file)
				}
			}

			s := &server{
				cli:   c,
				store: store,
				coord: expand.New(gen, c.Logger),
				gen:   gen,
			}

			srv := &http.Server{
				Addr:              addr,
				Handler:           s.router(),
				ReadHeaderTimeout: 5 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				c.Logger.Info("listening", "addr", addr)
				printInfo("Serving on %s", StyleLink.Render("http://"+addr))
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				return err
			case <-cmd.Context().Done():
			}

			// Shutdown must not inherit the already-cancelled signal context.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				c.Logger.Warn("shutdown incomplete", "err", err)
			}

			if file != "" {
				if err := store.Save(file); err != nil {
					return err
				}
				printSuccess("Saved workspace to %s", file)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "localhost:8421", "listen address")
	cmd.Flags().StringVarP(&file, "file", "f", "", "document file to load and persist")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the completion cache")

	return cmd
}

// =============================================================================
// Server
// =============================================================================

type server struct {
	cli   *CLI
	store *workspace.Store
	coord *expand.Coordinator
	gen   generate.Generator
}

func (s *server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.correlate)

	r.Get("/", s.handleIndex)
	r.Route("/api", func(r chi.Router) {
		r.Get("/graph", s.handleGraph)
		r.Post("/generate", s.handleGenerate)
		r.Post("/expand", s.handleExpand)
		r.Post("/import", s.handleImport)
		r.Get("/export", s.handleExport)
	})
	return r
}

// correlate tags every request with an identifier and logs its outcome.
func (s *server) correlate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-ID", id)

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.cli.Logger.Debug("request",
			"id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).Round(time.Millisecond))
	})
}

// =============================================================================
// Handlers
// =============================================================================

// graphPayload is the wire form of the workspace state.
type graphPayload struct {
	ID       string       `json:"id"`
	Topic    string       `json:"topic"`
	Nodes    []graph.Node `json:"nodes"`
	Links    []graph.Link `json:"links"`
	Selected []string     `json:"selected"`
}

func (s *server) payload() graphPayload {
	g, _ := s.store.Snapshot()
	return graphPayload{
		ID:       s.store.ID(),
		Topic:    s.store.Topic(),
		Nodes:    g.Nodes,
		Links:    g.Links,
		Selected: s.store.SelectedIDs(),
	}
}

func (s *server) handleIndex(w http.ResponseWriter, r *http.Request) {
	g, _ := s.store.Snapshot()
	page, err := render.ToHTML(g, s.store.Topic())
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

func (s *server) handleGraph(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.payload())
}

func (s *server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Topic string `json:"topic"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, kerrors.New(kerrors.ErrCodeInvalidInput, "request body must be JSON with a topic field"))
		return
	}

	prog := newProgress(s.cli.Logger)
	frag, err := s.gen.Generate(r.Context(), generate.Request{Topic: req.Topic})
	if err != nil {
		s.writeError(w, err)
		return
	}
	prog.done(fmt.Sprintf("Generated %d nodes for %q", len(frag.Nodes), req.Topic))

	s.store.Replace(req.Topic, frag.Nodes, frag.Links)
	s.writeJSON(w, http.StatusOK, s.payload())
}

func (s *server) handleExpand(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, kerrors.New(kerrors.ErrCodeInvalidInput, "request body must be JSON with an ids field"))
		return
	}

	if len(req.IDs) > 0 {
		s.store.ClearSelection()
		for _, id := range req.IDs {
			s.store.ToggleSelection(id)
		}
	}
	if len(s.store.SelectedIDs()) == 0 {
		s.writeError(w, kerrors.New(kerrors.ErrCodeInvalidInput, "nothing selected: pass ids of existing nodes"))
		return
	}

	res, err := s.coord.Expand(r.Context(), s.store)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, struct {
		Added   []string     `json:"addedNodes"`
		Links   int          `json:"addedLinks"`
		Dropped int          `json:"droppedLinks"`
		Graph   graphPayload `json:"graph"`
	}{res.AddedNodes, res.AddedLinks, res.DroppedLinks, s.payload()})
}

func (s *server) handleImport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 8<<20))
	if err != nil {
		s.writeError(w, kerrors.New(kerrors.ErrCodeInvalidInput, "cannot read request body"))
		return
	}

	frag, topic, err := graph.ParseImport(data)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if topic == "" {
		topic = s.store.Topic()
	}

	s.store.Replace(topic, frag.Nodes, frag.Links)
	s.writeJSON(w, http.StatusOK, s.payload())
}

func (s *server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	if err := kerrors.ValidateExportFormat(format, exportFormats); err != nil {
		s.writeError(w, err)
		return
	}

	g, _ := s.store.Snapshot()
	data, err := s.cli.exportAs(r.Context(), s.store, g, format)
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentTypes[format])
	_, _ = w.Write(data)
}

var contentTypes = map[string]string{
	"json": "application/json",
	"dot":  "text/vnd.graphviz",
	"svg":  "image/svg+xml",
	"png":  "image/png",
	"html": "text/html; charset=utf-8",
	"md":   "text/markdown; charset=utf-8",
}

// =============================================================================
// Responses
// =============================================================================

func (s *server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.cli.Logger.Error("encode response", "err", err)
	}
}

func (s *server) writeError(w http.ResponseWriter, err error) {
	code := kerrors.GetCode(err)
	s.writeJSON(w, statusFor(code), struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}{struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}{string(code), kerrors.UserMessage(err)}})
}

// statusFor maps error codes onto HTTP status codes.
func statusFor(code kerrors.Code) int {
	switch code {
	case kerrors.ErrCodeInvalidInput, kerrors.ErrCodeInvalidTopic,
		kerrors.ErrCodeInvalidNodeID, kerrors.ErrCodeInvalidFormat,
		kerrors.ErrCodeImportFormat, kerrors.ErrCodeUnsupported:
		return http.StatusBadRequest
	case kerrors.ErrCodeNotFound, kerrors.ErrCodeFileNotFound, kerrors.ErrCodeNodeNotFound:
		return http.StatusNotFound
	case kerrors.ErrCodeExpansionBusy, kerrors.ErrCodeExpansionStale:
		return http.StatusConflict
	case kerrors.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case kerrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

