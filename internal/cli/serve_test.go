package cli

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MarkovWon/Knowdes/pkg/expand"
	kerrors "github.com/MarkovWon/Knowdes/pkg/errors"
	"github.com/MarkovWon/Knowdes/pkg/generate"
	"github.com/MarkovWon/Knowdes/pkg/graph"
	"github.com/MarkovWon/Knowdes/pkg/workspace"
)

// stubGenerator returns a fixed fragment or error.
type stubGenerator struct {
	frag graph.Fragment
	err  error
}

func (s *stubGenerator) Generate(ctx context.Context, req generate.Request) (graph.Fragment, error) {
	if s.err != nil {
		return graph.Fragment{}, s.err
	}
	return s.frag, nil
}

func newTestServer(t *testing.T, gen generate.Generator) *server {
	t.Helper()
	c := &CLI{Logger: newLogger(io.Discard, LogInfo)}
	store := workspace.NewStore()
	store.Replace("testing",
		[]graph.Node{{ID: "a", Label: "Alpha"}, {ID: "b", Label: "Beta"}},
		[]graph.Link{{Source: "a", Target: "b"}},
	)
	return &server{
		cli:   c,
		store: store,
		coord: expand.New(gen, c.Logger),
		gen:   gen,
	}
}

func doRequest(t *testing.T, s *server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	rec := httptest.NewRecorder()
	s.router().ServeHTTP(rec, req)
	return rec
}

func TestHandleGraph(t *testing.T) {
	s := newTestServer(t, &stubGenerator{})
	rec := doRequest(t, s, http.MethodGet, "/api/graph", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got graphPayload
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Topic != "testing" || len(got.Nodes) != 2 || len(got.Links) != 1 {
		t.Errorf("payload = %+v, want 2 nodes 1 link for testing", got)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing request correlation header")
	}
}

func TestHandleGenerateReplacesGraph(t *testing.T) {
	gen := &stubGenerator{frag: graph.Fragment{
		Nodes: []graph.Node{{ID: "x", Label: "X"}},
	}}
	s := newTestServer(t, gen)

	rec := doRequest(t, s, http.MethodPost, "/api/generate", `{"topic":"fresh"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	g, _ := s.store.Snapshot()
	if len(g.Nodes) != 1 || !g.HasNode("x") {
		t.Errorf("graph not replaced: %+v", g.Nodes)
	}
	if s.store.Topic() != "fresh" {
		t.Errorf("topic = %q, want fresh", s.store.Topic())
	}
}

func TestHandleGenerateBadBody(t *testing.T) {
	s := newTestServer(t, &stubGenerator{})
	rec := doRequest(t, s, http.MethodPost, "/api/generate", "not json")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleExpand(t *testing.T) {
	gen := &stubGenerator{frag: graph.Fragment{
		Nodes: []graph.Node{{ID: "c", Label: "Gamma"}},
		Links: []graph.Link{{Source: "a", Target: "c"}},
	}}
	s := newTestServer(t, gen)

	rec := doRequest(t, s, http.MethodPost, "/api/expand", `{"ids":["a"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	g, _ := s.store.Snapshot()
	if !g.HasNode("c") {
		t.Error("expansion result not merged")
	}
}

func TestHandleExpandUnknownIDs(t *testing.T) {
	s := newTestServer(t, &stubGenerator{})
	rec := doRequest(t, s, http.MethodPost, "/api/expand", `{"ids":["ghost"]}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for unknown-only selection", rec.Code)
	}
}

func TestHandleExpandBackendFailure(t *testing.T) {
	s := newTestServer(t, &stubGenerator{err: kerrors.New(kerrors.ErrCodeNetwork, "backend down")})
	before, _ := s.store.Snapshot()

	rec := doRequest(t, s, http.MethodPost, "/api/expand", `{"ids":["a"]}`)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}

	after, _ := s.store.Snapshot()
	if len(after.Nodes) != len(before.Nodes) {
		t.Error("graph changed after failed expansion")
	}
}

func TestHandleImport(t *testing.T) {
	s := newTestServer(t, &stubGenerator{})
	body := `{"nodes":[{"id":"n1","label":"One"}],"links":[]}`

	rec := doRequest(t, s, http.MethodPost, "/api/import", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	g, _ := s.store.Snapshot()
	if len(g.Nodes) != 1 || !g.HasNode("n1") {
		t.Errorf("import did not replace the graph: %+v", g.Nodes)
	}
}

func TestHandleImportRejectsUnrecognizedShape(t *testing.T) {
	s := newTestServer(t, &stubGenerator{})
	rec := doRequest(t, s, http.MethodPost, "/api/import", `{"something":"else"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}

	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if payload.Error.Code != string(kerrors.ErrCodeImportFormat) {
		t.Errorf("error code = %q, want %q", payload.Error.Code, kerrors.ErrCodeImportFormat)
	}
}

func TestHandleExportFormats(t *testing.T) {
	s := newTestServer(t, &stubGenerator{})

	tests := []struct {
		format      string
		contentType string
		contains    string
	}{
		{"json", "application/json", `"graphData"`},
		{"dot", "text/vnd.graphviz", "digraph"},
		{"md", "text/markdown; charset=utf-8", "**Alpha**"},
		{"html", "text/html; charset=utf-8", "<!DOCTYPE html>"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			rec := doRequest(t, s, http.MethodGet, "/api/export?format="+tt.format, "")
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			if got := rec.Header().Get("Content-Type"); got != tt.contentType {
				t.Errorf("content type = %q, want %q", got, tt.contentType)
			}
			if !strings.Contains(rec.Body.String(), tt.contains) {
				t.Errorf("body missing %q", tt.contains)
			}
		})
	}
}

func TestHandleExportUnknownFormat(t *testing.T) {
	s := newTestServer(t, &stubGenerator{})
	rec := doRequest(t, s, http.MethodGet, "/api/export?format=pdf", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestIndexServesViewer(t *testing.T) {
	s := newTestServer(t, &stubGenerator{})
	rec := doRequest(t, s, http.MethodGet, "/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "<canvas") {
		t.Error("viewer page missing canvas")
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		code kerrors.Code
		want int
	}{
		{kerrors.ErrCodeInvalidTopic, http.StatusBadRequest},
		{kerrors.ErrCodeImportFormat, http.StatusBadRequest},
		{kerrors.ErrCodeFileNotFound, http.StatusNotFound},
		{kerrors.ErrCodeExpansionBusy, http.StatusConflict},
		{kerrors.ErrCodeExpansionStale, http.StatusConflict},
		{kerrors.ErrCodeRateLimited, http.StatusTooManyRequests},
		{kerrors.ErrCodeTimeout, http.StatusGatewayTimeout},
		{kerrors.ErrCodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.code); got != tt.want {
			t.Errorf("statusFor(%s) = %d, want %d", tt.code, got, tt.want)
		}
	}
}
