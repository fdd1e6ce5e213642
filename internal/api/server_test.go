package api

import (
	"context"
	"encoding/json"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/guidenav/internal/config"
	"github.com/dgallion1/guidenav/internal/dispatch"
	"github.com/dgallion1/guidenav/internal/document"
	"github.com/dgallion1/guidenav/internal/navigator"
	"github.com/dgallion1/guidenav/internal/panel"
	"github.com/dgallion1/guidenav/internal/tocsource"
)

const testTOC = `{"categories":[
	{"title":"Week 1","steps":[
		{"title":"Setup","description":"Install tools","file":"docs/setup.md","checkdeps":true},
		{"title":"Practical","notebook":"nb/intro.ipynb"},
		{"title":"Missing","file":"docs/missing.md"},
		{"title":"<script>alert(1)</script>"}
	]}
]}`

const testNotebook = `{"metadata":{"kernelspec":{"name":"python3"}},"cells":[
	{"cell_type":"markdown","source":["# Intro"]},
	{"cell_type":"code","source":"print(1 < 2)","outputs":[{"output_type":"stream","text":"True\n"}]}
]}`

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func workspace() fstest.MapFS {
	return fstest.MapFS{
		".guide/toc.json": {Data: []byte(testTOC)},
		"docs/setup.md":   {Data: []byte("# Hello\n\nWorld\n")},
		"nb/intro.ipynb":  {Data: []byte(testNotebook)},
	}
}

type fixture struct {
	srv  *Server
	host *Host
	nav  *navigator.Navigator
}

// newFixture serves fsys as the workspace, or no workspace at all when
// fsys is nil.
func newFixture(t *testing.T, fsys fstest.MapFS) *fixture {
	t.Helper()
	log := quiet()

	var workspaceFS fs.FS
	if fsys != nil {
		workspaceFS = fsys
	}
	host := NewHost(workspaceFS, panel.New(), document.NewRenderer(document.RenderOptions{}), nil, nil, HostOptions{Logger: log})
	stats := dispatch.NewStats(time.Hour)
	d := dispatch.New(workspaceFS, host, dispatch.WithStats(stats), dispatch.WithLogger(log))
	nav := navigator.New(tocsource.New(workspaceFS, tocsource.Config{}), d, navigator.WithLogger(log))

	cfg := config.Config{Guide: config.GuideConfig{Dir: ".guide", TOC: "toc.json"}}
	srv := NewServer(nav, host, stats, log, cfg)
	t.Cleanup(srv.Close)

	require.NoError(t, nav.Refresh(context.Background()))
	return &fixture{srv: srv, host: host, nav: nav}
}

func (f *fixture) do(t *testing.T, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	f.srv.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestHealth(t *testing.T) {
	f := newFixture(t, workspace())
	rec := f.do(t, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestOutline(t *testing.T) {
	f := newFixture(t, workspace())
	rec := f.do(t, http.MethodGet, "/api/outline")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp outlineResponse
	decodeBody(t, rec, &resp)
	assert.True(t, resp.Workspace)
	require.Len(t, resp.Groups, 1)
	assert.Equal(t, "Week 1", resp.Groups[0].Title)
	require.Len(t, resp.Groups[0].Entries, 4)
	assert.Equal(t, "Install tools", resp.Groups[0].Entries[0].Description)
}

func TestSelect_Document(t *testing.T) {
	f := newFixture(t, workspace())

	rec := f.do(t, http.MethodPost, "/api/select/0/0")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp selectResponse
	decodeBody(t, rec, &resp)
	assert.Empty(t, resp.Error)
	assert.Equal(t, "Setup", resp.Selection.Entry.Title)
	require.Len(t, resp.Selection.Actions, 2)

	snap := f.host.Panel().Current()
	require.True(t, snap.Open)
	assert.Equal(t, 1, snap.Instance)
	assert.Equal(t, "WEEK 1", snap.View.Eyebrow)
	assert.Equal(t, "Setup", snap.View.Title)
	assert.Contains(t, string(snap.View.Body), "<p>World</p>")
	assert.True(t, snap.View.DependencyCheck)

	// The check is flagged but no runner is configured.
	assert.Contains(t, f.host.Status().Message, "not configured")
}

func TestSelect_ByName(t *testing.T) {
	f := newFixture(t, workspace())
	rec := f.do(t, http.MethodPost, "/api/select/week-1/setup")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Setup", f.host.Panel().Current().View.Title)
}

func TestSelect_ReusesPanel(t *testing.T) {
	f := newFixture(t, workspace())
	f.do(t, http.MethodPost, "/api/select/0/0")
	f.do(t, http.MethodPost, "/api/select/0/1")

	snap := f.host.Panel().Current()
	assert.Equal(t, 1, snap.Instance)
	assert.Equal(t, 2, snap.Revision)
	assert.Equal(t, "Practical", snap.View.Title)
}

func TestSelect_Notebook(t *testing.T) {
	f := newFixture(t, workspace())
	rec := f.do(t, http.MethodPost, "/api/select/0/1")
	require.Equal(t, http.StatusOK, rec.Code)

	view := f.host.Panel().Current().View
	assert.Equal(t, "nb/intro.ipynb", view.Notebook)
	assert.Contains(t, string(view.Body), `class="cell code"`)
	assert.Contains(t, string(view.Body), "print(1 &lt; 2)")
	assert.Contains(t, string(view.Body), "True")
	assert.Equal(t, "2 cells (1 code, 1 markdown), kernel python3", view.Text)
}

func TestSelect_MissingContent(t *testing.T) {
	f := newFixture(t, workspace())
	rec := f.do(t, http.MethodPost, "/api/select/0/2")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp selectResponse
	decodeBody(t, rec, &resp)
	assert.Contains(t, resp.Error, "content not found")
	assert.Contains(t, f.host.Status().Message, "docs/missing.md")
	assert.False(t, f.host.Panel().Current().Open)
}

func TestSelect_Unknown(t *testing.T) {
	f := newFixture(t, workspace())
	for _, target := range []string{"/api/select/3/0", "/api/select/0/9", "/api/select/nope/setup"} {
		rec := f.do(t, http.MethodPost, target)
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
	}
}

func TestSelectForm_Redirects(t *testing.T) {
	f := newFixture(t, workspace())
	rec := f.do(t, http.MethodPost, "/select/0/0")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.True(t, f.host.Panel().Current().Open)
}

func TestSelectForm_NumericTitles(t *testing.T) {
	f := newFixture(t, fstest.MapFS{
		".guide/toc.json": {Data: []byte(`{"categories":[
			{"title":"1","steps":[{"title":"1","file":"a.md"},{"title":"2","file":"b.md"}]},
			{"title":"2","steps":[{"title":"1","file":"c.md"},{"title":"2","file":"d.md"}]}
		]}`)},
		"a.md": {Data: []byte("# A\n\nalpha\n")},
		"b.md": {Data: []byte("# B\n\nbravo\n")},
		"c.md": {Data: []byte("# C\n\ncharlie\n")},
		"d.md": {Data: []byte("# D\n\ndelta\n")},
	})

	rec := f.do(t, http.MethodPost, "/select/1/1")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	view := f.host.Panel().Current()
	require.True(t, view.Open)
	assert.Equal(t, "d.md", view.View.Source)

	f.do(t, http.MethodPost, "/select/0/1")
	assert.Equal(t, "b.md", f.host.Panel().Current().View.Source)
}

func TestSelectForm_NotAPosition(t *testing.T) {
	f := newFixture(t, workspace())
	rec := f.do(t, http.MethodPost, "/select/week-1/install-tools")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.False(t, f.host.Panel().Current().Open)
	assert.Contains(t, f.host.Status().Message, "week-1/install-tools")
}

func TestIndex(t *testing.T) {
	f := newFixture(t, workspace())
	f.do(t, http.MethodPost, "/api/select/0/0")

	rec := f.do(t, http.MethodGet, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	assert.Contains(t, body, "Week 1")
	assert.Contains(t, body, "Install tools")
	assert.Contains(t, body, "WEEK 1")
	assert.Contains(t, body, "Check Dependencies")
	assert.Contains(t, body, "&lt;script&gt;alert(1)&lt;/script&gt;")
	assert.NotContains(t, body, "<script>alert(1)</script>")
}

func TestIndex_EmptyStates(t *testing.T) {
	t.Run("no workspace", func(t *testing.T) {
		f := newFixture(t, nil)
		body := f.do(t, http.MethodGet, "/").Body.String()
		assert.Contains(t, body, "No workspace opened.")
	})

	t.Run("no toc", func(t *testing.T) {
		f := newFixture(t, fstest.MapFS{"README.md": {Data: []byte("hi")}})
		body := f.do(t, http.MethodGet, "/").Body.String()
		assert.Contains(t, body, "No .guide/toc.json found.")
	})
}

func TestRefresh_FailureKeepsTree(t *testing.T) {
	fsys := workspace()
	f := newFixture(t, fsys)

	fsys[".guide/toc.json"] = &fstest.MapFile{Data: []byte(`{"modules":[]}`)}
	rec := f.do(t, http.MethodPost, "/api/refresh")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp outlineResponse
	decodeBody(t, f.do(t, http.MethodGet, "/api/outline"), &resp)
	require.Len(t, resp.Groups, 1)
	assert.Contains(t, resp.Reason, "unrecognized guide schema")
}

func TestEventsAndStats(t *testing.T) {
	f := newFixture(t, workspace())
	f.do(t, http.MethodPost, "/api/select/0/0")

	var events struct {
		Events []struct {
			ID        string `json:"id"`
			Kind      string `json:"kind"`
			Selection *struct {
				Actions []struct {
					Kind string `json:"kind"`
				} `json:"actions"`
			} `json:"selection"`
		} `json:"events"`
	}
	decodeBody(t, f.do(t, http.MethodGet, "/api/events"), &events)
	require.Len(t, events.Events, 2)
	assert.Equal(t, "outline_loaded", events.Events[0].Kind)
	assert.Equal(t, "selection_resolved", events.Events[1].Kind)
	assert.Equal(t, "open_document", events.Events[1].Selection.Actions[0].Kind)

	var later struct {
		Events []json.RawMessage `json:"events"`
	}
	decodeBody(t, f.do(t, http.MethodGet, "/api/events?since="+events.Events[0].ID), &later)
	assert.Len(t, later.Events, 1)

	var stats struct {
		Stats map[string]dispatch.StatsSnapshot `json:"stats"`
	}
	decodeBody(t, f.do(t, http.MethodGet, "/api/stats/dispatch"), &stats)
	assert.Contains(t, stats.Stats, "open_document")
}

func TestPanelClose(t *testing.T) {
	f := newFixture(t, workspace())
	f.do(t, http.MethodPost, "/api/select/0/0")

	rec := f.do(t, http.MethodDelete, "/api/panel")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	var resp panelResponse
	decodeBody(t, f.do(t, http.MethodGet, "/api/panel"), &resp)
	assert.False(t, resp.Panel.Open)
}

func TestDepCheck_NotConfigured(t *testing.T) {
	f := newFixture(t, workspace())
	rec := f.do(t, http.MethodPost, "/api/depcheck")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = f.do(t, http.MethodGet, "/terminal")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "(idle)")
}
