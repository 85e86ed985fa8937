package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/ccsdb/internal/dataset"
	"github.com/KaramelBytes/ccsdb/internal/export"
	"github.com/KaramelBytes/ccsdb/internal/fetch"
	"github.com/KaramelBytes/ccsdb/internal/logging"
	"github.com/KaramelBytes/ccsdb/internal/session"
)

const dataTSV = "main_class\tsubclass\tNeutral Name\tcas\tformula\tmass\tkegg\tcid\tmPlusHCCS\tmPlusNaCCS\n" +
	"Sugars\tHexoses\tGlucose\t50-99-7\tC6H12O6\t180.16\tC00031\t5793\t\t150.2\n" +
	"Amino acids\tNeutral\tGlycine\t56-40-6\tC2H5NO2\t75.07\tC00037\t750\t112.3\t\n" +
	"Amino acids\tAcidic\tAspartate\t56-84-8\tC4H7NO4\t133.10\tC00049\t5960\t120.1\t\n" +
	"Sugars\t\tMystery sugar\t00-00-1\tC6H12O6\t250\t\t\t131.0\t\n"

const compoundJSON = `{"map00010": ["C00031"], "map00250": ["C00049", "C00037"]}`

const pathwayTXT = "path:map00250\tAlanine, aspartate and glutamate metabolism\n" +
	"path:map00010\tGlycolysis / Gluconeogenesis\n"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	dir := t.TempDir()
	for rel, body := range map[string]string{
		"data/metabolitedata.tsv": dataTSV,
		"res/compoundList.json":   compoundJSON,
		"res/pathwayList.txt":     pathwayTXT,
	} {
		p := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
	v, err := dataset.DefaultVariants().Lookup("metabolite")
	require.NoError(t, err)
	g := fetch.NewClient(0)
	d, err := session.Load(context.Background(), g, v, session.Resources{
		DataDir:       dir,
		CompoundList:  "res/compoundList.json",
		PathwayList:   "res/pathwayList.txt",
		MassTolerance: 1.5,
	}, logging.Discard())
	require.NoError(t, err)

	srv := New(Config{
		Data:               d,
		Exporter:           export.NewExporter(g, dir),
		PageSize:           2,
		DiagramServiceURL:  "https://kgml.example/",
		StructureImageBase: "https://img.example/compound",
		DataDir:            dir,
		Log:                logging.Discard(),
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, ts *httptest.Server, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestTable(t *testing.T) {
	ts := newTestServer(t)

	resp := get(t, ts, "/api/table?class=Sugars")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Variant string `json:"variant"`
		Page    struct {
			Number int           `json:"page"`
			Count  int           `json:"pages"`
			Total  int           `json:"total"`
			Rows   []dataset.Row `json:"rows"`
		} `json:"page"`
		Options session.Options `json:"options"`
		Images  []string        `json:"images"`
	}
	decode(t, resp, &body)
	assert.Equal(t, "metabolite", body.Variant)
	assert.Equal(t, 2, body.Page.Total)
	assert.Equal(t, "Glucose", body.Page.Rows[0].Name)
	assert.Equal(t, []string{"Hexoses", "Others"}, body.Options.Subclasses)
	assert.Equal(t, "https://img.example/compound/cid/5793/PNG", body.Images[0])
}

func TestTableToggleAndPaging(t *testing.T) {
	ts := newTestServer(t)

	resp := get(t, ts, "/api/table?toggle=class&page=2")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Page struct {
			Number int           `json:"page"`
			Rows   []dataset.Row `json:"rows"`
		} `json:"page"`
	}
	decode(t, resp, &body)
	assert.Equal(t, 2, body.Page.Number)
	require.Len(t, body.Page.Rows, 2)
	assert.Equal(t, "Aspartate", body.Page.Rows[0].Name, "classes descending, subclasses ascending")
}

func TestBadQueries(t *testing.T) {
	ts := newTestServer(t)
	for _, path := range []string{
		"/api/table?order=bogus:asc",
		"/api/table?order=name:sideways",
		"/api/table?toggle=name",
		"/api/table?page=two",
		"/api/export?format=pdf",
		"/api/export?scope=row",
		"/api/export?source=nope",
	} {
		resp := get(t, ts, path)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, path)
	}
}

func TestOverlay(t *testing.T) {
	ts := newTestServer(t)

	resp := get(t, ts, "/api/pathways/map00250/overlay")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var ov struct {
		Name       string                     `json:"name"`
		DiagramURL string                     `json:"diagramUrl"`
		Highlights map[string]json.RawMessage `json:"highlights"`
	}
	decode(t, resp, &ov)
	assert.Equal(t, "Alanine, aspartate and glutamate metabolism", ov.Name)
	assert.Equal(t, "https://kgml.example/hsa00250", ov.DiagramURL)
	assert.Len(t, ov.Highlights, 2)

	assert.Equal(t, http.StatusNotFound, get(t, ts, "/api/pathways/map99999/overlay").StatusCode)

	resp = get(t, ts, "/api/pathways/missing/overlay")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var msg map[string]string
	decode(t, resp, &msg)
	assert.NotEmpty(t, msg["message"])
}

func TestPathways(t *testing.T) {
	ts := newTestServer(t)
	resp := get(t, ts, "/api/pathways")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var entries []struct{ ID, Name string }
	decode(t, resp, &entries)
	require.Len(t, entries, 4)
	assert.Equal(t, "map00250", entries[2].ID)
}

func TestExport(t *testing.T) {
	ts := newTestServer(t)

	resp := get(t, ts, "/api/export?search=sugar")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `attachment; filename="No_Pathway_Filter_sugar_metabolitedata.tsv"`, resp.Header.Get("Content-Disposition"))
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	body := string(b)
	assert.Contains(t, body, "Glucose")
	assert.Contains(t, body, "Mystery sugar")
	assert.NotContains(t, body, "Glycine")

	resp = get(t, ts, "/api/export?scope=page&format=xlsx")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `attachment; filename="page_1_of_2_metabolitedata.xlsx"`, resp.Header.Get("Content-Disposition"))
}

func TestIndexReviewAndStatic(t *testing.T) {
	ts := newTestServer(t)

	resp := get(t, ts, "/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	resp = get(t, ts, "/api/review")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var review []dataset.MassReview
	decode(t, resp, &review)
	require.Len(t, review, 1)
	assert.Equal(t, "Mystery sugar", review[0].Name)

	assert.Equal(t, http.StatusOK, get(t, ts, "/data/data/metabolitedata.tsv").StatusCode)
}
