package web

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/knolnotes/internal/domain"
	"github.com/conorfennell/knolnotes/internal/storage"
)

var jsonHeader = map[string]string{"Content-Type": "application/json"}

func decode[T any](t *testing.T, body string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(body), &v))
	return v
}

func TestAPINotes(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/notes", strings.NewReader(`{"content":"2+2","hidden_content":"4"}`), jsonHeader)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	created := decode[domain.Note](t, rec.Body.String())
	assert.Equal(t, "alice", created.UserID)
	assert.Equal(t, "4", created.HiddenContent)

	rec = ts.do(t, http.MethodGet, "/api/v1/notes/"+created.ID, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2+2", decode[domain.Note](t, rec.Body.String()).Content)

	rec = ts.do(t, http.MethodPut, "/api/v1/notes/"+created.ID, strings.NewReader(`{"content":"2+3","hidden_content":"5"}`), jsonHeader)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "5", decode[domain.Note](t, rec.Body.String()).HiddenContent)

	rec = ts.do(t, http.MethodGet, "/api/v1/notes", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.Note](t, rec.Body.String()), 1)

	rec = ts.do(t, http.MethodDelete, "/api/v1/notes/"+created.ID, nil, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/notes/"+created.ID, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, storage.ErrNotFound.Error(), decode[errorResponse](t, rec.Body.String()).Error)
}

func TestAPIErrors(t *testing.T) {
	ts := newTestServer(t)

	testCases := []struct {
		name   string
		method string
		target string
		body   string
		status int
	}{
		{"malformed json", http.MethodPost, "/api/v1/notes", `{"content":`, http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/api/v1/notes", `{"content":"x","extra":1}`, http.StatusBadRequest},
		{"content too long", http.MethodPost, "/api/v1/notes", `{"content":"` + strings.Repeat("a", 50001) + `"}`, http.StatusBadRequest},
		{"update missing note", http.MethodPut, "/api/v1/notes/nope", `{"content":"x"}`, http.StatusNotFound},
		{"missing memory", http.MethodGet, "/api/v1/notes/nope/memory", "", http.StatusNotFound},
		{"empty collection name", http.MethodPost, "/api/v1/collections", `{"name":"  "}`, http.StatusBadRequest},
		{"missing collection", http.MethodGet, "/api/v1/collections/nope", "", http.StatusNotFound},
		{"delete missing collection", http.MethodDelete, "/api/v1/collections/nope", "", http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := ts.do(t, tc.method, tc.target, strings.NewReader(tc.body), jsonHeader)
			assert.Equal(t, tc.status, rec.Code)
			assert.NotEmpty(t, decode[errorResponse](t, rec.Body.String()).Error)
		})
	}
}

func TestAPICollections(t *testing.T) {
	ts := newTestServer(t)
	first := ts.note(t, "one", "1")
	second := ts.note(t, "two", "2")

	rec := ts.do(t, http.MethodPost, "/api/v1/collections", strings.NewReader(`{"name":"Numbers"}`), jsonHeader)
	require.Equal(t, http.StatusCreated, rec.Code)
	col := decode[domain.Collection](t, rec.Body.String())
	assert.Equal(t, "Numbers", col.Name)

	rec = ts.do(t, http.MethodPost, "/api/v1/collections", strings.NewReader(`{"name":"Numbers"}`), jsonHeader)
	assert.Equal(t, http.StatusConflict, rec.Code)

	base := "/api/v1/collections/" + col.ID
	for _, n := range []*domain.Note{second, first} {
		rec = ts.do(t, http.MethodPost, base+"/notes/"+n.ID, nil, nil)
		require.Equal(t, http.StatusNoContent, rec.Code)
	}
	rec = ts.do(t, http.MethodPost, base+"/notes/"+first.ID, nil, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = ts.do(t, http.MethodPost, base+"/notes/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodGet, base+"/notes", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]domain.Note](t, rec.Body.String())
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)

	rec = ts.do(t, http.MethodGet, base+"/stats", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, storage.Stats{}, decode[storage.Stats](t, rec.Body.String()))

	rec = ts.do(t, http.MethodDelete, base+"/notes/"+first.ID, nil, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = ts.do(t, http.MethodDelete, base+"/notes/"+first.ID, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/collections", nil, nil)
	assert.Len(t, decode[[]domain.Collection](t, rec.Body.String()), 1)

	rec = ts.do(t, http.MethodDelete, base, nil, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = ts.do(t, http.MethodGet, base, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPIClassify(t *testing.T) {
	ts := newTestServer(t)

	testCases := []struct {
		name string
		text string
		want classifyResponse
	}{
		{"empty", "", classifyResponse{Widget: "text"}},
		{"single code line", "const x = 1;", classifyResponse{Widget: "text", CodeLines: 1, TotalLines: 1}},
		{"prose", "Dear diary\nToday was fine", classifyResponse{Widget: "text", TotalLines: 2}},
		{"half is not enough", "let a = 1;\nhello", classifyResponse{Widget: "text", CodeLines: 1, TotalLines: 2}},
		{"code", "if (x) {\n  y();\n}", classifyResponse{CodeLike: true, Widget: "code", CodeLines: 2, TotalLines: 3}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			body, err := json.Marshal(classifyRequest{Text: tc.text})
			require.NoError(t, err)
			rec := ts.do(t, http.MethodPost, "/api/v1/classify", strings.NewReader(string(body)), jsonHeader)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tc.want, decode[classifyResponse](t, rec.Body.String()))
		})
	}
}

func TestAPICORS(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/api/v1/notes", nil, map[string]string{"Origin": "https://app.example"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	ts = newTestServer(t, func(d *Deps) { d.CORSOrigins = []string{"https://app.example"} })
	rec = ts.do(t, http.MethodGet, "/api/v1/notes", nil, map[string]string{"Origin": "https://app.example"})
	assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))
	rec = ts.do(t, http.MethodGet, "/api/v1/notes", nil, map[string]string{"Origin": "https://evil.example"})
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
