package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/leaftran/internal"
	"github.com/valpere/leaftran/internal/client"
	"github.com/valpere/leaftran/internal/docx"
	"github.com/valpere/leaftran/internal/session"
	"github.com/valpere/leaftran/internal/store"
	"github.com/valpere/leaftran/internal/translation"
)

type memRepo struct {
	mu       sync.Mutex
	leaflets map[string]internal.Leaflet
	err      error
}

func newMemRepo() *memRepo {
	return &memRepo{leaflets: map[string]internal.Leaflet{}}
}

func (r *memRepo) ListLeaflets(context.Context) ([]internal.Leaflet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	out := []internal.Leaflet{}
	for _, l := range r.leaflets {
		out = append(out, l)
	}
	internal.SortByDateDesc(out)
	return out, nil
}

func (r *memRepo) SaveLeaflet(_ context.Context, l internal.Leaflet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.leaflets[l.ID] = l
	return nil
}

func (r *memRepo) DeleteLeaflet(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if _, ok := r.leaflets[id]; !ok {
		return fmt.Errorf("leaflet %s: %w", id, store.ErrNotFound)
	}
	delete(r.leaflets, id)
	return nil
}

type fakeTranslator struct {
	res translation.Result
	err error
	got [3]string
}

func (f *fakeTranslator) Translate(_ context.Context, src, tgt, text string) (translation.Result, error) {
	f.got = [3]string{src, tgt, text}
	return f.res, f.err
}

var fixedNow = time.Date(2024, 6, 1, 10, 30, 45, 123000000, time.UTC)

func newTestServer(t *testing.T, repo LeafletRepository, tr Translator, opts ...Option) *httptest.Server {
	t.Helper()
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	ts := httptest.NewServer(New(repo, tr, opts...).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func doRequest(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func errorMessage(t *testing.T, body []byte) string {
	t.Helper()
	var e struct {
		ErrorMessage string `json:"error_message"`
	}
	require.NoError(t, json.Unmarshal(body, &e))
	return e.ErrorMessage
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, newMemRepo(), &fakeTranslator{})

	resp, body := doRequest(t, http.MethodGet, ts.URL+"/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestSaveLeaflet_FillsDefaults(t *testing.T) {
	repo := newMemRepo()
	ts := newTestServer(t, repo, &fakeTranslator{})

	resp, body := doRequest(t, http.MethodPost, ts.URL+"/api/leaflets", `{"id":"a","name":" "}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var saved internal.Leaflet
	require.NoError(t, json.Unmarshal(body, &saved))
	assert.Equal(t, internal.DefaultLeafletName, saved.Name)
	assert.True(t, saved.Date.Equal(fixedNow))
	assert.Equal(t, []internal.Section{{ID: 0}}, saved.Sections)
	assert.Contains(t, repo.leaflets, "a")
}

func TestSaveLeaflet_BadInput(t *testing.T) {
	ts := newTestServer(t, newMemRepo(), &fakeTranslator{})

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"id":`},
		{"missing id", `{"name":"x"}`},
		{"blank id", `{"id":"  "}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := doRequest(t, http.MethodPost, ts.URL+"/api/leaflets", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.NotEmpty(t, errorMessage(t, body))
		})
	}
}

func TestLeaflets_StorageFailure(t *testing.T) {
	repo := newMemRepo()
	repo.err = errors.New("disk on fire")
	ts := newTestServer(t, repo, &fakeTranslator{})

	resp, body := doRequest(t, http.MethodGet, ts.URL+"/api/leaflets", "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	msg := errorMessage(t, body)
	assert.NotContains(t, msg, "disk on fire")

	resp, _ = doRequest(t, http.MethodPost, ts.URL+"/api/leaflets", `{"id":"a"}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	resp, _ = doRequest(t, http.MethodDelete, ts.URL+"/api/leaflets/a", "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestDeleteLeaflet(t *testing.T) {
	repo := newMemRepo()
	repo.leaflets["a"] = internal.NewLeaflet("a", fixedNow)
	ts := newTestServer(t, repo, &fakeTranslator{})

	resp, body := doRequest(t, http.MethodDelete, ts.URL+"/api/leaflets/a", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"success":true}`, string(body))

	resp, body = doRequest(t, http.MethodDelete, ts.URL+"/api/leaflets/a", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Leaflet not found", errorMessage(t, body))
}

func TestTranslate(t *testing.T) {
	tr := &fakeTranslator{res: translation.Result{Text: "<h1>Hello</h1>", Service: "google"}}
	ts := newTestServer(t, newMemRepo(), tr)

	resp, body := doRequest(t, http.MethodPost, ts.URL+"/api/translate",
		`{"source_lang":"heb","target_lang":"eng","text":"שלום"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var out client.TranslateResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "<h1>Hello</h1>", out.Translation)
	assert.Equal(t, [3]string{"heb", "eng", "שלום"}, tr.got)
}

func TestTranslate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		body   string
		status int
	}{
		{"malformed", nil, `{`, http.StatusBadRequest},
		{"empty text", translation.ErrEmptyText, `{"text":""}`, http.StatusBadRequest},
		{"bad language", fmt.Errorf("%w: xx", translation.ErrInvalidLanguage), `{"text":"x"}`, http.StatusBadRequest},
		{"providers down", fmt.Errorf("%w: boom", translation.ErrNoTranslation), `{"text":"x"}`, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, newMemRepo(), &fakeTranslator{err: tt.err})
			resp, body := doRequest(t, http.MethodPost, ts.URL+"/api/translate", tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.NotEmpty(t, errorMessage(t, body))
		})
	}
}

func TestDocument(t *testing.T) {
	ts := newTestServer(t, newMemRepo(), &fakeTranslator{})

	resp, body := doRequest(t, http.MethodPost, ts.URL+"/api/document", `{"content":"A<br><br>B<br><br>"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, docx.ContentType, resp.Header.Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(body, []byte("PK")), "expected a zip archive")
}

func TestNotFound(t *testing.T) {
	ts := newTestServer(t, newMemRepo(), &fakeTranslator{})

	resp, body := doRequest(t, http.MethodGet, ts.URL+"/api/nope", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Not found", errorMessage(t, body))
}

func TestCORS_DevelopmentOnly(t *testing.T) {
	dev := newTestServer(t, newMemRepo(), &fakeTranslator{}, WithMode(ModeDevelopment))
	prod := newTestServer(t, newMemRepo(), &fakeTranslator{}, WithMode(ModeProduction))

	resp, _ := doRequest(t, http.MethodOptions, dev.URL+"/api/translate", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	resp, _ = doRequest(t, http.MethodGet, prod.URL+"/api/leaflets", "")
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestMetrics(t *testing.T) {
	tr := &fakeTranslator{res: translation.Result{Text: "Hello", Cached: true}}
	ts := newTestServer(t, newMemRepo(), tr)

	doRequest(t, http.MethodPost, ts.URL+"/api/translate", `{"text":"x","target_lang":"en"}`)
	resp, body := doRequest(t, http.MethodGet, ts.URL+"/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	text := string(body)
	assert.Contains(t, text, `leaftran_translations_total{outcome="cached"} 1`)
	assert.Contains(t, text, `leaftran_http_requests_total{code="200",method="POST",route="/api/translate"} 1`)
}

// The session store, HTTP client, server and sqlite store working together.
func TestEndToEnd_SessionOverHTTP(t *testing.T) {
	db, err := store.New(filepath.Join(t.TempDir(), "leaftran.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tr := &fakeTranslator{res: translation.Result{Text: "Hello"}}
	ts := newTestServer(t, db, tr)

	ctx := context.Background()
	sess := session.New(client.New(ts.URL, ts.Client()),
		session.WithClock(func() time.Time { return fixedNow }),
		session.WithIDGenerator(func() string { return "leaflet-1" }),
	)
	require.NoError(t, sess.Init(ctx))

	sess.ChangeInputText(0, "שלום")
	require.NoError(t, sess.TranslateSection(ctx, 0))
	sess.RenameLeaflet("Greeting")

	saved, err := sess.SaveLeaflet(ctx)
	require.NoError(t, err)
	assert.Equal(t, "leaflet-1", saved.ID)

	stored, err := db.GetLeaflet(ctx, "leaflet-1")
	require.NoError(t, err)
	assert.Equal(t, "Greeting", stored.Name)
	assert.Equal(t, "Hello", stored.Sections[0].Translation)

	require.NoError(t, sess.DeleteLeaflet(ctx, "leaflet-1"))
	_, err = db.GetLeaflet(ctx, "leaflet-1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	err = sess.DeleteLeaflet(ctx, "leaflet-1")
	var env *session.Envelope
	require.ErrorAs(t, err, &env)
	assert.Equal(t, "404", env.Code)
	assert.Equal(t, "Leaflet not found", env.Details)
}
