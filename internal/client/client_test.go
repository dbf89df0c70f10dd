package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/valpere/leaftran/internal"
	"github.com/valpere/leaftran/internal/session"
)

func TestClient_FetchLeaflets(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/leaflets" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{"leaflets":[{"id":"a","name":"A","date":"2024-01-01T00:00:00.000Z","sections":[{"id":0,"inputText":"x","translation":"y"}]}]}`))
	}))
	defer server.Close()

	c := New(server.URL, server.Client())
	leaflets, err := c.FetchLeaflets(context.Background())
	if err != nil {
		t.Fatalf("FetchLeaflets failed: %v", err)
	}

	if len(leaflets) != 1 {
		t.Fatalf("expected 1 leaflet, got %d", len(leaflets))
	}
	l := leaflets[0]
	if l.ID != "a" || l.Name != "A" {
		t.Errorf("unexpected leaflet %+v", l)
	}
	if !l.Date.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected date %v", l.Date)
	}
	if len(l.Sections) != 1 || l.Sections[0].InputText != "x" || l.Sections[0].Translation != "y" {
		t.Errorf("unexpected sections %+v", l.Sections)
	}
}

func TestClient_SaveLeaflet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected JSON content type, got %q", ct)
		}
		var l internal.Leaflet
		if err := json.NewDecoder(r.Body).Decode(&l); err != nil {
			t.Fatalf("decode: %v", err)
		}
		l.Name = l.Name + " (stored)"
		json.NewEncoder(w).Encode(l)
	}))
	defer server.Close()

	c := New(server.URL+"/", server.Client())
	saved, err := c.SaveLeaflet(context.Background(), internal.NewLeaflet("id-1", time.Now()))
	if err != nil {
		t.Fatalf("SaveLeaflet failed: %v", err)
	}
	if saved.ID != "id-1" || saved.Name != internal.DefaultLeafletName+" (stored)" {
		t.Errorf("unexpected saved leaflet %+v", saved)
	}
}

func TestClient_DeleteLeaflet(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		if r.Method != http.MethodDelete {
			t.Errorf("expected DELETE, got %s", r.Method)
		}
		w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	c := New(server.URL, server.Client())
	if err := c.DeleteLeaflet(context.Background(), "a b"); err != nil {
		t.Fatalf("DeleteLeaflet failed: %v", err)
	}
	if gotPath != "/api/leaflets/a%20b" {
		t.Errorf("unexpected path %q", gotPath)
	}
}

func TestClient_DeleteLeaflet_NotAcknowledged(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false}`))
	}))
	defer server.Close()

	c := New(server.URL, server.Client())
	if err := c.DeleteLeaflet(context.Background(), "a"); err == nil {
		t.Error("expected error when delete is not acknowledged")
	}
}

func TestClient_Translate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req TranslateRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.SourceLang != "heb" || req.TargetLang != "eng" || req.Text != "שלום" {
			t.Errorf("unexpected request %+v", req)
		}
		json.NewEncoder(w).Encode(TranslateResponse{Translation: "Hello"})
	}))
	defer server.Close()

	c := New(server.URL, server.Client())
	got, err := c.Translate(context.Background(), "heb", "eng", "שלום")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if got != "Hello" {
		t.Errorf("expected Hello, got %q", got)
	}
}

func TestClient_GenerateDocument(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req DocumentRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Content != "A<br><br>" {
			t.Errorf("unexpected content %q", req.Content)
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write([]byte("PK\x03\x04"))
	}))
	defer server.Close()

	c := New(server.URL, server.Client())
	data, err := c.GenerateDocument(context.Background(), "A<br><br>")
	if err != nil {
		t.Fatalf("GenerateDocument failed: %v", err)
	}
	if string(data) != "PK\x03\x04" {
		t.Errorf("unexpected data %q", data)
	}
}

func TestClient_HTTPError(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantMessage string
	}{
		{"json error_message", `{"error_message":"Leaflet not found"}`, "Leaflet not found"},
		{"plain body", "bad gateway", "bad gateway"},
		{"empty body", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			c := New(server.URL, server.Client())
			_, err := c.FetchLeaflets(context.Background())

			var httpErr *HTTPError
			if !errors.As(err, &httpErr) {
				t.Fatalf("expected *HTTPError, got %T (%v)", err, err)
			}
			if httpErr.StatusCode != http.StatusNotFound {
				t.Errorf("expected 404, got %d", httpErr.StatusCode)
			}
			if httpErr.Message != tt.wantMessage {
				t.Errorf("expected message %q, got %q", tt.wantMessage, httpErr.Message)
			}
		})
	}
}

func TestClient_ErrorBecomesEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error_message":"translation provider failed"}`))
	}))
	defer server.Close()

	store := session.New(New(server.URL, server.Client()))
	_, err := store.Translate(context.Background(), "שלום")

	var env *session.Envelope
	if !errors.As(err, &env) {
		t.Fatalf("expected envelope, got %T", err)
	}
	if env.Code != "500" {
		t.Errorf("expected code 500, got %q", env.Code)
	}
	if env.Details != "translation provider failed" {
		t.Errorf("expected server detail, got %q", env.Details)
	}
	if env.Message != session.MsgTranslateFailed {
		t.Errorf("unexpected message %q", env.Message)
	}
}

func TestClient_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	store := session.New(New(url, nil))
	err := store.LoadLeaflets(context.Background())

	var env *session.Envelope
	if !errors.As(err, &env) {
		t.Fatalf("expected envelope, got %T", err)
	}
	if env.Code != session.UnknownCode {
		t.Errorf("expected UNKNOWN, got %q", env.Code)
	}
}
