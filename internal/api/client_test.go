// internal/api/client_test.go
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/skylens/aroverlay/pkg/poi"
)

func TestNew(t *testing.T) {
	c := New("http://localhost:5000", "secret123")

	if c == nil {
		t.Fatal("New returned nil")
	}
	if c.baseURL != "http://localhost:5000" {
		t.Errorf("expected baseURL=http://localhost:5000, got %s", c.baseURL)
	}
	if c.apiKey != "secret123" {
		t.Errorf("expected apiKey=secret123, got %s", c.apiKey)
	}
	if c.httpClient == nil {
		t.Error("httpClient is nil")
	}
}

func TestNew_TrimsTrailingSlash(t *testing.T) {
	c := New("http://localhost:5000/", "secret")
	if c.baseURL != "http://localhost:5000" {
		t.Errorf("expected trailing slash trimmed, got %s", c.baseURL)
	}
}

func TestHealthcheck_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthcheck" {
			t.Errorf("expected path /healthcheck, got %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := New(server.URL, "")
	err := c.Healthcheck()
	if err != nil {
		t.Errorf("Healthcheck failed: %v", err)
	}
}

func TestHealthcheck_ServerDown(t *testing.T) {
	c := New("http://localhost:59999", "") // unlikely to be listening
	err := c.Healthcheck()
	if err == nil {
		t.Error("expected error for unreachable server")
	}
}

func TestHealthcheck_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := New(server.URL, "")
	err := c.Healthcheck()
	if err == nil {
		t.Error("expected error for 500 response")
	}
}

func TestFetchAnnotations_Success(t *testing.T) {
	var receivedKey, receivedSet string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/pois" {
			t.Errorf("expected path /api/v1/pois, got %s", r.URL.Path)
		}
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		receivedKey = r.Header.Get("X-API-Key")
		receivedSet = r.URL.Query().Get("set")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id": "cafe-central", "title": "Café Central", "latitude": 48.210333, "longitude": 16.365472, "tags": {"category": "cafe"}},
			{"id": "bogus", "title": "Bad", "latitude": 999, "longitude": 16},
			{"id": "stephansdom", "title": "Stephansdom", "latitude": 48.208493, "longitude": 16.373118}
		]`))
	}))
	defer server.Close()

	c := New(server.URL, "mysecret")
	annotations, err := c.FetchAnnotations(context.Background(), "vienna")
	if err != nil {
		t.Fatalf("FetchAnnotations failed: %v", err)
	}

	if receivedKey != "mysecret" {
		t.Errorf("expected X-API-Key=mysecret, got %s", receivedKey)
	}
	if receivedSet != "vienna" {
		t.Errorf("expected set=vienna, got %s", receivedSet)
	}

	// The entry with invalid coordinates is dropped.
	if len(annotations) != 2 {
		t.Fatalf("expected 2 annotations, got %d", len(annotations))
	}
	if annotations[0].ID != "cafe-central" {
		t.Errorf("expected first annotation cafe-central, got %s", annotations[0].ID)
	}
	if annotations[0].Tags["category"] != "cafe" {
		t.Errorf("expected tag category=cafe, got %s", annotations[0].Tags["category"])
	}
	if annotations[1].ID != "stephansdom" {
		t.Errorf("expected second annotation stephansdom, got %s", annotations[1].ID)
	}
}

func TestFetchAnnotations_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	c := New(server.URL, "wrong-secret")
	_, err := c.FetchAnnotations(context.Background(), "vienna")
	if err == nil {
		t.Error("expected error for 403 response")
	}
}

func TestPushAnnotations_Success(t *testing.T) {
	var receivedKey string
	var receivedBody []annotationPayload

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/pois" {
			t.Errorf("expected path /api/v1/pois, got %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		receivedKey = r.Header.Get("X-API-Key")
		if err := json.NewDecoder(r.Body).Decode(&receivedBody); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := New(server.URL, "mysecret")
	err := c.PushAnnotations(context.Background(), "vienna", []poi.Annotation{
		{ID: "a", Title: "A", Location: poi.Location{Latitude: 48.2, Longitude: 16.4}},
	})
	if err != nil {
		t.Fatalf("PushAnnotations failed: %v", err)
	}

	if receivedKey != "mysecret" {
		t.Errorf("expected X-API-Key=mysecret, got %s", receivedKey)
	}
	if len(receivedBody) != 1 || receivedBody[0].ID != "a" {
		t.Errorf("unexpected body: %+v", receivedBody)
	}
}

func TestPushAnnotations_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := New(server.URL, "secret")
	err := c.PushAnnotations(context.Background(), "", nil)
	if err == nil {
		t.Error("expected error for 500 response")
	}
}
