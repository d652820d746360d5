package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestStaticHandler(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("index"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "table.html"), []byte("table"), 0o644); err != nil {
		t.Fatal(err)
	}
	handler := staticHandler(dir)

	tests := []struct {
		path     string
		wantCode int
		wantBody string
	}{
		{"/", http.StatusOK, "index"},
		{"/table.html", http.StatusOK, "table"},
		{"/t/MESA-AB12", http.StatusOK, "index"},
		{"/racha.v1.TableService/Nope", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
		if rec.Code != tt.wantCode {
			t.Errorf("%s: expected status %d, got %d", tt.path, tt.wantCode, rec.Code)
		}
		if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
			t.Errorf("%s: expected body %q, got %q", tt.path, tt.wantBody, rec.Body.String())
		}
	}
}

func TestCorsMiddleware(t *testing.T) {
	called := false
	handler := corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/racha.v1.TableService/GetTable", nil))
	if rec.Code != http.StatusOK || called {
		t.Errorf("preflight should be answered directly, got %d (called=%v)", rec.Code, called)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected wildcard origin, got %q", got)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/racha.v1.TableService/GetTable", nil))
	if !called {
		t.Error("expected the wrapped handler to run")
	}
}
