package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/patentbot/internal/infrastructure"
	"github.com/JaimeStill/patentbot/pkg/lifecycle"
)

func probe(t *testing.T, h http.Handler, path string) (int, map[string]string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return rec.Code, body
}

func TestProbes(t *testing.T) {
	lc := lifecycle.New()
	router := buildRouter(&infrastructure.Infrastructure{Lifecycle: lc})

	if code, _ := probe(t, router, "/healthz"); code != http.StatusOK {
		t.Errorf("healthz = %d", code)
	}

	if code, body := probe(t, router, "/readyz"); code != http.StatusServiceUnavailable || body["status"] != "not ready" {
		t.Errorf("readyz before startup = %d %v", code, body)
	}

	lc.WaitForStartup()
	if code, _ := probe(t, router, "/readyz"); code != http.StatusOK {
		t.Errorf("readyz after startup = %d", code)
	}
}

func TestReadinessReportsStartupFailure(t *testing.T) {
	lc := lifecycle.New()
	lc.OnStartup(func() error { return errors.New("database not ready") })
	lc.WaitForStartup()

	router := buildRouter(&infrastructure.Infrastructure{Lifecycle: lc})

	code, body := probe(t, router, "/readyz")
	if code != http.StatusServiceUnavailable {
		t.Errorf("readyz = %d", code)
	}
	if body["error"] != "database not ready" {
		t.Errorf("error = %q", body["error"])
	}
}
