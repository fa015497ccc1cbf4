package handlers_test

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/patentbot/pkg/handlers"
)

func TestRespondJSON(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		data       any
		wantStatus int
	}{
		{
			name:       "200 with map",
			status:     http.StatusOK,
			data:       map[string]string{"key": "value"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "201 with struct",
			status:     http.StatusCreated,
			data:       struct{ ID int }{ID: 42},
			wantStatus: http.StatusCreated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handlers.RespondJSON(rec, tt.status, tt.data)

			res := rec.Result()
			defer res.Body.Close()

			if res.StatusCode != tt.wantStatus {
				t.Errorf("status: got %d, want %d", res.StatusCode, tt.wantStatus)
			}
			if ct := res.Header.Get("Content-Type"); ct != "application/json" {
				t.Errorf("content-type: got %s", ct)
			}

			body, _ := io.ReadAll(res.Body)
			var parsed map[string]any
			if err := json.Unmarshal(body, &parsed); err != nil {
				t.Fatalf("unmarshal failed: %v", err)
			}
		})
	}
}

func TestRespondError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rec := httptest.NewRecorder()

	handlers.RespondError(rec, logger, http.StatusConflict, errors.New("stale cursor"))

	if rec.Code != http.StatusConflict {
		t.Errorf("status: got %d, want 409", rec.Code)
	}

	var parsed map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&parsed); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if parsed["error"] != "stale cursor" {
		t.Errorf("error: got %s, want stale cursor", parsed["error"])
	}
}

func TestDecodeJSON(t *testing.T) {
	type body struct {
		Choice string `json:"choice"`
	}

	tests := []struct {
		name       string
		input      string
		allowEmpty bool
		want       string
		wantErr    bool
	}{
		{"valid", `{"choice":"amend"}`, false, "amend", false},
		{"unknown field", `{"choice":"amend","extra":1}`, false, "", true},
		{"malformed", `{"choice":`, false, "", true},
		{"empty rejected", ``, false, "", true},
		{"empty allowed", ``, true, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/", strings.NewReader(tt.input))
			got, err := handlers.DecodeJSON[body](req, tt.allowEmpty)

			if tt.wantErr {
				if !errors.Is(err, handlers.ErrInvalidBody) {
					t.Fatalf("err = %v, want ErrInvalidBody", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Choice != tt.want {
				t.Errorf("choice = %q, want %q", got.Choice, tt.want)
			}
		})
	}
}

func TestPathUUID(t *testing.T) {
	id := uuid.New()
	mux := http.NewServeMux()

	var got uuid.UUID
	var gotErr error
	mux.HandleFunc("GET /cases/{id}", func(w http.ResponseWriter, r *http.Request) {
		got, gotErr = handlers.PathUUID(r, "id")
	})

	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/cases/"+id.String(), nil))
	if gotErr != nil || got != id {
		t.Errorf("PathUUID = %v, %v; want %v", got, gotErr, id)
	}

	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/cases/not-a-uuid", nil))
	if gotErr == nil {
		t.Error("expected error for malformed id")
	}
}

func TestNDJSONWriter(t *testing.T) {
	rec := httptest.NewRecorder()
	w := handlers.NewNDJSONWriter(rec, http.StatusOK)

	for i := range 3 {
		if err := w.Write(map[string]int{"n": i}); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	if ct := rec.Header().Get("Content-Type"); ct != handlers.ContentTypeNDJSON {
		t.Errorf("content-type: got %s", ct)
	}
	if !rec.Flushed {
		t.Error("expected writer to flush")
	}

	scanner := bufio.NewScanner(rec.Body)
	var lines int
	for scanner.Scan() {
		var v map[string]int
		if err := json.Unmarshal(scanner.Bytes(), &v); err != nil {
			t.Fatalf("line %d: %v", lines, err)
		}
		if v["n"] != lines {
			t.Errorf("line %d: n = %d", lines, v["n"])
		}
		lines++
	}
	if lines != 3 {
		t.Errorf("lines = %d, want 3", lines)
	}
}

func TestWantsNDJSON(t *testing.T) {
	req := httptest.NewRequest("POST", "/", nil)
	if handlers.WantsNDJSON(req) {
		t.Error("no Accept header should not want ndjson")
	}
	req.Header.Set("Accept", "application/x-ndjson")
	if !handlers.WantsNDJSON(req) {
		t.Error("expected ndjson")
	}
}
