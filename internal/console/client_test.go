package console_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/patentbot/internal/cases"
	"github.com/JaimeStill/patentbot/internal/console"
	"github.com/JaimeStill/patentbot/internal/documents"
	"github.com/JaimeStill/patentbot/internal/resolution"
	"github.com/JaimeStill/patentbot/pkg/retry"
)

func newClient(t *testing.T, h http.Handler) *console.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	return console.NewClient(console.Config{
		BaseURL: srv.URL + "/api",
		Token:   "token-123",
		Timeout: 5 * time.Second,
		Retry: retry.Policy{
			MaxAttempts:     3,
			InitialInterval: "1ms",
			MaxInterval:     "5ms",
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestFindCaseSendsToken(t *testing.T) {
	id := uuid.New()

	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer token-123" {
			t.Errorf("Authorization = %q", got)
		}
		if r.URL.Path != "/api/cases/"+id.String() {
			t.Errorf("path = %s", r.URL.Path)
		}
		writeJSON(w, http.StatusOK, cases.Case{ID: id, Title: "Widget", Status: cases.StatusReady})
	}))

	c, err := client.FindCase(context.Background(), id)
	if err != nil {
		t.Fatalf("FindCase: %v", err)
	}
	if c.Title != "Widget" || c.Status != cases.StatusReady {
		t.Errorf("case = %+v", c)
	}
}

func TestReadsRetryServerErrors(t *testing.T) {
	var calls atomic.Int32

	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "starting"})
			return
		}
		if r.URL.Query().Get("page_size") != "5" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"data":        []cases.Case{{Title: "A"}, {Title: "B"}},
			"total":       2,
			"page":        1,
			"page_size":   5,
			"total_pages": 1,
		})
	}))

	page, err := client.ListCases(context.Background(), 1, 5)
	if err != nil {
		t.Fatalf("ListCases: %v", err)
	}
	if len(page.Data) != 2 {
		t.Errorf("got %d cases, want 2", len(page.Data))
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32

	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
	}))

	_, err := client.Present(context.Background(), uuid.New())
	if !console.IsStatus(err, http.StatusNotFound) {
		t.Fatalf("error = %v, want 404 APIError", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}

	var apiErr *console.APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "session not found" {
		t.Errorf("message = %v", err)
	}
}

func TestCreateCaseUploadsFiles(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
		return path
	}

	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if r.FormValue("title") != "Widget" || r.FormValue("mode") != "single_pass" {
			t.Errorf("form = %v", r.MultipartForm.Value)
		}

		prior := r.MultipartForm.File["prior_art"]
		if len(prior) != 2 || prior[0].Filename != "ref1.txt" {
			t.Errorf("prior_art = %d files", len(prior))
		}

		f, err := r.MultipartForm.File["office_action"][0].Open()
		if err != nil {
			t.Errorf("open office_action: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		data, _ := io.ReadAll(f)
		f.Close()
		if string(data) != "rejected" {
			t.Errorf("office_action = %q", data)
		}

		writeJSON(w, http.StatusCreated, cases.Intake{Case: &cases.Case{Title: "Widget"}})
	}))

	intake, err := client.CreateCase(context.Background(), console.CreateRequest{
		Title: "Widget",
		Mode:  cases.ModeSinglePass,
		Uploads: []console.Upload{
			{Role: documents.RoleOfficeAction, Path: write("oa.txt", "rejected")},
			{Role: documents.RolePriorArt, Path: write("ref1.txt", "one")},
			{Role: documents.RolePriorArt, Path: write("ref2.txt", "two")},
		},
	})
	if err != nil {
		t.Fatalf("CreateCase: %v", err)
	}
	if intake.Case.Title != "Widget" {
		t.Errorf("intake = %+v", intake.Case)
	}
}

func TestCreateCaseMissingFile(t *testing.T) {
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request sent for unreadable upload")
	}))

	_, err := client.CreateCase(context.Background(), console.CreateRequest{
		Title:   "Widget",
		Uploads: []console.Upload{{Role: documents.RoleOfficeAction, Path: "/does/not/exist.pdf"}},
	})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestRunCaseStreamsEvents(t *testing.T) {
	id := uuid.New()

	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "application/x-ndjson" {
			t.Errorf("Accept = %q", r.Header.Get("Accept"))
		}
		w.Header().Set("Content-Type", "application/x-ndjson")
		enc := json.NewEncoder(w)
		for _, ev := range []cases.Event{
			{CaseID: id, Type: cases.EventStageStarted, Stage: cases.StageExtracted},
			{CaseID: id, Type: cases.EventStageCompleted, Stage: cases.StageExtracted},
			{CaseID: id, Type: cases.EventCompleted, Stage: cases.StageExtracted},
		} {
			enc.Encode(ev)
		}
	}))

	var seen []cases.EventType
	last, err := client.RunCase(context.Background(), id, func(ev cases.Event) {
		seen = append(seen, ev.Type)
	})
	if err != nil {
		t.Fatalf("RunCase: %v", err)
	}
	if len(seen) != 3 {
		t.Errorf("events = %v", seen)
	}
	if last.Type != cases.EventCompleted {
		t.Errorf("last = %s", last.Type)
	}
}

func TestRunCaseRejected(t *testing.T) {
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "run already in progress"})
	}))

	_, err := client.RunCase(context.Background(), uuid.New(), nil)
	if !console.IsStatus(err, http.StatusConflict) {
		t.Fatalf("error = %v, want 409", err)
	}
}

func TestSessionCommands(t *testing.T) {
	sessionID := uuid.New()
	staged := resolution.Amend

	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/sessions/" + sessionID.String() + "/select":
			var cmd resolution.SelectCommand
			json.NewDecoder(r.Body).Decode(&cmd)
			if cmd.Cursor != 0 || cmd.Choice != resolution.Amend {
				t.Errorf("select = %+v", cmd)
			}
			writeJSON(w, http.StatusOK, resolution.Presentation{
				SessionID: sessionID,
				State:     resolution.StateAwaitingChoice,
				Staged:    &staged,
			})
		case "/api/sessions/" + sessionID.String() + "/confirm":
			var cmd resolution.ConfirmCommand
			json.NewDecoder(r.Body).Decode(&cmd)
			if cmd.Note != "narrow claim 1" {
				t.Errorf("confirm = %+v", cmd)
			}
			writeJSON(w, http.StatusOK, resolution.Presentation{
				SessionID: sessionID,
				State:     resolution.StateDraftGenerated,
				Draft:     "draft text",
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	ctx := context.Background()

	p, err := client.Select(ctx, sessionID, resolution.SelectCommand{Choice: resolution.Amend})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if p.Staged == nil || *p.Staged != resolution.Amend {
		t.Errorf("staged = %v", p.Staged)
	}

	p, err = client.Confirm(ctx, sessionID, resolution.ConfirmCommand{Choice: resolution.Amend, Note: "narrow claim 1"})
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if p.Draft != "draft text" {
		t.Errorf("draft = %q", p.Draft)
	}
}
