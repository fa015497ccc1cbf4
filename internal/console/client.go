// Package console is the operator's terminal client for the patentbot API:
// case intake, pipeline runs with live progress, and interactive claim
// resolution.
package console

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/patentbot/internal/cases"
	"github.com/JaimeStill/patentbot/internal/documents"
	"github.com/JaimeStill/patentbot/internal/resolution"
	"github.com/JaimeStill/patentbot/pkg/pagination"
	"github.com/JaimeStill/patentbot/pkg/retry"
)

// APIError is a non-success response from the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: %s", http.StatusText(e.Status))
	}
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// Upload is a local file sent at case intake.
type Upload struct {
	Role documents.Role
	Path string
}

// CreateRequest is the intake form of a new case.
type CreateRequest struct {
	Title   string
	Mode    cases.Mode
	Uploads []Upload
}

// Client calls the patentbot API. Reads are retried on transient failure;
// writes and pipeline runs are sent once.
type Client struct {
	baseURL string
	token   string
	timeout time.Duration
	policy  retry.Policy
	http    *http.Client
}

// NewClient creates a Client from a validated config.
func NewClient(cfg Config) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		timeout: cfg.Timeout,
		policy:  cfg.Retry,
		http:    &http.Client{},
	}
}

// ListCases returns one page of cases, newest first.
func (c *Client) ListCases(ctx context.Context, page, pageSize int) (*pagination.PageResult[cases.Case], error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		q.Set("page_size", strconv.Itoa(pageSize))
	}

	var out pagination.PageResult[cases.Case]
	if err := c.get(ctx, "/cases?"+q.Encode(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FindCase returns a case with its record.
func (c *Client) FindCase(ctx context.Context, id uuid.UUID) (*cases.Case, error) {
	var out cases.Case
	if err := c.get(ctx, "/cases/"+id.String(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Documents lists the source documents of a case.
func (c *Client) Documents(ctx context.Context, caseID uuid.UUID) ([]documents.Document, error) {
	var out []documents.Document
	if err := c.get(ctx, "/cases/"+caseID.String()+"/documents", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Progress returns the events of the latest run of a case.
func (c *Client) Progress(ctx context.Context, caseID uuid.UUID) ([]cases.Event, error) {
	var out []cases.Event
	if err := c.get(ctx, "/cases/"+caseID.String()+"/progress", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateCase uploads the intake form. Files are read from disk and sent in
// fields named after their role.
func (c *Client) CreateCase(ctx context.Context, req CreateRequest) (*cases.Intake, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("title", req.Title); err != nil {
		return nil, err
	}
	if req.Mode != "" {
		if err := w.WriteField("mode", string(req.Mode)); err != nil {
			return nil, err
		}
	}

	for _, u := range req.Uploads {
		if err := attach(w, u); err != nil {
			return nil, err
		}
	}

	if err := w.Close(); err != nil {
		return nil, err
	}

	var out cases.Intake
	if err := c.send(ctx, http.MethodPost, "/cases", w.FormDataContentType(), &buf, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteCase removes a case with its documents and session.
func (c *Client) DeleteCase(ctx context.Context, id uuid.UUID) error {
	return c.send(ctx, http.MethodDelete, "/cases/"+id.String(), "", nil, nil)
}

// RunCase executes or resumes the pipeline of a case and calls onEvent for
// each progress event as it arrives. The run is not bounded by the client
// timeout. It returns the last event received.
func (c *Client) RunCase(ctx context.Context, id uuid.UUID, onEvent func(cases.Event)) (*cases.Event, error) {
	req, err := c.request(ctx, http.MethodPost, "/cases/"+id.String()+"/run", "", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/x-ndjson")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("run case: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	var last *cases.Event
	dec := json.NewDecoder(resp.Body)
	for {
		var ev cases.Event
		if err := dec.Decode(&ev); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return last, fmt.Errorf("read progress: %w", err)
		}
		last = &ev
		if onEvent != nil {
			onEvent(ev)
		}
	}

	if last == nil {
		return nil, fmt.Errorf("run case: empty progress stream")
	}
	return last, nil
}

// StartSession creates the resolution session of a case, or returns the
// existing one.
func (c *Client) StartSession(ctx context.Context, caseID uuid.UUID) (*resolution.Session, error) {
	var out resolution.Session
	if err := c.send(ctx, http.MethodPost, "/cases/"+caseID.String()+"/session", "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Present returns the current claim of a session, or its draft.
func (c *Client) Present(ctx context.Context, sessionID uuid.UUID) (*resolution.Presentation, error) {
	var out resolution.Presentation
	if err := c.get(ctx, "/sessions/"+sessionID.String(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Select stages a disposition for the claim under the cursor.
func (c *Client) Select(ctx context.Context, sessionID uuid.UUID, cmd resolution.SelectCommand) (*resolution.Presentation, error) {
	return c.command(ctx, "/sessions/"+sessionID.String()+"/select", cmd)
}

// Confirm commits the staged disposition and advances the cursor.
func (c *Client) Confirm(ctx context.Context, sessionID uuid.UUID, cmd resolution.ConfirmCommand) (*resolution.Presentation, error) {
	return c.command(ctx, "/sessions/"+sessionID.String()+"/confirm", cmd)
}

// Finalize generates the draft of a fully resolved session.
func (c *Client) Finalize(ctx context.Context, sessionID uuid.UUID) (*resolution.Presentation, error) {
	var out resolution.Presentation
	if err := c.send(ctx, http.MethodPost, "/sessions/"+sessionID.String()+"/finalize", "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) command(ctx context.Context, path string, cmd any) (*resolution.Presentation, error) {
	body, err := json.Marshal(cmd)
	if err != nil {
		return nil, err
	}

	var out resolution.Presentation
	if err := c.send(ctx, http.MethodPost, path, "application/json", bytes.NewReader(body), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	_, err := retry.Do(ctx, c.policy, func() (struct{}, error) {
		return struct{}{}, c.send(ctx, http.MethodGet, path, "", nil, out)
	}, transient, nil)
	return err
}

func (c *Client) send(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.request(ctx, method, path, contentType, body)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) request(ctx context.Context, method, path, contentType string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func attach(w *multipart.Writer, u Upload) error {
	f, err := os.Open(u.Path)
	if err != nil {
		return fmt.Errorf("open %s: %w", u.Role, err)
	}
	defer f.Close()

	part, err := w.CreateFormFile(string(u.Role), filepath.Base(u.Path))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("read %s: %w", u.Path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if json.Unmarshal(data, &body) != nil {
		body.Error = string(bytes.TrimSpace(data))
	}
	return &APIError{Status: resp.StatusCode, Message: body.Error}
}

// transient retries server errors and transport failures, never a
// cancelled context or a client error.
func transient(err error) bool {
	if retry.IsContextError(err) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= http.StatusInternalServerError
	}
	return true
}
