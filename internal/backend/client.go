// Package backend is the client for the remote processing service that
// performs extraction, retrieval, response generation, and drafting.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/JaimeStill/patentbot/internal/record"
	"github.com/JaimeStill/patentbot/pkg/retry"
	"github.com/JaimeStill/patentbot/pkg/stream"
)

const (
	tracerName   = "github.com/JaimeStill/patentbot/internal/backend"
	excerptLimit = 512
)

// Client calls the processing service. Every call is rate limited, bounded
// by the configured timeout per attempt, and retried on transient failure.
type Client struct {
	baseURL   string
	http      *http.Client
	timeout   time.Duration
	chunkSize int
	policy    retry.Policy
	limiter   *rate.Limiter
	tracer    trace.Tracer
	logger    *slog.Logger
}

// New creates a Client from a finalized config.
func New(cfg *Config, logger *slog.Logger) *Client {
	return &Client{
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		http:      &http.Client{},
		timeout:   cfg.TimeoutDuration(),
		chunkSize: cfg.StreamChunkSize,
		policy:    cfg.Retry,
		limiter:   rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		tracer:    otel.Tracer(tracerName),
		logger:    logger.With("system", "backend"),
	}
}

// ExtractText uploads the case documents and returns the initial record.
func (c *Client) ExtractText(ctx context.Context, uploads []Upload) (*record.Record, error) {
	body, contentType, err := encodeMultipart(uploads)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", StepExtractText, err)
	}
	return c.call(ctx, StepExtractText, contentType, body)
}

// FetchReferences enriches the record with the cited reference data.
func (c *Client) FetchReferences(ctx context.Context, rec *record.Record) (*record.Record, error) {
	return c.callRecord(ctx, StepFetchReferences, rec)
}

// RetrieveKnowledgeBase adds knowledge-base context to the record.
func (c *Client) RetrieveKnowledgeBase(ctx context.Context, rec *record.Record) (*record.Record, error) {
	return c.callRecord(ctx, StepRetrieveKnowledgeBase, rec)
}

// RespondToRejections adds rejected_claims_list and candidate responses.
func (c *Client) RespondToRejections(ctx context.Context, rec *record.Record) (*record.Record, error) {
	return c.callRecord(ctx, StepRespondToRejections, rec)
}

// GenerateDraft exports the final draft from a fully annotated record.
func (c *Client) GenerateDraft(ctx context.Context, rec *record.Record) (*record.Record, error) {
	return c.callRecord(ctx, StepGenerateDraft, rec)
}

// PlanStrategy streams the response strategy, passing each piece to onChunk,
// and returns the full text once the stream is drained.
func (c *Client) PlanStrategy(ctx context.Context, rec *record.Record, onChunk func(string) error) (string, error) {
	return c.stream(ctx, StepPlanStrategy, rec, onChunk)
}

// ExecuteStrategy streams the generated response text the same way as PlanStrategy.
func (c *Client) ExecuteStrategy(ctx context.Context, rec *record.Record, onChunk func(string) error) (string, error) {
	return c.stream(ctx, StepExecuteStrategy, rec, onChunk)
}

func (c *Client) callRecord(ctx context.Context, step Step, rec *record.Record) (*record.Record, error) {
	body, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("%s: encode record: %w", step, err)
	}
	return c.call(ctx, step, "application/json", body)
}

func (c *Client) call(ctx context.Context, step Step, contentType string, body []byte) (*record.Record, error) {
	ctx, span := c.startSpan(ctx, step, len(body))
	defer span.End()

	rec, err := retry.Do(ctx, c.policy, func() (*record.Record, error) {
		resp, cancel, err := c.send(ctx, step, contentType, body)
		if err != nil {
			return nil, err
		}
		defer cancel()
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, c.attemptError(ctx, step, fmt.Errorf("read response: %w", err))
		}

		rec, err := record.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedResponse, step, err)
		}
		return rec, nil
	}, IsTransient, c.notify(step))

	endSpan(span, err)
	return rec, err
}

func (c *Client) stream(ctx context.Context, step Step, rec *record.Record, onChunk func(string) error) (string, error) {
	body, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("%s: encode record: %w", step, err)
	}

	ctx, span := c.startSpan(ctx, step, len(body))
	defer span.End()

	type opened struct {
		resp   *http.Response
		cancel context.CancelFunc
	}

	// only opening the stream is retried; a stream cut off midway is a failure
	o, err := retry.Do(ctx, c.policy, func() (opened, error) {
		resp, cancel, err := c.send(ctx, step, "application/json", body)
		return opened{resp: resp, cancel: cancel}, err
	}, IsTransient, c.notify(step))
	if err != nil {
		endSpan(span, err)
		return "", err
	}
	defer o.cancel()
	defer o.resp.Body.Close()

	text, err := stream.Drain(ctx, o.resp.Body, c.chunkSize, onChunk)
	span.SetAttributes(attribute.Int("patentbot.stream.bytes", len(text)))
	if err != nil {
		err = fmt.Errorf("%s: read stream: %w", step, err)
	}

	endSpan(span, err)
	return text, err
}

// send performs one attempt. On success the caller owns the response body
// and must call cancel once the body is consumed.
func (c *Client) send(ctx context.Context, step Step, contentType string, body []byte) (*http.Response, context.CancelFunc, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, err
	}

	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, c.baseURL+step.Path(), bytes.NewReader(body))
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("%s: build request: %w", step, err)
	}
	req.Header.Set("Content-Type", contentType)
	otel.GetTextMapPropagator().Inject(attemptCtx, propagation.HeaderCarrier(req.Header))

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		cancel()
		return nil, nil, c.attemptError(ctx, step, err)
	}

	if resp.StatusCode != http.StatusOK {
		defer cancel()
		defer resp.Body.Close()

		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, excerptLimit))
		return nil, nil, &StatusError{
			Step:       step,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(excerpt)),
		}
	}

	c.logger.Debug("step responded", "step", step, "duration", time.Since(start))
	return resp, cancel, nil
}

// attemptError wraps a failed attempt. A deadline that belongs to the
// attempt alone, with the caller's context still live, is marked
// ErrAttemptTimeout so the next attempt can run.
func (c *Client) attemptError(ctx context.Context, step Step, err error) error {
	if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w after %s: %w", step, ErrAttemptTimeout, c.timeout, err)
	}
	return fmt.Errorf("%s: %w", step, err)
}

func (c *Client) notify(step Step) retry.Notify {
	return func(err error, delay time.Duration) {
		c.logger.Warn("retrying step", "step", step, "error", err, "delay", delay)
	}
}

func (c *Client) startSpan(ctx context.Context, step Step, size int) (context.Context, trace.Span) {
	return c.tracer.Start(ctx, "backend."+string(step),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("patentbot.step", string(step)),
			attribute.String("http.request.method", http.MethodPost),
			attribute.Int("http.request.body.size", size),
		),
	)
}

func endSpan(span trace.Span, err error) {
	if err == nil {
		return
	}
	var status *StatusError
	if errors.As(err, &status) {
		span.SetAttributes(attribute.Int("http.response.status_code", status.StatusCode))
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
