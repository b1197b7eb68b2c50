// Package proxy contains the routing and failover engine: given an
// inbound chat-completion request it walks the candidate list in priority
// order, dispatches upstream, classifies each outcome, and retries on the
// same model or fails over to the next until success or exhaustion.
package proxy

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/rkilchmn/openrouter-free-scanner/internal/core/domain"
	"github.com/rkilchmn/openrouter-free-scanner/internal/health"
	"github.com/rkilchmn/openrouter-free-scanner/internal/httpclient"
	"github.com/rkilchmn/openrouter-free-scanner/internal/logger"
	"github.com/rkilchmn/openrouter-free-scanner/pkg/api"
)

// CandidateSource publishes the ordered candidate list. Order is failover
// priority.
type CandidateSource interface {
	Current() []api.Model
}

// Request is the in-flight request context: the client payload as parsed
// JSON (so unknown fields survive the round trip), the forwarded
// Authorization header, and the stream flag.
type Request struct {
	Payload       map[string]json.RawMessage
	Authorization string
	Stream        bool
}

// ParseRequest builds a Request from a raw client body.
func ParseRequest(body []byte, authorization string) (*Request, error) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	req := &Request{Payload: payload, Authorization: authorization}
	if raw, ok := payload["stream"]; ok {
		_ = json.Unmarshal(raw, &req.Stream)
	}
	return req, nil
}

// RequestedModel returns the model the client asked for, which the router
// overrides.
func (r *Request) RequestedModel() string {
	var model string
	if raw, ok := r.Payload["model"]; ok {
		_ = json.Unmarshal(raw, &model)
	}
	return model
}

// Result is a successful routed response.
type Result struct {
	Model    string
	Attempts int
	Status   int
	Header   http.Header
	Body     []byte        // set for non-streaming responses
	Stream   io.ReadCloser // set for streaming responses; caller must Close
}

// Config holds the failover policy knobs.
type Config struct {
	SameModelRetries int
	RequestDeadline  time.Duration
	AttemptTimeout   time.Duration
	Backoff          BackoffPolicy
}

func DefaultConfig() Config {
	return Config{
		SameModelRetries: 1,
		RequestDeadline:  3 * time.Minute,
		AttemptTimeout:   60 * time.Second,
		Backoff:          DefaultBackoff(),
	}
}

type Router struct {
	candidates CandidateSource
	tracker    *health.Tracker
	dispatcher Dispatcher
	cfg        Config
}

func NewRouter(candidates CandidateSource, tracker *health.Tracker, dispatcher Dispatcher, cfg Config) *Router {
	if cfg.RequestDeadline <= 0 {
		cfg.RequestDeadline = DefaultConfig().RequestDeadline
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = DefaultConfig().AttemptTimeout
	}
	if cfg.Backoff.Initial <= 0 {
		cfg.Backoff = DefaultBackoff()
	}
	return &Router{
		candidates: candidates,
		tracker:    tracker,
		dispatcher: dispatcher,
		cfg:        cfg,
	}
}

// routeState is the per-request state machine position.
type routeState int

const (
	stateSelecting routeState = iota
	stateDispatching
	stateRetrying
	stateFailingOver
)

// outcome classification of one upstream attempt.
type outcomeClass int

const (
	outcomeSuccess outcomeClass = iota
	outcomeTransient
	outcomeFatal
)

type attemptOutcome struct {
	class  outcomeClass
	result *Result
	err    error
}

// Route drives one inbound request through the failover state machine.
// Within the request, models are tried strictly in candidate order among
// the models available at each selection pass. On success the upstream
// response is returned as-is; the terminal errors are *domain.Error.
func (r *Router) Route(parent context.Context, req *Request) (*Result, error) {
	ctx, cancel := context.WithTimeout(parent, r.cfg.RequestDeadline)
	defer cancel()

	remaining := r.candidates.Current()

	var (
		current     api.Model
		lastErr     error
		attempts    int
		sameRetries int
	)

	st := stateSelecting
	for {
		switch st {
		case stateSelecting:
			// Re-filter on every pass: a model disabled mid-request by a
			// concurrent request is skipped even if it was available earlier.
			avail := remaining[:0:0]
			for _, m := range remaining {
				if r.tracker.IsAvailable(m.ID) {
					avail = append(avail, m)
				}
			}
			if len(avail) == 0 {
				if attempts == 0 {
					return nil, domain.NoModelsError()
				}
				return nil, domain.ExhaustedError(attempts, lastErr)
			}
			remaining = avail
			current = avail[0]
			sameRetries = 0
			st = stateDispatching

		case stateDispatching:
			if err := ctx.Err(); err != nil {
				return nil, domain.ExhaustedError(attempts, lastErr)
			}
			attempts++
			out := r.dispatch(ctx, parent, req, current)

			switch out.class {
			case outcomeSuccess:
				r.tracker.RecordSuccess(current.ID)
				out.result.Attempts = attempts
				return out.result, nil

			case outcomeTransient:
				r.tracker.RecordFailure(current.ID, out.err.Error())
				lastErr = out.err
				if sameRetries < r.cfg.SameModelRetries {
					st = stateRetrying
				} else {
					st = stateFailingOver
				}

			case outcomeFatal:
				r.tracker.RecordFailure(current.ID, out.err.Error())
				lastErr = out.err
				st = stateFailingOver
			}

		case stateRetrying:
			sameRetries++
			delay := r.cfg.Backoff.Delay(sameRetries)
			logger.Debug("retrying same model",
				zap.String("model", current.ID),
				zap.Duration("delay", delay),
				zap.Error(lastErr))
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, domain.ExhaustedError(attempts, lastErr)
			case <-timer.C:
			}
			st = stateDispatching

		case stateFailingOver:
			// Dropping the head is what distinguishes failover from a
			// same-model retry.
			logger.Warn("failing over",
				zap.String("model", current.ID),
				zap.Error(lastErr))
			remaining = remaining[1:]
			st = stateSelecting
		}
	}
}

// dispatch forwards the request to a single model and classifies the
// result. ctx carries the request deadline; parent carries only the
// caller's cancellation.
func (r *Router) dispatch(ctx, parent context.Context, req *Request, model api.Model) attemptOutcome {
	body, err := r.prepareBody(req, model.ID)
	if err != nil {
		return attemptOutcome{class: outcomeFatal, err: err}
	}

	// Streaming attempts run on the parent context: the request deadline
	// must not cut off a handed-off stream body, and client disconnect
	// still cancels it. Time to response headers is bounded by the
	// dispatcher's stream client.
	attemptCtx := parent
	var attemptCancel context.CancelFunc
	if !req.Stream {
		attemptCtx, attemptCancel = context.WithTimeout(ctx, r.cfg.AttemptTimeout)
		defer attemptCancel()
	}

	resp, err := r.dispatcher.Dispatch(attemptCtx, body, req.Authorization, req.Stream)
	if err != nil {
		// Connection-level failures are transient unless the caller is gone.
		return attemptOutcome{class: outcomeTransient, err: err}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if req.Stream {
			return attemptOutcome{class: outcomeSuccess, result: &Result{
				Model:  model.ID,
				Status: resp.StatusCode,
				Header: resp.Header,
				Stream: resp.Body,
			}}
		}
		return r.classifyBody(resp, model.ID)
	}

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	_ = resp.Body.Close()
	upErr := &httpclient.UpstreamError{StatusCode: resp.StatusCode, Body: respBody, URL: model.ID}

	if isTransientStatus(resp.StatusCode) {
		return attemptOutcome{class: outcomeTransient, err: upErr}
	}
	return attemptOutcome{class: outcomeFatal, err: upErr}
}

// classifyBody reads a non-streaming 2xx response. A body that is not
// valid JSON, or that carries a top-level error object, counts as a fatal
// upstream failure even with a 2xx status.
func (r *Router) classifyBody(resp *http.Response, modelID string) attemptOutcome {
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return attemptOutcome{class: outcomeTransient, err: err}
	}

	var probe struct {
		Error *api.ErrorResponse `json:"error"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return attemptOutcome{class: outcomeFatal,
			err: &httpclient.UpstreamError{StatusCode: resp.StatusCode, Body: body, URL: modelID}}
	}
	if probe.Error != nil {
		return attemptOutcome{class: outcomeFatal, err: probe.Error}
	}

	return attemptOutcome{class: outcomeSuccess, result: &Result{
		Model:  modelID,
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   body,
	}}
}

// prepareBody overrides the client-requested model with the router's
// choice and re-serializes the payload.
func (r *Router) prepareBody(req *Request, modelID string) ([]byte, error) {
	id, err := json.Marshal(modelID)
	if err != nil {
		return nil, err
	}
	req.Payload["model"] = id
	return json.Marshal(req.Payload)
}

// isTransientStatus reports whether the upstream status justifies a
// same-model retry: rate limits, timeouts, and server-side errors.
func isTransientStatus(status int) bool {
	switch {
	case status == http.StatusTooManyRequests:
		return true
	case status == http.StatusRequestTimeout:
		return true
	case status >= 500:
		return true
	default:
		return false
	}
}
