package proxy

import (
	"bytes"
	"context"
	"net/http"
	"time"
)

// Dispatcher forwards one prepared chat-completion body upstream and
// returns the raw response. Non-2xx statuses come back as responses, not
// errors; an error means the request never completed (connection-level).
type Dispatcher interface {
	Dispatch(ctx context.Context, body []byte, authorization string, stream bool) (*http.Response, error)
}

// Upstream dispatches to the OpenRouter chat-completions endpoint. The
// client Bearer token is forwarded verbatim and never stored.
type Upstream struct {
	baseURL string
	referer string
	title   string

	// client bounds the whole exchange; streamClient only bounds the
	// time to response headers so a long stream is not cut off.
	client       *http.Client
	streamClient *http.Client
}

func NewUpstream(baseURL, referer, title string, attemptTimeout time.Duration) *Upstream {
	return &Upstream{
		baseURL: baseURL,
		referer: referer,
		title:   title,
		client:  &http.Client{Timeout: attemptTimeout},
		streamClient: &http.Client{
			Transport: &http.Transport{ResponseHeaderTimeout: attemptTimeout},
		},
	}
}

func (u *Upstream) Dispatch(ctx context.Context, body []byte, authorization string, stream bool) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", authorization)
	if u.referer != "" {
		req.Header.Set("HTTP-Referer", u.referer)
	}
	if u.title != "" {
		req.Header.Set("X-Title", u.title)
	}
	if stream {
		req.Header.Set("Accept", "text/event-stream")
		return u.streamClient.Do(req)
	}
	return u.client.Do(req)
}
