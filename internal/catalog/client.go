package catalog

import (
	"context"
	"net/http"
	"time"

	"github.com/rkilchmn/openrouter-free-scanner/internal/httpclient"
	"github.com/rkilchmn/openrouter-free-scanner/pkg/api"
)

// Client fetches the OpenRouter model listing and keeps only entries
// eligible for proxying: free pricing, and no router meta-models unless
// explicitly included.
type Client struct {
	baseURL        string
	http           httpclient.Doer
	includeRouters bool
}

type ClientOption func(*Client)

func WithHTTPClient(doer httpclient.Doer) ClientOption {
	return func(c *Client) { c.http = doer }
}

func WithRouters() ClientOption {
	return func(c *Client) { c.includeRouters = true }
}

func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns the free models currently published in the catalog.
func (c *Client) Fetch(ctx context.Context) ([]api.Model, error) {
	var listing api.ModelsResponse
	if err := httpclient.GetJSON(ctx, c.http, c.baseURL+"/models", nil, &listing); err != nil {
		return nil, err
	}

	free := make([]api.Model, 0, len(listing.Data))
	for _, m := range listing.Data {
		if !c.includeRouters && m.IsRouter() {
			continue
		}
		if !m.Pricing.Free() {
			continue
		}
		free = append(free, m)
	}
	return free, nil
}
