// Package bridge runs HTTP exchanges against a handler or server in memory.
// Requests and responses travel over a pipe instead of a socket, so the
// server side observes a real connection and the client side observes real
// connection failures.
package bridge

import (
	"context"
	"log/slog"
	"net/http"

	"http-bridge/server"

	"github.com/benbjohnson/clock"
)

type Client struct {
	target server.Target

	logger *slog.Logger
	clock  clock.Clock

	opts Options
}

func New(
	target server.Target,
	logger *slog.Logger,
	clock clock.Clock,
	opts Options,
) *Client {
	return &Client{
		target: target,
		logger: logger,
		clock:  clock,
		opts:   opts,
	}
}

func (c *Client) Get(ctx context.Context, url string) (*Envelope, error) {
	return c.Do(ctx, Descriptor{Method: http.MethodGet, URL: url})
}

func (c *Client) Head(ctx context.Context, url string) (*Envelope, error) {
	return c.Do(ctx, Descriptor{Method: http.MethodHead, URL: url})
}

func (c *Client) Delete(ctx context.Context, url string) (*Envelope, error) {
	return c.Do(ctx, Descriptor{Method: http.MethodDelete, URL: url})
}

func (c *Client) Options(ctx context.Context, url string) (*Envelope, error) {
	return c.Do(ctx, Descriptor{Method: http.MethodOptions, URL: url})
}

func (c *Client) Post(ctx context.Context, url string, body any) (*Envelope, error) {
	return c.Do(ctx, Descriptor{Method: http.MethodPost, URL: url, Body: body})
}

func (c *Client) Put(ctx context.Context, url string, body any) (*Envelope, error) {
	return c.Do(ctx, Descriptor{Method: http.MethodPut, URL: url, Body: body})
}

func (c *Client) Patch(ctx context.Context, url string, body any) (*Envelope, error) {
	return c.Do(ctx, Descriptor{Method: http.MethodPatch, URL: url, Body: body})
}
