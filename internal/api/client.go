// Package api is the HTTP client for the local model runtime. The dashboard
// treats it as a black box: every method either returns a typed error or a
// parsed response, and Pull relays the raw progress stream frame by frame.
package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"modeldash/internal/logging"
)

type Client struct {
	base string
	hc   *http.Client
	// stream has no client timeout; pulls run for as long as the download
	// takes and are bounded by their context instead.
	stream *http.Client
	log    *logging.Logger
}

func New(base string, timeout time.Duration, log *logging.Logger) *Client {
	return &Client{
		base:   strings.TrimRight(base, "/"),
		hc:     &http.Client{Timeout: timeout},
		stream: &http.Client{},
		log:    log,
	}
}

// Host returns the endpoint base URL the client talks to.
func (c *Client) Host() string { return c.base }

// ListModels fetches the installed model list from /api/tags.
func (c *Client) ListModels(ctx context.Context) ([]Model, error) {
	var out listResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/tags", nil, &out); err != nil {
		return nil, err
	}
	return out.Models, nil
}

// ShowModel fetches extended metadata for one model from /api/show.
func (c *Client) ShowModel(ctx context.Context, name string) (*ShowResponse, error) {
	var out ShowResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/show", nameRequest{Name: name}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteModel removes a local model via /api/delete.
func (c *Client) DeleteModel(ctx context.Context, name string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/delete", nameRequest{Name: name}, nil)
}

// RunModel asks the runtime to load a model into memory by issuing an empty
// generate request. Fire-and-forget from the dashboard's point of view.
func (c *Client) RunModel(ctx context.Context, name string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/generate", generateRequest{Model: name, Stream: false}, nil)
}

// Pull streams a model install via /api/pull, sending every parsed frame to
// frames in arrival order. It returns nil after a terminal success frame, an
// *APIError for a terminal error frame, and a *StreamError for a frame that
// does not parse. The caller owns the channel and closes nothing here.
func (c *Client) Pull(ctx context.Context, name string, frames chan<- PullProgress) error {
	body, err := json.Marshal(pullRequest{Name: name, Stream: true})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/pull", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := c.stream.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return responseError(res)
	}

	if c.log != nil {
		c.log.Debugf("pull stream opened for %s", name)
	}
	sc := bufio.NewScanner(res.Body)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var frame PullProgress
		if err := json.Unmarshal([]byte(line), &frame); err != nil {
			return &StreamError{Line: line, Err: err}
		}
		if frame.Error != "" {
			return &APIError{Status: res.StatusCode, Message: frame.Error}
		}
		select {
		case frames <- frame:
		case <-ctx.Done():
			return ctx.Err()
		}
		if strings.EqualFold(frame.Status, "success") {
			return nil
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	// Stream ended without a terminal frame.
	return &StreamError{Line: "", Err: io.ErrUnexpectedEOF}
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	res, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return responseError(res)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return &APIError{Status: res.StatusCode, Message: fmt.Sprintf("decode response: %v", err)}
	}
	return nil
}

func responseError(res *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	msg := strings.TrimSpace(string(b))
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(b, &payload) == nil && payload.Error != "" {
		msg = payload.Error
	}
	return &APIError{Status: res.StatusCode, Message: msg}
}
