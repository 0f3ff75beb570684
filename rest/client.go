package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/bridgeim/bridgeclient/account"
)

const (
	apiPrefix      = "/api/v1"
	requestTimeout = 30 * time.Second
)

// Client issues REST calls carrying the active session's credential.
// It performs no retries. On an unauthorized response it evicts the
// active session from the store, re-selecting the next one, and still
// returns the rejected response to the caller.
type Client struct {
	base     string
	hc       *http.Client
	accounts *account.Store
}

func NewClient(base string, accounts *account.Store) *Client {
	return &Client{
		base:     strings.TrimRight(base, "/"),
		hc:       &http.Client{Timeout: requestTimeout},
		accounts: accounts,
	}
}

// reqOpts tunes one request. The zero value is an authenticated JSON
// request with no body.
type reqOpts struct {
	noAuth      bool
	body        io.Reader
	contentType string // request bodies are structured data unless explicitly binary
}

func (c *Client) do(ctx context.Context, method, path string, opts reqOpts, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.base+apiPrefix+path, opts.body)
	if err != nil {
		return err
	}

	if !opts.noAuth {
		if token := c.accounts.ActiveToken(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	ct := opts.contentType
	if ct == "" {
		ct = "application/json"
	}
	req.Header.Set("Content-Type", ct)

	resp, err := c.hc.Do(req)
	if err != nil {
		glog.V(5).Infof("do(): %s %s: network error: %v", method, path, err)
		return &ConnectivityError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ConnectivityError{Err: err}
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode, Detail: parseDetail(data, resp.StatusCode)}
		if apiErr.CredentialRejected() && !opts.noAuth {
			if removed := c.accounts.RemoveActive(); removed != 0 {
				glog.Errorf("do(): credential rejected on %s %s, evicted session %d", method, path, removed)
			}
		}
		return apiErr
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode %s %s response: %v", method, path, err)
		}
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, reqOpts{}, out)
}

func (c *Client) postJSON(ctx context.Context, path string, in, out interface{}) error {
	return c.doJSON(ctx, http.MethodPost, path, in, out, false)
}

func (c *Client) postJSONNoAuth(ctx context.Context, path string, in, out interface{}) error {
	return c.doJSON(ctx, http.MethodPost, path, in, out, true)
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out interface{}, noAuth bool) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	return c.do(ctx, method, path, reqOpts{noAuth: noAuth, body: body}, out)
}
