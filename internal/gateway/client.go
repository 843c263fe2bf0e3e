// Package gateway connects the device-side protocol to its collaborators:
// the HTTP API of a remote server, or the usecases of an in-process one.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"moswords/internal/api"
	"moswords/pkg/errors"
)

// Client talks to the server API with a bearer token. One Client serves as
// registrar, directory, envelope store and message transport.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewHTTPClient() *http.Client {
	dialer := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			DialContext:     dialer.DialContext,
			MaxIdleConns:    100,
			IdleConnTimeout: 90 * time.Second,
		},
	}
}

// NewClient builds a client for baseURL. A nil httpClient gets the defaults
// of NewHTTPClient.
func NewClient(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = NewHTTPClient()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    httpClient,
	}
}

// do sends body as JSON and decodes a 2xx response into out. Error
// responses become AppErrors carrying the server's code and message, so
// they match the server's sentinels under errors.Is.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(errors.CodeInternal, "failed to encode request", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return errors.Wrap(errors.CodeInternal, "failed to build request", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(errors.CodeUnavailable, "server unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr api.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil || apiErr.Code == "" {
			return errors.New(errors.FromHTTPStatus(resp.StatusCode), resp.Status)
		}
		return errors.New(errors.Code(apiErr.Code), apiErr.Message)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(errors.CodeUnavailable, "malformed server response", err)
	}
	return nil
}
