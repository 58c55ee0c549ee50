package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/recallo/recallo-cli/internal/domain"
	"github.com/recallo/recallo-cli/internal/ports"
)

const (
	maxResponseBytes      = 1 << 20
	defaultRequestTimeout = 30 * time.Second
)

// Client talks to the study-assistant backend. It implements the
// conversation, assistant and upload collaborators.
type Client struct {
	baseURL        *url.URL
	httpClient     *http.Client
	requestTimeout time.Duration
	tokens         ports.SecretStore
	tokenKey       string
	logger         *slog.Logger
}

type Options struct {
	BaseURL        string
	HTTPClient     *http.Client
	RequestTimeout time.Duration
	// Tokens and TokenKey locate the bearer token. Requests go out without an
	// Authorization header when either is unset or no token is stored.
	Tokens   ports.SecretStore
	TokenKey string
	Logger   *slog.Logger
}

var (
	_ ports.ConversationAPI = (*Client)(nil)
	_ ports.AssistantAPI    = (*Client)(nil)
	_ ports.UploadAPI       = (*Client)(nil)
)

func NewClient(opts Options) (*Client, error) {
	baseURL, err := parseBaseURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Client{
		baseURL:        baseURL,
		httpClient:     httpClient,
		requestTimeout: timeout,
		tokens:         opts.Tokens,
		tokenKey:       opts.TokenKey,
		logger:         logger,
	}, nil
}

type request struct {
	op          string
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
	// notFound is returned for 404 responses instead of a RemoteError.
	notFound error
}

func jsonRequest(op, method, path string, payload any) (request, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return request{}, fmt.Errorf("%s: encode request: %w", op, err)
	}
	return request{op: op, method: method, path: path, body: bytes.NewReader(data), contentType: "application/json"}, nil
}

// do sends req and decodes a JSON success body into out when out is non-nil.
func (c *Client) do(ctx context.Context, req request, out any) error {
	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()

	endpoint := c.endpoint(req.path, req.query)
	httpReq, err := http.NewRequestWithContext(requestCtx, req.method, endpoint, req.body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", req.op, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	if err := c.authorize(ctx, httpReq); err != nil {
		return fmt.Errorf("%s: %w", req.op, err)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s: %w", req.op, ctxErr)
		}
		return &domain.RemoteError{Op: req.op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug("backend request",
		"op", req.op,
		"method", req.method,
		"path", req.path,
		"status", resp.StatusCode,
		"elapsed", time.Since(started),
	)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return c.statusError(req, resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return &domain.RemoteError{Op: req.op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}

	return nil
}

func (c *Client) statusError(req request, resp *http.Response) error {
	message := decodeErrorMessage(resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound && req.notFound != nil:
		return fmt.Errorf("%s: %w", req.op, req.notFound)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%s: status %d: %w", req.op, resp.StatusCode, domain.ErrUnauthenticated)
	}

	remote := &domain.RemoteError{Op: req.op, StatusCode: resp.StatusCode}
	if message != "" {
		remote.Err = errors.New(message)
	}
	return remote
}

func (c *Client) authorize(ctx context.Context, req *http.Request) error {
	if c.tokens == nil || strings.TrimSpace(c.tokenKey) == "" {
		return nil
	}

	token, err := c.tokens.Get(ctx, c.tokenKey)
	if err != nil {
		if errors.Is(err, domain.ErrSecretNotFound) {
			return nil
		}
		return fmt.Errorf("load access token: %w", err)
	}
	if token = strings.TrimSpace(token); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return nil
}

func (c *Client) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}

	return context.WithTimeout(ctx, c.requestTimeout)
}

func (c *Client) endpoint(path string, query url.Values) string {
	endpoint := *c.baseURL
	endpoint.Path = strings.TrimSuffix(endpoint.Path, "/") + path
	endpoint.RawQuery = ""
	if len(query) > 0 {
		endpoint.RawQuery = query.Encode()
	}
	return endpoint.String()
}

func parseBaseURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("api base url is required")
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, errors.New("api base url must use http or https")
	}
	if parsed.Host == "" {
		return nil, errors.New("api base url host is required")
	}

	return parsed, nil
}

func decodeErrorMessage(body io.Reader) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(io.LimitReader(body, maxResponseBytes)).Decode(&payload); err != nil {
		return ""
	}
	if payload.Error != "" {
		return payload.Error
	}
	return payload.Message
}
