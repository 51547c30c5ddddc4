// Package client builds the one-shot HTTP client used for a single request
// and sends that request.
package client

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ideaspaper/rq/internal/constants"
	"github.com/ideaspaper/rq/internal/httputil"
	"github.com/ideaspaper/rq/pkg/errors"
	"github.com/ideaspaper/rq/pkg/models"
)

// HTTPDoer defines the interface for sending HTTP requests.
// This abstraction enables dependency injection and easier testing.
type HTTPDoer interface {
	Send(ctx context.Context, request *models.HttpRequest) (*models.HttpResponse, error)
	DefaultHeaders() map[string]string
}

// Ensure HttpClient implements HTTPDoer
var _ HTTPDoer = (*HttpClient)(nil)

// ClientConfig holds the transport-affecting subset of the invocation options.
type ClientConfig struct {
	Timeout         time.Duration
	FollowRedirects bool
	HTTP2Only       bool
	Proxy           string
	UserAgent       string
}

// DefaultConfig returns a default client configuration
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		Timeout:         constants.DefaultTimeout,
		FollowRedirects: true,
	}
}

// ConfigFromOptions extracts the client configuration from invocation options.
func ConfigFromOptions(opts *models.Options) *ClientConfig {
	return &ClientConfig{
		Timeout:         opts.Timeout,
		FollowRedirects: opts.AllowRedirects,
		HTTP2Only:       opts.HTTP2Only,
		Proxy:           opts.Proxy,
		UserAgent:       opts.UserAgent,
	}
}

// HttpClient sends exactly the requests it is given, once each. It is built
// per invocation and not shared.
type HttpClient struct {
	config  ClientConfig
	client  *http.Client
	headers map[string]string
}

// NewHttpClient creates a new HTTP client
func NewHttpClient(config *ClientConfig) (*HttpClient, error) {
	if config == nil {
		config = DefaultConfig()
	}

	proxyURL, err := parseProxy(config.Proxy)
	if err != nil {
		return nil, err
	}

	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = constants.DefaultUserAgent
	}

	// Send applies the deadline so it also covers reading the body.
	client := &http.Client{
		Transport: newTransport(config.HTTP2Only, proxyURL),
	}

	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if !config.FollowRedirects {
			return http.ErrUseLastResponse
		}
		if len(via) >= constants.MaxRedirects {
			return fmt.Errorf("stopped after %d redirects", constants.MaxRedirects)
		}
		return nil
	}

	return &HttpClient{
		config:  *config,
		client:  client,
		headers: map[string]string{constants.HeaderUserAgent: userAgent},
	}, nil
}

// Config returns a copy of the configuration the client was built from.
func (c *HttpClient) Config() ClientConfig {
	return c.config
}

// DefaultHeaders returns the headers every request starts from.
func (c *HttpClient) DefaultHeaders() map[string]string {
	return maps.Clone(c.headers)
}

// parseProxy validates a proxy URL. An empty string means no explicit proxy.
func parseProxy(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, nil
	}
	proxyURL, err := url.Parse(raw)
	if err != nil {
		return nil, errors.NewValidationErrorWithValue("proxy", raw, err.Error())
	}
	switch strings.ToLower(proxyURL.Scheme) {
	case "http", "https", "socks5", "socks5h":
	case "":
		return nil, errors.NewValidationErrorWithValue("proxy", raw, "missing scheme")
	default:
		return nil, errors.NewValidationErrorWithValue("proxy", raw, "unsupported scheme "+proxyURL.Scheme)
	}
	if proxyURL.Hostname() == "" {
		return nil, errors.NewValidationErrorWithValue("proxy", raw, "missing host")
	}
	return proxyURL, nil
}

// Send sends the request and returns once response headers have arrived.
// The returned body must be closed; closing it also releases the request
// deadline, which covers reading the body too.
func (c *HttpClient) Send(ctx context.Context, request *models.HttpRequest) (*models.HttpResponse, error) {
	method, target := string(request.Method), request.URL.String()

	timeout := request.Timeout
	if timeout <= 0 {
		timeout = c.config.Timeout
	}
	cancel := context.CancelFunc(func() {})
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, request.Body)
	if err != nil {
		cancel()
		request.Close()
		return nil, errors.NewRequestErrorWithURL("build", method, target, err)
	}

	if f, ok := request.Body.(fs.File); ok {
		if info, err := f.Stat(); err == nil && info.Mode().IsRegular() {
			req.ContentLength = info.Size()
		}
	}

	for _, k := range httputil.SortedNames(request.Headers) {
		v := request.Headers[k]
		if strings.EqualFold(k, "Host") {
			req.Host = v
			continue
		}
		req.Header.Set(k, v)
	}

	if request.ContentType != "" {
		req.Header.Set(constants.HeaderContentType, request.ContentType)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		cancel()
		return nil, sendError("send", method, target, err)
	}

	return &models.HttpResponse{
		StatusCode:    resp.StatusCode,
		Status:        resp.Status,
		Proto:         resp.Proto,
		Headers:       resp.Header,
		ContentLength: resp.ContentLength,
		Body:          &responseBody{body: resp.Body, cancel: cancel, method: method, url: target},
		Duration:      time.Since(start),
	}, nil
}

// sendError classifies a transport failure, marking deadline expiry.
func sendError(op, method, target string, err error) *errors.RequestError {
	reqErr := errors.NewRequestErrorWithURL(op, method, target, err)
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		reqErr.Timeout = true
	}
	return reqErr
}

// responseBody ties the request deadline to the body's lifetime and reports
// read failures in the same taxonomy as send failures.
type responseBody struct {
	body   io.ReadCloser
	cancel context.CancelFunc
	method string
	url    string
}

func (b *responseBody) Read(p []byte) (int, error) {
	n, err := b.body.Read(p)
	if err != nil && err != io.EOF {
		return n, sendError("read", b.method, b.url, err)
	}
	return n, err
}

func (b *responseBody) Close() error {
	defer b.cancel()
	return b.body.Close()
}
