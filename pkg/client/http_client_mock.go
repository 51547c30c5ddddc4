package client

import (
	"context"
	"io"
	"maps"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/ideaspaper/rq/internal/constants"
	"github.com/ideaspaper/rq/pkg/models"
)

// MockHTTPClient is a mock implementation of HTTPDoer for testing.
type MockHTTPClient struct {
	mu sync.Mutex

	// Response to return from Send
	Response *models.HttpResponse
	// Error to return from Send
	Error error
	// Requests records all requests made
	Requests []*models.HttpRequest
	// ResponseFunc allows dynamic response generation
	ResponseFunc func(*models.HttpRequest) (*models.HttpResponse, error)
	// Headers returned by DefaultHeaders; defaults to the stock User-Agent
	Headers map[string]string
}

// Ensure MockHTTPClient implements HTTPDoer
var _ HTTPDoer = (*MockHTTPClient)(nil)

// NewMockHTTPClient creates a new mock HTTP client
func NewMockHTTPClient() *MockHTTPClient {
	return &MockHTTPClient{
		Requests: make([]*models.HttpRequest, 0),
	}
}

// Send records the request and returns the configured response
func (m *MockHTTPClient) Send(ctx context.Context, request *models.HttpRequest) (*models.HttpResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Requests = append(m.Requests, request)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if m.ResponseFunc != nil {
		return m.ResponseFunc(request)
	}
	return m.Response, m.Error
}

// DefaultHeaders returns a copy of the configured default headers
func (m *MockHTTPClient) DefaultHeaders() map[string]string {
	if m.Headers == nil {
		return map[string]string{constants.HeaderUserAgent: constants.DefaultUserAgent}
	}
	return maps.Clone(m.Headers)
}

// GetLastRequest returns the most recent request or nil
func (m *MockHTTPClient) GetLastRequest() *models.HttpRequest {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.Requests) == 0 {
		return nil
	}
	return m.Requests[len(m.Requests)-1]
}

// Reset clears all recorded requests
func (m *MockHTTPClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests = make([]*models.HttpRequest, 0)
}

// NewMockResponse creates a response with the given status, headers and body.
func NewMockResponse(statusCode int, headers map[string][]string, body string) *models.HttpResponse {
	return &models.HttpResponse{
		StatusCode:    statusCode,
		Status:        statusLine(statusCode),
		Proto:         "HTTP/1.1",
		Headers:       headers,
		ContentLength: int64(len(body)),
		Body:          io.NopCloser(strings.NewReader(body)),
	}
}

func statusLine(code int) string {
	return strings.TrimSpace(strconv.Itoa(code) + " " + http.StatusText(code))
}
