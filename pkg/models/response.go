package models

import (
	"io"
	"strings"
	"time"

	"github.com/ideaspaper/rq/internal/constants"
	"github.com/ideaspaper/rq/internal/httputil"
)

// HttpResponse is a received response. Body is consumed exactly once, by the
// response handler, which must close it.
type HttpResponse struct {
	StatusCode    int
	Status        string // e.g. "200 OK"
	Proto         string // e.g. "HTTP/1.1"
	Headers       map[string][]string
	ContentLength int64 // -1 when unknown
	Body          io.ReadCloser
	Duration      time.Duration // time until headers arrived
}

// Close closes the body if it has not been consumed.
func (r *HttpResponse) Close() error {
	if r == nil || r.Body == nil {
		return nil
	}
	return r.Body.Close()
}

// GetHeader returns a header value (case-insensitive)
func (r *HttpResponse) GetHeader(name string) string {
	v, _ := httputil.Lookup(r.Headers, name)
	return v
}

// ContentType returns the content type of the response
func (r *HttpResponse) ContentType() string {
	return r.GetHeader(constants.HeaderContentType)
}

// IsJSON returns true if the response declares a JSON content type
func (r *HttpResponse) IsJSON() bool {
	ct := r.ContentType()
	return strings.Contains(ct, constants.MIMEApplicationJSON) || strings.Contains(ct, "+json")
}

// IsSuccess reports a 2xx status.
func (r *HttpResponse) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}
