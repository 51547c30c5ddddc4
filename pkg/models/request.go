package models

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/http/httpguts"

	"github.com/ideaspaper/rq/pkg/errors"
)

// HttpRequest is a fully built request, ready to send. It is not modified
// after the builder returns it.
type HttpRequest struct {
	Method  Method
	URL     *url.URL
	Headers map[string]string

	// Body is the payload, nil for none. If it implements io.Closer the
	// client closes it once the request has been written.
	Body io.Reader
	// BodyPreview is the literal body text, or a description of a streamed
	// file, used for diagnostics only.
	BodyPreview string
	// ContentType overrides any Content-Type header (set for multipart).
	ContentType    string
	MultipartParts []MultipartPart

	// Timeout bounds the whole exchange; zero means the client default.
	Timeout time.Duration
}

// MultipartPart describes one part of a multipart/form-data body.
type MultipartPart struct {
	Name        string // Field name
	Value       string // Field value (for text fields)
	FilePath    string // Local path to the file
	ContentType string // MIME type of the content
	IsFile      bool   // Whether this is a file upload
}

// Close releases a streamed body that was never sent.
func (r *HttpRequest) Close() error {
	if c, ok := r.Body.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// ValidHeaderName reports whether name is a legal RFC 7230 token.
func ValidHeaderName(name string) bool {
	return httpguts.ValidHeaderFieldName(name)
}

// ValidHeaderValue reports whether value can be sent as a header field value.
// Control characters such as CR and LF are rejected.
func ValidHeaderValue(value string) bool {
	return httpguts.ValidHeaderFieldValue(value)
}

// ValidateURL parses raw as an absolute http or https URL.
func ValidateURL(raw string) (*url.URL, error) {
	invalid := func(msg string, cause error) error {
		if cause != nil {
			return errors.NewBuildError("url", errors.ErrInvalidURL, raw, fmt.Errorf("%s: %w", msg, cause))
		}
		return errors.NewBuildError("url", errors.ErrInvalidURL, raw, fmt.Errorf("%s", msg))
	}

	if strings.TrimSpace(raw) == "" {
		return nil, invalid("URL is required", nil)
	}

	parsedURL, err := url.Parse(raw)
	if err != nil {
		return nil, invalid("parse", err)
	}

	if parsedURL.Scheme == "" {
		return nil, invalid("URL must include scheme (http:// or https://)", nil)
	}

	scheme := strings.ToLower(parsedURL.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, invalid(fmt.Sprintf("unsupported URL scheme: %s (use http or https)", parsedURL.Scheme), nil)
	}

	if parsedURL.Hostname() == "" {
		return nil, invalid("URL must include a host", nil)
	}

	return parsedURL, nil
}
