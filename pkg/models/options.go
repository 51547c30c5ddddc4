// Package models defines the values flowing through the request pipeline:
// the invocation options, the built request and the received response.
package models

import (
	"strings"
	"time"
)

// Method is one of the HTTP methods rq can send.
type Method string

const (
	MethodGet    Method = "GET"
	MethodHead   Method = "HEAD"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodPatch  Method = "PATCH"
	MethodDelete Method = "DELETE"
)

// ParseMethod maps a method token case-insensitively onto the supported set.
// Empty or unrecognized tokens resolve to GET.
func ParseMethod(token string) Method {
	switch strings.ToUpper(strings.TrimSpace(token)) {
	case "HEAD":
		return MethodHead
	case "POST":
		return MethodPost
	case "PUT":
		return MethodPut
	case "PATCH":
		return MethodPatch
	case "DELETE":
		return MethodDelete
	default:
		return MethodGet
	}
}

// IsKnownMethod reports whether token names a supported method, ignoring case.
func IsKnownMethod(token string) bool {
	t := strings.ToUpper(strings.TrimSpace(token))
	return t != "" && string(ParseMethod(t)) == t
}

// Auth holds the credentials given on the command line. Both may be set;
// basic is applied first and bearer second.
type Auth struct {
	Basic  string // user:pass
	Bearer string // token
}

// Options is the validated in-memory form of every flag for one invocation.
type Options struct {
	URL            string
	Method         Method
	Auth           Auth
	Headers        []Source
	Cookies        Source
	Body           Source
	Form           string
	Proxy          string
	AllowRedirects bool
	HTTP2Only      bool
	Timeout        time.Duration
	UserAgent      string
	DownloadPath   string
	PrettyPrint    bool
	Verbose        bool
	Debug          bool
}

// DefaultOptions returns options for a plain GET that follows redirects.
func DefaultOptions(url string) *Options {
	return &Options{
		URL:            url,
		Method:         MethodGet,
		AllowRedirects: true,
	}
}
