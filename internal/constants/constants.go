// Package constants holds header names, media types and defaults shared by
// the request pipeline.
package constants

// Header names set or inspected by rq.
const (
	HeaderContentType    = "Content-Type"
	HeaderAuthorization  = "Authorization"
	HeaderCookie         = "Cookie"
	HeaderUserAgent      = "User-Agent"
	HeaderProxyAuthorize = "Proxy-Authorization"
)

// Media types
const (
	MIMEApplicationJSON   = "application/json"
	MIMEMultipartFormData = "multipart/form-data"
)

// Authorization schemes
const (
	AuthSchemeBasic  = "Basic"
	AuthSchemeBearer = "Bearer"
)

// FileRefPrefix marks a flag value as a path to read instead of a literal.
const FileRefPrefix = "@"

const (
	AppName          = "rq"
	Version          = "0.2.0"
	DefaultUserAgent = AppName + "/" + Version

	// DefaultTimeout of zero leaves requests unbounded.
	DefaultTimeout = 0

	// MaxRedirects caps how many redirects a request follows.
	MaxRedirects = 10
)
