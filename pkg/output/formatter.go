// Package output renders requests and responses for the terminal and writes
// response bodies to their destination.
package output

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	"github.com/ideaspaper/rq/internal/httputil"
	"github.com/ideaspaper/rq/internal/stringutil"
	"github.com/ideaspaper/rq/pkg/models"
)

// maxPreviewLen bounds the body preview in request dumps.
const maxPreviewLen = 2048

// Formatter handles response formatting and colorization
type Formatter struct {
	colorEnabled bool

	// Colors
	statusSuccess     *color.Color
	statusRedirect    *color.Color
	statusClientError *color.Color
	statusServerError *color.Color
	headerName        *color.Color
	headerValue       *color.Color
	dim               *color.Color
}

// NewFormatter creates a new formatter
func NewFormatter(colorEnabled bool) *Formatter {
	f := &Formatter{
		colorEnabled:      colorEnabled,
		statusSuccess:     color.New(color.FgGreen, color.Bold),
		statusRedirect:    color.New(color.FgYellow, color.Bold),
		statusClientError: color.New(color.FgRed, color.Bold),
		statusServerError: color.New(color.FgRed, color.Bold),
		headerName:        color.New(color.FgCyan),
		headerValue:       color.New(color.FgWhite),
		dim:               color.New(color.FgHiBlack),
	}

	if !colorEnabled {
		color.NoColor = true
	}

	return f
}

// ColorEnabled reports whether output is colorized.
func (f *Formatter) ColorEnabled() bool {
	return f.colorEnabled
}

func (f *Formatter) paint(c *color.Color, s string) string {
	if f.colorEnabled && c != nil {
		return c.Sprint(s)
	}
	return s
}

// FormatStatusLine formats the response status line, e.g. "HTTP/1.1 200 OK".
func (f *Formatter) FormatStatusLine(resp *models.HttpResponse) string {
	proto := resp.Proto
	if proto == "" {
		proto = "HTTP/1.1"
	}
	status := resp.Status
	if status == "" {
		status = fmt.Sprintf("%d", resp.StatusCode)
	}
	return f.paint(f.statusColor(resp.StatusCode), proto+" "+status)
}

// statusColor returns the appropriate color for a status code
func (f *Formatter) statusColor(code int) *color.Color {
	switch {
	case code >= 200 && code < 300:
		return f.statusSuccess
	case code >= 300 && code < 400:
		return f.statusRedirect
	case code >= 400 && code < 500:
		return f.statusClientError
	case code >= 500:
		return f.statusServerError
	default:
		return nil
	}
}

// methodColor returns the appropriate color for an HTTP method
func methodColor(method models.Method) *color.Color {
	switch method {
	case models.MethodGet:
		return color.New(color.FgGreen, color.Bold)
	case models.MethodPost:
		return color.New(color.FgYellow, color.Bold)
	case models.MethodPut:
		return color.New(color.FgBlue, color.Bold)
	case models.MethodDelete:
		return color.New(color.FgRed, color.Bold)
	case models.MethodPatch:
		return color.New(color.FgMagenta, color.Bold)
	default:
		return color.New(color.FgWhite, color.Bold)
	}
}

// FormatHeaders formats response headers, one line per value, sorted by name.
func (f *Formatter) FormatHeaders(headers map[string][]string) string {
	var buf bytes.Buffer
	for _, k := range httputil.SortedNames(headers) {
		for _, v := range headers[k] {
			buf.WriteString(f.headerLine(k, v))
		}
	}
	return buf.String()
}

func (f *Formatter) headerLine(name, value string) string {
	return f.paint(f.headerName, name) + ": " + f.paint(f.headerValue, value) + "\n"
}

// FormatRequest formats a built request the way it would go on the wire:
// request line, headers sorted by name, then the payload description.
func (f *Formatter) FormatRequest(req *models.HttpRequest) string {
	var buf bytes.Buffer

	buf.WriteString(f.paint(methodColor(req.Method), string(req.Method)))
	buf.WriteString(" ")
	buf.WriteString(req.URL.String())
	buf.WriteString("\n")

	for _, k := range httputil.SortedNames(req.Headers) {
		buf.WriteString(f.headerLine(k, req.Headers[k]))
	}
	if req.ContentType != "" {
		buf.WriteString(f.headerLine("Content-Type", req.ContentType))
	}
	if req.Timeout > 0 {
		buf.WriteString(f.paint(f.dim, "# timeout "+req.Timeout.String()))
		buf.WriteString("\n")
	}

	switch {
	case len(req.MultipartParts) > 0:
		buf.WriteString("\n")
		for _, part := range req.MultipartParts {
			if part.IsFile {
				fmt.Fprintf(&buf, "%s=@%s (%s)\n", part.Name, part.FilePath, part.ContentType)
			} else {
				fmt.Fprintf(&buf, "%s=%s\n", part.Name, stringutil.Truncate(part.Value, maxPreviewLen))
			}
		}
	case req.BodyPreview != "":
		buf.WriteString("\n")
		buf.WriteString(stringutil.Truncate(req.BodyPreview, maxPreviewLen))
		buf.WriteString("\n")
	}

	return buf.String()
}

// FormatJSON re-indents a JSON document, preserving key order. It reports
// false when body is not valid JSON.
func (f *Formatter) FormatJSON(body []byte) ([]byte, bool) {
	if !gjson.ValidBytes(body) {
		return nil, false
	}
	out := pretty.Pretty(body)
	if f.colorEnabled {
		out = pretty.Color(out, nil)
	}
	return out, true
}

// FormatSaved formats the summary line for a downloaded body.
func (f *Formatter) FormatSaved(path string, n int64, elapsed time.Duration) string {
	return f.FormatSuccess(fmt.Sprintf("Saved %d bytes to %s", n, path)) +
		f.paint(f.dim, fmt.Sprintf(" (%s)", elapsed.Round(time.Millisecond)))
}

// FormatError formats an error message
func (f *Formatter) FormatError(err error) string {
	msg := "Error: " + strings.TrimSpace(err.Error())
	if f.colorEnabled {
		return color.New(color.FgRed).Sprint(msg)
	}
	return msg
}

// FormatSuccess formats a success message
func (f *Formatter) FormatSuccess(msg string) string {
	if f.colorEnabled {
		return color.New(color.FgGreen).Sprint(msg)
	}
	return msg
}
