package builder

import (
	"context"
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ideaspaper/rq/internal/constants"
	"github.com/ideaspaper/rq/internal/filesystem"
	"github.com/ideaspaper/rq/pkg/client"
	"github.com/ideaspaper/rq/pkg/errors"
	"github.com/ideaspaper/rq/pkg/models"
)

func build(t *testing.T, fsys filesystem.FileSystem, opts *models.Options) (*models.HttpRequest, error) {
	t.Helper()
	return New(fsys).Build(opts, client.NewMockHTTPClient())
}

func mustBuild(t *testing.T, fsys filesystem.FileSystem, opts *models.Options) *models.HttpRequest {
	t.Helper()
	req, err := build(t, fsys, opts)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return req
}

func readBody(t *testing.T, req *models.HttpRequest) string {
	t.Helper()
	if req.Body == nil {
		return ""
	}
	data, err := io.ReadAll(req.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return string(data)
}

func TestBuildMinimal(t *testing.T) {
	req := mustBuild(t, filesystem.NewMockFileSystem(), models.DefaultOptions("https://example.com/api?x=1"))

	if req.Method != models.MethodGet {
		t.Errorf("Method = %s, want GET", req.Method)
	}
	if req.URL.String() != "https://example.com/api?x=1" {
		t.Errorf("URL = %s", req.URL)
	}
	if req.Headers[constants.HeaderUserAgent] != constants.DefaultUserAgent {
		t.Errorf("User-Agent = %q", req.Headers[constants.HeaderUserAgent])
	}
	if req.Body != nil || req.Timeout != 0 {
		t.Errorf("unexpected body or timeout: %+v", req)
	}
}

func TestBuildInvalidURL(t *testing.T) {
	for _, raw := range []string{"", "example.com", "ftp://example.com", "https://"} {
		t.Run(raw, func(t *testing.T) {
			_, err := build(t, filesystem.NewMockFileSystem(), models.DefaultOptions(raw))
			if !errors.Is(err, errors.ErrInvalidURL) {
				t.Errorf("Build(%q) error = %v, want ErrInvalidURL", raw, err)
			}
		})
	}
}

func TestBuildMethodFallback(t *testing.T) {
	tests := []struct {
		method models.Method
		want   models.Method
	}{
		{"post", models.MethodPost},
		{"DELETE", models.MethodDelete},
		{"PUR", models.MethodGet},
		{"", models.MethodGet},
	}

	for _, tt := range tests {
		t.Run(string(tt.method), func(t *testing.T) {
			opts := models.DefaultOptions("http://localhost")
			opts.Method = tt.method
			if got := mustBuild(t, filesystem.NewMockFileSystem(), opts).Method; got != tt.want {
				t.Errorf("Method = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestBuildHeaders(t *testing.T) {
	fsys := filesystem.NewMockFileSystem().
		WithFile("headers.json", `{"X-From-File": "file", "X-Shared": "file", "Accept": "text/html"}`)

	opts := models.DefaultOptions("https://example.com")
	opts.Headers = models.ParseSources([]string{
		"X-Shared=inline",
		"X-Token=a=b=c",
		"@headers.json",
		"Accept=application/json",
		"User-Agent=custom/1.0",
	})

	req := mustBuild(t, fsys, opts)

	want := map[string]string{
		"X-From-File": "file",
		"X-Shared":    "file",
		"X-Token":     "a=b=c",
		"Accept":      "application/json",
		"User-Agent":  "custom/1.0",
	}
	for k, v := range want {
		if req.Headers[k] != v {
			t.Errorf("header %s = %q, want %q", k, req.Headers[k], v)
		}
	}
	if len(req.Headers) != len(want) {
		t.Errorf("headers = %v, want %v", req.Headers, want)
	}
}

func TestBuildHeaderNamesIgnoreCase(t *testing.T) {
	fsys := filesystem.NewMockFileSystem().WithFile("headers.json", `{"x-trace": "file"}`)

	opts := models.DefaultOptions("https://example.com")
	opts.Headers = models.ParseSources([]string{"x-id=1", "X-Id=2", "user-agent=custom", "X-Trace=inline", "@headers.json"})

	req := mustBuild(t, fsys, opts)
	want := map[string]string{
		"X-Id":       "2",
		"user-agent": "custom",
		"x-trace":    "file",
	}
	if len(req.Headers) != len(want) {
		t.Fatalf("headers = %v, want %v", req.Headers, want)
	}
	for k, v := range want {
		if req.Headers[k] != v {
			t.Errorf("header %s = %q, want %q", k, req.Headers[k], v)
		}
	}
}

func TestBuildHeadersOnTheWire(t *testing.T) {
	type seen struct{ userAgent, id string }
	results := make(chan seen, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		results <- seen{r.Header.Get("User-Agent"), r.Header.Get("X-Id")}
	}))
	defer server.Close()

	c, err := client.NewHttpClient(nil)
	if err != nil {
		t.Fatalf("NewHttpClient() error = %v", err)
	}

	// Map iteration order varies between runs, so send repeatedly.
	for i := 0; i < 30; i++ {
		opts := models.DefaultOptions(server.URL)
		opts.Headers = models.ParseSources([]string{"user-agent=custom", "x-id=1", "X-Id=2"})

		req, err := New(filesystem.NewMockFileSystem()).Build(opts, c)
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}
		resp, err := c.Send(context.Background(), req)
		if err != nil {
			t.Fatalf("Send() error = %v", err)
		}
		resp.Close()

		got := <-results
		if got.userAgent != "custom" || got.id != "2" {
			t.Fatalf("attempt %d: server saw User-Agent=%q X-Id=%q, want custom and 2", i, got.userAgent, got.id)
		}
	}
}

func TestBuildHeaderErrors(t *testing.T) {
	fsys := filesystem.NewMockFileSystem().
		WithFile("array.json", `["X-A", "1"]`).
		WithFile("broken.json", `{"X-A": `).
		WithFile("number.json", `{"X-A": "ok", "X-Retries": 3}`).
		WithFile("badname.json", `{"Bad Name": "x"}`).
		WithFile("newline.json", `{"X-A": "line\nbreak"}`)

	tests := []struct {
		name   string
		header string
		want   error
	}{
		{"missing equals", "X-Api-Key", errors.ErrMalformedHeader},
		{"invalid name", "Bad Name=x", errors.ErrMalformedHeader},
		{"empty name", "=x", errors.ErrMalformedHeader},
		{"missing file", "@nope.json", errors.ErrHeaderFile},
		{"not an object", "@array.json", errors.ErrHeaderFile},
		{"invalid JSON", "@broken.json", errors.ErrHeaderFile},
		{"non-string value", "@number.json", errors.ErrBadHeaderValue},
		{"invalid name in file", "@badname.json", errors.ErrMalformedHeader},
		{"control character in value", "X-A=line\nbreak", errors.ErrBadHeaderValue},
		{"control character in file value", "@newline.json", errors.ErrBadHeaderValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := models.DefaultOptions("https://example.com")
			opts.Headers = []models.Source{models.ParseSource(tt.header)}
			req, err := build(t, fsys, opts)
			if !errors.Is(err, tt.want) {
				t.Errorf("Build() error = %v, want %v", err, tt.want)
			}
			if req != nil {
				t.Error("Build() should not return a request on error")
			}
		})
	}
}

func TestBuildCookies(t *testing.T) {
	fsys := filesystem.NewMockFileSystem().
		WithFile("cookies.txt", "session=abc; theme=dark").
		WithFile("cookies-newline.txt", "session=abc; theme=dark\n").
		WithFile("cookies-crlf.txt", "session=abc\r\n").
		WithFile("cookies-multiline.txt", "session=abc\ntheme=dark\n")

	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"inline", "a=1; b=2", "a=1; b=2"},
		{"file is used verbatim", "@cookies.txt", "session=abc; theme=dark"},
		{"trailing newline dropped", "@cookies-newline.txt", "session=abc; theme=dark"},
		{"trailing CRLF dropped", "@cookies-crlf.txt", "session=abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := models.DefaultOptions("https://example.com")
			opts.Headers = models.ParseSources([]string{"cookie=stale"})
			opts.Cookies = models.ParseSource(tt.source)

			req := mustBuild(t, fsys, opts)
			if req.Headers[constants.HeaderCookie] != tt.want {
				t.Errorf("Cookie = %q, want %q", req.Headers[constants.HeaderCookie], tt.want)
			}
			if _, ok := req.Headers["cookie"]; ok {
				t.Error("Cookie header should replace differently-cased duplicates")
			}
		})
	}

	t.Run("line break inside value", func(t *testing.T) {
		for _, source := range []string{"@cookies-multiline.txt", "a=1\r\nb=2"} {
			opts := models.DefaultOptions("https://example.com")
			opts.Cookies = models.ParseSource(source)
			if _, err := build(t, fsys, opts); !errors.Is(err, errors.ErrBadHeaderValue) {
				t.Errorf("Build(%q) error = %v, want ErrBadHeaderValue", source, err)
			}
		}
	})

	t.Run("missing file", func(t *testing.T) {
		opts := models.DefaultOptions("https://example.com")
		opts.Cookies = models.ParseSource("@missing.txt")
		if _, err := build(t, fsys, opts); !errors.Is(err, errors.ErrFileNotFound) {
			t.Errorf("Build() error = %v, want ErrFileNotFound", err)
		}
	})
}

func TestBuildAuth(t *testing.T) {
	basic := "Basic " + base64.StdEncoding.EncodeToString([]byte("user:p:ss"))

	tests := []struct {
		name string
		auth models.Auth
		want string
	}{
		{"basic", models.Auth{Basic: "user:p:ss"}, basic},
		{"bearer", models.Auth{Bearer: "tok"}, "Bearer tok"},
		{"bearer wins over basic", models.Auth{Basic: "user:pass", Bearer: "tok"}, "Bearer tok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := models.DefaultOptions("https://example.com")
			opts.Auth = tt.auth
			req := mustBuild(t, filesystem.NewMockFileSystem(), opts)
			if req.Headers[constants.HeaderAuthorization] != tt.want {
				t.Errorf("Authorization = %q, want %q", req.Headers[constants.HeaderAuthorization], tt.want)
			}
		})
	}

	t.Run("malformed basic", func(t *testing.T) {
		opts := models.DefaultOptions("https://example.com")
		opts.Auth = models.Auth{Basic: "nocolon"}
		if _, err := build(t, filesystem.NewMockFileSystem(), opts); !errors.Is(err, errors.ErrMalformedAuth) {
			t.Errorf("Build() error = %v, want ErrMalformedAuth", err)
		}
	})
}

func TestBuildBody(t *testing.T) {
	fsys := filesystem.NewMockFileSystem().WithFile("payload.json", `{"from":"file"}`)

	t.Run("literal", func(t *testing.T) {
		opts := models.DefaultOptions("https://example.com")
		opts.Method = models.MethodPost
		opts.Body = models.ParseSource(`{"a":1}`)

		req := mustBuild(t, fsys, opts)
		if req.BodyPreview != `{"a":1}` {
			t.Errorf("BodyPreview = %q", req.BodyPreview)
		}
		if got := readBody(t, req); got != `{"a":1}` {
			t.Errorf("body = %q", got)
		}
	})

	t.Run("file is streamed", func(t *testing.T) {
		opts := models.DefaultOptions("https://example.com")
		opts.Body = models.ParseSource("@payload.json")

		req := mustBuild(t, fsys, opts)
		if got := readBody(t, req); got != `{"from":"file"}` {
			t.Errorf("body = %q", got)
		}
		if fsys.IsClosed("payload.json") {
			t.Error("body file should stay open until sent")
		}
		req.Close()
		if !fsys.IsClosed("payload.json") {
			t.Error("Close() should close the body file")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		opts := models.DefaultOptions("https://example.com")
		opts.Body = models.ParseSource("@missing.json")
		if _, err := build(t, fsys, opts); !errors.Is(err, errors.ErrFileNotFound) {
			t.Errorf("Build() error = %v, want ErrFileNotFound", err)
		}
	})
}

func TestBuildClosesBodyFileOnLaterFailure(t *testing.T) {
	fsys := filesystem.NewMockFileSystem().WithFile("payload.bin", "data")

	opts := models.DefaultOptions("https://example.com")
	opts.Body = models.ParseSource("@payload.bin")
	opts.Form = `["not", "an", "object"]`

	req, err := build(t, fsys, opts)
	if !errors.Is(err, errors.ErrMalformedForm) {
		t.Fatalf("Build() error = %v, want ErrMalformedForm", err)
	}
	if req != nil {
		t.Error("Build() should not return a request on error")
	}
	if !fsys.IsClosed("payload.bin") {
		t.Error("body file should be closed when the build fails")
	}
}

type formPart struct {
	fileName    string
	contentType string
	content     string
}

func parseMultipart(t *testing.T, req *models.HttpRequest) map[string]formPart {
	t.Helper()
	mediaType, params, err := mime.ParseMediaType(req.ContentType)
	if err != nil || mediaType != constants.MIMEMultipartFormData {
		t.Fatalf("ContentType = %q", req.ContentType)
	}
	reader := multipart.NewReader(req.Body, params["boundary"])
	parts := make(map[string]formPart)
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("NextPart() error = %v", err)
		}
		data, _ := io.ReadAll(part)
		parts[part.FormName()] = formPart{
			fileName:    part.FileName(),
			contentType: part.Header.Get("Content-Type"),
			content:     string(data),
		}
	}
	return parts
}

func TestBuildForm(t *testing.T) {
	fsys := filesystem.NewMockFileSystem().
		WithFile("payload.json", `{"replaced":true}`).
		WithFile("/tmp/avatar.png", "\x89PNG\r\n\x1a\n").
		WithFile("/tmp/report", "%PDF-1.4\n").
		WithDir("/tmp")

	opts := models.DefaultOptions("https://example.com/upload")
	opts.Method = models.MethodPost
	opts.Body = models.ParseSource("@payload.json")
	opts.Form = `{"name": "alice", "avatar": "/tmp/avatar.png", "report": "/tmp/report", "dir": "/tmp", "count": 3, "nested": {"a": 1}}`

	req := mustBuild(t, fsys, opts)

	if !fsys.IsClosed("payload.json") {
		t.Error("form payload should close the replaced body file")
	}
	if req.BodyPreview != "" {
		t.Errorf("BodyPreview = %q, want empty for multipart", req.BodyPreview)
	}

	parts := parseMultipart(t, req)
	if len(parts) != 4 {
		t.Fatalf("got %d parts, want 4 (non-string values skipped)", len(parts))
	}

	if got := parts["name"].content; got != "alice" {
		t.Errorf("name = %q, want alice", got)
	}
	if parts["dir"].fileName != "" || parts["dir"].content != "/tmp" {
		t.Error("a directory path should be sent as text")
	}

	avatar := parts["avatar"]
	if avatar.fileName != "avatar.png" {
		t.Errorf("avatar filename = %q", avatar.fileName)
	}
	if avatar.contentType != "image/png" {
		t.Errorf("avatar Content-Type = %q, want image/png", avatar.contentType)
	}
	if avatar.content != "\x89PNG\r\n\x1a\n" {
		t.Error("avatar content mismatch")
	}

	if ct := parts["report"].contentType; ct != "application/pdf" {
		t.Errorf("report Content-Type = %q, want sniffed application/pdf", ct)
	}

	if len(req.MultipartParts) != 4 || !req.MultipartParts[1].IsFile || req.MultipartParts[0].IsFile {
		t.Errorf("MultipartParts = %+v", req.MultipartParts)
	}
}

func TestBuildFormErrors(t *testing.T) {
	for _, form := range []string{`{"a":`, `"string"`, `[1,2]`, `not json`} {
		t.Run(form, func(t *testing.T) {
			opts := models.DefaultOptions("https://example.com")
			opts.Form = form
			if _, err := build(t, filesystem.NewMockFileSystem(), opts); !errors.Is(err, errors.ErrMalformedForm) {
				t.Errorf("Build() error = %v, want ErrMalformedForm", err)
			}
		})
	}
}

func TestBuildTimeout(t *testing.T) {
	opts := models.DefaultOptions("https://example.com")
	opts.Timeout = 5 * time.Second
	if got := mustBuild(t, filesystem.NewMockFileSystem(), opts).Timeout; got != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", got)
	}
}

func TestBuildStartsFromClientHeaders(t *testing.T) {
	mock := client.NewMockHTTPClient()
	mock.Headers = map[string]string{"User-Agent": "tester/1", "X-Default": "yes"}

	opts := models.DefaultOptions("https://example.com")
	opts.Headers = models.ParseSources([]string{"X-Default=no"})

	req, err := New(filesystem.NewMockFileSystem()).Build(opts, mock)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if req.Headers["User-Agent"] != "tester/1" || req.Headers["X-Default"] != "no" {
		t.Errorf("headers = %v", req.Headers)
	}
	if mock.Headers["X-Default"] != "yes" {
		t.Error("Build() must not mutate the client's default headers")
	}
}
