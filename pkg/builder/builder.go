// Package builder turns invocation options into a ready-to-send request.
package builder

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/tidwall/gjson"

	"github.com/ideaspaper/rq/internal/constants"
	"github.com/ideaspaper/rq/internal/filesystem"
	"github.com/ideaspaper/rq/internal/httputil"
	"github.com/ideaspaper/rq/pkg/auth"
	"github.com/ideaspaper/rq/pkg/errors"
	"github.com/ideaspaper/rq/pkg/models"
)

// HeaderSource supplies the headers every request starts from.
type HeaderSource interface {
	DefaultHeaders() map[string]string
}

// Builder assembles requests, reading referenced files through fs.
type Builder struct {
	fs filesystem.FileSystem
}

// New creates a Builder. A nil fs uses the operating system.
func New(fs filesystem.FileSystem) *Builder {
	if fs == nil {
		fs = filesystem.Default
	}
	return &Builder{fs: fs}
}

// Build resolves every source in opts and returns the request. The first
// failing step aborts the build; a body file opened before the failure is
// closed.
func (b *Builder) Build(opts *models.Options, client HeaderSource) (req *models.HttpRequest, err error) {
	u, err := models.ValidateURL(opts.URL)
	if err != nil {
		return nil, err
	}

	req = &models.HttpRequest{
		Method:  models.ParseMethod(string(opts.Method)),
		URL:     u,
		Headers: client.DefaultHeaders(),
	}
	if req.Headers == nil {
		req.Headers = make(map[string]string)
	}
	defer func() {
		if err != nil {
			req.Close()
			req = nil
		}
	}()

	for _, src := range opts.Headers {
		if err := b.applyHeaders(req.Headers, src); err != nil {
			return req, err
		}
	}

	if err := b.applyCookies(req.Headers, opts.Cookies); err != nil {
		return req, err
	}

	if err := auth.Apply(req.Headers, opts.Auth); err != nil {
		return req, err
	}

	if err := b.applyBody(req, opts.Body); err != nil {
		return req, err
	}

	if opts.Form != "" {
		if err := b.applyForm(req, opts.Form); err != nil {
			return req, err
		}
	}

	if opts.Timeout > 0 {
		req.Timeout = opts.Timeout
	}

	return req, nil
}

func (b *Builder) applyHeaders(headers map[string]string, src models.Source) error {
	switch s := src.(type) {
	case models.Literal:
		name, value, ok := strings.Cut(s.Value, "=")
		if !ok {
			return errors.NewBuildError("header", errors.ErrMalformedHeader, s.Value, fmt.Errorf("expected Key=Value"))
		}
		name = strings.TrimSpace(name)
		if !models.ValidHeaderName(name) {
			return errors.NewBuildError("header", errors.ErrMalformedHeader, s.Value, fmt.Errorf("invalid header name %q", name))
		}
		if !models.ValidHeaderValue(value) {
			return errors.NewBuildError("header", errors.ErrBadHeaderValue, name, fmt.Errorf("value contains control characters"))
		}
		httputil.Set(headers, name, value)
	case models.FileRef:
		data, err := b.fs.ReadFile(s.Path)
		if err != nil {
			return errors.NewParseErrorWithCause(s.Path, "cannot read header file", err)
		}
		if !gjson.ValidBytes(data) {
			return errors.NewParseError(s.Path, "header file is not valid JSON")
		}
		doc := gjson.ParseBytes(data)
		if !doc.IsObject() {
			return errors.NewParseError(s.Path, "header file must contain a JSON object")
		}
		var bad error
		doc.ForEach(func(key, value gjson.Result) bool {
			if value.Type != gjson.String {
				bad = errors.NewBuildError("header", errors.ErrBadHeaderValue, key.String(),
					fmt.Errorf("%s: value must be a string, got %s", s.Path, value.Type))
				return false
			}
			if !models.ValidHeaderName(key.String()) {
				bad = errors.NewBuildError("header", errors.ErrMalformedHeader, key.String(),
					fmt.Errorf("%s: invalid header name", s.Path))
				return false
			}
			if !models.ValidHeaderValue(value.String()) {
				bad = errors.NewBuildError("header", errors.ErrBadHeaderValue, key.String(),
					fmt.Errorf("%s: value contains control characters", s.Path))
				return false
			}
			httputil.Set(headers, key.String(), value.String())
			return true
		})
		return bad
	}
	return nil
}

// applyCookies sets the Cookie header from an inline string or the raw text
// of a file. A file's trailing line break is not part of the value.
func (b *Builder) applyCookies(headers map[string]string, src models.Source) error {
	var value string
	switch s := src.(type) {
	case models.Literal:
		value = s.Value
	case models.FileRef:
		data, err := b.fs.ReadFile(s.Path)
		if err != nil {
			return errors.NewBuildError("cookies", errors.ErrFileNotFound, s.Path, err)
		}
		value = strings.TrimRight(string(data), "\r\n")
	default:
		return nil
	}
	if !models.ValidHeaderValue(value) {
		return errors.NewBuildError("cookies", errors.ErrBadHeaderValue, src.String(), fmt.Errorf("value contains control characters"))
	}
	httputil.Set(headers, constants.HeaderCookie, value)
	return nil
}

func (b *Builder) applyBody(req *models.HttpRequest, src models.Source) error {
	switch s := src.(type) {
	case models.Literal:
		req.Body = strings.NewReader(s.Value)
		req.BodyPreview = s.Value
	case models.FileRef:
		f, err := b.fs.Open(s.Path)
		if err != nil {
			return errors.NewBuildError("body", errors.ErrFileNotFound, s.Path, err)
		}
		req.Body = f
		req.BodyPreview = s.String()
	}
	return nil
}

// applyForm builds a multipart/form-data payload from a JSON object of
// field names to values. String values naming an existing regular file are
// uploaded as that file; other strings become text fields; anything else is
// skipped.
func (b *Builder) applyForm(req *models.HttpRequest, form string) error {
	if !gjson.Valid(form) {
		return errors.NewBuildError("form", errors.ErrMalformedForm, "", fmt.Errorf("not valid JSON"))
	}
	doc := gjson.Parse(form)
	if !doc.IsObject() {
		return errors.NewBuildError("form", errors.ErrMalformedForm, "", fmt.Errorf("expected a JSON object"))
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	var parts []models.MultipartPart
	var err error

	doc.ForEach(func(key, value gjson.Result) bool {
		if value.Type != gjson.String {
			return true
		}
		name, val := key.String(), value.String()

		if filesystem.IsFile(b.fs, val) {
			part, werr := b.writeFilePart(writer, name, val)
			if werr != nil {
				err = werr
				return false
			}
			parts = append(parts, part)
			return true
		}

		if werr := writer.WriteField(name, val); werr != nil {
			err = errors.NewBuildError("form", errors.ErrMalformedForm, name, werr)
			return false
		}
		parts = append(parts, models.MultipartPart{Name: name, Value: val})
		return true
	})
	if err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return errors.NewBuildError("form", errors.ErrMalformedForm, "", err)
	}

	req.Close()
	req.Body = body
	req.BodyPreview = ""
	req.ContentType = writer.FormDataContentType()
	req.MultipartParts = parts
	return nil
}

func (b *Builder) writeFilePart(writer *multipart.Writer, name, path string) (models.MultipartPart, error) {
	data, err := b.fs.ReadFile(path)
	if err != nil {
		return models.MultipartPart{}, errors.NewBuildError("form", errors.ErrFileNotFound, path, err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = mimetype.Detect(data).String()
	}
	filename := filepath.Base(path)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, escapeQuotes(name), escapeQuotes(filename)))
	h.Set(constants.HeaderContentType, contentType)
	w, err := writer.CreatePart(h)
	if err == nil {
		_, err = io.Copy(w, bytes.NewReader(data))
	}
	if err != nil {
		return models.MultipartPart{}, errors.NewBuildError("form", errors.ErrMalformedForm, name, err)
	}

	return models.MultipartPart{
		Name:        name,
		FilePath:    path,
		ContentType: contentType,
		IsFile:      true,
	}, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
