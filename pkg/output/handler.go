package output

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/ideaspaper/rq/pkg/download"
	"github.com/ideaspaper/rq/pkg/errors"
	"github.com/ideaspaper/rq/pkg/models"
)

// HandlerOptions selects how a response body is rendered.
type HandlerOptions struct {
	DownloadPath string
	PrettyPrint  bool
	Verbose      bool
}

// OptionsFrom extracts the rendering options from invocation options.
func OptionsFrom(opts *models.Options) HandlerOptions {
	return HandlerOptions{
		DownloadPath: opts.DownloadPath,
		PrettyPrint:  opts.PrettyPrint,
		Verbose:      opts.Verbose,
	}
}

// Handler writes responses to stdout, or to a file when downloading.
type Handler struct {
	formatter   *Formatter
	stdout      io.Writer
	diagnostics io.Writer
	logger      zerolog.Logger
}

// NewHandler creates a Handler. Response output goes to stdout; download
// summaries go to diagnostics.
func NewHandler(formatter *Formatter, stdout, diagnostics io.Writer, logger zerolog.Logger) *Handler {
	return &Handler{
		formatter:   formatter,
		stdout:      stdout,
		diagnostics: diagnostics,
		logger:      logger,
	}
}

// Handle renders resp and closes its body. The body is consumed exactly
// once: downloaded to a file, pretty-printed when it is valid JSON, or
// written as received.
func (h *Handler) Handle(ctx context.Context, resp *models.HttpResponse, opts HandlerOptions) error {
	defer resp.Close()

	if opts.Verbose {
		if err := h.write(h.formatter.FormatStatusLine(resp) + "\n" + h.formatter.FormatHeaders(resp.Headers) + "\n"); err != nil {
			return err
		}
	}

	if resp.Body == nil {
		return nil
	}

	switch {
	case opts.DownloadPath != "":
		return h.download(ctx, resp, opts.DownloadPath)
	case opts.PrettyPrint:
		return h.prettyPrint(resp)
	default:
		if _, err := io.Copy(h.stdout, resp.Body); err != nil {
			return classifyCopyError(err)
		}
		return nil
	}
}

func (h *Handler) download(ctx context.Context, resp *models.HttpResponse, path string) error {
	start := time.Now()
	n, err := download.Handle(ctx, resp.Body, resp.ContentLength, path, h.logger)
	if err != nil {
		return err
	}
	if h.diagnostics != nil {
		fmt.Fprintln(h.diagnostics, h.formatter.FormatSaved(path, n, time.Since(start)))
	}
	return nil
}

func (h *Handler) prettyPrint(resp *models.HttpResponse) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return classifyCopyError(err)
	}

	out, ok := h.formatter.FormatJSON(body)
	if !ok {
		h.logger.Debug().Str("content_type", resp.ContentType()).Msg("body is not JSON, printing as received")
		out = body
	}

	if _, err := h.stdout.Write(out); err != nil {
		return errors.NewOutputError("", err)
	}
	return nil
}

func (h *Handler) write(s string) error {
	if _, err := io.WriteString(h.stdout, s); err != nil {
		return errors.NewOutputError("", err)
	}
	return nil
}

// classifyCopyError keeps body read failures in the transport class and
// reports everything else as an output failure.
func classifyCopyError(err error) error {
	if errors.Is(err, errors.ErrTransport) {
		return err
	}
	return errors.NewOutputError("", err)
}
