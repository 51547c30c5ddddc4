// Package executor sends a built request once and reports what happened.
// It handles the debug short-circuit, the verbose request dump and the
// non-2xx notice.
package executor

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"github.com/ideaspaper/rq/pkg/client"
	"github.com/ideaspaper/rq/pkg/errors"
	"github.com/ideaspaper/rq/pkg/models"
	"github.com/ideaspaper/rq/pkg/output"
)

// Options configures request execution behavior
type Options struct {
	// Debug prints the request instead of sending it
	Debug bool
	// Verbose prints the request before sending it
	Verbose bool
	// Diagnostics receives request dumps; defaults to io.Discard
	Diagnostics io.Writer
	// Formatter renders request dumps; defaults to an uncolored formatter
	Formatter *output.Formatter
	// Logger receives diagnostic events
	Logger zerolog.Logger
}

// Executor handles HTTP request execution
type Executor struct {
	client  client.HTTPDoer
	options Options
}

// New creates a new Executor
func New(c client.HTTPDoer, opts Options) *Executor {
	if opts.Diagnostics == nil {
		opts.Diagnostics = io.Discard
	}
	if opts.Formatter == nil {
		opts.Formatter = output.NewFormatter(false)
	}
	return &Executor{client: c, options: opts}
}

// Execute sends request and returns the response once its headers have
// arrived. In debug mode nothing is sent and both return values are nil.
// A non-2xx status is not an error. Failures are never retried.
func (e *Executor) Execute(ctx context.Context, request *models.HttpRequest) (*models.HttpResponse, error) {
	if e.options.Debug {
		defer request.Close()
		return nil, e.dump(request)
	}

	if e.options.Verbose {
		if err := e.dump(request); err != nil {
			request.Close()
			return nil, err
		}
	}

	logger := e.options.Logger.With().
		Str("method", string(request.Method)).
		Str("url", request.URL.String()).
		Logger()
	logger.Debug().Dur("timeout", request.Timeout).Msg("sending request")

	resp, err := e.client.Send(ctx, request)
	if err != nil {
		if ctx.Err() != nil && !errors.Is(err, errors.ErrTransport) {
			return nil, errors.NewRequestErrorWithURL("send", string(request.Method), request.URL.String(), ctx.Err())
		}
		return nil, err
	}

	logger.Debug().
		Int("status", resp.StatusCode).
		Dur("duration", resp.Duration).
		Msg("response received")

	if !resp.IsSuccess() {
		logger.Warn().Int("status", resp.StatusCode).Msg("server returned non-success status")
	}

	return resp, nil
}

func (e *Executor) dump(request *models.HttpRequest) error {
	if _, err := io.WriteString(e.options.Diagnostics, e.options.Formatter.FormatRequest(request)); err != nil {
		return errors.NewOutputError("", err)
	}
	return nil
}
