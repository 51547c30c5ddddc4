// Package download streams a response body to a file on disk.
package download

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/ideaspaper/rq/pkg/errors"
)

// Handle streams body to a temp file in the same directory as destPath,
// which is renamed to destPath on success. On any error the temp file is
// removed and destPath is left untouched. A non-negative contentLength must
// match the number of bytes received. It returns the number of bytes written.
func Handle(ctx context.Context, body io.Reader, contentLength int64, destPath string, logger zerolog.Logger) (int64, error) {
	body = &contextReader{ctx: ctx, r: body}

	file, err := os.CreateTemp(filepath.Dir(destPath), ".rq-dl-*")
	if err != nil {
		return 0, errors.NewOutputError(destPath, fmt.Errorf("creating temp file: %w", err))
	}

	var successful bool
	defer func() {
		if err := file.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			logger.Error().Err(err).Msg("closing temp file")
		}
		if !successful {
			if err := os.Remove(file.Name()); err != nil {
				logger.Error().Err(err).Str("path", file.Name()).Msg("removing temp file")
			}
		}
	}()

	writer := &progressWriter{
		w:         file,
		logger:    logger,
		total:     contentLength,
		startTime: time.Now(),
	}

	n, err := io.Copy(writer, body)
	if err != nil {
		if errors.Is(err, errors.ErrTransport) || errors.Is(err, context.Canceled) {
			return n, errors.Wrap(err, "downloading body")
		}
		return n, errors.NewOutputError(destPath, err)
	}

	if contentLength >= 0 && n != contentLength {
		return n, errors.NewOutputError(destPath, &Error{
			Err:    ErrContentLengthMismatch,
			Detail: fmt.Sprintf("expected %d bytes, got %d", contentLength, n),
		})
	}

	if err := file.Sync(); err != nil {
		return n, errors.NewOutputError(destPath, fmt.Errorf("syncing temp file: %w", err))
	}
	if err := file.Close(); err != nil {
		return n, errors.NewOutputError(destPath, fmt.Errorf("closing temp file: %w", err))
	}
	if err := os.Rename(file.Name(), destPath); err != nil {
		return n, errors.NewOutputError(destPath, fmt.Errorf("renaming temp file: %w", err))
	}

	successful = true
	logger.Info().Str("path", destPath).Int64("bytes", n).Msg("download saved")

	return n, nil
}

// contextReader stops a copy once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr *contextReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}
	return cr.r.Read(p)
}
