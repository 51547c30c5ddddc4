package download

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
)

// progressWriter is an io.Writer, logging download progress at debug level
// at most once per second.
type progressWriter struct {
	w           io.Writer
	logger      zerolog.Logger
	transferred int64
	total       int64
	startTime   time.Time
	lastLog     time.Time
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n, err := pw.w.Write(p)
	pw.transferred += int64(n)

	if time.Since(pw.lastLog) >= time.Second {
		pw.lastLog = time.Now()
		pw.log("downloading")
	}

	return n, err
}

func (pw *progressWriter) log(msg string) {
	elapsed := time.Since(pw.startTime)
	event := pw.logger.Debug().
		Dur("elapsed", elapsed.Round(time.Millisecond)).
		Int64("transferred", pw.transferred)

	if pw.total > 0 {
		event = event.
			Int64("total", pw.total).
			Str("progress", fmt.Sprintf("%.1f%%", float64(pw.transferred)/float64(pw.total)*100))
	}
	if secs := elapsed.Seconds(); secs > 0 {
		event = event.Str("mbps", fmt.Sprintf("%.2f", float64(pw.transferred)/secs/(1024*1024)))
	}

	event.Msg(msg)
}
