package download

import (
	"errors"
	"fmt"
)

// ErrContentLengthMismatch indicates the body was shorter or longer than
// the Content-Length the server announced.
var ErrContentLengthMismatch = errors.New("content length mismatch")

// Error carries detail for a failed download.
type Error struct {
	Detail string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %s", e.Err, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Err
}
