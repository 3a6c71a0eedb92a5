package transport

import "errors"

// ErrClosed is returned by Send once the connection has been closed.
var ErrClosed = errors.New("transport: connection closed")
