// Package transport holds error values shared by the delivery clients.
package transport

import "errors"

// ErrRejected marks an error from a remote API that was reachable but
// refused the send. Connection-level failures are returned unwrapped.
var ErrRejected = errors.New("transport rejected")
