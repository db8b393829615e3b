package layers

import (
	"errors"
)

// Parse failures across all header layers fall into a closed set of
// causes. Views wrap these sentinels with context, so callers classify
// with errors.Is.
var (
	// ErrTruncated buffer is shorter than the header or total length
	// claimed at this layer.
	ErrTruncated = errors.New("truncated")

	// ErrMalformed header is self-contradictory, e.g. an IPv4 header
	// length exceeding the total length.
	ErrMalformed = errors.New("malformed")

	// ErrUnrecognized the IP version nibble is neither 4 nor 6.
	ErrUnrecognized = errors.New("unrecognized")
)
