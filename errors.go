package twopaco

import "errors"

var (
	// ErrInvalidConfig is returned for configuration values outside their
	// valid range. It is reported before any input is read.
	ErrInvalidConfig = errors.New("twopaco: invalid configuration")

	// ErrFilterOverflow is returned when hash values could index past the
	// end of the membership filter.
	ErrFilterOverflow = errors.New("twopaco: hash width exceeds filter capacity")

	// ErrFilterTooSmall is returned when the filter is too small for the
	// expected number of items.
	ErrFilterTooSmall = errors.New("twopaco: filter too small for expected items")
)
