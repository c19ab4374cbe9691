package bntx

import (
	"errors"

	"github.com/erinpentecost/bntxtool/internal/format"
)

var (
	ErrInvalidByteOrder       = errors.New("invalid byte order mark")
	ErrInvalidMagic           = errors.New("invalid file header")
	ErrUnsupportedTarget      = errors.New("unsupported target platform")
	ErrUnsupportedFormat      = format.ErrUnsupportedFormat
	ErrUnsupportedTileMode    = format.ErrUnsupportedTileMode
	ErrUnsupportedDimension   = errors.New("unsupported image storage dimension")
	ErrUnsupportedArrayLength = errors.New("unsupported array length")
	ErrImageTooLarge          = errors.New("image is larger than the original allocation")
	ErrIO                     = errors.New("i/o error")

	// ErrTruncated is returned when an offset points past the end of the file.
	ErrTruncated = errors.New("truncated file")
	// ErrMalformed is returned for records whose fields contradict each other.
	ErrMalformed = errors.New("malformed texture record")
	// ErrOutOfBounds is returned when a patch would write outside its region.
	ErrOutOfBounds = errors.New("write outside original region")
)
