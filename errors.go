package middleout

import "errors"

// ErrBufferTooSmall is returned when the destination of Compress cannot hold
// MaxCompressedSize(len(src)) bytes.
var ErrBufferTooSmall = errors.New("middleout: destination buffer too small")

// ErrUnsupportedFormat is returned when the footer marker, the element kind or
// a block selector is not recognized by this version of the decoder.
var ErrUnsupportedFormat = errors.New("middleout: unsupported format")

// ErrTruncatedInput is returned when a block or the footer needs more bytes
// than the buffer provides.
var ErrTruncatedInput = errors.New("middleout: truncated input")

// ErrLengthMismatch is returned when the requested element count does not
// match the number of elements encoded in the buffer.
var ErrLengthMismatch = errors.New("middleout: element count mismatch")

// ErrChecksumMismatch is returned when the footer checksum does not match the
// block bytes.
var ErrChecksumMismatch = errors.New("middleout: checksum mismatch")

// ErrNotLoaded is returned when Reader operations are called before Load().
var ErrNotLoaded = errors.New("middleout: reader not loaded")

// ErrPositionOutOfRange is returned when accessing a position beyond the sequence length.
var ErrPositionOutOfRange = errors.New("middleout: position out of range")

// ErrInvalidOption is returned by NewCodec for an unknown option value.
var ErrInvalidOption = errors.New("middleout: invalid option")
