package charseq

import "errors"

var (
	// ErrUnknownEncoding indicates that an encoding name could not be resolved
	// to a supported character encoding, or that a nil encoding was supplied.
	ErrUnknownEncoding = errors.New("charseq: unknown or unsupported character encoding")

	// ErrBufferSize indicates that a non-positive staging buffer size was
	// passed to NewReaderSize.
	ErrBufferSize = errors.New("charseq: staging buffer size must be positive")

	// ErrEncode indicates that the character encoder reported a genuine error
	// state, as opposed to the normal "destination full" outcome of a refill.
	ErrEncode = errors.New("charseq: character encoding failed")

	// ErrNilWriter indicates a WriteTo operation was attempted on a nil io.Writer.
	ErrNilWriter = errors.New("charseq: WriteTo called with a nil io.Writer")

	// ErrInvalidWrite indicates that an io.Writer returned an invalid count from Write.
	ErrInvalidWrite = errors.New("charseq: writer returned invalid count from Write")

	// ErrDiscardNegative indicates a Discard operation was attempted with a negative byte count.
	ErrDiscardNegative = errors.New("charseq: cannot discard negative number of bytes")
)
