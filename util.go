package charseq

import "io"

const BUFFER_SIZE = 4096

var discard [BUFFER_SIZE]byte

// Discard drops up to n encoded bytes from r and returns the count dropped.
// It is the byte-counted companion to Reader.Skip, which counts characters:
// discarding goes through the encoder and therefore also flushes any bytes
// already staged, where Skip leaves them in place.
func Discard(r io.Reader, n int64) (int64, error) {
	if n == 0 {
		return 0, nil
	}
	if n < 0 {
		return 0, ErrDiscardNegative
	}
	if n <= BUFFER_SIZE {
		skip, err := r.Read(discard[:n])
		return int64(skip), err
	}
	return io.CopyN(io.Discard, r, n)
}
