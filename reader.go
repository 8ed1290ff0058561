package charseq

import (
	"fmt"
	"io"
	"sync"
	"unicode/utf8"

	"golang.org/x/text/encoding"
)

// defaultBufferSize is the staging buffer capacity used by NewReader.
const defaultBufferSize = 2048

// Reader exposes an in-memory character sequence as a pull-based byte
// stream, encoding characters lazily as bytes are requested instead of
// materializing the whole encoded sequence up front.
//
// It implements io.Reader, io.ByteReader, io.WriterTo and io.Closer, and
// additionally supports a single-slot Mark/Reset rewind of the character
// cursor. Apart from Mark and Reset, which share one mutex, methods must
// not be called concurrently.
type Reader struct {
	src []byte // encoded-from source, fixed for the reader's lifetime
	pos int    // cursor: next unconsumed source byte

	c *coder // stateful conversion context, never reset between refills

	buf []byte // staging buffer for encoded-but-undelivered bytes
	off int    // next staged byte to deliver
	end int    // one past the last staged byte; off <= end <= len(buf)

	mark int // saved cursor position, -1 when unset
	mu   sync.Mutex
}

var (
	_ io.ReadCloser = (*Reader)(nil)
	_ io.ByteReader = (*Reader)(nil)
	_ io.WriterTo   = (*Reader)(nil)
)

// NewReader creates a Reader over src with a default staging buffer size.
func NewReader(src string, enc encoding.Encoding) (*Reader, error) {
	return NewReaderSize(src, enc, defaultBufferSize)
}

// NewReaderSize creates a Reader over src with an explicit staging buffer
// size in bytes. The size bounds how many encoded bytes are produced per
// refill; it does not limit how much a single Read can return, since bulk
// reads refill as often as needed. A size of 1 is valid.
func NewReaderSize(src string, enc encoding.Encoding, size int) (*Reader, error) {
	if enc == nil {
		return nil, ErrUnknownEncoding
	}
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrBufferSize, size)
	}
	return &Reader{
		src:  []byte(src),
		c:    newCoder(enc),
		buf:  make([]byte, size),
		mark: -1,
	}, nil
}

// NewReaderEncoding creates a Reader over src, resolving the encoding by
// its IANA name via Lookup.
func NewReaderEncoding(src, name string) (*Reader, error) {
	return NewReaderEncodingSize(src, name, defaultBufferSize)
}

// NewReaderEncodingSize creates a Reader over src with an explicit staging
// buffer size, resolving the encoding by its IANA name via Lookup.
func NewReaderEncodingSize(src, name string, size int) (*Reader, error) {
	enc, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	return NewReaderSize(src, enc, size)
}

// exhausted reports whether no further bytes can ever be produced: the
// cursor has consumed the source and the coder holds nothing back.
func (r *Reader) exhausted() bool {
	return r.pos >= len(r.src) && r.c.buffered() == 0 && r.c.flushed
}

// refill compacts the staging buffer and encodes more of the source into
// the freed space. Encoded bytes straddling the window (one encoded unit
// wider than the free space) are held in the coder's spill window, so even
// a one-byte staging buffer makes progress each call.
func (r *Reader) refill() error {
	// Compact: move unread bytes to the front.
	if r.off > 0 {
		r.end = copy(r.buf, r.buf[r.off:r.end])
		r.off = 0
	}

	// Bytes held over from an earlier refill drain first.
	r.end += r.c.drain(r.buf[r.end:])
	if r.end == len(r.buf) {
		return nil
	}

	nDst, nSrc, full, err := r.c.encode(r.buf[r.end:], r.src[r.pos:])
	r.pos += nSrc
	r.end += nDst
	if err != nil {
		return err
	}

	if full && nDst == 0 && nSrc == 0 {
		// The free window is narrower than the next encoded unit, which
		// the encoder will not split. Encode it into the spill window and
		// stage whatever fits; the remainder is delivered by later refills.
		sd, ss, _, err := r.c.encode(r.c.spill[:], r.src[r.pos:])
		r.pos += ss
		r.c.pend = r.c.spill[:sd]
		if err != nil {
			return err
		}
		r.end += r.c.drain(r.buf[r.end:])
	}
	return nil
}

// Read implements the io.Reader interface. It drains the staging buffer
// into p, refilling from the source as many times as needed, so a single
// call returns up to len(p) bytes even with a tiny staging buffer. A
// zero-length p always yields (0, nil), never io.EOF.
func (r *Reader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if r.off == r.end && r.exhausted() {
		return 0, io.EOF
	}

	var n int
	for n < len(p) {
		if r.off < r.end {
			c := copy(p[n:], r.buf[r.off:r.end])
			r.off += c
			n += c
			continue
		}
		if err := r.refill(); err != nil {
			return n, err
		}
		if r.off == r.end && r.exhausted() {
			break
		}
	}

	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

// ReadByte implements the io.ByteReader interface, returning the next
// encoded byte or io.EOF once the source is fully consumed and delivered.
func (r *Reader) ReadByte() (byte, error) {
	for {
		if r.off < r.end {
			b := r.buf[r.off]
			r.off++
			return b, nil
		}
		if r.exhausted() {
			return 0, io.EOF
		}
		if err := r.refill(); err != nil {
			return 0, err
		}
		if r.off == r.end && r.exhausted() {
			return 0, io.EOF
		}
	}
}

// WriteTo implements the io.WriterTo interface, draining the remainder of
// the stream into w without an intermediate buffer beyond the reader's own
// staging buffer.
func (r *Reader) WriteTo(w io.Writer) (int64, error) {
	if w == nil {
		return 0, ErrNilWriter
	}

	var n int64
	for {
		if r.off < r.end {
			chunk := r.buf[r.off:r.end]
			m, err := w.Write(chunk)
			if m < 0 || m > len(chunk) {
				return n, ErrInvalidWrite
			}
			r.off += m
			n += int64(m)
			if err != nil {
				return n, err
			}
			if m < len(chunk) {
				return n, io.ErrShortWrite
			}
			continue
		}
		if r.exhausted() {
			return n, nil
		}
		if err := r.refill(); err != nil {
			return n, err
		}
		if r.off == r.end && r.exhausted() {
			return n, nil
		}
	}
}

// Skip advances the character cursor by up to n characters and returns the
// count skipped. The count is in characters, not bytes: for multi-byte
// encodings the two are not in 1:1 correspondence.
//
// Skip does not flush bytes already staged from characters before the
// cursor, so mixing Skip with Read delivers those staged bytes first. Use
// Discard to drop encoded bytes instead of characters.
func (r *Reader) Skip(n int64) int64 {
	var skipped int64
	for n > 0 && r.pos < len(r.src) {
		_, size := utf8.DecodeRune(r.src[r.pos:])
		r.pos += size
		n--
		skipped++
	}
	return skipped
}

// Available returns the count of characters not yet consumed from the
// source. It is a character count, not the number of encoded bytes still
// to come, which is unknowable without encoding.
func (r *Reader) Available() int {
	return utf8.RuneCount(r.src[r.pos:])
}

// Len returns the number of source bytes not yet consumed by the encoder.
func (r *Reader) Len() int {
	if r.pos >= len(r.src) {
		return 0
	}
	return len(r.src) - r.pos
}

// Size returns the staging buffer capacity in bytes.
func (r *Reader) Size() int { return len(r.buf) }

// Mark saves the current cursor position for a later Reset. readLimit is
// ignored; the source is fully resident, so no read limit applies. Mark
// and Reset are serialized against each other; no other method is.
func (r *Reader) Mark(readLimit int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mark = r.pos
}

// Reset repositions the cursor to the saved mark and clears it. The mark
// is single-use; Reset without a prior Mark is a no-op, not an error.
//
// Reset does not discard bytes already staged from characters between the
// mark and the current position: those are still delivered before the
// re-encoded output, mirroring the Skip caveat.
func (r *Reader) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mark != -1 {
		r.pos = r.mark
		r.mark = -1
	}
}

// MarkSupported reports that Mark and Reset are supported.
func (r *Reader) MarkSupported() bool { return true }

// Close implements the io.Closer interface. It is a no-op: the source is
// not an owned resource.
func (r *Reader) Close() error { return nil }
