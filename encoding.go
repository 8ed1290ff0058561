package charseq

import (
	"fmt"
	"strings"

	"github.com/puzpuzpuz/xsync/v4"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

// encodingCache avoids walking the IANA index on every lookup. Names are
// cached in normalized form, so repeated lookups of aliases stay cheap.
var encodingCache = xsync.NewMap[string, encoding.Encoding]()

// Lookup resolves a character encoding by its IANA name or one of its
// registered aliases (e.g. "UTF-8", "ISO-8859-1", "latin1"). Matching is
// case-insensitive and ignores surrounding whitespace.
//
// Names the index does not recognize, or recognizes without carrying an
// implementation for, fail with ErrUnknownEncoding.
func Lookup(name string) (encoding.Encoding, error) {
	key := strings.ToLower(strings.TrimSpace(name))

	if enc, ok := encodingCache.Load(key); ok {
		return enc, nil
	}

	enc, err := ianaindex.IANA.Encoding(key)
	if err != nil || enc == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
	}

	encodingCache.Store(key, enc)
	return enc, nil
}

// EncodeString encodes s in one pass under the same substitution policy the
// streaming Reader uses: malformed input and unmappable characters are
// replaced, never surfaced as errors. It is the reference against which the
// stream's output is defined, and a convenience for callers who do want the
// whole byte sequence materialized.
func EncodeString(enc encoding.Encoding, s string) ([]byte, error) {
	if enc == nil {
		return nil, ErrUnknownEncoding
	}
	out, err := newCoder(enc).enc.Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return out, nil
}

// spillSize bounds the bytes one encoded unit may occupy. The widest output
// of any supported encoding per character is far below this (4 bytes for
// UTF-8/UTF-16, plus a possible byte order mark on the first unit).
const spillSize = 64

// coder is the stateful conversion context owned by a Reader. It lives for
// the lifetime of the reader and is never reset between refills: encoded
// bytes that straddle a refill boundary are held in the spill window until
// the staging buffer has room for them.
type coder struct {
	enc   *encoding.Encoder
	spill [spillSize]byte
	pend  []byte // unread window into spill
	// flushed records that the encoder has fully drained its own state for
	// the source position it last saw. It goes stale when the cursor moves
	// backward, which the position check in Reader.exhausted covers.
	flushed bool
}

// newCoder builds a conversion context that substitutes a replacement for
// both unmappable characters and ill-formed input, so encoding never fails
// for reachable inputs.
func newCoder(enc encoding.Encoding) *coder {
	return &coder{enc: encoding.ReplaceUnsupported(enc.NewEncoder())}
}

// drain copies pending spill bytes into dst and returns the count copied.
func (c *coder) drain(dst []byte) int {
	n := copy(dst, c.pend)
	c.pend = c.pend[n:]
	return n
}

// buffered reports how many encoded bytes are held in the spill window.
func (c *coder) buffered() int { return len(c.pend) }

// encode runs one encoder step from src into dst with the end of input
// visible, reporting bytes written, source bytes consumed, and whether dst
// filling up (the normal "more refills needed" outcome) ended the step.
func (c *coder) encode(dst, src []byte) (nDst, nSrc int, full bool, err error) {
	nDst, nSrc, err = c.enc.Transform(dst, src, true)
	switch err {
	case nil:
		c.flushed = true
		return nDst, nSrc, false, nil
	case transform.ErrShortDst:
		c.flushed = false
		return nDst, nSrc, true, nil
	default:
		return nDst, nSrc, false, fmt.Errorf("%w: %v", ErrEncode, err)
	}
}
