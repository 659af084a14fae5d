package savefile

import (
	"encoding/binary"
	"io"
	"math"

	"p95status/pkg/errors"
)

// reader reads little-endian fields and remembers the first short read.
// After a short read every field comes back zero-filled so the layout can still be
// walked to the end; the caller reports the record as truncated.
type reader struct {
	r      io.Reader
	offset int64
	err    *errors.Error
	buf    [16]byte
}

func newReader(r io.Reader) *reader {
	return &reader{r: r}
}

func (r *reader) fill(n int) []byte {
	b := r.buf[:n]
	if r.err != nil {
		clear(b)
		return b
	}
	got, err := io.ReadFull(r.r, b)
	r.offset += int64(got)
	if err != nil {
		clear(b[got:])
		r.err = errors.New(errors.ErrorTypeTruncated,
			"read %d of %d bytes at offset %d", got, n, r.offset-int64(got))
	}
	return b
}

func (r *reader) u32() uint32 {
	return binary.LittleEndian.Uint32(r.fill(4))
}

// s32 reads a signed 32-bit field. Fields stored signed but used as
// enumerations are converted with uint32(r.s32()).
func (r *reader) s32() int32 {
	return int32(r.u32())
}

func (r *reader) u64() uint64 {
	return binary.LittleEndian.Uint64(r.fill(8))
}

func (r *reader) f64() float64 {
	return math.Float64frombits(r.u64())
}

func (r *reader) bytes(dst []byte) {
	for len(dst) > 0 {
		n := min(len(dst), len(r.buf))
		copy(dst[:n], r.fill(n))
		dst = dst[n:]
	}
}

// skip discards n fields of the given width
func (r *reader) skip(width, n int) {
	for i := 0; i < n; i++ {
		r.fill(width)
	}
}

// truncated returns the first short-read error, if any
func (r *reader) truncated() *errors.Error {
	return r.err
}
