package savefile

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"p95status/pkg/errors"
)

func TestReaderLittleEndianFields(t *testing.T) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint32(0x2C7330A8))
	binary.Write(&buf, binary.LittleEndian, int32(-2))
	binary.Write(&buf, binary.LittleEndian, uint64(1)<<40)
	binary.Write(&buf, binary.LittleEndian, math.Float64bits(0.25))

	r := newReader(&buf)
	assert.Equal(t, uint32(0x2C7330A8), r.u32())
	assert.Equal(t, int32(-2), r.s32())
	assert.Equal(t, uint64(1)<<40, r.u64())
	assert.Equal(t, 0.25, r.f64())
	assert.Nil(t, r.truncated())
	assert.Equal(t, int64(24), r.offset)
}

func TestReaderShortReadIsSticky(t *testing.T) {
	r := newReader(bytes.NewReader([]byte{1, 0, 0, 0, 7, 7}))

	assert.Equal(t, uint32(1), r.u32())
	assert.Equal(t, uint32(0), r.u32(), "partial field is zero-filled")
	assert.Equal(t, uint64(0), r.u64(), "fields after a short read are zero")

	err := r.truncated()
	require.NotNil(t, err)
	assert.Equal(t, errors.ErrorTypeTruncated, err.Type)
	assert.Equal(t, "truncated: read 2 of 4 bytes at offset 4", err.Error())
	assert.Equal(t, int64(6), r.offset)
}

func TestReaderBytesAndSkip(t *testing.T) {
	data := make([]byte, 40)
	for i := range data {
		data[i] = byte(i)
	}
	r := newReader(bytes.NewReader(data))

	r.skip(4, 2)
	dst := make([]byte, 20)
	r.bytes(dst)
	assert.Equal(t, data[8:28], dst)
	assert.Equal(t, int64(28), r.offset)

	r.bytes(make([]byte, 20))
	assert.NotNil(t, r.truncated())
}
