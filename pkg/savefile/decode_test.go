package savefile

import (
	"bytes"
	"fmt"
	"math"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"p95status/internal/testutil"
	"p95status/pkg/errors"
)

func decodeBytes(t *testing.T, data []byte) (*Record, error) {
	t.Helper()
	return Decode(bytes.NewReader(data))
}

func TestHeaderClampsPctComplete(t *testing.T) {
	tests := []struct {
		name string
		raw  float64
		want float64
	}{
		{"above one", 1.5, 1.0},
		{"below zero", -0.2, 0.0},
		{"in range", 0.25, 0.25},
		{"exactly one", 1.0, 1.0},
		{"nan", math.NaN(), 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := testutil.DefaultHeader(LLVersion, 1000)
			h.PctComplete = tt.raw
			data := testutil.NewSaveFile(LLMagic).Header(h).U32(0).U32(10).Bytes()

			rec, err := decodeBytes(t, data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rec.PctComplete)
		})
	}
}

func TestHeaderForcesLastStageByteToZero(t *testing.T) {
	h := testutil.DefaultHeader(LLVersion, 1000)
	copy(h.Stage[:], "ABCDEFGHIJK")
	data := testutil.NewSaveFile(LLMagic).Header(h).U32(0).U32(10).Bytes()

	rec, err := decodeBytes(t, data)
	require.NoError(t, err)
	assert.Equal(t, byte(0), rec.Stage[StageTagLength-1])
	assert.Equal(t, "ABCDEFGHIJ", rec.StageTag())
}

func TestHeaderFields(t *testing.T) {
	h := testutil.Header{
		Version:     LLVersion,
		K:           3,
		B:           10,
		N:           2203,
		C:           1,
		PctComplete: 0.5,
		Checksum:    0xDEADBEEF,
	}
	copy(h.Stage[:], "LL1")
	data := testutil.NewSaveFile(LLMagic).Header(h).U32(2).U32(1101).Bytes()

	rec, err := decodeBytes(t, data)
	require.NoError(t, err)

	want := Header{
		Magic:       LLMagic,
		Version:     LLVersion,
		K:           3,
		B:           10,
		N:           2203,
		C:           1,
		PctComplete: 0.5,
		Stage:       [StageTagLength]byte{'L', 'L', '1'},
	}
	if diff := cmp.Diff(want, rec.Header); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeIsDeterministic(t *testing.T) {
	data := testutil.PM1Stage2File(6, 1_000_000, 50_000_000, 25_000_000)

	first, err1 := decodeBytes(t, data)
	second, err2 := decodeBytes(t, data)
	require.NoError(t, err1)
	require.NoError(t, err2)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("decoding differs between runs (-first +second):\n%s", diff)
	}
}

func TestDecodeUnknownMagic(t *testing.T) {
	data := testutil.NewSaveFile(0x12345678).Header(testutil.DefaultHeader(1, 1)).Bytes()
	r := bytes.NewReader(data)

	rec, err := Decode(r)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrUnknownFormat)
	require.NotNil(t, rec)
	assert.Equal(t, WorkUnknown, rec.WorkType)
	assert.Equal(t, uint32(0x12345678), rec.Magic)
	// only the magic number was consumed
	assert.Equal(t, len(data)-4, r.Len())
}

func TestDecodeTruncated(t *testing.T) {
	full := testutil.NewSaveFile(PM1Magic).Header(testutil.DefaultHeader(6, 1000)).
		S32(5).U64(1_000_000).U64(1_000_000)

	for _, n := range []int{0, 2, 4, 20, 52, full.Len() - 1} {
		t.Run(fmt.Sprintf("%d bytes", n), func(t *testing.T) {
			_, err := decodeBytes(t, full.Truncated(n))
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrTruncated)
			assert.Equal(t, errors.ErrorTypeTruncated, errors.TypeOf(err))
		})
	}
}

func TestDecodeTruncatedWinsOverVersionCheck(t *testing.T) {
	// The version field itself is cut short, so it reads as zero-filled.
	data := testutil.NewSaveFile(LLMagic).Raw([]byte{1, 0}).Bytes()

	_, err := decodeBytes(t, data)
	assert.ErrorIs(t, err, errors.ErrTruncated)
}

func TestDecodeFileMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p404")
	_, err := DecodeFile(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrIO)
	assert.Contains(t, err.Error(), path)
}

func TestDecodeFileAnnotatesPath(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteFile(t, dir, "p1", testutil.LLFile(2, 1000, 1, 0))

	_, err := DecodeFile(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrUnsupportedVersion)
	assert.Contains(t, err.Error(), path)
}

func TestDecodePrimality(t *testing.T) {
	t.Run("LL", func(t *testing.T) {
		rec, err := decodeBytes(t, testutil.LLFile(LLVersion, 86243, 43000, 0.4986))
		require.NoError(t, err)
		assert.Equal(t, WorkLLTest, rec.WorkType)
		require.NotNil(t, rec.Primality)
		assert.Equal(t, uint32(43000), rec.Primality.Iterations)
		assert.Equal(t, Exact(0.4986), rec.Progress())
	})

	t.Run("PRP", func(t *testing.T) {
		rec, err := decodeBytes(t, testutil.PRPFile(PRPVersion, 110503, 100, 0.001))
		require.NoError(t, err)
		assert.Equal(t, WorkPRPTest, rec.WorkType)
		assert.Equal(t, uint32(100), rec.Primality.Iterations)
	})

	t.Run("LL unsupported version", func(t *testing.T) {
		_, err := decodeBytes(t, testutil.LLFile(2, 86243, 1, 0))
		assert.ErrorIs(t, err, errors.ErrUnsupportedVersion)
	})

	t.Run("PRP unsupported version", func(t *testing.T) {
		_, err := decodeBytes(t, testutil.PRPFile(1, 86243, 1, 0))
		assert.ErrorIs(t, err, errors.ErrUnsupportedVersion)
	})
}

func TestDecodeFactor(t *testing.T) {
	data := testutil.NewSaveFile(FactorMagic).Header(testutil.DefaultHeader(9, 1000)).Bytes()
	rec, err := decodeBytes(t, data)
	require.NoError(t, err)
	assert.Equal(t, WorkFactor, rec.WorkType)
	assert.Nil(t, rec.ECM)
	assert.Nil(t, rec.PMinus1)
	assert.Nil(t, rec.Primality)
	assert.False(t, rec.Progress().Available())
}

func TestWorkTypeOf(t *testing.T) {
	assert.Equal(t, WorkECM, WorkTypeOf(ECMMagic))
	assert.Equal(t, WorkPMinus1, WorkTypeOf(PM1Magic))
	assert.Equal(t, WorkLLTest, WorkTypeOf(LLMagic))
	assert.Equal(t, WorkPRPTest, WorkTypeOf(PRPMagic))
	assert.Equal(t, WorkFactor, WorkTypeOf(FactorMagic))
	assert.Equal(t, WorkUnknown, WorkTypeOf(0))
}

func TestEstimateString(t *testing.T) {
	tests := []struct {
		est  Estimate
		want string
	}{
		{Exact(0.5), "50.0%"},
		{Exact(1), "100.0%"},
		{Approximate(0.426), "~~43%"},
		{ComputingGCD(), "99%, computing GCD"},
		{Unavailable(), ""},
		{Estimate{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.est.String())
		})
	}
}
