package savefile

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"p95status/internal/testutil"
	"p95status/pkg/errors"
)

func pm1(version uint32, pct float64) *testutil.SaveFile {
	h := testutil.DefaultHeader(version, 9_000_001)
	h.PctComplete = pct
	return testutil.NewSaveFile(PM1Magic).Header(h)
}

func TestDecodePMinus1States(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want *PMinus1Data
	}{
		{
			name: "stage 0",
			data: pm1(6, 0.1).S32(0).U64(0).U32(100_000).U32(4_000).Bytes(),
			want: &PMinus1Data{
				Layout: LayoutV5, State: PMinus1Stage0, Stage: PMinus1B1Pre,
				MaxStage0Prime: 100_000, Stage0Bitnum: 4_000,
				B1Guess: 4_000, Progress: Exact(0.1),
			},
		},
		{
			name: "stage 0 version 7 reads the second bit number",
			data: pm1(7, 0.1).S32(0).U64(0).U32(100_000).U32(4_000).U32(5_000).Bytes(),
			want: &PMinus1Data{
				Layout: LayoutV5, State: PMinus1Stage0, Stage: PMinus1B1Pre,
				MaxStage0Prime: 100_000, Stage0Bitnum: 5_000,
				B1Guess: 5_000, Progress: Exact(0.1),
			},
		},
		{
			name: "stage 1 with B_done",
			data: pm1(5, 0.4).S32(1).U64(300_000).U64(0).U64(250_007).Bytes(),
			want: &PMinus1Data{
				Layout: LayoutV5, State: PMinus1Stage1, Stage: PMinus1B1,
				BDone: 300_000, Stage1Prime: 250_007,
				B1Guess: 300_000, Progress: Exact(0.4),
			},
		},
		{
			name: "stage 1 falls back to stage1_prime",
			data: pm1(5, 0.4).S32(1).U64(0).U64(0).U64(250_007).Bytes(),
			want: &PMinus1Data{
				Layout: LayoutV5, State: PMinus1Stage1, Stage: PMinus1B1,
				Stage1Prime: 250_007,
				B1Guess:     250_007, Progress: Exact(0.4),
			},
		},
		{
			name: "midstage",
			data: pm1(6, 1).S32(2).U64(1_000_000).U64(0).Bytes(),
			want: &PMinus1Data{
				Layout: LayoutV5, State: PMinus1Midstage, Stage: PMinus1B1,
				BDone: 1_000_000, B1Guess: 1_000_000, Progress: Exact(1),
			},
		},
		{
			name: "stage 2",
			data: pm1(6, 0).S32(3).U64(1_000_000).U64(50_000_000).U64(25_000_000).Bytes(),
			want: &PMinus1Data{
				Layout: LayoutV5, State: PMinus1Stage2, Stage: PMinus1B2,
				BDone: 1_000_000, CDone: 50_000_000, InterimC: 25_000_000,
				B1Guess: 1_000_000, B2Guess: 50_000_000, Progress: Exact(0.5),
			},
		},
		{
			name: "stage 2 without C_done",
			data: pm1(6, 0).S32(3).U64(1_000_000).U64(0).U64(25_000_000).Bytes(),
			want: &PMinus1Data{
				Layout: LayoutV5, State: PMinus1Stage2, Stage: PMinus1B2,
				BDone: 1_000_000, InterimC: 25_000_000,
				B1Guess: 1_000_000, Progress: Unavailable(),
			},
		},
		{
			name: "gcd",
			data: pm1(6, 0).S32(4).U64(1_000_000).U64(30_000_000).Bytes(),
			want: &PMinus1Data{
				Layout: LayoutV5, State: PMinus1GCD, Stage: PMinus1B2,
				BDone: 1_000_000, CDone: 30_000_000,
				B1Guess: 1_000_000, B2Guess: 30_000_000, Progress: ComputingGCD(),
			},
		},
		{
			name: "done",
			data: pm1(6, 0).S32(5).U64(1_000_000).U64(1_000_000).Bytes(),
			want: &PMinus1Data{
				Layout: LayoutV5, State: PMinus1Finished, Stage: PMinus1Done,
				BDone: 1_000_000, CDone: 1_000_000,
				B1Guess: 1_000_000, B2Guess: 1_000_000, Progress: Exact(1),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := decodeBytes(t, tt.data)
			require.NoError(t, err)
			assert.Equal(t, WorkPMinus1, rec.WorkType)
			if diff := cmp.Diff(tt.want, rec.PMinus1); diff != "" {
				t.Errorf("P-1 fields mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodePMinus1MalformedState(t *testing.T) {
	_, err := decodeBytes(t, pm1(6, 0).S32(6).U64(1).U64(1).Bytes())
	assert.ErrorIs(t, err, errors.ErrMalformedState)

	_, err = decodeBytes(t, legacyPM1(4, 7).Bytes())
	assert.ErrorIs(t, err, errors.ErrMalformedState)
}

func TestDecodePMinus1UnsupportedVersion(t *testing.T) {
	_, err := decodeBytes(t, pm1(8, 0).S32(5).U64(1).U64(1).Bytes())
	assert.ErrorIs(t, err, errors.ErrUnsupportedVersion)
}

// legacyPM1 writes a pre-version-5 file. Versions 3 and 4 store max_stage0_prime.
func legacyPM1(version, state uint32) *testutil.SaveFile {
	s := pm1(version, 0.6).U32(state)
	if version >= 3 {
		s.U32(20_000_000)
	}
	return s.
		U64(500_000).    // B_done
		U64(1_000_000).  // B
		U64(40_000_000). // C_done
		U64(1_000_000).  // C_start
		U64(40_000_000). // C
		U64(700_000).    // processed
		U32(2310).U32(6).U32(12)
}

func TestDecodePMinus1Legacy(t *testing.T) {
	t.Run("stage 0", func(t *testing.T) {
		rec, err := decodeBytes(t, legacyPM1(2, 3).Bytes())
		require.NoError(t, err)
		d := rec.PMinus1
		assert.Equal(t, LayoutLegacy, d.Layout)
		assert.Equal(t, PMinus1B1Pre, d.Stage)
		assert.Equal(t, uint64(700_000), d.B1Guess)
		assert.Equal(t, uint32(legacyMaxStage0Prime), d.MaxStage0Prime)
		assert.Equal(t, Exact(0.6), d.Progress)
	})

	t.Run("stage 0 version 1 discards processed", func(t *testing.T) {
		rec, err := decodeBytes(t, legacyPM1(1, 3).Bytes())
		require.NoError(t, err)
		assert.Equal(t, uint64(700_000), rec.PMinus1.Processed)
		assert.Equal(t, uint64(0), rec.PMinus1.B1Guess)
	})

	t.Run("stage 1 takes the larger bound", func(t *testing.T) {
		rec, err := decodeBytes(t, legacyPM1(3, 0).Bytes())
		require.NoError(t, err)
		assert.Equal(t, PMinus1B1, rec.PMinus1.Stage)
		assert.Equal(t, uint32(20_000_000), rec.PMinus1.MaxStage0Prime)
		assert.Equal(t, uint64(700_000), rec.PMinus1.B1Guess)
	})

	t.Run("stage 2", func(t *testing.T) {
		rec, err := decodeBytes(t, legacyPM1(4, 1).Bytes())
		require.NoError(t, err)
		assert.Equal(t, PMinus1B2, rec.PMinus1.Stage)
		assert.Equal(t, uint64(500_000), rec.PMinus1.B1Guess)
		assert.Equal(t, uint64(40_000_000), rec.PMinus1.B2Guess)
	})

	t.Run("done keeps the trailing fields", func(t *testing.T) {
		rec, err := decodeBytes(t, legacyPM1(2, 2).Bytes())
		require.NoError(t, err)
		d := rec.PMinus1
		assert.Equal(t, PMinus1Done, d.Stage)
		assert.Equal(t, uint32(2310), d.D)
		assert.Equal(t, uint32(6), d.E)
		assert.Equal(t, uint32(12), d.RelsDone)
		assert.Equal(t, uint64(1_000_000), d.CStart)
	})

	t.Run("version 2 stores no max_stage0_prime", func(t *testing.T) {
		data := legacyPM1(2, 2).Bytes()
		// one more field would have been read if the prime were stored
		rec, err := decodeBytes(t, data)
		require.NoError(t, err)
		assert.Equal(t, uint32(12), rec.PMinus1.RelsDone)

		_, err = decodeBytes(t, data[:len(data)-1])
		assert.ErrorIs(t, err, errors.ErrTruncated)
	})
}
