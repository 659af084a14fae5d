package savefile

import "p95status/pkg/errors"

// PMinus1Stage is the user-facing phase of a P-1 run
type PMinus1Stage string

const (
	PMinus1B1Pre PMinus1Stage = "B1_pre"
	PMinus1B1    PMinus1Stage = "B1"
	PMinus1B2    PMinus1Stage = "B2"
	PMinus1Done  PMinus1Stage = "DONE"
)

// PMinus1State is the raw state code. The numbering differs between the
// legacy layout and the version 5-7 layout.
type PMinus1State uint32

// Version 5-7 states
const (
	PMinus1Stage0   PMinus1State = 0
	PMinus1Stage1   PMinus1State = 1
	PMinus1Midstage PMinus1State = 2
	PMinus1Stage2   PMinus1State = 3
	PMinus1GCD      PMinus1State = 4
	PMinus1Finished PMinus1State = 5
)

// Legacy (version < 5) states
const (
	LegacyPMinus1Stage1 PMinus1State = 0
	LegacyPMinus1Stage2 PMinus1State = 1
	LegacyPMinus1Done   PMinus1State = 2
	LegacyPMinus1Stage0 PMinus1State = 3
)

// legacyMaxStage0Prime is implied by versions that do not store it
const legacyMaxStage0Prime = 13333333

// PMinus1Data holds the P-1 fields. B1Guess and B2Guess are the bounds inferred
// from whichever fields the state makes meaningful.
type PMinus1Data struct {
	Layout string       `json:"layout" yaml:"layout" msgpack:"layout"`
	State  PMinus1State `json:"state" yaml:"state" msgpack:"state"`
	Stage  PMinus1Stage `json:"stage" yaml:"stage" msgpack:"stage"`

	BDone          uint64 `json:"b_done" yaml:"b_done" msgpack:"b_done"`
	CDone          uint64 `json:"c_done" yaml:"c_done" msgpack:"c_done"`
	InterimB       uint64 `json:"interim_b,omitempty" yaml:"interim_b,omitempty" msgpack:"interim_b,omitempty"`
	InterimC       uint64 `json:"interim_c,omitempty" yaml:"interim_c,omitempty" msgpack:"interim_c,omitempty"`
	Stage1Prime    uint64 `json:"stage1_prime,omitempty" yaml:"stage1_prime,omitempty" msgpack:"stage1_prime,omitempty"`
	MaxStage0Prime uint32 `json:"max_stage0_prime,omitempty" yaml:"max_stage0_prime,omitempty" msgpack:"max_stage0_prime,omitempty"`
	Stage0Bitnum   uint32 `json:"stage0_bitnum,omitempty" yaml:"stage0_bitnum,omitempty" msgpack:"stage0_bitnum,omitempty"`

	// legacy only
	B         uint64 `json:"b,omitempty" yaml:"b,omitempty" msgpack:"b,omitempty"`
	CStart    uint64 `json:"c_start,omitempty" yaml:"c_start,omitempty" msgpack:"c_start,omitempty"`
	C         uint64 `json:"c,omitempty" yaml:"c,omitempty" msgpack:"c,omitempty"`
	Processed uint64 `json:"processed,omitempty" yaml:"processed,omitempty" msgpack:"processed,omitempty"`
	D         uint32 `json:"d,omitempty" yaml:"d,omitempty" msgpack:"d,omitempty"`
	E         uint32 `json:"e,omitempty" yaml:"e,omitempty" msgpack:"e,omitempty"`
	RelsDone  uint32 `json:"rels_done,omitempty" yaml:"rels_done,omitempty" msgpack:"rels_done,omitempty"`

	B1Guess  uint64   `json:"b1_guess" yaml:"b1_guess" msgpack:"b1_guess"`
	B2Guess  uint64   `json:"b2_guess,omitempty" yaml:"b2_guess,omitempty" msgpack:"b2_guess,omitempty"`
	Progress Estimate `json:"progress" yaml:"progress" msgpack:"progress"`
}

// pm1StateLayout describes one state: the fields it stores and how the bounds
// and progress are derived from them
type pm1StateLayout struct {
	stage PMinus1Stage
	read  func(r *reader, d *PMinus1Data, version uint32)
	guess func(d *PMinus1Data, h *Header)
}

func readDoneBounds(r *reader, d *PMinus1Data, _ uint32) {
	d.BDone = r.u64()
	d.CDone = r.u64()
}

func guessBothBounds(d *PMinus1Data) {
	d.B1Guess = d.BDone
	d.B2Guess = d.CDone
}

var pm1StateLayouts = map[PMinus1State]pm1StateLayout{
	PMinus1Stage0: {
		stage: PMinus1B1Pre,
		read: func(r *reader, d *PMinus1Data, version uint32) {
			d.InterimB = r.u64()
			d.MaxStage0Prime = r.u32()
			d.Stage0Bitnum = r.u32()
			if version == 7 {
				// version 7 writes the bit number a second time; the later value wins
				d.Stage0Bitnum = r.u32()
			}
		},
		guess: func(d *PMinus1Data, h *Header) {
			d.B1Guess = uint64(d.Stage0Bitnum)
			d.Progress = Exact(h.PctComplete)
		},
	},
	PMinus1Stage1: {
		stage: PMinus1B1,
		read: func(r *reader, d *PMinus1Data, _ uint32) {
			d.BDone = r.u64()
			d.InterimB = r.u64()
			d.Stage1Prime = r.u64()
		},
		guess: func(d *PMinus1Data, h *Header) {
			d.B1Guess = d.BDone
			if d.B1Guess == 0 {
				d.B1Guess = d.Stage1Prime
			}
			d.Progress = Exact(h.PctComplete)
		},
	},
	PMinus1Midstage: {
		stage: PMinus1B1,
		read:  readDoneBounds,
		guess: func(d *PMinus1Data, h *Header) {
			d.B1Guess = d.BDone
			d.Progress = Exact(h.PctComplete)
		},
	},
	PMinus1Stage2: {
		stage: PMinus1B2,
		read: func(r *reader, d *PMinus1Data, _ uint32) {
			d.BDone = r.u64()
			d.CDone = r.u64()
			d.InterimC = r.u64()
		},
		guess: func(d *PMinus1Data, _ *Header) {
			guessBothBounds(d)
			d.Progress = ratio(float64(d.InterimC), float64(d.CDone), false)
		},
	},
	PMinus1GCD: {
		stage: PMinus1B2,
		read:  readDoneBounds,
		guess: func(d *PMinus1Data, _ *Header) {
			guessBothBounds(d)
			d.Progress = ComputingGCD()
		},
	},
	PMinus1Finished: {
		stage: PMinus1Done,
		read:  readDoneBounds,
		guess: func(d *PMinus1Data, _ *Header) {
			guessBothBounds(d)
			d.Progress = Exact(1)
		},
	},
}

// decodePMinus1 handles versions 5 through 7
func decodePMinus1(r *reader, rec *Record) error {
	d := &PMinus1Data{Layout: LayoutV5}
	d.State = PMinus1State(uint32(r.s32()))
	rec.PMinus1 = d

	layout, ok := pm1StateLayouts[d.State]
	if !ok {
		return errors.New(errors.ErrorTypeMalformedState, "P-1 state %d", uint32(d.State))
	}
	d.Stage = layout.stage
	layout.read(r, d, rec.Version)
	layout.guess(d, &rec.Header)
	return nil
}

// legacyPM1States maps legacy state codes to a stage and bound derivation.
// Every legacy file stores the same fields; only their meaning changes.
var legacyPM1States = map[PMinus1State]struct {
	stage PMinus1Stage
	guess func(d *PMinus1Data, h *Header)
}{
	LegacyPMinus1Stage0: {PMinus1B1Pre, func(d *PMinus1Data, h *Header) {
		// processed holds the bit number reached
		d.B1Guess = d.Processed
		if h.Version == 1 {
			// version 1 stage 0 files are not resumable, so the bit number is meaningless
			d.B1Guess = 0
		}
		d.Progress = Exact(h.PctComplete)
	}},
	LegacyPMinus1Stage1: {PMinus1B1, func(d *PMinus1Data, h *Header) {
		d.B1Guess = max(d.BDone, d.Processed)
		d.Progress = Exact(h.PctComplete)
	}},
	LegacyPMinus1Stage2: {PMinus1B2, func(d *PMinus1Data, h *Header) {
		guessBothBounds(d)
		// stage 2 of this era cannot be resumed; only the stored header value is known
		d.Progress = Exact(h.PctComplete)
	}},
	LegacyPMinus1Done: {PMinus1Done, func(d *PMinus1Data, _ *Header) {
		guessBothBounds(d)
		d.Progress = Exact(1)
	}},
}

// decodePMinus1Legacy handles versions below 5
func decodePMinus1Legacy(r *reader, rec *Record) error {
	d := &PMinus1Data{Layout: LayoutLegacy}
	d.State = PMinus1State(r.u32())
	if rec.Version >= 3 {
		d.MaxStage0Prime = r.u32()
	} else {
		d.MaxStage0Prime = legacyMaxStage0Prime
	}
	d.BDone = r.u64()
	d.B = r.u64()
	d.CDone = r.u64()
	d.CStart = r.u64()
	d.C = r.u64()
	d.Processed = r.u64()
	d.D = r.u32()
	d.E = r.u32()
	d.RelsDone = r.u32()
	rec.PMinus1 = d

	state, ok := legacyPM1States[d.State]
	if !ok {
		return errors.New(errors.ErrorTypeMalformedState, "legacy P-1 state %d", uint32(d.State))
	}
	d.Stage = state.stage
	state.guess(d, &rec.Header)
	return nil
}
