package savefile

import "p95status/pkg/errors"

// ECMState is the phase stored in a version 3 ECM file. Legacy files store the
// zero-based stage number instead.
type ECMState uint32

const (
	ECMStage1Init ECMState = 0
	ECMStage1     ECMState = 1
	ECMMidstage   ECMState = 2
	ECMStage2     ECMState = 3
	ECMGCD        ECMState = 4
)

var ecmStateNames = map[ECMState]string{
	ECMStage1Init: "STAGE1_INIT",
	ECMStage1:     "STAGE1",
	ECMMidstage:   "MIDSTAGE",
	ECMStage2:     "STAGE2",
	ECMGCD:        "GCD",
}

func (s ECMState) String() string {
	if name, ok := ecmStateNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// Layout names for ECMData.Layout and PMinus1Data.Layout
const (
	LayoutLegacy = "legacy"
	LayoutV3     = "v3"
	LayoutV5     = "v5"
)

// ECMData holds the ECM-specific fields. Which ones are populated depends on
// Layout and State.
type ECMData struct {
	Layout string   `json:"layout" yaml:"layout" msgpack:"layout"`
	State  ECMState `json:"state" yaml:"state" msgpack:"state"`
	// Stage is the 1-based stage shown to the user.
	Stage int     `json:"stage" yaml:"stage" msgpack:"stage"`
	Curve uint32  `json:"curve" yaml:"curve" msgpack:"curve"`
	Sigma float64 `json:"sigma" yaml:"sigma" msgpack:"sigma"`
	B     uint64  `json:"b1" yaml:"b1" msgpack:"b1"`

	// legacy
	BDone uint64 `json:"b_done,omitempty" yaml:"b_done,omitempty" msgpack:"b_done,omitempty"`
	CDone uint64 `json:"c_done,omitempty" yaml:"c_done,omitempty" msgpack:"c_done,omitempty"`

	// v3
	AverageB2   uint64 `json:"average_b2,omitempty" yaml:"average_b2,omitempty" msgpack:"average_b2,omitempty"`
	C           uint64 `json:"b2,omitempty" yaml:"b2,omitempty" msgpack:"b2,omitempty"`
	Stage1Prime uint64 `json:"stage1_prime,omitempty" yaml:"stage1_prime,omitempty" msgpack:"stage1_prime,omitempty"`
	B2Start     uint64 `json:"b2_start,omitempty" yaml:"b2_start,omitempty" msgpack:"b2_start,omitempty"`

	Progress Estimate `json:"progress" yaml:"progress" msgpack:"progress"`
}

// decodeECMLegacy handles versions 0 through 2
func decodeECMLegacy(r *reader, rec *Record) error {
	d := &ECMData{Layout: LayoutLegacy}
	d.State = ECMState(r.u32())
	d.Curve = r.u32()
	d.Sigma = r.f64()
	d.B = r.u64()
	d.BDone = r.u64()
	d.CDone = r.u64()

	d.Stage = int(d.State) + 1
	d.Progress = Exact(rec.PctComplete)
	rec.ECM = d
	return nil
}

type ecmStateLayout struct {
	stage int
	read  func(r *reader, d *ECMData)
}

var ecmStateLayouts = map[ECMState]ecmStateLayout{
	ECMStage1Init: {stage: 1},
	ECMStage1: {stage: 1, read: func(r *reader, d *ECMData) {
		d.Stage1Prime = r.u64()
	}},
	ECMMidstage: {stage: 1},
	ECMStage2:   {stage: 2, read: readECMStage2},
	ECMGCD: {stage: 2, read: func(_ *reader, d *ECMData) {
		d.Progress = ComputingGCD()
	}},
}

// readECMStage2 skips the stage 2 bookkeeping and estimates how far through
// [B2Start, C] the curve is.
func readECMStage2(r *reader, d *ECMData) {
	r.skip(4, 6)
	r.skip(8, 2)
	d.B2Start = r.u64()
	d.CDone = r.u64()

	if d.C <= d.B2Start {
		d.Progress = Unavailable()
		return
	}
	d.Progress = ratio(float64(d.CDone)-float64(d.B2Start), float64(d.C-d.B2Start), true)
}

// decodeECMv3 handles version 3
func decodeECMv3(r *reader, rec *Record) error {
	d := &ECMData{Layout: LayoutV3}
	d.Curve = r.u32()
	d.AverageB2 = r.u64()
	d.State = ECMState(uint32(r.s32()))
	d.Sigma = r.f64()
	d.B = r.u64()
	d.C = r.u64()
	rec.ECM = d

	layout, ok := ecmStateLayouts[d.State]
	if !ok {
		return errors.New(errors.ErrorTypeMalformedState, "ECM state %d", uint32(d.State))
	}
	d.Stage = layout.stage
	d.Progress = Exact(rec.PctComplete)
	if layout.read != nil {
		layout.read(r, d)
	}
	return nil
}
