package savefile

import "math"

// StageTagLength is the size of the opaque stage tag stored in every header
const StageTagLength = 11

// HeaderSize is the number of bytes following the magic number
const HeaderSize = 48

// Header is the prologue shared by every save file.
// K, B, N and C describe the number k*b^n+c being worked on.
type Header struct {
	Magic       uint32  `json:"magic" yaml:"magic" msgpack:"magic"`
	Version     uint32  `json:"version" yaml:"version" msgpack:"version"`
	K           float64 `json:"k" yaml:"k" msgpack:"k"`
	B           uint32  `json:"b" yaml:"b" msgpack:"b"`
	N           uint32  `json:"n" yaml:"n" msgpack:"n"`
	C           int32   `json:"c" yaml:"c" msgpack:"c"`
	PctComplete float64 `json:"pct_complete" yaml:"pct_complete" msgpack:"pct_complete"`

	// Diagnostic only; not exported.
	Stage [StageTagLength]byte `json:"-" yaml:"-" msgpack:"-"`
	Pad   byte                 `json:"-" yaml:"-" msgpack:"-"`
}

// readHeader reads the fields after the magic number. The trailing checksum
// is consumed and dropped.
func readHeader(r *reader, magic uint32) Header {
	h := Header{Magic: magic}
	h.Version = r.u32()
	h.K = r.f64()
	h.B = r.u32()
	h.N = r.u32()
	h.C = r.s32()
	r.bytes(h.Stage[:])
	h.Pad = r.fill(1)[0]
	h.PctComplete = r.f64()
	_ = r.u32() // checksum

	h.Stage[StageTagLength-1] = 0
	h.PctComplete = clampUnit(h.PctComplete)
	return h
}

// StageTag returns the stage tag up to its first NUL byte
func (h Header) StageTag() string {
	for i, c := range h.Stage {
		if c == 0 {
			return string(h.Stage[:i])
		}
	}
	return string(h.Stage[:])
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
