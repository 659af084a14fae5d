package savefile

import (
	"fmt"
	"math"
)

// Magic numbers written by the client at offset 0 of each save file
const (
	FactorMagic uint32 = 0x1567234D
	LLMagic     uint32 = 0x2C7330A8
	PRPMagic    uint32 = 0x87F2A91B
	ECMMagic    uint32 = 0x1725BCD9
	PM1Magic    uint32 = 0x317A394B
)

// Only one layout exists for the primality test files
const (
	LLVersion  uint32 = 1
	PRPVersion uint32 = 4
)

// WorkType identifies the algorithm that produced a save file
type WorkType string

const (
	WorkECM     WorkType = "ECM"
	WorkPMinus1 WorkType = "PMINUS1"
	WorkLLTest  WorkType = "LL"
	WorkPRPTest WorkType = "PRP"
	WorkFactor  WorkType = "FACTOR"
	WorkUnknown WorkType = "UNKNOWN"
)

// workTypes maps a magic number to its work type
var workTypes = map[uint32]WorkType{
	ECMMagic:    WorkECM,
	PM1Magic:    WorkPMinus1,
	LLMagic:     WorkLLTest,
	PRPMagic:    WorkPRPTest,
	FactorMagic: WorkFactor,
}

// WorkTypeOf returns the work type for magic, or WorkUnknown
func WorkTypeOf(magic uint32) WorkType {
	if wt, ok := workTypes[magic]; ok {
		return wt
	}
	return WorkUnknown
}

// Record is one decoded save file. Exactly one of ECM, PMinus1 and Primality is
// set, matching WorkType; Factor and Unknown records carry only the header.
type Record struct {
	Header   `yaml:",inline"`
	WorkType WorkType `json:"work_type" yaml:"work_type" msgpack:"work_type"`

	ECM       *ECMData       `json:"ecm,omitempty" yaml:"ecm,omitempty" msgpack:"ecm,omitempty"`
	PMinus1   *PMinus1Data   `json:"pminus1,omitempty" yaml:"pminus1,omitempty" msgpack:"pminus1,omitempty"`
	Primality *PrimalityData `json:"primality,omitempty" yaml:"primality,omitempty" msgpack:"primality,omitempty"`
}

// Progress returns the estimate derived for the record's work type
func (r *Record) Progress() Estimate {
	switch {
	case r.ECM != nil:
		return r.ECM.Progress
	case r.PMinus1 != nil:
		return r.PMinus1.Progress
	case r.Primality != nil:
		return r.Primality.Progress
	}
	return Unavailable()
}

// PrimalityData holds the fields of LL and PRP test files
type PrimalityData struct {
	ErrorCount uint32   `json:"error_count" yaml:"error_count" msgpack:"error_count"`
	Iterations uint32   `json:"iterations" yaml:"iterations" msgpack:"iterations"`
	Progress   Estimate `json:"progress" yaml:"progress" msgpack:"progress"`
}

// EstimateKind says how a progress value was obtained
type EstimateKind string

const (
	EstimateUnavailable  EstimateKind = "unavailable"
	EstimateExact        EstimateKind = "exact"
	EstimateApproximate  EstimateKind = "approximate"
	EstimateComputingGCD EstimateKind = "computing_gcd"
)

// gcdProgress is the fixed value reported while the final GCD runs
const gcdProgress = 0.99

// Estimate is a derived completion value in [0,1]
type Estimate struct {
	Kind  EstimateKind `json:"kind" yaml:"kind" msgpack:"kind"`
	Value float64      `json:"value" yaml:"value" msgpack:"value"`
}

func Exact(v float64) Estimate {
	return Estimate{Kind: EstimateExact, Value: clampUnit(v)}
}

func Approximate(v float64) Estimate {
	return Estimate{Kind: EstimateApproximate, Value: clampUnit(v)}
}

func ComputingGCD() Estimate {
	return Estimate{Kind: EstimateComputingGCD, Value: gcdProgress}
}

func Unavailable() Estimate {
	return Estimate{Kind: EstimateUnavailable}
}

// ratio returns an approximate or exact estimate of num/den, or Unavailable when
// den is zero or num is below zero
func ratio(num, den float64, approximate bool) Estimate {
	if den <= 0 || num < 0 || math.IsNaN(num/den) {
		return Unavailable()
	}
	if approximate {
		return Approximate(num / den)
	}
	return Exact(num / den)
}

// Available reports whether the estimate carries a value
func (e Estimate) Available() bool {
	switch e.Kind {
	case EstimateExact, EstimateApproximate, EstimateComputingGCD:
		return true
	default:
		return false
	}
}

// String formats the estimate the way status lines show it
func (e Estimate) String() string {
	switch e.Kind {
	case EstimateExact:
		return fmt.Sprintf("%.1f%%", e.Value*100)
	case EstimateApproximate:
		return fmt.Sprintf("~~%.0f%%", e.Value*100)
	case EstimateComputingGCD:
		return fmt.Sprintf("%.0f%%, computing GCD", e.Value*100)
	default:
		return ""
	}
}
