// Package testutil builds save file fixtures for tests. It writes the
// little-endian layout the client produces; nothing outside tests imports it.
package testutil

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
)

// Header holds the common header fields written after the magic number
type Header struct {
	Version     uint32
	K           float64
	B           uint32
	N           uint32
	C           int32
	Stage       [11]byte
	Pad         byte
	PctComplete float64
	Checksum    uint32
}

// DefaultHeader returns a header for 1*2^n-1 at the given version
func DefaultHeader(version, n uint32) Header {
	return Header{
		Version: version,
		K:       1,
		B:       2,
		N:       n,
		C:       -1,
	}
}

// SaveFile accumulates the bytes of a fixture
type SaveFile struct {
	buf bytes.Buffer
}

// NewSaveFile starts a fixture with the given magic number
func NewSaveFile(magic uint32) *SaveFile {
	s := &SaveFile{}
	return s.U32(magic)
}

// Header appends the 48 header bytes
func (s *SaveFile) Header(h Header) *SaveFile {
	s.U32(h.Version)
	s.F64(h.K)
	s.U32(h.B)
	s.U32(h.N)
	s.S32(h.C)
	s.buf.Write(h.Stage[:])
	s.buf.WriteByte(h.Pad)
	s.F64(h.PctComplete)
	return s.U32(h.Checksum)
}

func (s *SaveFile) U32(v uint32) *SaveFile {
	_ = binary.Write(&s.buf, binary.LittleEndian, v)
	return s
}

func (s *SaveFile) S32(v int32) *SaveFile {
	_ = binary.Write(&s.buf, binary.LittleEndian, v)
	return s
}

func (s *SaveFile) U64(v uint64) *SaveFile {
	_ = binary.Write(&s.buf, binary.LittleEndian, v)
	return s
}

func (s *SaveFile) F64(v float64) *SaveFile {
	return s.U64(math.Float64bits(v))
}

// Raw appends arbitrary bytes, such as the work data that follows the fields
func (s *SaveFile) Raw(b []byte) *SaveFile {
	s.buf.Write(b)
	return s
}

// Bytes returns the fixture contents
func (s *SaveFile) Bytes() []byte {
	return bytes.Clone(s.buf.Bytes())
}

// Len returns the number of bytes written so far
func (s *SaveFile) Len() int {
	return s.buf.Len()
}

// Truncated returns the first n bytes of the fixture
func (s *SaveFile) Truncated(n int) []byte {
	b := s.Bytes()
	if n > len(b) {
		n = len(b)
	}
	return b[:n]
}

// WriteFile writes data to dir/name and returns the path
func WriteFile(tb testing.TB, dir, name string, data []byte) string {
	tb.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		tb.Fatalf("Failed to write fixture %s: %v", name, err)
	}
	return path
}

// Magic numbers duplicated here so fixtures can be built from any package's tests
const (
	FactorMagic uint32 = 0x1567234D
	LLMagic     uint32 = 0x2C7330A8
	PRPMagic    uint32 = 0x87F2A91B
	ECMMagic    uint32 = 0x1725BCD9
	PM1Magic    uint32 = 0x317A394B
)

// LLFile returns a complete LL test file
func LLFile(version, n, iterations uint32, pct float64) []byte {
	h := DefaultHeader(version, n)
	h.PctComplete = pct
	return NewSaveFile(LLMagic).Header(h).U32(0).U32(iterations).Bytes()
}

// PRPFile returns a complete PRP test file
func PRPFile(version, n, iterations uint32, pct float64) []byte {
	h := DefaultHeader(version, n)
	h.PctComplete = pct
	return NewSaveFile(PRPMagic).Header(h).U32(0).U32(iterations).Bytes()
}

// PM1V5File returns a version 5-7 P-1 file for the states that store B_done and
// C_done only (MIDSTAGE, GCD, DONE)
func PM1V5File(version, state uint32, bDone, cDone uint64, pct float64) []byte {
	h := DefaultHeader(version, 9_000_001)
	h.PctComplete = pct
	return NewSaveFile(PM1Magic).Header(h).S32(int32(state)).U64(bDone).U64(cDone).Bytes()
}

// PM1Stage2File returns a version 5-7 P-1 file in stage 2
func PM1Stage2File(version uint32, bDone, cDone, interimC uint64) []byte {
	h := DefaultHeader(version, 9_000_001)
	return NewSaveFile(PM1Magic).Header(h).S32(3).U64(bDone).U64(cDone).U64(interimC).Bytes()
}

// ECMLegacyFile returns a version 0-2 ECM file
func ECMLegacyFile(version, state, curve uint32, pct float64) []byte {
	h := DefaultHeader(version, 1277)
	h.PctComplete = pct
	return NewSaveFile(ECMMagic).Header(h).
		U32(state).U32(curve).F64(12345.0).
		U64(50_000).U64(50_000).U64(0).
		Bytes()
}
