package savefile

import (
	"io"
	"math"
	"os"

	"p95status/pkg/errors"
)

type decodeFunc func(r *reader, rec *Record) error

// variant is one historical layout, selected by magic number and version range
type variant struct {
	magic      uint32
	minVersion uint32
	maxVersion uint32
	decode     decodeFunc
}

var variants = []variant{
	{ECMMagic, 0, 2, decodeECMLegacy},
	{ECMMagic, 3, 3, decodeECMv3},
	{PM1Magic, 0, 4, decodePMinus1Legacy},
	{PM1Magic, 5, 7, decodePMinus1},
	{LLMagic, LLVersion, LLVersion, decodePrimality},
	{PRPMagic, PRPVersion, PRPVersion, decodePrimality},
	{FactorMagic, 0, math.MaxUint32, decodeFactor},
}

func lookupVariant(magic, version uint32) (variant, bool) {
	for _, v := range variants {
		if v.magic == magic && version >= v.minVersion && version <= v.maxVersion {
			return v, true
		}
	}
	return variant{}, false
}

// Decode reads one save file from r.
//
// The returned record is non-nil whenever the magic number could be read, even
// when err is not nil, so callers can log what was recovered. A short read
// anywhere makes the result a truncation error, since later fields are zero-filled.
func Decode(r io.Reader) (*Record, error) {
	br := newReader(r)

	magic := br.u32()
	if err := br.truncated(); err != nil {
		return nil, err
	}

	rec := &Record{
		Header:   Header{Magic: magic},
		WorkType: WorkTypeOf(magic),
	}
	if rec.WorkType == WorkUnknown {
		return rec, errors.New(errors.ErrorTypeUnknownFormat, "magic number 0x%08X", magic)
	}

	rec.Header = readHeader(br, magic)

	var err error
	if v, ok := lookupVariant(magic, rec.Version); ok {
		err = v.decode(br, rec)
	} else {
		err = errors.New(errors.ErrorTypeUnsupportedVersion, "%s version %d", rec.WorkType, rec.Version)
	}

	if terr := br.truncated(); terr != nil {
		return rec, terr
	}
	return rec, err
}

// DecodeFile opens, decodes and closes the file at path. Errors carry path.
func DecodeFile(path string) (*Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeIO, path, err)
	}
	defer f.Close()

	rec, err := Decode(f)
	if err != nil {
		return rec, errors.WithPath(err, path)
	}
	return rec, nil
}
