package savefile

// decodeFactor accepts trial factoring files without reading past the header
func decodeFactor(_ *reader, _ *Record) error {
	return nil
}
