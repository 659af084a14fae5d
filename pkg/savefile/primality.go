package savefile

// decodePrimality reads the LL and PRP layout. The caller has already matched the
// single supported version for the work type.
func decodePrimality(r *reader, rec *Record) error {
	d := &PrimalityData{}
	d.ErrorCount = r.u32()
	d.Iterations = r.u32()
	d.Progress = Exact(rec.PctComplete)
	rec.Primality = d
	return nil
}
