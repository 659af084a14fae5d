// Package savefile decodes the save files a Prime95/mprime client leaves in its
// working directory.
//
// Every file begins with a magic number naming the algorithm (ECM, P-1, LL,
// PRP or trial factoring) and a common header. The version stored in the header
// selects one of several historical layouts for the rest of the file, and for
// ECM and P-1 a stored state selects the fields that follow and how progress is
// estimated from them.
//
// Decoding never panics on bad input. Short files are walked to the end with
// zero-filled fields and reported as truncated; unknown magic numbers,
// versions and states are reported as typed errors from package errors.
//
//	rec, err := savefile.DecodeFile("p1234567")
//	if err != nil {
//	    // errors.TypeOf(err) classifies the failure
//	}
//	fmt.Println(rec.WorkType, rec.Progress())
//
// The trailing checksum in the header is read and discarded; it is never verified.
package savefile
