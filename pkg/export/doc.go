// Package export writes the decoded records of a status run to disk.
//
// A Document holds every decoded record keyed by file name, the failure reason
// of every file that could not be decoded, and a run ID shared with the log
// output. Documents encode as JSON, YAML or MessagePack. Files are replaced
// atomically through a temporary file in the same directory, so a reader never
// sees a partial export.
//
// The raw stage tag and pad byte of the header are never exported.
//
// Usage:
//
//	doc := export.NewDocument(report, runID)
//	if err := export.Write("status.json", "", doc); err != nil {
//	    return err
//	}
package export
