// Package batch decodes a directory of save files on a fixed pool of workers.
//
// Every file gets exactly one result slot. Decode failures stay inside their
// slot and are reported alongside the decoded files.
package batch
