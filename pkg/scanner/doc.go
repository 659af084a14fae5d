// Package scanner finds save files in a working directory.
//
// The client names its checkpoints after the work type and exponent, for
// example p9000001, m86243_2 or e1277.bu2. Anything else in the directory
// (worktodo.txt, results logs, subdirectories) is ignored.
package scanner
