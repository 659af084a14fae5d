// Package watch turns filesystem events in a save file directory into
// debounced change batches.
//
// Events for names the MatchFunc rejects are counted and dropped. A name is
// delivered once no event has touched it for the debounce window, so a client
// rewriting a file several times in a row produces one batch.
package watch
