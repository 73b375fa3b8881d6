// Package artifact manages the on-disk recommendation model: the JSON movie
// list and the binary similarity matrix.
//
// Ensure makes sure the matrix exists locally, downloading it from the
// configured URL on first use. Downloads are serialized across processes with
// a file lock next to the target and land via temp file plus rename, so a
// concurrent reader never sees a partial matrix. Import copies externally
// produced artifacts into the data directory after validating them, and
// Describe reports what is installed.
package artifact
