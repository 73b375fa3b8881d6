// Package similarity holds the precomputed movie-to-movie similarity matrix and
// the movie list it is indexed by.
//
// A Store is built once from the persisted artifact (a JSON movie list plus a
// little-endian float32 matrix) and is read-only afterwards, so any number of
// goroutines may call Rank concurrently without locking. Rank returns every
// movie ordered by descending similarity; by convention position 0 is the
// queried movie itself and callers drop it.
package similarity
