// Package recommend turns a movie title into an ordered list of enriched
// recommendations.
//
// The Engine ranks the title's similarity row, drops the self-match, keeps
// the top window candidates and enriches the first k of them with TMDB
// metadata (search, then details, then credits). Enrichment never shrinks a
// batch: a candidate whose lookups fail is returned in one of two placeholder
// shapes instead, so callers always get exactly k results in similarity order.
// Only an unknown title or an invalid count fails the whole request.
package recommend
