// Package textutil provides title matching helpers: Unicode case folding,
// token fingerprints with cosine similarity for "did you mean" suggestions,
// and rune-safe truncation for display.
//
// Fingerprints use term frequency vectors normalized for efficient comparison.
// Tokenization folds case, splits on anything that is not a letter or digit,
// and keeps single-character tokens so short titles such as "Up" or "9" still
// produce a fingerprint.
package textutil
