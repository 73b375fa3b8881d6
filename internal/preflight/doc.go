// Package preflight provides readiness checks for the services and files
// cinematch depends on.
//
// These checks run in two contexts:
//   - The daemon calls RunAll at startup and logs every failure before it
//     starts serving, so operators see a missing model or bad api key early.
//   - The CLI "cinematch status" command renders the same results as a table.
//
// Checks never return errors; each Result carries a human-readable detail.
package preflight
