// Package preflight provides readiness checks for the filesystem paths a run
// depends on.
//
// These checks run in two contexts:
//   - The organize service calls RunAll before scanning. If any check fails,
//     the run stops before a single job is planned.
//   - The CLI "config validate" command prints every result so permission
//     problems surface without starting a run.
package preflight
