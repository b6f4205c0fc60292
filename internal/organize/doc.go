// Package organize runs the whole pipeline for one destination: preflight
// checks, the destination safety check, scanning, planning, and (for runs)
// locked execution recorded in the journal.
package organize
