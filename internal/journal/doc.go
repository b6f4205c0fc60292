// Package journal persists a record of every organize run in SQLite.
//
// Each run stores its destination, sources, outcome counts and final status;
// each executed job is appended as it completes, so an interrupted run still
// shows exactly which copies and moves landed. The journal also answers
// whether a destination was organized before, which lets the safety check
// accept destinations whose quarantine directory was pruned.
package journal
