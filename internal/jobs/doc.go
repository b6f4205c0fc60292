// Package jobs defines the filesystem operations emitted by the planner and
// the executor that applies them.
//
// A Job is a closed variant (create directory, copy file, move file)
// dispatched by Execute. The executor runs jobs strictly in order, checks the
// context between jobs, halts on the first failure without undoing completed
// work, and finally prunes directories left empty under the destination.
package jobs
