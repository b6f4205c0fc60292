// Package main hosts the photodistributor CLI entrypoint and command graph.
//
// The Cobra-based command tree resolves configuration (file plus --source and
// --dest overrides), builds the structured logger, and hands off to the
// organize service for planning and runs. History commands read the run
// journal directly.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
