// Package services defines shared utilities consumed by the organize pipeline
// and the CLI.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers and stage names for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     into refusals (validation/configuration) and execution failures.
//
// Use these helpers when wiring new stages so error handling and
// observability stay uniform across the pipeline.
package services
