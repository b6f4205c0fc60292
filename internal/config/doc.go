// Package config loads, normalizes, and validates photodistributor
// configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and merges an optional formats.conf list into
// the recognized extensions. The Config type centralizes every knob the
// planner and CLI need so the merge threshold and quarantine name are passed
// explicitly instead of living in globals.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, upper-cased extensions, and clear validation errors.
package config
