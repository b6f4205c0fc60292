// Package destination guards and inspects the destination tree: the safety
// check that refuses unrelated populated directories, the per-directory
// inventory used to seed collision claims, the quarantine index seed, and the
// per-destination run lock.
package destination
