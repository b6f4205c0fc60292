// Package planner turns a list of media files into an ordered job list.
//
// Files are sorted by capture time, grouped into month buckets that stay close
// to a size threshold, and assigned a file name inside each bucket directory.
// Name clashes are settled against everything already claimed in that
// directory, including files left by earlier runs: identical files are
// skipped, same-moment files of different size are quarantined, and anything
// else is renamed with a numeric suffix. Planning touches the filesystem only
// through the Inventory it is given.
package planner
