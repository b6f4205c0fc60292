// Package media defines the file descriptor shared by the scanner, the job
// planner, and the executor, together with the ordering used to process files.
package media
