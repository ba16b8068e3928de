// Package storage handles the output dataset files.
//
// The Writer appends one JSON line per issue record and syncs after
// every append. On open it scans the existing file, truncates a
// trailing partial line left by a crash, and indexes the keys already
// present so resumed runs can skip them.
//
// A Lock guards the output directory against concurrent scraper
// processes using an exclusive lock file.
package storage
