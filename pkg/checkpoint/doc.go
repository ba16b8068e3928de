// Package checkpoint provides functionality for saving and resuming scrape progress.
//
// A checkpoint records, per project:
//   - The offset of the last page whose records were fully persisted
//   - The key of the last issue written to the output dataset
//   - The running total of issues fetched across runs
//
// Checkpoints are saved atomically (write to a temporary file, sync,
// rename) so an interrupted run always finds either the previous
// checkpoint or the new one, never a torn write. A missing or corrupted
// checkpoint file yields a fresh start rather than an error.
package checkpoint
