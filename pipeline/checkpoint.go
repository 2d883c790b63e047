package pipeline

import "fmt"

// Checkpoint names embed the record count at the moment of writing, so
// successive snapshots never overwrite each other or the final output.

// TempPath names an in-loop checkpoint snapshot.
func TempPath(prefix string, count int) string {
	return fmt.Sprintf("%s_temp_%d.csv", prefix, count)
}

// FinalPath names the snapshot written at normal loop exit.
func FinalPath(prefix string, count int) string {
	return fmt.Sprintf("%s_final_%d.csv", prefix, count)
}

// InterruptedPath names the best-effort snapshot written on cancellation.
func InterruptedPath(prefix string, count int) string {
	return fmt.Sprintf("%s_interrupted_%d.csv", prefix, count)
}
