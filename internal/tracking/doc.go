// Package tracking manages the set of tracked directories: adding or
// updating entries, removing them, and listing the stored snapshot.
package tracking
