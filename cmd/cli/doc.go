// Package cli wires the gitsyncd command hierarchy: configuration loading,
// structured logging, and the tracked-directory, sync, and daemon commands.
package cli
