// Package gitrepo parses git remote URLs and derives the network endpoints
// used by the connectivity gate before any remote operation is attempted.
package gitrepo
