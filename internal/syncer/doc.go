// Package syncer drives tracked directories through their per-cycle git
// sequence: ensure repository, stage and commit local changes, gate remote
// work on connectivity, then fetch, rebase, and push. The cycle runner
// iterates entries in configuration order and isolates per-entry failures.
package syncer
