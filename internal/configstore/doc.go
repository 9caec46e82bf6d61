// Package configstore persists the tracked-entry records gitsyncd
// synchronizes, together with the process-wide defaults (interval and
// fallback network endpoint) stored beside them.
package configstore
