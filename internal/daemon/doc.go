// Package daemon wraps the cycle runner in a timed loop with graceful
// start/stop. It supports a single foreground pass, a continuous foreground
// loop, and a detached background mode recorded through a pidfile so a later
// stop invocation can request termination.
package daemon
