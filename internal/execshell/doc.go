// Package execshell provides structured helpers for invoking external tools.
//
// It wraps os/exec with logging and bounded timeouts via ShellExecutor,
// exposes OSCommandRunner for default process execution, and defines the
// abstractions gitsyncd uses to run git in a testable manner.
package execshell
