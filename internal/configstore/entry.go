package configstore

import "strings"

const (
	// DefaultBranchName is used when an entry omits a branch.
	DefaultBranchName = "main"
	// DefaultCommitMessage is the base message for automatic commits.
	DefaultCommitMessage = "Auto-sync"
)

// Entry describes one tracked directory and its remote sync configuration.
// The absolute path is the unique key.
type Entry struct {
	Path          string `yaml:"path"`
	Remote        string `yaml:"remote,omitempty"`
	Branch        string `yaml:"branch"`
	Push          bool   `yaml:"push"`
	CommitMessage string `yaml:"commit_message"`
}

// Sanitize fills defaulted fields and trims whitespace, returning the
// normalized entry.
func (entry Entry) Sanitize() Entry {
	sanitized := entry
	sanitized.Path = strings.TrimSpace(sanitized.Path)
	sanitized.Remote = strings.TrimSpace(sanitized.Remote)

	sanitized.Branch = strings.TrimSpace(sanitized.Branch)
	if len(sanitized.Branch) == 0 {
		sanitized.Branch = DefaultBranchName
	}

	sanitized.CommitMessage = strings.TrimSpace(sanitized.CommitMessage)
	if len(sanitized.CommitMessage) == 0 {
		sanitized.CommitMessage = DefaultCommitMessage
	}

	return sanitized
}

// HasRemote reports whether the entry is configured with a remote URL.
func (entry Entry) HasRemote() bool {
	return len(strings.TrimSpace(entry.Remote)) > 0
}
