package configstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gitsyncd/gitsyncd/internal/gitrepo"
	pathutils "github.com/gitsyncd/gitsyncd/internal/utils/path"
)

const (
	// DefaultIntervalMinutes is the interval applied when none is configured.
	DefaultIntervalMinutes = 5
	// MinimumIntervalMinutes is the enforced floor for the sync interval.
	MinimumIntervalMinutes = 1
	// DefaultNetworkHost is the fallback connectivity probe host.
	DefaultNetworkHost = "github.com"
	// DefaultNetworkPort is the fallback connectivity probe port.
	DefaultNetworkPort = 443

	stateDirectoryNameConstant         = "gitsyncd"
	configDirectoryNameConstant        = ".config"
	entriesFileNameConstant            = "entries.yaml"
	stateDirectoryPermissionsConstant  = 0o755
	entriesFilePermissionsConstant     = 0o644
	homeDirectoryErrorTemplateConstant = "unable to resolve home directory: %w"
	readErrorTemplateConstant          = "unable to read tracked entries from %s: %w"
	parseErrorTemplateConstant         = "unable to parse tracked entries in %s: %w"
	encodeErrorTemplateConstant        = "unable to encode tracked entries: %w"
	writeErrorTemplateConstant         = "unable to write tracked entries to %s: %w"
	entryPathRequiredMessageConstant   = "entry path must be provided"
)

// ErrEntryPathRequired indicates an entry operation received an empty path.
var ErrEntryPathRequired = errors.New(entryPathRequiredMessageConstant)

// Configuration is the persisted record consumed and produced by the store.
type Configuration struct {
	Entries         []Entry `yaml:"entries"`
	IntervalMinutes int     `yaml:"interval_minutes"`
	NetworkHost     string  `yaml:"network_host"`
	NetworkPort     int     `yaml:"network_port"`
}

// DefaultConfiguration returns the configuration used when no entries file exists.
func DefaultConfiguration() Configuration {
	return Configuration{
		Entries:         []Entry{},
		IntervalMinutes: DefaultIntervalMinutes,
		NetworkHost:     DefaultNetworkHost,
		NetworkPort:     DefaultNetworkPort,
	}
}

// NormalizedInterval returns the configured interval clamped to the floor.
func (configuration Configuration) NormalizedInterval() int {
	if configuration.IntervalMinutes < MinimumIntervalMinutes {
		return MinimumIntervalMinutes
	}
	return configuration.IntervalMinutes
}

// FallbackProbeEndpoint returns the configured fallback network endpoint.
func (configuration Configuration) FallbackProbeEndpoint() gitrepo.ProbeEndpoint {
	host := strings.TrimSpace(configuration.NetworkHost)
	if len(host) == 0 {
		host = DefaultNetworkHost
	}
	port := configuration.NetworkPort
	if port <= 0 {
		port = DefaultNetworkPort
	}
	return gitrepo.ProbeEndpoint{Host: host, Port: port}
}

// Upsert inserts the entry or, when its path is already tracked, replaces the
// stored entry in place. It reports whether an existing entry was updated.
func (configuration *Configuration) Upsert(entry Entry) (Entry, bool) {
	sanitizedEntry := entry.Sanitize()
	for entryIndex := range configuration.Entries {
		if configuration.Entries[entryIndex].Path == sanitizedEntry.Path {
			configuration.Entries[entryIndex] = sanitizedEntry
			return sanitizedEntry, true
		}
	}
	configuration.Entries = append(configuration.Entries, sanitizedEntry)
	return sanitizedEntry, false
}

// Remove deletes the entry with the given normalized path, reporting whether
// an entry existed.
func (configuration *Configuration) Remove(path string) bool {
	for entryIndex := range configuration.Entries {
		if configuration.Entries[entryIndex].Path == path {
			configuration.Entries = append(configuration.Entries[:entryIndex], configuration.Entries[entryIndex+1:]...)
			return true
		}
	}
	return false
}

// Store reads and writes the tracked entries file.
type Store struct {
	filePath     string
	homeExpander *pathutils.HomeExpander
}

// NewStore constructs a store for the supplied file path; an empty path
// selects the well-known location under the user configuration directory.
func NewStore(filePath string) (*Store, error) {
	homeExpander := pathutils.NewHomeExpander()

	resolvedPath := strings.TrimSpace(filePath)
	if len(resolvedPath) == 0 {
		defaultPath, defaultPathError := DefaultEntriesFilePath()
		if defaultPathError != nil {
			return nil, defaultPathError
		}
		resolvedPath = defaultPath
	} else {
		resolvedPath = homeExpander.Expand(resolvedPath)
	}

	return &Store{filePath: resolvedPath, homeExpander: homeExpander}, nil
}

// FilePath returns the location of the tracked entries file.
func (store *Store) FilePath() string {
	return store.filePath
}

// NormalizePath expands a user-supplied entry path to its absolute form used
// as the uniqueness key.
func (store *Store) NormalizePath(entryPath string) (string, error) {
	trimmedPath := strings.TrimSpace(entryPath)
	if len(trimmedPath) == 0 {
		return "", ErrEntryPathRequired
	}

	expandedPath := store.homeExpander.Expand(trimmedPath)
	absolutePath, absoluteError := filepath.Abs(expandedPath)
	if absoluteError != nil {
		return "", absoluteError
	}
	return absolutePath, nil
}

// Load reads the tracked entries file. A missing file yields the default
// configuration; a malformed file is a fatal configuration error.
func (store *Store) Load() (Configuration, error) {
	fileContents, readError := os.ReadFile(store.filePath)
	if readError != nil {
		if os.IsNotExist(readError) {
			return DefaultConfiguration(), nil
		}
		return Configuration{}, fmt.Errorf(readErrorTemplateConstant, store.filePath, readError)
	}

	var configuration Configuration
	if unmarshalError := yaml.Unmarshal(fileContents, &configuration); unmarshalError != nil {
		return Configuration{}, fmt.Errorf(parseErrorTemplateConstant, store.filePath, unmarshalError)
	}

	if configuration.IntervalMinutes == 0 {
		configuration.IntervalMinutes = DefaultIntervalMinutes
	}
	for entryIndex := range configuration.Entries {
		configuration.Entries[entryIndex] = configuration.Entries[entryIndex].Sanitize()
	}

	return configuration, nil
}

// Save persists the configuration, creating the parent directory when absent.
func (store *Store) Save(configuration Configuration) error {
	if directoryError := os.MkdirAll(filepath.Dir(store.filePath), stateDirectoryPermissionsConstant); directoryError != nil {
		return fmt.Errorf(writeErrorTemplateConstant, store.filePath, directoryError)
	}

	encodedConfiguration, marshalError := yaml.Marshal(configuration)
	if marshalError != nil {
		return fmt.Errorf(encodeErrorTemplateConstant, marshalError)
	}

	if writeError := os.WriteFile(store.filePath, encodedConfiguration, entriesFilePermissionsConstant); writeError != nil {
		return fmt.Errorf(writeErrorTemplateConstant, store.filePath, writeError)
	}

	return nil
}

// DefaultStateDirectory returns the well-known directory holding the entries
// file, instance lock, pidfile, and daemon log.
func DefaultStateDirectory() (string, error) {
	homeDirectory, homeError := os.UserHomeDir()
	if homeError != nil {
		return "", fmt.Errorf(homeDirectoryErrorTemplateConstant, homeError)
	}
	return filepath.Join(homeDirectory, configDirectoryNameConstant, stateDirectoryNameConstant), nil
}

// DefaultEntriesFilePath returns the well-known tracked entries file location.
func DefaultEntriesFilePath() (string, error) {
	stateDirectory, stateDirectoryError := DefaultStateDirectory()
	if stateDirectoryError != nil {
		return "", stateDirectoryError
	}
	return filepath.Join(stateDirectory, entriesFileNameConstant), nil
}
