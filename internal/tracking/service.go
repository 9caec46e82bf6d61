package tracking

import (
	"errors"

	"github.com/gitsyncd/gitsyncd/internal/configstore"
)

const (
	trackingStoreNotConfiguredMessageConstant = "tracking store not configured"
)

// ErrStoreNotConfigured indicates a tracking service was constructed without a store.
var ErrStoreNotConfigured = errors.New(trackingStoreNotConfiguredMessageConstant)

// AddOptions carries the attributes of a tracked directory entry.
type AddOptions struct {
	Path          string
	Remote        string
	Branch        string
	CommitMessage string
	DisablePush   bool
}

// Service performs add, remove, and list operations over the entries store.
type Service struct {
	store *configstore.Store
}

// NewService constructs a tracking service over the supplied store.
func NewService(store *configstore.Store) (*Service, error) {
	if store == nil {
		return nil, ErrStoreNotConfigured
	}
	return &Service{store: store}, nil
}

// Add creates a tracked entry or, when the normalized path is already
// tracked, replaces the stored entry. It reports whether an existing entry
// was updated.
func (service *Service) Add(options AddOptions) (configstore.Entry, bool, error) {
	normalizedPath, normalizeError := service.store.NormalizePath(options.Path)
	if normalizeError != nil {
		return configstore.Entry{}, false, normalizeError
	}

	configuration, loadError := service.store.Load()
	if loadError != nil {
		return configstore.Entry{}, false, loadError
	}

	storedEntry, updated := configuration.Upsert(configstore.Entry{
		Path:          normalizedPath,
		Remote:        options.Remote,
		Branch:        options.Branch,
		Push:          !options.DisablePush,
		CommitMessage: options.CommitMessage,
	})

	if saveError := service.store.Save(configuration); saveError != nil {
		return configstore.Entry{}, false, saveError
	}
	return storedEntry, updated, nil
}

// Remove deletes the entry for the normalized path, reporting whether one existed.
func (service *Service) Remove(entryPath string) (bool, error) {
	normalizedPath, normalizeError := service.store.NormalizePath(entryPath)
	if normalizeError != nil {
		return false, normalizeError
	}

	configuration, loadError := service.store.Load()
	if loadError != nil {
		return false, loadError
	}

	removed := configuration.Remove(normalizedPath)
	if !removed {
		return false, nil
	}

	if saveError := service.store.Save(configuration); saveError != nil {
		return false, saveError
	}
	return true, nil
}

// List returns a read-only snapshot of the tracked entries in stored order.
func (service *Service) List() ([]configstore.Entry, error) {
	configuration, loadError := service.store.Load()
	if loadError != nil {
		return nil, loadError
	}
	return configuration.Entries, nil
}
