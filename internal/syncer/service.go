package syncer

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/gitsyncd/gitsyncd/internal/configstore"
)

const (
	storeNotConfiguredMessageConstant         = "entries store not configured"
	serviceProberNotConfiguredMessageConstant = "cycle service prober not configured"
	serviceLoggerNotConfiguredMessageConstant = "cycle service logger not configured"
)

// ErrStoreNotConfigured indicates a cycle service was constructed without a store.
var ErrStoreNotConfigured = errors.New(storeNotConfiguredMessageConstant)

// ErrServiceProberNotConfigured indicates a cycle service was constructed
// without a connectivity prober.
var ErrServiceProberNotConfigured = errors.New(serviceProberNotConfiguredMessageConstant)

// ErrServiceLoggerNotConfigured indicates a cycle service was constructed
// without a logger.
var ErrServiceLoggerNotConfigured = errors.New(serviceLoggerNotConfiguredMessageConstant)

// CycleService assembles the operator and runner over a loaded configuration.
// The sync command and the scheduler both drive cycles through it.
type CycleService struct {
	store       *configstore.Store
	repository  RepositoryOperations
	prober      ConnectivityProber
	logger      *zap.Logger
	disablePush bool
}

// NewCycleService constructs a CycleService after validating its collaborators.
func NewCycleService(store *configstore.Store, repository RepositoryOperations, prober ConnectivityProber, logger *zap.Logger, disablePush bool) (*CycleService, error) {
	if store == nil {
		return nil, ErrStoreNotConfigured
	}
	if repository == nil {
		return nil, ErrRepositoryOperationsNotConfigured
	}
	if prober == nil {
		return nil, ErrServiceProberNotConfigured
	}
	if logger == nil {
		return nil, ErrServiceLoggerNotConfigured
	}

	return &CycleService{
		store:       store,
		repository:  repository,
		prober:      prober,
		logger:      logger,
		disablePush: disablePush,
	}, nil
}

// LoadConfiguration reads the tracked entries file. A malformed file is a
// fatal configuration error for the caller.
func (service *CycleService) LoadConfiguration() (configstore.Configuration, error) {
	return service.store.Load()
}

// RunCycle executes one full cycle over the configuration's entries.
func (service *CycleService) RunCycle(executionContext context.Context, configuration configstore.Configuration) (CycleSummary, error) {
	operator, operatorError := NewOperator(OperatorDependencies{
		Repository:       service.repository,
		Prober:           service.prober,
		FallbackEndpoint: configuration.FallbackProbeEndpoint(),
		DisablePush:      service.disablePush,
	})
	if operatorError != nil {
		return CycleSummary{}, operatorError
	}

	runner, runnerError := NewRunner(operator, service.logger)
	if runnerError != nil {
		return CycleSummary{}, runnerError
	}

	return runner.RunCycle(executionContext, configuration.Entries), nil
}

// RunOnce loads the configuration and executes a single cycle.
func (service *CycleService) RunOnce(executionContext context.Context) (CycleSummary, error) {
	configuration, loadError := service.LoadConfiguration()
	if loadError != nil {
		return CycleSummary{}, loadError
	}
	return service.RunCycle(executionContext, configuration)
}
