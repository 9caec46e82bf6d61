package tracking

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gitsyncd/gitsyncd/internal/configstore"
)

const (
	addCommandUseConstant   = "add <path>"
	addCommandShortConstant = "Track a directory for automatic synchronization"
	addCommandLongConstant  = "Creates a tracked entry for the directory, or updates the existing entry when the path is already tracked."

	removeCommandUseConstant   = "remove <path>"
	removeCommandShortConstant = "Stop tracking a directory"
	removeCommandLongConstant  = "Removes the tracked entry for the directory. Removing an untracked path is a no-op."

	listCommandUseConstant   = "list"
	listCommandShortConstant = "List tracked directories"
	listCommandLongConstant  = "Prints one line per tracked directory with its remote, branch, and push setting."

	flagRemoteNameConstant               = "remote"
	flagRemoteDescriptionConstant        = "Remote repository URL, added as origin"
	flagBranchNameConstant               = "branch"
	flagBranchDescriptionConstant        = "Branch to synchronize (default main)"
	flagNoPushNameConstant               = "no-push"
	flagNoPushDescriptionConstant        = "Commit locally without pushing"
	flagCommitMessageNameConstant        = "commit-message"
	flagCommitMessageDescriptionConstant = "Base commit message, expanded with a timestamp at commit time"

	entryAddedMessageTemplateConstant   = "now tracking %s\n"
	entryUpdatedMessageTemplateConstant = "updated tracked entry for %s\n"
	entryRemovedMessageTemplateConstant = "no longer tracking %s\n"
	entryMissingMessageTemplateConstant = "%s was not tracked\n"
	noEntriesMessageConstant            = "no tracked directories\n"
	listLineTemplateConstant            = "%s\tbranch=%s\tremote=%s\tpush=%t\n"
	missingRemotePlaceholderConstant    = "(none)"
)

// StoreProvider supplies the entries store backing the tracking commands; an
// empty path selects the well-known default location.
type StoreProvider func() (*configstore.Store, error)

func defaultStoreProvider() (*configstore.Store, error) {
	return configstore.NewStore("")
}

// AddCommandBuilder assembles the add cobra command.
type AddCommandBuilder struct {
	StoreProvider StoreProvider
}

// Build constructs the cobra command tracking a directory.
func (builder *AddCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   addCommandUseConstant,
		Short: addCommandShortConstant,
		Long:  addCommandLongConstant,
		Args:  cobra.ExactArgs(1),
		RunE:  builder.run,
	}

	command.Flags().String(flagRemoteNameConstant, "", flagRemoteDescriptionConstant)
	command.Flags().String(flagBranchNameConstant, "", flagBranchDescriptionConstant)
	command.Flags().Bool(flagNoPushNameConstant, false, flagNoPushDescriptionConstant)
	command.Flags().String(flagCommitMessageNameConstant, "", flagCommitMessageDescriptionConstant)

	return command, nil
}

func (builder *AddCommandBuilder) run(command *cobra.Command, arguments []string) error {
	remoteURL, _ := command.Flags().GetString(flagRemoteNameConstant)
	branchName, _ := command.Flags().GetString(flagBranchNameConstant)
	disablePush, _ := command.Flags().GetBool(flagNoPushNameConstant)
	commitMessage, _ := command.Flags().GetString(flagCommitMessageNameConstant)

	service, serviceError := resolveService(builder.StoreProvider)
	if serviceError != nil {
		return serviceError
	}

	storedEntry, updated, addError := service.Add(AddOptions{
		Path:          arguments[0],
		Remote:        remoteURL,
		Branch:        branchName,
		CommitMessage: commitMessage,
		DisablePush:   disablePush,
	})
	if addError != nil {
		return addError
	}

	messageTemplate := entryAddedMessageTemplateConstant
	if updated {
		messageTemplate = entryUpdatedMessageTemplateConstant
	}
	fmt.Fprintf(command.OutOrStdout(), messageTemplate, storedEntry.Path)
	return nil
}

// RemoveCommandBuilder assembles the remove cobra command.
type RemoveCommandBuilder struct {
	StoreProvider StoreProvider
}

// Build constructs the cobra command untracking a directory.
func (builder *RemoveCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   removeCommandUseConstant,
		Short: removeCommandShortConstant,
		Long:  removeCommandLongConstant,
		Args:  cobra.ExactArgs(1),
		RunE:  builder.run,
	}

	return command, nil
}

func (builder *RemoveCommandBuilder) run(command *cobra.Command, arguments []string) error {
	service, serviceError := resolveService(builder.StoreProvider)
	if serviceError != nil {
		return serviceError
	}

	removed, removeError := service.Remove(arguments[0])
	if removeError != nil {
		return removeError
	}

	messageTemplate := entryMissingMessageTemplateConstant
	if removed {
		messageTemplate = entryRemovedMessageTemplateConstant
	}
	fmt.Fprintf(command.OutOrStdout(), messageTemplate, arguments[0])
	return nil
}

// ListCommandBuilder assembles the list cobra command.
type ListCommandBuilder struct {
	StoreProvider StoreProvider
}

// Build constructs the cobra command listing tracked directories.
func (builder *ListCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   listCommandUseConstant,
		Short: listCommandShortConstant,
		Long:  listCommandLongConstant,
		RunE:  builder.run,
	}

	return command, nil
}

func (builder *ListCommandBuilder) run(command *cobra.Command, _ []string) error {
	service, serviceError := resolveService(builder.StoreProvider)
	if serviceError != nil {
		return serviceError
	}

	trackedEntries, listError := service.List()
	if listError != nil {
		return listError
	}

	if len(trackedEntries) == 0 {
		fmt.Fprint(command.OutOrStdout(), noEntriesMessageConstant)
		return nil
	}

	for _, trackedEntry := range trackedEntries {
		remoteDescription := trackedEntry.Remote
		if !trackedEntry.HasRemote() {
			remoteDescription = missingRemotePlaceholderConstant
		}
		fmt.Fprintf(command.OutOrStdout(), listLineTemplateConstant, trackedEntry.Path, trackedEntry.Branch, remoteDescription, trackedEntry.Push)
	}
	return nil
}

func resolveService(storeProvider StoreProvider) (*Service, error) {
	if storeProvider == nil {
		storeProvider = defaultStoreProvider
	}
	store, storeError := storeProvider()
	if storeError != nil {
		return nil, storeError
	}
	return NewService(store)
}
