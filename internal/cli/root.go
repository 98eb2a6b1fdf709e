// Package cli implements todoctl, an admin tool that works directly on the
// configured storage backend through the todo service.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rezkam/tasks/internal/application/todo"
	"github.com/rezkam/tasks/internal/config"
	"github.com/rezkam/tasks/internal/infrastructure/persistence/storage"
)

// opener returns the repository the commands operate on.
type opener func(ctx context.Context) (todo.Repository, error)

// openConfigured opens the backend described by TASKS_* variables and the
// optional TASKS_CONFIG_FILE, the same way the server does.
func openConfigured(ctx context.Context) (todo.Repository, error) {
	cfg, err := config.LoadStorageConfig()
	if err != nil {
		return nil, err
	}
	return storage.Open(ctx, *cfg)
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd(openConfigured).Execute()
}

func newRootCmd(open opener) *cobra.Command {
	root := &cobra.Command{
		Use:           "todoctl",
		Short:         "Manage tasks and their todo checklists",
		Long:          `todoctl reads and changes tasks and todos directly in the configured storage backend (TASKS_STORAGE_TYPE).`,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(newTaskCmd(open), newTodoCmd(open))
	return root
}

// withService opens the repository, runs fn and closes the repository.
func withService(cmd *cobra.Command, open opener, fn func(context.Context, *todo.Service) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	repo, err := open(ctx)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer repo.Close()

	return fn(ctx, todo.NewService(repo, todo.Config{}))
}
