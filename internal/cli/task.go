package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rezkam/tasks/internal/application/todo"
)

func newTaskCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Create, list and delete tasks",
	}

	var owner, title, video string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task with an empty checklist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, open, func(ctx context.Context, svc *todo.Service) error {
				task, err := svc.CreateTask(ctx, owner, title, video)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), task.ID)
				return nil
			})
		},
	}
	createCmd.Flags().StringVar(&owner, "owner", "", "Owner ID (required)")
	createCmd.Flags().StringVar(&title, "title", "", "Task title (required)")
	createCmd.Flags().StringVar(&video, "video", "", "External video ID (optional)")
	_ = createCmd.MarkFlagRequired("owner")
	_ = createCmd.MarkFlagRequired("title")

	var listOwner string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List an owner's tasks, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, open, func(ctx context.Context, svc *todo.Service) error {
				tasks, err := svc.ListTasks(ctx, listOwner)
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tTITLE\tCREATED")
				for _, t := range tasks {
					fmt.Fprintf(w, "%s\t%s\t%s\n", t.ID, t.Title, t.CreatedAt.Format(time.RFC3339))
				}
				return w.Flush()
			})
		},
	}
	listCmd.Flags().StringVar(&listOwner, "owner", "", "Owner ID (required)")
	_ = listCmd.MarkFlagRequired("owner")

	deleteCmd := &cobra.Command{
		Use:   "delete <task-id>",
		Short: "Delete a task and its checklist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, open, func(ctx context.Context, svc *todo.Service) error {
				return svc.DeleteTask(ctx, args[0])
			})
		},
	}

	cmd.AddCommand(createCmd, listCmd, deleteCmd)
	return cmd
}
