package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rezkam/tasks/internal/application/todo"
	"github.com/rezkam/tasks/internal/domain"
)

func newTodoCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "todo",
		Short: "Work with a task's checklist",
	}

	// collectionCmd builds a subcommand whose first argument is the task ID.
	collectionCmd := func(use, short string, args cobra.PositionalArgs, fn func(*cobra.Command, *todo.Collection, []string) error) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  args,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withService(cmd, open, func(ctx context.Context, svc *todo.Service) error {
					coll, err := svc.Collection(ctx, args[0])
					if err != nil {
						return err
					}
					return fn(cmd, coll, args[1:])
				})
			},
		}
	}

	addCmd := collectionCmd("add <task-id> <text>...", "Append a todo", cobra.MinimumNArgs(2),
		func(cmd *cobra.Command, coll *todo.Collection, args []string) error {
			item, err := coll.Add(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), item.ID)
			return nil
		})

	listCmd := collectionCmd("list <task-id>", "List todos in order", cobra.ExactArgs(1),
		func(cmd *cobra.Command, coll *todo.Collection, _ []string) error {
			items, err := coll.List(cmd.Context())
			if err != nil {
				return err
			}
			return printTodos(cmd.OutOrStdout(), items)
		})

	toggleCmd := collectionCmd("toggle <task-id> <todo-id>", "Flip a todo's done flag", cobra.ExactArgs(2),
		func(cmd *cobra.Command, coll *todo.Collection, args []string) error {
			item, err := coll.Toggle(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printTodos(cmd.OutOrStdout(), []domain.TodoItem{*item})
		})

	var undo bool
	doneCmd := collectionCmd("done <task-id> <todo-id>", "Mark a todo done (or not done with --undo)", cobra.ExactArgs(2),
		func(cmd *cobra.Command, coll *todo.Collection, args []string) error {
			item, err := coll.SetDone(cmd.Context(), args[0], !undo)
			if err != nil {
				return err
			}
			return printTodos(cmd.OutOrStdout(), []domain.TodoItem{*item})
		})
	doneCmd.Flags().BoolVar(&undo, "undo", false, "Mark the todo not done")

	editCmd := collectionCmd("edit <task-id> <todo-id> <text>...", "Replace a todo's text", cobra.MinimumNArgs(3),
		func(cmd *cobra.Command, coll *todo.Collection, args []string) error {
			item, err := coll.EditText(cmd.Context(), args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			return printTodos(cmd.OutOrStdout(), []domain.TodoItem{*item})
		})

	rmCmd := collectionCmd("rm <task-id> <todo-id>", "Delete a todo", cobra.ExactArgs(2),
		func(cmd *cobra.Command, coll *todo.Collection, args []string) error {
			return coll.Delete(cmd.Context(), args[0])
		})

	cmd.AddCommand(addCmd, listCmd, toggleCmd, doneCmd, editCmd, rmCmd)
	return cmd
}

func printTodos(out io.Writer, items []domain.TodoItem) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "POS\tDONE\tID\tTEXT")
	for _, item := range items {
		mark := " "
		if item.Done {
			mark = "x"
		}
		fmt.Fprintf(w, "%d\t[%s]\t%s\t%s\n", item.Position, mark, item.ID, item.Text)
	}
	return w.Flush()
}
