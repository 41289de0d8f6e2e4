package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/soyeahso/llmbridge/internal/llm"
	"github.com/soyeahso/llmbridge/internal/store"
	"github.com/spf13/cobra"
)

func newConversationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "conversations",
		Aliases: []string{"conv"},
		Short:   "Manage stored conversations",
	}

	cmd.AddCommand(newConversationsListCmd())
	cmd.AddCommand(newConversationsShowCmd())
	cmd.AddCommand(newConversationsDeleteCmd())
	return cmd
}

// withConversations opens the database for the duration of fn.
func withConversations(fn func(*store.ConversationStore) error) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(store.NewConversationStore(db))
}

func newConversationsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List conversations, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConversations(func(s *store.ConversationStore) error {
				list, err := s.List()
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				for _, c := range list {
					fmt.Fprintf(w, "%s\t%s\t%s/%s\t%d msgs\t%s\n",
						c.ID, c.UpdatedAt.Format(time.DateTime), c.Provider, c.Model, c.Messages, c.Title)
				}
				return w.Flush()
			})
		},
	}
}

func newConversationsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConversations(func(s *store.ConversationStore) error {
				if _, err := s.Get(args[0]); err != nil {
					return err
				}
				msgs, err := s.History(args[0])
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				for _, m := range msgs {
					switch m.Role {
					case llm.RoleTool:
						for _, r := range llm.ToolResults(m) {
							fmt.Fprintf(w, "[tool %s] %s\n", r.Name, r.Text())
						}
					default:
						fmt.Fprintf(w, "[%s] %s\n", m.Role, m.Text())
						for _, c := range m.ToolCalls {
							fmt.Fprintf(w, "  -> %s %s\n", c.Name, llm.InputJSON(c.Input))
						}
					}
				}
				return nil
			})
		},
	}
}

func newConversationsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConversations(func(s *store.ConversationStore) error {
				if err := s.Delete(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
				return nil
			})
		},
	}
}
