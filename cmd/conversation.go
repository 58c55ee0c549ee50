package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/recallo/recallo-cli/internal/adapters/render/transcript"
	"github.com/recallo/recallo-cli/internal/domain"
	"github.com/spf13/cobra"
)

func newConversationCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "conversation",
		Aliases: []string{"conv"},
		Short:   "Manage conversations",
	}

	cmd.AddCommand(
		newConversationListCmd(app),
		newConversationNewCmd(app),
		newConversationShowCmd(app),
		newConversationRenameCmd(app),
		newConversationDeleteCmd(app),
	)

	return cmd
}

type conversationJSON struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

func newConversationListCmd(app *app) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List conversations, most recent first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.wire(cmd.Context()); err != nil {
				return err
			}

			conversations, err := app.engine.RefreshConversations(cmd.Context())
			if err != nil {
				return app.explain(err)
			}

			if jsonOutput {
				payload := make([]conversationJSON, 0, len(conversations))
				for _, conversation := range conversations {
					payload = append(payload, toConversationJSON(conversation))
				}
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(payload)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), transcript.FormatConversations(conversations, "", app.now()))
			return err
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print conversations as JSON")

	return cmd
}

func newConversationNewCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "new",
		Short: "Start a new conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.wire(cmd.Context()); err != nil {
				return err
			}

			conversation, err := app.engine.NewConversation(cmd.Context())
			if err != nil {
				return app.explain(err)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", conversation.ID, conversation.Title)
			return err
		},
	}
}

func newConversationShowCmd(app *app) *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a conversation transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.wire(ctx); err != nil {
				return err
			}

			if _, err := app.engine.RefreshConversations(ctx); err != nil {
				return app.explain(err)
			}
			if err := app.engine.SwitchConversation(ctx, domain.ConversationID(args[0])); err != nil {
				return app.explain(err)
			}

			opts := app.renderOptions()
			opts.Markdown = opts.Markdown && !plain
			output, err := app.render(app.engine.View(), opts)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), output)
			return err
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "print replies without markdown rendering")

	return cmd
}

func newConversationRenameCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <title>",
		Short: "Rename a conversation",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.wire(ctx); err != nil {
				return err
			}

			if _, err := app.engine.RefreshConversations(ctx); err != nil {
				return app.explain(err)
			}
			title := strings.Join(args[1:], " ")
			if err := app.engine.RenameConversation(ctx, domain.ConversationID(args[0]), title); err != nil {
				return app.explain(err)
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", args[0], strings.TrimSpace(title))
			return err
		},
	}
}

func newConversationDeleteCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.wire(ctx); err != nil {
				return err
			}

			if err := app.engine.DeleteConversation(ctx, domain.ConversationID(args[0])); err != nil {
				return app.explain(err)
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return err
		},
	}
}

func toConversationJSON(conversation domain.Conversation) conversationJSON {
	payload := conversationJSON{ID: string(conversation.ID), Title: conversation.Title}
	if !conversation.CreatedAt.IsZero() {
		payload.CreatedAt = conversation.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	if !conversation.UpdatedAt.IsZero() {
		payload.UpdatedAt = conversation.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	return payload
}
