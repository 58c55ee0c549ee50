package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/recallo/recallo-cli/internal/application"
	"github.com/recallo/recallo-cli/internal/domain"
	"github.com/spf13/cobra"
)

func newAskCmd(app *app) *cobra.Command {
	var conversationID string
	var document string
	var plain bool

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask one question and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.wire(ctx); err != nil {
				return err
			}
			engine := app.engine

			if conversationID != "" {
				if err := engine.SwitchConversation(ctx, domain.ConversationID(conversationID)); err != nil {
					return app.explain(err)
				}
			}
			if document != "" {
				file, err := openPickedFile(document)
				if err != nil {
					return err
				}
				if _, err := engine.PickFile(ctx, file); err != nil {
					return app.explain(err)
				}
				engine.ToggleDocumentMode()
			}

			token, err := engine.Send(ctx, strings.Join(args, " "))
			if err != nil {
				return app.explain(err)
			}

			err = runWaitSpinner(ctx, cmd.ErrOrStderr(), "Waiting for the assistant...", func() error {
				return engine.Wait(ctx, token)
			})
			if err != nil {
				_ = engine.Stop()
				return err
			}

			view := engine.View()
			opts := app.renderOptions()
			opts.Markdown = opts.Markdown && !plain
			output, err := app.render(view, opts)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), output); err != nil {
				return err
			}
			if !view.ActiveConversationID.IsZero() {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "conversation: %s\n", view.ActiveConversationID)
			}

			return replyError(view)
		},
	}

	cmd.Flags().StringVarP(&conversationID, "conversation", "c", "", "continue an existing conversation")
	cmd.Flags().StringVarP(&document, "document", "d", "", "upload a document and ground the answer in it")
	cmd.Flags().BoolVar(&plain, "plain", false, "print replies without markdown rendering")

	return cmd
}

var errAssistantFailed = errors.New("assistant request failed")

func replyError(view application.View) error {
	if len(view.Messages) == 0 {
		return nil
	}
	last := view.Messages[len(view.Messages)-1]
	if last.Role == domain.RoleAssistant && last.Status == domain.MessageStatusError {
		return fmt.Errorf("%w: %s", errAssistantFailed, last.Text)
	}
	return nil
}
