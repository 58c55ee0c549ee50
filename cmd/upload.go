package cmd

import (
	"fmt"

	"github.com/recallo/recallo-cli/internal/domain"
	"github.com/spf13/cobra"
)

func newUploadCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a study document (pdf, doc, docx, txt)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.wire(ctx); err != nil {
				return err
			}

			file, err := openPickedFile(args[0])
			if err != nil {
				return err
			}

			var ref domain.FileRef
			err = runWaitSpinner(ctx, cmd.ErrOrStderr(), "Uploading "+file.Name+"...", func() error {
				var err error
				ref, err = app.engine.PickFile(ctx, file)
				return err
			})
			if err != nil {
				return app.explain(err)
			}

			status := "uploaded"
			if ref.Duplicate {
				status = "already uploaded"
			}
			if ref.RemoteID == "" {
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", status, ref.Name)
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", status, ref.Name, ref.RemoteID)
			return err
		},
	}
}
