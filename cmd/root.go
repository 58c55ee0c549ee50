package cmd

import (
	"github.com/recallo/recallo-cli/internal/config"
	"github.com/spf13/cobra"
)

func Execute() error {
	rootCmd, app := newRootCmd()
	defer func() { _ = app.Close() }()

	return rootCmd.Execute()
}

func newRootCmd() (*cobra.Command, *app) {
	app := newApp()

	rootCmd := &cobra.Command{
		Use:           "recallo",
		Short:         "Recallo: chat with your study assistant from the terminal",
		Long:          "recallo talks to the study-assistant backend: ask questions, keep conversations, and ground answers in documents you upload.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	flags := rootCmd.PersistentFlags()
	flags.String("backend", "", "backend to use: remote or local")
	flags.String("base-url", "", "study-assistant backend URL")
	flags.Bool("debug", false, "write a JSON debug log")
	_ = app.v.BindPFlag(config.KeyBackend, flags.Lookup("backend"))
	_ = app.v.BindPFlag(config.KeyBaseURL, flags.Lookup("base-url"))
	_ = app.v.BindPFlag(config.KeyLogDebug, flags.Lookup("debug"))

	rootCmd.AddCommand(
		newVersionCmd(),
		newAskCmd(app),
		newChatCmd(app),
		newConversationCmd(app),
		newUploadCmd(app),
		newProfileCmd(app),
		newTokenCmd(app),
	)

	return rootCmd, app
}
