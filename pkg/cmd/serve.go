package cmd

import (
	"github.com/spf13/cobra"

	"github.com/yeisme/mediavault/pkg/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "start the mediavault server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.NewApp(configPath).Run()
	},
}

// registerServeCommand 注册 serve 子命令.
func registerServeCommand() {
	rootCmd.AddCommand(serveCmd)
}
