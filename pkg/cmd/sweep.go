package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/mediavault/pkg/configs"
	"github.com/yeisme/mediavault/pkg/internal/jobs"
	"github.com/yeisme/mediavault/pkg/internal/storage"
)

var sweepOwner string

// sweepCmd 手动执行一次孤儿清扫，不启动服务.
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "sweep orphaned uploads once and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := configs.InitConfig(configPath); err != nil {
			return fmt.Errorf("init config: %w", err)
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		mgr, err := storage.Init(ctx)
		if err != nil {
			return fmt.Errorf("init storage: %w", err)
		}
		defer func() { _ = mgr.Close() }()

		return jobs.SweepOnce(ctx, mgr, sweepOwner)
	},
}

// registerSweepCommand 注册 sweep 子命令.
func registerSweepCommand() {
	sweepCmd.Flags().StringVar(&sweepOwner, "owner", "", "limit the sweep to one uploader namespace")

	rootCmd.AddCommand(sweepCmd)
}
