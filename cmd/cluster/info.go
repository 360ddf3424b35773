package cluster

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/stackvista/sts-lifecycle/cmd/connect"
	"github.com/stackvista/sts-lifecycle/internal/config"
	"github.com/stackvista/sts-lifecycle/internal/features"
	"github.com/stackvista/sts-lifecycle/internal/logger"
	"github.com/stackvista/sts-lifecycle/internal/output"
)

func infoCmd(cliCtx *config.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the engine and version of the cluster",
		Run: func(cmd *cobra.Command, _ []string) {
			if err := runInfo(cmd.Context(), cmd.OutOrStdout(), cliCtx); err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(1)
			}
		},
	}
}

func runInfo(ctx context.Context, out io.Writer, cliCtx *config.Context) error {
	log := logger.New(cliCtx.Config.Quiet, cliCtx.Config.Debug)

	sess, err := connect.Open(ctx, cliCtx, log)
	if err != nil {
		return err
	}
	defer sess.Close()

	version := "unknown"
	if sess.Detected.Version != nil {
		version = sess.Detected.Version.String()
	}

	lifecycleType := "none"
	if flag, ok := features.LifecycleType(sess.Conn); ok {
		lifecycleType = string(flag)
	}

	formatter := output.NewFormatterWithWriter(out, cliCtx.Config.OutputFormat)
	return formatter.PrintTable(output.Table{
		Headers: []string{"CLUSTER", "NODE", "ENGINE", "VERSION", "LIFECYCLE"},
		Rows: [][]string{
			{sess.Detected.Cluster, sess.Detected.Node, sess.Conn.Engine.String(), version, lifecycleType},
		},
	})
}
