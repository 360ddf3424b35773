package policy

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/stackvista/sts-lifecycle/cmd/connect"
	"github.com/stackvista/sts-lifecycle/internal/config"
	"github.com/stackvista/sts-lifecycle/internal/logger"
	"github.com/stackvista/sts-lifecycle/internal/output"
)

func getCmd(cliCtx *config.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "get NAME",
		Short: "Show a lifecycle policy",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if err := runGet(cmd.Context(), cmd.OutOrStdout(), cliCtx, args[0]); err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(1)
			}
		},
	}
}

func runGet(ctx context.Context, out io.Writer, cliCtx *config.Context, name string) error {
	log := logger.New(cliCtx.Config.Quiet, cliCtx.Config.Debug)

	sess, err := connect.Open(ctx, cliCtx, log)
	if err != nil {
		return err
	}
	defer sess.Close()

	res, err := sess.Manager.GetPolicy(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to get policy %s: %w", name, err)
	}

	formatter := output.NewFormatterWithWriter(out, cliCtx.Config.OutputFormat)
	return formatter.PrintDocument(res)
}
