package cluster

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/stackvista/sts-lifecycle/cmd/connect"
	"github.com/stackvista/sts-lifecycle/internal/config"
	"github.com/stackvista/sts-lifecycle/internal/features"
	"github.com/stackvista/sts-lifecycle/internal/logger"
	"github.com/stackvista/sts-lifecycle/internal/output"
)

func featuresCmd(cliCtx *config.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "features",
		Short: "List the features the cluster supports",
		Run: func(cmd *cobra.Command, _ []string) {
			if err := runFeatures(cmd.Context(), cmd.OutOrStdout(), cliCtx); err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(1)
			}
		},
	}
}

func runFeatures(ctx context.Context, out io.Writer, cliCtx *config.Context) error {
	log := logger.New(cliCtx.Config.Quiet, cliCtx.Config.Debug)

	sess, err := connect.Open(ctx, cliCtx, log)
	if err != nil {
		return err
	}
	defer sess.Close()

	summary := features.Summary(sess.Conn)

	table := output.Table{
		Headers: []string{"FEATURE", "ENABLED"},
		Rows:    make([][]string, 0, len(summary)),
	}
	for _, flag := range features.Flags() {
		table.Rows = append(table.Rows, []string{string(flag), strconv.FormatBool(summary[flag])})
	}

	formatter := output.NewFormatterWithWriter(out, cliCtx.Config.OutputFormat)
	return formatter.PrintTable(table)
}
