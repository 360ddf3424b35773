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

func putCmd(cliCtx *config.Context) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "put NAME",
		Short: "Create or update a lifecycle policy",
		Long: `Create or update a lifecycle policy from a YAML or JSON file.
The policy may be written in phase form (ILM) or state form (ISM); it is
converted to the form the cluster understands before it is stored.`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if err := runPut(cmd.Context(), cmd.OutOrStdout(), cliCtx, args[0], file); err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(1)
			}
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Policy file (YAML or JSON)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runPut(ctx context.Context, out io.Writer, cliCtx *config.Context, name, file string) error {
	log := logger.New(cliCtx.Config.Quiet, cliCtx.Config.Debug)

	doc, err := readPolicyFile(file)
	if err != nil {
		return err
	}

	sess, err := connect.Open(ctx, cliCtx, log)
	if err != nil {
		return err
	}
	defer sess.Close()

	log.Infof("Storing %s-form policy %s on %s...", policyForm(doc), name, sess.Conn.Engine)

	res, err := sess.Manager.CreatePolicy(ctx, name, doc)
	if err != nil {
		return fmt.Errorf("failed to store policy %s: %w", name, err)
	}

	log.Successf("Policy %s stored", name)

	formatter := output.NewFormatterWithWriter(out, cliCtx.Config.OutputFormat)
	return formatter.PrintDocument(res)
}
