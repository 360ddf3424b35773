package policy

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/stackvista/sts-lifecycle/internal/config"
	"github.com/stackvista/sts-lifecycle/internal/engine"
	"github.com/stackvista/sts-lifecycle/internal/lifecycle"
	"github.com/stackvista/sts-lifecycle/internal/logger"
	"github.com/stackvista/sts-lifecycle/internal/output"
)

type convertOptions struct {
	file   string
	target string
	strict bool
}

func convertCmd(cliCtx *config.Context) *cobra.Command {
	opts := &convertOptions{}

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert a policy to the native form of an engine",
		Long: `Convert a policy file between phase form (Elasticsearch ILM) and
state form (OpenSearch ISM) without contacting a cluster. Actions that have
no equivalent on the target engine are dropped and reported as warnings.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			if err := runConvert(cmd.OutOrStdout(), cliCtx, opts); err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(1)
			}
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Policy file (YAML or JSON)")
	cmd.Flags().StringVar(&opts.target, "target", "", "Target engine (elasticsearch, opensearch)")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Fail if any action or phase is dropped")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("target")

	return cmd
}

func runConvert(out io.Writer, cliCtx *config.Context, opts *convertOptions) error {
	log := logger.New(cliCtx.Config.Quiet, cliCtx.Config.Debug)

	target, err := engine.ParseEngine(opts.target)
	if err != nil {
		return err
	}

	doc, err := readPolicyFile(opts.file)
	if err != nil {
		return err
	}

	converted, diags, err := lifecycle.NormalizePolicy(doc, target)
	if err != nil {
		return fmt.Errorf("failed to convert policy: %w", err)
	}

	for _, d := range diags {
		log.Warningf("%s", d)
	}
	if opts.strict && len(diags) > 0 {
		return fmt.Errorf("conversion to %s dropped %d item(s)", target, len(diags))
	}

	formatter := output.NewFormatterWithWriter(out, cliCtx.Config.OutputFormat)
	return formatter.PrintDocument(lifecycle.Document{"policy": converted})
}
