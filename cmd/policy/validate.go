package policy

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/stackvista/sts-lifecycle/internal/config"
	"github.com/stackvista/sts-lifecycle/internal/engine"
	"github.com/stackvista/sts-lifecycle/internal/lifecycle"
	"github.com/stackvista/sts-lifecycle/internal/output"
)

func validateCmd(cliCtx *config.Context) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a policy file and report what would not survive conversion",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			if err := runValidate(cmd.OutOrStdout(), cliCtx, file); err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(1)
			}
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Policy file (YAML or JSON)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runValidate(out io.Writer, cliCtx *config.Context, file string) error {
	doc, err := readPolicyFile(file)
	if err != nil {
		return err
	}

	// Converting to the other engine is the only place items can be lost
	target := engine.OpenSearch
	if doc.Has("states") {
		target = engine.Elasticsearch
	}

	_, diags, err := lifecycle.NormalizePolicy(doc, target)
	if err != nil {
		return fmt.Errorf("failed to convert policy: %w", err)
	}

	formatter := output.NewFormatterWithWriter(out, cliCtx.Config.OutputFormat)
	formatter.PrintMessage(fmt.Sprintf("%s is a valid %s-form policy", file, policyForm(doc)))

	if len(diags) == 0 {
		formatter.PrintMessage(fmt.Sprintf("Converts to %s without losses", target))
		if formatter.IsJSON() {
			return formatter.PrintTable(output.Table{})
		}
		return nil
	}

	table := output.Table{
		Headers: []string{"TARGET", "PHASE", "ACTION", "REASON", "DETAIL"},
		Rows:    make([][]string, 0, len(diags)),
	}
	for _, d := range diags {
		table.Rows = append(table.Rows, []string{target.String(), d.Phase, d.Action, string(d.Reason), d.Detail})
	}
	return formatter.PrintTable(table)
}
