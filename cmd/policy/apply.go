package policy

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/stackvista/sts-lifecycle/cmd/connect"
	"github.com/stackvista/sts-lifecycle/internal/config"
	"github.com/stackvista/sts-lifecycle/internal/lifecycle"
	"github.com/stackvista/sts-lifecycle/internal/logger"
	"github.com/stackvista/sts-lifecycle/internal/output"
)

func applyCmd(cliCtx *config.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Store every policy listed in the lifecycle configuration",
		Long: `Store every policy under lifecycle.policies in the configuration ConfigMap
and Secret. Policies are sent concurrently, bounded by lifecycle.concurrency.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			if err := runApply(cmd.Context(), cmd.OutOrStdout(), cliCtx); err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(1)
			}
		},
	}
}

func runApply(ctx context.Context, out io.Writer, cliCtx *config.Context) error {
	log := logger.New(cliCtx.Config.Quiet, cliCtx.Config.Debug)

	sess, err := connect.Open(ctx, cliCtx, log)
	if err != nil {
		return err
	}
	defer sess.Close()

	cfg := sess.Config
	if cfg == nil {
		cfg, _, err = connect.LoadConfig(cliCtx)
		if err != nil {
			return err
		}
	}

	formatter := output.NewFormatterWithWriter(out, cliCtx.Config.OutputFormat)
	return applyPolicies(ctx, formatter, sess.Manager, cfg.Lifecycle, log)
}

func applyPolicies(ctx context.Context, formatter *output.Formatter, mgr *lifecycle.Manager, lc config.LifecycleConfig, log *logger.Logger) error {
	if len(lc.Policies) == 0 {
		formatter.PrintMessage("No policies configured")
		return nil
	}

	policies := make(map[string]lifecycle.Document, len(lc.Policies))
	for name, raw := range lc.Policies {
		doc := lifecycle.Unwrap(lifecycle.Document(raw))
		if err := lifecycle.ValidateDocument(doc); err != nil {
			return fmt.Errorf("policy %s: %w", name, err)
		}
		policies[name] = doc
	}

	log.Infof("Applying %d policies to %s...", len(policies), mgr.Connection().Engine)

	results, applyErr := mgr.ApplyPolicies(ctx, policies, lc.Concurrency)

	names := make([]string, 0, len(policies))
	for name := range policies {
		names = append(names, name)
	}
	sort.Strings(names)

	table := output.Table{
		Headers: []string{"POLICY", "FORM", "APPLIED"},
		Rows:    make([][]string, 0, len(names)),
	}
	for _, name := range names {
		_, applied := results[name]
		table.Rows = append(table.Rows, []string{name, policyForm(policies[name]), strconv.FormatBool(applied)})
	}
	if err := formatter.PrintTable(table); err != nil {
		return err
	}

	if applyErr != nil {
		return fmt.Errorf("failed to apply policies: %w", applyErr)
	}

	log.Successf("Applied %d policies", len(results))
	return nil
}
