package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/stackvista/sts-lifecycle/cmd/cluster"
	"github.com/stackvista/sts-lifecycle/cmd/policy"
	"github.com/stackvista/sts-lifecycle/cmd/version"
	"github.com/stackvista/sts-lifecycle/internal/config"
)

var (
	cliCtx *config.Context
)

// addClusterFlags adds the flags needed to reach the search cluster, either
// directly or through a port-forward described by the configuration
func addClusterFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&cliCtx.Config.URL, "url", "", "Cluster URL; skips Kubernetes discovery and port-forwarding")
	cmd.PersistentFlags().StringVar(&cliCtx.Config.Username, "username", "", "Cluster username (overrides configuration)")
	cmd.PersistentFlags().StringVar(&cliCtx.Config.Password, "password", "", "Cluster password (overrides configuration)")
	cmd.PersistentFlags().StringVar(&cliCtx.Config.Namespace, "namespace", "", "Kubernetes namespace (required without --url)")
	cmd.PersistentFlags().StringVar(&cliCtx.Config.Kubeconfig, "kubeconfig", "", "Path to kubeconfig file (default: ~/.kube/config)")
	cmd.PersistentFlags().BoolVar(&cliCtx.Config.Debug, "debug", false, "Enable debug output")
	cmd.PersistentFlags().BoolVarP(&cliCtx.Config.Quiet, "quiet", "q", false, "Suppress operational messages (only show errors and data output)")
	cmd.PersistentFlags().StringVar(&cliCtx.Config.ConfigMapName, "configmap", "suse-observability-lifecycle-config", "ConfigMap name containing lifecycle configuration")
	cmd.PersistentFlags().StringVar(&cliCtx.Config.SecretName, "secret", "suse-observability-lifecycle-config", "Secret name containing lifecycle configuration")
	cmd.PersistentFlags().StringVarP(&cliCtx.Config.OutputFormat, "output", "o", "table", "Output format (table, json)")
}

func init() {
	cliCtx = config.NewContext()

	// Add cluster flags to commands that need them
	clusterCmd := cluster.Cmd(cliCtx)
	addClusterFlags(clusterCmd)
	rootCmd.AddCommand(clusterCmd)

	policyCmd := policy.Cmd(cliCtx)
	addClusterFlags(policyCmd)
	rootCmd.AddCommand(policyCmd)

	// Add commands that don't need cluster flags
	rootCmd.AddCommand(version.Cmd())
}

var rootCmd = &cobra.Command{
	Use:   "sts-lifecycle",
	Short: "Index lifecycle policy tool for SUSE Observability",
	Long: `A CLI tool for managing index lifecycle policies on the Elasticsearch or
OpenSearch cluster of SUSE Observability. Policies are written once and stored
as ILM policies on Elasticsearch or ISM policies on OpenSearch.`,
}

// Execute runs the root command; an interrupt cancels in-flight cluster calls
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
