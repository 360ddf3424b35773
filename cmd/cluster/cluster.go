package cluster

import (
	"github.com/spf13/cobra"
	"github.com/stackvista/sts-lifecycle/internal/config"
)

func Cmd(cliCtx *config.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cluster",
		Short: "Inspect the search cluster",
	}

	cmd.AddCommand(infoCmd(cliCtx))
	cmd.AddCommand(featuresCmd(cliCtx))

	return cmd
}
