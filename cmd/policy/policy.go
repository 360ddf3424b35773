package policy

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/stackvista/sts-lifecycle/internal/config"
	"github.com/stackvista/sts-lifecycle/internal/lifecycle"
)

func Cmd(cliCtx *config.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Manage index lifecycle policies on Elasticsearch (ILM) and OpenSearch (ISM)",
	}

	cmd.AddCommand(putCmd(cliCtx))
	cmd.AddCommand(getCmd(cliCtx))
	cmd.AddCommand(deleteCmd(cliCtx))
	cmd.AddCommand(applyCmd(cliCtx))
	cmd.AddCommand(convertCmd(cliCtx))
	cmd.AddCommand(validateCmd(cliCtx))

	return cmd
}

// readPolicyFile loads a policy from a YAML or JSON file. The file may hold
// the bare policy or the {"policy": {...}} request body.
func readPolicyFile(path string) (lifecycle.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	return parsePolicy(data)
}

func parsePolicy(data []byte) (lifecycle.Document, error) {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse policy: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("policy is empty")
	}

	doc := lifecycle.Unwrap(lifecycle.Document(raw))
	if err := lifecycle.ValidateDocument(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// policyForm names the shape of an already validated document
func policyForm(doc lifecycle.Document) string {
	if doc.Has("states") {
		return "state"
	}
	return "phase"
}
