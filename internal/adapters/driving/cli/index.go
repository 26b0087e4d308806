package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/pagewise/internal/core/domain"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the vector index",
}

var indexEnsureCmd = &cobra.Command{
	Use:   "ensure",
	Short: "Create the index if needed and wait until it is ready",
	Long: `Creates the configured index when it does not exist and polls until the
provider reports it ready. An existing index with a different dimension or
metric is a configuration error.`,
	Args: cobra.NoArgs,
	RunE: runIndexEnsure,
}

var indexDescribeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Show the configured index",
	Args:  cobra.NoArgs,
	RunE:  runIndexDescribe,
}

func init() {
	indexCmd.AddCommand(indexEnsureCmd)
	indexCmd.AddCommand(indexDescribeCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexEnsure(cmd *cobra.Command, _ []string) error {
	rt, err := openRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	desc, err := rt.EnsureIndex(cmd.Context())
	if err != nil {
		return err
	}
	printIndex(cmd, desc)
	return nil
}

func runIndexDescribe(cmd *cobra.Command, _ []string) error {
	rt, err := openRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	desc, err := rt.DescribeIndex(cmd.Context())
	if err != nil {
		return err
	}
	printIndex(cmd, desc)
	return nil
}

func printIndex(cmd *cobra.Command, desc *domain.IndexDescription) {
	cmd.Printf("Index:     %s\n", desc.Name)
	cmd.Printf("Dimension: %d\n", desc.Dimension)
	cmd.Printf("Metric:    %s\n", desc.Metric)
	cmd.Printf("Ready:     %t\n", desc.Ready)
	if desc.State != "" {
		cmd.Printf("State:     %s\n", desc.State)
	}
	if desc.Host != "" {
		cmd.Printf("Host:      %s\n", desc.Host)
	}
}
