package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aretw0/lodge"
	"github.com/aretw0/lodge/internal/presentation/graph"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the conversation flow",
	Long:  `Prints the transition table as a Mermaid diagram (graph TD) or as JSON edges.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		edges := lodge.New().Edges()

		switch format {
		case "mermaid":
			fmt.Print(graph.GenerateMermaid(edges, nil))
		case "json":
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(edges)
		default:
			return fmt.Errorf("unknown format %q (want mermaid or json)", format)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("format", "f", "mermaid", "Output format: mermaid or json")
}
