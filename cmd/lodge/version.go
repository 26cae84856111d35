package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/lodge"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of lodge",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "lodge version %s\n", strings.TrimSpace(lodge.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
