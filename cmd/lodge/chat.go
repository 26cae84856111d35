package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aretw0/lodge/internal/cli"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Run a conversation in the terminal",
	Long: `Runs one conversation on stdin/stdout. Options can be picked by number.
With --json, replies are written as NDJSON and input lines may be JSON strings
or {"text": "..."} objects.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonMode, _ := cmd.Flags().GetBool("json")
		userID, _ := cmd.Flags().GetString("user")
		rawCriteria, _ := cmd.Flags().GetString("criteria")

		var criteria map[string]any
		if rawCriteria != "" {
			if err := json.Unmarshal([]byte(rawCriteria), &criteria); err != nil {
				return fmt.Errorf("--criteria must be a JSON object: %w", err)
			}
		}

		sigCtx, stop := cli.ShutdownContext(cmd.Context())
		defer stop()

		app, err := loadApp(sigCtx, cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		_, err = cli.RunChat(sigCtx, app, cli.ChatOptions{
			JSON:     jsonMode,
			UserID:   userID,
			Criteria: criteria,
			In:       os.Stdin,
			Out:      os.Stdout,
		})
		return err
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().Bool("json", false, "Run in JSON mode (NDJSON input/output)")
	chatCmd.Flags().String("user", "", "User id recorded with the session")
	chatCmd.Flags().String("criteria", "", "Search criteria JSON to start from, e.g. '{\"location\":\"Leeds\",...}'")
}
