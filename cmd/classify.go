package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/relayout/internal/device"
)

type classification struct {
	UserAgent string       `json:"user_agent"`
	Class     string       `json:"class"`
	Facts     device.Facts `json:"facts"`
}

var classifyCmd = &cobra.Command{
	Use:   "classify [user-agent]",
	Short: "Classify a user agent as pc, tablet or mobile",
	Long: `Print the device facts derived from a user agent as JSON.

Without an argument the layout.user_agent config value is classified.

Examples:
  relayout classify "Mozilla/5.0 (iPad; CPU OS 16_0 like Mac OS X) Mobile/15E148"
  relayout classify | jq -r .class`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ua := cfg.Layout.UserAgent
		if len(args) == 1 {
			ua = args[0]
		}
		facts := device.NewUAClassifier(func() string { return ua }).Classify()

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(classification{UserAgent: ua, Class: facts.Class().String(), Facts: facts}); err != nil {
			return fmt.Errorf("encoding classification: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}
