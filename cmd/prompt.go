package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chukul/cloudview/internal/session"
)

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Display login state for shell prompt",
	Long:  `Print a short marker for shell prompts while a session is stored. Prints nothing otherwise.`,
	Run: func(cmd *cobra.Command, args []string) {
		store, err := newStore()
		if err != nil || !session.Present(store) {
			return
		}
		fmt.Printf("☁️  %s", cfg.Region)
	},
}

var promptInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Display login state in JSON format",
	Run: func(cmd *cobra.Command, args []string) {
		info := map[string]any{"logged_in": false}

		store, err := newStore()
		if err == nil && session.Present(store) {
			info["logged_in"] = true
			info["region"] = cfg.Region
			info["api_url"] = cfg.APIURL
		}

		output, _ := json.Marshal(info)
		fmt.Println(string(output))
	},
}

func init() {
	promptCmd.AddCommand(promptInfoCmd)
	rootCmd.AddCommand(promptCmd)
}
