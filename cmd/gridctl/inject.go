package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var injectCmd = &cobra.Command{
	Use:   "inject <node-id> <payload>",
	Short: "Seed a thought at a node's vertex",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		body := map[string]any{"payload": args[1]}
		var reply struct {
			TraceID string `json:"trace_id"`
		}
		url := controlAddr(cmd) + "/nodes/" + args[0] + "/thoughts"
		if err := callControl("POST", url, body, &reply); err != nil {
			fmt.Printf("Error injecting thought: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Injected, trace %s\n", reply.TraceID)
	},
}

func init() {
	rootCmd.AddCommand(injectCmd)
}
