package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var shutdownCmd = &cobra.Command{
	Use:   "shutdown [node-id]",
	Short: "Drain and remove one node, or the whole mesh",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		url := controlAddr(cmd) + "/nodes"
		what := "mesh"
		if len(args) == 1 {
			url += "/" + args[0]
			what = args[0]
		}
		if err := callControl("DELETE", url, nil, nil); err != nil {
			fmt.Printf("Error shutting down %s: %v\n", what, err)
			os.Exit(1)
		}
		fmt.Printf("Shut down %s\n", what)
	},
}

func init() {
	rootCmd.AddCommand(shutdownCmd)
}
