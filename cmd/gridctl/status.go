package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ouroware/hypergrid"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the health report of a running mesh",
	Run: func(cmd *cobra.Command, args []string) {
		var report hypergrid.HealthReport
		if err := callControl("GET", controlAddr(cmd)+"/status", nil, &report); err != nil {
			fmt.Printf("Error fetching status: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Mesh at %s: %d node(s), %d connection(s)\n",
			report.GeneratedAt.Format("15:04:05"), len(report.Nodes), report.Connections)
		for _, node := range report.Nodes {
			fmt.Printf("  %-20s %-12s %-12s processed=%d errors=%d dropped=%d\n",
				node.NodeID, node.Position, node.StatusText,
				node.Processed, node.Errors, node.Dropped)
		}
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
