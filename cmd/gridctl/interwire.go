package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var interwireCmd = &cobra.Command{
	Use:   "interwire <source-id> <target-id>",
	Short: "Connect two nodes along a dimension",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		dimension, _ := cmd.Flags().GetInt("dimension")
		weight, _ := cmd.Flags().GetFloat64("weight")

		body := map[string]any{
			"source":    args[0],
			"target":    args[1],
			"dimension": dimension,
			"weight":    weight,
		}
		if err := callControl("POST", controlAddr(cmd)+"/interwire", body, nil); err != nil {
			fmt.Printf("Error interwiring nodes: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Interwired %s -[%d]-> %s\n", args[0], dimension, args[1])
	},
}

func init() {
	rootCmd.AddCommand(interwireCmd)
	interwireCmd.Flags().IntP("dimension", "d", 0, "Dimension the connection travels along")
	interwireCmd.Flags().Float64P("weight", "w", 1, "Edge weight")
}
