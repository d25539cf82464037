package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var registerCmd = &cobra.Command{
	Use:   "register <node-id>",
	Short: "Register a node at a grid coordinate",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		coordFlag, _ := cmd.Flags().GetString("coord")
		model, _ := cmd.Flags().GetString("model")

		coord, err := parseCoord(coordFlag)
		if err != nil {
			fmt.Printf("Error parsing coordinate: %v\n", err)
			os.Exit(1)
		}

		body := map[string]any{
			"id":         args[0],
			"coordinate": coord,
			"model":      model,
		}
		var reply struct {
			ID         string `json:"id"`
			Coordinate string `json:"coordinate"`
		}
		if err := callControl("POST", controlAddr(cmd)+"/nodes", body, &reply); err != nil {
			fmt.Printf("Error registering node: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Registered %s at %s\n", reply.ID, reply.Coordinate)
	},
}

// parseCoord reads "1,0,2" into axis values.
func parseCoord(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	out := make([]int, len(parts))
	for i, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("axis %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func init() {
	rootCmd.AddCommand(registerCmd)
	registerCmd.Flags().String("coord", "0,0,0", "Comma-separated axis values")
	registerCmd.Flags().String("model", "echo:", "Model name resolved by the capability registry")
}
