package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gridctl",
	Short: "gridctl runs and operates a hypergrid mesh",
	Long: `gridctl hosts a hypergrid: an N-dimensional mesh of vertices wrapping
reasoning capabilities, exchanging thoughts along dimension-labeled edges.

'gridctl serve' runs a mesh and its HTTP control surface; the other
commands drive a running mesh through that surface.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("addr", "http://127.0.0.1:7433", "base URL of the control surface")
}
