package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ouroware/hypergrid"
	"github.com/ouroware/hypergrid/pkg/capability"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a mesh and its HTTP control surface",
	Long: `Starts an empty mesh and exposes it over HTTP. Nodes are then
registered, interwired and fed through the other gridctl commands.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfgPath, _ := cmd.Flags().GetString("config")
		cfg, err := LoadConfig(cfgPath)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}

		handler := slog.NewTextHandler(os.Stderr, nil)
		slog.SetDefault(slog.New(handler))

		opts, err := cfg.Options()
		if err != nil {
			fmt.Printf("Error in config: %v\n", err)
			os.Exit(1)
		}
		mo, err := hypergrid.Create(append(opts, hypergrid.WithLog(handler))...)
		if err != nil {
			fmt.Printf("Error creating mesh: %v\n", err)
			os.Exit(1)
		}

		if cfg.Gossip.Enabled {
			disc, err := hypergrid.NewDiscovery(hypergrid.DiscoveryConfig{
				NodeName:   cfg.Gossip.NodeName,
				BindAddr:   cfg.Gossip.BindAddr,
				BindPort:   cfg.Gossip.BindPort,
				LogHandler: handler,
			}, mo.Peers())
			if err != nil {
				fmt.Printf("Error starting gossip: %v\n", err)
				os.Exit(1)
			}
			defer disc.Shutdown()
			if err := disc.Join(mo.Peers().Snapshot()); err != nil {
				slog.Warn("gossip join incomplete", "error", err)
			}
		}

		srv := hypergrid.NewControlServer(mo, builtinRegistry())

		serverErrors := make(chan error, 1)
		go func() {
			serverErrors <- srv.Serve(cfg.Listen)
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)

		case sig := <-shutdown:
			fmt.Printf("\nStart shutdown... Signal: %v\n", sig)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Close(ctx); err != nil {
				fmt.Printf("Graceful HTTP shutdown did not complete: %v\n", err)
			}
			if err := mo.Shutdown(); err != nil {
				fmt.Printf("Error shutting the mesh down: %v\n", err)
			}
			fmt.Println("Mesh stopped gracefully")
		}
	},
}

// builtinRegistry ships the adapters a bare gridctl can serve without
// external providers.
func builtinRegistry() *capability.Registry {
	registry := capability.NewRegistry()
	registry.Register("echo:", func(model string) (capability.Capability, error) {
		return capability.GenerateFunc(func(_ context.Context, prompt string) (string, error) {
			return prompt, nil
		}), nil
	})
	registry.Register("echo:upper", func(model string) (capability.Capability, error) {
		return capability.GenerateFunc(func(_ context.Context, prompt string) (string, error) {
			return strings.ToUpper(prompt), nil
		}), nil
	})
	return registry
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("config", "c", "", "Path to the yaml mesh config")
}
