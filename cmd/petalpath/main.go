package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fentz26/petalpath/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "petalpath",
	Short: "petalpath - grid puzzle solver",
	Long: `petalpath plans and plays a grid puzzle in which a robot collects flowers
and delivers them to a princess, cleaning obstacles on the way.`,
	SilenceUsage: true,
	// No RunE - defaults to showing help when no subcommand is provided
}

var (
	apiAddr    string
	configPath string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&apiAddr, "api", "http://127.0.0.1:7477", "API server address")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default ~/.petalpath/config.yaml)")

	// Add subcommands
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(gameCmd)
	rootCmd.AddCommand(jobCmd)
	rootCmd.AddCommand(solveCmd)
}

// loadConfig reads --config, or the per-user file when unset.
func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.LoadFromHome()
	}
	return config.Load(configPath)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
