// Command noiseviewer renders procedural noise built from interchangeable WGSL hash and noise
// fragments and rebuilds the pipeline whenever a fragment changes.
package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/Carmen-Shannon/oxy-noise/engine/config"
	"github.com/Carmen-Shannon/oxy-noise/engine/loader"
	"github.com/Carmen-Shannon/oxy-noise/engine/logging"
	"github.com/Carmen-Shannon/oxy-noise/shaders"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	envFiles   []string
	shaderRoot string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "noiseviewer",
	Short: "Hot-reloading viewer for composable WGSL noise",
	Long: `noiseviewer assembles a fragment shader from a hash fragment and a noise fragment,
draws it full screen and swaps either fragment at runtime without restarting.

Fragments come from the embedded catalogue, a directory on disk or an http(s) URL.
Press H or N to cycle the hash or noise (Shift goes backwards), R to reload both,
and Esc to quit.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadEnv(envFiles...); err != nil {
			return err
		}
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("shaders") {
			cfg.Shaders.Root = shaderRoot
		}
		if verbose {
			cfg.Logging.Level = "debug"
		}
		logger, err = logging.New(cfg.Logging)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "noiseviewer.yaml", "YAML configuration file")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env", []string{".env"}, ".env files loaded before the configuration")
	rootCmd.PersistentFlags().StringVar(&shaderRoot, "shaders", "", "catalogue directory or http(s) URL (default: embedded catalogue)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(runCmd, assembleCmd, checkCmd, catalogueCmd)
}

// newFetcher picks the fragment source for a catalogue root.
func newFetcher(root string) (loader.Fetcher, error) {
	switch {
	case root == "":
		return loader.NewFSFetcher(shaders.FS), nil
	case loader.IsURL(root):
		return loader.NewHTTPFetcher(root, &http.Client{Timeout: cfg.Loader.Timeout()})
	default:
		return loader.NewDirFetcher(root), nil
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
