package main

import (
	"context"
	"fmt"

	"github.com/Carmen-Shannon/oxy-noise/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-noise/engine/renderer/backend/headless"
	"github.com/Carmen-Shannon/oxy-noise/engine/renderer/shader"
	"github.com/spf13/cobra"
)

var assembleValidate bool

var assembleCmd = &cobra.Command{
	Use:   "assemble [hash] [noise]",
	Short: "Print the assembled fragment program",
	Long: `Fetches a hash and a noise fragment, assembles them with the skeleton and glue and
prints the resulting WGSL. Names default to shaders.hash and shaders.noise.

Example:
  noiseviewer assemble pcg3d_13 value_21 --validate`,
	Args: cobra.MaximumNArgs(2),
	RunE: runAssemble,
}

func init() {
	assembleCmd.Flags().BoolVar(&assembleValidate, "validate", false, "compile the result offline and fail on errors")
}

func runAssemble(cmd *cobra.Command, args []string) error {
	hash, noise := cfg.Shaders.Hash, cfg.Shaders.Noise
	if len(args) > 0 {
		hash = args[0]
	}
	if len(args) > 1 {
		noise = args[1]
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	fetcher, err := newFetcher(cfg.Shaders.Root)
	if err != nil {
		return err
	}
	store := shader.NewComponentStore(fetcher, shader.WithLogger(logger.Named("store")))
	if err := store.LoadHash(ctx, hash); err != nil {
		return err
	}
	if err := store.LoadNoise(ctx, noise); err != nil {
		return err
	}

	a, err := shader.NewAssembler()
	if err != nil {
		return err
	}
	source, err := a.Assemble(store.Snapshot())
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), source)

	if assembleValidate {
		hb := headless.New(headless.WithLogger(logger.Named("naga")))
		defer hb.Release()
		module, err := hb.CompileShader(backend.ShaderModuleDescriptor{Label: hash + "+" + noise, Code: source})
		if err != nil {
			return err
		}
		module.Release()
	}
	return nil
}
