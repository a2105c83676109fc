package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-noise/engine/loader"
	"github.com/Carmen-Shannon/oxy-noise/engine/renderer"
	"github.com/Carmen-Shannon/oxy-noise/engine/renderer/backend/headless"
	"github.com/Carmen-Shannon/oxy-noise/engine/renderer/shader"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Compile every hash and noise combination offline",
	Long: `Builds a pipeline for every pair in the catalogue lists with the offline compiler and
reports the pairs that fail. Exits non-zero if any pair fails.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

// pairResult is the outcome of building one hash and noise pair.
type pairResult struct {
	Hash  string
	Noise string
	Err   error
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	fetcher, err := newFetcher(cfg.Shaders.Root)
	if err != nil {
		return err
	}
	catalogue, err := loader.ReadCatalogue(ctx, fetcher)
	if err != nil {
		return err
	}

	results, err := checkCatalogue(ctx, fetcher, catalogue, cfg.Loader.Workers)
	if err != nil {
		return err
	}

	failed := 0
	out := cmd.OutOrStdout()
	for _, res := range results {
		if res.Err != nil {
			failed++
			fmt.Fprintf(out, "FAIL %s + %s: %v\n", res.Hash, res.Noise, res.Err)
			continue
		}
		fmt.Fprintf(out, "ok   %s + %s\n", res.Hash, res.Noise)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d combinations failed", failed, len(results))
	}
	return nil
}

// checkCatalogue fetches every listed fragment once and builds each pair on its own headless
// backend, at most workers at a time. Results follow the catalogue order, hashes outermost.
// The returned error is set only if a fragment cannot be fetched.
func checkCatalogue(ctx context.Context, fetcher loader.Fetcher, c loader.Catalogue, workers int) ([]pairResult, error) {
	sources := struct {
		sync.Mutex
		hash, noise map[string]string
	}{hash: make(map[string]string), noise: make(map[string]string)}

	fg, fctx := errgroup.WithContext(ctx)
	fg.SetLimit(max(workers, 1))
	for _, name := range c.Hashes {
		fg.Go(func() error {
			text, err := fetcher.FetchText(fctx, loader.HashPath(name))
			if err != nil {
				return err
			}
			sources.Lock()
			sources.hash[name] = text
			sources.Unlock()
			return nil
		})
	}
	for _, name := range c.Noises {
		fg.Go(func() error {
			text, err := fetcher.FetchText(fctx, loader.NoisePath(name))
			if err != nil {
				return err
			}
			sources.Lock()
			sources.noise[name] = text
			sources.Unlock()
			return nil
		})
	}
	if err := fg.Wait(); err != nil {
		return nil, err
	}

	results := make([]pairResult, 0, len(c.Hashes)*len(c.Noises))
	for _, h := range c.Hashes {
		for _, n := range c.Noises {
			results = append(results, pairResult{Hash: h, Noise: n})
		}
	}

	a, err := shader.NewAssembler()
	if err != nil {
		return nil, err
	}

	var g errgroup.Group
	g.SetLimit(max(workers, 1))
	for i := range results {
		res := &results[i]
		g.Go(func() error {
			res.Err = buildPair(a, sources.hash[res.Hash], sources.noise[res.Noise], res)
			if res.Err != nil {
				logger.Debug("combination failed", zap.String("hash", res.Hash), zap.String("noise", res.Noise), zap.Error(res.Err))
			}
			return nil
		})
	}
	_ = g.Wait()
	return results, nil
}

func buildPair(a shader.Assembler, hashSource, noiseSource string, res *pairResult) error {
	store := shader.NewComponentStore(nil,
		shader.WithFragment(shader.SlotHash, res.Hash, hashSource),
		shader.WithFragment(shader.SlotNoise, res.Noise, noiseSource),
	)
	hb := headless.New()
	defer hb.Release()

	r, err := renderer.NewRenderer(hb, store, a)
	if err != nil {
		return err
	}
	defer r.Release()
	return r.Update()
}
