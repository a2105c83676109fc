package main

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-noise/engine/loader"
	"github.com/spf13/cobra"
)

var catalogueCmd = &cobra.Command{
	Use:   "catalogue [dir]",
	Short: "Regenerate the fragment list files of a catalogue directory",
	Long: `Scans hash/ and noise/2d/ under dir for .wgsl files and rewrites hash_list.txt and
noise_list.txt. dir defaults to shaders.root.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCatalogue,
}

func runCatalogue(cmd *cobra.Command, args []string) error {
	dir := cfg.Shaders.Root
	if len(args) > 0 {
		dir = args[0]
	}
	if dir == "" || loader.IsURL(dir) {
		return fmt.Errorf("catalogue needs a directory, got %q", dir)
	}

	c, err := loader.WriteCatalogue(dir)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "hashes (%d): %s\n", len(c.Hashes), strings.Join(c.Hashes, ", "))
	fmt.Fprintf(out, "noises (%d): %s\n", len(c.Noises), strings.Join(c.Noises, ", "))
	return nil
}
