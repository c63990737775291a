package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kdpath/tracer/internal/manifest"
)

var statsCmd = &cobra.Command{
	Use:   "stats <manifest_or_output_dir>",
	Short: "Display the manifest report for a completed render",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(_ *cobra.Command, args []string) error {
	path, err := resolveManifestPath(args[0])
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}

	m, err := manifest.ReadJSON(path)
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}

	printStats(m)
	return nil
}

// resolveManifestPath accepts either a manifest file directly, or the
// output directory / image path a render wrote, and locates the
// "<output>.manifest.json" file next to it.
func resolveManifestPath(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.IsDir() {
		if strings.HasSuffix(path, ".manifest.json") {
			return path, nil
		}
		return path + ".manifest.json", nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return "", fmt.Errorf("read dir %s: %w", path, err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".manifest.json") {
			return filepath.Join(path, e.Name()), nil
		}
	}
	return "", fmt.Errorf("no manifest found in %s", path)
}

func printStats(m *manifest.Manifest) {
	fmt.Println()
	fmt.Printf("  Manifest version: %d\n", m.Version)
	fmt.Printf("  Generated:        %s\n", m.GeneratedAt)
	fmt.Println()

	s := m.Scene
	fmt.Printf("  Scene:            %s\n", s.ConfigPath)
	fmt.Printf("  Mesh:             %s\n", s.MeshPath)
	fmt.Printf("  Output:           %s\n", s.OutputPath)
	fmt.Printf("  Resolution:       %dx%d\n", s.Width, s.Height)
	fmt.Printf("  Triangles:        %d\n", s.TriCount)
	fmt.Printf("  Lights:           %d\n", s.LightCount)
	fmt.Println()

	r := m.Render
	fmt.Printf("  Profile:          %s\n", r.Profile)
	fmt.Printf("  Samples/pixel:    %d\n", r.NSamples)
	fmt.Printf("  Recursion level:  %d\n", r.RecLvl)
	fmt.Printf("  Workers:          %d\n", r.Workers)
	fmt.Printf("  Elapsed:          %.2fs\n", r.ElapsedSecs)
	fmt.Println()

	k := m.KDTree
	fmt.Printf("  KD-tree nodes:    %d\n", k.NodeCount)
	fmt.Printf("  KD-tree leaves:   %d\n", k.LeafCount)
	fmt.Printf("  Max depth:        %d\n", k.MaxDepth)
	fmt.Printf("  Mean tris/leaf:   %.2f\n", k.MeanLeafTris)
	fmt.Println()

	if m.Fingerprint != "" {
		fmt.Printf("  Fingerprint:      %s\n", m.Fingerprint)
		fmt.Println()
	}
}
